package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/docdex/internal/config"
	"github.com/Aman-CERP/docdex/internal/indexer"
	"github.com/Aman-CERP/docdex/internal/model"
	"github.com/Aman-CERP/docdex/internal/output"
	"github.com/Aman-CERP/docdex/internal/server"
)

const shutdownTimeout = 10 * time.Second

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve <index-file-or-folder> [address]",
		Short: "Serve the search API and web UI over HTTP",
		Long: `Start the HTTP query service. Given a folder, docdex keeps indexing
it in the background while serving queries, picking up new and changed
files as they appear. Given an index file, it serves that index as-is.

The address defaults to the configured server.address
(127.0.0.1:6969 unless overridden).`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := ""
			if len(args) == 2 {
				address = args[1]
			}
			return runServe(cmd, args[0], address)
		},
	}
}

func runServe(cmd *cobra.Command, target, address string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if address == "" {
		address = cfg.Server.Address
	}
	out := output.New(cmd.OutOrStdout())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	info, err := os.Stat(target)
	if err != nil {
		return err
	}

	var backend model.Model
	var watcher *indexer.Watcher
	analyzer := model.NewAnalyzer(cfg.Index.Stemming)

	if info.IsDir() {
		backend, err = openServeBackend(cfg)
		if err != nil {
			return err
		}
		ix := indexer.New(backend, analyzer, cfg.Index.Exclude)
		watcher = indexer.NewWatcher(ix, target, cfg.Index.WatchDebounce, cfg.Index.RescanInterval)
		out.Statusf("🔍", "indexing %s in the background", target)
	} else {
		backend, err = openExistingBackend(cfg, target)
		if err != nil {
			return err
		}
	}
	defer func() { _ = backend.Close() }()

	srv := server.New(backend, analyzer, cfg.Search.MaxResults, cfg.Search.CacheSize, cfg.Search.CacheTTL)
	httpSrv := &http.Server{
		Addr:              address,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	out.Successf("listening on http://%s", address)
	slog.Info("server_starting", slog.String("address", address))

	g, gctx := errgroup.WithContext(ctx)

	if watcher != nil {
		// A failing indexer degrades the corpus to stale; it never takes
		// the query service down with it.
		g.Go(func() error {
			if err := watcher.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("background_indexing_stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server_stopped")
	return nil
}

// openServeBackend opens or creates the backend the background indexer
// writes into. Unlike a one-shot index run, an existing index is reused
// so the server answers queries while the first pass catches up.
func openServeBackend(cfg *config.Config) (model.Model, error) {
	path := cfg.IndexPath()
	if cfg.Storage.Backend == config.BackendSQLite {
		return model.OpenSQLiteModel(path)
	}
	if _, err := os.Stat(path); err == nil {
		return model.OpenMemoryModel(path)
	}
	return model.NewMemoryModel(path), nil
}
