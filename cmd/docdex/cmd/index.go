package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docdex/internal/config"
	"github.com/Aman-CERP/docdex/internal/indexer"
	"github.com/Aman-CERP/docdex/internal/model"
	"github.com/Aman-CERP/docdex/internal/output"
)

// newIndexCmd creates the index command.
func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <folder>",
		Short: "Index all supported documents under a folder",
		Long: `Walk the folder recursively and index every .txt, .md, .xml, .xhtml,
and .pdf file. Files that cannot be read or parsed are skipped and
counted; the rest of the pass continues.

With --sqlite the whole pass runs in a single transaction against a
fresh index.db; otherwise the result is written to index.json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd, args[0])
		},
	}
}

func runIndex(ctx context.Context, cmd *cobra.Command, folder string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := output.New(cmd.OutOrStdout())

	backend, err := openIndexBackend(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	ix := indexer.New(backend, model.NewAnalyzer(cfg.Index.Stemming), cfg.Index.Exclude)

	if sq, ok := backend.(*model.SQLiteModel); ok {
		if err := sq.Begin(ctx); err != nil {
			return err
		}
		stats, err := ix.AddFolder(ctx, folder)
		if err != nil {
			_ = sq.Rollback()
			return err
		}
		if err := sq.Commit(); err != nil {
			return err
		}
		out.IndexSummary(stats.Indexed, stats.Skipped, stats.Unchanged)
		return nil
	}

	stats, err := ix.AddFolder(ctx, folder)
	if err != nil {
		return err
	}
	// An empty corpus still gets a snapshot file.
	if stats.Indexed == 0 {
		if err := backend.Save(); err != nil {
			return err
		}
	}
	out.IndexSummary(stats.Indexed, stats.Skipped, stats.Unchanged)
	out.Statusf("", "index written to %s", cfg.IndexPath())
	return nil
}

// openIndexBackend creates a fresh backend for a full indexing pass. The
// SQLite variant removes any previous database first so stale documents
// cannot survive the rebuild.
func openIndexBackend(cfg *config.Config) (model.Model, error) {
	path := cfg.IndexPath()
	if cfg.Storage.Backend == config.BackendSQLite {
		// WAL sidecar files must go with the database itself.
		for _, stale := range []string{path, path + "-wal", path + "-shm"} {
			if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
				return nil, fmt.Errorf("could not remove previous index %s: %w", stale, err)
			}
		}
		return model.OpenSQLiteModel(path)
	}
	return model.NewMemoryModel(path), nil
}
