// Package cmd provides the CLI commands for docdex.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docdex/internal/config"
	"github.com/Aman-CERP/docdex/internal/logging"
	"github.com/Aman-CERP/docdex/pkg/version"
)

var (
	useSQLite      bool
	debugMode      bool
	configDir      string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the docdex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docdex",
		Short: "Local document indexing and ranked full-text search",
		Long: `docdex indexes directories of text, markdown, XML, and PDF documents
and answers free-text queries ranked by TF-IDF.

The index lives either in a JSON snapshot loaded fully into memory or,
with --sqlite, in a SQLite database queried in place. Both backends
produce identical rankings for the same corpus.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("docdex version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&useSQLite, "sqlite", false, "Use the SQLite backend instead of the JSON snapshot")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.docdex/logs/")
	cmd.PersistentFlags().StringVar(&configDir, "config", ".", "Directory containing "+config.ConfigFileName)

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = teardownLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func setupLogging(_ *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	if debugMode {
		cfg = logging.DebugConfig()
	}
	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	if debugMode {
		slog.Info("debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()))
	}
	return nil
}

func teardownLogging(_ *cobra.Command, _ []string) {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}

// loadConfig reads .docdex.yaml from the --config directory and applies
// the --sqlite flag on top of it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	if useSQLite {
		cfg.Storage.Backend = config.BackendSQLite
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "❌ %v\n", err)
		return err
	}
	return nil
}
