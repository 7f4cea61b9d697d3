package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docdex/internal/config"
	derrors "github.com/Aman-CERP/docdex/internal/errors"
	"github.com/Aman-CERP/docdex/internal/model"
	"github.com/Aman-CERP/docdex/internal/output"
)

// newSearchCmd creates the search command.
func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <index-file> <query>...",
		Short: "Query an existing index from the command line",
		Long: `Rank every indexed document against the query and print the top
results, one "path score" pair per line, best match first.

The index file must match the backend: index.json without --sqlite,
index.db with it.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], strings.Join(args[1:], " "))
		},
	}
}

func runSearch(cmd *cobra.Command, indexFile, query string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	backend, err := openExistingBackend(cfg, indexFile)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	terms := model.NewAnalyzer(cfg.Index.Stemming).Terms(query)
	results, err := backend.SearchQuery(cmd.Context(), terms)
	if err != nil {
		return err
	}
	if len(results) > cfg.Search.MaxResults {
		results = results[:cfg.Search.MaxResults]
	}

	output.New(cmd.OutOrStdout()).Results(results)
	return nil
}

// openExistingBackend opens an index file that must already exist.
func openExistingBackend(cfg *config.Config, path string) (model.Model, error) {
	if cfg.Storage.Backend == config.BackendSQLite {
		if _, err := os.Stat(path); err != nil {
			return nil, derrors.New(derrors.ErrCodeIndexOpen,
				"could not open index file "+path, err)
		}
		return model.OpenSQLiteModel(path)
	}
	return model.OpenMemoryModel(path)
}
