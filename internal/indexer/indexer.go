// Package indexer walks a source tree and feeds document statistics into a
// storage backend.
//
// Traversal policy: directories are recursed into, symbolic links are
// skipped (never followed), and every other entry is treated as a candidate
// file. A file that cannot be extracted or read is logged, counted, and
// skipped; a directory that cannot be listed or a storage backend failure
// aborts the pass with an error.
package indexer

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/docdex/internal/errors"
	"github.com/Aman-CERP/docdex/internal/extract"
	"github.com/Aman-CERP/docdex/internal/model"
)

// Stats accumulates the outcome of one indexing pass.
type Stats struct {
	// Indexed counts documents added or replaced.
	Indexed int
	// Skipped counts files that failed extraction or metadata reads.
	Skipped int
	// Unchanged counts files whose stored statistics were still fresh.
	Unchanged int
}

// Indexer drives indexing passes over a root directory.
type Indexer struct {
	backend  model.Model
	analyzer *model.Analyzer
	exclude  map[string]struct{}
}

// New creates an Indexer writing into backend. Entries whose base name is
// listed in exclude are not traversed.
func New(backend model.Model, analyzer *model.Analyzer, exclude []string) *Indexer {
	ex := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		ex[name] = struct{}{}
	}
	return &Indexer{backend: backend, analyzer: analyzer, exclude: ex}
}

// AddFolder runs one full pass over dir. After a pass that added or
// replaced at least one document, the backend is told to persist itself.
func (ix *Indexer) AddFolder(ctx context.Context, dir string) (Stats, error) {
	var stats Stats
	if err := ix.addFolder(ctx, dir, &stats); err != nil {
		return stats, err
	}

	if stats.Indexed > 0 {
		if err := ix.backend.Save(); err != nil {
			return stats, err
		}
	}

	passesTotal.Inc()
	slog.Info("index_pass_complete",
		slog.String("dir", dir),
		slog.Int("indexed", stats.Indexed),
		slog.Int("skipped", stats.Skipped),
		slog.Int("unchanged", stats.Unchanged))
	return stats, nil
}

func (ix *Indexer) addFolder(ctx context.Context, dir string, stats *Stats) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.New(errors.ErrCodeDirRead,
			"could not open directory "+dir+" for indexing", err).
			WithDetail("path", dir)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, excluded := ix.exclude[entry.Name()]; excluded {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		if entry.Type()&fs.ModeSymlink != 0 {
			slog.Debug("symlink_skipped", slog.String("path", path))
			continue
		}
		if entry.IsDir() {
			if err := ix.addFolder(ctx, path, stats); err != nil {
				return err
			}
			continue
		}

		if err := ix.addFile(ctx, path, entry, stats); err != nil {
			return err
		}
	}
	return nil
}

// addFile indexes one regular file. Per-file extraction and metadata
// failures are logged, counted, and skipped; storage failures abort the
// pass, because the backend may hold partial state for this path.
func (ix *Indexer) addFile(ctx context.Context, path string, entry fs.DirEntry, stats *Stats) error {
	key := filepath.ToSlash(path)

	info, err := entry.Info()
	if err != nil {
		ix.skip(stats, key, errors.New(errors.ErrCodeFileStat,
			"could not stat "+key, err))
		return nil
	}

	needs, err := ix.backend.RequiresReindexing(key, info.ModTime())
	if err != nil {
		return err
	}
	if !needs {
		stats.Unchanged++
		return nil
	}

	slog.Info("indexing", slog.String("path", key))

	// Extraction happens before the backend takes its lock; a slow PDF
	// must not block concurrent queries.
	content, err := extract.Text(path)
	if err != nil {
		if !errors.IsSkippable(err) {
			return err
		}
		ix.skip(stats, key, err)
		return nil
	}

	terms := ix.analyzer.Terms(content)
	if err := ix.backend.AddDocument(ctx, key, info.ModTime(), terms); err != nil {
		return err
	}

	stats.Indexed++
	docsIndexedTotal.Inc()
	return nil
}

func (ix *Indexer) skip(stats *Stats, path string, err error) {
	slog.Warn("file_skipped",
		slog.String("path", path),
		slog.String("code", errors.GetCode(err)),
		slog.String("error", err.Error()))
	stats.Skipped++
	filesSkippedTotal.Inc()
}
