package indexer

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps an index current by rerunning passes over a directory.
// Filesystem events are coalesced over a debounce window; a periodic
// rescan runs regardless, so the index converges even when fsnotify
// misses events or cannot watch a subdirectory.
type Watcher struct {
	indexer        *Indexer
	dir            string
	debounceWindow time.Duration
	rescanInterval time.Duration
}

// NewWatcher creates a Watcher running ix over dir. Zero durations fall
// back to 500ms debounce and a 1m rescan interval.
func NewWatcher(ix *Indexer, dir string, debounceWindow, rescanInterval time.Duration) *Watcher {
	if debounceWindow <= 0 {
		debounceWindow = 500 * time.Millisecond
	}
	if rescanInterval <= 0 {
		rescanInterval = time.Minute
	}
	return &Watcher{
		indexer:        ix,
		dir:            dir,
		debounceWindow: debounceWindow,
		rescanInterval: rescanInterval,
	}
}

// Run performs an initial pass and then keeps rescanning until ctx is
// cancelled. Pass failures are logged and the loop continues; serving
// queries from a stale index beats crashing the server.
func (w *Watcher) Run(ctx context.Context) error {
	w.rescan(ctx)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("fsnotify_unavailable", slog.String("error", err.Error()))
		return w.runPolling(ctx)
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.dir); err != nil {
		slog.Warn("watch_setup_failed", slog.String("error", err.Error()))
		return w.runPolling(ctx)
	}

	ticker := time.NewTicker(w.rescanInterval)
	defer ticker.Stop()

	var debounce *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return w.runPolling(ctx)
			}
			if event.Op.Has(fsnotify.Create) {
				// New directories must be added to the watch set
				// before their contents produce events.
				if err := w.addRecursive(fsw, event.Name); err != nil {
					slog.Debug("watch_add_failed",
						slog.String("path", event.Name),
						slog.String("error", err.Error()))
				}
			}
			if debounce == nil {
				debounce = time.NewTimer(w.debounceWindow)
				fire = debounce.C
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(w.debounceWindow)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return w.runPolling(ctx)
			}
			slog.Warn("watch_error", slog.String("error", err.Error()))
		case <-fire:
			debounce = nil
			fire = nil
			w.rescan(ctx)
		case <-ticker.C:
			w.rescan(ctx)
		}
	}
}

// runPolling is the fallback loop when fsnotify cannot be used.
func (w *Watcher) runPolling(ctx context.Context) error {
	ticker := time.NewTicker(w.rescanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.rescan(ctx)
		}
	}
}

func (w *Watcher) rescan(ctx context.Context) {
	if _, err := w.indexer.AddFolder(ctx, w.dir); err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("index_pass_failed",
			slog.String("dir", w.dir), slog.String("error", err.Error()))
	}
}

func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if _, excluded := w.indexer.exclude[d.Name()]; excluded && path != root {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
