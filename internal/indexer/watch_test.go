package indexer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatcherAppliesDefaults(t *testing.T) {
	ix, _ := newTestIndexer(t, nil)
	w := NewWatcher(ix, "/tmp", 0, 0)

	assert.Equal(t, 500*time.Millisecond, w.debounceWindow)
	assert.Equal(t, time.Minute, w.rescanInterval)
}

func TestWatcherRunPerformsInitialPass(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "hello world")

	ix, m := newTestIndexer(t, nil)
	w := NewWatcher(ix, dir, 100*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return m.DocumentCount() == 1
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}
}

func TestWatcherRunPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "hello world")

	ix, m := newTestIndexer(t, nil)
	w := NewWatcher(ix, dir, 50*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return m.DocumentCount() == 1
	}, 5*time.Second, 20*time.Millisecond)

	writeFile(t, filepath.Join(dir, "b.txt"), "second document")

	require.Eventually(t, func() bool {
		return m.DocumentCount() == 2
	}, 5*time.Second, 20*time.Millisecond)
}
