package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "github.com/Aman-CERP/docdex/internal/errors"
)

func TestMemoryModel_RequiresReindexing(t *testing.T) {
	m := NewMemoryModel("")
	ctx := context.Background()
	ts := time.Unix(1000, 0)

	// Unknown paths always need indexing.
	needs, err := m.RequiresReindexing("a.txt", ts)
	require.NoError(t, err)
	assert.True(t, needs)

	require.NoError(t, m.AddDocument(ctx, "a.txt", ts, []string{"HELLO"}))

	// Same timestamp: up to date.
	needs, err = m.RequiresReindexing("a.txt", ts)
	require.NoError(t, err)
	assert.False(t, needs)

	// Older source timestamp: up to date.
	needs, err = m.RequiresReindexing("a.txt", ts.Add(-time.Second))
	require.NoError(t, err)
	assert.False(t, needs)

	// Newer source timestamp: stale.
	needs, err = m.RequiresReindexing("a.txt", ts.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestMemoryModel_DocumentFrequencyInvariant(t *testing.T) {
	m := NewMemoryModel("")
	ctx := context.Background()
	ts := time.Unix(1000, 0)

	require.NoError(t, m.AddDocument(ctx, "a.txt", ts, []string{"X", "Y", "X"}))
	require.NoError(t, m.AddDocument(ctx, "b.txt", ts, []string{"X", "Z"}))

	// df counts documents, not occurrences.
	assert.Equal(t, 2, m.DocumentFrequency("X"))
	assert.Equal(t, 1, m.DocumentFrequency("Y"))
	assert.Equal(t, 1, m.DocumentFrequency("Z"))

	// Replacing a.txt with a disjoint term set removes its whole old
	// contribution before adding the new one.
	require.NoError(t, m.AddDocument(ctx, "a.txt", ts.Add(time.Second), []string{"Z"}))

	assert.Equal(t, 1, m.DocumentFrequency("X"))
	assert.Equal(t, 0, m.DocumentFrequency("Y"))
	assert.Equal(t, 2, m.DocumentFrequency("Z"))
	assert.Equal(t, 2, m.DocumentCount())
}

func TestMemoryModel_ReplaceLeavesNoResidual(t *testing.T) {
	m := NewMemoryModel("")
	ctx := context.Background()
	ts := time.Unix(1000, 0)

	// Index the same content twice at advancing timestamps; statistics must
	// come out as if it had been indexed once.
	require.NoError(t, m.AddDocument(ctx, "a.txt", ts, []string{"X", "Y"}))
	require.NoError(t, m.AddDocument(ctx, "a.txt", ts.Add(time.Second), []string{"X", "Y"}))

	assert.Equal(t, 1, m.DocumentFrequency("X"))
	assert.Equal(t, 1, m.DocumentFrequency("Y"))
	assert.Equal(t, 1, m.DocumentCount())
}

func TestMemoryModel_RankingPrefersHigherTermFrequency(t *testing.T) {
	m := NewMemoryModel("")
	ctx := context.Background()
	ts := time.Unix(1000, 0)

	// Doc A: "the" is 1 of 2 tokens. Doc B: "the" is 1 of 100 tokens.
	require.NoError(t, m.AddDocument(ctx, "a.txt", ts, []string{"THE", "CAT"}))

	padding := make([]string, 0, 100)
	padding = append(padding, "THE")
	for i := 1; i < 100; i++ {
		padding = append(padding, "FILLER")
	}
	require.NoError(t, m.AddDocument(ctx, "b.txt", ts, padding))

	results, err := m.SearchQuery(ctx, []string{"THE"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.txt", results[0].Path)
	assert.Equal(t, "b.txt", results[1].Path)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestMemoryModel_EmptyQueryScoresEveryDocumentZero(t *testing.T) {
	m := NewMemoryModel("")
	ctx := context.Background()

	require.NoError(t, m.AddDocument(ctx, "a.txt", time.Unix(1, 0), []string{"X"}))
	require.NoError(t, m.AddDocument(ctx, "b.txt", time.Unix(1, 0), []string{"Y"}))

	results, err := m.SearchQuery(ctx, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, 0.0, r.Score)
	}
}

func TestMemoryModel_SnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")
	ctx := context.Background()
	ts := time.Unix(1000, 0).UTC()

	m := NewMemoryModel(path)
	require.NoError(t, m.AddDocument(ctx, "a.txt", ts, []string{"HELLO", "WORLD"}))
	require.NoError(t, m.AddDocument(ctx, "b.txt", ts, []string{"HELLO"}))
	require.NoError(t, m.Save())

	loaded, err := OpenMemoryModel(path)
	require.NoError(t, err)

	// The reloaded corpus answers an identical query with identical results.
	want, err := m.SearchQuery(ctx, []string{"HELLO", "WORLD"})
	require.NoError(t, err)
	got, err := loaded.SearchQuery(ctx, []string{"HELLO", "WORLD"})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Staleness detection survives the round trip too.
	needs, err := loaded.RequiresReindexing("a.txt", ts)
	require.NoError(t, err)
	assert.False(t, needs)

	// Save-load-save produces an identical structure.
	require.NoError(t, loaded.Save())
	reloaded, err := OpenMemoryModel(path)
	require.NoError(t, err)
	assert.Equal(t, loaded.docs, reloaded.docs)
	assert.Equal(t, loaded.docFreq, reloaded.docFreq)
}

func TestOpenMemoryModel_MissingFile(t *testing.T) {
	_, err := OpenMemoryModel(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Equal(t, derrors.ErrCodeIndexOpen, derrors.GetCode(err))
}

func TestOpenMemoryModel_CorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := OpenMemoryModel(path)
	require.Error(t, err)
	assert.Equal(t, derrors.ErrCodeCorruptSnapshot, derrors.GetCode(err))
}

func TestMemoryModel_DirtyTracking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	m := NewMemoryModel(path)

	assert.False(t, m.Dirty())
	require.NoError(t, m.AddDocument(context.Background(), "a.txt", time.Unix(1, 0), []string{"X"}))
	assert.True(t, m.Dirty())
	require.NoError(t, m.Save())
	assert.False(t, m.Dirty())
}

func TestMemoryModel_TransientSaveIsNoop(t *testing.T) {
	m := NewMemoryModel("")
	require.NoError(t, m.AddDocument(context.Background(), "a.txt", time.Unix(1, 0), []string{"X"}))
	assert.NoError(t, m.Save())
}
