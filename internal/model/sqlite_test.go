package model

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteModel(t *testing.T) *SQLiteModel {
	t.Helper()
	m, err := OpenSQLiteModel("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestSQLiteModel_RequiresReindexing(t *testing.T) {
	m := newTestSQLiteModel(t)
	ctx := context.Background()
	ts := time.Unix(1000, 0)

	needs, err := m.RequiresReindexing("a.txt", ts)
	require.NoError(t, err)
	assert.True(t, needs)

	require.NoError(t, m.AddDocument(ctx, "a.txt", ts, []string{"HELLO"}))

	needs, err = m.RequiresReindexing("a.txt", ts)
	require.NoError(t, err)
	assert.False(t, needs)

	needs, err = m.RequiresReindexing("a.txt", ts.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestSQLiteModel_DocumentFrequencyInvariant(t *testing.T) {
	m := newTestSQLiteModel(t)
	ctx := context.Background()
	ts := time.Unix(1000, 0)

	require.NoError(t, m.AddDocument(ctx, "a.txt", ts, []string{"X", "Y", "X"}))
	require.NoError(t, m.AddDocument(ctx, "b.txt", ts, []string{"X", "Z"}))

	df, err := m.DocumentFrequency("X")
	require.NoError(t, err)
	assert.Equal(t, 2, df)
	df, err = m.DocumentFrequency("Y")
	require.NoError(t, err)
	assert.Equal(t, 1, df)

	// Replacing a document removes its old contribution entirely.
	require.NoError(t, m.AddDocument(ctx, "a.txt", ts.Add(time.Second), []string{"Z"}))

	df, err = m.DocumentFrequency("X")
	require.NoError(t, err)
	assert.Equal(t, 1, df)
	df, err = m.DocumentFrequency("Y")
	require.NoError(t, err)
	assert.Equal(t, 0, df)
	df, err = m.DocumentFrequency("Z")
	require.NoError(t, err)
	assert.Equal(t, 2, df)

	count, err := m.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSQLiteModel_ReindexLeavesNoResidualDoubleCount(t *testing.T) {
	m := newTestSQLiteModel(t)
	ctx := context.Background()
	ts := time.Unix(1000, 0)

	require.NoError(t, m.AddDocument(ctx, "a.txt", ts, []string{"X", "Y"}))
	require.NoError(t, m.AddDocument(ctx, "a.txt", ts.Add(time.Second), []string{"X", "Y"}))

	df, err := m.DocumentFrequency("X")
	require.NoError(t, err)
	assert.Equal(t, 1, df)

	count, err := m.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLiteModel_SearchQueryRanksLikeMemory(t *testing.T) {
	ctx := context.Background()
	ts := time.Unix(1000, 0)

	// Fixed sequence of adds applied to both backends, including one
	// replacement to exercise the decrement path.
	type add struct {
		path  string
		ts    time.Time
		terms []string
	}
	sequence := []add{
		{"docs/a.txt", ts, []string{"THE", "QUICK", "FOX"}},
		{"docs/b.txt", ts, []string{"THE", "LAZY", "DOG", "THE"}},
		{"docs/c.txt", ts, []string{"LOREM", "IPSUM", "123", "!"}},
		{"docs/a.txt", ts.Add(time.Second), []string{"THE", "SLOW", "FOX", "FOX"}},
		{"docs/d.txt", ts, nil},
	}

	mem := NewMemoryModel("")
	sqlite := newTestSQLiteModel(t)
	for _, a := range sequence {
		require.NoError(t, mem.AddDocument(ctx, a.path, a.ts, a.terms))
		require.NoError(t, sqlite.AddDocument(ctx, a.path, a.ts, a.terms))
	}

	queries := [][]string{
		{"THE"},
		{"FOX", "DOG"},
		{"UNSEEN"},
		{"THE", "THE"},
		{"123", "!"},
		nil,
	}
	for _, q := range queries {
		want, err := mem.SearchQuery(ctx, q)
		require.NoError(t, err)
		got, err := sqlite.SearchQuery(ctx, q)
		require.NoError(t, err)

		require.Len(t, got, len(want), "query %v", q)
		for i := range want {
			assert.Equal(t, want[i].Path, got[i].Path, "query %v rank %d", q, i)
			assert.InDelta(t, want[i].Score, got[i].Score, 1e-9, "query %v rank %d", q, i)
		}
	}
}

func TestSQLiteModel_EmptyCorpusSearch(t *testing.T) {
	m := newTestSQLiteModel(t)

	results, err := m.SearchQuery(context.Background(), []string{"ANYTHING"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSQLiteModel_BulkTransactionCommit(t *testing.T) {
	m := newTestSQLiteModel(t)
	ctx := context.Background()
	ts := time.Unix(1000, 0)

	require.NoError(t, m.Begin(ctx))
	require.NoError(t, m.AddDocument(ctx, "a.txt", ts, []string{"X"}))
	require.NoError(t, m.AddDocument(ctx, "b.txt", ts, []string{"X", "Y"}))
	require.NoError(t, m.Commit())

	count, err := m.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSQLiteModel_BulkTransactionRollbackLeavesNoPartialState(t *testing.T) {
	m := newTestSQLiteModel(t)
	ctx := context.Background()
	ts := time.Unix(1000, 0)

	require.NoError(t, m.Begin(ctx))
	require.NoError(t, m.AddDocument(ctx, "a.txt", ts, []string{"X"}))
	require.NoError(t, m.Rollback())

	count, err := m.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	df, err := m.DocumentFrequency("X")
	require.NoError(t, err)
	assert.Equal(t, 0, df)
}

func TestSQLiteModel_DoubleBeginFails(t *testing.T) {
	m := newTestSQLiteModel(t)
	ctx := context.Background()

	require.NoError(t, m.Begin(ctx))
	assert.Error(t, m.Begin(ctx))
	require.NoError(t, m.Rollback())
}

func TestSQLiteModel_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	ctx := context.Background()
	ts := time.Unix(1000, 0)

	m, err := OpenSQLiteModel(path)
	require.NoError(t, err)
	require.NoError(t, m.AddDocument(ctx, "a.txt", ts, []string{"HELLO", "WORLD"}))
	require.NoError(t, m.Save())
	require.NoError(t, m.Close())

	reopened, err := OpenSQLiteModel(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	results, err := reopened.SearchQuery(ctx, []string{"HELLO"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.txt", results[0].Path)
	assert.Greater(t, results[0].Score, 0.0)

	needs, err := reopened.RequiresReindexing("a.txt", ts)
	require.NoError(t, err)
	assert.False(t, needs)
}
