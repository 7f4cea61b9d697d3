package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCommandRanksIndexedDocuments(t *testing.T) {
	docs := setupCorpus(t)

	_, err := runCommand(t, "index", docs)
	require.NoError(t, err)

	out, err := runCommand(t, "search", "index.json", "hello")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "a.txt")
}

func TestSearchCommandSQLiteBackend(t *testing.T) {
	docs := setupCorpus(t)
	t.Cleanup(func() { useSQLite = false })

	_, err := runCommand(t, "index", "--sqlite", docs)
	require.NoError(t, err)

	out, err := runCommand(t, "search", "--sqlite", "index.db", "goodbye")
	require.NoError(t, err)
	assert.Contains(t, strings.SplitN(out, "\n", 2)[0], "b.md")
}

func TestSearchCommandMissingIndexFails(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := runCommand(t, "search", "index.json", "hello")
	require.Error(t, err)
}

func TestSearchCommandJoinsMultiWordQueries(t *testing.T) {
	docs := setupCorpus(t)

	_, err := runCommand(t, "index", docs)
	require.NoError(t, err)

	out, err := runCommand(t, "search", "index.json", "hello", "world")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
}
