package model

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	derrors "github.com/Aman-CERP/docdex/internal/errors"
)

// MemoryModel holds the full corpus in working memory and persists it as a
// single JSON snapshot on demand. The corpus is guarded by one
// reader/writer lock: the indexing pass is the only writer, query handlers
// are readers, so queries stay cheap during long indexing passes.
type MemoryModel struct {
	mu      sync.RWMutex
	docs    map[string]*Document
	docFreq map[string]int

	// path is the snapshot file location; empty means transient.
	path  string
	dirty bool
}

var _ Model = (*MemoryModel)(nil)

// snapshot is the persisted form. It round-trips exactly: load, save, load
// produces an identical structure.
type snapshot struct {
	Docs    map[string]*Document `json:"docs"`
	DocFreq map[string]int       `json:"document_frequency"`
}

// NewMemoryModel creates an empty corpus that persists to path on Save.
// An empty path keeps the corpus transient.
func NewMemoryModel(path string) *MemoryModel {
	return &MemoryModel{
		docs:    make(map[string]*Document),
		docFreq: make(map[string]int),
		path:    path,
	}
}

// OpenMemoryModel loads a corpus from an existing snapshot file.
func OpenMemoryModel(path string) (*MemoryModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, derrors.New(derrors.ErrCodeIndexOpen,
			fmt.Sprintf("could not open index file %s", path), err)
	}
	defer func() { _ = f.Close() }()

	var snap snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, derrors.New(derrors.ErrCodeCorruptSnapshot,
			fmt.Sprintf("could not parse index file %s", path), err)
	}

	m := NewMemoryModel(path)
	if snap.Docs != nil {
		m.docs = snap.Docs
	}
	if snap.DocFreq != nil {
		m.docFreq = snap.DocFreq
	}
	return m, nil
}

// RequiresReindexing reports whether path is unknown or stale.
func (m *MemoryModel) RequiresReindexing(path string, modTime time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[path]
	if !ok {
		return true, nil
	}
	return doc.LastModified.Before(modTime), nil
}

// AddDocument replaces the document at path with fresh statistics.
// The removal of the old term set and the insertion of the new one happen
// under one write-lock acquisition, so readers never observe a corpus
// where document_frequency disagrees with the stored documents.
func (m *MemoryModel) AddDocument(_ context.Context, path string, modTime time.Time, terms []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeLocked(path)

	doc := newDocument(terms, modTime)
	m.docs[path] = doc
	for term := range doc.TermFreq {
		m.docFreq[term]++
	}
	m.dirty = true
	return nil
}

// removeLocked drops the document at path and decrements the document
// frequency of every term it contained. Callers hold the write lock.
func (m *MemoryModel) removeLocked(path string) {
	doc, ok := m.docs[path]
	if !ok {
		return
	}
	for term := range doc.TermFreq {
		m.docFreq[term]--
		if m.docFreq[term] <= 0 {
			delete(m.docFreq, term)
		}
	}
	delete(m.docs, path)
}

// SearchQuery ranks every stored document against the query terms.
func (m *MemoryModel) SearchQuery(_ context.Context, terms []string) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.docs)
	results := make([]Result, 0, n)
	for path, doc := range m.docs {
		results = append(results, Result{
			Path:  path,
			Score: Rank(terms, doc, n, m.docFreq),
		})
	}
	SortResults(results)
	return results, nil
}

// Save writes the snapshot to disk. The write goes to a temp file that is
// renamed into place, under a flock lock file, so a crashed or concurrent
// writer never leaves a torn snapshot behind.
func (m *MemoryModel) Save() error {
	if m.path == "" {
		return nil
	}

	lock := flock.New(m.path + ".lock")
	if err := lock.Lock(); err != nil {
		return derrors.New(derrors.ErrCodeIndexWrite,
			fmt.Sprintf("could not lock index file %s", m.path), err)
	}
	defer func() { _ = lock.Unlock() }()

	m.mu.RLock()
	data, err := json.Marshal(snapshot{Docs: m.docs, DocFreq: m.docFreq})
	m.mu.RUnlock()
	if err != nil {
		return derrors.New(derrors.ErrCodeIndexWrite,
			fmt.Sprintf("could not serialize index into %s", m.path), err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return derrors.New(derrors.ErrCodeIndexWrite,
			fmt.Sprintf("could not write index file %s", tmp), err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		_ = os.Remove(tmp)
		return derrors.New(derrors.ErrCodeIndexWrite,
			fmt.Sprintf("could not replace index file %s", m.path), err)
	}

	m.mu.Lock()
	m.dirty = false
	m.mu.Unlock()

	slog.Info("snapshot_saved",
		slog.String("path", filepath.ToSlash(m.path)),
		slog.Int("documents", m.DocumentCount()))
	return nil
}

// Close is a no-op; the durable representation is the snapshot itself.
func (m *MemoryModel) Close() error {
	return nil
}

// Dirty reports whether the corpus changed since the last Save.
func (m *MemoryModel) Dirty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirty
}

// DocumentCount returns the number of stored documents.
func (m *MemoryModel) DocumentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// DocumentFrequency returns the document frequency for term. Exposed for
// invariant checks in tests.
func (m *MemoryModel) DocumentFrequency(term string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.docFreq[term]
}
