package model

import (
	"context"
	"time"
)

// Document holds the statistical state of one indexed file. A document is
// replaced wholesale on reindex, never partially mutated.
type Document struct {
	// TermFreq maps each term to its occurrence count within the document.
	TermFreq map[string]int `json:"term_frequency"`

	// TermCount is the total number of tokens seen, i.e. the sum of TermFreq
	// values.
	TermCount int `json:"term_count"`

	// LastModified is the source file timestamp used for staleness detection.
	LastModified time.Time `json:"last_modified"`
}

// Result is one ranked search hit.
type Result struct {
	Path  string
	Score float64
}

// Model is the storage backend contract. Two implementations exist: the
// in-memory snapshot model and the durable SQLite model. Callers depend
// only on this interface; both variants produce identical rank output for
// identical input sequences.
type Model interface {
	// RequiresReindexing reports whether path has no stored document or its
	// stored timestamp predates modTime. It never mutates state.
	RequiresReindexing(path string, modTime time.Time) (bool, error)

	// AddDocument atomically replaces any document stored at path with fresh
	// statistics computed from terms, keeping the aggregate document
	// frequencies consistent (old term set decremented before the new term
	// set is incremented).
	AddDocument(ctx context.Context, path string, modTime time.Time, terms []string) error

	// SearchQuery ranks every stored document against the query terms and
	// returns all of them sorted by descending score (ties by path).
	// Callers take a prefix.
	SearchQuery(ctx context.Context, terms []string) ([]Result, error)

	// Save persists the corpus through the backend's mechanism.
	Save() error

	// Close releases backend resources.
	Close() error
}

// newDocument builds the per-document statistics from a token sequence.
func newDocument(terms []string, modTime time.Time) *Document {
	tf := make(map[string]int, len(terms))
	for _, term := range terms {
		tf[term]++
	}
	return &Document{
		TermFreq:     tf,
		TermCount:    len(terms),
		LastModified: modTime,
	}
}
