package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver (no CGO)

	derrors "github.com/Aman-CERP/docdex/internal/errors"
)

// SQLiteModel normalizes the corpus into three relations:
//
//	documents(id, path UNIQUE, term_count, last_modified)
//	term_freq(term, doc_id, freq) UNIQUE(term, doc_id)
//	doc_freq(term UNIQUE, freq)
//
// Paths are stored verbatim as the slash-normalized strings produced by the
// indexer's walker; timestamps as Unix nanoseconds. A bulk indexing pass may
// wrap its AddDocument calls in one explicit transaction via Begin/Commit;
// outside a bulk pass every AddDocument runs in its own transaction.
type SQLiteModel struct {
	db   *sql.DB
	path string

	// mu guards the ambient bulk transaction.
	mu sync.Mutex
	tx *sql.Tx
}

var _ Model = (*SQLiteModel)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY,
	path TEXT NOT NULL UNIQUE,
	term_count INTEGER NOT NULL,
	last_modified INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS term_freq (
	term TEXT NOT NULL,
	doc_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	freq INTEGER NOT NULL,
	UNIQUE(term, doc_id)
);

CREATE INDEX IF NOT EXISTS idx_term_freq_term ON term_freq(term);
CREATE INDEX IF NOT EXISTS idx_term_freq_doc ON term_freq(doc_id);

CREATE TABLE IF NOT EXISTS doc_freq (
	term TEXT PRIMARY KEY,
	freq INTEGER NOT NULL
);
`

// OpenSQLiteModel opens or creates the database at path.
// An empty path opens an in-memory database for testing.
func OpenSQLiteModel(path string) (*SQLiteModel, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, derrors.New(derrors.ErrCodeIndexOpen,
			fmt.Sprintf("could not open database %s", dsn), err)
	}

	// Single connection: SQLite allows one writer, and a shared pool would
	// hand the in-memory DSN a fresh empty database per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, derrors.StorageError("could not set pragma", err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, derrors.StorageError("could not initialize schema", err)
	}

	return &SQLiteModel{db: db, path: path}, nil
}

// Begin opens a bulk transaction. Subsequent AddDocument calls join it
// until Commit or Rollback, giving all-or-nothing durability for a pass.
func (s *SQLiteModel) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx != nil {
		return derrors.StorageError("transaction already open", nil)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return derrors.StorageError("could not begin transaction", err)
	}
	s.tx = tx
	return nil
}

// Commit commits the bulk transaction opened by Begin.
func (s *SQLiteModel) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return derrors.StorageError("no transaction open", nil)
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return derrors.StorageError("could not commit transaction", err)
	}
	return nil
}

// Rollback abandons the bulk transaction opened by Begin.
func (s *SQLiteModel) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	if err != nil {
		return derrors.StorageError("could not roll back transaction", err)
	}
	return nil
}

// querier is the subset of *sql.DB and *sql.Tx the model reads through.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// reader returns the ambient transaction when one is open, else the pool.
func (s *SQLiteModel) reader() querier {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// RequiresReindexing reports whether path is unknown or stale. Read-only.
func (s *SQLiteModel) RequiresReindexing(path string, modTime time.Time) (bool, error) {
	var stored int64
	err := s.reader().QueryRowContext(context.Background(),
		`SELECT last_modified FROM documents WHERE path = ?`, path).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, derrors.StorageError(
			fmt.Sprintf("could not look up document %s", path), err)
	}
	return stored < modTime.UnixNano(), nil
}

// AddDocument replaces the document at path inside a transaction: the old
// row's term set is decremented out of doc_freq and deleted before the new
// statistics are inserted, so the frequency invariant holds at commit.
func (s *SQLiteModel) AddDocument(ctx context.Context, path string, modTime time.Time, terms []string) error {
	s.mu.Lock()
	ambient := s.tx
	s.mu.Unlock()

	if ambient != nil {
		return s.addDocumentTx(ctx, ambient, path, modTime, terms)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return derrors.StorageError("could not begin transaction", err)
	}
	if err := s.addDocumentTx(ctx, tx, path, modTime, terms); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return derrors.StorageError(
			fmt.Sprintf("could not commit document %s", path), err)
	}
	return nil
}

func (s *SQLiteModel) addDocumentTx(ctx context.Context, tx *sql.Tx, path string, modTime time.Time, terms []string) error {
	if err := s.removeDocumentTx(ctx, tx, path); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO documents (path, term_count, last_modified) VALUES (?, ?, ?)`,
		path, len(terms), modTime.UnixNano())
	if err != nil {
		return derrors.StorageError(
			fmt.Sprintf("could not insert document %s", path), err)
	}
	docID, err := res.LastInsertId()
	if err != nil {
		return derrors.StorageError("could not read generated document id", err)
	}

	insertTF, err := tx.PrepareContext(ctx,
		`INSERT INTO term_freq (term, doc_id, freq) VALUES (?, ?, ?)`)
	if err != nil {
		return derrors.StorageError("could not prepare term insert", err)
	}
	defer func() { _ = insertTF.Close() }()

	upsertDF, err := tx.PrepareContext(ctx,
		`INSERT INTO doc_freq (term, freq) VALUES (?, ?)
		 ON CONFLICT(term) DO UPDATE SET freq = excluded.freq`)
	if err != nil {
		return derrors.StorageError("could not prepare frequency upsert", err)
	}
	defer func() { _ = upsertDF.Close() }()

	doc := newDocument(terms, modTime)
	for term, freq := range doc.TermFreq {
		if _, err := insertTF.ExecContext(ctx, term, docID, freq); err != nil {
			return derrors.StorageError(
				fmt.Sprintf("could not insert term %q for %s", term, path), err)
		}

		var current int
		err := tx.QueryRowContext(ctx,
			`SELECT freq FROM doc_freq WHERE term = ?`, term).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return derrors.StorageError(
				fmt.Sprintf("could not read document frequency of %q", term), err)
		}
		if _, err := upsertDF.ExecContext(ctx, term, current+1); err != nil {
			return derrors.StorageError(
				fmt.Sprintf("could not update document frequency of %q", term), err)
		}
	}

	return nil
}

// removeDocumentTx deletes any stored document at path, decrementing the
// document frequency of every term it contained first.
func (s *SQLiteModel) removeDocumentTx(ctx context.Context, tx *sql.Tx, path string) error {
	var docID int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE path = ?`, path).Scan(&docID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return derrors.StorageError(
			fmt.Sprintf("could not look up document %s", path), err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE doc_freq SET freq = freq - 1
		 WHERE term IN (SELECT term FROM term_freq WHERE doc_id = ?)`, docID); err != nil {
		return derrors.StorageError(
			fmt.Sprintf("could not decrement frequencies for %s", path), err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM doc_freq WHERE freq <= 0`); err != nil {
		return derrors.StorageError("could not prune zero frequencies", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE id = ?`, docID); err != nil {
		return derrors.StorageError(
			fmt.Sprintf("could not delete document %s", path), err)
	}
	return nil
}

// SearchQuery scans the relations and scores every stored document with the
// same functions the in-memory model uses, so both backends produce
// identical rankings for identical input.
func (s *SQLiteModel) SearchQuery(ctx context.Context, terms []string) ([]Result, error) {
	q := s.reader()

	type docRow struct {
		id  int64
		doc *Document
	}
	docs := make(map[int64]*docRow)
	var paths []string
	byPath := make(map[string]*docRow)

	rows, err := q.QueryContext(ctx,
		`SELECT id, path, term_count FROM documents`)
	if err != nil {
		return nil, derrors.StorageError("could not scan documents", err)
	}
	for rows.Next() {
		var id int64
		var path string
		var termCount int
		if err := rows.Scan(&id, &path, &termCount); err != nil {
			_ = rows.Close()
			return nil, derrors.StorageError("could not scan document row", err)
		}
		row := &docRow{id: id, doc: &Document{
			TermFreq:  make(map[string]int),
			TermCount: termCount,
		}}
		docs[id] = row
		byPath[path] = row
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, derrors.StorageError("could not scan documents", err)
	}
	_ = rows.Close()

	n := len(docs)
	if n == 0 {
		return []Result{}, nil
	}

	// Distinct query terms are enough: Rank only ever reads those keys.
	distinct := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		distinct[term] = struct{}{}
	}

	docFreq := make(map[string]int, len(distinct))
	for term := range distinct {
		var freq int
		err := q.QueryRowContext(ctx,
			`SELECT freq FROM doc_freq WHERE term = ?`, term).Scan(&freq)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, derrors.StorageError(
				fmt.Sprintf("could not read document frequency of %q", term), err)
		}
		if freq > 0 {
			docFreq[term] = freq
		}

		tfRows, err := q.QueryContext(ctx,
			`SELECT doc_id, freq FROM term_freq WHERE term = ?`, term)
		if err != nil {
			return nil, derrors.StorageError(
				fmt.Sprintf("could not read term frequencies of %q", term), err)
		}
		for tfRows.Next() {
			var docID int64
			var freq int
			if err := tfRows.Scan(&docID, &freq); err != nil {
				_ = tfRows.Close()
				return nil, derrors.StorageError("could not scan term frequency row", err)
			}
			if row, ok := docs[docID]; ok {
				row.doc.TermFreq[term] = freq
			}
		}
		if err := tfRows.Err(); err != nil {
			_ = tfRows.Close()
			return nil, derrors.StorageError("could not scan term frequencies", err)
		}
		_ = tfRows.Close()
	}

	results := make([]Result, 0, n)
	for _, path := range paths {
		results = append(results, Result{
			Path:  path,
			Score: Rank(terms, byPath[path].doc, n, docFreq),
		})
	}
	SortResults(results)
	return results, nil
}

// Save forces a WAL checkpoint so all committed changes reach the main
// database file.
func (s *SQLiteModel) Save() error {
	s.mu.Lock()
	open := s.tx != nil
	s.mu.Unlock()
	if open {
		// The bulk transaction holds the pool's only connection; a
		// checkpoint here would wait on it forever. Commit flushes.
		return nil
	}
	if _, err := s.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return derrors.StorageError("could not checkpoint database", err)
	}
	return nil
}

// Close checkpoints and closes the database. Idempotent.
func (s *SQLiteModel) Close() error {
	s.mu.Lock()
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	_, _ = s.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`)
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return derrors.StorageError("could not close database", err)
	}
	return nil
}

// DocumentCount returns the number of stored documents.
func (s *SQLiteModel) DocumentCount() (int, error) {
	var count int
	err := s.reader().QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM documents`).Scan(&count)
	if err != nil {
		return 0, derrors.StorageError("could not count documents", err)
	}
	return count, nil
}

// DocumentFrequency returns the stored document frequency for term.
// Exposed for invariant checks in tests.
func (s *SQLiteModel) DocumentFrequency(term string) (int, error) {
	var freq int
	err := s.reader().QueryRowContext(context.Background(),
		`SELECT freq FROM doc_freq WHERE term = ?`, term).Scan(&freq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, derrors.StorageError(
			fmt.Sprintf("could not read document frequency of %q", term), err)
	}
	return freq, nil
}
