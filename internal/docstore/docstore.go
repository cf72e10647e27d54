// Package docstore implements the optional on-disk documentation cache
// (SPEC_FULL.md §2 domain stack: "Embedded relational cache"). It is never
// authoritative — spec §6 "Persisted state: None in the core" still holds
// for the name tree itself; this cache only saves re-reading doc comments
// from disk across process restarts and is invalidated whenever a source
// file's mtime changes.
package docstore

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stormlang/storm/internal/diagnostics"
)

// Store wraps a single-file sqlite database mapping (file, offset, length)
// doc-comment positions to their extracted text (internal/diagnostics.Doc
// defers exactly this read; Store is an optional cache in front of it).
type Store struct {
	db *sql.DB
}

// Open creates or reuses the sqlite file at path. An empty path opens an
// in-memory store, useful for tests and for one-shot CLI invocations that
// don't want a cache left behind.
func Open(path string) (*Store, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("docstore: open %s: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS doc_cache (
	file    TEXT NOT NULL,
	offset  INTEGER NOT NULL,
	length  INTEGER NOT NULL,
	mtime   INTEGER NOT NULL,
	text    TEXT NOT NULL,
	PRIMARY KEY (file, offset, length)
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("docstore: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Get returns the cached text for (file, offset, length), if present and
// not stale relative to mtime.
func (s *Store) Get(file string, offset, length int, mtime time.Time) (string, bool) {
	var text string
	var cachedMtime int64
	row := s.db.QueryRow(
		`SELECT mtime, text FROM doc_cache WHERE file = ? AND offset = ? AND length = ?`,
		file, offset, length)
	if err := row.Scan(&cachedMtime, &text); err != nil {
		return "", false
	}
	if cachedMtime != mtime.Unix() {
		return "", false
	}
	return text, true
}

// Put records text for (file, offset, length) as of mtime, replacing any
// stale entry for the same key.
func (s *Store) Put(file string, offset, length int, mtime time.Time, text string) error {
	_, err := s.db.Exec(
		`INSERT INTO doc_cache (file, offset, length, mtime, text) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(file, offset, length) DO UPDATE SET mtime = excluded.mtime, text = excluded.text`,
		file, offset, length, mtime.Unix(), text)
	if err != nil {
		return fmt.Errorf("docstore: put: %w", err)
	}
	return nil
}

// Fronted returns d's text, serving it from the cache when the source
// file's mtime on disk still matches what was cached, and populating the
// cache on a miss. Synthetic positions (d.Pos().IsSynthetic()) bypass the
// cache entirely since Doc.Get never touches disk for them.
func (s *Store) Fronted(d *diagnostics.Doc) (string, error) {
	pos := d.Pos()
	if pos.IsSynthetic() {
		return d.Get()
	}
	info, err := os.Stat(pos.File)
	if err != nil {
		return d.Get()
	}
	mtime := info.ModTime()
	if text, ok := s.Get(pos.File, pos.Offset, pos.Length, mtime); ok {
		return text, nil
	}
	text, err := d.Get()
	if err != nil {
		return "", err
	}
	_ = s.Put(pos.File, pos.Offset, pos.Length, mtime, text)
	return text, nil
}

// InvalidateFile drops every cached entry for file. Nothing in this
// repository calls it; stale entries are otherwise skipped by Get's mtime
// check.
func (s *Store) InvalidateFile(file string) error {
	_, err := s.db.Exec(`DELETE FROM doc_cache WHERE file = ?`, file)
	if err != nil {
		return fmt.Errorf("docstore: invalidate %s: %w", file, err)
	}
	return nil
}
