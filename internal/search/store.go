// Package search provides the SQLite-backed full-text body search sidecar,
// with optional FTS5 support behind the sqlite_fts5 build tag.
package search

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	path  TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	body  TEXT NOT NULL DEFAULT '',
	tags  TEXT NOT NULL DEFAULT ''
);
`

// Store wraps a sql.DB with search-specific operations.
type Store struct {
	conn *sql.DB
}

// Result is one search hit.
type Result struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("search: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("search: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("search: apply schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("search: apply fts schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Upsert inserts or replaces a note's searchable text.
func (s *Store) Upsert(path, title, body string, tags []string) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("search: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO notes (path, title, body, tags)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			body  = excluded.body,
			tags  = excluded.tags
	`, path, title, body, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("search: upsert: %w", err)
	}

	if err := ftsUpsert(tx, path, title, body, tags); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a note's searchable text.
func (s *Store) Delete(path string) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("search: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM notes WHERE path = ?`, path)

	return tx.Commit()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
