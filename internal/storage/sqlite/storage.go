// Package sqlite provides a SQLite-backed document store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound indicates that no document is stored under a key.
var ErrNotFound = errors.New("document not found")

// Store keeps documents in a single SQLite table.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

type document struct {
	Key       string `db:"doc_key"`
	Body      string `db:"body"`
	UpdatedAt string `db:"updated_at"`
}

// Open opens (or creates) the database at dbPath and applies pending
// migrations.
func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("sqlite storage: db path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite storage: create db directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: open db: %w", err)
	}
	// One connection serializes document writes within the process.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if _, err := s.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("sqlite storage: set busy timeout: %w", err)
	}
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("sqlite storage: enable WAL mode: %w", err)
	}
	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("sqlite storage: %w", err)
	}
	return nil
}

// Close closes the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the document stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var doc document
	err := s.db.GetContext(ctx, &doc, "SELECT doc_key, body, updated_at FROM documents WHERE doc_key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: get %s: %w", key, err)
	}
	return []byte(doc.Body), nil
}

// Put inserts or replaces the document stored under key.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO documents (doc_key, body, updated_at)
		VALUES (:doc_key, :body, :updated_at)
		ON CONFLICT(doc_key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		document{Key: key, Body: string(data), UpdatedAt: s.now().UTC().Format(time.RFC3339Nano)},
	)
	if err != nil {
		return fmt.Errorf("sqlite storage: put %s: %w", key, err)
	}
	return nil
}

// Delete removes the document stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE doc_key = ?", key); err != nil {
		return fmt.Errorf("sqlite storage: delete %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys in lexical order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, "SELECT doc_key FROM documents ORDER BY doc_key"); err != nil {
		return nil, fmt.Errorf("sqlite storage: list keys: %w", err)
	}
	return keys, nil
}

// UpdatedAt returns when key was last written.
func (s *Store) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, "SELECT updated_at FROM documents WHERE doc_key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite storage: updated_at %s: %w", key, err)
	}
	return time.Parse(time.RFC3339Nano, raw)
}
