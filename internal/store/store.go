// Package store persists drafts, their version history and cleanup reports in
// SQLite.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a draft, version or report does not exist.
var ErrNotFound = errors.New("not found")

// DefaultMaxVersions is how many regular versions a draft keeps.
const DefaultMaxVersions = 50

const schema = `
CREATE TABLE IF NOT EXISTS drafts (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	filename     TEXT NOT NULL DEFAULT '',
	content      TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	word_count   INTEGER NOT NULL,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_drafts_hash ON drafts(content_hash);

CREATE TABLE IF NOT EXISTS versions (
	id         TEXT PRIMARY KEY,
	draft_id   TEXT NOT NULL REFERENCES drafts(id) ON DELETE CASCADE,
	content    TEXT NOT NULL,
	label      TEXT NOT NULL DEFAULT '',
	snapshot   INTEGER NOT NULL DEFAULT 0,
	word_count INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_versions_draft ON versions(draft_id, created_at);

CREATE TABLE IF NOT EXISTS cleanup_reports (
	id            TEXT PRIMARY KEY,
	draft_id      TEXT NOT NULL REFERENCES drafts(id) ON DELETE CASCADE,
	version_id    TEXT NOT NULL DEFAULT '',
	removed_count INTEGER NOT NULL,
	details       TEXT NOT NULL,
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_draft ON cleanup_reports(draft_id, created_at);
`

// Store is a SQLite-backed draft repository. Safe for concurrent use.
type Store struct {
	db          *sql.DB
	maxVersions int
	now         func() time.Time
}

// Option customises Open.
type Option func(*Store)

// WithMaxVersions sets how many regular versions are kept per draft.
// Snapshots are never pruned.
func WithMaxVersions(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxVersions = n
		}
	}
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string, opts ...Option) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=synchronous(NORMAL)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	// SQLite allows one writer; a single connection keeps transactions from
	// tripping over each other and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	s := &Store{db: db, maxVersions: DefaultMaxVersions, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// ContentHash returns the hex SHA-256 of text.
func ContentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", h[:])
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
