// Package store implements the Persistent Store (spec.md §4.7, C7): a
// single SQLite database holding collection identity, exchange history,
// and per-collection UI state. It is opened once per process and shared
// by every render/chain/httpengine call that needs history.
//
// The connection handling, embedded-migration bootstrap, and table-per-
// concern layout follow internal/db/db.go in the teacher repo; the schema
// itself is new, since the teacher stores agent session history and this
// stores HTTP request history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Store wraps a SQLite connection. The zero value is not usable; use Open.
type Store struct {
	conn *sql.DB
}

// Open creates (if needed) and connects to the SQLite database at path,
// running all pending migrations before returning.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	migrationsFS, err := fs.Sub(MigrationFS, "migrations")
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrations sub-fs: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, conn, migrationsFS)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Store{conn: conn}, nil
}

// OpenInMemory opens a throwaway database for tests; each call gets its
// own isolated database.
func OpenInMemory() (*Store, error) {
	return Open("file::memory:")
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Conn exposes the underlying *sql.DB for callers (e.g. a future admin
// CLI subcommand) that need raw access.
func (s *Store) Conn() *sql.DB {
	return s.conn
}
