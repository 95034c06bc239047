// Package notestore persists notes in a relational table over database/sql.
// SQLite (mattn/go-sqlite3) is the default; PostgreSQL is reachable through pgx.
package notestore

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"
)

const sqliteSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT NOT NULL,
	content    TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	image      BLOB
);

CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes(created_at);
CREATE INDEX IF NOT EXISTS idx_notes_updated_at ON notes(updated_at);
`

const postgresSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id         BIGSERIAL PRIMARY KEY,
	title      TEXT NOT NULL,
	content    TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	image      BYTEA
);

CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes(created_at);
CREATE INDEX IF NOT EXISTS idx_notes_updated_at ON notes(updated_at);
`

// Store wraps a sql.DB with note operations.
type Store struct {
	conn    *sql.DB
	dialect dialect
	now     func() time.Time
	closed  atomic.Bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open connects to the database, verifies the connection, and creates the
// notes table if it does not exist.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	d, ok := dialectFor(driver)
	if !ok {
		return nil, fmt.Errorf("notestore: unsupported driver %q", driver)
	}
	conn, err := sql.Open(d.driver, d.dsn(dsn))
	if err != nil {
		return nil, fmt.Errorf("notestore: open db: %w", unavailable(err))
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("notestore: ping: %w", unavailable(err))
	}
	if _, err := conn.ExecContext(ctx, d.schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("notestore: apply schema: %w", classify(err))
	}

	s := &Store{
		conn:    conn,
		dialect: d,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Driver returns the dialect name in use.
func (s *Store) Driver() string {
	return s.dialect.name
}

// Ping verifies the connection is still usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("notestore: ping: %w", unavailable(err))
	}
	return nil
}

// Close closes the underlying database connection. Later calls are no-ops.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.conn.Close()
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}
