package store

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"
	"text/template"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/eventstream/internal/clock"
	"github.com/roach88/eventstream/internal/eventstream"
	"github.com/roach88/eventstream/internal/querysql"
)

//go:embed schema.sql
var schemaSQL string

var schemaTemplate = template.Must(template.New("schema").
	Funcs(template.FuncMap{"quote": querysql.QuoteIdent}).
	Parse(schemaSQL))

// DefaultTable is the event table created by Open.
const DefaultTable = "events"

// Schema version tracking:
// 0 - empty database
// 1 - events table with context and user indexes
const currentSchemaVersion = 1

// Store is a SQLite-backed append-only event log.
// Uses WAL mode for concurrent read access.
type Store struct {
	db    *sql.DB
	clock *clock.Clock

	mu     sync.Mutex
	tables map[string]bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock that stamps appended records.
func WithClock(c *clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//
// Safe to call repeatedly on the same path.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	s := &Store{db: db, tables: make(map[string]bool)}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	if s.clock == nil {
		// Resume after the newest stored record so a wall clock that
		// stepped back since the last run cannot reorder the log.
		latest, err := s.latest(context.Background(), DefaultTable)
		if err != nil {
			db.Close()
			return nil, err
		}
		if latest.IsZero() {
			s.clock = clock.New()
		} else {
			s.clock = clock.NewAt(time.Now, latest)
		}
	}

	return s, nil
}

// latest returns the newest created_at in table, or the zero time.
func (s *Store) latest(ctx context.Context, table string) (time.Time, error) {
	var nanos sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(created_at) FROM "+querysql.QuoteIdent(table)).Scan(&nanos); err != nil {
		return time.Time{}, fmt.Errorf("read latest timestamp of %s: %w", table, err)
	}
	if !nanos.Valid {
		return time.Time{}, nil
	}
	return time.Unix(0, nanos.Int64).UTC(), nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// EnsureTable creates an event table and its indexes if missing.
func (s *Store) EnsureTable(ctx context.Context, table string) error {
	if !eventstream.ValidIdentifier(table) {
		return eventstream.NewArgumentError("invalid table name %q", table)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tables[table] {
		return nil
	}

	ddl, err := renderSchema(table)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	s.tables[table] = true
	return nil
}

func renderSchema(table string) (string, error) {
	var buf bytes.Buffer
	if err := schemaTemplate.Execute(&buf, struct{ Table string }{table}); err != nil {
		return "", fmt.Errorf("render schema for %s: %w", table, err)
	}
	return buf.String(), nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func (s *Store) runMigrations() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := s.EnsureTable(context.Background(), DefaultTable); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
