// Package sqlstore is the relational record store backed by SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kailas-cloud/patentdex/internal/domain"
)

//go:embed schema.sql
var schema string

// scanPageSize bounds the rows held in memory per ScanEmbeddings page.
const scanPageSize = 512

// Store implements the record store over a single SQLite file.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies the schema.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required: %w", domain.ErrInvalidArgument)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// EstablishDimensions records n as the corpus dimensionality unless one is already
// recorded, and returns the recorded value.
func (s *Store) EstablishDimensions(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("dimensions must be positive: %w", domain.ErrInvalidArgument)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('dimensions', ?) ON CONFLICT(key) DO NOTHING`,
		strconv.Itoa(n))
	if err != nil {
		return 0, fmt.Errorf("establish dimensions: %w", err)
	}
	var v string
	if err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'dimensions'`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read dimensions: %w", err)
	}
	dims, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse dimensions %q: %w", v, err)
	}
	return dims, nil
}

// insertOnce runs an INSERT ... ON CONFLICT DO NOTHING and reports whether a row was written.
func (s *Store) insertOnce(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isForeignKeyErr(err) {
			return false, fmt.Errorf("parent record missing: %w", domain.ErrNotFound)
		}
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func isForeignKeyErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return fmt.Errorf("get %s %s: %w", kind, id, err)
}
