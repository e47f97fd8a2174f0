package labelcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/FocuswithJustin/xbrltree/core/sqlite"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS label_cache (
	key        TEXT PRIMARY KEY,
	locator    TEXT NOT NULL,
	payload    BLOB NOT NULL,
	created_at INTEGER NOT NULL
)`

// SQLiteStore keeps entries in one SQLite table, for setups that prefer a
// single cache file over a directory tree.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the cache database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("label cache database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create label cache directory: %w", err)
	}
	db, err := sqlite.OpenCache(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create label_cache table: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, locator string) ([]Record, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM label_cache WHERE key = ?`, Key(locator)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read label cache entry: %w", err)
	}
	return decodeEntry(locator, payload)
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, locator string, records []Record) error {
	payload, err := encodeEntry(locator, records)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO label_cache (key, locator, payload, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			locator = excluded.locator,
			payload = excluded.payload,
			created_at = excluded.created_at`,
		Key(locator), locator, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write label cache entry: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM label_cache`); err != nil {
		return fmt.Errorf("failed to clear label cache: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
