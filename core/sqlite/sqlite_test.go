package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestDriverInfo(t *testing.T) {
	info := GetInfo()

	if info.DriverName == "" || info.DriverType == "" || info.Package == "" {
		t.Errorf("GetInfo() has empty fields: %+v", info)
	}
	if info.DriverName != DriverName() {
		t.Errorf("DriverName mismatch: info=%s, func=%s", info.DriverName, DriverName())
	}
	if info.IsCGO != IsCGO() {
		t.Errorf("IsCGO mismatch: info=%v, func=%v", info.IsCGO, IsCGO())
	}

	t.Logf("SQLite driver: %s (%s) from %s", info.DriverName, info.DriverType, info.Package)
}

func TestOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE test (id INTEGER PRIMARY KEY, value TEXT)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO test (value) VALUES (?)`, "売上高"); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}

	var value string
	if err := db.QueryRow(`SELECT value FROM test WHERE id = 1`).Scan(&value); err != nil {
		t.Fatalf("failed to query: %v", err)
	}
	if value != "売上高" {
		t.Errorf("value = %q, want 売上高", value)
	}
}

// TestOpenCache verifies the cache PRAGMAs are applied.
func TestOpenCache(t *testing.T) {
	db, err := OpenCache(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer db.Close()

	var mode string
	if err := db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}
