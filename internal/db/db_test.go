package db

import (
	"path/filepath"
	"testing"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestNew_CreatesSchema(t *testing.T) {
	database := setupTestDB(t)

	tables := []string{"_migrations", "document", "exports", "config"}
	for _, table := range tables {
		var name string
		err := database.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not created: %v", table, err)
		}
	}
}

func TestNew_MigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	first, err := New(path, nil)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	first.Close()

	second, err := New(path, nil)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer second.Close()

	var count int
	if err := second.Conn().QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("migration rows = %d, want 1 (reapplied on reopen)", count)
	}
}

func TestNew_MarksInterruptedExports(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	first, err := New(path, nil)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	_, err = first.Conn().Exec(`
		INSERT INTO exports (id, status, settings, progress, created_at, updated_at)
		VALUES
			('e1', 'running', '{}', 30, datetime('now'), datetime('now')),
			('e2', 'pending', '{}', 0, datetime('now'), datetime('now')),
			('e3', 'completed', '{}', 100, datetime('now'), datetime('now'))
	`)
	if err != nil {
		t.Fatalf("seed exports: %v", err)
	}
	first.Close()

	second, err := New(path, nil)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer second.Close()

	var failed int
	if err := second.Conn().QueryRow(
		"SELECT COUNT(*) FROM exports WHERE status = 'failed' AND error = 'interrupted by restart'",
	).Scan(&failed); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if failed != 2 {
		t.Errorf("interrupted rows = %d, want 2", failed)
	}

	var status string
	if err := second.Conn().QueryRow("SELECT status FROM exports WHERE id = 'e3'").Scan(&status); err != nil {
		t.Fatalf("read e3: %v", err)
	}
	if status != "completed" {
		t.Errorf("terminal export status = %q, want untouched completed", status)
	}
}
