package repository

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with all migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			total INTEGER NOT NULL DEFAULT 0,
			succeeded INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
	}
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			t.Fatalf("failed to apply migration: %v", err)
		}
	}

	return db
}

func TestBatchRecordAndList(t *testing.T) {
	repo := NewBatchRepository(setupTestDB(t))

	first := &Batch{Kind: BatchContactImport, Total: 10, Succeeded: 8, Failed: 2, Skipped: 1}
	if err := repo.Record(first); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if first.ID == "" {
		t.Error("Record() did not assign an ID")
	}

	second := &Batch{Kind: BatchMessageSend, Total: 3, Succeeded: 3}
	if err := repo.Record(second); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	batches, err := repo.List(10)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("List() returned %d batches, want 2", len(batches))
	}

	var imported *Batch
	for i := range batches {
		if batches[i].Kind == BatchContactImport {
			imported = &batches[i]
		}
	}
	if imported == nil {
		t.Fatal("contact import batch missing from list")
	}
	if imported.Total != 10 || imported.Succeeded != 8 || imported.Failed != 2 || imported.Skipped != 1 {
		t.Errorf("batch = %+v", imported)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	repo := NewSettingsRepository(setupTestDB(t))

	if v, err := repo.Get(KeyBackendToken); err != nil || v != "" {
		t.Fatalf("Get() on empty = %q, %v", v, err)
	}

	if err := repo.Set(KeyBackendToken, "tok1"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if v, _ := repo.Get(KeyBackendToken); v != "tok1" {
		t.Errorf("Get() = %q, want tok1", v)
	}

	// upsert replaces
	if err := repo.Set(KeyBackendToken, "tok2"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if v, _ := repo.Get(KeyBackendToken); v != "tok2" {
		t.Errorf("Get() = %q, want tok2", v)
	}

	if err := repo.Delete(KeyBackendToken); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if v, _ := repo.Get(KeyBackendToken); v != "" {
		t.Errorf("Get() after delete = %q, want empty", v)
	}

	// deleting an absent key is fine
	if err := repo.Delete(KeyBackendToken); err != nil {
		t.Errorf("Delete() on absent key: %v", err)
	}
}
