package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestOpenRunsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	database, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for _, table := range []string{"auth", "users", "models", "filaments", "printers", "jobs", "queues", "queue_jobs"} {
		var name string
		err := database.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing after migration: %v", table, err)
		}
	}
	database.Close()

	// Reopening must not re-run applied migrations.
	database, err = Open(Config{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer database.Close()

	var version int
	if err := database.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if version < 1 {
		t.Errorf("schema version = %d, want >= 1", version)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	database, err := Open(Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()

	job := &Job{
		ID:        uuid.NewString(),
		ModelID:   uuid.NewString(),
		PrinterID: uuid.NewString(),
		UserID:    uuid.NewString(),
		Status:    "QUEUED",
	}
	if err := Jobs.Create(context.Background(), database, job); err == nil {
		t.Error("job with dangling references was accepted")
	}
}

func TestFilamentGetOrCreateDeduplicates(t *testing.T) {
	database, err := Open(Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()
	ctx := context.Background()

	first, err := Filaments.GetOrCreate(ctx, database, &Filament{
		ID:       uuid.NewString(),
		Material: "PETG",
		Color:    "orange",
	})
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}

	second, err := Filaments.GetOrCreate(ctx, database, &Filament{
		ID:       uuid.NewString(),
		Material: "PETG",
		Color:    "orange",
	})
	if err != nil {
		t.Fatalf("second get or create: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("same spec produced two rows: %s vs %s", first.ID, second.ID)
	}

	other, err := Filaments.GetOrCreate(ctx, database, &Filament{
		ID:       uuid.NewString(),
		Material: "PETG",
		Color:    "blue",
	})
	if err != nil {
		t.Fatalf("different color: %v", err)
	}
	if other.ID == first.ID {
		t.Error("different colors collapsed into one filament")
	}
}
