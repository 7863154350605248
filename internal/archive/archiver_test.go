package archive

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/printnet/printnet/internal/db"
)

func newTestSetup(t *testing.T) (*Archiver, *sql.DB) {
	t.Helper()
	dir := t.TempDir()

	database, err := db.Open(db.Config{Path: filepath.Join(dir, "live.db")})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	archiver, err := NewArchiver(database, Config{
		Path:          filepath.Join(dir, "archives"),
		RetentionDays: 30,
	})
	if err != nil {
		t.Fatalf("new archiver: %v", err)
	}
	return archiver, database
}

func insertFinishedJob(t *testing.T, database *sql.DB, endTime time.Time) string {
	t.Helper()
	ctx := context.Background()

	authID := uuid.NewString()
	if _, err := database.ExecContext(ctx,
		"INSERT INTO auth (id, email, password_hash) VALUES (?, ?, ?)",
		authID, uuid.NewString()+"@example.com", "x"); err != nil {
		t.Fatalf("insert auth: %v", err)
	}
	userID := uuid.NewString()
	if _, err := database.ExecContext(ctx,
		"INSERT INTO users (id, auth_id, nickname) VALUES (?, ?, ?)",
		userID, authID, "tester"); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	modelID := uuid.NewString()
	if _, err := database.ExecContext(ctx,
		"INSERT INTO models (id, file_url) VALUES (?, ?)",
		modelID, "https://files.example.com/part.stl"); err != nil {
		t.Fatalf("insert model: %v", err)
	}
	printerID := uuid.NewString()
	if _, err := database.ExecContext(ctx,
		"INSERT INTO printers (id, name) VALUES (?, ?)",
		printerID, "archival-test"); err != nil {
		t.Fatalf("insert printer: %v", err)
	}

	jobID := uuid.NewString()
	if _, err := database.ExecContext(ctx, `
		INSERT INTO jobs (id, model_id, printer_id, user_id, status, progress, end_time)
		VALUES (?, ?, ?, ?, 'DONE', 1, ?)`,
		jobID, modelID, printerID, userID, endTime); err != nil {
		t.Fatalf("insert job: %v", err)
	}
	return jobID
}

func TestRunArchiveMovesOldJobs(t *testing.T) {
	archiver, database := newTestSetup(t)
	ctx := context.Background()

	oldJob := insertFinishedJob(t, database, time.Now().AddDate(0, 0, -60))
	freshJob := insertFinishedJob(t, database, time.Now().AddDate(0, 0, -1))

	if err := archiver.RunArchive(ctx); err != nil {
		t.Fatalf("run archive: %v", err)
	}

	var count int
	if err := database.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM jobs WHERE id = ?", oldJob).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Error("old job still in live database")
	}
	if err := database.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM jobs WHERE id = ?", freshJob).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Error("fresh job was archived early")
	}

	files, err := archiver.ListArchives()
	if err != nil {
		t.Fatalf("list archives: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("archive file count = %d, want 1", len(files))
	}

	archiveDB, err := sql.Open("sqlite3", filepath.Join(archiver.archivePath, files[0].Filename))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer archiveDB.Close()

	var status string
	if err := archiveDB.QueryRow("SELECT status FROM jobs WHERE id = ?", oldJob).Scan(&status); err != nil {
		t.Fatalf("archived job missing: %v", err)
	}
	if status != "DONE" {
		t.Errorf("archived status = %s, want DONE", status)
	}
}

func TestRunArchiveNoEligibleJobs(t *testing.T) {
	archiver, database := newTestSetup(t)

	insertFinishedJob(t, database, time.Now())

	if err := archiver.RunArchive(context.Background()); err != nil {
		t.Fatalf("run archive: %v", err)
	}

	files, err := archiver.ListArchives()
	if err != nil {
		t.Fatalf("list archives: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("archive files created with nothing to archive: %v", files)
	}
}

func TestRunArchiveUnlinksCurrentJob(t *testing.T) {
	archiver, database := newTestSetup(t)
	ctx := context.Background()

	jobID := insertFinishedJob(t, database, time.Now().AddDate(0, 0, -60))
	if _, err := database.ExecContext(ctx,
		"UPDATE printers SET current_job_id = ?", jobID); err != nil {
		t.Fatalf("link current job: %v", err)
	}

	if err := archiver.RunArchive(ctx); err != nil {
		t.Fatalf("run archive: %v", err)
	}

	var linked int
	if err := database.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM printers WHERE current_job_id IS NOT NULL").Scan(&linked); err != nil {
		t.Fatalf("count: %v", err)
	}
	if linked != 0 {
		t.Error("printer still points at archived job")
	}
}
