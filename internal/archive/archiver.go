package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Archiver moves long-finished jobs out of the live database into monthly
// SQLite archive files. Only jobs in a terminal state with an end time older
// than the retention window are touched; the live queue never shrinks under a
// running printer.
type Archiver struct {
	db            *sql.DB
	archivePath   string
	retentionDays int
	stopCh        chan struct{}
	mu            sync.Mutex
}

type Config struct {
	Path          string
	RetentionDays int
}

type ArchiveFile struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

func NewArchiver(db *sql.DB, cfg Config) (*Archiver, error) {
	if cfg.Path == "" {
		cfg.Path = "./data/archives"
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}

	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	return &Archiver{
		db:            db,
		archivePath:   cfg.Path,
		retentionDays: cfg.RetentionDays,
		stopCh:        make(chan struct{}),
	}, nil
}

func (a *Archiver) Start() {
	go a.runDailyArchive()
}

func (a *Archiver) Stop() {
	close(a.stopCh)
}

func (a *Archiver) runDailyArchive() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			a.RunArchive(context.Background())
		}
	}
}

type archivedJob struct {
	ID            string
	Name          *string
	ModelID       string
	PrinterID     string
	UserID        string
	FilamentID    *string
	Status        string
	Progress      float64
	ScheduledTime *time.Time
	StartTime     *time.Time
	EndTime       *time.Time
	EstimatedTime *int64
	CreatedAt     time.Time
}

// RunArchive performs one archival pass. Safe to call concurrently; passes
// are serialized.
func (a *Archiver) RunArchive(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -a.retentionDays)

	jobs, err := a.getJobsForArchival(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to get jobs for archival: %w", err)
	}
	if len(jobs) == 0 {
		return nil
	}

	archiveDBPath := filepath.Join(a.archivePath, fmt.Sprintf("archive_%s.db", time.Now().Format("2006_01")))

	archiveDB, err := a.openOrCreateArchiveDB(archiveDBPath)
	if err != nil {
		return fmt.Errorf("failed to create archive database: %w", err)
	}
	defer archiveDB.Close()

	tx, err := archiveDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	for _, job := range jobs {
		if err := a.insertJobToArchive(ctx, tx, job); err != nil {
			return fmt.Errorf("failed to insert job to archive: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO archive_metadata (id, archived_at, source_database)
		VALUES (1, ?, 'main')
	`, time.Now()); err != nil {
		return fmt.Errorf("failed to update archive metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive transaction: %w", err)
	}

	if err := a.deleteArchivedJobs(ctx, jobs); err != nil {
		return fmt.Errorf("failed to delete archived jobs: %w", err)
	}

	return nil
}

func (a *Archiver) getJobsForArchival(ctx context.Context, cutoff time.Time) ([]*archivedJob, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, name, model_id, printer_id, user_id, filament_id, status, progress,
		       scheduled_time, start_time, end_time, estimated_time, created_at
		FROM jobs
		WHERE status IN ('DONE', 'FAILED', 'CANCELLED')
		AND end_time IS NOT NULL
		AND end_time < ?
		ORDER BY end_time ASC
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*archivedJob
	for rows.Next() {
		job := &archivedJob{}
		if err := rows.Scan(
			&job.ID, &job.Name, &job.ModelID, &job.PrinterID, &job.UserID, &job.FilamentID,
			&job.Status, &job.Progress, &job.ScheduledTime, &job.StartTime, &job.EndTime,
			&job.EstimatedTime, &job.CreatedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (a *Archiver) openOrCreateArchiveDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			name TEXT,
			model_id TEXT NOT NULL,
			printer_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			filament_id TEXT,
			status TEXT NOT NULL,
			progress REAL DEFAULT 0,
			scheduled_time DATETIME,
			start_time DATETIME,
			end_time DATETIME,
			estimated_time INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS archive_metadata (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			archived_at DATETIME,
			source_database TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_archive_jobs_end_time ON jobs(end_time);
		CREATE INDEX IF NOT EXISTS idx_archive_jobs_status ON jobs(status);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (a *Archiver) insertJobToArchive(ctx context.Context, tx *sql.Tx, job *archivedJob) error {
	_, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO jobs (id, name, model_id, printer_id, user_id, filament_id,
			status, progress, scheduled_time, start_time, end_time, estimated_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.Name, job.ModelID, job.PrinterID, job.UserID, job.FilamentID,
		job.Status, job.Progress, job.ScheduledTime, job.StartTime, job.EndTime,
		job.EstimatedTime, job.CreatedAt)
	return err
}

// deleteArchivedJobs removes archived jobs from the live database. Printer
// rows still pointing at an archived job are unlinked first so the delete
// does not trip the foreign key.
func (a *Archiver) deleteArchivedJobs(ctx context.Context, jobs []*archivedJob) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	placeholders := make([]string, len(jobs))
	args := make([]any, len(jobs))
	for i, job := range jobs {
		placeholders[i] = "?"
		args[i] = job.ID
	}
	in := strings.Join(placeholders, ", ")

	if _, err := tx.ExecContext(ctx,
		"UPDATE printers SET current_job_id = NULL WHERE current_job_id IN ("+in+")", args...); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM queue_jobs WHERE job_id IN ("+in+")", args...); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM jobs WHERE id IN ("+in+")", args...); err != nil {
		return err
	}

	return tx.Commit()
}

// ListArchives returns the archive files on disk, newest first.
func (a *Archiver) ListArchives() ([]ArchiveFile, error) {
	entries, err := os.ReadDir(a.archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var files []ArchiveFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "archive_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, ArchiveFile{
			Filename:  entry.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}
