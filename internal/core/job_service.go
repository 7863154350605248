package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/printnet/printnet/internal/db"
)

// WebhookSender delivers fire-and-forget event notifications. Implementations
// must not block the caller and must swallow their own errors.
type WebhookSender interface {
	SendJobEvent(event string, job *db.Job)
	SendPrinterStatusChange(printerID string, oldStatus, newStatus PrinterStatus)
}

// FilamentSpec identifies a filament by material and color. Matching specs
// resolve to one shared filament row.
type FilamentSpec struct {
	Material        string `json:"material"`
	Color           string `json:"color"`
	NozzleTemp      *int   `json:"nozzle_temp"`
	BedTemp         *int   `json:"bed_temp"`
	SpeedMultiplier *int   `json:"speed_multiplier"`
}

type SubmitParams struct {
	PrinterID     string
	ModelID       string
	UserID        string
	Name          *string
	Filament      *FilamentSpec
	ScheduledTime *time.Time
	EstimatedTime *int64
}

type JobPatch struct {
	Status    *string
	Progress  *float64
	StartTime *time.Time
}

// JobService owns job records and their state machine. Submission and queue
// insertion are coupled in one transaction: a job row never exists without its
// queue entry, and vice versa.
type JobService struct {
	db      *sql.DB
	queues  *QueueEngine
	webhook WebhookSender
}

func NewJobService(database *sql.DB, queues *QueueEngine, webhook WebhookSender) *JobService {
	return &JobService{db: database, queues: queues, webhook: webhook}
}

// Submit creates a job and appends it to the printer's queue atomically.
// Initial status is SCHEDULED when a scheduled time is given, QUEUED
// otherwise.
func (s *JobService) Submit(ctx context.Context, p SubmitParams) (*db.Job, *db.QueueEntry, error) {
	if err := validateUUIDField("printer_id", p.PrinterID); err != nil {
		return nil, nil, err
	}
	if err := validateUUIDField("model_id", p.ModelID); err != nil {
		return nil, nil, err
	}
	if err := validateUUIDField("user_id", p.UserID); err != nil {
		return nil, nil, err
	}
	if p.Filament != nil && strings.TrimSpace(p.Filament.Material) == "" {
		return nil, nil, fmt.Errorf("%w: filament material is required", ErrValidation)
	}

	status := JobQueued
	if p.ScheduledTime != nil {
		status = JobScheduled
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	defer tx.Rollback()

	if _, err := db.Printers.GetByID(ctx, tx, p.PrinterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: printer %s", ErrNotFound, p.PrinterID)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	var filamentID *string
	if p.Filament != nil {
		filament, err := db.Filaments.GetOrCreate(ctx, tx, &db.Filament{
			ID:              uuid.NewString(),
			Material:        p.Filament.Material,
			Color:           p.Filament.Color,
			NozzleTemp:      p.Filament.NozzleTemp,
			BedTemp:         p.Filament.BedTemp,
			SpeedMultiplier: p.Filament.SpeedMultiplier,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		filamentID = &filament.ID
	}

	job := &db.Job{
		ID:            uuid.NewString(),
		Name:          p.Name,
		ModelID:       p.ModelID,
		PrinterID:     p.PrinterID,
		UserID:        p.UserID,
		FilamentID:    filamentID,
		Status:        string(status),
		ScheduledTime: p.ScheduledTime,
		EstimatedTime: p.EstimatedTime,
	}
	if err := db.Jobs.Create(ctx, tx, job); err != nil {
		if isForeignKeyViolation(err) {
			return nil, nil, fmt.Errorf("%w: model or user does not exist", ErrForeignKey)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	entry, err := s.queues.EnqueueTx(ctx, tx, p.PrinterID, job.ID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	created, err := db.Jobs.GetByID(ctx, s.db, job.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if s.webhook != nil {
		s.webhook.SendJobEvent("job_submitted", created)
	}

	return created, entry, nil
}

// Finish marks the job DONE, stamps its end time, and removes it from the
// queue with compaction, all in one transaction. A job already out of the
// queue reports ErrNotFoundInQueue, which makes double invocation safe. A job
// that reached a terminal state while still queued stays untouched.
func (s *JobService) Finish(ctx context.Context, jobID string) (*db.Job, error) {
	if err := validateUUIDField("job_id", jobID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	defer tx.Rollback()

	if _, err := s.queues.DequeueTx(ctx, tx, jobID); err != nil {
		return nil, err
	}

	current, err := db.Jobs.GetByID(ctx, tx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if JobStatus(current.Status).Terminal() {
		return nil, fmt.Errorf("%w: job in terminal state %s cannot be finished", ErrValidation, current.Status)
	}

	if err := db.Jobs.MarkDone(ctx, tx, jobID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	job, err := db.Jobs.GetByID(ctx, s.db, jobID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if s.webhook != nil {
		s.webhook.SendJobEvent("job_finished", job)
	}

	return job, nil
}

// Patch applies a partial update. At least one recognized field must be
// present. Status changes are checked against the lifecycle state machine;
// in particular nothing ever leaves a terminal state. Progress must not
// regress while the job is printing.
func (s *JobService) Patch(ctx context.Context, jobID string, p JobPatch) (*db.Job, error) {
	if err := validateUUIDField("job_id", jobID); err != nil {
		return nil, err
	}
	if p.Status == nil && p.Progress == nil && p.StartTime == nil {
		return nil, fmt.Errorf("%w: no valid fields to update", ErrValidation)
	}
	if p.Progress != nil && (*p.Progress < 0 || *p.Progress > 1) {
		return nil, fmt.Errorf("%w: progress must be within [0, 1]", ErrValidation)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	defer tx.Rollback()

	current, err := db.Jobs.GetByID(ctx, tx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if p.Status != nil {
		if err := ValidateJobTransition(JobStatus(current.Status), JobStatus(*p.Status)); err != nil {
			return nil, err
		}
	}
	if p.Progress != nil && JobStatus(current.Status) == JobPrinting && *p.Progress < current.Progress {
		return nil, fmt.Errorf("%w: progress cannot decrease while printing", ErrValidation)
	}

	var clauses []string
	var args []any
	if p.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, *p.Status)
	}
	if p.Progress != nil {
		clauses = append(clauses, "progress = ?")
		args = append(args, *p.Progress)
	}
	if p.StartTime != nil {
		clauses = append(clauses, "start_time = ?")
		args = append(args, *p.StartTime)
	}
	args = append(args, jobID)

	query := "UPDATE jobs SET " + strings.Join(clauses, ", ") + " WHERE id = ?"
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	updated, err := db.Jobs.GetByID(ctx, tx, jobID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return updated, nil
}

// Remove hard-deletes a job. A job still sitting in a queue is dequeued first
// (with compaction) in the same transaction, so no dangling entry survives.
func (s *JobService) Remove(ctx context.Context, jobID string) error {
	if err := validateUUIDField("job_id", jobID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	defer tx.Rollback()

	if _, err := db.Jobs.GetByID(ctx, tx, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: job %s", ErrNotFound, jobID)
		}
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if _, err := s.queues.DequeueTx(ctx, tx, jobID); err != nil && !errors.Is(err, ErrNotFoundInQueue) {
		return err
	}

	if err := db.Jobs.Delete(ctx, tx, jobID); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: job is still referenced", ErrForeignKey)
		}
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return nil
}

// Get returns a job by id.
func (s *JobService) Get(ctx context.Context, jobID string) (*db.Job, error) {
	if err := validateUUIDField("job_id", jobID); err != nil {
		return nil, err
	}
	job, err := db.Jobs.GetByID(ctx, s.db, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return job, nil
}

// List returns all jobs, newest first.
func (s *JobService) List(ctx context.Context) ([]*db.Job, error) {
	jobs, err := db.Jobs.List(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return jobs, nil
}

// ListByQueue returns the jobs of one queue in position order.
func (s *JobService) ListByQueue(ctx context.Context, queueID string) ([]*db.Job, error) {
	if err := validateUUIDField("queue_id", queueID); err != nil {
		return nil, err
	}
	jobs, err := db.Jobs.ListByQueue(ctx, s.db, queueID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return jobs, nil
}
