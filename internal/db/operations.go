package db

import (
	"context"
	"database/sql"
	"fmt"
)

var (
	Printers  = &PrinterOperations{}
	Jobs      = &JobOperations{}
	Queues    = &QueueOperations{}
	Filaments = &FilamentOperations{}
	Models    = &ModelOperations{}
	Users     = &UserOperations{}
)

type PrinterOperations struct{}

func (o *PrinterOperations) Create(ctx context.Context, q DBTX, p *Printer) error {
	_, err := q.ExecContext(ctx, InsertPrinter,
		p.ID, p.Name, p.Model, p.Interface, p.Status, p.IsActive, p.CurrentJobID, p.QueueID)
	if err != nil {
		return fmt.Errorf("failed to create printer: %w", err)
	}
	return nil
}

func (o *PrinterOperations) GetByID(ctx context.Context, q DBTX, id string) (*Printer, error) {
	p := &Printer{}
	err := q.QueryRowContext(ctx, GetPrinterByID, id).Scan(
		&p.ID, &p.Name, &p.Model, &p.Interface, &p.Status,
		&p.IsActive, &p.CurrentJobID, &p.QueueID, &p.LastUpdated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get printer: %w", err)
	}
	return p, nil
}

func (o *PrinterOperations) List(ctx context.Context, q DBTX) ([]*Printer, error) {
	rows, err := q.QueryContext(ctx, ListPrinters)
	if err != nil {
		return nil, fmt.Errorf("failed to list printers: %w", err)
	}
	defer rows.Close()

	var printers []*Printer
	for rows.Next() {
		p := &Printer{}
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Model, &p.Interface, &p.Status,
			&p.IsActive, &p.CurrentJobID, &p.QueueID, &p.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan printer: %w", err)
		}
		printers = append(printers, p)
	}
	return printers, rows.Err()
}

func (o *PrinterOperations) SetQueue(ctx context.Context, q DBTX, printerID, queueID string) error {
	_, err := q.ExecContext(ctx, SetPrinterQueue, queueID, printerID)
	if err != nil {
		return fmt.Errorf("failed to set printer queue: %w", err)
	}
	return nil
}

func (o *PrinterOperations) ClearQueue(ctx context.Context, q DBTX, printerID string) error {
	_, err := q.ExecContext(ctx, ClearPrinterQueue, printerID)
	if err != nil {
		return fmt.Errorf("failed to clear printer queue: %w", err)
	}
	return nil
}

func (o *PrinterOperations) Delete(ctx context.Context, q DBTX, id string) error {
	_, err := q.ExecContext(ctx, DeletePrinter, id)
	if err != nil {
		return fmt.Errorf("failed to delete printer: %w", err)
	}
	return nil
}

func (o *PrinterOperations) CountActiveJobs(ctx context.Context, q DBTX, printerID string) (int, error) {
	var count int
	if err := q.QueryRowContext(ctx, CountPrinterJobs, printerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count printer jobs: %w", err)
	}
	return count, nil
}

func (o *PrinterOperations) CountQueueEntries(ctx context.Context, q DBTX, printerID string) (int, error) {
	var count int
	if err := q.QueryRowContext(ctx, CountPrinterQueueEntries, printerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count queue entries: %w", err)
	}
	return count, nil
}

type JobOperations struct{}

func (o *JobOperations) Create(ctx context.Context, q DBTX, j *Job) error {
	_, err := q.ExecContext(ctx, InsertJob,
		j.ID, j.Name, j.ModelID, j.PrinterID, j.UserID, j.FilamentID,
		j.Status, j.ScheduledTime, j.EstimatedTime)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func scanJob(row interface{ Scan(...any) error }, j *Job) error {
	return row.Scan(
		&j.ID, &j.Name, &j.ModelID, &j.PrinterID, &j.UserID, &j.FilamentID,
		&j.Status, &j.Progress, &j.ScheduledTime, &j.StartTime, &j.EndTime,
		&j.EstimatedTime, &j.CreatedAt)
}

func (o *JobOperations) GetByID(ctx context.Context, q DBTX, id string) (*Job, error) {
	j := &Job{}
	err := scanJob(q.QueryRowContext(ctx, GetJobByID, id), j)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

func (o *JobOperations) List(ctx context.Context, q DBTX) ([]*Job, error) {
	return o.queryJobs(ctx, q, ListJobs)
}

func (o *JobOperations) ListByQueue(ctx context.Context, q DBTX, queueID string) ([]*Job, error) {
	return o.queryJobs(ctx, q, ListJobsByQueue, queueID)
}

func (o *JobOperations) queryJobs(ctx context.Context, q DBTX, query string, args ...any) ([]*Job, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		j := &Job{}
		if err := scanJob(rows, j); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (o *JobOperations) MarkDone(ctx context.Context, q DBTX, id string) error {
	_, err := q.ExecContext(ctx, FinishJob, id)
	if err != nil {
		return fmt.Errorf("failed to finish job: %w", err)
	}
	return nil
}

func (o *JobOperations) Delete(ctx context.Context, q DBTX, id string) error {
	_, err := q.ExecContext(ctx, DeleteJob, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

type QueueOperations struct{}

func (o *QueueOperations) Create(ctx context.Context, q DBTX, queue *Queue) error {
	_, err := q.ExecContext(ctx, InsertQueue, queue.ID, queue.PrinterID)
	if err != nil {
		return fmt.Errorf("failed to create queue: %w", err)
	}
	return nil
}

func (o *QueueOperations) GetByID(ctx context.Context, q DBTX, id string) (*Queue, error) {
	queue := &Queue{}
	err := q.QueryRowContext(ctx, GetQueueByID, id).Scan(&queue.ID, &queue.PrinterID, &queue.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get queue: %w", err)
	}
	return queue, nil
}

func (o *QueueOperations) GetByPrinter(ctx context.Context, q DBTX, printerID string) (*Queue, error) {
	queue := &Queue{}
	err := q.QueryRowContext(ctx, GetQueueByPrinter, printerID).Scan(&queue.ID, &queue.PrinterID, &queue.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get queue by printer: %w", err)
	}
	return queue, nil
}

func (o *QueueOperations) List(ctx context.Context, q DBTX) ([]*Queue, error) {
	rows, err := q.QueryContext(ctx, ListQueues)
	if err != nil {
		return nil, fmt.Errorf("failed to list queues: %w", err)
	}
	defer rows.Close()

	var queues []*Queue
	for rows.Next() {
		queue := &Queue{}
		if err := rows.Scan(&queue.ID, &queue.PrinterID, &queue.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan queue: %w", err)
		}
		queues = append(queues, queue)
	}
	return queues, rows.Err()
}

func (o *QueueOperations) Delete(ctx context.Context, q DBTX, id string) error {
	_, err := q.ExecContext(ctx, DeleteQueue, id)
	if err != nil {
		return fmt.Errorf("failed to delete queue: %w", err)
	}
	return nil
}

func (o *QueueOperations) NextPosition(ctx context.Context, q DBTX, queueID string) (int, error) {
	var position int
	if err := q.QueryRowContext(ctx, NextQueuePosition, queueID).Scan(&position); err != nil {
		return 0, fmt.Errorf("failed to compute next position: %w", err)
	}
	return position, nil
}

func (o *QueueOperations) InsertEntry(ctx context.Context, q DBTX, entry *QueueEntry) error {
	_, err := q.ExecContext(ctx, InsertQueueEntry, entry.QueueID, entry.JobID, entry.Position)
	if err != nil {
		return fmt.Errorf("failed to insert queue entry: %w", err)
	}
	return nil
}

func (o *QueueOperations) GetEntryByJob(ctx context.Context, q DBTX, jobID string) (*QueueEntry, error) {
	entry := &QueueEntry{}
	err := q.QueryRowContext(ctx, GetQueueEntryByJob, jobID).Scan(&entry.QueueID, &entry.JobID, &entry.Position)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get queue entry: %w", err)
	}
	return entry, nil
}

func (o *QueueOperations) ListEntries(ctx context.Context, q DBTX, queueID string) ([]*QueueEntry, error) {
	rows, err := q.QueryContext(ctx, ListQueueEntries, queueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}
	defer rows.Close()

	var entries []*QueueEntry
	for rows.Next() {
		entry := &QueueEntry{}
		if err := rows.Scan(&entry.QueueID, &entry.JobID, &entry.Position); err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (o *QueueOperations) DeleteEntry(ctx context.Context, q DBTX, jobID string) error {
	_, err := q.ExecContext(ctx, DeleteQueueEntry, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete queue entry: %w", err)
	}
	return nil
}

func (o *QueueOperations) CompactAfter(ctx context.Context, q DBTX, queueID string, removedPosition int) error {
	_, err := q.ExecContext(ctx, CompactQueuePositions, queueID, removedPosition)
	if err != nil {
		return fmt.Errorf("failed to compact queue: %w", err)
	}
	return nil
}

type FilamentOperations struct{}

// GetOrCreate resolves a filament by (material, color), inserting it first if
// absent. The insert is ON CONFLICT DO NOTHING, so a concurrent duplicate
// falls through to reading the pre-existing row instead of erroring.
func (o *FilamentOperations) GetOrCreate(ctx context.Context, q DBTX, f *Filament) (*Filament, error) {
	_, err := q.ExecContext(ctx, InsertFilament,
		f.ID, f.Material, f.Color, f.NozzleTemp, f.BedTemp, f.SpeedMultiplier)
	if err != nil {
		return nil, fmt.Errorf("failed to insert filament: %w", err)
	}

	resolved := &Filament{}
	err = q.QueryRowContext(ctx, GetFilamentBySpec, f.Material, f.Color).Scan(
		&resolved.ID, &resolved.Material, &resolved.Color,
		&resolved.NozzleTemp, &resolved.BedTemp, &resolved.SpeedMultiplier, &resolved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve filament: %w", err)
	}
	return resolved, nil
}

func (o *FilamentOperations) GetByID(ctx context.Context, q DBTX, id string) (*Filament, error) {
	f := &Filament{}
	err := q.QueryRowContext(ctx, GetFilamentByID, id).Scan(
		&f.ID, &f.Material, &f.Color, &f.NozzleTemp, &f.BedTemp, &f.SpeedMultiplier, &f.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get filament: %w", err)
	}
	return f, nil
}

type ModelOperations struct{}

func (o *ModelOperations) Create(ctx context.Context, q DBTX, m *Model) error {
	_, err := q.ExecContext(ctx, InsertModel,
		m.ID, m.Name, m.FileURL, m.ContentType, m.AuthorID, m.SizeMB)
	if err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}
	return nil
}

func (o *ModelOperations) GetByID(ctx context.Context, q DBTX, id string) (*Model, error) {
	m := &Model{}
	err := q.QueryRowContext(ctx, GetModelByID, id).Scan(
		&m.ID, &m.Name, &m.FileURL, &m.ContentType, &m.AuthorID, &m.SizeMB, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	return m, nil
}

func (o *ModelOperations) List(ctx context.Context, q DBTX) ([]*Model, error) {
	return o.queryModels(ctx, q, ListModels)
}

func (o *ModelOperations) ListByAuthor(ctx context.Context, q DBTX, authorID string) ([]*Model, error) {
	return o.queryModels(ctx, q, ListModelsByAuthor, authorID)
}

func (o *ModelOperations) queryModels(ctx context.Context, q DBTX, query string, args ...any) ([]*Model, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var models []*Model
	for rows.Next() {
		m := &Model{}
		if err := rows.Scan(&m.ID, &m.Name, &m.FileURL, &m.ContentType, &m.AuthorID, &m.SizeMB, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

type UserOperations struct{}

func (o *UserOperations) CreateAuth(ctx context.Context, q DBTX, a *Auth) error {
	_, err := q.ExecContext(ctx, InsertAuth, a.ID, a.Email, a.PasswordHash, a.Nickname)
	if err != nil {
		return fmt.Errorf("failed to create auth record: %w", err)
	}
	return nil
}

func (o *UserOperations) GetAuthByEmail(ctx context.Context, q DBTX, email string) (*Auth, error) {
	a := &Auth{}
	err := q.QueryRowContext(ctx, GetAuthByEmail, email).Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.Nickname, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get auth record: %w", err)
	}
	return a, nil
}

func (o *UserOperations) GetAuthByID(ctx context.Context, q DBTX, id string) (*Auth, error) {
	a := &Auth{}
	err := q.QueryRowContext(ctx, GetAuthByID, id).Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.Nickname, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get auth record: %w", err)
	}
	return a, nil
}

func (o *UserOperations) Upsert(ctx context.Context, q DBTX, u *User) error {
	_, err := q.ExecContext(ctx, InsertUser, u.ID, u.AuthID, u.Nickname)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (o *UserOperations) GetByAuthID(ctx context.Context, q DBTX, authID string) (*User, error) {
	u := &User{}
	err := q.QueryRowContext(ctx, GetUserByAuthID, authID).Scan(
		&u.ID, &u.AuthID, &u.Nickname, &u.Role, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (o *UserOperations) GetByID(ctx context.Context, q DBTX, id string) (*User, error) {
	u := &User{}
	err := q.QueryRowContext(ctx, GetUserByID, id).Scan(
		&u.ID, &u.AuthID, &u.Nickname, &u.Role, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}
