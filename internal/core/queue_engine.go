package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/printnet/printnet/internal/db"
)

// QueueEngine owns the ordered list of pending jobs per printer. Positions
// within a queue are a dense 1..N run; every mutation that could break that
// runs inside a single transaction. The connection pool allows one open
// connection, so transactions on the same queue (or any queue) never
// interleave.
type QueueEngine struct {
	db *sql.DB
}

func NewQueueEngine(database *sql.DB) *QueueEngine {
	return &QueueEngine{db: database}
}

// EnsureTx returns the printer's queue, creating it inside the caller's
// transaction if absent. Lazy creation and the subsequent position computation
// share the transaction, so concurrent first submissions cannot produce
// duplicate queues.
func (e *QueueEngine) EnsureTx(ctx context.Context, q db.DBTX, printerID string) (*db.Queue, error) {
	queue, err := db.Queues.GetByPrinter(ctx, q, printerID)
	if err == nil {
		return queue, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	queue = &db.Queue{ID: uuid.NewString(), PrinterID: printerID}
	if err := db.Queues.Create(ctx, q, queue); err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: printer %s does not exist", ErrForeignKey, printerID)
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if err := db.Printers.SetQueue(ctx, q, printerID, queue.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return queue, nil
}

// EnqueueTx appends a job to the printer's queue inside the caller's
// transaction. Positions are append-only: max(existing) + 1, never reused.
func (e *QueueEngine) EnqueueTx(ctx context.Context, q db.DBTX, printerID, jobID string) (*db.QueueEntry, error) {
	queue, err := e.EnsureTx(ctx, q, printerID)
	if err != nil {
		return nil, err
	}

	position, err := db.Queues.NextPosition(ctx, q, queue.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	entry := &db.QueueEntry{QueueID: queue.ID, JobID: jobID, Position: position}
	if err := db.Queues.InsertEntry(ctx, q, entry); err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: job %s does not exist", ErrForeignKey, jobID)
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return entry, nil
}

// Enqueue appends a job in its own transaction.
func (e *QueueEngine) Enqueue(ctx context.Context, printerID, jobID string) (*db.QueueEntry, error) {
	if err := validateUUIDField("printer_id", printerID); err != nil {
		return nil, err
	}
	if err := validateUUIDField("job_id", jobID); err != nil {
		return nil, err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	defer tx.Rollback()

	entry, err := e.EnqueueTx(ctx, tx, printerID, jobID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return entry, nil
}

// DequeueTx removes a job's entry and closes the position gap inside the
// caller's transaction. Remaining entries keep their relative order and end up
// contiguous 1..N-1 again.
func (e *QueueEngine) DequeueTx(ctx context.Context, q db.DBTX, jobID string) (*db.QueueEntry, error) {
	entry, err := db.Queues.GetEntryByJob(ctx, q, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFoundInQueue
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if err := db.Queues.DeleteEntry(ctx, q, jobID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if err := db.Queues.CompactAfter(ctx, q, entry.QueueID, entry.Position); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return entry, nil
}

// Dequeue removes a job's entry in its own transaction.
func (e *QueueEngine) Dequeue(ctx context.Context, jobID string) (*db.QueueEntry, error) {
	if err := validateUUIDField("job_id", jobID); err != nil {
		return nil, err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	defer tx.Rollback()

	entry, err := e.DequeueTx(ctx, tx, jobID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return entry, nil
}

// ListByPrinter returns the printer's pending jobs in ascending position
// order. This is a snapshot read for display; it takes no locks.
func (e *QueueEngine) ListByPrinter(ctx context.Context, printerID string) ([]*db.Job, error) {
	if err := validateUUIDField("printer_id", printerID); err != nil {
		return nil, err
	}

	queue, err := db.Queues.GetByPrinter(ctx, e.db, printerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*db.Job{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	jobs, err := db.Jobs.ListByQueue(ctx, e.db, queue.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return jobs, nil
}

// GetOrCreateForPrinter returns the printer's queue, creating it if absent.
func (e *QueueEngine) GetOrCreateForPrinter(ctx context.Context, printerID string) (*db.Queue, bool, error) {
	if err := validateUUIDField("printer_id", printerID); err != nil {
		return nil, false, err
	}

	if queue, err := db.Queues.GetByPrinter(ctx, e.db, printerID); err == nil {
		return queue, false, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	defer tx.Rollback()

	queue, err := e.EnsureTx(ctx, tx, printerID)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return queue, true, nil
}

// Get returns a queue by id.
func (e *QueueEngine) Get(ctx context.Context, queueID string) (*db.Queue, error) {
	if err := validateUUIDField("queue_id", queueID); err != nil {
		return nil, err
	}
	queue, err := db.Queues.GetByID(ctx, e.db, queueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return queue, nil
}

// List returns all queues.
func (e *QueueEngine) List(ctx context.Context) ([]*db.Queue, error) {
	queues, err := db.Queues.List(ctx, e.db)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return queues, nil
}

// Delete removes an empty queue. A queue holding entries cannot be deleted.
func (e *QueueEngine) Delete(ctx context.Context, queueID string) error {
	if err := validateUUIDField("queue_id", queueID); err != nil {
		return err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	defer tx.Rollback()

	entries, err := db.Queues.ListEntries(ctx, tx, queueID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("%w: queue has %d entries", ErrForeignKey, len(entries))
	}

	queue, err := db.Queues.GetByID(ctx, tx, queueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if err := db.Printers.ClearQueue(ctx, tx, queue.PrinterID); err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if err := db.Queues.Delete(ctx, tx, queueID); err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return nil
}
