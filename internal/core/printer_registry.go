package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/printnet/printnet/internal/config"
	"github.com/printnet/printnet/internal/db"
)

type RegisterParams struct {
	Name      string
	Model     *string
	Interface string
	Status    *string
	IsActive  *bool
}

// PrinterUpdate carries a partial printer update. Nil means "leave alone".
// For the nullable reference fields an empty string clears the column.
// IsActive accepts a bool or a "true"/"false" string.
type PrinterUpdate struct {
	Name         *string
	Model        *string
	Status       *string
	IsActive     any
	CurrentJobID *string
	QueueID      *string
}

// PrinterRegistry owns printer records and binds each printer to its adapter
// and queue.
type PrinterRegistry struct {
	db      *sql.DB
	cfg     *config.PrintersConfig
	queues  *QueueEngine
	webhook WebhookSender
}

func NewPrinterRegistry(database *sql.DB, cfg *config.PrintersConfig, queues *QueueEngine, webhook WebhookSender) *PrinterRegistry {
	return &PrinterRegistry{db: database, cfg: cfg, queues: queues, webhook: webhook}
}

// Register creates a printer together with its empty queue in one
// transaction. A printer is never observable without a queue.
func (r *PrinterRegistry) Register(ctx context.Context, p RegisterParams) (*db.Printer, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	ifaceType := InterfaceType(p.Interface)
	if p.Interface == "" {
		ifaceType = InterfaceOctoPrint
	}
	if !ifaceType.Valid() {
		return nil, fmt.Errorf("%w: invalid interface %q", ErrValidation, p.Interface)
	}

	status := StatusDisconnected
	if p.Status != nil {
		status = PrinterStatus(*p.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, *p.Status)
		}
	}

	isActive := true
	if p.IsActive != nil {
		isActive = *p.IsActive
	}

	printer := &db.Printer{
		ID:        uuid.NewString(),
		Name:      p.Name,
		Model:     p.Model,
		Interface: string(ifaceType),
		Status:    string(status),
		IsActive:  isActive,
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	defer tx.Rollback()

	if err := db.Printers.Create(ctx, tx, printer); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if _, err := r.queues.EnsureTx(ctx, tx, printer.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	return r.Get(ctx, printer.ID)
}

// UpdateStatus applies a partial update and stamps last_updated. Malformed
// input is rejected before any write.
func (r *PrinterRegistry) UpdateStatus(ctx context.Context, printerID string, u PrinterUpdate) (*db.Printer, error) {
	if err := validateUUIDField("printer_id", printerID); err != nil {
		return nil, err
	}

	var clauses []string
	var args []any

	if u.Name != nil {
		if *u.Name == "" || len(*u.Name) > 100 {
			return nil, fmt.Errorf("%w: name must be 1-100 characters", ErrValidation)
		}
		clauses = append(clauses, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Model != nil {
		if len(*u.Model) > 100 {
			return nil, fmt.Errorf("%w: model must be at most 100 characters", ErrValidation)
		}
		clauses = append(clauses, "model = ?")
		args = append(args, *u.Model)
	}
	if u.Status != nil {
		if !PrinterStatus(*u.Status).Valid() {
			return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, *u.Status)
		}
		clauses = append(clauses, "status = ?")
		args = append(args, *u.Status)
	}
	if u.IsActive != nil {
		active, err := coerceBool(u.IsActive)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, "is_active = ?")
		args = append(args, active)
	}
	for name, value := range map[string]*string{
		"current_job_id": u.CurrentJobID,
		"queue_id":       u.QueueID,
	} {
		if value == nil {
			continue
		}
		clauses = append(clauses, name+" = ?")
		if *value == "" {
			args = append(args, nil)
			continue
		}
		if !ValidUUID(*value) {
			return nil, fmt.Errorf("%w: %s must be a valid UUID or empty", ErrValidation, name)
		}
		args = append(args, *value)
	}

	if len(clauses) == 0 {
		return nil, fmt.Errorf("%w: no valid fields to update", ErrValidation)
	}

	clauses = append(clauses, "last_updated = CURRENT_TIMESTAMP")
	args = append(args, printerID)

	query := "UPDATE printers SET " + strings.Join(clauses, ", ") + " WHERE id = ?"
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: referenced job or queue does not exist", ErrForeignKey)
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: printer %s", ErrNotFound, printerID)
	}

	return r.Get(ctx, printerID)
}

func coerceBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(b) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: is_active must be a boolean", ErrValidation)
}

// Remove deletes a printer. Deletion is rejected while jobs or queue entries
// still reference it.
func (r *PrinterRegistry) Remove(ctx context.Context, printerID string) error {
	if err := validateUUIDField("printer_id", printerID); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	defer tx.Rollback()

	if _, err := db.Printers.GetByID(ctx, tx, printerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: printer %s", ErrNotFound, printerID)
		}
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	jobCount, err := db.Printers.CountActiveJobs(ctx, tx, printerID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	entryCount, err := db.Printers.CountQueueEntries(ctx, tx, printerID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if jobCount > 0 || entryCount > 0 {
		return fmt.Errorf("%w: printer has %d active jobs and %d queued entries", ErrForeignKey, jobCount, entryCount)
	}

	queue, err := db.Queues.GetByPrinter(ctx, tx, printerID)
	if err == nil {
		if err := db.Printers.ClearQueue(ctx, tx, printerID); err != nil {
			return fmt.Errorf("%w: %v", ErrInternal, err)
		}
		if err := db.Queues.Delete(ctx, tx, queue.ID); err != nil {
			return fmt.Errorf("%w: %v", ErrInternal, err)
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if err := db.Printers.Delete(ctx, tx, printerID); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: printer is still referenced by job history", ErrForeignKey)
		}
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return nil
}

// Refresh polls the printer's adapter and writes the resulting status back.
// The adapter call happens outside any transaction, so a slow device never
// holds up queue mutations. A failed poll records DISCONNECTED instead of
// propagating.
func (r *PrinterRegistry) Refresh(ctx context.Context, printerID string) (*db.Printer, error) {
	printer, err := r.Get(ctx, printerID)
	if err != nil {
		return nil, err
	}

	adapter, err := NewAdapter(printer, r.cfg)
	if err != nil {
		return nil, err
	}

	pollCtx, cancel := context.WithTimeout(ctx, r.cfg.ConnectionTimeout)
	defer cancel()

	status, pollErr := adapter.PollStatus(pollCtx)
	if pollErr != nil {
		status = StatusDisconnected
	}

	statusStr := string(status)
	updated, err := r.UpdateStatus(ctx, printerID, PrinterUpdate{Status: &statusStr})
	if err != nil {
		return nil, err
	}

	if r.webhook != nil && printer.Status != updated.Status {
		r.webhook.SendPrinterStatusChange(printerID, PrinterStatus(printer.Status), PrinterStatus(updated.Status))
	}

	return updated, nil
}

// TestConnection probes the printer's adapter, bounded by the configured
// connection timeout.
func (r *PrinterRegistry) TestConnection(ctx context.Context, printerID string) (ConnectionTest, error) {
	printer, err := r.Get(ctx, printerID)
	if err != nil {
		return ConnectionTest{}, err
	}

	adapter, err := NewAdapter(printer, r.cfg)
	if err != nil {
		return ConnectionTest{}, err
	}

	testCtx, cancel := context.WithTimeout(ctx, r.cfg.ConnectionTimeout)
	defer cancel()

	return adapter.TestConnection(testCtx), nil
}

// Get returns a printer by id.
func (r *PrinterRegistry) Get(ctx context.Context, printerID string) (*db.Printer, error) {
	if err := validateUUIDField("printer_id", printerID); err != nil {
		return nil, err
	}
	printer, err := db.Printers.GetByID(ctx, r.db, printerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: printer %s", ErrNotFound, printerID)
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return printer, nil
}

// List returns all printers ordered by name.
func (r *PrinterRegistry) List(ctx context.Context) ([]*db.Printer, error) {
	printers, err := db.Printers.List(ctx, r.db)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return printers, nil
}
