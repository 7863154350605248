package core

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/printnet/printnet/internal/db"
)

func TestEnqueueAssignsSequentialPositions(t *testing.T) {
	database := newTestDB(t)
	engine := NewQueueEngine(database)
	ctx := context.Background()

	printerID := createTestPrinter(t, database)
	userID := createTestUser(t, database)
	modelID := createTestModel(t, database)

	for want := 1; want <= 3; want++ {
		jobID := createTestJob(t, database, printerID, modelID, userID)
		entry, err := engine.Enqueue(ctx, printerID, jobID)
		if err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		if entry.Position != want {
			t.Errorf("position = %d, want %d", entry.Position, want)
		}
	}
}

func TestEnqueueCreatesQueueLazily(t *testing.T) {
	database := newTestDB(t)
	engine := NewQueueEngine(database)
	ctx := context.Background()

	printerID := createTestPrinter(t, database)
	userID := createTestUser(t, database)
	modelID := createTestModel(t, database)

	if _, err := db.Queues.GetByPrinter(ctx, database, printerID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected no queue before first enqueue, got %v", err)
	}

	jobID := createTestJob(t, database, printerID, modelID, userID)
	if _, err := engine.Enqueue(ctx, printerID, jobID); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	queue, err := db.Queues.GetByPrinter(ctx, database, printerID)
	if err != nil {
		t.Fatalf("queue not created: %v", err)
	}

	printer, err := db.Printers.GetByID(ctx, database, printerID)
	if err != nil {
		t.Fatalf("get printer: %v", err)
	}
	if printer.QueueID == nil || *printer.QueueID != queue.ID {
		t.Errorf("printer queue_id not bound to created queue")
	}
}

func TestDequeueCompactsPositions(t *testing.T) {
	database := newTestDB(t)
	engine := NewQueueEngine(database)
	ctx := context.Background()

	printerID := createTestPrinter(t, database)
	userID := createTestUser(t, database)
	modelID := createTestModel(t, database)

	jobIDs := make([]string, 3)
	for i := range jobIDs {
		jobIDs[i] = createTestJob(t, database, printerID, modelID, userID)
		if _, err := engine.Enqueue(ctx, printerID, jobIDs[i]); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	entry, err := engine.Dequeue(ctx, jobIDs[1])
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if entry.Position != 2 {
		t.Errorf("dequeued position = %d, want 2", entry.Position)
	}

	jobs, err := engine.ListByPrinter(ctx, printerID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("queue length = %d, want 2", len(jobs))
	}
	if jobs[0].ID != jobIDs[0] || jobs[1].ID != jobIDs[2] {
		t.Errorf("relative order not preserved after compaction")
	}

	assertContiguousPositions(t, database, printerID)
}

func TestDequeueUnknownJob(t *testing.T) {
	database := newTestDB(t)
	engine := NewQueueEngine(database)

	_, err := engine.Dequeue(context.Background(), uuid.NewString())
	if !errors.Is(err, ErrNotFoundInQueue) {
		t.Errorf("err = %v, want ErrNotFoundInQueue", err)
	}
}

func TestConcurrentEnqueuePositionsDistinct(t *testing.T) {
	database := newTestDB(t)
	engine := NewQueueEngine(database)
	ctx := context.Background()

	printerID := createTestPrinter(t, database)
	userID := createTestUser(t, database)
	modelID := createTestModel(t, database)

	const n = 8
	jobIDs := make([]string, n)
	for i := range jobIDs {
		jobIDs[i] = createTestJob(t, database, printerID, modelID, userID)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, n)
	for _, jobID := range jobIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := engine.Enqueue(ctx, printerID, id); err != nil {
				errCh <- err
			}
		}(jobID)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("concurrent enqueue: %v", err)
	}

	queue, err := db.Queues.GetByPrinter(ctx, database, printerID)
	if err != nil {
		t.Fatalf("get queue: %v", err)
	}
	entries, err := db.Queues.ListEntries(ctx, database, queue.ID)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != n {
		t.Fatalf("entry count = %d, want %d", len(entries), n)
	}

	seen := make(map[int]bool, n)
	for _, entry := range entries {
		if entry.Position < 1 || entry.Position > n {
			t.Errorf("position %d out of range 1..%d", entry.Position, n)
		}
		if seen[entry.Position] {
			t.Errorf("duplicate position %d", entry.Position)
		}
		seen[entry.Position] = true
	}
}

func TestGetOrCreateForPrinter(t *testing.T) {
	database := newTestDB(t)
	engine := NewQueueEngine(database)
	ctx := context.Background()

	printerID := createTestPrinter(t, database)

	first, created, err := engine.GetOrCreateForPrinter(ctx, printerID)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if !created {
		t.Error("first access should create the queue")
	}

	second, created, err := engine.GetOrCreateForPrinter(ctx, printerID)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if created {
		t.Error("second access should not create another queue")
	}
	if first.ID != second.ID {
		t.Errorf("queue id changed between accesses: %s vs %s", first.ID, second.ID)
	}
}

func TestDeleteRejectsNonEmptyQueue(t *testing.T) {
	database := newTestDB(t)
	engine := NewQueueEngine(database)
	ctx := context.Background()

	printerID := createTestPrinter(t, database)
	userID := createTestUser(t, database)
	modelID := createTestModel(t, database)
	jobID := createTestJob(t, database, printerID, modelID, userID)

	entry, err := engine.Enqueue(ctx, printerID, jobID)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := engine.Delete(ctx, entry.QueueID); !errors.Is(err, ErrForeignKey) {
		t.Errorf("delete of non-empty queue: err = %v, want ErrForeignKey", err)
	}

	if _, err := engine.Dequeue(ctx, jobID); err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if err := engine.Delete(ctx, entry.QueueID); err != nil {
		t.Fatalf("delete of empty queue: %v", err)
	}

	printer, err := db.Printers.GetByID(ctx, database, printerID)
	if err != nil {
		t.Fatalf("get printer: %v", err)
	}
	if printer.QueueID != nil {
		t.Errorf("printer queue_id = %v, want cleared", *printer.QueueID)
	}
}

func TestListByPrinterWithoutQueue(t *testing.T) {
	database := newTestDB(t)
	engine := NewQueueEngine(database)

	printerID := createTestPrinter(t, database)
	jobs, err := engine.ListByPrinter(context.Background(), printerID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("expected empty queue, got %d jobs", len(jobs))
	}
}

func assertContiguousPositions(t *testing.T, database *sql.DB, printerID string) {
	t.Helper()
	ctx := context.Background()

	queue, err := db.Queues.GetByPrinter(ctx, database, printerID)
	if err != nil {
		t.Fatalf("get queue: %v", err)
	}
	entries, err := db.Queues.ListEntries(ctx, database, queue.ID)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	for i, entry := range entries {
		if entry.Position != i+1 {
			t.Errorf("position at index %d = %d, want %d", i, entry.Position, i+1)
		}
	}
}
