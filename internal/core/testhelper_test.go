package core

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/printnet/printnet/internal/config"
	"github.com/printnet/printnet/internal/db"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(db.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func testPrintersConfig() *config.PrintersConfig {
	return &config.PrintersConfig{
		Simulated:         true,
		ConnectionTimeout: 5 * time.Second,
	}
}

func createTestPrinter(t *testing.T, database *sql.DB) string {
	t.Helper()
	printer := &db.Printer{
		ID:        uuid.NewString(),
		Name:      "test-printer",
		Interface: string(InterfaceOctoPrint),
		Status:    string(StatusIdle),
		IsActive:  true,
	}
	if err := db.Printers.Create(context.Background(), database, printer); err != nil {
		t.Fatalf("create printer: %v", err)
	}
	return printer.ID
}

func createTestUser(t *testing.T, database *sql.DB) string {
	t.Helper()
	ctx := context.Background()
	auth := &db.Auth{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
	}
	if err := db.Users.CreateAuth(ctx, database, auth); err != nil {
		t.Fatalf("create auth: %v", err)
	}
	user := &db.User{
		ID:       uuid.NewString(),
		AuthID:   auth.ID,
		Nickname: "tester",
	}
	if err := db.Users.Upsert(ctx, database, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user.ID
}

func createTestModel(t *testing.T, database *sql.DB) string {
	t.Helper()
	model := &db.Model{
		ID:      uuid.NewString(),
		FileURL: "https://files.example.com/benchy.stl",
	}
	if err := db.Models.Create(context.Background(), database, model); err != nil {
		t.Fatalf("create model: %v", err)
	}
	return model.ID
}

func createTestJob(t *testing.T, database *sql.DB, printerID, modelID, userID string) string {
	t.Helper()
	job := &db.Job{
		ID:        uuid.NewString(),
		ModelID:   modelID,
		PrinterID: printerID,
		UserID:    userID,
		Status:    string(JobQueued),
	}
	if err := db.Jobs.Create(context.Background(), database, job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job.ID
}
