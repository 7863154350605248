package db

import (
	"time"
)

type Printer struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Model        *string    `json:"model"`
	Interface    string     `json:"interface"`
	Status       string     `json:"status"`
	IsActive     bool       `json:"is_active"`
	CurrentJobID *string    `json:"current_job_id"`
	QueueID      *string    `json:"queue_id"`
	LastUpdated  time.Time  `json:"last_updated"`
}

type Job struct {
	ID            string     `json:"id"`
	Name          *string    `json:"name"`
	ModelID       string     `json:"model_id"`
	PrinterID     string     `json:"printer_id"`
	UserID        string     `json:"user_id"`
	FilamentID    *string    `json:"filament_id"`
	Status        string     `json:"status"`
	Progress      float64    `json:"progress"`
	ScheduledTime *time.Time `json:"scheduled_time"`
	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	EstimatedTime *int64     `json:"estimated_time"`
	CreatedAt     time.Time  `json:"created_at"`
}

type Queue struct {
	ID        string    `json:"id"`
	PrinterID string    `json:"printer_id"`
	CreatedAt time.Time `json:"created_at"`
}

type QueueEntry struct {
	QueueID  string `json:"queue_id"`
	JobID    string `json:"job_id"`
	Position int    `json:"position"`
}

type Filament struct {
	ID              string    `json:"id"`
	Material        string    `json:"material"`
	Color           string    `json:"color"`
	NozzleTemp      *int      `json:"nozzle_temp"`
	BedTemp         *int      `json:"bed_temp"`
	SpeedMultiplier *int      `json:"speed_multiplier"`
	CreatedAt       time.Time `json:"created_at"`
}

type Model struct {
	ID          string    `json:"id"`
	Name        *string   `json:"name"`
	FileURL     string    `json:"file_url"`
	ContentType *string   `json:"content_type"`
	AuthorID    *string   `json:"author_id"`
	SizeMB      *float64  `json:"size_mb"`
	CreatedAt   time.Time `json:"created_at"`
}

type User struct {
	ID        string    `json:"id"`
	AuthID    string    `json:"-"`
	Nickname  string    `json:"nickname"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Auth struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Nickname     *string   `json:"nickname"`
	CreatedAt    time.Time `json:"created_at"`
}
