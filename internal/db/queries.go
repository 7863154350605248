package db

const (
	InsertPrinter = `
		INSERT INTO printers (id, name, model, interface, status, is_active, current_job_id, queue_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	GetPrinterByID = `
		SELECT id, name, model, interface, status, is_active, current_job_id, queue_id, last_updated
		FROM printers WHERE id = ?
	`

	ListPrinters = `
		SELECT id, name, model, interface, status, is_active, current_job_id, queue_id, last_updated
		FROM printers ORDER BY name ASC
	`

	SetPrinterQueue = `
		UPDATE printers SET queue_id = ? WHERE id = ?
	`

	ClearPrinterQueue = `
		UPDATE printers SET queue_id = NULL WHERE id = ?
	`

	DeletePrinter = `DELETE FROM printers WHERE id = ?`

	CountPrinterJobs = `
		SELECT COUNT(*) FROM jobs
		WHERE printer_id = ? AND status NOT IN ('DONE', 'FAILED', 'CANCELLED')
	`

	CountPrinterQueueEntries = `
		SELECT COUNT(*) FROM queue_jobs
		WHERE queue_id IN (SELECT id FROM queues WHERE printer_id = ?)
	`
)

const (
	InsertJob = `
		INSERT INTO jobs (id, name, model_id, printer_id, user_id, filament_id, status, scheduled_time, estimated_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	GetJobByID = `
		SELECT id, name, model_id, printer_id, user_id, filament_id, status, progress,
		       scheduled_time, start_time, end_time, estimated_time, created_at
		FROM jobs WHERE id = ?
	`

	ListJobs = `
		SELECT id, name, model_id, printer_id, user_id, filament_id, status, progress,
		       scheduled_time, start_time, end_time, estimated_time, created_at
		FROM jobs ORDER BY created_at DESC
	`

	ListJobsByQueue = `
		SELECT j.id, j.name, j.model_id, j.printer_id, j.user_id, j.filament_id, j.status, j.progress,
		       j.scheduled_time, j.start_time, j.end_time, j.estimated_time, j.created_at
		FROM jobs j
		JOIN queue_jobs qj ON qj.job_id = j.id
		WHERE qj.queue_id = ?
		ORDER BY qj.position ASC
	`

	FinishJob = `
		UPDATE jobs SET status = 'DONE', end_time = CURRENT_TIMESTAMP WHERE id = ?
	`

	DeleteJob = `DELETE FROM jobs WHERE id = ?`
)

const (
	InsertQueue = `
		INSERT INTO queues (id, printer_id) VALUES (?, ?)
	`

	GetQueueByID = `
		SELECT id, printer_id, created_at FROM queues WHERE id = ?
	`

	GetQueueByPrinter = `
		SELECT id, printer_id, created_at FROM queues WHERE printer_id = ?
	`

	ListQueues = `
		SELECT id, printer_id, created_at FROM queues ORDER BY created_at ASC
	`

	DeleteQueue = `DELETE FROM queues WHERE id = ?`

	NextQueuePosition = `
		SELECT COALESCE(MAX(position), 0) + 1 FROM queue_jobs WHERE queue_id = ?
	`

	InsertQueueEntry = `
		INSERT INTO queue_jobs (queue_id, job_id, position) VALUES (?, ?, ?)
	`

	GetQueueEntryByJob = `
		SELECT queue_id, job_id, position FROM queue_jobs WHERE job_id = ?
	`

	ListQueueEntries = `
		SELECT queue_id, job_id, position FROM queue_jobs WHERE queue_id = ? ORDER BY position ASC
	`

	DeleteQueueEntry = `
		DELETE FROM queue_jobs WHERE job_id = ?
	`

	CompactQueuePositions = `
		UPDATE queue_jobs SET position = position - 1 WHERE queue_id = ? AND position > ?
	`
)

const (
	InsertFilament = `
		INSERT INTO filaments (id, material, color, nozzle_temp, bed_temp, speed_multiplier)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (material, color) DO NOTHING
	`

	GetFilamentByID = `
		SELECT id, material, color, nozzle_temp, bed_temp, speed_multiplier, created_at
		FROM filaments WHERE id = ?
	`

	GetFilamentBySpec = `
		SELECT id, material, color, nozzle_temp, bed_temp, speed_multiplier, created_at
		FROM filaments WHERE material = ? AND color = ?
	`
)

const (
	InsertModel = `
		INSERT INTO models (id, name, file_url, content_type, author_id, size_mb)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	GetModelByID = `
		SELECT id, name, file_url, content_type, author_id, size_mb, created_at
		FROM models WHERE id = ?
	`

	ListModels = `
		SELECT id, name, file_url, content_type, author_id, size_mb, created_at
		FROM models ORDER BY created_at DESC
	`

	ListModelsByAuthor = `
		SELECT id, name, file_url, content_type, author_id, size_mb, created_at
		FROM models WHERE author_id = ? ORDER BY created_at DESC
	`
)

const (
	InsertAuth = `
		INSERT INTO auth (id, email, password_hash, nickname) VALUES (?, ?, ?, ?)
	`

	GetAuthByEmail = `
		SELECT id, email, password_hash, nickname, created_at FROM auth WHERE email = ?
	`

	GetAuthByID = `
		SELECT id, email, password_hash, nickname, created_at FROM auth WHERE id = ?
	`

	InsertUser = `
		INSERT INTO users (id, auth_id, nickname) VALUES (?, ?, ?)
		ON CONFLICT (auth_id) DO NOTHING
	`

	GetUserByAuthID = `
		SELECT id, auth_id, nickname, role, created_at FROM users WHERE auth_id = ?
	`

	GetUserByID = `
		SELECT id, auth_id, nickname, role, created_at FROM users WHERE id = ?
	`
)
