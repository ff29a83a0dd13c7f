package db

const (
	InsertJob = `
		INSERT INTO print_jobs (id, document_name, source_path, total_pages, pages_to_print, color_mode, unit_price, total_price, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	GetJobByID = `
		SELECT id, document_name, source_path, total_pages, pages_to_print, color_mode, unit_price, total_price, inserted_amount, state, failure_reason, created_at, updated_at
		FROM print_jobs WHERE id = ?
	`

	ListJobsByState = `
		SELECT id, document_name, source_path, total_pages, pages_to_print, color_mode, unit_price, total_price, inserted_amount, state, failure_reason, created_at, updated_at
		FROM print_jobs WHERE state = ? ORDER BY created_at DESC LIMIT ? OFFSET ?
	`

	ListAllJobs = `
		SELECT id, document_name, source_path, total_pages, pages_to_print, color_mode, unit_price, total_price, inserted_amount, state, failure_reason, created_at, updated_at
		FROM print_jobs ORDER BY created_at DESC LIMIT ? OFFSET ?
	`

	NextAwaitingJob = `
		SELECT id, document_name, source_path, total_pages, pages_to_print, color_mode, unit_price, total_price, inserted_amount, state, failure_reason, created_at, updated_at
		FROM print_jobs WHERE state = 'awaiting_payment' ORDER BY created_at ASC LIMIT 1
	`

	TransitionJobState = `
		UPDATE print_jobs SET state = ?, failure_reason = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND state = ?
	`

	UpdateJobInsertedAmount = `
		UPDATE print_jobs SET inserted_amount = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`

	FailInterruptedJobs = `
		UPDATE print_jobs SET state = 'failed', failure_reason = ?, updated_at = CURRENT_TIMESTAMP
		WHERE state IN ('paid', 'printing')
	`

	CountJobsByState = `SELECT COUNT(*) FROM print_jobs WHERE state = ?`
)

const (
	InsertPriceTable = `
		INSERT INTO price_tables (black_rate, color_rate, effective_from)
		VALUES (?, ?, ?)
	`

	GetPriceTableAt = `
		SELECT id, black_rate, color_rate, effective_from, created_at
		FROM price_tables WHERE effective_from <= ?
		ORDER BY effective_from DESC LIMIT 1
	`

	ListPriceTables = `
		SELECT id, black_rate, color_rate, effective_from, created_at
		FROM price_tables ORDER BY effective_from DESC
	`
)

const (
	InsertPaperSnapshot = `
		INSERT INTO paper_stock (remaining_sheets, is_refill_event, recorded_at)
		VALUES (?, ?, ?)
	`

	GetLatestPaperSnapshot = `
		SELECT id, remaining_sheets, is_refill_event, recorded_at
		FROM paper_stock ORDER BY recorded_at DESC, id DESC LIMIT 1
	`

	ListPaperSnapshots = `
		SELECT id, remaining_sheets, is_refill_event, recorded_at
		FROM paper_stock ORDER BY recorded_at DESC, id DESC LIMIT ?
	`
)

const (
	GetSetting = `SELECT key, value, updated_at FROM settings WHERE key = ?`

	UpsertSetting = `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
)
