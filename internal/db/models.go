package db

import (
	"time"
)

type PrintJob struct {
	ID             string    `json:"id"`
	DocumentName   string    `json:"document_name"`
	SourcePath     string    `json:"source_path"`
	TotalPages     int       `json:"total_pages"`
	PagesToPrint   string    `json:"pages_to_print"`
	ColorMode      string    `json:"color_mode"`
	UnitPrice      int64     `json:"unit_price"`
	TotalPrice     int64     `json:"total_price"`
	InsertedAmount int64     `json:"inserted_amount"`
	State          string    `json:"state"`
	FailureReason  string    `json:"failure_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PriceTable rows are append-only: a rate change inserts a new row with a
// later effective_from, existing rows are never edited.
type PriceTable struct {
	ID            int64     `json:"id"`
	BlackRate     int64     `json:"black_rate"`
	ColorRate     int64     `json:"color_rate"`
	EffectiveFrom time.Time `json:"effective_from"`
	CreatedAt     time.Time `json:"created_at"`
}

// PaperStockSnapshot is one point-in-time statement of remaining sheets.
// Current stock is the latest snapshot by recorded_at.
type PaperStockSnapshot struct {
	ID              int64     `json:"id"`
	RemainingSheets int       `json:"remaining_sheets"`
	IsRefillEvent   bool      `json:"is_refill_event"`
	RecordedAt      time.Time `json:"recorded_at"`
}

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type JobFilter struct {
	State    string
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
