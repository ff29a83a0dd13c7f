package core

import (
	"context"
	"fmt"

	"github.com/andriemoral27/PrinTech-Main/internal/db"
)

type ColorMode string

const (
	ColorBlackWhite ColorMode = "bw"
	ColorColored    ColorMode = "colored"
)

func ParseColorMode(s string) (ColorMode, error) {
	switch ColorMode(s) {
	case ColorBlackWhite, ColorColored:
		return ColorMode(s), nil
	}
	return "", fmt.Errorf("unknown color mode %q", s)
}

type State string

const (
	StateAwaitingPayment State = "awaiting_payment"
	StatePaid            State = "paid"
	StatePrinting        State = "printing"
	StateCompleted       State = "completed"
	StateExpired         State = "expired"
	StateCancelled       State = "cancelled"
	StateFailed          State = "failed"
)

// IsTerminal returns true for states that permit no further transition.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateExpired, StateCancelled, StateFailed:
		return true
	}
	return false
}

// JobStore is the keyed job persistence this core needs; db.JobOperations
// implements it against SQLite.
type JobStore interface {
	GetJobByID(ctx context.Context, id string) (*db.PrintJob, error)
	NextAwaitingJob(ctx context.Context) (*db.PrintJob, error)
	TransitionJobState(ctx context.Context, id, from, to, reason string) (bool, error)
	UpdateInsertedAmount(ctx context.Context, id string, amount int64) error
}

// StockStore is the append-only paper snapshot sequence backing PaperLedger.
type StockStore interface {
	LatestSnapshot(ctx context.Context) (*db.PaperStockSnapshot, error)
	AppendSnapshot(ctx context.Context, remaining int, isRefill bool) error
}

type SpoolStatus int

const (
	SpoolQueued SpoolStatus = iota
	SpoolDone
)

type SubmitRequest struct {
	Path        string
	Destination string
	Color       ColorMode
	Range       *PageRange
}

// Spooler abstracts the external print queue. Poll reports whether the
// submitted job is still queued; the caller drives the polling loop.
type Spooler interface {
	Submit(ctx context.Context, req SubmitRequest) (string, error)
	Poll(ctx context.Context, handle string) (SpoolStatus, error)
}

// Converter turns a non-native document into one the spooler accepts.
type Converter interface {
	Convert(ctx context.Context, sourcePath, outDir string) (string, error)
}

// Counter is the payment pulse source; hardware.PulseCounter implements it.
type Counter interface {
	Start(onPulse func()) error
	Stop()
}

type Notifier interface {
	SendJobEvent(event, jobID string, state State, errorMsg string)
	SendPaperEvent(event string, remainingSheets int)
}
