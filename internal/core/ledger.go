package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// PaperLedger tracks remaining paper as an append-only snapshot sequence.
// The read-then-append in Reserve runs under a single mutex so concurrent
// reservations can never interleave and drive the stock negative.
type PaperLedger struct {
	mu    sync.Mutex
	store StockStore
}

func NewPaperLedger(store StockStore) *PaperLedger {
	return &PaperLedger{store: store}
}

// Reserve decrements the stock by sheets if enough remains, appending a new
// snapshot, and returns the remaining count. It fails closed: on
// ErrInsufficientStock no snapshot is written. A ledger with no snapshots
// yet refuses all reservations until the first refill is recorded.
func (l *PaperLedger) Reserve(ctx context.Context, sheets int) (int, error) {
	if sheets < 1 {
		return 0, fmt.Errorf("reservation must be at least one sheet, got %d", sheets)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	latest, err := l.store.LatestSnapshot(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: no stock recorded", ErrInsufficientStock)
		}
		return 0, fmt.Errorf("failed to read stock: %w", err)
	}

	if latest.RemainingSheets < sheets {
		return latest.RemainingSheets, fmt.Errorf("%w: have %d, need %d",
			ErrInsufficientStock, latest.RemainingSheets, sheets)
	}

	remaining := latest.RemainingSheets - sheets
	if err := l.store.AppendSnapshot(ctx, remaining, false); err != nil {
		return latest.RemainingSheets, fmt.Errorf("failed to record reservation: %w", err)
	}

	return remaining, nil
}

// RecordRefill appends a refill snapshot unconditionally, representing a
// physical paper reload counted by the operator.
func (l *PaperLedger) RecordRefill(ctx context.Context, newCount int) error {
	if newCount < 0 {
		return fmt.Errorf("refill count must be non-negative, got %d", newCount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.AppendSnapshot(ctx, newCount, true); err != nil {
		return fmt.Errorf("failed to record refill: %w", err)
	}
	return nil
}

// Remaining returns the current stock from the latest snapshot; zero when
// no snapshot exists yet.
func (l *PaperLedger) Remaining(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	latest, err := l.store.LatestSnapshot(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read stock: %w", err)
	}
	return latest.RemainingSheets, nil
}
