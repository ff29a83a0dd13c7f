package core

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andriemoral27/PrinTech-Main/internal/db"
)

type SessionConfig struct {
	Timeout    time.Duration
	PulseValue int64
}

// PaymentSession owns one kiosk payment interaction: it accumulates coin
// pulses against the job's price, enforces the session deadline, and
// accepts external cancellation. insertedAmount follows a single-writer
// rule: only the Run loop increments it; other goroutines read it through
// Inserted.
type PaymentSession struct {
	job     *db.PrintJob
	machine *Machine
	store   JobStore
	counter Counter
	cfg     SessionConfig

	inserted   atomic.Int64
	overpaid   atomic.Int64
	cancelCh   chan struct{}
	cancelOnce sync.Once
}

func NewPaymentSession(job *db.PrintJob, machine *Machine, store JobStore, counter Counter, cfg SessionConfig) *PaymentSession {
	if cfg.PulseValue < 1 {
		cfg.PulseValue = 1
	}
	s := &PaymentSession{
		job:      job,
		machine:  machine,
		store:    store,
		counter:  counter,
		cfg:      cfg,
		cancelCh: make(chan struct{}),
	}
	s.inserted.Store(job.InsertedAmount)
	return s
}

// Inserted is the amount accepted so far. Safe to call from any goroutine.
func (s *PaymentSession) Inserted() int64 {
	return s.inserted.Load()
}

// State is the job's current lifecycle state as this session sees it.
func (s *PaymentSession) State() State {
	return s.machine.Current()
}

// Overpaid is the excess over the job price once the session has paid.
// There is no refund mechanism; the excess is only recorded and shown.
func (s *PaymentSession) Overpaid() int64 {
	return s.overpaid.Load()
}

// Cancel requests cancellation. Safe to call at any time and more than
// once; after the session has left awaiting_payment it has no effect.
func (s *PaymentSession) Cancel() {
	s.cancelOnce.Do(func() {
		close(s.cancelCh)
	})
}

// Run drives the session to one of Paid, Expired, or Cancelled, persisting
// the transition before returning. If the coin input cannot be configured
// the job stays in awaiting_payment and the error is returned: the kiosk
// fails safe rather than printing unpaid work.
//
// The payment check is event-driven: it runs only when a pulse lands, so
// the Paid transition fires on the first pulse that crosses the threshold
// and never on one that does not.
func (s *PaymentSession) Run(ctx context.Context) (State, error) {
	pulseCh := make(chan struct{}, 128)
	sessionDone := make(chan struct{})

	// Blocking send preserves every edge in order; sessionDone unblocks the
	// sampler once the session has reached a terminal outcome.
	onPulse := func() {
		select {
		case pulseCh <- struct{}{}:
		case <-sessionDone:
		}
	}

	if err := s.counter.Start(onPulse); err != nil {
		return StateAwaitingPayment, err
	}
	defer s.counter.Stop()
	defer close(sessionDone)

	timer := time.NewTimer(s.cfg.Timeout)
	defer timer.Stop()

	for {
		select {
		case <-pulseCh:
			total := s.inserted.Add(s.cfg.PulseValue)
			if err := s.store.UpdateInsertedAmount(ctx, s.job.ID, total); err != nil {
				log.Printf("session: failed to persist inserted amount for job %s: %v", s.job.ID, err)
			}
			if total >= s.job.TotalPrice {
				s.overpaid.Store(total - s.job.TotalPrice)
				if err := s.machine.Fire(ctx, StatePaid, ""); err != nil {
					return s.machine.Current(), err
				}
				return StatePaid, nil
			}

		case <-timer.C:
			if err := s.machine.Fire(ctx, StateExpired, ""); err != nil {
				return s.machine.Current(), err
			}
			return StateExpired, nil

		case <-s.cancelCh:
			if err := s.machine.Fire(ctx, StateCancelled, ""); err != nil {
				return s.machine.Current(), err
			}
			return StateCancelled, nil

		case <-ctx.Done():
			// Shutdown mid-session: persist cancellation on a detached
			// context so the job is never stranded in awaiting_payment
			// with coins already counted.
			if err := s.machine.Fire(context.Background(), StateCancelled, ReasonInterrupted); err != nil {
				log.Printf("session: failed to cancel job %s on shutdown: %v", s.job.ID, err)
			}
			return StateCancelled, ctx.Err()
		}
	}
}
