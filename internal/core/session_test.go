package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/andriemoral27/PrinTech-Main/internal/db"
	"github.com/andriemoral27/PrinTech-Main/internal/hardware"
)

// fakeCounter hands the registered callback back to the test so it can
// inject pulses directly.
type fakeCounter struct {
	mu       sync.Mutex
	onPulse  func()
	startErr error
	stops    int
}

func (c *fakeCounter) Start(onPulse func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return c.startErr
	}
	c.onPulse = onPulse
	return nil
}

func (c *fakeCounter) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
}

func (c *fakeCounter) pulse(n int) {
	c.mu.Lock()
	cb := c.onPulse
	c.mu.Unlock()
	for i := 0; i < n; i++ {
		cb()
	}
}

func (c *fakeCounter) stopCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}

func newTestSession(t *testing.T, price, pulseValue int64, timeout time.Duration) (*PaymentSession, *fakeJobStore, *fakeCounter) {
	t.Helper()
	job := &db.PrintJob{ID: "j1", TotalPrice: price, State: string(StateAwaitingPayment)}
	store := newFakeJobStore(job)
	counter := &fakeCounter{}
	machine := NewMachine(job, store)
	session := NewPaymentSession(job, machine, store, counter, SessionConfig{
		Timeout:    timeout,
		PulseValue: pulseValue,
	})
	return session, store, counter
}

func runSession(session *PaymentSession) (chan State, chan error) {
	stateCh := make(chan State, 1)
	errCh := make(chan error, 1)
	go func() {
		state, err := session.Run(context.Background())
		stateCh <- state
		errCh <- err
	}()
	return stateCh, errCh
}

func waitState(t *testing.T, stateCh chan State) State {
	t.Helper()
	select {
	case s := <-stateCh:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
		return ""
	}
}

func TestSessionPaysOnThresholdPulse(t *testing.T) {
	session, store, counter := newTestSession(t, 20, 1, time.Minute)
	stateCh, errCh := runSession(session)

	// Counter registration races with the first pulse only in the test;
	// the real counter cannot fire before Start returns.
	waitForCallback(t, counter)
	counter.pulse(20)

	if state := waitState(t, stateCh); state != StatePaid {
		t.Fatalf("state = %s, want paid", state)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := session.Inserted(); got != 20 {
		t.Errorf("inserted = %d, want 20", got)
	}
	if got := session.Overpaid(); got != 0 {
		t.Errorf("overpaid = %d, want 0", got)
	}
	if got := store.stateOf("j1"); got != string(StatePaid) {
		t.Errorf("persisted state = %s, want paid", got)
	}
	if counter.stopCount() != 1 {
		t.Errorf("counter stopped %d times, want 1", counter.stopCount())
	}
}

func TestSessionBelowThresholdStaysUnpaid(t *testing.T) {
	session, store, counter := newTestSession(t, 20, 1, time.Minute)
	stateCh, _ := runSession(session)

	waitForCallback(t, counter)
	counter.pulse(19)

	// Give the loop a moment to drain all 19 before cancelling.
	deadline := time.Now().Add(2 * time.Second)
	for session.Inserted() < 19 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	session.Cancel()

	if state := waitState(t, stateCh); state != StateCancelled {
		t.Fatalf("state = %s, want cancelled", state)
	}
	if got := session.Inserted(); got != 19 {
		t.Errorf("inserted = %d, want 19", got)
	}
	if store.jobs["j1"].InsertedAmount != 19 {
		t.Errorf("persisted inserted = %d, want 19", store.jobs["j1"].InsertedAmount)
	}
}

func TestSessionOverpayment(t *testing.T) {
	session, _, counter := newTestSession(t, 5, 2, time.Minute)
	stateCh, _ := runSession(session)

	waitForCallback(t, counter)
	counter.pulse(3)

	if state := waitState(t, stateCh); state != StatePaid {
		t.Fatalf("state = %s, want paid", state)
	}
	if got := session.Inserted(); got != 6 {
		t.Errorf("inserted = %d, want 6", got)
	}
	if got := session.Overpaid(); got != 1 {
		t.Errorf("overpaid = %d, want 1", got)
	}
}

func TestSessionExpires(t *testing.T) {
	session, store, _ := newTestSession(t, 20, 1, 30*time.Millisecond)
	stateCh, errCh := runSession(session)

	if state := waitState(t, stateCh); state != StateExpired {
		t.Fatalf("state = %s, want expired", state)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.stateOf("j1"); got != string(StateExpired) {
		t.Errorf("persisted state = %s, want expired", got)
	}
}

func TestSessionCancelIsIdempotent(t *testing.T) {
	session, _, counter := newTestSession(t, 20, 1, time.Minute)
	stateCh, _ := runSession(session)

	waitForCallback(t, counter)
	session.Cancel()
	session.Cancel()
	session.Cancel()

	if state := waitState(t, stateCh); state != StateCancelled {
		t.Fatalf("state = %s, want cancelled", state)
	}
	if counter.stopCount() != 1 {
		t.Errorf("counter stopped %d times, want 1", counter.stopCount())
	}
}

func TestSessionFailsSafeWhenCounterUnavailable(t *testing.T) {
	session, store, counter := newTestSession(t, 20, 1, time.Minute)
	counter.startErr = hardware.ErrHardwareUnavailable

	state, err := session.Run(context.Background())
	if !errors.Is(err, hardware.ErrHardwareUnavailable) {
		t.Fatalf("expected ErrHardwareUnavailable, got %v", err)
	}
	if state != StateAwaitingPayment {
		t.Errorf("state = %s, want awaiting_payment", state)
	}
	if got := store.stateOf("j1"); got != string(StateAwaitingPayment) {
		t.Errorf("persisted state = %s, want awaiting_payment", got)
	}
}

func TestSessionCancelsOnContextShutdown(t *testing.T) {
	session, store, _ := newTestSession(t, 20, 1, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	stateCh := make(chan State, 1)
	errCh := make(chan error, 1)
	go func() {
		state, err := session.Run(ctx)
		stateCh <- state
		errCh <- err
	}()

	cancel()

	if state := waitState(t, stateCh); state != StateCancelled {
		t.Fatalf("state = %s, want cancelled", state)
	}
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := store.jobs["j1"].FailureReason; got != ReasonInterrupted {
		t.Errorf("reason = %q, want %q", got, ReasonInterrupted)
	}
}

func waitForCallback(t *testing.T, counter *fakeCounter) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		counter.mu.Lock()
		ready := counter.onPulse != nil
		counter.mu.Unlock()
		if ready {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("counter was never started")
}
