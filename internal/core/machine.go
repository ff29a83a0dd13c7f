package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/andriemoral27/PrinTech-Main/internal/db"
)

var transitions = map[State][]State{
	StateAwaitingPayment: {StatePaid, StateExpired, StateCancelled},
	StatePaid:            {StatePrinting, StateFailed},
	StatePrinting:        {StateCompleted, StateFailed},
}

// Machine is the authoritative lifecycle for one print job. Every accepted
// transition is persisted before Fire returns; terminal states are
// immutable. One machine exists per active kiosk interaction.
type Machine struct {
	jobID   string
	store   JobStore
	mu      sync.Mutex
	current State
}

func NewMachine(job *db.PrintJob, store JobStore) *Machine {
	return &Machine{
		jobID:   job.ID,
		store:   store,
		current: State(job.State),
	}
}

func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Fire attempts the transition to next, recording reason on the job.
// Returns ErrInvalidTransition when the move is not permitted from the
// current state; the current state is left untouched if persistence fails.
// The write carries the expected current state as a guard, so a machine
// holding a stale view cannot overwrite a state written concurrently and
// a terminal state stays terminal.
func (m *Machine) Fire(ctx context.Context, next State, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.allowed(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current, next)
	}

	updated, err := m.store.TransitionJobState(ctx, m.jobID, string(m.current), string(next), reason)
	if err != nil {
		return fmt.Errorf("failed to persist transition %s -> %s: %w", m.current, next, err)
	}
	if !updated {
		return fmt.Errorf("%w: %s -> %s: job is no longer %s", ErrInvalidTransition, m.current, next, m.current)
	}

	m.current = next
	return nil
}

func (m *Machine) allowed(next State) bool {
	for _, s := range transitions[m.current] {
		if s == next {
			return true
		}
	}
	return false
}
