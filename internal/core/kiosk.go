package core

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/andriemoral27/PrinTech-Main/internal/db"
	"github.com/andriemoral27/PrinTech-Main/internal/hardware"
)

const (
	EventJobCompleted  = "job_completed"
	EventJobFailed     = "job_failed"
	EventJobExpired    = "job_expired"
	EventJobCancelled  = "job_cancelled"
	EventPaperLow      = "paper_low"
	EventPaperRefilled = "paper_refilled"
)

const lowPaperThreshold = 10

type KioskConfig struct {
	Session        SessionConfig
	PollInterval   time.Duration
	MaxPollRetries int
	PickupInterval time.Duration
}

// Kiosk is the lifecycle controller: a single-worker loop that picks up the
// oldest job awaiting payment and drives it through payment, paper
// reservation, dispatch, and completion polling to a terminal state. One
// session is active at a time, which is what a single coin slot allows.
type Kiosk struct {
	store      JobStore
	ledger     *PaperLedger
	dispatcher *Dispatcher
	notifier   Notifier
	newCounter func() Counter
	cfg        KioskConfig

	mu          sync.RWMutex
	active      *PaymentSession
	activeJobID string
	running     bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewKiosk(store JobStore, ledger *PaperLedger, dispatcher *Dispatcher, notifier Notifier, newCounter func() Counter, cfg KioskConfig) *Kiosk {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.PickupInterval <= 0 {
		cfg.PickupInterval = time.Second
	}
	return &Kiosk{
		store:      store,
		ledger:     ledger,
		dispatcher: dispatcher,
		notifier:   notifier,
		newCounter: newCounter,
		cfg:        cfg,
		stopCh:     make(chan struct{}),
	}
}

func (k *Kiosk) Start(ctx context.Context) {
	k.mu.Lock()
	if k.running {
		k.mu.Unlock()
		return
	}
	k.running = true
	k.mu.Unlock()

	k.wg.Add(1)
	go k.loop(ctx)
}

func (k *Kiosk) Stop() {
	k.mu.Lock()
	if !k.running {
		k.mu.Unlock()
		return
	}
	k.running = false
	k.mu.Unlock()

	close(k.stopCh)
	if s := k.activeSession(); s != nil {
		s.Cancel()
	}
	k.wg.Wait()
}

func (k *Kiosk) loop(ctx context.Context) {
	defer k.wg.Done()

	ticker := time.NewTicker(k.cfg.PickupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-k.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := k.store.NextAwaitingJob(ctx)
			if err != nil {
				if !errors.Is(err, sql.ErrNoRows) {
					log.Printf("kiosk: failed to fetch next job: %v", err)
				}
				continue
			}
			if err := k.runJob(ctx, job); errors.Is(err, hardware.ErrHardwareUnavailable) {
				// Coin input is gone; nothing can be paid for until an
				// operator intervenes. Back off instead of spinning on
				// the same job.
				log.Printf("kiosk: coin input unavailable, pausing pickup: %v", err)
				select {
				case <-k.stopCh:
					return
				case <-ctx.Done():
					return
				case <-time.After(30 * time.Second):
				}
			}
		}
	}
}

// runJob drives one job to a terminal state. The returned error is only
// used by the loop's backoff decision; every outcome has already been
// persisted on the job before runJob returns.
func (k *Kiosk) runJob(ctx context.Context, job *db.PrintJob) error {
	machine := NewMachine(job, k.store)
	session := NewPaymentSession(job, machine, k.store, k.newCounter(), k.cfg.Session)

	k.setActive(job.ID, session)
	defer k.clearActive()

	state, err := session.Run(ctx)
	if err != nil {
		if errors.Is(err, hardware.ErrHardwareUnavailable) {
			return err
		}
		log.Printf("kiosk: session for job %s ended: %v", job.ID, err)
	}

	switch state {
	case StateExpired:
		k.notifyJob(EventJobExpired, job.ID, StateExpired, "")
		return nil
	case StateCancelled:
		k.notifyJob(EventJobCancelled, job.ID, StateCancelled, "")
		return nil
	case StatePaid:
	default:
		return nil
	}

	if over := session.Overpaid(); over > 0 {
		log.Printf("kiosk: job %s overpaid by %d, recorded without refund", job.ID, over)
	}

	return k.printJob(ctx, job, machine)
}

func (k *Kiosk) printJob(ctx context.Context, job *db.PrintJob, machine *Machine) error {
	sheets, err := PageCount(job.PagesToPrint, job.TotalPages)
	if err != nil {
		k.fail(ctx, machine, job.ID, ReasonConversionFailed, err)
		return nil
	}

	remaining, err := k.ledger.Reserve(ctx, sheets)
	if err != nil {
		k.fail(ctx, machine, job.ID, ReasonInsufficientPaper, err)
		return nil
	}

	if err := machine.Fire(ctx, StatePrinting, ""); err != nil {
		log.Printf("kiosk: job %s: %v", job.ID, err)
		return nil
	}

	ticket, err := k.dispatcher.Submit(ctx, job)
	if err != nil {
		reason := ReasonSpoolerError
		if errors.Is(err, ErrConversionFailed) {
			reason = ReasonConversionFailed
		}
		k.fail(ctx, machine, job.ID, reason, err)
		return nil
	}
	defer ticket.Close()

	if err := k.pollUntilDone(ctx, machine, job.ID, ticket); err != nil {
		return nil
	}

	k.notifyJob(EventJobCompleted, job.ID, StateCompleted, "")
	if remaining <= lowPaperThreshold {
		k.notifyPaper(EventPaperLow, remaining)
	}
	return nil
}

// pollUntilDone drives the caller side of the dispatcher's poll contract:
// fixed interval, no iteration cap while the spooler reports the job
// queued, and a bounded retry budget for poll errors only.
func (k *Kiosk) pollUntilDone(ctx context.Context, machine *Machine, jobID string, ticket *Ticket) error {
	ticker := time.NewTicker(k.cfg.PollInterval)
	defer ticker.Stop()

	retries := 0
	for {
		select {
		case <-k.stopCh:
			k.fail(context.Background(), machine, jobID, ReasonInterrupted, errors.New("kiosk stopped while polling"))
			return errors.New("stopped")
		case <-ctx.Done():
			k.fail(context.Background(), machine, jobID, ReasonInterrupted, ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			status, err := k.dispatcher.Poll(ctx, ticket)
			if err != nil {
				retries++
				log.Printf("kiosk: poll %d/%d for job %s: %v", retries, k.cfg.MaxPollRetries, jobID, err)
				if retries > k.cfg.MaxPollRetries {
					k.fail(ctx, machine, jobID, ReasonSpoolerError, err)
					return err
				}
				continue
			}
			retries = 0
			if status == SpoolDone {
				if err := machine.Fire(ctx, StateCompleted, ""); err != nil {
					log.Printf("kiosk: job %s: %v", jobID, err)
				}
				return nil
			}
		}
	}
}

func (k *Kiosk) fail(ctx context.Context, machine *Machine, jobID, reason string, cause error) {
	log.Printf("kiosk: job %s failed (%s): %v", jobID, reason, cause)
	if err := machine.Fire(ctx, StateFailed, reason); err != nil {
		log.Printf("kiosk: job %s: %v", jobID, err)
	}
	k.notifyJob(EventJobFailed, jobID, StateFailed, reason)
}

// Cancel routes a cancellation to the job's active session, or cancels a
// still-queued job directly. Jobs past awaiting_payment cannot be
// cancelled: the money is already committed to paper and ink.
func (k *Kiosk) Cancel(ctx context.Context, jobID string) error {
	k.mu.RLock()
	session, active := k.active, k.activeJobID == jobID
	k.mu.RUnlock()

	if active && session != nil {
		if session.State() != StateAwaitingPayment {
			return ErrJobNotActive
		}
		session.Cancel()
		return nil
	}

	if _, err := k.store.GetJobByID(ctx, jobID); err != nil {
		return err
	}

	// Guarded write: if the pickup loop grabbed the job in the meantime,
	// the state is no longer awaiting_payment and nothing is overwritten.
	updated, err := k.store.TransitionJobState(ctx, jobID,
		string(StateAwaitingPayment), string(StateCancelled), "")
	if err != nil {
		return err
	}
	if !updated {
		return ErrJobNotActive
	}
	return nil
}

func (k *Kiosk) setActive(jobID string, s *PaymentSession) {
	k.mu.Lock()
	k.active = s
	k.activeJobID = jobID
	k.mu.Unlock()
}

func (k *Kiosk) clearActive() {
	k.mu.Lock()
	k.active = nil
	k.activeJobID = ""
	k.mu.Unlock()
}

func (k *Kiosk) activeSession() *PaymentSession {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.active
}

func (k *Kiosk) notifyJob(event, jobID string, state State, errMsg string) {
	if k.notifier != nil {
		k.notifier.SendJobEvent(event, jobID, state, errMsg)
	}
}

func (k *Kiosk) notifyPaper(event string, remaining int) {
	if k.notifier != nil {
		k.notifier.SendPaperEvent(event, remaining)
	}
}
