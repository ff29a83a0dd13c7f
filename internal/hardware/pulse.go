package hardware

import (
	"fmt"
	"sync"
	"time"
)

// PulseCounter samples a Line at a fixed interval and invokes its callback
// once per falling edge, in sampling order, on the sampling goroutine.
// It holds exclusive read access to the line between Start and Stop and
// releases it on every exit path, including read errors mid-loop.
type PulseCounter struct {
	line     Line
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	started  bool
}

func NewPulseCounter(line Line, interval time.Duration) *PulseCounter {
	return &PulseCounter{
		line:     line,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start configures the line and begins sampling. onPulse fires once per
// detected high-to-low transition; consecutive identical reads produce
// nothing. Returns ErrHardwareUnavailable if the line cannot be configured,
// in which case no goroutine is started and Stop is not required.
func (c *PulseCounter) Start(onPulse func()) error {
	if c.started {
		return fmt.Errorf("pulse counter already started")
	}

	if err := c.line.Configure(); err != nil {
		return fmt.Errorf("%w: %v", ErrHardwareUnavailable, err)
	}
	c.started = true

	go c.sample(onPulse)

	return nil
}

// Stop halts sampling and blocks until the line has been released.
// Safe to call more than once.
func (c *PulseCounter) Stop() {
	if !c.started {
		return
	}
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	<-c.doneCh
}

func (c *PulseCounter) sample(onPulse func()) {
	defer close(c.doneCh)
	defer c.line.Release()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	last := High

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			current, err := c.line.Read()
			if err != nil {
				return
			}
			if last == High && current == Low {
				onPulse()
			}
			last = current
		}
	}
}
