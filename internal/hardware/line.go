package hardware

import (
	"errors"
)

var ErrHardwareUnavailable = errors.New("hardware input unavailable")

type Level int

const (
	Low  Level = 0
	High Level = 1
)

// Line is a single binary-readable input. Configure puts the line into
// input mode with the idle level pulled high; Release deconfigures it.
// The coin acceptor signals one inserted unit per falling edge.
type Line interface {
	Configure() error
	Read() (Level, error)
	Release() error
}

// StubLine always reports the idle level. It stands in for the coin input
// on machines without the physical acceptor wired up, so the controller
// stays runnable and testable off the kiosk.
type StubLine struct{}

func (StubLine) Configure() error     { return nil }
func (StubLine) Read() (Level, error) { return High, nil }
func (StubLine) Release() error       { return nil }
