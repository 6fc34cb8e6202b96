// Package gpio provides the digital input and output lines used by the
// pipeline, with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"

	"github.com/sweeney/button-blinky/internal/sched"
)

// Edge selects which transitions raise an edge interrupt.
type Edge int

const (
	EdgeToActive Edge = iota
	EdgeToInactive
	EdgeBoth
)

func (e Edge) String() string {
	switch e {
	case EdgeToActive:
		return "to-active"
	case EdgeToInactive:
		return "to-inactive"
	case EdgeBoth:
		return "both"
	}
	return "unknown"
}

var (
	// ErrNotConfigured is returned when a line is used before Configure.
	ErrNotConfigured = errors.New("gpio: line not configured")

	// ErrNoCallback is returned by EnableInterrupt when no edge callback
	// has been registered.
	ErrNoCallback = errors.New("gpio: no edge callback registered")
)

// Input is a digital input line with edge interrupts.
// Values are logical: true means active, after any active-low inversion.
type Input interface {
	// Ready reports whether the underlying device can be used.
	Ready() bool

	// Configure sets the line direction to input.
	Configure() error

	// Read returns the current logical state.
	Read() (bool, error)

	// RegisterEdgeCallback installs isr for the given edge. It does not
	// enable the interrupt.
	RegisterEdgeCallback(isr sched.ISR, edge Edge) error

	// EnableInterrupt starts delivering edges to the registered callback.
	EnableInterrupt() error

	// Close releases the line.
	Close() error
}

// Output is a digital output line.
type Output interface {
	// Ready reports whether the underlying device can be used.
	Ready() bool

	// Configure sets the line direction to output with the given initial
	// logical state.
	Configure(initial bool) error

	// Write sets the logical state.
	Write(on bool) error

	// Close releases the line.
	Close() error
}

// Defaults for a Raspberry Pi style board (BCM offsets on gpiochip0).
const (
	DefaultChip       = "gpiochip0"
	DefaultButtonLine = 17
	DefaultLEDLine    = 27
)
