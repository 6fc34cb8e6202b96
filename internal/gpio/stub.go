//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/button-blinky/internal/sched"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealInput is not available on non-Linux platforms.
type RealInput struct{}

// NewRealInput returns an input that is never ready on non-Linux platforms.
func NewRealInput(chip string, offset int, activeLow bool) *RealInput {
	return &RealInput{}
}

// Ready always reports false.
func (r *RealInput) Ready() bool { return false }

// Configure is not implemented on non-Linux platforms.
func (r *RealInput) Configure() error { return errUnsupported }

// Read is not implemented on non-Linux platforms.
func (r *RealInput) Read() (bool, error) { return false, errUnsupported }

// RegisterEdgeCallback is not implemented on non-Linux platforms.
func (r *RealInput) RegisterEdgeCallback(isr sched.ISR, edge Edge) error { return errUnsupported }

// EnableInterrupt is not implemented on non-Linux platforms.
func (r *RealInput) EnableInterrupt() error { return errUnsupported }

// Close is a no-op.
func (r *RealInput) Close() error { return nil }

// RealOutput is not available on non-Linux platforms.
type RealOutput struct{}

// NewRealOutput returns an output that is never ready on non-Linux platforms.
func NewRealOutput(chip string, offset int) *RealOutput {
	return &RealOutput{}
}

// Ready always reports false.
func (r *RealOutput) Ready() bool { return false }

// Configure is not implemented on non-Linux platforms.
func (r *RealOutput) Configure(initial bool) error { return errUnsupported }

// Write is not implemented on non-Linux platforms.
func (r *RealOutput) Write(on bool) error { return errUnsupported }

// Close is a no-op.
func (r *RealOutput) Close() error { return nil }
