//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/button-blinky/internal/sched"
)

// RealInput reads a button from actual hardware using the Linux GPIO
// character device. Edge events arrive on the gpiocdev event goroutine,
// which plays the part of interrupt context.
type RealInput struct {
	chip      string
	offset    int
	activeLow bool

	mu   sync.Mutex
	line *gpiocdev.Line
	edge Edge

	isr     atomic.Pointer[sched.ISR]
	enabled atomic.Bool
}

// NewRealInput describes an input line. Nothing is requested from the
// kernel until Configure.
func NewRealInput(chip string, offset int, activeLow bool) *RealInput {
	return &RealInput{chip: chip, offset: offset, activeLow: activeLow}
}

// Ready reports whether the GPIO chip exists and is accessible.
func (r *RealInput) Ready() bool {
	return gpiocdev.IsChip(r.chip) == nil
}

// Configure requests the line as an input. A pressed button pulls an
// active-low line to ground, so the opposite bias is applied.
func (r *RealInput) Configure() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithEventHandler(r.handle),
		gpiocdev.WithConsumer("button-blinky"),
	}
	if r.activeLow {
		opts = append(opts, gpiocdev.AsActiveLow, gpiocdev.WithPullUp)
	} else {
		opts = append(opts, gpiocdev.WithPullDown)
	}

	line, err := gpiocdev.RequestLine(r.chip, r.offset, opts...)
	if err != nil {
		return fmt.Errorf("request button line %s:%d: %w", r.chip, r.offset, err)
	}
	r.line = line
	return nil
}

// Read returns the logical state of the line.
func (r *RealInput) Read() (bool, error) {
	r.mu.Lock()
	line := r.line
	r.mu.Unlock()

	if line == nil {
		return false, ErrNotConfigured
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read button line: %w", err)
	}
	return v == 1, nil
}

// RegisterEdgeCallback installs isr. Edges are not delivered until
// EnableInterrupt.
func (r *RealInput) RegisterEdgeCallback(isr sched.ISR, edge Edge) error {
	r.mu.Lock()
	r.edge = edge
	r.mu.Unlock()

	r.isr.Store(&isr)
	return nil
}

// EnableInterrupt turns on kernel edge detection for the registered edge.
func (r *RealInput) EnableInterrupt() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.line == nil {
		return ErrNotConfigured
	}
	if r.isr.Load() == nil {
		return ErrNoCallback
	}

	var opt gpiocdev.LineConfigOption
	switch r.edge {
	case EdgeToInactive:
		opt = gpiocdev.WithFallingEdge
	case EdgeBoth:
		opt = gpiocdev.WithBothEdges
	default:
		opt = gpiocdev.WithRisingEdge
	}

	r.enabled.Store(true)
	if err := r.line.Reconfigure(opt); err != nil {
		r.enabled.Store(false)
		return fmt.Errorf("enable edge detection: %w", err)
	}
	return nil
}

func (r *RealInput) handle(evt gpiocdev.LineEvent) {
	if !r.enabled.Load() {
		return
	}
	isr := r.isr.Load()
	if isr == nil {
		return
	}
	(*isr)(sched.IRQ{At: time.Now()})
}

// Close disables edge detection and releases the line.
func (r *RealInput) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.enabled.Store(false)
	if r.line == nil {
		return nil
	}
	err := r.line.Close()
	r.line = nil
	if err != nil {
		return fmt.Errorf("close button line: %w", err)
	}
	return nil
}

// RealOutput drives an LED on actual hardware.
type RealOutput struct {
	chip   string
	offset int

	mu   sync.Mutex
	line *gpiocdev.Line
}

// NewRealOutput describes an output line. Nothing is requested from the
// kernel until Configure.
func NewRealOutput(chip string, offset int) *RealOutput {
	return &RealOutput{chip: chip, offset: offset}
}

// Ready reports whether the GPIO chip exists and is accessible.
func (o *RealOutput) Ready() bool {
	return gpiocdev.IsChip(o.chip) == nil
}

// Configure requests the line as an output driven to initial.
func (o *RealOutput) Configure(initial bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	line, err := gpiocdev.RequestLine(o.chip, o.offset,
		gpiocdev.AsOutput(boolToValue(initial)),
		gpiocdev.WithConsumer("button-blinky"))
	if err != nil {
		return fmt.Errorf("request LED line %s:%d: %w", o.chip, o.offset, err)
	}
	o.line = line
	return nil
}

// Write sets the line's logical state.
func (o *RealOutput) Write(on bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.line == nil {
		return ErrNotConfigured
	}
	if err := o.line.SetValue(boolToValue(on)); err != nil {
		return fmt.Errorf("write LED line: %w", err)
	}
	return nil
}

// Close releases the line.
// Reconfigures it as an input first so the LED is not left driven after exit.
func (o *RealOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.line == nil {
		return nil
	}

	var errs []error
	if err := o.line.Reconfigure(gpiocdev.AsInput); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure LED line: %w", err))
	}
	if err := o.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close LED line: %w", err))
	}
	o.line = nil

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func boolToValue(b bool) int {
	if b {
		return 1
	}
	return 0
}
