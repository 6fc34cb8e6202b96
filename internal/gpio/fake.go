package gpio

import (
	"sync"
	"time"

	"github.com/sweeney/button-blinky/internal/sched"
)

// FakeInput is a test double for a button line. The level is set by the test
// and edges are raised explicitly, calling the registered ISR synchronously.
type FakeInput struct {
	// NotReady makes Ready report false.
	NotReady bool

	// ConfigureError, if set, is returned by Configure.
	ConfigureError error

	// ReadError, if set, is returned by Read.
	ReadError error

	// EnableError, if set, is returned by EnableInterrupt.
	EnableError error

	mu         sync.Mutex
	level      bool
	configured bool
	isr        sched.ISR
	edge       Edge
	enabled    bool
	closed     bool
	calls      []string
	reads      int
}

// NewFakeInput creates an inactive FakeInput.
func NewFakeInput() *FakeInput {
	return &FakeInput{}
}

func (f *FakeInput) record(call string) {
	f.calls = append(f.calls, call)
}

// Ready reports !NotReady.
func (f *FakeInput) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ready")
	return !f.NotReady
}

// Configure marks the line as an input.
func (f *FakeInput) Configure() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("configure")
	if f.ConfigureError != nil {
		return f.ConfigureError
	}
	f.configured = true
	return nil
}

// Read returns the current level.
func (f *FakeInput) Read() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.ReadError != nil {
		return false, f.ReadError
	}
	return f.level, nil
}

// RegisterEdgeCallback stores isr.
func (f *FakeInput) RegisterEdgeCallback(isr sched.ISR, edge Edge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("register")
	f.isr = isr
	f.edge = edge
	return nil
}

// EnableInterrupt starts delivering edges.
func (f *FakeInput) EnableInterrupt() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("enable")
	if f.EnableError != nil {
		return f.EnableError
	}
	if !f.configured {
		return ErrNotConfigured
	}
	if f.isr == nil {
		return ErrNoCallback
	}
	f.enabled = true
	return nil
}

// Close stops edge delivery.
func (f *FakeInput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("close")
	f.enabled = false
	f.closed = true
	return nil
}

// Set changes the level without raising an edge.
func (f *FakeInput) Set(level bool) {
	f.mu.Lock()
	f.level = level
	f.mu.Unlock()
}

// Trigger raises an edge interrupt at the given time. It reports whether the
// ISR was called.
func (f *FakeInput) Trigger(at time.Time) bool {
	f.mu.Lock()
	isr := f.isr
	enabled := f.enabled
	f.mu.Unlock()

	if !enabled || isr == nil {
		return false
	}
	isr(sched.IRQ{At: at})
	return true
}

// Press drives the line active and raises an edge if the registered edge
// kind includes the to-active transition.
func (f *FakeInput) Press(at time.Time) bool {
	f.mu.Lock()
	f.level = true
	edge := f.edge
	f.mu.Unlock()

	if edge == EdgeToInactive {
		return false
	}
	return f.Trigger(at)
}

// Release drives the line inactive and raises an edge if the registered edge
// kind includes the to-inactive transition.
func (f *FakeInput) Release(at time.Time) bool {
	f.mu.Lock()
	f.level = false
	edge := f.edge
	f.mu.Unlock()

	if edge == EdgeToActive {
		return false
	}
	return f.Trigger(at)
}

// Calls returns the order of capability calls made on the fake.
func (f *FakeInput) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Reads returns how many times Read was called.
func (f *FakeInput) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Enabled reports whether edges are being delivered.
func (f *FakeInput) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

// Closed reports whether Close was called.
func (f *FakeInput) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeOutput is a test double for an LED line that records every write.
type FakeOutput struct {
	// NotReady makes Ready report false.
	NotReady bool

	// ConfigureError, if set, is returned by Configure.
	ConfigureError error

	// WriteError, if set, is returned by Write. The level still changes.
	WriteError error

	mu         sync.Mutex
	configured bool
	level      bool
	writes     []bool
	closed     bool
}

// NewFakeOutput creates an unconfigured FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Ready reports !NotReady.
func (f *FakeOutput) Ready() bool {
	return !f.NotReady
}

// Configure marks the line as an output at the initial level.
func (f *FakeOutput) Configure(initial bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ConfigureError != nil {
		return f.ConfigureError
	}
	f.configured = true
	f.level = initial
	return nil
}

// Write records the new level.
func (f *FakeOutput) Write(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.configured {
		return ErrNotConfigured
	}
	f.level = on
	f.writes = append(f.writes, on)
	return f.WriteError
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Level returns the last driven level.
func (f *FakeOutput) Level() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level
}

// Writes returns every level written since Configure.
func (f *FakeOutput) Writes() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.writes...)
}

// Configured reports whether Configure succeeded.
func (f *FakeOutput) Configured() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configured
}

// Closed reports whether Close was called.
func (f *FakeOutput) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
