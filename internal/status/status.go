// Package status provides a thread-safe tracker of pipeline counters.
// It is updated from every execution context and read by the console.
package status

import (
	"sync"
	"sync/atomic"
	"time"
)

// Config contains the fixed timing configuration for display.
type Config struct {
	DebounceMs     int64
	BlinkMs        int64
	ConsumerWaitMs int64
	QueueDepth     int
}

// Counts holds the pipeline counters.
type Counts struct {
	Edges          uint64 // raw edge interrupts
	Evaluations    uint64 // debounce evaluator runs
	Presses        uint64 // events enqueued
	Rejected       uint64 // evaluations that read the line inactive
	Dropped        uint64 // events lost to a full queue
	Reports        uint64 // task reports delivered
	ReportFailures uint64 // task reports the sink refused
	Toggles        uint64 // LED flips
}

// Snapshot is a point-in-time view of pipeline state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Counts     Counts
	LEDEnabled bool
	LEDOn      bool
	StartTime  time.Time
	Now        time.Time
	Config     Config
}

// Uptime returns the duration since the pipeline started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds pipeline state. Counters are atomic so the edge path never
// waits on a lock held by a lower-priority context. All methods are safe on a
// nil *Tracker and do nothing.
type Tracker struct {
	edges          atomic.Uint64
	evaluations    atomic.Uint64
	presses        atomic.Uint64
	rejected       atomic.Uint64
	dropped        atomic.Uint64
	reports        atomic.Uint64
	reportFailures atomic.Uint64
	toggles        atomic.Uint64

	mu         sync.RWMutex
	ledEnabled bool
	ledOn      bool
	startTime  time.Time
	cfg        Config
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{startTime: startTime, cfg: cfg}
}

// Edge counts a raw edge interrupt.
func (t *Tracker) Edge() {
	if t != nil {
		t.edges.Add(1)
	}
}

// Evaluated counts one debounce evaluation.
func (t *Tracker) Evaluated() {
	if t != nil {
		t.evaluations.Add(1)
	}
}

// Pressed counts an enqueued button event.
func (t *Tracker) Pressed() {
	if t != nil {
		t.presses.Add(1)
	}
}

// Rejected counts an evaluation that found the line inactive.
func (t *Tracker) Rejected() {
	if t != nil {
		t.rejected.Add(1)
	}
}

// Dropped counts an event lost to a full queue and returns the new total.
func (t *Tracker) Dropped() uint64 {
	if t == nil {
		return 0
	}
	return t.dropped.Add(1)
}

// Reported counts a delivered report.
func (t *Tracker) Reported() {
	if t != nil {
		t.reports.Add(1)
	}
}

// ReportFailed counts a report the sink refused.
func (t *Tracker) ReportFailed() {
	if t != nil {
		t.reportFailures.Add(1)
	}
}

// Toggled counts an LED flip and records the new level.
func (t *Tracker) Toggled(on bool) {
	if t == nil {
		return
	}
	t.toggles.Add(1)
	t.mu.Lock()
	t.ledOn = on
	t.mu.Unlock()
}

// SetLED records whether the LED feature is running and its current level.
func (t *Tracker) SetLED(enabled, on bool) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.ledEnabled = enabled
	t.ledOn = on
	t.mu.Unlock()
}

// Counts returns the current counters.
func (t *Tracker) Counts() Counts {
	if t == nil {
		return Counts{}
	}
	return Counts{
		Edges:          t.edges.Load(),
		Evaluations:    t.evaluations.Load(),
		Presses:        t.presses.Load(),
		Rejected:       t.rejected.Load(),
		Dropped:        t.dropped.Load(),
		Reports:        t.reports.Load(),
		ReportFailures: t.reportFailures.Load(),
		Toggles:        t.toggles.Load(),
	}
}

// Snapshot returns a point-in-time copy of the pipeline state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{Now: time.Now()}
	}
	t.mu.RLock()
	s := Snapshot{
		LEDEnabled: t.ledEnabled,
		LEDOn:      t.ledOn,
		StartTime:  t.startTime,
		Config:     t.cfg,
	}
	t.mu.RUnlock()
	s.Counts = t.Counts()
	s.Now = time.Now()
	return s
}
