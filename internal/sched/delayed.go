package sched

import (
	"sync"
	"time"

	"github.com/sweeney/button-blinky/internal/clock"
)

// DelayedWork is a Work item submitted after a delay. Rescheduling replaces
// any pending expiry, so at most one expiry is ever outstanding and the last
// request wins.
type DelayedWork struct {
	work *Work
	clk  clock.Clock

	mu    sync.Mutex
	timer clock.Timer
	gen   uint64
}

// NewDelayedWork creates a delayed item that runs h on q once its delay
// expires.
func (q *WorkQueue) NewDelayedWork(name string, clk clock.Clock, h Handler) *DelayedWork {
	return &DelayedWork{work: q.NewWork(name, h), clk: clk}
}

// Work returns the underlying work item.
func (d *DelayedWork) Work() *Work {
	return d.work
}

// Reschedule cancels any pending expiry, and any expired but not yet started
// execution, then arms a new expiry after delay. It never blocks.
func (d *DelayedWork) Reschedule(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.work.Cancel()

	d.gen++
	gen := d.gen
	d.timer = d.clk.AfterFunc(delay, func() { d.expire(gen) })
}

// Cancel disarms a pending expiry and removes a queued execution.
func (d *DelayedWork) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.gen++
	d.work.Cancel()
}

// Armed reports whether an expiry is outstanding.
func (d *DelayedWork) Armed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *DelayedWork) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// expire submits the work if gen is still the current arming. A timer that
// lost a race with Reschedule finds a newer generation and does nothing.
func (d *DelayedWork) expire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.work.Submit()
}
