// Package blink flips an output line on a fixed period. The periodic timer
// only requests deferred work; the flip itself runs on the work queue.
package blink

import (
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/button-blinky/internal/clock"
	"github.com/sweeney/button-blinky/internal/sched"
	"github.com/sweeney/button-blinky/internal/status"
)

// Writer drives the output line.
type Writer interface {
	Write(on bool) error
}

// Toggler owns the output line state.
type Toggler struct {
	out     Writer
	timer   *sched.Timer
	work    *sched.Work
	tracker *status.Tracker

	state     atomic.Bool
	toggles   atomic.Uint64
	coalesced atomic.Uint64
}

// New creates a stopped Toggler. initial must match the level the line was
// configured with. tracker may be nil.
func New(wq *sched.WorkQueue, clk clock.Clock, out Writer, initial bool, tracker *status.Tracker) *Toggler {
	t := &Toggler{out: out, tracker: tracker}
	t.state.Store(initial)
	t.work = wq.NewWork("blink", t.toggle)
	t.timer = sched.NewTimer(clk, t.tick)
	return t
}

// Start begins toggling every period.
func (t *Toggler) Start(period time.Duration) {
	t.tracker.SetLED(true, t.state.Load())
	t.timer.Start(period)
}

// Stop halts the periodic timer. A flip already queued still runs.
func (t *Toggler) Stop() {
	t.timer.Stop()
}

// tick is the timer ISR. If the previous flip has not run yet the request
// coalesces with it, so a starved worker never produces a double flip.
func (t *Toggler) tick(irq sched.IRQ) {
	if !irq.Submit(t.work) {
		t.coalesced.Add(1)
	}
}

func (t *Toggler) toggle() {
	on := !t.state.Load()
	t.state.Store(on)
	t.toggles.Add(1)
	t.tracker.Toggled(on)

	if err := t.out.Write(on); err != nil {
		log.WithError(err).Debug("led write failed")
	}
}

// Level returns the current logical output state.
func (t *Toggler) Level() bool {
	return t.state.Load()
}

// Toggles returns how many flips have executed.
func (t *Toggler) Toggles() uint64 {
	return t.toggles.Load()
}

// Coalesced returns how many ticks found the previous flip still pending.
func (t *Toggler) Coalesced() uint64 {
	return t.coalesced.Load()
}
