package button

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/button-blinky/internal/clock"
	"github.com/sweeney/button-blinky/internal/sched"
	"github.com/sweeney/button-blinky/internal/status"
)

// Sampler reads the current logical state of the button line.
type Sampler interface {
	Read() (bool, error)
}

// Debouncer owns the debounce delay for one button. OnEdge is its ISR; the
// evaluation runs as deferred work once the line has been quiet for the
// debounce delay.
type Debouncer struct {
	in      Sampler
	out     *Queue
	clk     clock.Clock
	delay   time.Duration
	tracker *status.Tracker
	work    *sched.DelayedWork

	// only touched by evaluate, which the work queue serializes
	seq uint64
}

// NewDebouncer creates a Debouncer whose evaluations run on wq and whose
// confirmed presses are pushed to out. tracker may be nil.
func NewDebouncer(wq *sched.WorkQueue, clk clock.Clock, in Sampler, out *Queue, delay time.Duration, tracker *status.Tracker) *Debouncer {
	d := &Debouncer{
		in:      in,
		out:     out,
		clk:     clk,
		delay:   delay,
		tracker: tracker,
	}
	d.work = wq.NewDelayedWork("debounce", clk, d.evaluate)
	return d
}

// OnEdge is the edge interrupt handler. Every edge restarts the debounce
// delay, so a burst of bounces produces a single evaluation.
func (d *Debouncer) OnEdge(irq sched.IRQ) {
	d.tracker.Edge()
	irq.Reschedule(d.work, d.delay)
}

// Pending reports whether a debounce expiry is outstanding.
func (d *Debouncer) Pending() bool {
	return d.work.Armed()
}

// Stop cancels any outstanding evaluation.
func (d *Debouncer) Stop() {
	d.work.Cancel()
}

// evaluate re-samples the line after the delay and enqueues one event if the
// button is still pressed.
func (d *Debouncer) evaluate() {
	d.tracker.Evaluated()

	active, err := d.in.Read()
	if err != nil {
		log.WithError(err).Warn("button read failed after debounce; discarding")
		d.tracker.Rejected()
		return
	}
	if !active {
		log.Debug("button inactive after debounce; discarding")
		d.tracker.Rejected()
		return
	}

	d.seq++
	ev := Event{Kind: KindPressed, Seq: d.seq, At: d.clk.Now()}
	if err := d.out.Push(ev); err != nil {
		if errors.Is(err, ErrQueueFull) {
			if n := d.tracker.Dropped(); n <= 1 {
				log.WithField("capacity", d.out.Cap()).Warn("event queue full, dropping newest")
			} else {
				log.WithField("dropped", n).Debug("event queue full, dropping newest")
			}
		}
		return
	}

	d.tracker.Pressed()
	log.WithFields(log.Fields{
		"seq":   ev.Seq,
		"queue": d.out.Len(),
	}).Debug("button press queued")
}
