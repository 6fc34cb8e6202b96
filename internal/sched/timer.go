package sched

import (
	"sync"
	"time"

	"github.com/sweeney/button-blinky/internal/clock"
)

// Timer is a periodic timer. Each expiry runs its ISR and rearms itself for
// the next period boundary; expiries missed while the process was stalled are
// skipped, not replayed.
type Timer struct {
	clk clock.Clock
	isr ISR

	mu      sync.Mutex
	t       clock.Timer
	period  time.Duration
	next    time.Time
	running bool
	gen     uint64
	fired   uint64
}

// NewTimer creates a stopped timer that calls isr on every expiry.
func NewTimer(clk clock.Clock, isr ISR) *Timer {
	return &Timer{clk: clk, isr: isr}
}

// Start arms the timer to first expire after period and then every period.
// Starting a running timer restarts it.
func (t *Timer) Start(period time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.t != nil {
		t.t.Stop()
	}
	t.period = period
	t.running = true
	t.gen++
	gen := t.gen
	t.next = t.clk.Now().Add(period)
	t.t = t.clk.AfterFunc(period, func() { t.fire(gen) })
}

// Stop disarms the timer.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = false
	t.gen++
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}

// Fired returns the number of expiries so far.
func (t *Timer) Fired() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if !t.running || gen != t.gen {
		t.mu.Unlock()
		return
	}
	now := t.clk.Now()
	for !t.next.After(now) {
		t.next = t.next.Add(t.period)
	}
	t.t = t.clk.AfterFunc(t.next.Sub(now), func() { t.fire(gen) })
	t.fired++
	t.mu.Unlock()

	t.isr(IRQ{At: now})
}
