// Package sched provides the execution contexts of the pipeline: interrupt
// handlers, a serialized deferred-work queue, delayed (debounce) work and a
// self-rearming periodic timer.
//
// Interrupt handlers have type ISR and receive an IRQ value. IRQ only exposes
// operations that return without blocking, so an ISR cannot reach a blocking
// call through it. Deferred work has type Handler and always runs on the
// WorkQueue worker, one item at a time.
package sched

import "time"

// IRQ is the capability handed to an interrupt service routine.
type IRQ struct {
	// At is when the interrupt was raised.
	At time.Time
}

// ISR is an interrupt service routine. It runs to completion on the
// signalling goroutine and must not block.
type ISR func(IRQ)

// Submit requests execution of w on its work queue. It reports false when w
// was already pending, which is the expected coalescing outcome.
func (IRQ) Submit(w *Work) bool {
	return w.Submit()
}

// Reschedule cancels any pending expiry of d and arms it to fire after delay.
func (IRQ) Reschedule(d *DelayedWork, delay time.Duration) {
	d.Reschedule(delay)
}
