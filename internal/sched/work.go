package sched

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Handler is a unit of deferred work.
type Handler func()

// State is the lifecycle state of a Work item.
type State int

const (
	StateIdle State = iota
	StatePending
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Work is a deferred work item bound to one WorkQueue. At most one instance
// of an item is ever queued: submitting a pending item is a no-op.
type Work struct {
	name    string
	q       *WorkQueue
	handler Handler

	// guarded by q.mu
	pending bool
	running bool
	runs    uint64
}

// WorkQueue runs submitted Work items one at a time, in submission order.
// Submit never blocks, so items may be submitted from an ISR.
type WorkQueue struct {
	mu     sync.Mutex
	items  []*Work
	signal chan struct{} // buffered, size 1

	exec sync.Mutex // held while a handler runs
}

// NewWorkQueue creates an empty queue. Items only execute once Run is
// started or RunPending is called.
func NewWorkQueue() *WorkQueue {
	return &WorkQueue{signal: make(chan struct{}, 1)}
}

// NewWork creates a work item that runs h on q.
func (q *WorkQueue) NewWork(name string, h Handler) *Work {
	return &Work{name: name, q: q, handler: h}
}

// Name returns the item's name.
func (w *Work) Name() string {
	return w.name
}

// Submit queues w unless it is already pending. Submitting while the handler
// is running queues exactly one further execution.
func (w *Work) Submit() bool {
	q := w.q
	q.mu.Lock()
	if w.pending {
		q.mu.Unlock()
		return false
	}
	w.pending = true
	q.items = append(q.items, w)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Cancel removes w from the queue if it is pending. A running handler is not
// interrupted. It reports whether a pending execution was removed.
func (w *Work) Cancel() bool {
	q := w.q
	q.mu.Lock()
	defer q.mu.Unlock()

	if !w.pending {
		return false
	}
	for i, item := range q.items {
		if item == w {
			q.items = append(q.items[:i], q.items[i+1:]...)
			break
		}
	}
	w.pending = false
	return true
}

// State reports whether w is idle, pending or running. A running item that
// has been resubmitted reports pending.
func (w *Work) State() State {
	q := w.q
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case w.pending:
		return StatePending
	case w.running:
		return StateRunning
	}
	return StateIdle
}

// Runs returns how many times the handler has completed.
func (w *Work) Runs() uint64 {
	q := w.q
	q.mu.Lock()
	defer q.mu.Unlock()
	return w.runs
}

// Len returns the number of queued items.
func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Run executes queued items until ctx is cancelled.
func (q *WorkQueue) Run(ctx context.Context) error {
	for {
		for q.runOne() {
			if ctx.Err() != nil {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-q.signal:
		}
	}
}

// RunPending executes queued items on the calling goroutine until the queue
// is empty and returns how many handlers ran.
func (q *WorkQueue) RunPending() int {
	n := 0
	for q.runOne() {
		n++
	}
	return n
}

func (q *WorkQueue) runOne() bool {
	q.exec.Lock()
	defer q.exec.Unlock()

	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return false
	}
	w := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	w.pending = false
	w.running = true
	q.mu.Unlock()

	q.invoke(w)

	q.mu.Lock()
	w.running = false
	w.runs++
	q.mu.Unlock()
	return true
}

// invoke runs the handler, keeping the worker alive if it panics.
func (q *WorkQueue) invoke(w *Work) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"work":  w.name,
				"panic": r,
			}).Error("work handler panicked")
		}
	}()
	w.handler()
}
