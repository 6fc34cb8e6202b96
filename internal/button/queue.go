package button

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrQueueFull is returned by Push when the queue is at capacity. The new
// event is dropped; events already queued are untouched.
var ErrQueueFull = errors.New("button: event queue full")

// Queue is a fixed-capacity FIFO hand-off between the evaluator and the
// consumer. Slots are reused, so steady-state operation does not allocate.
type Queue struct {
	mu      sync.Mutex
	buf     []Event
	head    int // next read position
	count   int
	dropped uint64

	signal chan struct{} // buffered, size 1
}

// NewQueue creates a queue holding at most capacity events.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		buf:    make([]Event, capacity),
		signal: make(chan struct{}, 1),
	}
}

// Push appends e, or returns ErrQueueFull without modifying the queue.
// It never blocks.
func (q *Queue) Push(e Event) error {
	q.mu.Lock()
	if q.count == len(q.buf) {
		q.dropped++
		q.mu.Unlock()
		return ErrQueueFull
	}
	q.buf[(q.head+q.count)%len(q.buf)] = e
	q.count++
	q.mu.Unlock()

	// Non-blocking: a buffer of 1 coalesces wake-ups
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return nil
}

// TryPop removes and returns the oldest event without waiting.
func (q *Queue) TryPop() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return Event{}, false
	}
	e := q.buf[q.head]
	q.buf[q.head] = Event{}
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return e, true
}

// Pop waits up to timeout for an event. It returns false on timeout or when
// ctx is cancelled; neither is an error.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (Event, bool) {
	if e, ok := q.TryPop(); ok {
		return e, true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return Event{}, false
		case <-timer.C:
			return q.TryPop()
		case <-q.signal:
			if e, ok := q.TryPop(); ok {
				return e, true
			}
		}
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return len(q.buf)
}

// Dropped returns how many pushes were rejected because the queue was full.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
