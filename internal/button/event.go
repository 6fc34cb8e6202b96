// Package button turns raw edge interrupts from a push button into debounced
// press events and delivers them, in order, to a consumer task.
//
// The pipeline is:
//
//	edge ISR -> DelayedWork (re-armed per edge) -> evaluator -> Queue -> Consumer
//
// The evaluator runs on the work queue, so at most one evaluation per button
// is in flight at any time.
package button

import "time"

// Kind tags an Event.
type Kind int

const (
	// KindPressed means the button was confirmed pressed after debounce.
	KindPressed Kind = iota
)

func (k Kind) String() string {
	if k == KindPressed {
		return "PRESSED"
	}
	return "UNKNOWN"
}

// Event is a confirmed button press. It is a value type.
type Event struct {
	Kind Kind
	Seq  uint64    // 1-based, increasing per produced event
	At   time.Time // when the evaluator confirmed the press
}
