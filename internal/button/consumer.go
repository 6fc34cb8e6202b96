package button

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/button-blinky/internal/status"
)

// Action is performed once per delivered event.
type Action func(Event) error

// Consumer is the task that drains the event queue.
type Consumer struct {
	q       *Queue
	wait    time.Duration
	action  Action
	tracker *status.Tracker
}

// NewConsumer creates a consumer that waits at most wait per Pop so the task
// stays responsive to cancellation. tracker may be nil.
func NewConsumer(q *Queue, wait time.Duration, action Action, tracker *status.Tracker) *Consumer {
	return &Consumer{q: q, wait: wait, action: action, tracker: tracker}
}

// Run delivers events until ctx is cancelled. It never returns an error:
// action failures are logged and the loop continues.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if ev, ok := c.q.Pop(ctx, c.wait); ok {
			c.handle(ev)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) handle(ev Event) {
	if err := c.perform(ev); err != nil {
		c.tracker.ReportFailed()
		log.WithError(err).WithField("seq", ev.Seq).Debug("button action failed")
		return
	}
	c.tracker.Reported()
}

// perform runs the action, converting a panic into an error.
func (c *Consumer) perform(ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	return c.action(ev)
}
