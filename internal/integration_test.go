package internal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/button-blinky/internal/blink"
	"github.com/sweeney/button-blinky/internal/button"
	"github.com/sweeney/button-blinky/internal/clock"
	"github.com/sweeney/button-blinky/internal/gpio"
	"github.com/sweeney/button-blinky/internal/report"
	"github.com/sweeney/button-blinky/internal/sched"
	"github.com/sweeney/button-blinky/internal/status"
	"github.com/sweeney/button-blinky/internal/tasks"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type pipeline struct {
	clk     *clock.Fake
	wq      *sched.WorkQueue
	btn     *gpio.FakeInput
	led     *gpio.FakeOutput
	events  *button.Queue
	deb     *button.Debouncer
	blinker *blink.Toggler
	tracker *status.Tracker
}

// newPipeline wires the parts by hand and drives the worker synchronously
// with RunPending, so the whole flow is deterministic.
func newPipeline(t *testing.T, depth int) *pipeline {
	t.Helper()
	p := &pipeline{
		clk: clock.NewFake(epoch),
		wq:  sched.NewWorkQueue(),
		btn: gpio.NewFakeInput(),
		led: gpio.NewFakeOutput(),
	}
	p.tracker = status.NewTracker(epoch, status.Config{DebounceMs: 50, BlinkMs: 500, QueueDepth: depth})
	p.events = button.NewQueue(depth)
	p.deb = button.NewDebouncer(p.wq, p.clk, p.btn, p.events, 50*time.Millisecond, p.tracker)

	require.NoError(t, p.btn.Configure())
	require.NoError(t, p.btn.RegisterEdgeCallback(p.deb.OnEdge, gpio.EdgeToActive))
	require.NoError(t, p.btn.EnableInterrupt())

	require.NoError(t, p.led.Configure(true))
	p.blinker = blink.New(p.wq, p.clk, p.led, true, p.tracker)
	return p
}

// step advances the clock in 1 ms increments, draining the worker after
// each one the way an idle system workqueue would.
func (p *pipeline) step(d time.Duration) {
	for i := time.Duration(0); i < d; i += time.Millisecond {
		p.clk.Advance(time.Millisecond)
		p.wq.RunPending()
	}
}

// TestIntegrationFullFlow exercises press, bounce, release and blink together.
func TestIntegrationFullFlow(t *testing.T) {
	p := newPipeline(t, 4)
	p.blinker.Start(500 * time.Millisecond)

	// Bouncy press: three edges 10 ms apart
	p.btn.Press(p.clk.Now())
	p.step(10 * time.Millisecond)
	p.btn.Press(p.clk.Now())
	p.step(10 * time.Millisecond)
	p.btn.Press(p.clk.Now())
	p.step(49 * time.Millisecond)
	assert.Equal(t, 0, p.events.Len(), "no event before the quiet period ends")

	p.step(time.Millisecond)
	require.Equal(t, 1, p.events.Len())
	ev, ok := p.events.TryPop()
	require.True(t, ok)
	assert.Equal(t, epoch.Add(70*time.Millisecond), ev.At)
	assert.Equal(t, uint64(1), ev.Seq)

	// Glitch: edge, then released before the evaluation
	p.btn.Press(p.clk.Now())
	p.btn.Set(false)
	p.step(100 * time.Millisecond)
	assert.Equal(t, 0, p.events.Len())

	// Run to two blink periods
	p.step(time.Second - p.clk.Now().Sub(epoch))
	assert.Equal(t, []bool{false, true}, p.led.Writes())

	c := p.tracker.Counts()
	assert.Equal(t, uint64(4), c.Edges)
	assert.Equal(t, uint64(2), c.Evaluations)
	assert.Equal(t, uint64(1), c.Presses)
	assert.Equal(t, uint64(1), c.Rejected)
	assert.Equal(t, uint64(2), c.Toggles)
}

// TestIntegrationOverloadDropsNewest fills the queue with separate presses
// while nothing consumes it.
func TestIntegrationOverloadDropsNewest(t *testing.T) {
	p := newPipeline(t, 2)

	for i := 0; i < 4; i++ {
		p.btn.Press(p.clk.Now())
		p.step(60 * time.Millisecond)
	}

	assert.Equal(t, 2, p.events.Len())
	assert.Equal(t, uint64(2), p.events.Dropped())

	first, _ := p.events.TryPop()
	second, _ := p.events.TryPop()
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
}

// TestIntegrationConsumerReport delivers one event to a consumer task and
// checks the task report it produces.
func TestIntegrationConsumerReport(t *testing.T) {
	p := newPipeline(t, 4)
	rec := report.NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	reg := tasks.NewRegistry(ctx)
	consumer := button.NewConsumer(p.events, 100*time.Millisecond, func(button.Event) error {
		return reg.Dump(rec)
	}, p.tracker)
	reg.Spawn("button", 1024, 7, consumer.Run)

	p.btn.Press(p.clk.Now())
	p.step(50 * time.Millisecond)

	require.Eventually(t, func() bool { return len(rec.Reports()) == 1 }, time.Second, time.Millisecond)
	got := rec.Reports()[0]
	assert.True(t, strings.HasPrefix(got, "Tasks:\n"))
	assert.Contains(t, got, "\tbutton\n")

	cancel()
	require.NoError(t, reg.Wait())
	assert.Equal(t, uint64(1), p.tracker.Counts().Reports)
}
