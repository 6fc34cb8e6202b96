package button

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/button-blinky/internal/clock"
	"github.com/sweeney/button-blinky/internal/gpio"
	"github.com/sweeney/button-blinky/internal/sched"
	"github.com/sweeney/button-blinky/internal/status"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

const debounce = 50 * time.Millisecond

type rig struct {
	clk     *clock.Fake
	wq      *sched.WorkQueue
	in      *gpio.FakeInput
	q       *Queue
	tracker *status.Tracker
	d       *Debouncer
}

func newRig(t *testing.T, capacity int) *rig {
	t.Helper()
	r := &rig{
		clk:     clock.NewFake(epoch),
		wq:      sched.NewWorkQueue(),
		in:      gpio.NewFakeInput(),
		q:       NewQueue(capacity),
		tracker: status.NewTracker(epoch, status.Config{}),
	}
	r.d = NewDebouncer(r.wq, r.clk, r.in, r.q, debounce, r.tracker)

	require.NoError(t, r.in.Configure())
	require.NoError(t, r.in.RegisterEdgeCallback(r.d.OnEdge, gpio.EdgeToActive))
	require.NoError(t, r.in.EnableInterrupt())
	return r
}

// at advances the fake clock to epoch+offset.
func (r *rig) at(offset time.Duration) {
	r.clk.Advance(epoch.Add(offset).Sub(r.clk.Now()))
}

func TestBurstOfEdgesCoalescesToOneEvaluation(t *testing.T) {
	for _, n := range []int{1, 2, 5, 20} {
		r := newRig(t, 4)
		r.in.Set(true)

		// n edges, 2ms apart, all inside one debounce window
		for i := 0; i < n; i++ {
			r.at(time.Duration(i) * 2 * time.Millisecond)
			r.in.Trigger(r.clk.Now())
		}
		r.clk.Advance(time.Second)

		runs := r.wq.RunPending()
		assert.Equal(t, 1, runs, "n=%d: evaluator runs", n)
		assert.Equal(t, 1, r.in.Reads(), "n=%d: line samples", n)
		assert.Equal(t, uint64(n), r.tracker.Counts().Edges)
		assert.Equal(t, uint64(1), r.tracker.Counts().Evaluations)
	}
}

func TestThreeEdgesScenario(t *testing.T) {
	r := newRig(t, 4)
	r.in.Set(true)

	r.at(0)
	r.in.Trigger(r.clk.Now())
	r.at(10 * time.Millisecond)
	r.in.Trigger(r.clk.Now())
	r.at(20 * time.Millisecond)
	r.in.Trigger(r.clk.Now())

	r.at(69 * time.Millisecond)
	assert.Equal(t, 0, r.wq.RunPending(), "no evaluation before t=70ms")
	assert.True(t, r.d.Pending())

	r.at(70 * time.Millisecond)
	assert.Equal(t, 1, r.wq.RunPending())
	assert.False(t, r.d.Pending())

	require.Equal(t, 1, r.q.Len())
	e, ok := r.q.TryPop()
	require.True(t, ok)
	assert.Equal(t, KindPressed, e.Kind)
	assert.Equal(t, uint64(1), e.Seq)
	assert.Equal(t, epoch.Add(70*time.Millisecond), e.At)

	_, ok = r.q.TryPop()
	assert.False(t, ok, "event delivered once")
}

func TestNoiseRejected(t *testing.T) {
	r := newRig(t, 4)

	// Active at edge time, released before the delay expires
	r.in.Press(r.clk.Now())
	r.at(30 * time.Millisecond)
	r.in.Set(false)

	r.at(100 * time.Millisecond)
	assert.Equal(t, 1, r.wq.RunPending())
	assert.Equal(t, 0, r.q.Len())
	assert.Equal(t, uint64(1), r.tracker.Counts().Rejected)
	assert.Equal(t, uint64(0), r.tracker.Counts().Presses)
}

func TestReadErrorDiscards(t *testing.T) {
	r := newRig(t, 4)
	r.in.Set(true)
	r.in.ReadError = errors.New("line gone")

	r.in.Trigger(r.clk.Now())
	r.clk.Advance(debounce)
	r.wq.RunPending()

	assert.Equal(t, 0, r.q.Len())
	assert.Equal(t, uint64(1), r.tracker.Counts().Rejected)
}

func TestSeparatedPressesProduceSeparateEvents(t *testing.T) {
	r := newRig(t, 4)

	for i := 0; i < 3; i++ {
		r.in.Press(r.clk.Now())
		r.clk.Advance(debounce)
		r.wq.RunPending()
		r.in.Set(false)
		r.clk.Advance(200 * time.Millisecond)
	}

	require.Equal(t, 3, r.q.Len())
	for i := uint64(1); i <= 3; i++ {
		e, _ := r.q.TryPop()
		assert.Equal(t, i, e.Seq)
	}
}

func TestOverloadDropsNewestAndCounts(t *testing.T) {
	r := newRig(t, 4)
	r.in.Set(true)

	for i := 0; i < 6; i++ {
		r.in.Trigger(r.clk.Now())
		r.clk.Advance(debounce)
		r.wq.RunPending()
	}

	assert.Equal(t, 4, r.q.Len())
	assert.Equal(t, uint64(2), r.q.Dropped())
	assert.Equal(t, uint64(2), r.tracker.Counts().Dropped)
	assert.Equal(t, uint64(4), r.tracker.Counts().Presses)

	for i := uint64(1); i <= 4; i++ {
		e, _ := r.q.TryPop()
		assert.Equal(t, i, e.Seq, "queued events unaffected by overflow")
	}
}

func TestEdgeDuringQueuedEvaluationRestartsWindow(t *testing.T) {
	r := newRig(t, 4)
	r.in.Set(true)

	r.in.Trigger(r.clk.Now())
	r.clk.Advance(debounce) // expiry queued, worker has not run yet

	r.in.Trigger(r.clk.Now()) // late bounce
	assert.Equal(t, 0, r.wq.RunPending(), "queued evaluation was replaced")

	r.clk.Advance(debounce)
	assert.Equal(t, 1, r.wq.RunPending())
	assert.Equal(t, 1, r.q.Len())
}

func TestEdgeDuringRunningEvaluationIsSerialized(t *testing.T) {
	clk := clock.NewFake(epoch)
	wq := sched.NewWorkQueue()
	q := NewQueue(4)

	var d *Debouncer
	in := &hookSampler{level: true}
	d = NewDebouncer(wq, clk, in, q, debounce, nil)
	in.onRead = func() {
		// A new edge arrives while the evaluator is sampling
		in.onRead = nil
		d.OnEdge(sched.IRQ{At: clk.Now()})
		clk.Advance(debounce)
	}

	d.OnEdge(sched.IRQ{At: clk.Now()})
	clk.Advance(debounce)

	// The second evaluation is queued behind the first, never concurrent
	assert.Equal(t, 2, wq.RunPending())
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 1, in.maxConcurrent, "evaluations never overlap")
}

func TestStopCancelsPendingEvaluation(t *testing.T) {
	r := newRig(t, 4)
	r.in.Set(true)
	r.in.Trigger(r.clk.Now())
	r.d.Stop()

	r.clk.Advance(time.Second)
	assert.Equal(t, 0, r.wq.RunPending())
}

type hookSampler struct {
	level         bool
	onRead        func()
	active        int
	maxConcurrent int
}

func (h *hookSampler) Read() (bool, error) {
	h.active++
	if h.active > h.maxConcurrent {
		h.maxConcurrent = h.active
	}
	defer func() { h.active-- }()
	if h.onRead != nil {
		h.onRead()
	}
	return h.level, nil
}
