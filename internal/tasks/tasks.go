// Package tasks runs the long-lived tasks of the process and lets them be
// enumerated for introspection.
package tasks

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/button-blinky/internal/report"
)

// Entry is a task body. It runs until ctx is cancelled or it fails.
type Entry func(ctx context.Context) error

// Info describes a live task.
type Info struct {
	ID        uuid.UUID
	Name      string
	StackSize int // advisory budget in bytes
	Priority  int
	Started   time.Time
}

type taskKey struct{}

// Current returns the task running on ctx, if any.
func Current(ctx context.Context) (Info, bool) {
	info, ok := ctx.Value(taskKey{}).(Info)
	return info, ok
}

// Registry starts tasks and tracks the ones still running. The first task
// to return an error cancels the context of all others.
type Registry struct {
	ctx   context.Context
	group *errgroup.Group

	mu   sync.RWMutex
	live []Info // spawn order
}

// NewRegistry creates a Registry whose tasks run under ctx.
func NewRegistry(ctx context.Context) *Registry {
	group, gctx := errgroup.WithContext(ctx)
	return &Registry{ctx: gctx, group: group}
}

// Context returns the context shared by all tasks.
func (r *Registry) Context() context.Context {
	return r.ctx
}

// Spawn starts entry on its own goroutine and registers it as live until it
// returns.
func (r *Registry) Spawn(name string, stackSize, priority int, entry Entry) Info {
	info := Info{
		ID:        uuid.New(),
		Name:      name,
		StackSize: stackSize,
		Priority:  priority,
		Started:   time.Now(),
	}

	r.mu.Lock()
	r.live = append(r.live, info)
	r.mu.Unlock()

	log.WithFields(log.Fields{
		"task":     name,
		"id":       info.ID,
		"priority": priority,
	}).Debug("task started")

	ctx := context.WithValue(r.ctx, taskKey{}, info)
	r.group.Go(func() error {
		defer r.remove(info.ID)
		if err := entry(ctx); err != nil {
			return fmt.Errorf("task %s: %w", name, err)
		}
		return nil
	})
	return info
}

func (r *Registry) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, info := range r.live {
		if info.ID == id {
			r.live = append(r.live[:i], r.live[i+1:]...)
			log.WithField("task", info.Name).Debug("task exited")
			return
		}
	}
}

// Foreach calls fn for every live task in spawn order. fn sees a snapshot
// and may call back into the registry.
func (r *Registry) Foreach(fn func(Info)) {
	r.mu.RLock()
	live := append([]Info(nil), r.live...)
	r.mu.RUnlock()

	for _, info := range live {
		fn(info)
	}
}

// Len returns the number of live tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.live)
}

// Wait blocks until every task has returned and reports the first error.
func (r *Registry) Wait() error {
	return r.group.Wait()
}

// Report renders the list of live tasks.
func (r *Registry) Report() string {
	var b strings.Builder
	b.WriteString("Tasks:\n")
	r.Foreach(func(info Info) {
		fmt.Fprintf(&b, "\t%s\n", info.Name)
	})
	return b.String()
}

// Dump sends the list of live tasks to sink. Each call renders its own
// snapshot, so concurrent or repeated dumps do not share state.
func (r *Registry) Dump(sink report.Sink) error {
	return sink.Report(r.Report())
}

// StackReport describes the stack budget of info. Goroutine stacks grow on
// demand, so only the budget and the goroutine count are meaningful.
func StackReport(info Info) string {
	return fmt.Sprintf("Stack budget of %s: %d bytes\nGoroutines: %d\n",
		info.Name, info.StackSize, runtime.NumGoroutine())
}
