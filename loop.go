package vortex

import (
	"context"

	"github.com/AnatoleLucet/vortex/internal"
)

// Scheduler defers a task to the next cooperative yield point.
// Stores use it to run their batched flushes, queries use it to hand their
// results back, so implementations used with queries must accept Schedule
// calls from any goroutine.
type Scheduler interface {
	Schedule(task func())
}

// SchedulerFunc adapts a function to the Scheduler interface,
// e.g. to plug a store into a host's own run loop.
type SchedulerFunc = internal.SchedulerFunc

// ErrReentrantRun is returned by Loop.Run and Loop.Wait when called from
// within one of the loop's tasks.
var ErrReentrantRun = internal.ErrReentrantRun

// Loop is a cooperative run loop, the default Scheduler of a store.
// Tasks can be scheduled from any goroutine, they run on the goroutine that
// drains the loop.
type Loop struct {
	loop *internal.Loop
}

// NewLoop creates a standalone loop.
func NewLoop() *Loop {
	return &Loop{internal.NewLoop()}
}

// DefaultLoop returns the loop bound to the calling goroutine.
// Stores defined without an explicit scheduler use it. The loop lives as
// long as the process, so short-lived goroutines should pass their own
// Scheduler instead.
func DefaultLoop() *Loop {
	return &Loop{internal.DefaultLoop()}
}

// Schedule queues a task. Safe for concurrent use.
func (l *Loop) Schedule(task func()) { l.loop.Schedule(task) }

// Drain runs every queued task, including the ones they queue, and returns
// how many ran. Useful as a manual tick in tests and embedders.
func (l *Loop) Drain() int { return l.loop.Drain() }

// Run processes tasks as they are scheduled until ctx is done.
func (l *Loop) Run(ctx context.Context) error { return l.loop.Run(ctx) }

// Wait processes tasks until done is closed, then drains what is left.
func (l *Loop) Wait(ctx context.Context, done <-chan struct{}) error {
	return l.loop.Wait(ctx, done)
}

// Len returns the number of queued tasks.
func (l *Loop) Len() int { return l.loop.Len() }
