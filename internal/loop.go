package internal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// ErrReentrantRun is returned when Run or Wait is called from a task running
// on the same loop.
var ErrReentrantRun = errors.New("vortex: cannot run the loop from within one of its tasks")

// Loop is a cooperative run loop. Tasks may be scheduled from any goroutine,
// but they only ever run on the goroutine that drains the loop.
type Loop struct {
	mu    sync.Mutex
	queue *TaskQueue

	// wakes up a blocked Run or Wait, buffered so a Schedule is never lost
	wake chan struct{}

	// goroutine currently draining, 0 when idle
	owner atomic.Int64
}

func NewLoop() *Loop {
	return &Loop{
		queue: NewTaskQueue(),
		wake:  make(chan struct{}, 1),
	}
}

// Schedule queues task to run on the next drain. Safe for concurrent use.
func (l *Loop) Schedule(task func()) {
	l.mu.Lock()
	l.queue.Enqueue(task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Drain runs queued tasks, including the ones they schedule, until the queue
// is empty, and returns how many ran. A Drain issued from within a task is a
// no-op: the outer drain picks the new tasks up.
func (l *Loop) Drain() int {
	gid := goid.Get()
	if l.owner.Load() == gid || !l.owner.CompareAndSwap(0, gid) {
		return 0
	}
	defer l.owner.Store(0)

	ran := 0
	for {
		task, ok := l.next()
		if !ok {
			return ran
		}

		task()
		ran++
	}
}

// Run drains the loop each time work is scheduled, until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	return l.Wait(ctx, nil)
}

// Wait drains the loop until done is closed (and the tasks it left behind
// have run), or ctx is done.
func (l *Loop) Wait(ctx context.Context, done <-chan struct{}) error {
	if l.owner.Load() == goid.Get() {
		return ErrReentrantRun
	}

	for {
		l.Drain()

		select {
		case <-done:
			l.Drain()
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Len returns the number of tasks waiting to run.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.queue.Len()
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.queue.Dequeue()
}
