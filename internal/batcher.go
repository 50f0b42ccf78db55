package internal

// Batcher collects tasks requested during a turn and runs them together in a
// single deferred flush.
type Batcher struct {
	scheduler Scheduler

	pending []func()

	// true while a flush is waiting on the scheduler
	scheduled bool

	// incremented each time a flush runs
	flushes int
}

func NewBatcher(scheduler Scheduler) *Batcher {
	return &Batcher{
		scheduler: scheduler,
	}
}

// AddTask queues task for the next flush, scheduling one if none is pending.
func (b *Batcher) AddTask(task func()) {
	b.pending = append(b.pending, task)

	if !b.scheduled {
		b.scheduled = true
		b.scheduler.Schedule(b.flush)
	}
}

func (b *Batcher) flush() {
	// tasks added while flushing belong to the next flush
	tasks := b.pending
	b.pending = nil
	b.scheduled = false
	b.flushes++

	for _, task := range tasks {
		task()
	}
}

// Pending returns the number of tasks waiting for the next flush.
func (b *Batcher) Pending() int {
	return len(b.pending)
}

// Flushes returns how many flushes have run so far.
func (b *Batcher) Flushes() int {
	return b.flushes
}
