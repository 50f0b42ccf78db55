package internal

// Scheduler defers a task to the next cooperative yield point.
type Scheduler interface {
	Schedule(task func())
}

// SchedulerFunc adapts a plain function to the Scheduler interface.
type SchedulerFunc func(task func())

func (f SchedulerFunc) Schedule(task func()) {
	f(task)
}
