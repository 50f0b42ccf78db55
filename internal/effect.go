package internal

// Effect runs a tracked side effect through the batcher: first on the next
// flush after creation, then once per flush after any of its dependencies
// changed.
type Effect struct {
	ctx     *Context
	batcher *Batcher
	tracker *Tracker

	// a run is already waiting in the batcher
	queued   bool
	disposed bool
}

func NewEffect(ctx *Context, batcher *Batcher, fn func()) *Effect {
	e := &Effect{
		ctx:     ctx,
		batcher: batcher,
	}
	e.tracker = NewDeferredTracker(fn, func(*Tracker) { e.schedule() })

	e.schedule()

	return e
}

func (e *Effect) schedule() {
	if e.queued || e.disposed {
		return
	}

	e.queued = true
	e.batcher.AddTask(e.run)
}

func (e *Effect) run() {
	e.queued = false
	if e.disposed {
		return
	}

	e.ctx.Track(e.tracker)
}

// Dispose stops any further run, including one already queued.
func (e *Effect) Dispose() {
	e.disposed = true
}
