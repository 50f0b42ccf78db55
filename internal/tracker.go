package internal

// Tracker is a unit of tracked work: its reads become dependencies, and it is
// invalidated whenever one of them changes. Trackers are compared by pointer.
type Tracker struct {
	fn func()

	// called when a dependency changes, defaults to re-tracking fn
	invalidate func()
}

// NewTracker returns a tracker that re-runs fn under ctx on every invalidation.
func NewTracker(ctx *Context, fn func()) *Tracker {
	t := &Tracker{fn: fn}
	t.invalidate = func() { ctx.Track(t) }

	return t
}

// NewDeferredTracker returns a tracker whose invalidations are handed to
// onInvalidate instead of re-running fn in place.
func NewDeferredTracker(fn func(), onInvalidate func(*Tracker)) *Tracker {
	t := &Tracker{fn: fn}
	t.invalidate = func() { onInvalidate(t) }

	return t
}

func (t *Tracker) Invalidate() {
	t.invalidate()
}
