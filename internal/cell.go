package internal

import "slices"

// Cell is a mutable observable value. Reads made while a tracker is active
// subscribe that tracker, writes notify every subscriber synchronously.
type Cell struct {
	ctx *Context

	value   any
	initial any

	// in subscription order, trackers appear at most once
	subs     []*subscription
	trackers map[*Tracker]struct{}
}

type subscription struct {
	tracker  *Tracker
	callback func(any)

	removed bool
}

func NewCell(ctx *Context, initial any) *Cell {
	return &Cell{
		ctx:      ctx,
		value:    initial,
		initial:  initial,
		trackers: make(map[*Tracker]struct{}),
	}
}

// Get returns the current value, subscribing the active tracker if any.
func (c *Cell) Get() any {
	if t := c.ctx.Active(); t != nil {
		c.track(t)
	}

	return c.value
}

// Peek returns the current value without tracking.
func (c *Cell) Peek() any {
	return c.value
}

// Set replaces the value and notifies subscribers, unless v is identical to
// the current value.
func (c *Cell) Set(v any) {
	if Identical(c.value, v) {
		return
	}

	c.value = v
	c.notify()
}

// Update sets the value returned by fn applied to the current value.
func (c *Cell) Update(fn func(prev any) any) {
	c.Set(fn(c.value))
}

// Reset restores the value the cell was created with.
func (c *Cell) Reset() {
	c.Set(c.initial)
}

// Subscribe registers cb to be called with the new value after each change.
// The returned function removes this registration and is safe to call twice.
func (c *Cell) Subscribe(cb func(any)) func() {
	sub := &subscription{callback: cb}
	c.subs = append(c.subs, sub)

	return func() { c.remove(sub) }
}

// Subscribers returns the number of live subscriptions, trackers included.
func (c *Cell) Subscribers() int {
	return len(c.subs)
}

func (c *Cell) track(t *Tracker) {
	if _, ok := c.trackers[t]; ok {
		return
	}

	c.trackers[t] = struct{}{}
	c.subs = append(c.subs, &subscription{tracker: t})
}

func (c *Cell) remove(sub *subscription) {
	if sub.removed {
		return
	}
	sub.removed = true

	if i := slices.Index(c.subs, sub); i != -1 {
		c.subs = slices.Delete(c.subs, i, i+1)
	}
}

func (c *Cell) notify() {
	// clonning to avoid mutation during iteration
	subs := slices.Clone(c.subs)

	for _, sub := range subs {
		if sub.removed {
			continue
		}

		if sub.tracker != nil {
			sub.tracker.Invalidate()
		} else {
			sub.callback(c.value)
		}
	}
}
