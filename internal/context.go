package internal

// Context attributes cell reads to the tracker currently executing.
// Each store owns exactly one.
type Context struct {
	// stack of trackers being executed, the last one is the active one
	stack []*Tracker
}

func NewContext() *Context {
	return &Context{
		stack: make([]*Tracker, 0, 4),
	}
}

// Track runs the tracker's body with the tracker marked as active.
// Nested calls restore the previous active tracker when they return.
func (c *Context) Track(t *Tracker) {
	c.stack = append(c.stack, t)
	defer func() {
		c.stack[len(c.stack)-1] = nil
		c.stack = c.stack[:len(c.stack)-1]
	}()

	t.fn()
}

// Untrack runs fn without any active tracker.
func (c *Context) Untrack(fn func()) {
	prev := c.stack
	c.stack = nil
	defer func() { c.stack = prev }()

	fn()
}

// Active returns the tracker on top of the stack, or nil.
func (c *Context) Active() *Tracker {
	if len(c.stack) == 0 {
		return nil
	}

	return c.stack[len(c.stack)-1]
}

// Depth returns how many trackers are currently nested.
func (c *Context) Depth() int {
	return len(c.stack)
}
