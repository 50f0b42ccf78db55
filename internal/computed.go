package internal

// Computed is a read-only cell derived from other cells. It recomputes each
// time one of the cells it read changes, and only republishes when the new
// value is not shallowly equal to the cached one.
type Computed struct {
	cell    *Cell
	tracker *Tracker

	compute func() any
	seeded  bool

	// number of times compute ran
	runs int
}

func NewComputed(ctx *Context, compute func() any) *Computed {
	c := &Computed{
		cell:    NewCell(ctx, nil),
		compute: compute,
	}
	c.tracker = NewTracker(ctx, c.update)

	// first run seeds the cache and links the initial dependencies
	ctx.Track(c.tracker)

	return c
}

func (c *Computed) update() {
	value := c.compute()
	c.runs++

	if !c.seeded {
		c.seeded = true
		c.cell.value = value
		c.cell.initial = value
		return
	}

	if Shallow(c.cell.value, value) {
		return
	}

	c.cell.Set(value)
}

func (c *Computed) Get() any {
	return c.cell.Get()
}

func (c *Computed) Peek() any {
	return c.cell.Peek()
}

func (c *Computed) Subscribe(cb func(any)) func() {
	return c.cell.Subscribe(cb)
}

// Runs returns how many times the compute function has been evaluated.
func (c *Computed) Runs() int {
	return c.runs
}
