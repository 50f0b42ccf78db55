package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputed(t *testing.T) {
	t.Run("evaluates once on creation", func(t *testing.T) {
		ctx := NewContext()
		a := NewCell(ctx, 2)

		c := NewComputed(ctx, func() any { return a.Get().(int) * 10 })

		assert.Equal(t, 20, c.Peek())
		assert.Equal(t, 1, c.Runs())
	})

	t.Run("recomputes when a dependency changes", func(t *testing.T) {
		ctx := NewContext()
		a, b, other := NewCell(ctx, 1), NewCell(ctx, 2), NewCell(ctx, 0)

		sum := NewComputed(ctx, func() any { return a.Get().(int) + b.Get().(int) })
		notified := 0
		sum.Subscribe(func(any) { notified++ })

		other.Set(1)
		assert.Equal(t, 1, sum.Runs())

		a.Set(10)
		b.Set(20)
		assert.Equal(t, 30, sum.Get())
		assert.Equal(t, 3, sum.Runs())
		assert.Equal(t, 2, notified)
	})

	t.Run("shallow equal results are swallowed", func(t *testing.T) {
		ctx := NewContext()
		a := NewCell(ctx, 1)

		type point struct{ X, Y int }
		c := NewComputed(ctx, func() any {
			return &point{X: a.Get().(int) / 10}
		})
		first := c.Peek()

		notified := 0
		c.Subscribe(func(any) { notified++ })

		a.Set(5)
		assert.Same(t, first, c.Peek())
		assert.Equal(t, 0, notified)

		a.Set(15)
		assert.NotSame(t, first, c.Peek())
		assert.Equal(t, 1, notified)
	})

	t.Run("initial value is seeded without notifying", func(t *testing.T) {
		ctx := NewContext()
		c := NewComputed(ctx, func() any { return "x" })

		assert.Equal(t, 0, c.cell.Subscribers())
		assert.Equal(t, "x", c.cell.initial)
	})
}
