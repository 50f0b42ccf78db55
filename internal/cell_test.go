package internal

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCell(t *testing.T) {
	t.Run("tracks reads once per tracker", func(t *testing.T) {
		ctx := NewContext()
		cell := NewCell(ctx, 0)
		log := []string{}

		tr := NewTracker(ctx, func() {
			log = append(log, fmt.Sprintf("run %v", cell.Get()))
			cell.Get()
		})
		ctx.Track(tr)

		assert.Equal(t, 1, cell.Subscribers())

		cell.Set(1)
		assert.Equal(t, []string{"run 0", "run 1"}, log)
		assert.Equal(t, 1, cell.Subscribers())
	})

	t.Run("peek does not track", func(t *testing.T) {
		ctx := NewContext()
		cell := NewCell(ctx, 0)

		ctx.Track(NewTracker(ctx, func() { cell.Peek() }))

		assert.Equal(t, 0, cell.Subscribers())
	})

	t.Run("identical writes are ignored", func(t *testing.T) {
		ctx := NewContext()
		m := map[string]int{"a": 1}
		cell := NewCell(ctx, m)
		count := 0

		cell.Subscribe(func(any) { count++ })

		cell.Set(m)
		cell.Set(map[string]int{"a": 1})
		cell.Set(nil)
		cell.Set(nil)

		assert.Equal(t, 2, count)
	})

	t.Run("writes during notification", func(t *testing.T) {
		ctx := NewContext()
		cell := NewCell(ctx, 0)
		log := []string{}

		cell.Subscribe(func(v any) {
			log = append(log, fmt.Sprintf("first %v", v))
			if v.(int) < 2 {
				cell.Update(func(prev any) any { return prev.(int) + 1 })
			}
		})
		cell.Subscribe(func(v any) { log = append(log, fmt.Sprintf("second %v", v)) })

		cell.Set(1)

		assert.Equal(t, []string{
			"first 1",
			"first 2",
			"second 2",
			"second 2",
		}, log)
	})

	t.Run("reset", func(t *testing.T) {
		cell := NewCell(NewContext(), "a")
		count := 0
		cell.Subscribe(func(any) { count++ })

		cell.Reset()
		cell.Set("b")
		cell.Reset()

		assert.Equal(t, "a", cell.Peek())
		assert.Equal(t, 2, count)
	})
}
