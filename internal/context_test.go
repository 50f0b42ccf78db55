package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContext(t *testing.T) {
	t.Run("nested tracking restores the active tracker", func(t *testing.T) {
		ctx := NewContext()
		log := []string{}

		var outer, inner *Tracker
		inner = NewTracker(ctx, func() {
			log = append(log, "inner active", boolString(ctx.Active() == inner))
		})
		outer = NewTracker(ctx, func() {
			log = append(log, "outer active", boolString(ctx.Active() == outer))
			ctx.Track(inner)
			log = append(log, "outer again", boolString(ctx.Active() == outer))
		})

		ctx.Track(outer)

		assert.Nil(t, ctx.Active())
		assert.Equal(t, []string{
			"outer active", "true",
			"inner active", "true",
			"outer again", "true",
		}, log)
	})

	t.Run("panicking tracker still pops", func(t *testing.T) {
		ctx := NewContext()
		tr := NewTracker(ctx, func() { panic("boom") })

		assert.Panics(t, func() { ctx.Track(tr) })
		assert.Equal(t, 0, ctx.Depth())
	})

	t.Run("untrack hides the active tracker", func(t *testing.T) {
		ctx := NewContext()

		var seen *Tracker
		tr := NewTracker(ctx, func() {
			ctx.Untrack(func() { seen = ctx.Active() })
			assert.Equal(t, 1, ctx.Depth())
		})
		ctx.Track(tr)

		assert.Nil(t, seen)
	})
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
