package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repo struct{ name string }

func TestContainer(t *testing.T) {
	t.Run("register and get", func(t *testing.T) {
		c := New()
		c.Register("repo", &repo{name: "users"})

		r, err := Get[*repo](c, "repo")
		require.NoError(t, err)
		assert.Equal(t, "users", r.name)
	})

	t.Run("missing key names the key", func(t *testing.T) {
		c := New()

		_, err := Get[*repo](c, "repo")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorContains(t, err, `"repo"`)
	})

	t.Run("nil dependency counts as missing", func(t *testing.T) {
		c := New()
		c.Register("repo", nil)

		_, err := c.Lookup("repo")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("wrong type", func(t *testing.T) {
		c := New()
		c.Register("repo", "not a repo")

		_, err := Get[*repo](c, "repo")
		assert.ErrorIs(t, err, ErrWrongType)
	})

	t.Run("must get panics", func(t *testing.T) {
		c := New()

		assert.PanicsWithError(t, `dependency "repo": dependency not found`, func() {
			MustGet[*repo](c, "repo")
		})
	})

	t.Run("replace", func(t *testing.T) {
		c := New()
		c.Register("n", 1)
		c.Register("n", 2)

		assert.Equal(t, 2, MustGet[int](c, "n"))
		assert.Equal(t, []string{"n"}, c.Keys())
	})
}
