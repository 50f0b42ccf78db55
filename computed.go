package vortex

import "github.com/AnatoleLucet/vortex/internal"

// Computed is a read-only value derived from other units (it's a memo).
type Computed[T any] struct {
	computed *internal.Computed
}

// NewComputed creates a computed value bound to the store being set up.
// compute runs once right away, then again each time a unit it read changes.
// Subscribers are only notified when the result is not shallowly equal to the
// previous one.
func NewComputed[T any](api *API, compute func() T) *Computed[T] {
	return &Computed[T]{
		internal.NewComputed(api.ctx, func() any { return compute() }),
	}
}

// Get returns the cached value, tracking it if called from a computed or an effect.
func (c *Computed[T]) Get() T {
	return as[T](c.computed.Get())
}

// Peek returns the cached value without tracking it.
func (c *Computed[T]) Peek() T {
	return as[T](c.computed.Peek())
}

// Subscribe calls cb with the new value after every change.
func (c *Computed[T]) Subscribe(cb func(T)) (unsubscribe func()) {
	return c.computed.Subscribe(func(v any) { cb(as[T](v)) })
}

func (c *Computed[T]) Kind() Kind { return KindComputed }

func (c *Computed[T]) value() any { return c.computed.Peek() }

func (c *Computed[T]) watch(fn func()) func() {
	return c.computed.Subscribe(func(any) { fn() })
}
