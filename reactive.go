package vortex

import (
	"encoding/json"
	"fmt"

	"github.com/AnatoleLucet/vortex/internal"
)

// Reactive is a mutable observable value.
type Reactive[T any] struct {
	cell *internal.Cell
}

// NewReactive creates a reactive cell bound to the store being set up.
func NewReactive[T any](api *API, initial T) *Reactive[T] {
	return &Reactive[T]{
		internal.NewCell(api.ctx, initial),
	}
}

// Get returns the current value, tracking it if called from a computed or an effect.
func (r *Reactive[T]) Get() T {
	return as[T](r.cell.Get())
}

// Peek returns the current value without tracking it.
func (r *Reactive[T]) Peek() T {
	return as[T](r.cell.Peek())
}

// Set replaces the value. Subscribers are notified synchronously, unless the
// new value is identical to the current one.
func (r *Reactive[T]) Set(v T) {
	r.cell.Set(v)
}

// Update sets the value computed from the current one.
func (r *Reactive[T]) Update(fn func(prev T) T) {
	r.cell.Update(func(prev any) any { return fn(as[T](prev)) })
}

// Reset restores the initial value.
func (r *Reactive[T]) Reset() {
	r.cell.Reset()
}

// Subscribe calls cb with the new value after every change.
func (r *Reactive[T]) Subscribe(cb func(T)) (unsubscribe func()) {
	return r.cell.Subscribe(func(v any) { cb(as[T](v)) })
}

func (r *Reactive[T]) Kind() Kind { return KindReactive }

func (r *Reactive[T]) PersistValue() any { return r.Peek() }

func (r *Reactive[T]) RestoreJSON(data []byte) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("restore reactive: %w", err)
	}

	r.Set(v)
	return nil
}

func (r *Reactive[T]) value() any { return r.cell.Peek() }

func (r *Reactive[T]) watch(fn func()) func() {
	return r.cell.Subscribe(func(any) { fn() })
}
