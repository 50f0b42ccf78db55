// Package di is a small keyed registry used to hand services to store setup
// functions.
package di

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotFound is returned when no dependency is registered under a key.
	ErrNotFound = errors.New("dependency not found")

	// ErrWrongType is returned by Get when the dependency has another type.
	ErrWrongType = errors.New("dependency has unexpected type")
)

type Container struct {
	mu   sync.RWMutex
	deps map[string]any
}

func New() *Container {
	return &Container{
		deps: make(map[string]any),
	}
}

// Register stores dep under key, replacing any previous value.
func (c *Container) Register(key string, dep any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deps[key] = dep
}

// Lookup returns the dependency registered under key.
func (c *Container) Lookup(key string) (any, error) {
	c.mu.RLock()
	dep, ok := c.deps[key]
	c.mu.RUnlock()

	if !ok || dep == nil {
		return nil, fmt.Errorf("dependency %q: %w", key, ErrNotFound)
	}

	return dep, nil
}

// Keys returns the registered keys, in no particular order.
func (c *Container) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.deps))
	for k := range c.deps {
		keys = append(keys, k)
	}

	return keys
}

// Get returns the dependency registered under key as a T.
func Get[T any](c *Container, key string) (T, error) {
	var zero T

	dep, err := c.Lookup(key)
	if err != nil {
		return zero, err
	}

	v, ok := dep.(T)
	if !ok {
		return zero, fmt.Errorf("dependency %q is %T: %w", key, dep, ErrWrongType)
	}

	return v, nil
}

// MustGet is like Get but panics when the dependency is missing or mistyped.
func MustGet[T any](c *Container, key string) T {
	v, err := Get[T](c, key)
	if err != nil {
		panic(err)
	}

	return v
}
