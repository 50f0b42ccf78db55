// Package vortex is a fine-grained reactive state container: stores built
// from reactive, computed and query units, published as snapshots.
package vortex

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/AnatoleLucet/vortex/devtools"
	"github.com/AnatoleLucet/vortex/di"
	"github.com/AnatoleLucet/vortex/internal"
)

// Listener is called with the new and the previously published snapshots.
type Listener func(next, prev Snapshot)

// Plugin augments a store right after its construction. The returned
// cleanup, if any, runs on Dispose.
type Plugin[S any] func(s *Store[S]) (cleanup func())

type Options[S any] struct {
	// Name identifies the store in devtools, logs and metrics.
	// Defaults to "unknown_" followed by the creation time.
	Name string

	Plugins []Plugin[S]

	// DI is handed to the setup function through API.DI.
	DI *di.Container

	// Devtools receives an init event on construction and an update event
	// on every published change. nil disables it.
	Devtools devtools.Sink

	// Scheduler runs the store flushes. Defaults to the DefaultLoop of the
	// goroutine defining the store.
	Scheduler Scheduler

	Logger *slog.Logger
}

// Store holds the state returned by a setup function and publishes
// snapshots of it to its listeners.
type Store[S any] struct {
	api   *API
	state S

	fields []field
	index  map[string]int

	// memoized result of Snapshot
	memo Snapshot
	// last snapshot handed to listeners
	prev Snapshot

	listeners []*listener
	unwatch   []func()
	cleanups  []func()

	devtools devtools.Sink
	disposed bool
}

type listener struct {
	fn      Listener
	removed bool
}

// DefineStore runs setup with an API bound to a fresh context and batcher
// and wraps the state it returns. The state must be a struct, a pointer to
// a struct, or a map keyed by strings; any other shape panics.
func DefineStore[S any](setup func(api *API) S, opts ...Options[S]) *Store[S] {
	var o Options[S]
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Name == "" {
		o.Name = "unknown_" + time.Now().UTC().Format(time.RFC3339Nano)
	}
	if o.Scheduler == nil {
		o.Scheduler = DefaultLoop()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.DI == nil {
		o.DI = di.New()
	}

	api := &API{
		ctx:       internal.NewContext(),
		batcher:   internal.NewBatcher(o.Scheduler),
		scheduler: o.Scheduler,
		name:      o.Name,
		di:        o.DI,
		logger:    o.Logger.With("store", o.Name),
	}

	s := &Store[S]{
		api:      api,
		state:    setup(api),
		devtools: o.Devtools,
	}

	fields, err := fieldsOf(s.state)
	if err != nil {
		panic(fmt.Errorf("define store %q: %w", o.Name, err))
	}
	s.fields = fields
	s.index = make(map[string]int, len(fields))
	for i, f := range fields {
		s.index[f.name] = i
	}

	s.prev = s.Snapshot()
	s.emit(devtools.ActionInit, s.prev, nil)
	s.observe()

	for _, plugin := range o.Plugins {
		if cleanup := plugin(s); cleanup != nil {
			s.cleanups = append(s.cleanups, cleanup)
		}
	}

	api.logger.Debug("store defined", "fields", len(fields))

	return s
}

// Snapshot returns the state with every unit replaced by its current value.
// The same map is returned as long as nothing changed; it must not be
// mutated.
func (s *Store[S]) Snapshot() Snapshot {
	next := make(Snapshot, len(s.fields))
	for _, f := range s.fields {
		next[f.name] = f.current()
	}

	if s.memo != nil && internal.Shallow(next, s.memo) {
		return s.memo
	}

	s.memo = next
	return next
}

// Subscribe registers fn to be called after each published change.
// The returned function is safe to call more than once.
func (s *Store[S]) Subscribe(fn Listener) (unsubscribe func()) {
	l := &listener{fn: fn}
	s.listeners = append(s.listeners, l)

	return func() {
		if l.removed {
			return
		}
		l.removed = true

		if i := slices.Index(s.listeners, l); i != -1 {
			s.listeners = slices.Delete(s.listeners, i, i+1)
		}
	}
}

// Action runs fn against the raw state, synchronously. Listeners still get
// notified on the next flush.
func (s *Store[S]) Action(fn func(state S)) {
	fn(s.state)
}

// State returns the raw state returned by the setup function.
func (s *Store[S]) State() S {
	return s.state
}

func (s *Store[S]) Name() string {
	return s.api.name
}

// Logger returns the store logger, already carrying the store name.
func (s *Store[S]) Logger() *slog.Logger {
	return s.api.logger
}

// Unit returns the unit stored under name, if that field is one.
func (s *Store[S]) Unit(name string) (Unit, bool) {
	i, ok := s.index[name]
	if !ok || s.fields[i].unit == nil {
		return nil, false
	}

	return s.fields[i].unit, true
}

// Fields returns the field names in state order.
func (s *Store[S]) Fields() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.name
	}

	return names
}

// Dispose runs plugin cleanups, stops effects and detaches listeners.
// The units keep working but the store no longer publishes.
func (s *Store[S]) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true

	for _, cleanup := range s.cleanups {
		cleanup()
	}
	for _, unwatch := range s.unwatch {
		unwatch()
	}
	for _, e := range s.api.effects {
		e.Dispose()
	}

	s.cleanups = nil
	s.unwatch = nil
	s.listeners = nil
}

func (s *Store[S]) observe() {
	for _, f := range s.fields {
		if f.unit == nil {
			continue
		}

		name := f.name
		unwatch := f.unit.watch(func() {
			s.api.batcher.AddTask(func() { s.publish(name) })
		})
		s.unwatch = append(s.unwatch, unwatch)
	}
}

func (s *Store[S]) publish(name string) {
	if s.disposed {
		return
	}

	next := s.Snapshot()
	prev := s.prev

	if internal.Shallow(next[name], prev[name]) {
		return
	}
	if internal.Shallow(next, prev) {
		return
	}

	s.prev = next
	s.emit(devtools.ActionUpdate, next, prev)

	// clonning to avoid mutation during iteration
	for _, l := range slices.Clone(s.listeners) {
		if l.removed {
			continue
		}
		l.fn(next, prev)
	}
}

func (s *Store[S]) emit(action devtools.Action, next, prev Snapshot) {
	if s.devtools == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.api.logger.Warn("devtools sink panicked", "action", action, "panic", r)
		}
	}()

	s.devtools.Emit(devtools.NewEvent(action, s.api.name, next, prev))
}
