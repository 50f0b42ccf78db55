// Package persist saves parts of a store snapshot and restores them when the
// store is defined again.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"slices"
	"time"

	"github.com/AnatoleLucet/vortex"
)

type Options struct {
	// Key the state is saved under.
	Key string

	// Properties limits what is saved. All fields when empty.
	Properties []string

	// Storage defaults to an in-memory storage.
	Storage Storage

	// Timeout bounds each storage call. Defaults to 5 seconds.
	Timeout time.Duration

	Logger *slog.Logger
}

// New returns a plugin saving the store on every published change.
//
// Fields holding nil or a func when the store is defined are never saved.
// Query fields save their data only. On definition, saved reactive and query
// fields are restored; saved data that cannot be decoded is logged and
// deleted, leaving the store untouched.
func New[S any](opts Options) vortex.Plugin[S] {
	if opts.Storage == nil {
		opts.Storage = NewMemory()
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}

	return func(s *vortex.Store[S]) func() {
		p := &persister[S]{
			opts:   opts,
			store:  s,
			logger: logger(opts, s),
		}
		p.fields = p.selectFields(s.Snapshot())

		p.restore()

		return s.Subscribe(func(next, _ vortex.Snapshot) {
			p.save(next)
		})
	}
}

func logger[S any](opts Options, s *vortex.Store[S]) *slog.Logger {
	l := opts.Logger
	if l == nil {
		l = s.Logger()
	}

	return l.With("plugin", "persist", "key", opts.Key)
}

type persister[S any] struct {
	opts   Options
	store  *vortex.Store[S]
	fields []string
	logger *slog.Logger
}

func (p *persister[S]) selectFields(snapshot vortex.Snapshot) []string {
	fields := make([]string, 0, len(snapshot))
	for _, name := range p.store.Fields() {
		if len(p.opts.Properties) > 0 && !slices.Contains(p.opts.Properties, name) {
			continue
		}

		v := snapshot[name]
		if v == nil || reflect.TypeOf(v).Kind() == reflect.Func {
			continue
		}

		fields = append(fields, name)
	}

	return fields
}

// project extracts what gets saved from a snapshot.
func (p *persister[S]) project(snapshot vortex.Snapshot) map[string]any {
	out := make(map[string]any, len(p.fields))
	for _, name := range p.fields {
		v := snapshot[name]
		if isNil(v) {
			continue
		}

		if u, ok := p.store.Unit(name); ok && u.Kind() == vortex.KindQuery {
			v = u.(vortex.Persistable).PersistValue()
		}
		out[name] = v
	}

	return out
}

func (p *persister[S]) restore() {
	ctx, cancel := context.WithTimeout(context.Background(), p.opts.Timeout)
	defer cancel()

	data, err := p.opts.Storage.Load(ctx, p.opts.Key)
	if errors.Is(err, ErrNotExist) {
		p.save(p.store.Snapshot())
		return
	}
	if err != nil {
		p.logger.Error("failed to load persisted state", "error", err)
		return
	}

	var saved map[string]json.RawMessage
	if err := json.Unmarshal(data, &saved); err != nil {
		p.logger.Error("failed to parse persisted state, deleting it", "error", err)

		if err := p.opts.Storage.Delete(ctx, p.opts.Key); err != nil {
			p.logger.Error("failed to delete persisted state", "error", err)
		}
		return
	}

	p.store.Action(func(S) {
		for name, raw := range saved {
			u, ok := p.store.Unit(name)
			if !ok {
				continue
			}

			r, ok := u.(vortex.Persistable)
			if !ok {
				continue
			}

			if err := r.RestoreJSON(raw); err != nil {
				p.logger.Warn("failed to restore field", "field", name, "error", err)
			}
		}
	})
}

func (p *persister[S]) save(snapshot vortex.Snapshot) {
	data, err := json.Marshal(p.project(snapshot))
	if err != nil {
		p.logger.Error("failed to encode state", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.opts.Timeout)
	defer cancel()

	if err := p.opts.Storage.Save(ctx, p.opts.Key, data); err != nil {
		p.logger.Error("failed to save state", "error", err)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
