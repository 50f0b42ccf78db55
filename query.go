package vortex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/AnatoleLucet/vortex"

// ErrQueryPanic wraps the value recovered from a panicking query function.
var ErrQueryPanic = errors.New("query panicked")

// QueryState is the record held by a query. The zero value is the idle state.
type QueryState[D any] struct {
	IsLoading bool
	IsSuccess bool
	IsError   bool
	Error     error
	Data      D
}

func (s QueryState[D]) MarshalJSON() ([]byte, error) {
	var msg *string
	if s.Error != nil {
		m := s.Error.Error()
		msg = &m
	}

	return json.Marshal(struct {
		IsLoading bool    `json:"isLoading"`
		IsSuccess bool    `json:"isSuccess"`
		IsError   bool    `json:"isError"`
		Error     *string `json:"error"`
		Data      D       `json:"data"`
	}{s.IsLoading, s.IsSuccess, s.IsError, msg, s.Data})
}

// QueryFunc is the asynchronous work wrapped by a query. It runs on its own
// goroutine and must not touch the store.
type QueryFunc[D, O any] func(ctx context.Context, opts O) (D, error)

type QueryOptions[D any] struct {
	// Name is used for spans and logs. Defaults to "query".
	Name string

	// Autorun runs the query with zero options right after creation.
	Autorun bool

	// OnSuccess and OnError are called on the store goroutine, after the
	// state transition.
	OnSuccess func(data D)
	OnError   func(err error)

	// Tracer defaults to the global otel tracer provider.
	Tracer trace.Tracer
}

// Query drives a QueryState around the lifecycle of an asynchronous call.
type Query[D, O any] struct {
	state     *Reactive[QueryState[D]]
	fn        QueryFunc[D, O]
	scheduler Scheduler
	api       *API
	opts      QueryOptions[D]

	lastOptions O

	// incremented on every Run and Reset, settlements of an older
	// generation are dropped
	generation uint64
}

// NewQuery creates a query bound to the store being set up.
func NewQuery[D, O any](api *API, fn QueryFunc[D, O], opts ...QueryOptions[D]) *Query[D, O] {
	var o QueryOptions[D]
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Name == "" {
		o.Name = "query"
	}
	if o.Tracer == nil {
		o.Tracer = otel.Tracer(tracerName)
	}

	q := &Query[D, O]{
		state:     NewReactive(api, QueryState[D]{}),
		fn:        fn,
		scheduler: api.scheduler,
		api:       api,
		opts:      o,
	}

	if o.Autorun {
		var zero O
		q.Run(context.Background(), zero)
	}

	return q
}

// Run enters the loading state and calls the query function with opts on a
// new goroutine. Its result is applied on the store scheduler; the returned
// channel is closed once that happened, or once the result was dropped
// because a later Run or Reset superseded it.
//
// Data is kept while loading. Errors never escape: they land in the state.
func (q *Query[D, O]) Run(ctx context.Context, opts O) <-chan struct{} {
	if ctx == nil {
		ctx = context.Background()
	}
	q.lastOptions = opts
	q.generation++
	gen := q.generation

	q.state.Update(func(prev QueryState[D]) QueryState[D] {
		return QueryState[D]{IsLoading: true, Data: prev.Data}
	})

	done := make(chan struct{})
	go func() {
		data, err := q.call(ctx, opts)

		q.scheduler.Schedule(func() {
			defer close(done)
			if gen != q.generation {
				q.api.logger.Debug("dropping superseded query result",
					"store", q.api.name, "query", q.opts.Name)
				return
			}

			q.settle(data, err)
		})
	}()

	return done
}

// Refetch runs the query again with the options of the last Run.
func (q *Query[D, O]) Refetch(ctx context.Context) <-chan struct{} {
	return q.Run(ctx, q.lastOptions)
}

// Reset goes back to the idle state and forgets the last options. Results of
// calls still in flight are ignored.
func (q *Query[D, O]) Reset() {
	var zero O
	q.lastOptions = zero
	q.generation++
	q.state.Reset()
}

func (q *Query[D, O]) call(ctx context.Context, opts O) (data D, err error) {
	ctx, span := q.opts.Tracer.Start(ctx, "vortex."+q.opts.Name,
		trace.WithAttributes(
			attribute.String("vortex.store", q.api.name),
			attribute.String("vortex.query", q.opts.Name),
		))
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrQueryPanic, r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return q.fn(ctx, opts)
}

func (q *Query[D, O]) settle(data D, err error) {
	if err != nil {
		q.state.Set(QueryState[D]{IsError: true, Error: err})
		q.api.logger.Debug("query failed", "store", q.api.name, "query", q.opts.Name, "error", err)

		if q.opts.OnError != nil {
			q.opts.OnError(err)
		}
		return
	}

	q.state.Set(QueryState[D]{IsSuccess: true, Data: data})

	if q.opts.OnSuccess != nil {
		q.opts.OnSuccess(data)
	}
}

// Get returns the current state, tracking it if called from a computed or an effect.
func (q *Query[D, O]) Get() QueryState[D] { return q.state.Get() }

// Peek returns the current state without tracking it.
func (q *Query[D, O]) Peek() QueryState[D] { return q.state.Peek() }

// Set overrides the state, e.g. for optimistic updates.
func (q *Query[D, O]) Set(s QueryState[D]) { q.state.Set(s) }

func (q *Query[D, O]) Update(fn func(prev QueryState[D]) QueryState[D]) { q.state.Update(fn) }

func (q *Query[D, O]) Subscribe(cb func(QueryState[D])) (unsubscribe func()) {
	return q.state.Subscribe(cb)
}

func (q *Query[D, O]) Kind() Kind { return KindQuery }

// PersistValue returns the data only, the loading flags are not worth saving.
func (q *Query[D, O]) PersistValue() any { return q.Peek().Data }

// RestoreJSON restores the data, leaving the flags untouched.
func (q *Query[D, O]) RestoreJSON(data []byte) error {
	var d D
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("restore query: %w", err)
	}

	q.state.Update(func(prev QueryState[D]) QueryState[D] {
		prev.Data = d
		return prev
	})
	return nil
}

func (q *Query[D, O]) value() any { return q.state.value() }

func (q *Query[D, O]) watch(fn func()) func() { return q.state.watch(fn) }
