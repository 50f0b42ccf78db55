package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AnatoleLucet/vortex"
	"github.com/AnatoleLucet/vortex/devtools"
	"github.com/AnatoleLucet/vortex/di"
	"github.com/AnatoleLucet/vortex/internal/logging"
	"github.com/AnatoleLucet/vortex/plugins/metrics"
	"github.com/AnatoleLucet/vortex/plugins/persist"
)

type counter struct {
	Count   *vortex.Reactive[int]      `vortex:"count"`
	Double  *vortex.Computed[int]      `vortex:"double"`
	Parity  *vortex.Computed[string]   `vortex:"parity"`
	Summary *vortex.Query[string, int] `vortex:"summary"`
	Step    int                        `vortex:"step"`
}

// clock is injected so tests can pin the summary timestamps.
type clock func() time.Time

type demoOptions struct {
	Loop      *vortex.Loop
	Sink      devtools.Sink
	Collector *metrics.Collector
	Storage   persist.Storage
	Logger    *slog.Logger
	Now       clock
}

func newDemoStore(opts demoOptions) *vortex.Store[counter] {
	container := di.New()
	if opts.Now == nil {
		opts.Now = time.Now
	}
	container.Register("clock", opts.Now)

	plugins := []vortex.Plugin[counter]{}
	if opts.Storage != nil {
		plugins = append(plugins, persist.New[counter](persist.Options{
			Key:        "counter",
			Properties: []string{"count"},
			Storage:    opts.Storage,
		}))
	}
	if opts.Collector != nil {
		plugins = append(plugins, metrics.Plugin[counter](opts.Collector))
	}

	return vortex.DefineStore(setupCounter, vortex.Options[counter]{
		Name:      "counter",
		Plugins:   plugins,
		DI:        container,
		Devtools:  opts.Sink,
		Scheduler: opts.Loop,
		Logger:    opts.Logger,
	})
}

func setupCounter(api *vortex.API) counter {
	now := di.MustGet[clock](api.DI(), "clock")
	logger := api.Logger()

	count := vortex.NewReactive(api, 0)
	parity := vortex.NewComputed(api, func() string {
		if count.Get()%2 == 0 {
			return "even"
		}
		return "odd"
	})

	summary := vortex.NewQuery(api, func(ctx context.Context, n int) (string, error) {
		logging.FromContext(ctx).Debug("summarizing", "count", n)
		return fmt.Sprintf("%d at %s", n, now().UTC().Format(time.RFC3339)), nil
	}, vortex.QueryOptions[string]{Name: "summary"})

	vortex.NewEffect(api, func() {
		logger.Info("parity changed", "parity", parity.Get())
	})

	// refresh the summary every ten ticks
	vortex.NewEffect(api, func() {
		if n := count.Get(); n%10 == 0 {
			ctx := logging.WithLogger(context.Background(), logger)
			summary.Run(ctx, n)
		}
	})

	return counter{
		Count:   count,
		Double:  vortex.NewComputed(api, func() int { return count.Get() * 2 }),
		Parity:  parity,
		Summary: summary,
		Step:    1,
	}
}

func increment(s counter) {
	s.Count.Update(func(prev int) int { return prev + s.Step })
}
