package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/AnatoleLucet/vortex"
	"github.com/AnatoleLucet/vortex/devtools"
	"github.com/AnatoleLucet/vortex/internal/config"
	"github.com/AnatoleLucet/vortex/internal/logging"
	"github.com/AnatoleLucet/vortex/plugins/metrics"
	"github.com/AnatoleLucet/vortex/plugins/persist"
)

type serveFlags struct {
	config   string
	addr     string
	logLevel string
	noDemo   bool
}

func serveCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the devtools server",
		Long: `Start the devtools server and, unless disabled, a demo counter store
ticking on an interval.

Endpoints:
  /ws        WebSocket stream of store events
  /events    JSON history of store events
  /metrics   Prometheus metrics
  /healthz   liveness probe

Examples:
  vortex serve
  vortex serve --config vortex.hcl
  vortex serve --addr :8080 --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			return runServe(ctx, cfg, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&flags.config, "config", "c", "", "Path to an HCL config file")
	cmd.Flags().StringVarP(&flags.addr, "addr", "a", "", "Address to listen on (default from config)")
	cmd.Flags().StringVarP(&flags.logLevel, "log-level", "l", "", "Log level (default from config)")
	cmd.Flags().BoolVar(&flags.noDemo, "no-demo", false, "Do not run the demo store")

	return cmd
}

func loadConfig(flags serveFlags) (*config.Config, error) {
	cfg := config.Default()
	if flags.config != "" {
		var err error
		if cfg, err = config.Load(flags.config); err != nil {
			return nil, err
		}
	}

	if flags.addr != "" {
		cfg.Devtools.Addr = flags.addr
	}
	if flags.logLevel != "" {
		if _, err := logging.ParseLevel(flags.logLevel); err != nil {
			return nil, err
		}
		cfg.Log.Level = flags.logLevel
	}
	if flags.noDemo {
		disabled := false
		cfg.Demo.Enabled = &disabled
	}

	return cfg, nil
}

func runServe(ctx context.Context, cfg *config.Config, logOut io.Writer) error {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.New(level, cfg.Log.Format, logOut)

	ctx, cancel := context.WithCancel(logging.WithLogger(ctx, logger))
	defer cancel()

	hub := devtools.NewHub(devtools.HubOptions{
		History:     cfg.Devtools.History,
		CheckOrigin: checkOrigin(cfg.Devtools.AllowedOrigins),
		Logger:      logger,
	})
	defer hub.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector(metrics.WithRegistry(registry))

	srv := &http.Server{
		Addr: cfg.Devtools.Addr,
		Handler: devtools.NewRouter(hub, map[string]http.Handler{
			"/metrics": promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("devtools server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	loop := vortex.NewLoop()
	stopDemo := func() {}
	if *cfg.Demo.Enabled {
		if stopDemo, err = startDemo(ctx, cfg.Demo, loop, hub, collector); err != nil {
			return err
		}
	}

	runErr := make(chan error, 1)
	go func() { runErr <- loop.Run(ctx) }()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("devtools server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	// the loop is stopped, drain from here
	cancel()
	<-runErr
	loop.Schedule(stopDemo)
	loop.Drain()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	return srv.Shutdown(shutdownCtx)
}

// startDemo defines the demo store on the loop goroutine and feeds it ticks.
// The returned stop function must run on the loop.
func startDemo(ctx context.Context, cfg *config.Demo, loop *vortex.Loop, sink devtools.Sink, collector *metrics.Collector) (stop func(), err error) {
	logger := logging.FromContext(ctx)

	var storage persist.Storage
	if cfg.PersistDir != "" {
		file, err := persist.NewFile(cfg.PersistDir)
		if err != nil {
			return nil, err
		}
		storage = file
	}

	var store *vortex.Store[counter]
	loop.Schedule(func() {
		store = newDemoStore(demoOptions{
			Loop:      loop,
			Sink:      sink,
			Collector: collector,
			Storage:   storage,
			Logger:    logger,
		})
	})

	go func() {
		ticker := time.NewTicker(cfg.Every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				loop.Schedule(func() { store.Action(increment) })
			}
		}
	}()

	return func() { store.Dispose() }, nil
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}

	return func(r *http.Request) bool {
		return slices.Contains(allowed, r.Header.Get("Origin"))
	}
}
