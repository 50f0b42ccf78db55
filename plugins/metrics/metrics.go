// Package metrics exports store activity to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AnatoleLucet/vortex"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "vortex").
	Namespace string

	// Subsystem is the metrics subsystem (default: "store").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

type Option func(*Config)

func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "vortex",
		Subsystem: "store",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector holds the metrics shared by every store it is plugged into.
type Collector struct {
	updates    *prometheus.CounterVec
	lastUpdate *prometheus.GaugeVec
	fields     *prometheus.GaugeVec
	stores     prometheus.Gauge
}

// NewCollector registers the metrics. Registering twice on the same registry
// panics, create one collector per registry.
func NewCollector(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Collector{
		updates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "updates_total",
			Help:        "Total number of snapshots published to store listeners",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		lastUpdate: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "last_update_timestamp_seconds",
			Help:        "Unix time of the last published snapshot",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		fields: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fields",
			Help:        "Number of fields in the store state",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		stores: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active",
			Help:        "Number of stores currently instrumented",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Plugin instruments a store with c. The store series are removed on Dispose.
func Plugin[S any](c *Collector) vortex.Plugin[S] {
	return func(s *vortex.Store[S]) func() {
		name := s.Name()

		c.fields.WithLabelValues(name).Set(float64(len(s.Fields())))
		c.stores.Inc()

		unsubscribe := s.Subscribe(func(_, _ vortex.Snapshot) {
			c.updates.WithLabelValues(name).Inc()
			c.lastUpdate.WithLabelValues(name).Set(float64(time.Now().UnixNano()) / 1e9)
		})

		return func() {
			unsubscribe()
			c.stores.Dec()
			c.updates.DeleteLabelValues(name)
			c.lastUpdate.DeleteLabelValues(name)
			c.fields.DeleteLabelValues(name)
		}
	}
}
