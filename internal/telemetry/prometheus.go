// Package telemetry exports optimization progress as Prometheus metrics.
package telemetry

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/thalesfsp/bo"
	"golang.org/x/exp/constraints"
)

//////
// Const, vars, types.
//////

// ErrInvalidConfig is returned when the metrics configuration is invalid.
var ErrInvalidConfig = errors.New("invalid prometheus configuration")

// Config configures the metric names and the registry.
type Config struct {
	// Namespace is the metrics namespace. Required.
	Namespace string

	// Subsystem is the metrics subsystem. Required.
	Subsystem string

	// Registry receives the collectors. If nil, prometheus.DefaultRegisterer
	// is used.
	Registry prometheus.Registerer
}

// DefaultConfig returns a configuration with namespace "bo" and subsystem
// "optimizer".
func DefaultConfig() Config {
	return Config{
		Namespace: "bo",
		Subsystem: "optimizer",
	}
}

// Validate checks that the required fields are set.
func (c Config) Validate() error {
	if c.Namespace == "" {
		return fmt.Errorf("namespace is required: %w", ErrInvalidConfig)
	}

	if c.Subsystem == "" {
		return fmt.Errorf("subsystem is required: %w", ErrInvalidConfig)
	}

	return nil
}

// PrometheusObserver is a bo.Observer that records:
//   - evaluations_total{phase}: objective evaluations per phase
//   - improvements_total: evaluations that replaced the incumbent
//   - incumbent_value: best objective value so far
//   - last_value: objective value of the latest evaluation
//   - observations: number of observations held by the model
//
// Collectors are safe for concurrent use, so the observer may be scraped
// while the optimizer runs.
type PrometheusObserver[T constraints.Float] struct {
	registry   prometheus.Registerer
	collectors []prometheus.Collector

	evaluations  *prometheus.CounterVec
	improvements prometheus.Counter
	incumbent    prometheus.Gauge
	last         prometheus.Gauge
	observations prometheus.Gauge
}

//////
// Factory.
//////

// NewPrometheusObserver creates the collectors and registers them.
//
// Usage example:
//
//	reg := prometheus.NewRegistry()
//	cfg := telemetry.DefaultConfig()
//	cfg.Registry = reg
//
//	obs, err := telemetry.NewPrometheusObserver[float64](cfg)
//	if err != nil {
//	    return fmt.Errorf("create observer: %w", err)
//	}
//	defer obs.Close()
//
//	config.Observers = append(config.Observers, obs)
func NewPrometheusObserver[T constraints.Float](cfg Config) (*PrometheusObserver[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver[T]{
		registry: registry,
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluations_total",
				Help:      "Total objective evaluations by phase",
			},
			[]string{"phase"},
		),
		improvements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "improvements_total",
			Help:      "Total evaluations that improved on the incumbent",
		}),
		incumbent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "incumbent_value",
			Help:      "Best objective value found so far",
		}),
		last: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "last_value",
			Help:      "Objective value of the latest evaluation",
		}),
		observations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "observations",
			Help:      "Number of observations held by the surrogate model",
		}),
	}

	for _, c := range []prometheus.Collector{o.evaluations, o.improvements, o.incumbent, o.last, o.observations} {
		if err := registry.Register(c); err != nil {
			o.Close()

			return nil, fmt.Errorf("register collector: %w", err)
		}

		o.collectors = append(o.collectors, c)
	}

	return o, nil
}

//////
// Methods.
//////

// Observe records one evaluation.
func (o *PrometheusObserver[T]) Observe(e bo.Event[T]) {
	o.evaluations.WithLabelValues(string(e.Phase)).Inc()

	if e.Improved {
		o.improvements.Inc()
	}

	o.incumbent.Set(float64(e.Best.Y))
	o.last.Set(float64(e.Sample.Y))
	o.observations.Set(float64(e.Observations))
}

// Close unregisters the collectors.
func (o *PrometheusObserver[T]) Close() {
	for _, c := range o.collectors {
		o.registry.Unregister(c)
	}

	o.collectors = nil
}
