// Package metrics holds the Prometheus collectors for the server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application.
type Collector struct {
	registry *prometheus.Registry

	// Ledger operation metrics
	OpsApplied *prometheus.CounterVec
	OpErrors   *prometheus.CounterVec
	OpDuration *prometheus.HistogramVec

	// Agent metrics
	ModelCalls     *prometheus.CounterVec
	ModelFallbacks prometheus.Counter

	// Checkpoint metrics
	CheckpointSaves  prometheus.Counter
	CheckpointErrors prometheus.Counter
}

// NewCollector creates a metrics collector with its own registry, so
// tests can create collectors without duplicate registration panics.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		OpsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ops_applied_total",
				Help:      "Total number of ledger operations applied, by kind",
			},
			[]string{"op"},
		),
		OpErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "op_errors_total",
				Help:      "Total number of rejected operations, by kind",
			},
			[]string{"op"},
		),
		OpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "op_duration_seconds",
				Help:      "Operation duration in seconds, including checkpointing",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		ModelCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_calls_total",
				Help:      "Total number of language model calls, by model and status",
			},
			[]string{"model", "status"},
		),
		ModelFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_fallbacks_total",
				Help:      "Total number of times the agent fell back to the next model",
			},
		),
		CheckpointSaves: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkpoint_saves_total",
				Help:      "Total number of session snapshots checkpointed",
			},
		),
		CheckpointErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkpoint_errors_total",
				Help:      "Total number of failed checkpoint writes",
			},
		),
	}

	registry.MustRegister(
		c.OpsApplied,
		c.OpErrors,
		c.OpDuration,
		c.ModelCalls,
		c.ModelFallbacks,
		c.CheckpointSaves,
		c.CheckpointErrors,
	)
	return c
}

// ObserveOp records one operation outcome.
func (c *Collector) ObserveOp(op string, duration time.Duration, err error) {
	if err != nil {
		c.OpErrors.WithLabelValues(op).Inc()
		return
	}
	c.OpsApplied.WithLabelValues(op).Inc()
	c.OpDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// Handler returns the scrape endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
