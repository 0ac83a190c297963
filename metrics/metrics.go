// Package metrics exposes the ledger's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "zkbet"

// Result labels besides the rejection reasons.
const ResultOK = "ok"

// Metrics holds the collectors and the registry they are registered in.
type Metrics struct {
	registry *prometheus.Registry

	// Transitions counts applied proposals by op and result.
	Transitions *prometheus.CounterVec
	// ApplyLatency records the time from dequeue to commit, by op.
	ApplyLatency *prometheus.HistogramVec
	// Bets tracks the number of bets in the committed ledger.
	Bets prometheus.Gauge
	// QueueDepth tracks proposals waiting for the sequencer.
	QueueDepth prometheus.Gauge
}

// New creates a fresh registry with the ledger collectors and, if runtime
// is set, the Go runtime and process collectors.
func New(runtime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "transitions_total",
			Help:      "Proposals applied, by operation and result.",
		}, []string{"op", "result"}),
		ApplyLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "apply_seconds",
			Help:      "Time to verify and commit one proposal.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"op"}),
		Bets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "bets_total",
			Help:      "Bets recorded in the committed ledger.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "sequencer_queue_depth",
			Help:      "Proposals waiting to be applied.",
		}),
	}
	m.registry.MustRegister(m.Transitions, m.ApplyLatency, m.Bets, m.QueueDepth)
	if runtime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Observe records one applied proposal. result is ResultOK or a rejection
// reason label.
func (m *Metrics) Observe(op, result string, elapsed time.Duration) {
	m.Transitions.WithLabelValues(op, result).Inc()
	m.ApplyLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
