// Package metrics collects Prometheus metrics for identity provider calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "proplatform"

// Collector records identity call counts and latency
type Collector struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		// Labels:
		//   - op: register, login, lookup, update
		//   - outcome: ok, or the classified error kind
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identity_calls_total",
			Help:      "Total number of identity provider calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "identity_call_duration_seconds",
			Help:      "Latency of identity provider calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	reg.MustRegister(c.calls, c.latency)
	return c
}

// ObserveCall records one completed call
func (c *Collector) ObserveCall(op, outcome string, d time.Duration) {
	c.calls.WithLabelValues(op, outcome).Inc()
	c.latency.WithLabelValues(op).Observe(d.Seconds())
}

// Handler returns the /metrics handler for the given gatherer
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
