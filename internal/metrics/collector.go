// Package metrics provides internal metrics collection. This package is
// internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the Prometheus instruments for one request-path pipeline
// instance. All instruments are registered once at construction time via
// promauto; Collector itself is safe for concurrent use since every method
// delegates straight to the thread-safe prometheus client types.
type Collector struct {
	requestsTotal    *prometheus.CounterVec
	routingDuration  *prometheus.HistogramVec
	dedupHits        *prometheus.CounterVec
	dedupMisses      *prometheus.CounterVec
	rateLimitTrips   *prometheus.CounterVec
	dualKeyFailovers *prometheus.CounterVec
	streamChunks     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// NewCollector registers every instrument under namespace (typically
// "throttle").
func NewCollector(namespace string) *Collector {
	return &Collector{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total routed requests by ingress format (route label), tier and model.",
			},
			[]string{"route", "tier", "model"},
		),
		routingDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "routing_decision_duration_seconds",
				Help:      "Time spent in the router's Route call, before dispatch.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tier"},
		),
		dedupHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dedup_hits_total",
				Help:      "Requests served from a completed dedup entry or joined as a waiter.",
			},
			[]string{"kind"},
		),
		dedupMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dedup_misses_total",
				Help:      "Requests that became the dedup producer.",
			},
			nil,
		),
		rateLimitTrips: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_trips_total",
				Help:      "Models marked rate-limited after a 429.",
			},
			[]string{"model"},
		),
		dualKeyFailovers: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dual_key_failovers_total",
				Help:      "Anthropic requests that fell back from setup-token to enterprise key or vice versa.",
			},
			nil,
		),
		streamChunks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_chunks_total",
				Help:      "Completed SSE streams forwarded to clients, by upstream provider; one increment per stream, not per chunk.",
			},
			[]string{"provider"},
		),
		httpDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "End-to-end HTTP request duration.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (c *Collector) RecordRequest(route, tier, model string) {
	c.requestsTotal.WithLabelValues(route, tier, model).Inc()
}

func (c *Collector) ObserveRoutingDuration(tier string, d time.Duration) {
	c.routingDuration.WithLabelValues(tier).Observe(d.Seconds())
}

func (c *Collector) RecordDedupHit(kind string) {
	c.dedupHits.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordDedupMiss() {
	c.dedupMisses.WithLabelValues().Inc()
}

func (c *Collector) RecordRateLimitTrip(model string) {
	c.rateLimitTrips.WithLabelValues(model).Inc()
}

func (c *Collector) RecordDualKeyFailover() {
	c.dualKeyFailovers.WithLabelValues().Inc()
}

func (c *Collector) RecordStreamChunk(provider string) {
	c.streamChunks.WithLabelValues(provider).Inc()
}

func (c *Collector) ObserveHTTPDuration(method, path, status string, d time.Duration) {
	c.httpDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}
