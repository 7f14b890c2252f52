// Package metrics exposes castgraph's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Aggregation pass results.
const (
	PassApplied = "applied"
	PassStale   = "stale"
	PassFailed  = "failed"
)

// Registry holds all metrics for the application. A nil *Registry is valid
// and records nothing.
type Registry struct {
	reg *prometheus.Registry

	MetadataRequestsTotal   *prometheus.CounterVec
	MetadataRequestDuration *prometheus.HistogramVec
	MetadataCacheHitsTotal  *prometheus.CounterVec

	AggregationPassesTotal *prometheus.CounterVec
	AggregationMovies      prometheus.Histogram

	LayoutSettlesTotal prometheus.Counter
	ActiveSessions     prometheus.Gauge
}

// NewRegistry creates and registers every collector on a private registry.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		MetadataRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "castgraph_metadata_requests_total",
				Help: "Metadata API requests by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		MetadataRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "castgraph_metadata_request_seconds",
				Help:    "Metadata API request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		MetadataCacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "castgraph_metadata_cache_hits_total",
				Help: "Metadata responses served from cache by tier",
			},
			[]string{"tier"},
		),
		AggregationPassesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "castgraph_aggregation_passes_total",
				Help: "Aggregation passes by result (applied, stale, failed)",
			},
			[]string{"result"},
		),
		AggregationMovies: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "castgraph_aggregation_movies",
				Help:    "Movies fetched per aggregation pass",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 200},
			},
		),
		LayoutSettlesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "castgraph_layout_settles_total",
				Help: "Times a layout simulation reached the settled state",
			},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "castgraph_active_sessions",
				Help: "Explorer sessions currently open",
			},
		),
	}

	r.reg.MustRegister(
		r.MetadataRequestsTotal,
		r.MetadataRequestDuration,
		r.MetadataCacheHitsTotal,
		r.AggregationPassesTotal,
		r.AggregationMovies,
		r.LayoutSettlesTotal,
		r.ActiveSessions,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveMetadata records one metadata request.
func (r *Registry) ObserveMetadata(endpoint, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.MetadataRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	r.MetadataRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// CacheHit records a response served from the given cache tier.
func (r *Registry) CacheHit(tier string) {
	if r == nil {
		return
	}
	r.MetadataCacheHitsTotal.WithLabelValues(tier).Inc()
}

// AggregationPass records the outcome of one aggregation pass.
func (r *Registry) AggregationPass(result string, movies int) {
	if r == nil {
		return
	}
	r.AggregationPassesTotal.WithLabelValues(result).Inc()
	if result == PassApplied {
		r.AggregationMovies.Observe(float64(movies))
	}
}

// LayoutSettled counts one settle transition.
func (r *Registry) LayoutSettled() {
	if r == nil {
		return
	}
	r.LayoutSettlesTotal.Inc()
}

// SessionOpened and SessionClosed track the open explorer sessions gauge.
func (r *Registry) SessionOpened() {
	if r == nil {
		return
	}
	r.ActiveSessions.Inc()
}

func (r *Registry) SessionClosed() {
	if r == nil {
		return
	}
	r.ActiveSessions.Dec()
}
