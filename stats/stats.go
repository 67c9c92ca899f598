// Package stats registers and exposes the service's Prometheus metrics.
// Counters end in "_total", latencies in "_seconds", Prometheus's own
// snake_case suffix convention rather than a StatsD-style dotted name,
// since Prometheus already enforces (and best serves clients with) its
// own naming rules.
package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every counter/histogram this service emits. One
// Registry is created per process and wired into builder/query/front-door
// call sites at startup.
type Registry struct {
	PutVectors    *prometheus.CounterVec
	QueryVectors  *prometheus.CounterVec
	BuildRuns     *prometheus.CounterVec
	BuildDuration *prometheus.HistogramVec
	QueryDuration *prometheus.HistogramVec
	LeaseContend  *prometheus.CounterVec
	BackendCache  *prometheus.CounterVec
}

// New registers every metric against reg (pass prometheus.NewRegistry()
// in tests to avoid colliding with the global DefaultRegisterer across
// parallel test binaries).
func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		PutVectors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vecdb_put_vectors_total",
			Help: "Vector rows accepted for staging, by index.",
		}, []string{"bucket", "index"}),
		QueryVectors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vecdb_query_vectors_total",
			Help: "Query engine invocations, by index and outcome.",
		}, []string{"bucket", "index", "outcome"}),
		BuildRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vecdb_builder_runs_total",
			Help: "Index builder consolidation runs, by index and outcome.",
		}, []string{"bucket", "index", "outcome"}),
		BuildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vecdb_builder_duration_seconds",
			Help:    "Index builder consolidation wall-clock duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"bucket", "index"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vecdb_query_duration_seconds",
			Help:    "Query engine search wall-clock duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"bucket", "index"}),
		LeaseContend: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vecdb_builder_lease_contention_total",
			Help: "Builder lease acquisition failures due to a live competing owner.",
		}, []string{"bucket", "index"}),
		BackendCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vecdb_backend_cache_total",
			Help: "Query engine backend cache lookups, by hit/miss.",
		}, []string{"bucket", "index", "result"}),
	}
	reg.MustRegister(r.PutVectors, r.QueryVectors, r.BuildRuns, r.BuildDuration,
		r.QueryDuration, r.LeaseContend, r.BackendCache)
	return r
}

// Timer returns a function that observes the elapsed time into h when
// called, for the common `defer stats.Timer(h, labels...)()` call shape.
func Timer(h *prometheus.HistogramVec, labelValues ...string) func() {
	start := time.Now()
	return func() {
		h.WithLabelValues(labelValues...).Observe(time.Since(start).Seconds())
	}
}
