// Package metrics registers the Prometheus collectors shared across
// the API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts query results served from the cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kraxel_cache_hits_total",
		Help: "Number of query executions served from the cache.",
	})

	// CacheMisses counts query executions that went to the database.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kraxel_cache_misses_total",
		Help: "Number of query executions that missed the cache.",
	})

	// CacheEvictions counts entries removed by capacity pressure.
	CacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kraxel_cache_evictions_total",
		Help: "Number of cache entries evicted to enforce the size bound.",
	})

	// RequestDuration observes HTTP request latency per route.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kraxel_http_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
