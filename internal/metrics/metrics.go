// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportslocations_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sportslocations_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// CacheLookups counts search cache hits and misses per layer (query, raw)
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportslocations_search_cache_lookups_total",
			Help: "Search cache lookups by layer and result",
		},
		[]string{"layer", "result"},
	)

	// UpstreamRequests counts calls to the graph-search backend
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportslocations_upstream_requests_total",
			Help: "Upstream search requests by outcome",
		},
		[]string{"outcome"},
	)

	// UpstreamDuration observes upstream latency
	UpstreamDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sportslocations_upstream_request_duration_seconds",
			Help:    "Upstream search latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// MalformedResponses counts payloads that could not be parsed
	MalformedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sportslocations_upstream_malformed_responses_total",
			Help: "Upstream responses that were not valid JSON",
		},
	)
)
