// Package metrics exposes Prometheus collectors for the acquisition and
// correlation pipeline. The correlation engine itself stays pure; these
// are updated by the fetch layer, the source collectors, and the
// investigator around it. Any embedding process can serve them from the
// default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Collection metrics
	FindingsCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dragnet_findings_collected_total",
			Help: "Findings returned by each source collector",
		},
		[]string{"source"},
	)

	FindingsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dragnet_findings_rejected_total",
			Help: "Findings rejected by the engine as malformed or unmatchable",
		},
	)

	SourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dragnet_source_errors_total",
			Help: "Collector failures by source; failures degrade, never abort",
		},
		[]string{"source"},
	)

	// Fetch layer metrics
	FetchCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dragnet_fetch_cache_hits_total",
		Help: "HTTP responses served from cache",
	})

	FetchCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dragnet_fetch_cache_misses_total",
		Help: "HTTP responses that required a network fetch",
	})

	RobotsDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dragnet_robots_denied_total",
		Help: "Fetches skipped because robots.txt disallows the path",
	})

	// Investigation metrics
	InvestigationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dragnet_investigation_duration_seconds",
		Help:    "Wall time of a full investigation, collection through report",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)
