package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astromitra_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// HoroscopeCacheLookups counts horoscope cache reads by period and
	// outcome (hit|miss|stale).
	HoroscopeCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astromitra_horoscope_cache_lookups_total",
			Help: "Horoscope cache lookups by outcome",
		},
		[]string{"period", "outcome"},
	)

	// HoroscopeRegenerations counts single-key regenerations by period and
	// result (success|fetch_failed).
	HoroscopeRegenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astromitra_horoscope_regenerations_total",
			Help: "Horoscope regenerations by result",
		},
		[]string{"period", "result"},
	)

	// EnrichmentFailures counts AI narrative enrichment failures. Enrichment
	// is best-effort, so these never surface as request errors.
	EnrichmentFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "astromitra_enrichment_failures_total",
			Help: "Narrative enrichment failures absorbed by the cache engine",
		},
	)

	// UpstreamLatency measures astrology engine call latencies.
	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astromitra_upstream_latency_seconds",
			Help:    "Astrology engine request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astromitra_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
