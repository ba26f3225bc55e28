package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the engine. Request-local counters stay on the
// context carrier; these aggregate across requests for operators.
var (
	ProviderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betting_provider_calls_total",
		Help: "Live provider calls by integration and status",
	}, []string{"provider", "status"})

	ProviderCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betting_provider_cache_hits_total",
		Help: "Provider cache hits by integration",
	}, []string{"provider"})

	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "betting_provider_latency_seconds",
		Help:    "Live provider call latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "betting_request_duration_seconds",
		Help:    "best-bets request duration by phase",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 45, 60},
	}, []string{"phase"})

	PicksEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betting_picks_emitted_total",
		Help: "Picks emitted by sport and tier",
	}, []string{"sport", "tier"})

	QuotaSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betting_quota_skips_total",
		Help: "Calls skipped because a daily or monthly quota was exhausted",
	}, []string{"provider"})
)
