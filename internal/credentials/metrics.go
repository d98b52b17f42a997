package credentials

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache metrics
	cacheHitsTotal      *prometheus.CounterVec
	cacheMissesTotal    *prometheus.CounterVec
	cacheEvictionsTotal *prometheus.CounterVec

	// Resolution metrics
	resolutionDuration      *prometheus.HistogramVec
	resolutionFailuresTotal *prometheus.CounterVec

	// Registration guard
	metricsOnce       sync.Once
	metricsRegistered bool
)

// InitMetrics initializes all Prometheus metrics.
// This should be called once at startup if Prometheus metrics are enabled;
// resolvers work without it (recording becomes a no-op).
func InitMetrics() {
	metricsOnce.Do(func() {
		cacheHitsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbmux_credential_cache_hits_total",
				Help: "Total number of fresh credential cache hits",
			},
			[]string{"resolver"},
		)

		cacheMissesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbmux_credential_cache_misses_total",
				Help: "Total number of credential cache misses (absent or stale)",
			},
			[]string{"resolver"},
		)

		cacheEvictionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbmux_credential_cache_evictions_total",
				Help: "Total number of cache entries evicted",
			},
			[]string{"resolver", "reason"},
		)

		resolutionDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dbmux_credential_resolution_duration_seconds",
				Help:    "Duration of uncached credential resolutions in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"resolver"},
		)

		resolutionFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbmux_credential_resolution_failures_total",
				Help: "Total number of failed credential resolutions",
			},
			[]string{"resolver", "stage"},
		)

		metricsRegistered = true
	})
}

// Label values for the resolver and stage dimensions.
const (
	resolverSecret = "secret"
	resolverToken  = "token"

	stageAssumeRole  = "assume_role"
	stageFetchSecret = "fetch_secret"
	stageBuildToken  = "build_token"
)

// Eviction reasons reported on the evictions counter.
const (
	evictExpired  = "expired"
	evictCapacity = "capacity"
)

func recordCacheHit(resolver string) {
	if !metricsRegistered || cacheHitsTotal == nil {
		return
	}
	cacheHitsTotal.WithLabelValues(resolver).Inc()
}

func recordCacheMiss(resolver string) {
	if !metricsRegistered || cacheMissesTotal == nil {
		return
	}
	cacheMissesTotal.WithLabelValues(resolver).Inc()
}

func recordEvictions(resolver, reason string, count int) {
	if !metricsRegistered || cacheEvictionsTotal == nil || count <= 0 {
		return
	}
	cacheEvictionsTotal.WithLabelValues(resolver, reason).Add(float64(count))
}

func recordResolution(resolver string, durationSeconds float64) {
	if !metricsRegistered || resolutionDuration == nil {
		return
	}
	resolutionDuration.WithLabelValues(resolver).Observe(durationSeconds)
}

func recordResolutionFailure(resolver, stage string) {
	if !metricsRegistered || resolutionFailuresTotal == nil {
		return
	}
	resolutionFailuresTotal.WithLabelValues(resolver, stage).Inc()
}

// GetCacheHitsTotal returns the cache hit counter for testing.
func GetCacheHitsTotal() *prometheus.CounterVec {
	return cacheHitsTotal
}

// GetCacheMissesTotal returns the cache miss counter for testing.
func GetCacheMissesTotal() *prometheus.CounterVec {
	return cacheMissesTotal
}

// GetCacheEvictionsTotal returns the eviction counter for testing.
func GetCacheEvictionsTotal() *prometheus.CounterVec {
	return cacheEvictionsTotal
}

// GetResolutionDuration returns the resolution duration histogram for testing.
func GetResolutionDuration() *prometheus.HistogramVec {
	return resolutionDuration
}

// GetResolutionFailuresTotal returns the failure counter for testing.
func GetResolutionFailuresTotal() *prometheus.CounterVec {
	return resolutionFailuresTotal
}

// IsMetricsRegistered returns whether metrics have been initialized.
func IsMetricsRegistered() bool {
	return metricsRegistered
}
