package ratelimit

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RateLimitMetrics holds Prometheus metrics for rate limiting.
type RateLimitMetrics struct {
	allowedTotal prometheus.Counter
	blockedTotal prometheus.Counter
	trackedKeys  prometheus.Gauge
}

var (
	rateLimitMetricsInstance *RateLimitMetrics
	rateLimitMetricsOnce     sync.Once
)

// GetRateLimitMetrics returns the singleton rate limit metrics instance.
func GetRateLimitMetrics() *RateLimitMetrics {
	rateLimitMetricsOnce.Do(func() {
		rateLimitMetricsInstance = newRateLimitMetrics()
	})
	return rateLimitMetricsInstance
}

// MustRegister registers the collectors with the given registry.
func (m *RateLimitMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(m.allowedTotal, m.blockedTotal, m.trackedKeys)
}

func newRateLimitMetrics() *RateLimitMetrics {
	return &RateLimitMetrics{
		allowedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "nbagw",
			Subsystem: "ratelimit",
			Name:      "allowed_total",
			Help:      "Total requests allowed through the rate limiter",
		}),
		blockedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "nbagw",
			Subsystem: "ratelimit",
			Name:      "blocked_total",
			Help:      "Total requests rejected by the rate limiter",
		}),
		trackedKeys: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "nbagw",
			Subsystem: "ratelimit",
			Name:      "tracked_keys",
			Help:      "Current number of tracked window records",
		}),
	}
}
