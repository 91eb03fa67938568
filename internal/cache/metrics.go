package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CacheMetrics holds Prometheus metrics for cache operations.
type CacheMetrics struct {
	hitsTotal         prometheus.Counter
	missesTotal       prometheus.Counter
	evictionsTotal    *prometheus.CounterVec
	sizeGauge         prometheus.Gauge
	operationDuration *prometheus.HistogramVec
}

var (
	cacheMetricsInstance *CacheMetrics
	cacheMetricsOnce     sync.Once
)

// GetCacheMetrics returns the singleton cache metrics instance.
func GetCacheMetrics() *CacheMetrics {
	cacheMetricsOnce.Do(func() {
		cacheMetricsInstance = newCacheMetrics()
	})
	return cacheMetricsInstance
}

// MustRegister registers all cache metric collectors with the given
// Prometheus registry. promauto registers with the default global
// registry, but the service serves /metrics from a private registry;
// this bridges the two.
func (m *CacheMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.hitsTotal,
		m.missesTotal,
		m.evictionsTotal,
		m.sizeGauge,
		m.operationDuration,
	)
}

// Init pre-initializes label combinations so metrics appear in /metrics
// output immediately after startup. Idempotent.
func (m *CacheMetrics) Init() {
	for _, reason := range []string{"lazy", "sweep"} {
		m.evictionsTotal.WithLabelValues(reason)
	}
	for _, op := range []string{"get", "set", "delete"} {
		m.operationDuration.WithLabelValues(op)
	}
}

func newCacheMetrics() *CacheMetrics {
	return &CacheMetrics{
		hitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "nbagw",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits",
		}),
		missesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "nbagw",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses",
		}),
		evictionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nbagw",
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Total number of evicted entries",
		}, []string{"reason"}),
		sizeGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "nbagw",
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Current number of cache entries",
		}),
		operationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nbagw",
			Subsystem: "cache",
			Name:      "operation_duration_seconds",
			Help:      "Duration of cache operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}
