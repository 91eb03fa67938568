package provider

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ProviderMetrics holds Prometheus metrics for upstream calls.
type ProviderMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retriesTotal    *prometheus.CounterVec
}

var (
	providerMetrics     *ProviderMetrics
	providerMetricsOnce sync.Once
)

// GetProviderMetrics returns the singleton provider metrics instance.
func GetProviderMetrics() *ProviderMetrics {
	providerMetricsOnce.Do(func() {
		providerMetrics = newProviderMetrics()
	})
	return providerMetrics
}

// MustRegister registers all provider metric collectors with the given
// Prometheus registry.
func (m *ProviderMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.retriesTotal,
	)
}

func newProviderMetrics() *ProviderMetrics {
	return &ProviderMetrics{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nbagw",
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Total upstream requests by path and status",
		}, []string{"path", "status"}),
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nbagw",
			Subsystem: "provider",
			Name:      "request_duration_seconds",
			Help:      "Upstream request duration by path",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"path"}),
		retriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nbagw",
			Subsystem: "provider",
			Name:      "retries_total",
			Help:      "Total upstream retry attempts by path",
		}, []string{"path"}),
	}
}
