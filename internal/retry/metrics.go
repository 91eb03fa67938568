package retry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Attempt outcome label values.
const (
	outcomeSuccess   = "success"
	outcomeError     = "error"
	outcomeExhausted = "exhausted"
	outcomeTimeout   = "timeout"
)

var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nbagw",
		Subsystem: "retry",
		Name:      "attempts_total",
		Help:      "Total retry executor attempts by outcome",
	}, []string{"outcome"})

	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nbagw",
		Subsystem: "retry",
		Name:      "retries_total",
		Help:      "Total backoff sleeps taken before re-attempts",
	})
)

// MustRegister registers retry metric collectors with the given
// Prometheus registry so they appear on the service /metrics endpoint.
func MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(attemptsTotal, retriesTotal)
}
