package middleware

import (
	"net/http"

	"github.com/courtline/nbagw/internal/apierr"
	"github.com/courtline/nbagw/internal/observability"
)

// Handler is an HTTP handler that reports failures by returning an
// error instead of writing its own error response.
type Handler func(w http.ResponseWriter, r *http.Request) error

// ErrorHandler adapts a Handler into an http.Handler. A returned error
// is normalized into the standard envelope, logged exactly once, and
// written exactly once. Client errors (4xx) log at warn, server errors
// (5xx) at error.
func ErrorHandler(logger observability.Logger, cfg apierr.ResponseConfig) func(Handler) http.Handler {
	m := GetMiddlewareMetrics()

	return func(h Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := h(w, r)
			if err == nil {
				return
			}

			apiErr := apierr.Normalize(err)
			requestID := observability.RequestIDFromContext(r.Context())
			correlationID := observability.CorrelationIDFromContext(r.Context())

			fields := []observability.Field{
				observability.String("code", string(apiErr.Code)),
				observability.Int("status", apiErr.StatusCode),
				observability.String("method", r.Method),
				observability.String("path", r.URL.Path),
				observability.String("request_id", requestID),
				observability.Error(apiErr),
			}
			if correlationID != "" {
				fields = append(fields,
					observability.String("correlation_id", correlationID))
			}

			if apiErr.StatusCode >= http.StatusInternalServerError {
				logger.Error("request failed", fields...)
			} else {
				logger.Warn("request failed", fields...)
			}

			m.errorsTotal.WithLabelValues(string(apiErr.Code)).Inc()

			apierr.NewResponse(apiErr, requestID, r.URL.Path, cfg).Write(w)
		})
	}
}

// NotFound returns a handler for unmatched routes that responds with
// the standard NOT_FOUND envelope.
func NotFound(cfg apierr.ResponseConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := observability.RequestIDFromContext(r.Context())
		err := apierr.NotFound("resource not found")
		apierr.NewResponse(err, requestID, r.URL.Path, cfg).Write(w)
	})
}
