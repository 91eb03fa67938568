package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/courtline/nbagw/internal/apierr"
	"github.com/courtline/nbagw/internal/observability"
)

// Recovery returns a middleware that recovers from panics. The
// recovered value is normalized into the standard error envelope so a
// panicking handler produces the same wire contract as a returned
// error.
func Recovery(logger observability.Logger, cfg apierr.ResponseConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					stack := debug.Stack()

					requestID := observability.RequestIDFromContext(r.Context())

					logger.Error("panic recovered",
						observability.String("path", r.URL.Path),
						observability.String("method", r.Method),
						observability.String("request_id", requestID),
						observability.Any("error", v),
						observability.String("stack", string(stack)),
					)

					GetMiddlewareMetrics().panicsRecovered.Inc()

					apiErr := apierr.NormalizeValue(v)
					apierr.NewResponse(apiErr, requestID, r.URL.Path, cfg).Write(w)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
