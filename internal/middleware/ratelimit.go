package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/courtline/nbagw/internal/apierr"
	"github.com/courtline/nbagw/internal/observability"
	"github.com/courtline/nbagw/internal/ratelimit"
)

// RateLimitConfig configures the rate limit middleware.
type RateLimitConfig struct {
	// Limiter decides whether a request may proceed. Required.
	Limiter ratelimit.Limiter

	// KeyFunc extracts the tracking key from the request. Defaults to
	// the client IP.
	KeyFunc ratelimit.KeyFunc

	// Skip, when set, exempts matching requests from limiting. Skipped
	// requests touch no counters and receive no rate limit headers.
	Skip func(r *http.Request) bool

	// Handler, when set, replaces the default blocked-request response.
	Handler func(w http.ResponseWriter, r *http.Request, res *ratelimit.Result)

	// StatusCode is returned on blocked requests. Defaults to 429.
	StatusCode int

	// Logger for blocked-request logging. Defaults to a nop logger.
	Logger observability.Logger

	// ResponseConfig controls the error envelope for blocked requests.
	ResponseConfig apierr.ResponseConfig
}

// RateLimit returns a middleware that applies fixed-window rate
// limiting. Every limited response carries X-RateLimit-Limit,
// X-RateLimit-Remaining, and X-RateLimit-Reset headers; blocked
// requests additionally carry Retry-After and the standard error
// envelope with code RATE_LIMITED.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = ratelimit.IPKeyFunc
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	statusCode := cfg.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusTooManyRequests
	}

	m := GetMiddlewareMetrics()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFunc(r)
			res := cfg.Limiter.Allow(key)

			setRateLimitHeaders(w, res)

			if !res.Allowed {
				m.rateLimitRejected.Inc()

				logger.Warn("rate limit exceeded",
					observability.String("key", key),
					observability.String("path", r.URL.Path),
					observability.Duration("retry_after", res.RetryAfter),
				)

				if cfg.Handler != nil {
					cfg.Handler(w, r, res)
					return
				}

				retryAfter := retryAfterSeconds(res.RetryAfter)
				w.Header().Set(HeaderRetryAfter, strconv.FormatInt(retryAfter, 10))

				requestID := observability.RequestIDFromContext(r.Context())
				err := apierr.NewWithStatus(apierr.CodeRateLimited, "too many requests, please try again later", statusCode).
					WithDetails(map[string]interface{}{"retryAfter": retryAfter})
				apierr.NewResponse(err, requestID, r.URL.Path, cfg.ResponseConfig).Write(w)
				return
			}

			m.rateLimitAllowed.Inc()
			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, res *ratelimit.Result) {
	w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(res.Limit))
	w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(res.Remaining))
	w.Header().Set(HeaderRateLimitReset, strconv.FormatInt(res.ResetAt.Unix(), 10))
}

// retryAfterSeconds converts a retry delay to whole seconds, rounded
// up so clients never retry before the window resets.
func retryAfterSeconds(d time.Duration) int64 {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
