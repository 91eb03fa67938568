package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/courtline/nbagw/internal/apierr"
	"github.com/courtline/nbagw/internal/ratelimit"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	limiter := ratelimit.NewFixedWindowLimiter(3, time.Minute)
	defer limiter.Stop()

	handler := RateLimit(RateLimitConfig{Limiter: limiter})(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "3", rec.Header().Get(HeaderRateLimitLimit))
		assert.Equal(t, strconv.Itoa(2-i), rec.Header().Get(HeaderRateLimitRemaining))
		assert.NotEmpty(t, rec.Header().Get(HeaderRateLimitReset))
	}
}

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	limiter := ratelimit.NewFixedWindowLimiter(1, time.Minute)
	defer limiter.Stop()

	handler := RateLimit(RateLimitConfig{Limiter: limiter})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/players", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/players", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get(HeaderRateLimitRemaining))
	assert.NotEmpty(t, rec.Header().Get(HeaderRetryAfter))

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, apierr.CodeRateLimited, resp.Error.Code)
	assert.Equal(t, http.StatusTooManyRequests, resp.Error.StatusCode)
	assert.Equal(t, "/api/v1/players", resp.Error.Path)

	// The retry delay is part of the body, not just the header, and
	// the two agree.
	retryAfter, ok := resp.Error.Details["retryAfter"].(float64)
	assert.True(t, ok, "details should carry a numeric retryAfter")
	assert.GreaterOrEqual(t, retryAfter, float64(1))
	assert.Equal(t, rec.Header().Get(HeaderRetryAfter), strconv.FormatInt(int64(retryAfter), 10))
}

func TestRateLimit_CustomStatusCode(t *testing.T) {
	limiter := ratelimit.NewFixedWindowLimiter(1, time.Minute)
	defer limiter.Stop()

	handler := RateLimit(RateLimitConfig{
		Limiter:    limiter,
		StatusCode: http.StatusServiceUnavailable,
	})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, apierr.CodeRateLimited, resp.Error.Code)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Error.StatusCode)
}

func TestRateLimit_PerKeyIsolation(t *testing.T) {
	limiter := ratelimit.NewFixedWindowLimiter(1, time.Minute)
	defer limiter.Stop()

	handler := RateLimit(RateLimitConfig{
		Limiter: limiter,
		KeyFunc: ratelimit.HeaderKeyFunc("X-API-Key"),
	})(okHandler())

	reqA := httptest.NewRequest(http.MethodGet, "/", nil)
	reqA.Header.Set("X-API-Key", "alpha")
	reqB := httptest.NewRequest(http.MethodGet, "/", nil)
	reqB.Header.Set("X-API-Key", "beta")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, reqA)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A is exhausted, B still has its own window.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, reqA)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, reqB)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_SkipBypassesLimiter(t *testing.T) {
	limiter := ratelimit.NewFixedWindowLimiter(1, time.Minute)
	defer limiter.Stop()

	handler := RateLimit(RateLimitConfig{
		Limiter: limiter,
		Skip: func(r *http.Request) bool {
			return strings.HasPrefix(r.URL.Path, "/healthz")
		},
	})(okHandler())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get(HeaderRateLimitLimit))
	}

	// Non-skipped traffic still consumes the window.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/teams", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/teams", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimit_CustomHandler(t *testing.T) {
	limiter := ratelimit.NewFixedWindowLimiter(1, time.Minute)
	defer limiter.Stop()

	handler := RateLimit(RateLimitConfig{
		Limiter: limiter,
		Handler: func(w http.ResponseWriter, r *http.Request, res *ratelimit.Result) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
	})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRetryAfterSeconds_RoundsUp(t *testing.T) {
	assert.Equal(t, int64(1), retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, int64(1), retryAfterSeconds(time.Second))
	assert.Equal(t, int64(2), retryAfterSeconds(1100*time.Millisecond))
	assert.Equal(t, int64(30), retryAfterSeconds(30*time.Second))
	assert.Equal(t, int64(1), retryAfterSeconds(0))
}
