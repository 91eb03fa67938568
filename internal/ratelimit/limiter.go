package ratelimit

import (
	"time"
)

// Default limiter configuration constants.
const (
	// DefaultLimit is the default number of requests per window.
	DefaultLimit = 100

	// DefaultWindow is the default window length.
	DefaultWindow = time.Minute

	// DefaultSweepInterval is the default interval for purging
	// expired window records.
	DefaultSweepInterval = time.Minute
)

// Limiter is the interface for rate limiting.
type Limiter interface {
	// Allow records one request for key and reports the decision.
	Allow(key string) *Result

	// Reset discards the window record for key.
	Reset(key string)

	// Stop halts the background sweep. The limiter keeps answering
	// Allow afterwards; only the sweep stops.
	Stop()
}

// Result is the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the request may proceed.
	Allowed bool

	// Limit is the maximum number of requests per window.
	Limit int

	// Remaining is how many requests are left in the current window,
	// floored at zero.
	Remaining int

	// ResetAt is when the current window ends.
	ResetAt time.Time

	// RetryAfter is how long a rejected caller should wait. Zero when
	// allowed.
	RetryAfter time.Duration
}

// NoopLimiter allows every request.
type NoopLimiter struct{}

// NewNoopLimiter creates a limiter that never blocks.
func NewNoopLimiter() *NoopLimiter {
	return &NoopLimiter{}
}

// Allow implements Limiter.
func (l *NoopLimiter) Allow(string) *Result {
	return &Result{Allowed: true}
}

// Reset implements Limiter.
func (l *NoopLimiter) Reset(string) {}

// Stop implements Limiter.
func (l *NoopLimiter) Stop() {}
