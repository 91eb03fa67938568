package ratelimit

import (
	"sync"
	"time"

	"github.com/courtline/nbagw/internal/observability"
)

// windowRecord is the per-key counter for one fixed window. A record is
// created on the first request of a window and replaced, not merged,
// once its reset time has passed.
type windowRecord struct {
	count   int
	resetAt time.Time
}

// FixedWindowLimiter implements fixed-window rate limiting. The window
// is anchored at the first request of each key: resetAt = now + window,
// and the whole record is replaced after resetAt passes.
type FixedWindowLimiter struct {
	limit         int
	window        time.Duration
	sweepInterval time.Duration
	logger        observability.Logger
	now           func() time.Time

	mu      sync.Mutex
	records map[string]*windowRecord

	stopCh  chan struct{}
	doneCh  chan struct{}
	stopped bool
	stopMu  sync.Mutex
}

// FixedWindowOption is a functional option for the limiter.
type FixedWindowOption func(*FixedWindowLimiter)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) FixedWindowOption {
	return func(l *FixedWindowLimiter) {
		l.logger = logger
	}
}

// WithSweepInterval sets the purge interval for expired records.
func WithSweepInterval(interval time.Duration) FixedWindowOption {
	return func(l *FixedWindowLimiter) {
		l.sweepInterval = interval
	}
}

// withNow overrides the clock, for tests.
func withNow(now func() time.Time) FixedWindowOption {
	return func(l *FixedWindowLimiter) {
		l.now = now
	}
}

// NewFixedWindowLimiter creates a fixed window limiter and starts its
// sweep goroutine.
func NewFixedWindowLimiter(limit int, window time.Duration, opts ...FixedWindowOption) *FixedWindowLimiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}

	l := &FixedWindowLimiter{
		limit:         limit,
		window:        window,
		logger:        observability.NopLogger(),
		now:           time.Now,
		records:       make(map[string]*windowRecord),
		sweepInterval: DefaultSweepInterval,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(l)
	}

	go l.sweepLoop()

	return l
}

// Allow records one request for key and reports the decision. The
// counter is incremented first; a request is rejected when the
// incremented count exceeds the limit. Rejected requests still count,
// so a continuously hammering client stays blocked for the whole window.
func (l *FixedWindowLimiter) Allow(key string) *Result {
	now := l.now()

	l.mu.Lock()
	rec, exists := l.records[key]
	if !exists || !now.Before(rec.resetAt) {
		rec = &windowRecord{count: 0, resetAt: now.Add(l.window)}
		l.records[key] = rec
	}
	rec.count++
	count := rec.count
	resetAt := rec.resetAt
	l.mu.Unlock()

	allowed := count <= l.limit

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}

	var retryAfter time.Duration
	if !allowed {
		retryAfter = resetAt.Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		GetRateLimitMetrics().blockedTotal.Inc()
		l.logger.Debug("rate limit exceeded",
			observability.String("key", key),
			observability.Int("count", count),
			observability.Int("limit", l.limit))
	} else {
		GetRateLimitMetrics().allowedTotal.Inc()
	}

	return &Result{
		Allowed:    allowed,
		Limit:      l.limit,
		Remaining:  remaining,
		ResetAt:    resetAt,
		RetryAfter: retryAfter,
	}
}

// Reset discards the window record for key.
func (l *FixedWindowLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, key)
}

// Stop halts the sweep goroutine. Safe to call more than once.
func (l *FixedWindowLimiter) Stop() {
	l.stopMu.Lock()
	defer l.stopMu.Unlock()

	if !l.stopped {
		l.stopped = true
		close(l.stopCh)
		<-l.doneCh
	}
}

// sweepLoop periodically purges records whose window has passed,
// independent of request traffic.
func (l *FixedWindowLimiter) sweepLoop() {
	defer close(l.doneCh)

	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stopCh:
			return
		}
	}
}

// sweep removes expired window records.
func (l *FixedWindowLimiter) sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, rec := range l.records {
		if !now.Before(rec.resetAt) {
			delete(l.records, key)
			removed++
		}
	}

	GetRateLimitMetrics().trackedKeys.Set(float64(len(l.records)))

	if removed > 0 {
		l.logger.Debug("purged expired rate limit windows",
			observability.Int("removed", removed),
			observability.Int("remaining", len(l.records)))
	}
}

// size returns the number of tracked records, for tests.
func (l *FixedWindowLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
