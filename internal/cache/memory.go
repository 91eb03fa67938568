package cache

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/courtline/nbagw/internal/observability"
)

// cacheTracerName is the OpenTelemetry tracer name for cache operations.
const cacheTracerName = "nbagw/cache"

// MemoryCache is the in-process TTL cache implementation.
type MemoryCache struct {
	logger          observability.Logger
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	now             func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// Option is a functional option for configuring the memory cache.
type Option func(*MemoryCache)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(c *MemoryCache) {
		c.logger = logger
	}
}

// WithDefaultTTL sets the default entry lifetime.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *MemoryCache) {
		c.defaultTTL = ttl
	}
}

// WithCleanupInterval sets the background sweep interval.
func WithCleanupInterval(interval time.Duration) Option {
	return func(c *MemoryCache) {
		c.cleanupInterval = interval
	}
}

// withNow overrides the clock, for tests.
func withNow(now func() time.Time) Option {
	return func(c *MemoryCache) {
		c.now = now
	}
}

// NewMemoryCache creates a new memory cache and starts its sweep goroutine.
func NewMemoryCache(opts ...Option) *MemoryCache {
	c := &MemoryCache{
		logger:          observability.NopLogger(),
		defaultTTL:      DefaultTTL,
		cleanupInterval: DefaultCleanupInterval,
		now:             time.Now,
		entries:         make(map[string]*entry),
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupLoop()

	c.logger.Info("memory cache initialized",
		observability.Duration("defaultTTL", c.defaultTTL),
		observability.Duration("cleanupInterval", c.cleanupInterval))

	return c
}

// Get retrieves a value, evicting it lazily when expired.
func (c *MemoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	_, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Get",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("cache.key", key)),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		GetCacheMetrics().operationDuration.WithLabelValues("get").
			Observe(time.Since(start).Seconds())
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, false
	}

	e, exists := c.entries[key]
	if !exists {
		GetCacheMetrics().missesTotal.Inc()
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, false
	}

	if e.expired(c.now()) {
		delete(c.entries, key)
		GetCacheMetrics().missesTotal.Inc()
		GetCacheMetrics().evictionsTotal.WithLabelValues("lazy").Inc()
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, false
	}

	GetCacheMetrics().hitsTotal.Inc()
	span.SetAttributes(attribute.Bool("cache.hit", true))

	c.logger.Debug("cache hit", observability.String("key", key))

	return e.value, true
}

// Set stores a value under key.
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, opts ...SetOption) {
	_, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Set",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("cache.key", key)),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		GetCacheMetrics().operationDuration.WithLabelValues("set").
			Observe(time.Since(start).Seconds())
	}()

	options := setOptions{ttl: c.defaultTTL}
	for _, opt := range opts {
		opt(&options)
	}
	if options.prefix != "" {
		key = options.prefix + ":" + key
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.entries[key] = &entry{
		value:     value,
		expiresAt: c.now().Add(options.ttl),
	}

	GetCacheMetrics().sizeGauge.Set(float64(len(c.entries)))

	c.logger.Debug("cache set",
		observability.String("key", key),
		observability.Duration("ttl", options.ttl),
		observability.Int("size", len(c.entries)))
}

// Has reports whether a live entry exists, with the same lazy eviction
// as Get.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	e, exists := c.entries[key]
	if !exists {
		return false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		GetCacheMetrics().evictionsTotal.WithLabelValues("lazy").Inc()
		return false
	}
	return true
}

// Delete removes an entry, reporting whether it existed.
func (c *MemoryCache) Delete(ctx context.Context, key string) bool {
	start := time.Now()
	defer func() {
		GetCacheMetrics().operationDuration.WithLabelValues("delete").
			Observe(time.Since(start).Seconds())
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	if _, exists := c.entries[key]; !exists {
		return false
	}
	delete(c.entries, key)
	GetCacheMetrics().sizeGauge.Set(float64(len(c.entries)))

	c.logger.Debug("cache deleted", observability.String("key", key))
	return true
}

// DeletePattern removes every entry whose key matches the glob pattern
// and returns the number deleted. The pattern matches the full key;
// '*' matches any run of characters.
func (c *MemoryCache) DeletePattern(ctx context.Context, pattern string) int {
	re, err := compileGlob(pattern)
	if err != nil {
		c.logger.Warn("invalid cache key pattern",
			observability.String("pattern", pattern),
			observability.Error(err))
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0
	}

	deleted := 0
	for key := range c.entries {
		if re.MatchString(key) {
			delete(c.entries, key)
			deleted++
		}
	}

	if deleted > 0 {
		GetCacheMetrics().sizeGauge.Set(float64(len(c.entries)))
		c.logger.Debug("cache pattern delete",
			observability.String("pattern", pattern),
			observability.Int("deleted", deleted))
	}

	return deleted
}

// Clear removes all entries.
func (c *MemoryCache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.entries = make(map[string]*entry)
	GetCacheMetrics().sizeGauge.Set(0)

	c.logger.Debug("cache cleared")
}

// TTL returns the remaining lifetime of an entry, or -1 when the key is
// absent or expired.
func (c *MemoryCache) TTL(ctx context.Context, key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return -1
	}

	e, exists := c.entries[key]
	if !exists {
		return -1
	}

	remaining := e.expiresAt.Sub(c.now())
	if remaining <= 0 {
		return -1
	}
	return remaining
}

// Stats returns the current size and live-entry count.
func (c *MemoryCache) Stats(ctx context.Context) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Stats{}
	}

	now := c.now()
	valid := 0
	for _, e := range c.entries {
		if !e.expired(now) {
			valid++
		}
	}

	return Stats{Size: len(c.entries), ValidKeys: valid}
}

// Close stops the sweep goroutine and disposes the cache. Subsequent
// operations are no-ops. Safe to call more than once.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.entries = make(map[string]*entry)
	close(c.stopCh)
	c.mu.Unlock()

	<-c.doneCh

	c.logger.Info("memory cache closed")
	return nil
}

// cleanupLoop periodically evicts expired entries. The loop exits on
// Close, so the ticker never keeps the process alive.
func (c *MemoryCache) cleanupLoop() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stopCh:
			return
		}
	}
}

// evictExpired scans all entries and removes any already expired.
func (c *MemoryCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	now := c.now()
	evicted := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			evicted++
		}
	}

	if evicted > 0 {
		GetCacheMetrics().evictionsTotal.WithLabelValues("sweep").Add(float64(evicted))
		GetCacheMetrics().sizeGauge.Set(float64(len(c.entries)))
		c.logger.Debug("cache sweep",
			observability.Int("evicted", evicted),
			observability.Int("remaining", len(c.entries)))
	}
}

// compileGlob compiles a '*'-glob into a full-string regexp.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "*")
	escaped := make([]string, len(parts))
	for i, part := range parts {
		escaped[i] = regexp.QuoteMeta(part)
	}
	// (?s) lets '*' cross newlines so it matches any run of characters.
	return regexp.Compile("(?s)^" + strings.Join(escaped, ".*") + "$")
}
