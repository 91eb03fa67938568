package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is an adjustable clock for deterministic expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, opts ...Option) *MemoryCache {
	t.Helper()
	opts = append([]Option{WithCleanupInterval(time.Hour)}, opts...)
	c := NewMemoryCache(opts...)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "player:23", "lebron")

	value, ok := c.Get(ctx, "player:23")
	require.True(t, ok)
	assert.Equal(t, "lebron", value)
}

func TestMemoryCache_GetMiss(t *testing.T) {
	c := newTestCache(t)

	value, ok := c.Get(context.Background(), "missing")
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestMemoryCache_ExpiryIsLazy(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, withNow(clock.Now))
	ctx := context.Background()

	c.Set(ctx, "game:1", "warriors-lakers", WithTTL(time.Minute))

	_, ok := c.Get(ctx, "game:1")
	require.True(t, ok)

	clock.Advance(time.Minute + time.Second)

	// Expired entry must never be returned and is evicted on access.
	_, ok = c.Get(ctx, "game:1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats(ctx).Size)
}

func TestMemoryCache_SetWithPrefix(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "23", "lebron", WithPrefix("player"))

	_, ok := c.Get(ctx, "player:23")
	assert.True(t, ok)
}

func TestMemoryCache_Has(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, withNow(clock.Now))
	ctx := context.Background()

	c.Set(ctx, "team:gsw", "warriors", WithTTL(time.Minute))
	assert.True(t, c.Has(ctx, "team:gsw"))
	assert.False(t, c.Has(ctx, "team:nope"))

	clock.Advance(2 * time.Minute)
	assert.False(t, c.Has(ctx, "team:gsw"))
}

func TestMemoryCache_Delete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "player:1", "a")
	assert.True(t, c.Delete(ctx, "player:1"))
	assert.False(t, c.Delete(ctx, "player:1"))
}

func TestMemoryCache_DeletePattern(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "player:1", "a")
	c.Set(ctx, "player:2", "b")
	c.Set(ctx, "player:1:stats", "c")
	c.Set(ctx, "team:1", "d")

	deleted := c.DeletePattern(ctx, "player:*")
	assert.Equal(t, 3, deleted)

	// Only the matching keys are gone.
	_, ok := c.Get(ctx, "team:1")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "player:1")
	assert.False(t, ok)
}

func TestMemoryCache_DeletePattern_FullStringMatch(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "player:1", "a")
	c.Set(ctx, "superplayer:1", "b")

	// No implicit wildcard at the edges.
	assert.Equal(t, 1, c.DeletePattern(ctx, "player:*"))
	_, ok := c.Get(ctx, "superplayer:1")
	assert.True(t, ok)
}

func TestMemoryCache_DeletePattern_WildcardCrossesNewlines(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "player:a\nb", "v")

	assert.Equal(t, 1, c.DeletePattern(ctx, "player:*"))
	_, ok := c.Get(ctx, "player:a\nb")
	assert.False(t, ok)
}

func TestMemoryCache_DeletePattern_InvalidPattern(t *testing.T) {
	c := newTestCache(t)
	// Regex metacharacters in the glob literal must be escaped, never
	// interpreted.
	c.Set(context.Background(), "a(b", "v")
	assert.Equal(t, 1, c.DeletePattern(context.Background(), "a(b"))
}

func TestMemoryCache_Clear(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Clear(ctx)

	assert.Equal(t, Stats{}, c.Stats(ctx))
}

func TestMemoryCache_TTL(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, withNow(clock.Now))
	ctx := context.Background()

	c.Set(ctx, "game:7", "score", WithTTL(time.Minute))

	remaining := c.TTL(ctx, "game:7")
	assert.Equal(t, time.Minute, remaining)

	clock.Advance(30 * time.Second)
	assert.Equal(t, 30*time.Second, c.TTL(ctx, "game:7"))

	clock.Advance(31 * time.Second)
	assert.Equal(t, time.Duration(-1), c.TTL(ctx, "game:7"))
	assert.Equal(t, time.Duration(-1), c.TTL(ctx, "absent"))
}

func TestMemoryCache_Stats(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, withNow(clock.Now))
	ctx := context.Background()

	c.Set(ctx, "a", 1, WithTTL(time.Minute))
	c.Set(ctx, "b", 2, WithTTL(time.Hour))

	clock.Advance(2 * time.Minute)

	stats := c.Stats(ctx)
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, 1, stats.ValidKeys)
}

func TestMemoryCache_Sweep(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, withNow(clock.Now))
	ctx := context.Background()

	c.Set(ctx, "a", 1, WithTTL(time.Minute))
	c.Set(ctx, "b", 2, WithTTL(time.Hour))

	clock.Advance(2 * time.Minute)
	c.evictExpired()

	stats := c.Stats(ctx)
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, 1, stats.ValidKeys)
}

func TestMemoryCache_ClosedOperationsAreNoOps(t *testing.T) {
	c := NewMemoryCache(WithCleanupInterval(time.Hour))
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	require.NoError(t, c.Close())

	// Every operation returns the empty result, none panics.
	value, ok := c.Get(ctx, "a")
	assert.Nil(t, value)
	assert.False(t, ok)
	assert.False(t, c.Has(ctx, "a"))
	assert.False(t, c.Delete(ctx, "a"))
	assert.Equal(t, 0, c.DeletePattern(ctx, "*"))
	assert.Equal(t, time.Duration(-1), c.TTL(ctx, "a"))
	assert.Equal(t, Stats{}, c.Stats(ctx))
	c.Set(ctx, "b", 2)
	c.Clear(ctx)

	// Close is idempotent.
	require.NoError(t, c.Close())
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := Key("player", string(rune('a'+n)))
				c.Set(ctx, key, j)
				c.Get(ctx, key)
				c.Has(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, c.Stats(ctx).ValidKeys)
}

func TestCompileGlob(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		match   bool
	}{
		{"player:*", "player:1", true},
		{"player:*", "player:", true},
		{"player:*", "team:1", false},
		{"*", "anything", true},
		{"player:*:stats", "player:7:stats", true},
		{"player:*:stats", "player:7:bio", false},
		{"exact", "exact", true},
		{"exact", "exactly", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.key, func(t *testing.T) {
			re, err := compileGlob(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.match, re.MatchString(tt.key))
		})
	}
}
