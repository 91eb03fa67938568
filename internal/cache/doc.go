// Package cache implements the per-process TTL response cache.
//
// Entries expire lazily on access and eagerly through a periodic sweep
// goroutine owned by the cache, so write-heavy keys that are never read
// again still get reclaimed. Bulk invalidation uses '*'-glob patterns
// matched against the full key. A closed cache answers every operation
// with its empty result instead of failing, which keeps shutdown races
// with in-flight requests harmless.
//
// The cache is deliberately per-process: no cross-instance coordination,
// and no request coalescing for concurrent misses on the same key.
package cache
