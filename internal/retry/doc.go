// Package retry wraps upstream calls in a bounded retry loop with
// exponentially growing, jittered delays.
//
// The executor calls the wrapped function at most MaxAttempts times.
// Failures are classified retryable or not, by default against a set of
// transient network conditions. Delays grow as
// min(initial*multiplier^attempt, max); jitter perturbs each delay by
// 10-50% in either direction so concurrent callers do not hammer a
// degraded upstream in lockstep. An optional overall time budget aborts
// between attempts; calls already in flight are cancelled only through
// the caller's context. Lifecycle events (attempt, retry, success,
// failure) are emitted to an optional observer.
package retry
