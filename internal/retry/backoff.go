package retry

import (
	"math"
	"math/rand"
	"time"
)

// Jitter bounds: each delay is perturbed by 10-50% of its capped value.
const (
	minJitterFraction = 0.10
	maxJitterFraction = 0.50
)

// Backoff computes the pre-jitter delay before the attempt following
// attempt: min(initial * multiplier^attempt, maxDelay).
func Backoff(attempt int, initial, maxDelay time.Duration, multiplier float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(initial) * math.Pow(multiplier, float64(attempt))
	if delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}

	return time.Duration(delay)
}

// ApplyJitter perturbs delay by a random amount between 10% and 50% of
// its value, added or subtracted with equal probability. Randomness
// here is for timing spread, not security.
//
//nolint:gosec // G404: jitter for retry timing is not security-sensitive
func ApplyJitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return delay
	}

	fraction := minJitterFraction + rand.Float64()*(maxJitterFraction-minJitterFraction)
	offset := time.Duration(float64(delay) * fraction)
	if rand.Intn(2) == 0 {
		return delay + offset
	}
	jittered := delay - offset
	if jittered < 0 {
		jittered = 0
	}
	return jittered
}
