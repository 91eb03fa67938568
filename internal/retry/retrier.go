package retry

import (
	"context"
	"time"
)

// Retrier is a fluent builder over Config and Options. It adds no
// semantics beyond Do; it exists so call sites can read as prose.
type Retrier struct {
	cfg  Config
	opts Options
}

// NewRetrier creates a Retrier with the default configuration.
func NewRetrier() *Retrier {
	return &Retrier{cfg: *DefaultConfig()}
}

// WithMaxAttempts sets the maximum number of calls.
func (r *Retrier) WithMaxAttempts(n int) *Retrier {
	r.cfg.MaxAttempts = n
	return r
}

// WithInitialDelay sets the first backoff delay.
func (r *Retrier) WithInitialDelay(d time.Duration) *Retrier {
	r.cfg.InitialDelay = d
	return r
}

// WithMaxDelay sets the backoff cap.
func (r *Retrier) WithMaxDelay(d time.Duration) *Retrier {
	r.cfg.MaxDelay = d
	return r
}

// WithMultiplier sets the backoff growth factor.
func (r *Retrier) WithMultiplier(f float64) *Retrier {
	r.cfg.Multiplier = f
	return r
}

// WithJitter enables or disables delay jitter.
func (r *Retrier) WithJitter(enabled bool) *Retrier {
	r.cfg.Jitter = enabled
	return r
}

// WithTimeout sets the overall time budget.
func (r *Retrier) WithTimeout(d time.Duration) *Retrier {
	r.cfg.Timeout = d
	return r
}

// WithShouldRetry sets the error classification.
func (r *Retrier) WithShouldRetry(fn ShouldRetryFunc) *Retrier {
	r.opts.ShouldRetry = fn
	return r
}

// WithOnEvent sets the lifecycle event observer.
func (r *Retrier) WithOnEvent(fn OnEventFunc) *Retrier {
	r.opts.OnEvent = fn
	return r
}

// Config returns a copy of the built configuration.
func (r *Retrier) Config() *Config {
	cfg := r.cfg
	return &cfg
}

// Options returns a copy of the built options.
func (r *Retrier) Options() *Options {
	opts := r.opts
	return &opts
}

// Named presets. Pure configuration sugar over the same executor.

// Fast returns a preset for latency-sensitive paths: few attempts,
// short delays.
func Fast() *Retrier {
	return NewRetrier().
		WithMaxAttempts(2).
		WithInitialDelay(50 * time.Millisecond).
		WithMaxDelay(500 * time.Millisecond)
}

// Standard returns the default preset.
func Standard() *Retrier {
	return NewRetrier()
}

// Aggressive returns a preset that tries hard against flaky upstreams.
func Aggressive() *Retrier {
	return NewRetrier().
		WithMaxAttempts(5).
		WithInitialDelay(100 * time.Millisecond).
		WithMaxDelay(5 * time.Second)
}

// Conservative returns a preset with long, widely spaced attempts for
// background work.
func Conservative() *Retrier {
	return NewRetrier().
		WithMaxAttempts(4).
		WithInitialDelay(time.Second).
		WithMaxDelay(30 * time.Second)
}

// DoWith executes fn using the retrier's built configuration. Methods
// cannot carry type parameters, so this is a package-level companion to
// the builder.
func DoWith[T any](ctx context.Context, r *Retrier, fn func(context.Context) (T, error)) (T, error) {
	return Do(ctx, r.Config(), fn, r.Options())
}
