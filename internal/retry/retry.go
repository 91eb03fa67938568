package retry

import (
	"context"
	"errors"
	"time"
)

// Default retry configuration constants.
const (
	// DefaultMaxAttempts is the default maximum number of calls.
	DefaultMaxAttempts = 3

	// DefaultInitialDelay is the default first backoff delay.
	DefaultInitialDelay = 100 * time.Millisecond

	// DefaultMaxDelay is the default backoff cap.
	DefaultMaxDelay = 10 * time.Second

	// DefaultMultiplier is the default backoff growth factor.
	DefaultMultiplier = 2.0
)

// ErrTimeout is returned when the overall retry time budget is
// exhausted before an attempt could start.
var ErrTimeout = errors.New("retry: time budget exhausted")

// Config contains retry configuration. It is immutable for the duration
// of a Do call.
type Config struct {
	// MaxAttempts is the maximum number of times the function is
	// called. Default is 3.
	MaxAttempts int

	// InitialDelay is the first backoff delay. Default is 100ms.
	InitialDelay time.Duration

	// MaxDelay caps backoff growth. Default is 10s.
	MaxDelay time.Duration

	// Multiplier is the exponential growth factor. Default is 2.0.
	Multiplier float64

	// Jitter enables random perturbation of each delay by 10-50% of
	// the capped value, added or subtracted with equal probability.
	Jitter bool

	// Timeout is the overall time budget across all attempts. Zero
	// means no budget. The budget is checked before each attempt; an
	// attempt already in flight is not interrupted by it.
	Timeout time.Duration
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Multiplier:   DefaultMultiplier,
		Jitter:       true,
	}
}

// normalize fills invalid fields with defaults.
func (c *Config) normalize() Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = DefaultMaxAttempts
	}
	if out.InitialDelay <= 0 {
		out.InitialDelay = DefaultInitialDelay
	}
	if out.MaxDelay <= 0 {
		out.MaxDelay = DefaultMaxDelay
	}
	if out.Multiplier <= 0 {
		out.Multiplier = DefaultMultiplier
	}
	return out
}

// EventType identifies a retry lifecycle event.
type EventType string

// Retry lifecycle events.
const (
	// EventAttempt is emitted before each call of the function.
	EventAttempt EventType = "attempt"

	// EventRetry is emitted after the backoff sleep preceding the
	// next attempt.
	EventRetry EventType = "retry"

	// EventSuccess is emitted once when an attempt succeeds.
	EventSuccess EventType = "success"

	// EventFailure is emitted once when all attempts are exhausted or
	// a non-retryable error occurs.
	EventFailure EventType = "failure"
)

// Event describes a retry lifecycle transition. Events are emitted,
// never stored.
type Event struct {
	Type          EventType
	Attempt       int
	Delay         time.Duration
	Err           error
	TotalDuration time.Duration
}

// ShouldRetryFunc determines whether an error at a given attempt should
// trigger another attempt.
type ShouldRetryFunc func(err error, attempt int) bool

// OnEventFunc observes retry lifecycle events.
type OnEventFunc func(Event)

// Options contains optional retry behavior.
type Options struct {
	// ShouldRetry classifies errors. Nil means the default transient
	// network classification.
	ShouldRetry ShouldRetryFunc

	// OnEvent observes lifecycle events. Nil disables emission.
	OnEvent OnEventFunc
}

// Do executes fn with retry semantics.
//
// The function is called at most cfg.MaxAttempts times. A non-retryable
// error, the last attempt's error, an exceeded time budget, or context
// cancellation ends the loop; the original error propagates unchanged.
func Do[T any](ctx context.Context, cfg *Config, fn func(context.Context) (T, error), opts *Options) (T, error) {
	var zero T

	conf := cfg.normalize()
	shouldRetry := defaultShouldRetry
	var onEvent OnEventFunc
	if opts != nil {
		if opts.ShouldRetry != nil {
			shouldRetry = opts.ShouldRetry
		}
		onEvent = opts.OnEvent
	}
	emit := func(ev Event) {
		if onEvent != nil {
			onEvent(ev)
		}
	}

	start := time.Now()

	var lastErr error
	lastAttempt := 0
	for attempt := 0; attempt < conf.MaxAttempts; attempt++ {
		lastAttempt = attempt
		emit(Event{Type: EventAttempt, Attempt: attempt})

		if conf.Timeout > 0 && time.Since(start) > conf.Timeout {
			err := ErrTimeout
			emit(Event{Type: EventFailure, Attempt: attempt, Err: err,
				TotalDuration: time.Since(start)})
			attemptsTotal.WithLabelValues(outcomeTimeout).Inc()
			return zero, err
		}

		if err := ctx.Err(); err != nil {
			emit(Event{Type: EventFailure, Attempt: attempt, Err: err,
				TotalDuration: time.Since(start)})
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			emit(Event{Type: EventSuccess, Attempt: attempt,
				TotalDuration: time.Since(start)})
			attemptsTotal.WithLabelValues(outcomeSuccess).Inc()
			return result, nil
		}
		lastErr = err
		attemptsTotal.WithLabelValues(outcomeError).Inc()

		if attempt == conf.MaxAttempts-1 || !shouldRetry(err, attempt) {
			break
		}

		delay := Backoff(attempt, conf.InitialDelay, conf.MaxDelay, conf.Multiplier)
		if conf.Jitter {
			delay = ApplyJitter(delay)
		}

		select {
		case <-ctx.Done():
			emit(Event{Type: EventFailure, Attempt: attempt, Err: ctx.Err(),
				TotalDuration: time.Since(start)})
			return zero, ctx.Err()
		case <-time.After(delay):
		}

		emit(Event{Type: EventRetry, Attempt: attempt, Delay: delay, Err: err})
		retriesTotal.Inc()
	}

	emit(Event{Type: EventFailure, Attempt: lastAttempt, Err: lastErr,
		TotalDuration: time.Since(start)})
	attemptsTotal.WithLabelValues(outcomeExhausted).Inc()
	return zero, lastErr
}
