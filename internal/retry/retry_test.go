package retry

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectEvents returns an observer and the slice it appends to.
func collectEvents() (*[]Event, OnEventFunc) {
	events := &[]Event{}
	return events, func(ev Event) {
		*events = append(*events, ev)
	}
}

func countEvents(events []Event, typ EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	events, onEvent := collectEvents()

	calls := 0
	result, err := Do(context.Background(), fastConfig(3), func(context.Context) (string, error) {
		calls++
		return "ok", nil
	}, &Options{OnEvent: onEvent})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, countEvents(*events, EventAttempt))
	assert.Equal(t, 0, countEvents(*events, EventRetry))
	assert.Equal(t, 1, countEvents(*events, EventSuccess))
	assert.Equal(t, 0, countEvents(*events, EventFailure))
}

func TestDo_TransientFailuresThenSuccess(t *testing.T) {
	events, onEvent := collectEvents()

	calls := 0
	result, err := Do(context.Background(), fastConfig(5), func(context.Context) (int, error) {
		calls++
		if calls <= 2 {
			return 0, syscall.ECONNRESET
		}
		return 42, nil
	}, &Options{OnEvent: onEvent})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, countEvents(*events, EventRetry))
	assert.Equal(t, 1, countEvents(*events, EventSuccess))
}

func TestDo_NonRetryableFailsAfterOneAttempt(t *testing.T) {
	events, onEvent := collectEvents()
	permanent := errors.New("bad credentials")

	calls := 0
	_, err := Do(context.Background(), fastConfig(5), func(context.Context) (int, error) {
		calls++
		return 0, permanent
	}, &Options{
		ShouldRetry: func(error, int) bool { return false },
		OnEvent:     onEvent,
	})

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, countEvents(*events, EventRetry))
	assert.Equal(t, 1, countEvents(*events, EventFailure))
}

func TestDo_DefaultClassificationRejectsPlainErrors(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(5), func(context.Context) (int, error) {
		calls++
		return 0, errors.New("schema mismatch")
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls, "non-transient errors must not be retried")
}

func TestDo_AttemptsAreBounded(t *testing.T) {
	events, onEvent := collectEvents()

	calls := 0
	_, err := Do(context.Background(), fastConfig(3), func(context.Context) (int, error) {
		calls++
		return 0, syscall.ECONNRESET
	}, &Options{OnEvent: onEvent})

	require.ErrorIs(t, err, syscall.ECONNRESET)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, countEvents(*events, EventRetry))
	assert.Equal(t, 1, countEvents(*events, EventFailure))
}

func TestDo_ErrorPropagatesUnchanged(t *testing.T) {
	original := syscall.ECONNREFUSED
	_, err := Do(context.Background(), fastConfig(2), func(context.Context) (int, error) {
		return 0, original
	}, nil)
	assert.Equal(t, error(original), err)
}

func TestDo_TimeBudget(t *testing.T) {
	cfg := &Config{
		MaxAttempts:  10,
		InitialDelay: 20 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		Multiplier:   1.0,
		Timeout:      10 * time.Millisecond,
	}

	calls := 0
	_, err := Do(context.Background(), cfg, func(context.Context) (int, error) {
		calls++
		return 0, syscall.ECONNRESET
	}, nil)

	require.ErrorIs(t, err, ErrTimeout)
	// First attempt runs (budget not yet spent), the backoff sleep
	// exhausts it before the second.
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancellationDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := &Config{
		MaxAttempts:  5,
		InitialDelay: time.Hour,
		MaxDelay:     time.Hour,
		Multiplier:   1.0,
	}

	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, cfg, func(context.Context) (int, error) {
			return 0, syscall.ECONNRESET
		}, nil)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}

func TestDo_RetryEventsCarryNonDecreasingDelays(t *testing.T) {
	events, onEvent := collectEvents()

	cfg := &Config{
		MaxAttempts:  4,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		// Jitter off so delays are exactly the backoff sequence.
	}

	_, err := Do(context.Background(), cfg, func(context.Context) (int, error) {
		return 0, syscall.ECONNRESET
	}, &Options{OnEvent: onEvent})
	require.Error(t, err)

	var delays []time.Duration
	for _, ev := range *events {
		if ev.Type == EventRetry {
			delays = append(delays, ev.Delay)
		}
	}
	require.Len(t, delays, 3)
	assert.Equal(t, time.Millisecond, delays[0])
	assert.Equal(t, 2*time.Millisecond, delays[1])
	assert.Equal(t, 4*time.Millisecond, delays[2])
}

func TestDo_NilConfigUsesDefaults(t *testing.T) {
	result, err := Do(context.Background(), nil, func(context.Context) (string, error) {
		return "ok", nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestConfig_Normalize(t *testing.T) {
	conf := (&Config{MaxAttempts: -1, Multiplier: -2}).normalize()
	assert.Equal(t, DefaultMaxAttempts, conf.MaxAttempts)
	assert.Equal(t, DefaultInitialDelay, conf.InitialDelay)
	assert.Equal(t, DefaultMaxDelay, conf.MaxDelay)
	assert.Equal(t, DefaultMultiplier, conf.Multiplier)
}
