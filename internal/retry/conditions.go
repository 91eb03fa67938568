package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"syscall"

	"github.com/courtline/nbagw/internal/apierr"
)

// defaultShouldRetry is the default transient-failure classification:
// connection reset/refused, timeouts, unreachable hosts, and truncated
// reads are retryable; everything else is not.
func defaultShouldRetry(err error, _ int) bool {
	return IsTransient(err)
}

// IsTransient reports whether err looks like a transient network failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// Cancellation is a caller decision, never transient.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout() || IsTransient(urlErr.Err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	switch {
	case errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.ETIMEDOUT),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}

	return false
}

// RetryOnCodes returns a classification that retries when the error is
// an API error carrying one of the given codes, falling back to the
// transient-network default for everything else.
func RetryOnCodes(codes ...apierr.Code) ShouldRetryFunc {
	codeSet := make(map[apierr.Code]bool, len(codes))
	for _, code := range codes {
		codeSet[code] = true
	}

	return func(err error, _ int) bool {
		var apiErr *apierr.Error
		if errors.As(err, &apiErr) {
			return codeSet[apiErr.Code]
		}
		return IsTransient(err)
	}
}

// RetryOnUpstreamFailures retries transient network errors plus the
// taxonomy codes an upstream provider emits for recoverable conditions.
func RetryOnUpstreamFailures() ShouldRetryFunc {
	return RetryOnCodes(
		apierr.CodeRateLimited,
		apierr.CodeExternalServiceError,
		apierr.CodeServiceUnavailable,
	)
}

// NeverRetry is a classification that disables retries.
func NeverRetry(error, int) bool {
	return false
}

// AlwaysRetry is a classification that retries every error.
func AlwaysRetry(err error, _ int) bool {
	return err != nil
}
