// Package retry provides a small attempt-with-retry operation driven by an
// explicit policy value, used by every outbound client in the service.
package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrMaxAttemptsExceeded is returned when max retry attempts are exceeded
	ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")
	// ErrContextCancelled is returned when the context is cancelled during retry
	ErrContextCancelled = errors.New("context cancelled during retry")
)

// Policy configures retry behavior for an outbound call.
type Policy struct {
	// MaxAttempts is the total number of attempts (including the first).
	MaxAttempts int
	// PerAttemptTimeout bounds each individual attempt. Zero means the
	// attempt inherits the caller's context deadline.
	PerAttemptTimeout time.Duration
	// Delay is the pause between attempts.
	Delay time.Duration
	// Retryable decides whether a failed attempt should be retried.
	Retryable func(error) bool
}

// DefaultRetryable treats network-level transient failures as retryable.
func DefaultRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	patterns := []string{
		"timeout",
		"deadline exceeded",
		"connection refused",
		"connection reset",
		"no such host",
		"temporary failure",
		"network is unreachable",
		"i/o timeout",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// Do executes fn under the policy. Each attempt receives a context bounded by
// PerAttemptTimeout. The attempt count consumed is always returned, so callers
// can surface it even on failure.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error) (int, error) {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if policy.Retryable == nil {
		policy.Retryable = DefaultRetryable
	}

	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return attempts, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		}

		attempts++
		lastErr = runAttempt(ctx, policy.PerAttemptTimeout, fn)
		if lastErr == nil {
			return attempts, nil
		}

		if !policy.Retryable(lastErr) {
			return attempts, lastErr
		}

		if attempt < policy.MaxAttempts && policy.Delay > 0 {
			select {
			case <-ctx.Done():
				return attempts, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
			case <-time.After(policy.Delay):
			}
		}
	}

	return attempts, fmt.Errorf("%w after %d attempts: %w", ErrMaxAttemptsExceeded, attempts, lastErr)
}

func runAttempt(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

// IsTimeout reports whether the error chain contains a deadline expiry.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
