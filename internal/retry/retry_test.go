package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonesrussell/storefront-admin/internal/retry"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	attempts, err := retry.Do(context.Background(), retry.Policy{MaxAttempts: 3}, func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if attempts != 1 || calls != 1 {
		t.Errorf("attempts = %d, calls = %d, want 1 and 1", attempts, calls)
	}
}

func TestDo_RetriesRetryableError(t *testing.T) {
	calls := 0
	attempts, err := retry.Do(context.Background(), retry.Policy{
		MaxAttempts: 3,
		Retryable:   func(error) bool { return true },
	}, func(_ context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	permanent := errors.New("access denied")
	calls := 0
	attempts, err := retry.Do(context.Background(), retry.Policy{
		MaxAttempts: 3,
		Retryable:   func(error) bool { return false },
	}, func(_ context.Context) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("Do() error = %v, want %v", err, permanent)
	}
	if attempts != 1 || calls != 1 {
		t.Errorf("attempts = %d, calls = %d, want 1 and 1", attempts, calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	attempts, err := retry.Do(context.Background(), retry.Policy{
		MaxAttempts: 2,
		Retryable:   func(error) bool { return true },
	}, func(_ context.Context) error {
		return errors.New("still failing")
	})
	if !errors.Is(err, retry.ErrMaxAttemptsExceeded) {
		t.Fatalf("Do() error = %v, want ErrMaxAttemptsExceeded", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestDo_PerAttemptTimeout(t *testing.T) {
	attempts, err := retry.Do(context.Background(), retry.Policy{
		MaxAttempts:       2,
		PerAttemptTimeout: 10 * time.Millisecond,
		Retryable:         retry.IsTimeout,
	}, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, retry.ErrMaxAttemptsExceeded) {
		t.Fatalf("Do() error = %v, want ErrMaxAttemptsExceeded", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2 (timeout counted and retried)", attempts)
	}
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := retry.Do(ctx, retry.Policy{MaxAttempts: 3}, func(_ context.Context) error {
		t.Fatal("fn should not run with cancelled context")
		return nil
	})
	if !errors.Is(err, retry.ErrContextCancelled) {
		t.Errorf("Do() error = %v, want ErrContextCancelled", err)
	}
}
