package postgres

import (
	"context"
	"errors"
	"testing"
	"time"
)

type retryableErr struct{}

func (retryableErr) Error() string     { return "connection reset" }
func (retryableErr) SafeToRetry() bool { return true }

func TestWithRetryRecoversFromTransientErrors(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), RetryPolicy{Attempts: 3, Backoff: time.Millisecond}, func(context.Context) error {
		calls++
		if calls < 3 {
			return retryableErr{}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls: got %d want 3", calls)
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), RetryPolicy{Attempts: 2, Backoff: time.Millisecond}, func(context.Context) error {
		calls++
		return retryableErr{}
	})
	if !errors.As(err, &retryableErr{}) {
		t.Fatalf("expected last transient error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls: got %d want 2", calls)
	}
}

func TestWithRetryDoesNotRetryPermanentErrors(t *testing.T) {
	permanent := errors.New("syntax error at or near SELECT")
	calls := 0
	err := withRetry(context.Background(), RetryPolicy{Attempts: 5, Backoff: time.Millisecond}, func(context.Context) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Fatalf("expected one call and the permanent error, got %d calls, %v", calls, err)
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := withRetry(ctx, RetryPolicy{Attempts: 5, Backoff: time.Hour}, func(context.Context) error {
		calls++
		cancel()
		return retryableErr{}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls: got %d want 1", calls)
	}
}

func TestIsTransient(t *testing.T) {
	if isTransient(nil) {
		t.Fatalf("nil is not transient")
	}
	if isTransient(context.DeadlineExceeded) {
		t.Fatalf("caller deadlines are not retried")
	}
	if !isTransient(retryableErr{}) {
		t.Fatalf("SafeToRetry errors are transient")
	}
}
