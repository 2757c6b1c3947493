package httputil

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		attempts  int
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"success first try", 3, 0, true, 1, false},
		{"success after retries", 3, 2, true, 3, false},
		{"exhausted", 3, 5, true, 3, true},
		{"non-retryable stops", 3, 5, false, 1, true},
		{"zero attempts runs once", 0, 0, true, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), tt.attempts, time.Millisecond, func() error {
				calls++
				if calls <= tt.failures {
					if tt.retryable {
						return Retryable(errTransient)
					}
					return errTransient
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("Retry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if err != nil && !errors.Is(err, errTransient) {
				t.Errorf("Retry() error = %v, want wrapped %v", err, errTransient)
			}
		})
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Hour, func() error {
		return Retryable(errTransient)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() error = %v, want context.Canceled", err)
	}
}

func TestRetryHonorsAfter(t *testing.T) {
	start := time.Now()
	calls := 0
	err := Retry(context.Background(), 2, time.Hour, func() error {
		calls++
		if calls == 1 {
			return &RetryableError{Err: errTransient, After: time.Millisecond}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Minute {
		t.Errorf("Retry waited %v, want the server-provided delay", elapsed)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(errTransient)
	if !IsRetryable(err) {
		t.Error("IsRetryable should be true for wrapped error")
	}
	if err.Error() != errTransient.Error() {
		t.Errorf("message = %q, want %q", err.Error(), errTransient.Error())
	}
	if IsRetryable(errTransient) {
		t.Error("IsRetryable should be false for plain error")
	}
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{"absent", "", 0},
		{"seconds", "30", 30 * time.Second},
		{"http date", now.Add(10 * time.Second).Format(http.TimeFormat), 10 * time.Second},
		{"past date", now.Add(-time.Hour).Format(http.TimeFormat), 0},
		{"capped", "86400", maxRetryAfter},
		{"garbage", "soon", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Retry-After", tt.header)
			}
			if got := RetryAfter(h, now); got != tt.want {
				t.Errorf("RetryAfter(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	for status, want := range map[int]bool{
		200: false, 400: false, 401: false, 404: false,
		429: true, 500: true, 502: true, 503: true,
	} {
		if got := ShouldRetry(status); got != want {
			t.Errorf("ShouldRetry(%d) = %v, want %v", status, got, want)
		}
	}
}
