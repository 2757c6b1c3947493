package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/matzehuels/lockscan/pkg/httputil"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "unrecognized lockfile",
			err:  New(ErrCodeInvalidLockfile, "unrecognized lockfile format in %s", "deps.lock"),
			want: "INVALID_LOCKFILE: unrecognized lockfile format in deps.lock",
		},
		{
			name: "undetectable format",
			err:  New(ErrCodeUnknownFormat, "cannot detect format of %s", "stdin"),
			want: "UNKNOWN_FORMAT: cannot detect format of stdin",
		},
		{
			name: "empty directory",
			err:  New(ErrCodeNoLockfiles, "no lockfiles found in %s", "./web"),
			want: "NO_LOCKFILES: no lockfiles found in ./web",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if tt.err.Cause != nil {
				t.Errorf("Cause = %v, want nil", tt.err.Cause)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("open package-lock.json: permission denied")
	err := Wrap(ErrCodeInvalidLockfile, cause, "read %s", "package-lock.json")

	want := "INVALID_LOCKFILE: read package-lock.json: open package-lock.json: permission denied"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestCodeLookup(t *testing.T) {
	policy := New(ErrCodePolicyViolation, "%d critical findings (fail-on-critical)", 2)
	rateLimited := &RateLimitedError{RetryAfter: 30}

	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), ""},
		{"unknown format", New(ErrCodeUnknownFormat, "cannot detect format"), ErrCodeUnknownFormat},
		{"no lockfiles", New(ErrCodeNoLockfiles, "no lockfiles"), ErrCodeNoLockfiles},
		{"policy wrapped by fmt", fmt.Errorf("scan: %w", policy), ErrCodePolicyViolation},
		{"outer code wins", Wrap(ErrCodeNetwork, New(ErrCodeTimeout, "deadline"), "submit scan"), ErrCodeNetwork},
		{"rate limited", rateLimited, ErrCodeRateLimited},
		{"rate limited behind retry", &httputil.RetryableError{Err: rateLimited, After: 30 * time.Second}, ErrCodeRateLimited},
		{"retryable server error", httputil.Retryable(Wrap(ErrCodeNetwork, errors.New("api error: status 502"), "server error")), ErrCodeNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
			if tt.want != "" && !Is(tt.err, tt.want) {
				t.Errorf("Is(err, %q) = false, want true", tt.want)
			}
			if Is(tt.err, ErrCodeInternal) {
				t.Errorf("Is(err, %q) = true, want false", ErrCodeInternal)
			}
		})
	}
}

func TestRetryableKeepsRateLimit(t *testing.T) {
	err := error(&httputil.RetryableError{
		Err:   &RateLimitedError{RetryAfter: 12, Message: "slow down"},
		After: 12 * time.Second,
	})

	if !httputil.IsRetryable(err) {
		t.Fatal("IsRetryable() = false, want true")
	}
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatal("errors.As(*RateLimitedError) = false")
	}
	if rl.RetryAfter != 12 {
		t.Errorf("RetryAfter = %d, want 12", rl.RetryAfter)
	}
	if got, want := err.Error(), "rate limited: retry after 12 seconds"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestRateLimitedErrorMessage(t *testing.T) {
	tests := []struct {
		retryAfter int
		want       string
	}{
		{0, "rate limited"},
		{1, "rate limited: retry after 1 seconds"},
		{60, "rate limited: retry after 60 seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			err := &RateLimitedError{RetryAfter: tt.retryAfter}
			if got := err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "unauthorized",
			err:  Wrap(ErrCodeUnauthorized, errors.New("api error: status 401: bad token"), "invalid or missing API key"),
			want: "invalid or missing API key",
		},
		{
			name: "forbidden",
			err:  Wrap(ErrCodeForbidden, errors.New("api error: status 403"), "access denied"),
			want: "access denied",
		},
		{
			name: "forbidden wrapped by caller",
			err:  fmt.Errorf("scan web/package-lock.json: %w", Wrap(ErrCodeForbidden, nil, "access denied")),
			want: "access denied",
		},
		{
			name: "rate limited",
			err:  &RateLimitedError{RetryAfter: 5},
			want: "rate limited: retry after 5 seconds",
		},
		{
			name: "uncoded",
			err:  errors.New("connection reset"),
			want: "connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"policy violation", New(ErrCodePolicyViolation, "1 critical finding"), ExitPolicyViolation},
		{"wrapped policy violation", fmt.Errorf("scan: %w", New(ErrCodePolicyViolation, "high findings")), ExitPolicyViolation},
		{"invalid lockfile", New(ErrCodeInvalidLockfile, "bad"), ExitFailure},
		{"uncoded", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
