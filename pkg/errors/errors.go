// Package errors provides the coded errors shared by lockscan's CLI, scan
// client and HTTP server.
//
// Lockfile content problems are not reported through this package: the
// lockfile engine returns them as data (see lockfile.ParseError). Errors here
// cover everything around the engine: reading files, configuration, policy
// checks and talking to the scan API.
//
// Codes are grouped by prefix:
//   - INVALID_*, UNKNOWN_FORMAT: bad input or configuration
//   - *_NOT_FOUND, NO_LOCKFILES: nothing to work on
//   - NETWORK_ERROR, TIMEOUT, RATE_LIMITED, UNAUTHORIZED, FORBIDDEN: scan API
//   - POLICY_VIOLATION: the scan succeeded but the fail-on policy tripped
//
// Usage:
//
//	err := errors.New(errors.ErrCodeNoLockfiles, "no lockfiles found in %s", dir)
//	if errors.Is(err, errors.ErrCodeNoLockfiles) {
//	    // nothing to scan
//	}
//
//	err = errors.Wrap(errors.ErrCodeNetwork, cause, "submit scan to %s", url)
//	os.Exit(errors.ExitCode(err))
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Input and configuration
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidPackage  Code = "INVALID_PACKAGE"
	ErrCodeInvalidLockfile Code = "INVALID_LOCKFILE"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeUnknownFormat   Code = "UNKNOWN_FORMAT"

	// Nothing to work on
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeNoLockfiles  Code = "NO_LOCKFILES"

	// Scan API transport
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Scan API credentials
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeForbidden    Code = "FORBIDDEN"

	// Fail-on policy
	ErrCodePolicyViolation Code = "POLICY_VIOLATION"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Process exit codes returned by [ExitCode].
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitPolicyViolation = 2
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// coder is implemented by error types that carry a code without being an
// [*Error].
type coder interface {
	error
	Code() Code
}

// GetCode returns the code of the first coded error in err's chain, or ""
// when there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// Is reports whether err's code is code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// ExitCode maps err to a process exit status: 0 for nil, 2 for a policy
// violation, 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case Is(err, ErrCodePolicyViolation):
		return ExitPolicyViolation
	default:
		return ExitFailure
	}
}

// UserMessage returns err's message without the code prefix, or err's
// text when it carries no [*Error].
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// RateLimitedError is a 429 from the scan API.
type RateLimitedError struct {
	RetryAfter int // seconds, 0 when the server gave no hint
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code implements the coder interface.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
