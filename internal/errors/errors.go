// Package errors provides structured error types for the intake engine.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrTimeout         = errors.New("operation timed out")
	ErrAuthFailure     = errors.New("authentication failed")
	ErrRateLimit       = errors.New("rate limit exceeded")
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnavailable     = errors.New("service unavailable")
	ErrBusy            = errors.New("a turn is already in progress")
	ErrRemoteFailure   = errors.New("remote call failed")
	ErrMalformedResult = errors.New("malformed remote result")
	ErrApprovalPending = errors.New("approval already requested")
	ErrNoApproval      = errors.New("no approval pending")
)

// APIError represents an error from an external API call.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s API error (status %d): %s: %v", e.Service, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// NewAPIError creates a new API error.
func NewAPIError(service string, statusCode int, message string) *APIError {
	return &APIError{Service: service, StatusCode: statusCode, Message: message}
}

// IsRetryable returns true if the error is likely transient and worth retrying.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimit) || errors.Is(err, ErrUnavailable)
}

// IsRemote reports whether err came from a remote collaborator, either as a
// transport/API failure or an unusable result.
func IsRemote(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) ||
		errors.Is(err, ErrRemoteFailure) ||
		errors.Is(err, ErrMalformedResult) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrUnavailable)
}

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidInput, "invalid_input"},
	{ErrAuthFailure, "unauthorized"},
	{ErrNoApproval, "no_approval"},
	{ErrNotFound, "not_found"},
	{ErrBusy, "busy"},
	{ErrApprovalPending, "approval_pending"},
	{ErrRateLimit, "rate_limit_exceeded"},
	{ErrTimeout, "timeout"},
	{ErrUnavailable, "unavailable"},
	{ErrMalformedResult, "malformed_result"},
	{ErrRemoteFailure, "remote_failure"},
}

// Code returns a short stable label for err, used as the problem type of
// HTTP errors and in log fields. Unknown errors are "internal_error".
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return "remote_failure"
	}
	return "internal_error"
}
