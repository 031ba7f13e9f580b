package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Error(t *testing.T) {
	err := NewAPIError("chat", 403, "forbidden")
	assert.Contains(t, err.Error(), "chat")
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "forbidden")
}

func TestAPIError_WithWrapped(t *testing.T) {
	inner := errors.New("connection refused")
	err := &APIError{Service: "proposal", StatusCode: 500, Message: "fail", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewAPIError("chat", 429, "rate limit")))
	assert.True(t, IsRetryable(NewAPIError("chat", 502, "bad gateway")))
	assert.True(t, IsRetryable(NewAPIError("chat", 503, "unavailable")))
	assert.True(t, IsRetryable(ErrTimeout))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", ErrUnavailable)))

	assert.False(t, IsRetryable(NewAPIError("chat", 401, "unauth")))
	assert.False(t, IsRetryable(NewAPIError("chat", 400, "bad request")))
	assert.False(t, IsRetryable(ErrMalformedResult))
	assert.False(t, IsRetryable(ErrBusy))
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote(NewAPIError("chat", 400, "bad")))
	assert.True(t, IsRemote(fmt.Errorf("proposal: %w", ErrMalformedResult)))
	assert.True(t, IsRemote(ErrRemoteFailure))
	assert.False(t, IsRemote(ErrInvalidInput))
	assert.False(t, IsRemote(errors.New("disk full")))
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("key: %w", ErrInvalidInput), "invalid_input"},
		{ErrBusy, "busy"},
		{ErrNoApproval, "no_approval"},
		{fmt.Errorf("chat: %w", ErrMalformedResult), "malformed_result"},
		{NewAPIError("chat", 502, "bad gateway"), "remote_failure"},
		{errors.New("disk full"), "internal_error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Code(tt.err))
	}
}
