package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/p-blackswan/intake-agent/internal/errors"
)

func fast(attempts int) Config {
	return Config{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestDo_Success(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultConfig(), func(ctx context.Context) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_NonRetryableError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast(3), func(ctx context.Context) error {
		calls++
		return apperrors.ErrMalformedResult
	})
	assert.ErrorIs(t, err, apperrors.ErrMalformedResult)
	assert.Equal(t, 1, calls)
}

func TestDo_RetryableThenSuccess(t *testing.T) {
	calls := 0
	var retried []int
	cfg := fast(3)
	cfg.OnRetry = func(attempt int, _ time.Duration, err error) {
		retried = append(retried, attempt)
		assert.ErrorIs(t, err, apperrors.ErrTimeout)
	}
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return apperrors.ErrTimeout
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_AllFail(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast(2), func(ctx context.Context) error {
		calls++
		return apperrors.NewAPIError("chat", 503, "unavailable")
	})
	var apiErr *apperrors.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 2, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := fast(5)
	cfg.BaseDelay = time.Second
	err := Do(ctx, cfg, func(ctx context.Context) error {
		return apperrors.ErrUnavailable
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithRetries(t *testing.T) {
	assert.Equal(t, 3, WithRetries(2).MaxAttempts)
	assert.Equal(t, 1, WithRetries(-4).MaxAttempts)

	calls := 0
	_ = Do(context.Background(), Config{}, func(ctx context.Context) error {
		calls++
		return apperrors.ErrTimeout
	})
	assert.Equal(t, 1, calls, "zero config still runs once")
}
