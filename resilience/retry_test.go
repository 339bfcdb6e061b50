package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/animatlabs/workflowforge/operation"
	"github.com/animatlabs/workflowforge/wferrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	flaky := operation.NewDelegate("flaky", func(_ context.Context, _ operation.Context, input any) (any, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("transient")
		}
		return "ok", nil
	}, nil)

	wrapped := Retry(flaky, RetryPolicy{MaxAttempts: 5, InitialInterval: time.Millisecond})
	out, err := wrapped.Execute(context.Background(), newFakeContext(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, attempts)
}

func TestRetry_ExhaustsAfterMaxAttempts(t *testing.T) {
	attempts := 0
	alwaysFails := operation.NewDelegate("fails", func(_ context.Context, _ operation.Context, _ any) (any, error) {
		attempts++
		return nil, errors.New("permanent")
	}, nil)

	wrapped := Retry(alwaysFails, RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond})
	_, err := wrapped.Execute(context.Background(), newFakeContext(), nil)
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_CancellationSurfacesPromptly(t *testing.T) {
	attempts := 0
	cancelCtx, cancel := context.WithCancel(context.Background())
	alwaysFails := operation.NewDelegate("fails", func(_ context.Context, _ operation.Context, _ any) (any, error) {
		attempts++
		if attempts == 1 {
			cancel()
		}
		return nil, errors.New("retryable")
	}, nil)

	wrapped := Retry(alwaysFails, RetryPolicy{InitialInterval: 50 * time.Millisecond})
	_, err := wrapped.Execute(cancelCtx, newFakeContext(), nil)
	require.Error(t, err)
	assert.True(t, wferrors.IsCancelled(err))
}

func TestRetry_RestoreForwardsToInner(t *testing.T) {
	var restoredWith any
	inner := operation.NewDelegate("inner",
		func(_ context.Context, _ operation.Context, _ any) (any, error) { return "out", nil },
		func(_ context.Context, _ operation.Context, output any) error {
			restoredWith = output
			return nil
		})

	wrapped := Retry(inner, RetryPolicy{})
	require.NoError(t, wrapped.Restore(context.Background(), newFakeContext(), "out"))
	assert.Equal(t, "out", restoredWith)
}
