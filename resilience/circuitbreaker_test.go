package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/animatlabs/workflowforge/operation"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	failing := operation.NewDelegate("failing", func(_ context.Context, _ operation.Context, _ any) (any, error) {
		calls++
		return nil, errors.New("downstream down")
	}, nil)

	wrapped := CircuitBreaker(failing, CircuitBreakerSettings{
		Name: "downstream",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	})

	_, err := wrapped.Execute(context.Background(), newFakeContext(), nil)
	require.Error(t, err)
	_, err = wrapped.Execute(context.Background(), newFakeContext(), nil)
	require.Error(t, err)
	assert.Equal(t, 2, calls, "both calls should have reached the inner operation")

	_, err = wrapped.Execute(context.Background(), newFakeContext(), nil)
	require.Error(t, err)
	assert.Equal(t, 2, calls, "the breaker should short-circuit once open, without calling inner again")
}

func TestCircuitBreaker_PassesThroughOnSuccess(t *testing.T) {
	succeeding := operation.NewDelegate("succeeding", func(_ context.Context, _ operation.Context, _ any) (any, error) {
		return "ok", nil
	}, nil)

	wrapped := CircuitBreaker(succeeding, CircuitBreakerSettings{Name: "svc"})
	out, err := wrapped.Execute(context.Background(), newFakeContext(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestCircuitBreaker_RestoreForwardsToInner(t *testing.T) {
	var restoredWith any
	inner := operation.NewDelegate("inner",
		func(_ context.Context, _ operation.Context, _ any) (any, error) { return "out", nil },
		func(_ context.Context, _ operation.Context, output any) error {
			restoredWith = output
			return nil
		})

	wrapped := CircuitBreaker(inner, CircuitBreakerSettings{Name: "svc"})
	require.NoError(t, wrapped.Restore(context.Background(), newFakeContext(), "out"))
	assert.Equal(t, "out", restoredWith)
}
