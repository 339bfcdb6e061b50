// Package resilience supplies optional, composable Operation wrappers
// (§4.13) that exercise real third-party resilience libraries: retry with
// exponential backoff, a circuit breaker, and a standalone per-operation
// timeout. The core never imports this package — it only ever permits
// wrapping, never implements policy itself (§4.7).
package resilience

import (
	"context"
	"time"

	"github.com/animatlabs/workflowforge/operation"
	"github.com/animatlabs/workflowforge/wferrors"
	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy configures Retry's exponential backoff between attempts.
// Zero values fall back to backoff.NewExponentialBackOff's defaults, an
// unbounded number of attempts, and backoff.Retry's own default
// elapsed-time limit.
type RetryPolicy struct {
	// MaxAttempts bounds the total number of Execute attempts, including
	// the first. Zero means unbounded (subject only to the elapsed-time
	// limit).
	MaxAttempts int

	// InitialInterval is the first backoff wait. Zero uses the library
	// default.
	InitialInterval time.Duration

	// MaxInterval caps how large a single backoff wait may grow to. Zero
	// uses the library default.
	MaxInterval time.Duration

	// MaxElapsedTime bounds the total time spent retrying, measured from
	// the first attempt. Zero leaves backoff.Retry's own default limit in
	// place.
	MaxElapsedTime time.Duration
}

// retryOperation wraps inner, re-invoking its Execute on failure per
// policy via backoff.Retry. Restore always forwards to inner.Restore
// unconditionally (§4.7): retry is an Execute-time concern only.
type retryOperation struct {
	inner  operation.Operation
	policy RetryPolicy
}

// Retry wraps inner so that a failed Execute is retried with exponential
// backoff (github.com/cenkalti/backoff/v5) up to policy's bounds. The
// cancellation token is handed to backoff.Retry directly, so a firing
// cancel is observed between attempts and surfaces promptly as a
// wferrors.Cancelled error with no further attempt.
func Retry(inner operation.Operation, policy RetryPolicy) operation.Operation {
	return &retryOperation{inner: inner, policy: policy}
}

func (r *retryOperation) ID() string   { return r.inner.ID() }
func (r *retryOperation) Name() string { return r.inner.Name() }

func (r *retryOperation) Execute(cancel context.Context, ctx operation.Context, input any) (any, error) {
	const op = "resilience.Retry"

	b := backoff.NewExponentialBackOff()
	if r.policy.InitialInterval > 0 {
		b.InitialInterval = r.policy.InitialInterval
	}
	if r.policy.MaxInterval > 0 {
		b.MaxInterval = r.policy.MaxInterval
	}

	retryOpts := []backoff.RetryOption{backoff.WithBackOff(b)}
	if r.policy.MaxAttempts > 0 {
		retryOpts = append(retryOpts, backoff.WithMaxTries(uint(r.policy.MaxAttempts)))
	}
	if r.policy.MaxElapsedTime > 0 {
		retryOpts = append(retryOpts, backoff.WithMaxElapsedTime(r.policy.MaxElapsedTime))
	}

	output, err := backoff.Retry(cancel, func() (any, error) {
		return r.inner.Execute(cancel, ctx, input)
	}, retryOpts...)

	if err != nil {
		if cancel.Err() != nil {
			return nil, wferrors.New(op, wferrors.Cancelled, "cancelled during retry", err)
		}
		return nil, wferrors.New(op, wferrors.Operation, "retry exhausted", err)
	}
	return output, nil
}

func (r *retryOperation) Restore(cancel context.Context, ctx operation.Context, output any) error {
	return r.inner.Restore(cancel, ctx, output)
}
