package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/animatlabs/workflowforge/operation"
	"github.com/animatlabs/workflowforge/wferrors"
)

// timeoutOperation bounds inner.Execute with a derived deadline. Restore
// always forwards to inner.Restore unconditionally (§4.7): the timeout is
// an Execute-time concern only.
type timeoutOperation struct {
	inner operation.Operation
	d     time.Duration
}

// Timeout wraps inner so Execute is bounded by d, surfacing a
// wferrors.Timeout error on expiry. This is the same mechanism smith uses
// internally for options.OperationTimeout/WorkflowTimeout, exposed here as
// a standalone composable wrapper for per-operation timeouts finer than
// the global option.
func Timeout(inner operation.Operation, d time.Duration) operation.Operation {
	return &timeoutOperation{inner: inner, d: d}
}

func (t *timeoutOperation) ID() string   { return t.inner.ID() }
func (t *timeoutOperation) Name() string { return t.inner.Name() }

func (t *timeoutOperation) Execute(cancel context.Context, ctx operation.Context, input any) (any, error) {
	const op = "resilience.Timeout"

	bounded, done := context.WithTimeout(cancel, t.d)
	defer done()

	output, err := t.inner.Execute(bounded, ctx, input)
	if err == nil {
		if boundedErr := bounded.Err(); boundedErr != nil {
			return nil, classify(op, boundedErr, cancel)
		}
		return output, nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil, classify(op, err, cancel)
	}
	return nil, wferrors.New(op, wferrors.Operation, "inner operation failed", err)
}

// classify distinguishes the engine-imposed deadline this wrapper applied
// from the caller's own cancellation: only a still-live root firing via
// our own deadline is a Timeout; a root that has itself fired is Cancelled.
func classify(op string, err error, root context.Context) error {
	if root.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return wferrors.New(op, wferrors.Timeout, "operation timed out", err)
	}
	return wferrors.New(op, wferrors.Cancelled, "operation cancelled", err)
}

func (t *timeoutOperation) Restore(cancel context.Context, ctx operation.Context, output any) error {
	return t.inner.Restore(cancel, ctx, output)
}
