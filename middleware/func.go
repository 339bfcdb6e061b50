package middleware

import (
	"context"

	"github.com/animatlabs/workflowforge/operation"
)

// NextFunc is the continuation a Func invokes to proceed to the next
// middleware (or the operation itself). Calling it exactly once, or not
// at all, is how §4.5's "must call next exactly once to continue, or not
// at all to short-circuit" is expressed at the call site.
type NextFunc func(cancel context.Context, ctx operation.Context, input any) (any, error)

// Func is the middleware signature as specified literally in §4.5:
// (operation, ctx, input, next, cancel) → output. It is the richer,
// closure-friendly form; FromFunc adapts it to the operation.Middleware
// decorator shape Compose consumes.
type Func func(op operation.Operation, cancel context.Context, ctx operation.Context, input any, next NextFunc) (any, error)

// FromFunc adapts fn into an operation.Middleware.
func FromFunc(fn Func) operation.Middleware {
	return func(next operation.Operation) operation.Operation {
		return &funcOperation{inner: next, fn: fn}
	}
}

// funcOperation is the Operation a Func-based middleware decorates next
// with. Its Restore always forwards to inner, since middleware wraps
// Execute only (§4.5 says nothing about decorating Restore; compensation
// always targets the underlying operation's own Restore).
type funcOperation struct {
	inner operation.Operation
	fn    Func
}

func (f *funcOperation) ID() string   { return f.inner.ID() }
func (f *funcOperation) Name() string { return f.inner.Name() }

func (f *funcOperation) Execute(cancel context.Context, ctx operation.Context, input any) (any, error) {
	next := func(cancel context.Context, ctx operation.Context, input any) (any, error) {
		return f.inner.Execute(cancel, ctx, input)
	}
	return f.fn(f.inner, cancel, ctx, input, next)
}

func (f *funcOperation) Restore(cancel context.Context, ctx operation.Context, output any) error {
	return f.inner.Restore(cancel, ctx, output)
}
