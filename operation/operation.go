// Package operation defines the polymorphic unit of work the engine
// drives (§4.1): the Operation contract, the narrow Context view an
// Operation is given, and the built-in operation primitives.
//
// Context is deliberately narrow — it exposes only what an Operation needs
// (properties, logger, service locator, execution identity) and never a
// workflow-referencing accessor, so that foundry.Context can implement it
// structurally without this package importing foundry or workflow.
package operation

import (
	"context"

	"github.com/animatlabs/workflowforge/wflog"
)

// Context is the capability surface an Operation sees during Execute and
// Restore. foundry.Context implements this interface structurally.
type Context interface {
	// ExecutionID is the unique identifier of the run this context belongs
	// to.
	ExecutionID() string

	// Get returns the value stored under key and whether it was present.
	Get(key string) (any, bool)

	// GetRequired returns the value stored under key, or an error when
	// absent (foundry.Context returns a wferrors.KeyNotFound error).
	// Operations that treat a missing key as normal should use Get.
	GetRequired(key string) (any, error)

	// Set stores value under key. Key must be non-empty after trimming
	// whitespace.
	Set(key string, value any) error

	// Logger returns the logger port for this context; never nil.
	Logger() wflog.Logger

	// ServiceLocator returns the opaque handle user code resolves
	// services from; may be nil.
	ServiceLocator() any
}

// Operation is a single executable, optionally compensatable unit of work.
type Operation interface {
	// ID returns this operation's stable identity, unique for the
	// instance's lifetime.
	ID() string

	// Name returns this operation's non-empty display name.
	Name() string

	// Execute runs the operation. input may be nil; output may be nil.
	// cancel is the cooperative cancellation token threaded through the
	// entire run.
	Execute(cancel context.Context, ctx Context, input any) (any, error)

	// Restore undoes a previously successful Execute, given the exact
	// output that call returned. The default behavior (via Base) is a
	// no-op.
	Restore(cancel context.Context, ctx Context, output any) error
}

// Base is embeddable by Operation implementations that don't need
// compensation; its Restore is a no-op, matching §4.1's "default
// implementation is a no-op".
type Base struct{}

// Restore is a no-op.
func (Base) Restore(context.Context, Context, any) error { return nil }

// Middleware decorates an Operation with a cross-cutting concern (§4.5).
// A Middleware receives the next Operation in the chain (either the
// wrapped operation or the next middleware's decoration of it) and returns
// an Operation that wraps it — the same "wrap a unit, return a unit" shape
// used for decorating a single invocation throughout this codebase.
//
// Composition is Russian-doll: given m1, m2, m3 and operation op, the
// effective operation is m1(m2(m3(op))); the returned Operation's Execute
// calls next.Execute to continue the chain, or doesn't, to short-circuit.
type Middleware func(next Operation) Operation
