package operation

import (
	"context"

	"github.com/animatlabs/workflowforge/wflog"
	"github.com/google/uuid"
)

func toFields(m map[string]any) wflog.Fields {
	if m == nil {
		return nil
	}
	return wflog.Fields(m)
}

// TypedExecuteFunc is the strongly-typed shape Typed adapts.
type TypedExecuteFunc[I, O any] func(cancel context.Context, ctx Context, input I) (O, error)

// TypedRestoreFunc is the strongly-typed shape Typed's optional
// compensation adapts.
type TypedRestoreFunc[O any] func(cancel context.Context, ctx Context, output O) error

// Typed is a compile-time convenience over Delegate (§4.1: "a pure
// compile-time convenience; it must be behaviourally indistinguishable
// from the dynamically-typed form at run time"). Execute type-asserts its
// dynamic input to I and returns O boxed as any, exactly like Delegate
// would if the caller performed the assertions itself.
type Typed[I, O any] struct {
	Base
	id          string
	name        string
	executeFunc TypedExecuteFunc[I, O]
	restoreFunc TypedRestoreFunc[O]
}

// NewTyped creates a Typed operation named name.
func NewTyped[I, O any](name string, execute TypedExecuteFunc[I, O], restore TypedRestoreFunc[O]) *Typed[I, O] {
	return &Typed[I, O]{id: uuid.NewString(), name: name, executeFunc: execute, restoreFunc: restore}
}

func (t *Typed[I, O]) ID() string   { return t.id }
func (t *Typed[I, O]) Name() string { return t.name }

func (t *Typed[I, O]) Execute(cancel context.Context, ctx Context, input any) (any, error) {
	var typedInput I
	if input != nil {
		typedInput = input.(I)
	}
	return t.executeFunc(cancel, ctx, typedInput)
}

func (t *Typed[I, O]) Restore(cancel context.Context, ctx Context, output any) error {
	if t.restoreFunc == nil {
		return nil
	}
	var typedOutput O
	if output != nil {
		typedOutput = output.(O)
	}
	return t.restoreFunc(cancel, ctx, typedOutput)
}
