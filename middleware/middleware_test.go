package middleware

import (
	"context"
	"testing"

	"github.com/animatlabs/workflowforge/operation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// appendOperation appends its own tag to the accumulated trace string and
// passes it on.
type appendOperation struct {
	operation.Base
	tag string
}

func (a *appendOperation) ID() string   { return a.tag }
func (a *appendOperation) Name() string { return a.tag }
func (a *appendOperation) Execute(_ context.Context, _ operation.Context, input any) (any, error) {
	return input.(string) + a.tag, nil
}

// appendMiddleware wraps before/after markers around next, matching §8
// scenario 4's "1>2>op<2<1" trace shape.
func appendMiddleware(before, after string) operation.Middleware {
	return FromFunc(func(op operation.Operation, cancel context.Context, ctx operation.Context, input any, next NextFunc) (any, error) {
		out, err := next(cancel, ctx, input.(string)+before)
		if err != nil {
			return nil, err
		}
		return out.(string) + after, nil
	})
}

func TestCompose_RussianDollOrdering(t *testing.T) {
	op := &appendOperation{tag: "op"}
	wrapped := Compose(op, appendMiddleware("1>", "<1"), appendMiddleware("2>", "<2"))

	out, err := wrapped.Execute(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, "1>2>op<2<1", out)
}

func TestCompose_NoMiddlewareIsIdentity(t *testing.T) {
	op := &appendOperation{tag: "op"}
	wrapped := Compose(op)

	out, err := wrapped.Execute(context.Background(), nil, "x")
	require.NoError(t, err)
	assert.Equal(t, "xop", out)
}

func TestFromFunc_ShortCircuitSkipsInner(t *testing.T) {
	op := &appendOperation{tag: "op"}
	outerCalledNext := false
	outer := FromFunc(func(op operation.Operation, cancel context.Context, ctx operation.Context, input any, next NextFunc) (any, error) {
		out, err := next(cancel, ctx, input)
		outerCalledNext = true
		return out, err
	})
	innerShortCircuit := FromFunc(func(op operation.Operation, cancel context.Context, ctx operation.Context, input any, next NextFunc) (any, error) {
		return "short-circuited", nil
	})

	wrapped := Compose(op, outer, innerShortCircuit)

	out, err := wrapped.Execute(context.Background(), nil, "x")
	require.NoError(t, err)
	assert.Equal(t, "short-circuited", out)
	assert.True(t, outerCalledNext)
}

func TestFromFunc_ErrorPropagatesThroughChain(t *testing.T) {
	op := &appendOperation{tag: "op"}
	failing := FromFunc(func(op operation.Operation, cancel context.Context, ctx operation.Context, input any, next NextFunc) (any, error) {
		return nil, assertError{"boom"}
	})
	wrapped := Compose(op, appendMiddleware("1>", "<1"), failing)

	_, err := wrapped.Execute(context.Background(), nil, "")
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
