package wferrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_UnwrapAndIs(t *testing.T) {
	cause := errors.New("boom")
	e := New("op.execute", Operation, "user code failed", cause)

	assert.Equal(t, cause, errors.Unwrap(e))
	assert.True(t, errors.Is(e, New("other.op", Operation, "different message", nil)))
	assert.False(t, errors.Is(e, New("other.op", Restore, "different kind", nil)))
}

func TestError_WithIdentity(t *testing.T) {
	e := New("op.execute", Operation, "failed", nil)
	tagged := e.WithIdentity("exec-1", "wf-1", "op-1", "A")

	assert.Equal(t, "exec-1", tagged.ExecutionID)
	assert.Equal(t, "wf-1", tagged.WorkflowID)
	assert.Equal(t, "op-1", tagged.OperationID)
	assert.Equal(t, "A", tagged.OperationName)
	// Original is untouched.
	assert.Empty(t, e.ExecutionID)
}

func TestError_MessageIncludesCause(t *testing.T) {
	e := New("op.execute", Operation, "failed", errors.New("inner"))
	assert.Contains(t, e.Error(), "inner")
	assert.Contains(t, e.Error(), string(Operation))
}

func TestAggregate_UnwrapsAll(t *testing.T) {
	e1 := errors.New("e1")
	e3 := errors.New("e3")
	agg := &Aggregate{ExecutionID: "exec-1", Errors: []error{e1, e3}}

	assert.True(t, errors.Is(agg, e1))
	assert.True(t, errors.Is(agg, e3))
	assert.Contains(t, agg.Error(), "2 operation(s) failed")
}

func TestIsKindHelpers(t *testing.T) {
	cancelled := New("op", Cancelled, "cancelled", nil)
	timeout := New("op", Timeout, "timeout", nil)
	disposed := New("op", Disposed, "disposed", nil)

	assert.True(t, IsCancelled(cancelled))
	assert.False(t, IsCancelled(timeout))
	assert.True(t, IsTimeout(timeout))
	assert.True(t, IsDisposed(disposed))
	assert.False(t, IsDisposed(cancelled))
}

func TestIsKind_ThroughWrappedError(t *testing.T) {
	base := New("op", Cancelled, "cancelled", nil)
	wrapped := fmt.Errorf("context: %w", base)
	require.True(t, IsKind(wrapped, Cancelled))
}
