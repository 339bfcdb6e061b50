package foundry

import (
	"sync"
	"testing"

	"github.com/animatlabs/workflowforge/operation"
	"github.com/animatlabs/workflowforge/wferrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FreshContextHasUniqueExecutionID(t *testing.T) {
	a := New()
	b := New()
	assert.NotEmpty(t, a.ExecutionID())
	assert.NotEqual(t, a.ExecutionID(), b.ExecutionID())
}

func TestNew_PropertyMapsAreIsolated(t *testing.T) {
	a := New()
	b := New()
	require.NoError(t, a.Set("k", "only-in-a"))

	_, ok := b.Get("k")
	assert.False(t, ok)
	v, ok := a.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "only-in-a", v)
}

func TestSet_RejectsBlankKey(t *testing.T) {
	c := New()
	err := c.Set("   ", "v")
	require.Error(t, err)
	assert.True(t, wferrors.IsKind(err, wferrors.ContextData))
}

func TestGetRequired_MissingKeyFails(t *testing.T) {
	c := New()
	_, err := c.GetRequired("missing")
	require.Error(t, err)
	assert.True(t, wferrors.IsKind(err, wferrors.KeyNotFound))
}

func TestWithSeed_PrePopulatesProperties(t *testing.T) {
	c := New(WithSeed(map[string]any{"a": 1, "b": 2}))
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestRecordOperationOutput_WritesReservedKeys(t *testing.T) {
	c := New()
	c.RecordOperationOutput(0, "A", "out-a")

	v, ok := c.Get(OutputKey(0, "A"))
	require.True(t, ok)
	assert.Equal(t, "out-a", v)

	idx, ok := c.Get(KeyLastCompletedIndex)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	name, ok := c.Get(KeyLastCompletedName)
	require.True(t, ok)
	assert.Equal(t, "A", name)
}

func TestDispose_IsIdempotentAndBlocksMutation(t *testing.T) {
	c := New()
	require.NoError(t, c.Dispose())
	require.NoError(t, c.Dispose())
	assert.True(t, c.IsDisposed())

	err := c.Set("k", "v")
	require.Error(t, err)
	assert.True(t, wferrors.IsKind(err, wferrors.Disposed))
}

func TestTryFreeze_FailsFastOnSecondAcquire(t *testing.T) {
	c := New()
	assert.True(t, c.TryFreeze())
	assert.False(t, c.TryFreeze())
	c.Unfreeze()
	assert.True(t, c.TryFreeze())
}

func TestAddMiddleware_FailsWhileFrozen(t *testing.T) {
	c := New()
	identity := operation.Middleware(func(next operation.Operation) operation.Operation { return next })

	require.True(t, c.TryFreeze())
	err := c.AddMiddleware(identity)
	require.Error(t, err)
	assert.True(t, wferrors.IsKind(err, wferrors.ContextBusy))
	c.Unfreeze()

	require.NoError(t, c.AddMiddleware(identity))
	assert.Len(t, c.Middlewares(), 1)
}

func TestSubscribe_ReceivesOperationEvents(t *testing.T) {
	c := New()
	var started []string
	c.Subscribe(recorderObserver{onStarted: func(name string) { started = append(started, name) }})

	c.EmitOperationStarted(eventStarted("A"))
	c.EmitOperationStarted(eventStarted("B"))

	assert.Equal(t, []string{"A", "B"}, started)
}

func TestProperties_ConcurrentAccessIsSafe(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = c.Set("k", n)
			c.Get("k")
		}(i)
	}
	wg.Wait()
	_, ok := c.Get("k")
	assert.True(t, ok)
}
