package options

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	o := New()

	assert.True(t, o.EnableOutputChaining)
	assert.False(t, o.ContinueOnError)
	assert.True(t, o.ContinueOnRestorationFailure)
	assert.False(t, o.SkipCompensationOnCancel)
	assert.True(t, o.AutoRestore)
	assert.Zero(t, o.OperationTimeout)
	assert.Zero(t, o.WorkflowTimeout)
	assert.Zero(t, o.MaxConcurrentFlows)
	assert.Nil(t, o.ServiceLocator)
}

func TestNew_AppliesOverrides(t *testing.T) {
	locator := struct{ Name string }{"services"}
	o := New(
		WithOutputChaining(false),
		WithContinueOnError(true),
		WithContinueOnRestorationFailure(false),
		WithSkipCompensationOnCancel(true),
		WithOperationTimeout(5*time.Second),
		WithWorkflowTimeout(time.Minute),
		WithMaxConcurrentFlows(4),
		WithAutoRestore(false),
		WithServiceLocator(locator),
	)

	assert.False(t, o.EnableOutputChaining)
	assert.True(t, o.ContinueOnError)
	assert.False(t, o.ContinueOnRestorationFailure)
	assert.True(t, o.SkipCompensationOnCancel)
	assert.Equal(t, 5*time.Second, o.OperationTimeout)
	assert.Equal(t, time.Minute, o.WorkflowTimeout)
	assert.Equal(t, 4, o.MaxConcurrentFlows)
	assert.False(t, o.AutoRestore)
	assert.Equal(t, locator, o.ServiceLocator)
}
