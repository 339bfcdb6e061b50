// Package options defines the engine's recognized, immutable run options
// (§4.8) and their defaults, configured via functional options in the same
// style used throughout this codebase.
package options

import "time"

// Options holds the full recognized-options surface a Foundry context
// carries for the lifetime of a run. Once built, an Options value is never
// mutated in place; foundry.Context treats it as read-only.
type Options struct {
	// EnableOutputChaining feeds the most recent successful operation's
	// output as the next operation's input (the first operation receives
	// nil). When false, every operation receives nil. Default true.
	EnableOutputChaining bool

	// ContinueOnError lets the loop proceed past a failed operation,
	// collecting every failure into a wferrors.Aggregate raised once at the
	// end of the run, instead of failing fast. Default false.
	ContinueOnError bool

	// ContinueOnRestorationFailure lets compensation keep restoring
	// previously-completed operations even after one Restore call fails.
	// Default true.
	ContinueOnRestorationFailure bool

	// SkipCompensationOnCancel skips reverse-order compensation entirely
	// when the run ends due to cancellation rather than an operation
	// failure. Default false.
	SkipCompensationOnCancel bool

	// OperationTimeout bounds a single operation's Execute call (including
	// its middleware pipeline). Restore calls during compensation are not
	// bounded by it. Zero means no per-operation deadline is enforced.
	OperationTimeout time.Duration

	// WorkflowTimeout bounds the execution of a run's operations.
	// Compensation after a failure is not bounded by it. Zero means no
	// whole-run deadline is enforced.
	WorkflowTimeout time.Duration

	// MaxConcurrentFlows caps how many executions an orchestrator built by
	// forge.NewOrchestrator runs at once; excess callers wait. smith and
	// foundry do not read this field themselves. Zero means unbounded.
	MaxConcurrentFlows int

	// AutoRestore lets the orchestrator trigger compensation automatically
	// on failure. When false, the caller is responsible for invoking
	// restoration explicitly. Default true.
	AutoRestore bool

	// ServiceLocator is an opaque handle to application-provided services
	// (e.g. a DI container) operations may retrieve via Context. Never
	// interpreted by the engine itself.
	ServiceLocator any
}

// Option configures an Options value built by New.
type Option func(*Options)

// New builds an Options value with the spec's defaults applied, then
// applies opts in order.
func New(opts ...Option) Options {
	o := Options{
		EnableOutputChaining:         true,
		ContinueOnError:              false,
		ContinueOnRestorationFailure: true,
		SkipCompensationOnCancel:     false,
		AutoRestore:                  true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithOutputChaining sets EnableOutputChaining.
func WithOutputChaining(enabled bool) Option {
	return func(o *Options) { o.EnableOutputChaining = enabled }
}

// WithContinueOnError sets ContinueOnError.
func WithContinueOnError(enabled bool) Option {
	return func(o *Options) { o.ContinueOnError = enabled }
}

// WithContinueOnRestorationFailure sets ContinueOnRestorationFailure.
func WithContinueOnRestorationFailure(enabled bool) Option {
	return func(o *Options) { o.ContinueOnRestorationFailure = enabled }
}

// WithSkipCompensationOnCancel sets SkipCompensationOnCancel.
func WithSkipCompensationOnCancel(enabled bool) Option {
	return func(o *Options) { o.SkipCompensationOnCancel = enabled }
}

// WithOperationTimeout sets OperationTimeout.
func WithOperationTimeout(d time.Duration) Option {
	return func(o *Options) { o.OperationTimeout = d }
}

// WithWorkflowTimeout sets WorkflowTimeout.
func WithWorkflowTimeout(d time.Duration) Option {
	return func(o *Options) { o.WorkflowTimeout = d }
}

// WithMaxConcurrentFlows sets MaxConcurrentFlows.
func WithMaxConcurrentFlows(n int) Option {
	return func(o *Options) { o.MaxConcurrentFlows = n }
}

// WithAutoRestore sets AutoRestore.
func WithAutoRestore(enabled bool) Option {
	return func(o *Options) { o.AutoRestore = enabled }
}

// WithServiceLocator sets ServiceLocator.
func WithServiceLocator(locator any) Option {
	return func(o *Options) { o.ServiceLocator = locator }
}
