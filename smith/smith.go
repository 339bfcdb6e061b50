// Package smith implements the Orchestrator (§4.6): the driver that runs a
// Workflow Definition against a Foundry context, wraps each operation in
// the middleware pipeline, records outputs, and performs reverse-order
// saga compensation on failure.
package smith

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/animatlabs/workflowforge/foundry"
	"github.com/animatlabs/workflowforge/middleware"
	"github.com/animatlabs/workflowforge/operation"
	"github.com/animatlabs/workflowforge/options"
	"github.com/animatlabs/workflowforge/wferrors"
	"github.com/animatlabs/workflowforge/wfevents"
	"github.com/animatlabs/workflowforge/workflow"
)

// Orchestrator drives Workflow Definitions against Foundry contexts
// (§4.6). A single Orchestrator may be shared by many concurrent
// executions, each against its own context; maxConcurrentFlows gates how
// many may run at once.
type Orchestrator struct {
	observers []any
	sem       chan struct{}
}

// Option configures an Orchestrator built by New.
type Option func(*Orchestrator)

// WithObserver subscribes an observer to every context this Orchestrator
// drives, in addition to any already subscribed directly to that context.
func WithObserver(observer any) Option {
	return func(o *Orchestrator) { o.observers = append(o.observers, observer) }
}

// New creates an Orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Execute runs def against a freshly created context (disposed on return),
// honoring cancel for cooperative cancellation.
func (o *Orchestrator) Execute(cancel context.Context, def *workflow.Definition) (any, error) {
	ctx := foundry.New()
	return o.run(cancel, def, ctx, true)
}

// ExecuteWithSeed runs def against a freshly created context seeded with
// seed before execution (disposed on return).
func (o *Orchestrator) ExecuteWithSeed(cancel context.Context, def *workflow.Definition, seed map[string]any) (any, error) {
	ctx := foundry.New(foundry.WithSeed(seed))
	return o.run(cancel, def, ctx, true)
}

// ExecuteWithContext runs def against a caller-provided context, which is
// never disposed by the orchestrator.
func (o *Orchestrator) ExecuteWithContext(cancel context.Context, def *workflow.Definition, ctx *foundry.Context) (any, error) {
	return o.run(cancel, def, ctx, false)
}

func (o *Orchestrator) run(cancel context.Context, def *workflow.Definition, ctx *foundry.Context, ownsContext bool) (any, error) {
	const op = "smith.Orchestrator.run"

	if def == nil {
		return nil, wferrors.New(op, wferrors.Configuration, "workflow must not be nil", nil)
	}
	if ctx.IsDisposed() {
		return nil, wferrors.New(op, wferrors.Disposed, "context is disposed", nil).WithIdentity(ctx.ExecutionID(), def.ID(), "", "")
	}

	for _, obs := range o.observers {
		ctx.Subscribe(obs)
	}

	if err := o.acquireFlow(cancel); err != nil {
		return nil, err
	}
	defer o.releaseFlow()

	if !ctx.TryFreeze() {
		return nil, wferrors.New(op, wferrors.ContextBusy, "context is already executing", nil).
			WithIdentity(ctx.ExecutionID(), def.ID(), "", "")
	}

	opts := ctx.Options()
	start := time.Now()
	ctx.SetCurrentWorkflow(def)

	defer func() {
		ctx.SetCurrentWorkflow(nil)
		ctx.Unfreeze()
		if ownsContext {
			_ = ctx.Dispose()
		}
	}()

	runCancel := cancel
	if opts.WorkflowTimeout > 0 {
		var done context.CancelFunc
		runCancel, done = context.WithTimeout(cancel, opts.WorkflowTimeout)
		defer done()
	}

	dispatcher := ctx.Dispatcher()
	dispatcher.EmitWorkflowStarted(wfevents.WorkflowStarted{
		ExecutionID:  ctx.ExecutionID(),
		WorkflowID:   def.ID(),
		WorkflowName: def.Name(),
		At:           start,
	})

	result, runErr := o.executeOperations(cancel, runCancel, def, ctx, opts)

	duration := time.Since(start)
	if runErr != nil {
		dispatcher.EmitWorkflowFailed(wfevents.WorkflowFailed{
			ExecutionID: ctx.ExecutionID(),
			WorkflowID:  def.ID(),
			Err:         runErr,
			Duration:    duration,
			At:          time.Now(),
		})
		return nil, runErr
	}

	dispatcher.EmitWorkflowCompleted(wfevents.WorkflowCompleted{
		ExecutionID: ctx.ExecutionID(),
		WorkflowID:  def.ID(),
		Output:      result,
		Duration:    duration,
		At:          time.Now(),
	})
	return result, nil
}

// completedStep records a successfully executed operation for
// compensation purposes.
type completedStep struct {
	index  int
	op     operation.Operation
	output any
}

func (o *Orchestrator) executeOperations(root, cancel context.Context, def *workflow.Definition, ctx *foundry.Context, opts options.Options) (any, error) {
	var completed []completedStep
	var collectedErrs []error
	var lastOutput any

	ops := def.Operations()
	for i, op := range ops {
		input := any(nil)
		if opts.EnableOutputChaining {
			input = lastOutput
		}

		output, execErr := o.invokeOne(root, cancel, ctx, def, i, op, input, opts)
		if execErr != nil {
			if opts.ContinueOnError {
				collectedErrs = append(collectedErrs, execErr)
				continue
			}
			o.compensate(root, def, ctx, opts, completed, execErr)
			return nil, execErr
		}

		lastOutput = output
		completed = append(completed, completedStep{index: i, op: op, output: output})
	}

	if len(collectedErrs) > 0 {
		return nil, &wferrors.Aggregate{ExecutionID: ctx.ExecutionID(), WorkflowID: def.ID(), Errors: collectedErrs}
	}
	return lastOutput, nil
}

// invokeOne runs a single operation through the middleware pipeline. root is
// the caller's original cancellation token, unmodified by any deadline this
// orchestrator itself imposes; cancel is the (possibly workflow-timeout-
// derived) token operations further down the call actually observe. The
// distinction lets a failure be classified Cancelled when root itself
// fired, and Timeout only when an engine-imposed deadline is what fired.
func (o *Orchestrator) invokeOne(root, cancel context.Context, ctx *foundry.Context, def *workflow.Definition, index int, op operation.Operation, input any, opts options.Options) (any, error) {
	start := time.Now()
	ctx.EmitOperationStarted(wfevents.OperationStarted{
		ExecutionID:   ctx.ExecutionID(),
		WorkflowID:    def.ID(),
		OperationID:   op.ID(),
		OperationName: op.Name(),
		Index:         index,
		Input:         input,
		At:            start,
	})

	opCancel := cancel
	if opts.OperationTimeout > 0 {
		var done context.CancelFunc
		opCancel, done = context.WithTimeout(cancel, opts.OperationTimeout)
		defer done()
	}

	wrapped := middleware.Compose(op, ctx.Middlewares()...)
	output, err := wrapped.Execute(opCancel, ctx, input)

	if err == nil {
		if cancelErr := opCancel.Err(); cancelErr != nil {
			kind := classifyCancellation(root, cancelErr)
			err = wrapTaxonomy(cancelErr, kind, "execution "+string(kind))
		}
	}

	duration := time.Since(start)
	if err != nil {
		wrapped := toTaggedError(err, op, ctx, def, root)
		ctx.EmitOperationFailed(wfevents.OperationFailed{
			ExecutionID:   ctx.ExecutionID(),
			WorkflowID:    def.ID(),
			OperationID:   op.ID(),
			OperationName: op.Name(),
			Index:         index,
			Err:           wrapped,
			Duration:      duration,
			At:            time.Now(),
		})
		return nil, wrapped
	}

	ctx.RecordOperationOutput(index, op.Name(), output)
	ctx.EmitOperationCompleted(wfevents.OperationCompleted{
		ExecutionID:   ctx.ExecutionID(),
		WorkflowID:    def.ID(),
		OperationID:   op.ID(),
		OperationName: op.Name(),
		Index:         index,
		Output:        output,
		Duration:      duration,
		At:            time.Now(),
	})
	return output, nil
}

// toTaggedError classifies and wraps a raw error from an operation's
// Execute into the taxonomy of §7, tagging run identity. root is the
// caller's original cancellation token (see invokeOne's doc comment).
func toTaggedError(err error, op operation.Operation, ctx *foundry.Context, def *workflow.Definition, root context.Context) error {
	var tagged *wferrors.Error
	switch {
	case isContextErr(err):
		kind := classifyCancellation(root, err)
		tagged = wferrors.New("smith.Orchestrator", kind, "execution "+string(kind), err)
	default:
		if asErr, ok := err.(*wferrors.Error); ok {
			tagged = asErr
		} else {
			tagged = wferrors.New("smith.Orchestrator", wferrors.Operation, fmt.Sprintf("operation %q failed", op.Name()), err)
		}
	}
	return tagged.WithIdentity(ctx.ExecutionID(), def.ID(), op.ID(), op.Name())
}

func wrapTaxonomy(err error, kind wferrors.Kind, msg string) error {
	return wferrors.New("smith.Orchestrator", kind, msg, err)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || wferrors.IsCancelled(err) || wferrors.IsTimeout(err)
}

// classifyCancellation decides whether a context-shaped failure is
// Cancelled or Timeout: it is Timeout only when root (the caller's own
// token) is still live and some engine-imposed deadline (operation or
// workflow timeout) is what actually fired; any time root itself has
// fired — whether via an explicit cancel or the caller's own deadline —
// the failure is Cancelled, per §4.6's cancellation-takes-priority rule.
func classifyCancellation(root context.Context, err error) wferrors.Kind {
	if root.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return wferrors.Timeout
	}
	return wferrors.Cancelled
}

func (o *Orchestrator) compensate(cancel context.Context, def *workflow.Definition, ctx *foundry.Context, opts options.Options, completed []completedStep, triggeringErr error) {
	if !opts.AutoRestore {
		return
	}
	if wferrors.IsCancelled(triggeringErr) && opts.SkipCompensationOnCancel {
		return
	}

	dispatcher := ctx.Dispatcher()
	dispatcher.EmitCompensationTriggered(wfevents.CompensationTriggered{
		ExecutionID:         ctx.ExecutionID(),
		WorkflowID:          def.ID(),
		TriggeringErr:       triggeringErr,
		OperationsToRestore: len(completed),
		At:                  time.Now(),
	})

	succeeded, failed := 0, 0
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		restoreStart := time.Now()
		dispatcher.EmitOperationRestoreStarted(wfevents.OperationRestoreStarted{
			ExecutionID:   ctx.ExecutionID(),
			WorkflowID:    def.ID(),
			OperationID:   step.op.ID(),
			OperationName: step.op.Name(),
			At:            restoreStart,
		})

		restoreErr := step.op.Restore(cancel, ctx, step.output)
		duration := time.Since(restoreStart)

		if restoreErr != nil {
			failed++
			dispatcher.EmitOperationRestoreFailed(wfevents.OperationRestoreFailed{
				ExecutionID:   ctx.ExecutionID(),
				WorkflowID:    def.ID(),
				OperationID:   step.op.ID(),
				OperationName: step.op.Name(),
				Err:           wferrors.New("smith.Orchestrator", wferrors.Restore, fmt.Sprintf("restore %q failed", step.op.Name()), restoreErr).WithIdentity(ctx.ExecutionID(), def.ID(), step.op.ID(), step.op.Name()),
				Duration:      duration,
				At:            time.Now(),
			})
			if !opts.ContinueOnRestorationFailure {
				break
			}
			continue
		}

		succeeded++
		dispatcher.EmitOperationRestoreCompleted(wfevents.OperationRestoreCompleted{
			ExecutionID:   ctx.ExecutionID(),
			WorkflowID:    def.ID(),
			OperationID:   step.op.ID(),
			OperationName: step.op.Name(),
			Duration:      duration,
			At:            time.Now(),
		})

		if cancel.Err() != nil {
			break
		}
	}

	dispatcher.EmitCompensationCompleted(wfevents.CompensationCompleted{
		ExecutionID: ctx.ExecutionID(),
		WorkflowID:  def.ID(),
		Succeeded:   succeeded,
		Failed:      failed,
		At:          time.Now(),
	})
}

func (o *Orchestrator) acquireFlow(cancel context.Context) error {
	if o.sem == nil {
		return nil
	}
	select {
	case o.sem <- struct{}{}:
		return nil
	case <-cancel.Done():
		return wferrors.New("smith.Orchestrator.acquireFlow", wferrors.Cancelled, "cancelled while waiting for a concurrency slot", cancel.Err())
	}
}

func (o *Orchestrator) releaseFlow() {
	if o.sem != nil {
		<-o.sem
	}
}

// WithMaxConcurrentFlows caps how many executions this Orchestrator runs
// at once; excess callers wait (§4.8, §5). Zero (the default) is
// unbounded.
func WithMaxConcurrentFlows(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.sem = make(chan struct{}, n)
		}
	}
}
