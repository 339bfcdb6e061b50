// Package wferrors implements the error taxonomy the engine raises and
// tags: a closed set of kinds, a single carrier type, and an aggregate for
// the continueOnError path.
package wferrors

import (
	"errors"
	"fmt"
)

// Kind identifies the category of an Error. Callers use Kind, not the
// concrete Go type, to decide how to react — via errors.As plus a Kind
// comparison, or the convenience Is* helpers below.
type Kind string

const (
	// Configuration marks invalid builder input or invalid options, raised
	// from Builder.Build and never by the executor.
	Configuration Kind = "configuration"

	// ContextData marks an invalid (empty or whitespace-only) property key.
	// A mutation of a disposed context is reported as Disposed instead.
	ContextData Kind = "context_data"

	// KeyNotFound marks a direct indexed property read that missed.
	KeyNotFound Kind = "key_not_found"

	// Operation marks a user error raised from Operation.Execute.
	Operation Kind = "operation"

	// Restore marks a user error raised from Operation.Restore.
	Restore Kind = "restore"

	// Cancelled marks cancellation observed at any suspension point.
	Cancelled Kind = "cancelled"

	// Timeout marks an operation or workflow deadline exceeded.
	Timeout Kind = "timeout"

	// Workflow marks the continueOnError aggregate raised at the end of a
	// run in which one or more operations failed.
	Workflow Kind = "workflow"

	// Disposed marks use of a context after disposal.
	Disposed Kind = "disposed"

	// ContextBusy marks a second concurrent execution against a context
	// that is already frozen by an in-flight execution (see the shared
	// execute(..., context) fail-fast decision recorded in DESIGN.md).
	ContextBusy Kind = "context_busy"
)

// Error is the single carrier type for every error kind the engine raises.
// It tags the identity of the run that produced it so observers and
// callers can correlate failures without parsing message strings.
type Error struct {
	Op            string
	Kind          Kind
	Message       string
	Err           error
	ExecutionID   string
	WorkflowID    string
	OperationID   string
	OperationName string
}

// New creates an Error with the given operation name, kind, message, and
// optional wrapped cause.
func New(op string, kind Kind, msg string, cause error) *Error {
	return &Error{Op: op, Kind: kind, Message: msg, Err: cause}
}

// WithIdentity returns a copy of e with the run identity tags set. It is
// used by smith and foundry to attach correlation data without the
// original raiser needing to know about executions or workflows.
func (e *Error) WithIdentity(executionID, workflowID, operationID, operationName string) *Error {
	cp := *e
	cp.ExecutionID = executionID
	cp.WorkflowID = workflowID
	cp.OperationID = operationID
	cp.OperationName = operationName
	return &cp
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Op, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Op, e.Kind, e.Message)
}

// Unwrap returns the wrapped cause so errors.Is and errors.As traverse the
// chain.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Aggregate is raised once, at the end of a continueOnError run, wrapping
// every operation failure collected during the loop (§4.6 step 4f).
type Aggregate struct {
	ExecutionID string
	WorkflowID  string
	Errors      []error
}

// Error implements the error interface.
func (a *Aggregate) Error() string {
	return fmt.Sprintf("workflow [%s]: %d operation(s) failed: %v", Workflow, len(a.Errors), a.Errors)
}

// Unwrap returns the collected errors for errors.Is/As traversal (Go 1.20+
// multi-error unwrap).
func (a *Aggregate) Unwrap() []error {
	return a.Errors
}

// Is reports whether target is an *Aggregate (kind-equality only; the
// aggregate does not itself carry a single Kind).
func (a *Aggregate) Is(target error) bool {
	_, ok := target.(*Aggregate)
	return ok
}

// IsKind reports whether the first *Error found in err's chain (err itself
// included) has the given kind. Errors further down the chain are not
// inspected.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsCancelled reports whether err is a Cancelled-kind Error.
func IsCancelled(err error) bool { return IsKind(err, Cancelled) }

// IsTimeout reports whether err is a Timeout-kind Error.
func IsTimeout(err error) bool { return IsKind(err, Timeout) }

// IsDisposed reports whether err is a Disposed-kind Error.
func IsDisposed(err error) bool { return IsKind(err, Disposed) }
