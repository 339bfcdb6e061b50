package operation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExecuteFunc is the shape a Delegate or Action adapts.
type ExecuteFunc func(cancel context.Context, ctx Context, input any) (any, error)

// RestoreFunc is the shape an optional compensation adapts.
type RestoreFunc func(cancel context.Context, ctx Context, output any) error

// Delegate adapts a user-provided function pair into an Operation, the
// dynamically-typed equivalent of a strongly-typed wrapper.
type Delegate struct {
	Base
	id          string
	name        string
	executeFunc ExecuteFunc
	restoreFunc RestoreFunc
}

// NewDelegate creates a Delegate named name wrapping execute. restore may
// be nil, in which case compensation is a no-op.
func NewDelegate(name string, execute ExecuteFunc, restore RestoreFunc) *Delegate {
	return &Delegate{id: uuid.NewString(), name: name, executeFunc: execute, restoreFunc: restore}
}

func (d *Delegate) ID() string   { return d.id }
func (d *Delegate) Name() string { return d.name }

// HasRestore reports whether this Delegate was constructed with a
// non-nil restore function. Used only for the advisory
// workflow.Definition.RestoreCapable flag.
func (d *Delegate) HasRestore() bool { return d.restoreFunc != nil }

func (d *Delegate) Execute(cancel context.Context, ctx Context, input any) (any, error) {
	return d.executeFunc(cancel, ctx, input)
}

func (d *Delegate) Restore(cancel context.Context, ctx Context, output any) error {
	if d.restoreFunc == nil {
		return nil
	}
	return d.restoreFunc(cancel, ctx, output)
}

// ActionFunc is the shape Action adapts: it performs work for its side
// effect and returns only an error.
type ActionFunc func(cancel context.Context, ctx Context, input any) error

// Action adapts a side-effecting function into an Operation that discards
// its return value and passes its input through unchanged, so a chain with
// output chaining enabled is unaffected by an Action in the middle.
type Action struct {
	Base
	id   string
	name string
	fn   ActionFunc
}

// NewAction creates an Action named name wrapping fn.
func NewAction(name string, fn ActionFunc) *Action {
	return &Action{id: uuid.NewString(), name: name, fn: fn}
}

func (a *Action) ID() string   { return a.id }
func (a *Action) Name() string { return a.name }

func (a *Action) Execute(cancel context.Context, ctx Context, input any) (any, error) {
	if err := a.fn(cancel, ctx, input); err != nil {
		return nil, err
	}
	return input, nil
}

// Predicate decides which branch of a Conditional runs.
type Predicate func(ctx Context, input any) (bool, error)

// Conditional holds a predicate and two branches; only the branch actually
// taken is compensated (§4.1).
type Conditional struct {
	id        string
	name      string
	predicate Predicate
	ifTrue    Operation
	ifFalse   Operation

	lastTaken Operation
}

// NewConditional creates a Conditional named name. ifFalse may be nil, in
// which case a false predicate makes Execute a no-op passthrough.
func NewConditional(name string, predicate Predicate, ifTrue, ifFalse Operation) *Conditional {
	return &Conditional{id: uuid.NewString(), name: name, predicate: predicate, ifTrue: ifTrue, ifFalse: ifFalse}
}

func (c *Conditional) ID() string   { return c.id }
func (c *Conditional) Name() string { return c.name }

func (c *Conditional) Execute(cancel context.Context, ctx Context, input any) (any, error) {
	take, err := c.predicate(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("conditional %q: predicate: %w", c.name, err)
	}

	branch := c.ifFalse
	if take {
		branch = c.ifTrue
	}
	c.lastTaken = branch
	if branch == nil {
		return input, nil
	}
	return branch.Execute(cancel, ctx, input)
}

// Restore compensates only the branch taken by the most recent Execute.
func (c *Conditional) Restore(cancel context.Context, ctx Context, output any) error {
	if c.lastTaken == nil {
		return nil
	}
	return c.lastTaken.Restore(cancel, ctx, output)
}

// ForEach runs an inner operation once per element of a collection, in
// order, feeding each element as the inner operation's input. Compensation
// restores every element that successfully executed, in reverse order.
type ForEach struct {
	id     string
	name   string
	inner  Operation
	source func(ctx Context, input any) ([]any, error)

	completedOutputs []any
}

// NewForEach creates a ForEach named name. source derives the element
// collection from the ForEach's own input.
func NewForEach(name string, inner Operation, source func(ctx Context, input any) ([]any, error)) *ForEach {
	return &ForEach{id: uuid.NewString(), name: name, inner: inner, source: source}
}

func (f *ForEach) ID() string   { return f.id }
func (f *ForEach) Name() string { return f.name }

func (f *ForEach) Execute(cancel context.Context, ctx Context, input any) (any, error) {
	elements, err := f.source(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("forEach %q: source: %w", f.name, err)
	}

	f.completedOutputs = f.completedOutputs[:0]
	outputs := make([]any, 0, len(elements))
	for _, el := range elements {
		if err := cancel.Err(); err != nil {
			return outputs, err
		}
		out, err := f.inner.Execute(cancel, ctx, el)
		if err != nil {
			return outputs, fmt.Errorf("forEach %q: element: %w", f.name, err)
		}
		f.completedOutputs = append(f.completedOutputs, out)
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// Restore invokes the inner operation's Restore on each element that
// completed, in reverse order, stopping at and returning the first
// failure.
func (f *ForEach) Restore(cancel context.Context, ctx Context, output any) error {
	for i := len(f.completedOutputs) - 1; i >= 0; i-- {
		if err := f.inner.Restore(cancel, ctx, f.completedOutputs[i]); err != nil {
			return fmt.Errorf("forEach %q: element %d: %w", f.name, i, err)
		}
	}
	return nil
}

// Delay sleeps for a configured duration, observing cooperative
// cancellation: it returns early with cancel's error if the token fires
// before the duration elapses.
type Delay struct {
	Base
	id       string
	name     string
	duration time.Duration
}

// NewDelay creates a Delay named name for duration d.
func NewDelay(name string, d time.Duration) *Delay {
	return &Delay{id: uuid.NewString(), name: name, duration: d}
}

func (d *Delay) ID() string   { return d.id }
func (d *Delay) Name() string { return d.name }

func (d *Delay) Execute(cancel context.Context, ctx Context, input any) (any, error) {
	timer := time.NewTimer(d.duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return input, nil
	case <-cancel.Done():
		return nil, cancel.Err()
	}
}

// Logging emits a structured log line at Info level carrying ctx's logger
// and passes its input through unchanged.
type Logging struct {
	Base
	id      string
	name    string
	message string
	fields  func(input any) map[string]any
}

// NewLogging creates a Logging operation named name that logs message with
// fields derived from its input.
func NewLogging(name, message string, fields func(input any) map[string]any) *Logging {
	return &Logging{id: uuid.NewString(), name: name, message: message, fields: fields}
}

func (l *Logging) ID() string   { return l.id }
func (l *Logging) Name() string { return l.name }

func (l *Logging) Execute(cancel context.Context, ctx Context, input any) (any, error) {
	var f map[string]any
	if l.fields != nil {
		f = l.fields(input)
	}
	ctx.Logger().Info(l.message, toFields(f), nil)
	return input, nil
}
