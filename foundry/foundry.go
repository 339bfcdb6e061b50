// Package foundry implements the Execution Context ("Foundry", §4.4): the
// per-run ambient environment carrying a concurrency-safe property map, the
// logger port, the service-locator handle, options, the middleware list,
// and operation-level event emission.
package foundry

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/animatlabs/workflowforge/operation"
	"github.com/animatlabs/workflowforge/options"
	"github.com/animatlabs/workflowforge/wferrors"
	"github.com/animatlabs/workflowforge/wfevents"
	"github.com/animatlabs/workflowforge/wflog"
	"github.com/animatlabs/workflowforge/workflow"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

var _ operation.Context = (*Context)(nil)

// OutputKey returns the reserved property key an operation's output is
// stored under, per §4.4: "Operation.{i}:{N}.Output".
func OutputKey(index int, name string) string {
	return "Operation." + strconv.Itoa(index) + ":" + name + ".Output"
}

// Reserved property keys the orchestrator writes on every successful
// operation, per §4.4. User code must not write under these names.
const (
	KeyLastCompletedIndex = "Operation.LastCompletedIndex"
	KeyLastCompletedName  = "Operation.LastCompletedName"
)

// Context is the Foundry: the mutable, concurrency-safe execution
// environment a Workflow Definition runs against. It implements
// operation.Context structurally.
type Context struct {
	executionID string

	properties *xsync.MapOf[string, any]

	logger         wflog.Logger
	serviceLocator any
	opts           options.Options

	currentWorkflow atomic.Pointer[workflow.Definition]

	listMu         sync.Mutex
	middlewareList []operation.Middleware
	operationList  []operation.Operation

	frozen   atomic.Bool
	disposed atomic.Bool

	dispatcher *wfevents.Dispatcher
}

// Option configures a Context built by New.
type Option func(*Context)

// WithLogger sets the context's logger port. If omitted, wflog.NoOp() is
// substituted, so Logger() is never nil (§4.4).
func WithLogger(logger wflog.Logger) Option {
	return func(c *Context) { c.logger = logger }
}

// WithServiceLocator sets the opaque service-locator handle.
func WithServiceLocator(locator any) Option {
	return func(c *Context) { c.serviceLocator = locator }
}

// WithOptions sets the context's recognised options (§4.8).
func WithOptions(opts options.Options) Option {
	return func(c *Context) { c.opts = opts }
}

// WithSeed pre-populates the property map before any operation executes,
// used by smith's execute(workflow, seedData, cancel) entry point.
func WithSeed(seed map[string]any) Option {
	return func(c *Context) {
		for k, v := range seed {
			c.properties.Store(k, v)
		}
	}
}

// WithObserver subscribes an observer to this context's operation-level
// events (§4.4, §6). It may additionally implement wfevents.WorkflowLifecycle
// and/or wfevents.CompensationLifecycle, in which case it also receives
// those events whenever smith drives this context, since smith emits them
// through this context's dispatcher; foundry itself only ever emits the
// operation-level trio.
func WithObserver(observer any) Option {
	return func(c *Context) { c.dispatcher.Subscribe(observer) }
}

// New creates a Context with a fresh execution id, a fresh empty property
// map, a no-op logger (until overridden), and the given options.
func New(opts ...Option) *Context {
	c := &Context{
		executionID: uuid.NewString(),
		properties:  xsync.NewMapOf[string, any](),
		logger:      wflog.NoOp(),
		opts:        options.New(),
		dispatcher:  wfevents.NewDispatcher(nil),
	}
	c.dispatcher = wfevents.NewDispatcher(func(recovered any) {
		c.logger.Error("observer panicked", wflog.Fields{"recovered": recovered}, nil)
	})
	for _, opt := range opts {
		opt(c)
	}
	if c.serviceLocator == nil {
		c.serviceLocator = c.opts.ServiceLocator
	}
	return c
}

// ExecutionID returns this context's unique execution identifier.
func (c *Context) ExecutionID() string { return c.executionID }

// Logger returns the logger port; never nil.
func (c *Context) Logger() wflog.Logger { return c.logger }

// ServiceLocator returns the opaque service-locator handle set by
// WithServiceLocator, or else the options' ServiceLocator; may be nil.
func (c *Context) ServiceLocator() any { return c.serviceLocator }

// Options returns the context's recognised options.
func (c *Context) Options() options.Options { return c.opts }

// CurrentWorkflow returns the workflow currently executing against this
// context, or nil between executions. Not part of operation.Context by
// design (see the operation package doc), avoiding an operation→workflow
// import.
func (c *Context) CurrentWorkflow() *workflow.Definition { return c.currentWorkflow.Load() }

// SetCurrentWorkflow is called by smith on entry (with the running
// definition) and on exit (with nil) around an execution.
func (c *Context) SetCurrentWorkflow(def *workflow.Definition) {
	c.currentWorkflow.Store(def)
}

// Get returns the value stored under key and whether it was present.
func (c *Context) Get(key string) (any, bool) {
	return c.properties.Load(key)
}

// GetRequired returns the value stored under key, failing with a
// wferrors.KeyNotFound error when absent, per §4.4's "direct indexed
// access on a missing key fails with a KeyNotFound error".
func (c *Context) GetRequired(key string) (any, error) {
	v, ok := c.properties.Load(key)
	if !ok {
		return nil, wferrors.New("foundry.Context.GetRequired", wferrors.KeyNotFound, "key not found: "+key, nil).
			WithIdentity(c.executionID, c.workflowID(), "", "")
	}
	return v, nil
}

// Set stores value under key. Key must be non-empty after trimming
// whitespace, per §4.4's key-validation invariant. Fails with
// wferrors.Disposed if the context has been disposed.
func (c *Context) Set(key string, value any) error {
	if strings.TrimSpace(key) == "" {
		return wferrors.New("foundry.Context.Set", wferrors.ContextData, "key must be non-empty", nil).
			WithIdentity(c.executionID, c.workflowID(), "", "")
	}
	if c.disposed.Load() {
		return wferrors.New("foundry.Context.Set", wferrors.Disposed, "context is disposed", nil).
			WithIdentity(c.executionID, c.workflowID(), "", "")
	}
	c.properties.Store(key, value)
	return nil
}

func (c *Context) workflowID() string {
	if wf := c.currentWorkflow.Load(); wf != nil {
		return wf.ID()
	}
	return ""
}

// RecordOperationOutput stores the reserved properties an operation's
// successful completion must leave behind (§4.4): the per-operation output
// keyed by index and name, and the last-completed index/name markers.
func (c *Context) RecordOperationOutput(index int, name string, output any) {
	c.properties.Store(OutputKey(index, name), output)
	c.properties.Store(KeyLastCompletedIndex, index)
	c.properties.Store(KeyLastCompletedName, name)
}

// AddMiddleware appends mw to the middleware list. Fails with
// wferrors.ContextBusy while an execution is in flight, and with
// wferrors.Disposed after disposal, per §4.4/§5's "mutable only while not
// executing" invariant.
func (c *Context) AddMiddleware(mw operation.Middleware) error {
	c.listMu.Lock()
	defer c.listMu.Unlock()
	if err := c.checkMutable("foundry.Context.AddMiddleware"); err != nil {
		return err
	}
	c.middlewareList = append(c.middlewareList, mw)
	return nil
}

// Middlewares returns a defensive copy of the middleware list.
func (c *Context) Middlewares() []operation.Middleware {
	c.listMu.Lock()
	defer c.listMu.Unlock()
	cp := make([]operation.Middleware, len(c.middlewareList))
	copy(cp, c.middlewareList)
	return cp
}

// AddOperation appends op to the context's own operation list — the
// advanced "Context as mini-workflow" path described in §4.4. Storage
// only: smith never reads this list; it executes only a
// workflow.Definition's operations.
func (c *Context) AddOperation(op operation.Operation) error {
	c.listMu.Lock()
	defer c.listMu.Unlock()
	if err := c.checkMutable("foundry.Context.AddOperation"); err != nil {
		return err
	}
	c.operationList = append(c.operationList, op)
	return nil
}

// Operations returns a defensive copy of the context's own operation list.
func (c *Context) Operations() []operation.Operation {
	c.listMu.Lock()
	defer c.listMu.Unlock()
	cp := make([]operation.Operation, len(c.operationList))
	copy(cp, c.operationList)
	return cp
}

func (c *Context) checkMutable(op string) error {
	if c.disposed.Load() {
		return wferrors.New(op, wferrors.Disposed, "context is disposed", nil).
			WithIdentity(c.executionID, c.workflowID(), "", "")
	}
	if c.frozen.Load() {
		return wferrors.New(op, wferrors.ContextBusy, "context is executing", nil).
			WithIdentity(c.executionID, c.workflowID(), "", "")
	}
	return nil
}

// TryFreeze atomically transitions the context from not-executing to
// executing, returning false if it was already frozen — the fail-fast
// behaviour this module picked for concurrent execute(..., sharedContext)
// calls (see DESIGN.md).
func (c *Context) TryFreeze() bool {
	return c.frozen.CompareAndSwap(false, true)
}

// Unfreeze releases the freeze acquired by TryFreeze.
func (c *Context) Unfreeze() {
	c.frozen.Store(false)
}

// IsFrozen reports whether an execution currently holds this context.
func (c *Context) IsFrozen() bool {
	return c.frozen.Load()
}

// Dispose marks the context disposed. Idempotent; subsequent mutating
// calls fail with wferrors.Disposed. Property reads remain available after
// disposal (the implementation choice this module made for the "reads may
// succeed or fail, but must be consistent" clause in §4.4).
func (c *Context) Dispose() error {
	c.disposed.Store(true)
	return nil
}

// IsDisposed reports whether Dispose has been called.
func (c *Context) IsDisposed() bool { return c.disposed.Load() }

// Subscribe registers observer for whichever of wfevents.OperationLifecycle,
// wfevents.WorkflowLifecycle, and wfevents.CompensationLifecycle it
// implements. Only the operation-level trio is ever emitted by the
// context itself; the other two are emitted by smith.Orchestrator against
// the same dispatcher instance (see Dispatcher).
func (c *Context) Subscribe(observer any) {
	c.dispatcher.Subscribe(observer)
}

// Dispatcher exposes the underlying event dispatcher so smith can route
// workflow- and compensation-level events to the same observer set this
// context's operation-level events go to.
func (c *Context) Dispatcher() *wfevents.Dispatcher {
	return c.dispatcher
}

// EmitOperationStarted emits an OperationStarted event to subscribed
// observers, catching and logging any observer panic rather than
// propagating it (§4.4, §7).
func (c *Context) EmitOperationStarted(e wfevents.OperationStarted) {
	c.dispatcher.EmitOperationStarted(e)
}

// EmitOperationCompleted emits an OperationCompleted event.
func (c *Context) EmitOperationCompleted(e wfevents.OperationCompleted) {
	c.dispatcher.EmitOperationCompleted(e)
}

// EmitOperationFailed emits an OperationFailed event.
func (c *Context) EmitOperationFailed(e wfevents.OperationFailed) {
	c.dispatcher.EmitOperationFailed(e)
}
