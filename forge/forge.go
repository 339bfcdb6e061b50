// Package forge is the Factory Surface (§4.9 of spec.md, component 11 of
// SPEC_FULL.md's component table): construction entry points that produce a
// Workflow Builder, a Foundry context, and an Orchestrator with sensible
// defaults, so most callers only ever need to import this one package.
package forge

import (
	"context"

	"github.com/animatlabs/workflowforge/foundry"
	"github.com/animatlabs/workflowforge/operation"
	"github.com/animatlabs/workflowforge/options"
	"github.com/animatlabs/workflowforge/smith"
	"github.com/animatlabs/workflowforge/wflog"
	"github.com/animatlabs/workflowforge/workflow"
)

// NewWorkflow starts a workflow.Builder named name — the same entry point
// as calling workflow.NewBuilder().WithName(name) directly, offered here so
// callers need only import forge.
func NewWorkflow(name string) *workflow.Builder {
	return workflow.NewBuilder().WithName(name)
}

// Config bundles the construction knobs shared by a Foundry context and the
// Orchestrator that will drive it, so both are built from one consistent
// source of truth (notably options.Options.MaxConcurrentFlows, which
// governs both the context's recognised options and the orchestrator's
// concurrency gate — see DESIGN.md for why that single field drives two
// different components).
type Config struct {
	// Logger is the context's logger port. Nil keeps wflog.NoOp().
	Logger wflog.Logger

	// ServiceLocator is the opaque handle operations resolve services
	// from. Nil means none.
	ServiceLocator any

	// Options are the context's recognised run options. The zero value is
	// NOT the engine's default options (it would disable output chaining,
	// auto-restore, and so on) — use NewConfig or set Options explicitly
	// via options.New(...) to get sensible defaults.
	Options options.Options

	// Observers are subscribed to both the context's operation-level
	// events and the orchestrator's workflow/compensation-level events.
	Observers []any

	// Middleware is installed on the context before any execution begins.
	Middleware []operation.Middleware
}

// NewConfig builds a Config with options.New's defaults applied, then
// overridden by opts — the sensible-defaults entry point Config callers
// should prefer over a bare Config{} literal.
func NewConfig(opts ...options.Option) Config {
	return Config{Options: options.New(opts...)}
}

// NewContext builds a Foundry context from cfg: logger, service locator,
// options, observers, and middleware all wired in before the context is
// ever handed to an Orchestrator.
func NewContext(cfg Config) *foundry.Context {
	fopts := []foundry.Option{foundry.WithOptions(cfg.Options)}
	if cfg.Logger != nil {
		fopts = append(fopts, foundry.WithLogger(cfg.Logger))
	}
	if cfg.ServiceLocator != nil {
		fopts = append(fopts, foundry.WithServiceLocator(cfg.ServiceLocator))
	}
	for _, observer := range cfg.Observers {
		fopts = append(fopts, foundry.WithObserver(observer))
	}

	ctx := foundry.New(fopts...)
	for _, mw := range cfg.Middleware {
		// Never fails here: a freshly built context is never frozen or
		// disposed.
		_ = ctx.AddMiddleware(mw)
	}
	return ctx
}

// NewOrchestrator builds a smith.Orchestrator from cfg, subscribing its
// observers and, when cfg.Options.MaxConcurrentFlows is set, sizing the
// orchestrator's concurrency gate to match.
func NewOrchestrator(cfg Config) *smith.Orchestrator {
	sopts := make([]smith.Option, 0, len(cfg.Observers)+1)
	for _, observer := range cfg.Observers {
		sopts = append(sopts, smith.WithObserver(observer))
	}
	if cfg.Options.MaxConcurrentFlows > 0 {
		sopts = append(sopts, smith.WithMaxConcurrentFlows(cfg.Options.MaxConcurrentFlows))
	}
	return smith.New(sopts...)
}

// Run is the one-shot convenience entry point: it builds a fresh context
// and orchestrator from cfg and executes def against cancel, equivalent to
// smith's execute(workflow, context, cancel) entry point (§4.6) with both
// sides constructed consistently from the same Config.
func Run(cancel context.Context, def *workflow.Definition, cfg Config) (any, error) {
	ctx := NewContext(cfg)
	// cfg.Observers are already subscribed on ctx, whose dispatcher also
	// carries the orchestrator's workflow- and compensation-level events;
	// subscribing them on the orchestrator as well would deliver every event
	// twice.
	orchCfg := cfg
	orchCfg.Observers = nil
	return NewOrchestrator(orchCfg).ExecuteWithContext(cancel, def, ctx)
}
