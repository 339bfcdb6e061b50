package resilience

import (
	"context"

	"github.com/animatlabs/workflowforge/operation"
	"github.com/animatlabs/workflowforge/wferrors"
	"github.com/sony/gobreaker"
)

// CircuitBreakerSettings configures CircuitBreaker, mirroring the fields of
// gobreaker.Settings this wrapper actually drives.
type CircuitBreakerSettings struct {
	// Name identifies the breaker in OnStateChange callbacks and error
	// messages.
	Name string

	// MaxRequests is the number of requests allowed to pass through while
	// the breaker is half-open. Zero means one.
	MaxRequests uint32

	// ReadyToTrip decides, from the current failure counts, whether the
	// breaker should open. Nil uses gobreaker's own default (opens once
	// consecutive failures exceed five).
	ReadyToTrip func(counts gobreaker.Counts) bool

	// OnStateChange is notified whenever the breaker transitions between
	// closed, open, and half-open.
	OnStateChange func(name string, from, to gobreaker.State)
}

// circuitBreakerOperation wraps inner behind a gobreaker.CircuitBreaker.
// Restore always forwards to inner.Restore unconditionally (§4.7): an open
// circuit only ever short-circuits Execute.
type circuitBreakerOperation struct {
	inner operation.Operation
	cb    *gobreaker.CircuitBreaker
}

// CircuitBreaker wraps inner using github.com/sony/gobreaker, opening after
// settings.ReadyToTrip reports true and short-circuiting further attempts
// with a wrapped wferrors.Operation error while open.
func CircuitBreaker(inner operation.Operation, settings CircuitBreakerSettings) operation.Operation {
	name := settings.Name
	if name == "" {
		name = inner.Name()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:          name,
		MaxRequests:   settings.MaxRequests,
		ReadyToTrip:   settings.ReadyToTrip,
		OnStateChange: settings.OnStateChange,
	})
	return &circuitBreakerOperation{inner: inner, cb: cb}
}

func (c *circuitBreakerOperation) ID() string   { return c.inner.ID() }
func (c *circuitBreakerOperation) Name() string { return c.inner.Name() }

func (c *circuitBreakerOperation) Execute(cancel context.Context, ctx operation.Context, input any) (any, error) {
	output, err := c.cb.Execute(func() (any, error) {
		return c.inner.Execute(cancel, ctx, input)
	})
	if err != nil {
		return nil, wferrors.New("resilience.CircuitBreaker", wferrors.Operation, "circuit breaker rejected or inner operation failed", err)
	}
	return output, nil
}

func (c *circuitBreakerOperation) Restore(cancel context.Context, ctx operation.Context, output any) error {
	return c.inner.Restore(cancel, ctx, output)
}
