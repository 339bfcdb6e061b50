// Package middleware composes the Russian-doll pipeline of
// operation.Middleware values around a single Operation invocation (§4.5).
package middleware

import "github.com/animatlabs/workflowforge/operation"

// Compose wraps op in mws, first-added outermost: given m1, m2, m3 it
// returns an Operation equivalent to m1(m2(m3(op))), matching §4.5's
// Russian-doll ordering rule — the "before" visit order is m1, m2, …, mK,
// op and the "after" unwind order is op, mK, …, m1.
func Compose(op operation.Operation, mws ...operation.Middleware) operation.Operation {
	wrapped := op
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}
