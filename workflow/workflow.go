// Package workflow defines the immutable Workflow Definition (§4.2) and its
// fluent Builder (§4.3).
package workflow

import (
	"strconv"
	"strings"

	"github.com/animatlabs/workflowforge/operation"
	"github.com/animatlabs/workflowforge/wferrors"
	"github.com/google/uuid"
)

// Definition is an immutable, ordered sequence of operations with
// identity, name, description, and version. Once built, its operation
// sequence is frozen and may be executed any number of times.
type Definition struct {
	id          string
	name        string
	description string
	version     string
	operations  []operation.Operation
}

// ID returns the definition's unique identity.
func (d *Definition) ID() string { return d.id }

// Name returns the definition's non-empty name.
func (d *Definition) Name() string { return d.name }

// Description returns the definition's optional description.
func (d *Definition) Description() string { return d.description }

// Version returns the definition's version string.
func (d *Definition) Version() string { return d.version }

// Operations returns the ordered operation sequence. The returned slice is
// a defensive copy; mutating it has no effect on the definition.
func (d *Definition) Operations() []operation.Operation {
	cp := make([]operation.Operation, len(d.operations))
	copy(cp, d.operations)
	return cp
}

// Len returns the number of operations in the definition.
func (d *Definition) Len() int { return len(d.operations) }

// At returns the operation at index i.
func (d *Definition) At(i int) operation.Operation { return d.operations[i] }

// RestoreCapable reports whether at least one operation in the definition
// is known to carry real compensation, per the advisory flag described in
// §4.2. Operation types that don't expose a HasRestore() bool are assumed
// restore-capable (conservative default); this flag is purely informational
// — compensation always attempts restore on every completed operation in
// reverse order regardless of it.
func (d *Definition) RestoreCapable() bool {
	for _, op := range d.operations {
		if tracked, ok := op.(interface{ HasRestore() bool }); ok && !tracked.HasRestore() {
			continue
		}
		return true
	}
	return false
}

// Builder fluently assembles a Definition, validating constraints at
// Build (§4.3).
type Builder struct {
	name        string
	description string
	version     string
	operations  []operation.Operation
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithName sets the definition's name.
func (b *Builder) WithName(name string) *Builder {
	b.name = name
	return b
}

// WithDescription sets the definition's description.
func (b *Builder) WithDescription(description string) *Builder {
	b.description = description
	return b
}

// WithVersion sets the definition's version.
func (b *Builder) WithVersion(version string) *Builder {
	b.version = version
	return b
}

// AddOperation appends an already-constructed Operation.
func (b *Builder) AddOperation(op operation.Operation) *Builder {
	b.operations = append(b.operations, op)
	return b
}

// AddOperationFunc appends an Operation adapted from name, an execute
// function, and an optional restore function (nil for no compensation).
func (b *Builder) AddOperationFunc(name string, fn operation.ExecuteFunc, restore operation.RestoreFunc) *Builder {
	b.operations = append(b.operations, operation.NewDelegate(name, fn, restore))
	return b
}

// Build validates the accumulated state and produces an immutable
// Definition, failing with a wferrors.Configuration error naming the
// offending field.
func (b *Builder) Build() (*Definition, error) {
	const op = "workflow.Builder.Build"

	if strings.TrimSpace(b.name) == "" {
		return nil, wferrors.New(op, wferrors.Configuration, "name must be non-empty", nil)
	}
	if len(b.operations) == 0 {
		return nil, wferrors.New(op, wferrors.Configuration, "operations must be non-empty", nil)
	}
	for i, o := range b.operations {
		if o == nil {
			return nil, wferrors.New(op, wferrors.Configuration, "operations must not contain nil entries", nil)
		}
		if strings.TrimSpace(o.Name()) == "" {
			return nil, wferrors.New(op, wferrors.Configuration, "operation at index "+strconv.Itoa(i)+" must have a non-empty name", nil)
		}
	}

	ops := make([]operation.Operation, len(b.operations))
	copy(ops, b.operations)

	return &Definition{
		id:          uuid.NewString(),
		name:        b.name,
		description: b.description,
		version:     b.version,
		operations:  ops,
	}, nil
}
