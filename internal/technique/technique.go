// Package technique defines the contract every pluggable attack unit
// implements and the process-wide registry that catalogs them.
//
// A technique is an opaque unit of offensive action (cloud API call, CLI
// invocation, HTTP request). The playbook engine drives techniques through
// exactly three operations: GetParameters, ValidateParameters, and Execute.
// Techniques collapse every expected failure mode into a typed
// ExecutionResult so the engine never needs technique-specific error
// handling.
package technique

import (
	"context"
)

// Technique is the contract every pluggable attack unit implements.
type Technique interface {
	// Descriptor returns the immutable metadata for this technique.
	Descriptor() Descriptor

	// GetParameters describes the technique's inputs. It is pure and
	// side-effect-free, and must be callable before Execute.
	GetParameters() map[string]ParameterSpec

	// ValidateParameters checks that every required parameter is present
	// and non-empty in supplied. It does not coerce types. Returns a
	// TECHNIQUE_VALIDATION error naming the missing field on failure.
	ValidateParameters(supplied map[string]any) error

	// Execute performs the technique's side effect and returns a fresh
	// ExecutionResult. Expected failure modes (auth failure, permission
	// denial, timeout) must be reported as StatusFailure results, never
	// as panics; only truly unexpected conditions may escape, and the
	// engine converts those to StatusError.
	Execute(ctx context.Context, supplied map[string]any) ExecutionResult
}

// Factory constructs a fresh technique instance for one invocation.
// The engine instantiates per step so techniques never share state
// across steps or runs.
type Factory func() Technique

// Base provides the Descriptor and ValidateParameters boilerplate shared
// by technique implementations. Embedding types supply GetParameters and
// Execute.
type Base struct {
	Desc   Descriptor
	Params map[string]ParameterSpec
}

// Descriptor returns the technique's immutable metadata.
func (b *Base) Descriptor() Descriptor {
	return b.Desc
}

// GetParameters returns the technique's parameter schema.
func (b *Base) GetParameters() map[string]ParameterSpec {
	return b.Params
}

// ValidateParameters checks required-parameter presence against the schema.
func (b *Base) ValidateParameters(supplied map[string]any) error {
	return CheckRequired(b.Params, supplied)
}
