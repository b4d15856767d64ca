package playbook

import "fmt"

// Step is one ordered unit in a playbook: a technique ID keyed into the
// registry, concrete parameter values, and a wait applied after the step
// completes before the next begins.
type Step struct {
	// Module is the technique ID this step invokes.
	Module string `yaml:"Module" json:"module"`

	// Params maps parameter names to concrete values. Unknown keys are
	// ignored at execution time; missing required keys fail validation.
	Params map[string]any `yaml:"Params" json:"params"`

	// Wait is the non-negative delay in seconds applied after this step
	// completes, before the next step begins.
	Wait int `yaml:"Wait" json:"wait"`
}

// NewStep creates a Step with a non-nil params map.
func NewStep(module string, params map[string]any, wait int) Step {
	if params == nil {
		params = make(map[string]any)
	}
	return Step{Module: module, Params: params, Wait: wait}
}

// Validate checks the step's structural invariants.
func (s Step) Validate() error {
	if s.Module == "" {
		return NewValidationError("step module cannot be empty")
	}
	if s.Wait < 0 {
		return NewValidationError(fmt.Sprintf("step wait must be non-negative, got %d", s.Wait))
	}
	return nil
}

// insertStep returns a new slice with step inserted at 1-based position,
// shifting subsequent steps up by one. Positions stay contiguous by
// construction since the slice index is the position.
func insertStep(steps []Step, step Step, position int) ([]Step, error) {
	if position < 1 || position > len(steps)+1 {
		return nil, NewValidationError(
			fmt.Sprintf("step position %d is out of range [1, %d]", position, len(steps)+1),
		)
	}

	out := make([]Step, 0, len(steps)+1)
	out = append(out, steps[:position-1]...)
	out = append(out, step)
	out = append(out, steps[position-1:]...)
	return out, nil
}

// removeStep returns a new slice with the step at 1-based position removed
// and all subsequent steps renumbered down by one.
func removeStep(steps []Step, position int) ([]Step, error) {
	if position < 1 || position > len(steps) {
		return nil, NewValidationError(
			fmt.Sprintf("step position %d is out of range [1, %d]", position, len(steps)),
		)
	}

	out := make([]Step, 0, len(steps)-1)
	out = append(out, steps[:position-1]...)
	out = append(out, steps[position:]...)
	return out, nil
}
