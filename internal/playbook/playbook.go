// Package playbook defines the persisted playbook entity: a named,
// author-attributed, ordered sequence of technique invocations with
// parameters and inter-step delays. The on-disk YAML file is the single
// source of truth; in-memory instances are transient views that must be
// saved to persist mutations.
package playbook

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// creationDateLayout is the MM-DD-YYYY format playbook files carry.
const creationDateLayout = "01-02-2006"

// nameRe restricts playbook names to letters, digits, spaces, hyphens,
// and underscores.
var nameRe = regexp.MustCompile(`^[\w\-\s]+$`)

// Playbook is a named, ordered sequence of steps with authorship metadata.
type Playbook struct {
	// Name uniquely identifies the playbook on disk.
	Name string

	// Description is free-text documentation.
	Description string

	// Author attributes the playbook.
	Author string

	// References lists external links related to the playbook.
	References []string

	// CreationDate records when the playbook was created (MM-DD-YYYY).
	CreationDate string

	// Steps is the ordered step sequence; position is index+1.
	Steps []Step
}

// New constructs an empty playbook with the given metadata. The returned
// playbook is not persisted; use Store.Create for create-and-persist.
func New(name, author, description string, references []string) (*Playbook, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	if author == "" {
		author = "Unknown"
	}

	return &Playbook{
		Name:         name,
		Description:  description,
		Author:       author,
		References:   references,
		CreationDate: time.Now().Format(creationDateLayout),
		Steps:        []Step{},
	}, nil
}

// ValidateName checks the playbook name against the allowed character set.
func ValidateName(name string) error {
	if name == "" {
		return NewValidationError("playbook name cannot be empty")
	}
	if !nameRe.MatchString(name) {
		return NewValidationError(
			"playbook name contains invalid characters; use only letters, numbers, spaces, hyphens, and underscores",
		)
	}
	return nil
}

// FileName returns the on-disk file name derived from the playbook name:
// spaces become underscores, with a .yml extension.
func (p *Playbook) FileName() string {
	return FileNameFor(p.Name)
}

// FileNameFor derives the on-disk file name for a playbook name.
func FileNameFor(name string) string {
	return strings.ReplaceAll(name, " ", "_") + ".yml"
}

// StepCount returns the number of steps in the sequence.
func (p *Playbook) StepCount() int {
	return len(p.Steps)
}

// Step returns the step at the given 1-based position.
func (p *Playbook) Step(position int) (Step, error) {
	if position < 1 || position > len(p.Steps) {
		return Step{}, NewValidationError(
			fmt.Sprintf("step position %d is out of range [1, %d]", position, len(p.Steps)),
		)
	}
	return p.Steps[position-1], nil
}

// AddStep inserts a step at the given 1-based position, shifting
// subsequent steps up by one. Position len+1 appends.
func (p *Playbook) AddStep(step Step, position int) error {
	if err := step.Validate(); err != nil {
		return err
	}

	steps, err := insertStep(p.Steps, step, position)
	if err != nil {
		return err
	}

	p.Steps = steps
	return nil
}

// AppendStep adds a step at the end of the sequence.
func (p *Playbook) AppendStep(step Step) error {
	return p.AddStep(step, len(p.Steps)+1)
}

// RemoveStep removes the step at the given 1-based position and renumbers
// all subsequent steps down by one, preserving contiguity.
func (p *Playbook) RemoveStep(position int) error {
	steps, err := removeStep(p.Steps, position)
	if err != nil {
		return err
	}

	p.Steps = steps
	return nil
}

// UpdateStep replaces the step at the given 1-based position.
func (p *Playbook) UpdateStep(position int, step Step) error {
	if position < 1 || position > len(p.Steps) {
		return NewValidationError(
			fmt.Sprintf("step position %d is out of range [1, %d]", position, len(p.Steps)),
		)
	}
	if err := step.Validate(); err != nil {
		return err
	}

	p.Steps[position-1] = step
	return nil
}

// MinExecTime returns the minimum wall-clock duration a full run of this
// playbook requires from inter-step waits alone.
func (p *Playbook) MinExecTime() time.Duration {
	var total int
	for _, step := range p.Steps {
		total += step.Wait
	}
	return time.Duration(total) * time.Second
}

// Validate checks the playbook's structural invariants: valid name and
// valid steps.
func (p *Playbook) Validate() error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	for i, step := range p.Steps {
		if err := step.Validate(); err != nil {
			return WrapPlaybookError(ErrPlaybookValidation,
				fmt.Sprintf("step %d is invalid", i+1), err)
		}
	}
	return nil
}
