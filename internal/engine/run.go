package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vectra-ai-research/halberd/internal/technique"
	"github.com/vectra-ai-research/halberd/internal/types"
)

// RunState is the lifecycle state of a playbook run.
type RunState string

const (
	// RunStateRunning means steps are still being executed.
	RunStateRunning RunState = "running"

	// RunStateCompleted means every step was attempted and the run
	// artifacts are finalized.
	RunStateCompleted RunState = "completed"

	// RunStateCancelled means the run's context was cancelled before
	// all steps were attempted.
	RunStateCancelled RunState = "cancelled"
)

// String returns the string representation of the state.
func (s RunState) String() string {
	return string(s)
}

// IsValid checks if the state is one of the defined values.
func (s RunState) IsValid() bool {
	switch s {
	case RunStateRunning, RunStateCompleted, RunStateCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the run has stopped executing.
func (s RunState) IsTerminal() bool {
	return s == RunStateCompleted || s == RunStateCancelled
}

// Run is a supervised handle to an in-flight or finished playbook
// execution. Callers observe progress through the handle instead of
// polling the filesystem.
type Run struct {
	id           types.ID
	playbookName string
	runDir       string
	totalSteps   int
	startedAt    time.Time

	mu       sync.Mutex
	state    RunState
	statuses map[int]technique.ExecutionStatus

	done chan struct{}
}

func newRun(playbookName, runDir string, totalSteps int, startedAt time.Time) *Run {
	return &Run{
		id:           types.NewID(),
		playbookName: playbookName,
		runDir:       runDir,
		totalSteps:   totalSteps,
		startedAt:    startedAt,
		state:        RunStateRunning,
		statuses:     make(map[int]technique.ExecutionStatus),
		done:         make(chan struct{}),
	}
}

// ID returns the unique run identifier.
func (r *Run) ID() types.ID {
	return r.id
}

// PlaybookName returns the name of the playbook being executed.
func (r *Run) PlaybookName() string {
	return r.playbookName
}

// RunDir returns the run's artifact folder.
func (r *Run) RunDir() string {
	return r.runDir
}

// StartedAt returns the run start time.
func (r *Run) StartedAt() time.Time {
	return r.startedAt
}

// TotalSteps returns the number of steps in the executed sequence.
func (r *Run) TotalSteps() int {
	return r.totalSteps
}

// State returns the run's current lifecycle state.
func (r *Run) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// StepStatuses returns a copy of the per-position outcomes recorded so
// far, keyed by 1-based step position.
func (r *Run) StepStatuses() map[int]technique.ExecutionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	statuses := make(map[int]technique.ExecutionStatus, len(r.statuses))
	for position, status := range r.statuses {
		statuses[position] = status
	}
	return statuses
}

// CompletedSteps returns how many steps have recorded an outcome.
func (r *Run) CompletedSteps() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.statuses)
}

// Done returns a channel closed when the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run reaches a terminal state or the context is
// cancelled, returning the final state.
func (r *Run) Wait(ctx context.Context) (RunState, error) {
	select {
	case <-r.done:
		return r.State(), nil
	case <-ctx.Done():
		return r.State(), fmt.Errorf("waiting for run %s: %w", r.id, ctx.Err())
	}
}

// recordStep stores a step outcome on the handle.
func (r *Run) recordStep(position int, status technique.ExecutionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[position] = status
}

// finish moves the run to a terminal state and releases waiters.
// Calling finish twice is a programming error.
func (r *Run) finish(state RunState) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
	close(r.done)
}
