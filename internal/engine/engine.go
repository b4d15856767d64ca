// Package engine executes playbooks step by step against the technique
// registry, writing durable run artifacts as it goes. Each execution is
// supervised through a Run handle held in the engine's run table, so
// concurrent runs of the same playbook stay independent.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vectra-ai-research/halberd/internal/database"
	"github.com/vectra-ai-research/halberd/internal/playbook"
	"github.com/vectra-ai-research/halberd/internal/report"
	"github.com/vectra-ai-research/halberd/internal/technique"
	"github.com/vectra-ai-research/halberd/internal/types"
)

// Engine executes playbooks against a technique registry.
type Engine struct {
	registry  *technique.Registry
	outputDir string
	history   *database.HistoryStore
	logger    *slog.Logger
	tracer    trace.Tracer

	mu   sync.Mutex
	runs map[types.ID]*Run
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHistory enables recording runs to the execution history index.
func WithHistory(history *database.HistoryStore) Option {
	return func(e *Engine) {
		e.history = history
	}
}

// WithTracer sets the tracer used for run and step spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// New creates an Engine writing run artifacts under outputDir.
func New(registry *technique.Registry, outputDir string, opts ...Option) *Engine {
	e := &Engine{
		registry:  registry,
		outputDir: outputDir,
		logger:    slog.Default(),
		tracer:    noop.NewTracerProvider().Tracer("halberd/engine"),
		runs:      make(map[types.ID]*Run),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute starts executing the playbook and returns a Run handle
// supervising it. The run folder, frozen step sequence copy, and report
// file exist before Execute returns; steps run in the background until
// the sequence is exhausted or ctx is cancelled.
func (e *Engine) Execute(ctx context.Context, pb *playbook.Playbook) (*Run, error) {
	if pb.StepCount() == 0 {
		return nil, playbook.NewEmptySequenceError(pb.Name)
	}

	start := time.Now()
	writer, err := report.NewWriter(e.outputDir, pb.Name, start)
	if err != nil {
		return nil, fmt.Errorf("preparing run folder for %q: %w", pb.Name, err)
	}
	if err := writer.WriteConfig(pb.Steps); err != nil {
		writer.Close()
		return nil, fmt.Errorf("writing execution config for %q: %w", pb.Name, err)
	}

	run := newRun(pb.Name, writer.Dir(), pb.StepCount(), start)

	e.mu.Lock()
	e.runs[run.id] = run
	e.mu.Unlock()

	if e.history != nil {
		record := &database.RunRecord{
			ID:           run.id,
			PlaybookName: pb.Name,
			RunDir:       writer.Dir(),
			StepCount:    pb.StepCount(),
			Status:       database.RunStateRunning,
			StartedAt:    start,
		}
		if err := e.history.SaveRun(ctx, record); err != nil {
			e.logger.Warn("failed to index run in history",
				"run_id", run.id, "playbook", pb.Name, "error", err)
		}
	}

	e.logger.Info("playbook execution started",
		"run_id", run.id, "playbook", pb.Name, "steps", pb.StepCount(), "run_dir", writer.Dir())

	go e.runSteps(ctx, run, pb, writer)

	return run, nil
}

// Get looks up a run handle by ID.
func (e *Engine) Get(id types.ID) (*Run, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	run, ok := e.runs[id]
	return run, ok
}

// Runs returns all run handles the engine holds, running and finished.
func (e *Engine) Runs() []*Run {
	e.mu.Lock()
	defer e.mu.Unlock()

	runs := make([]*Run, 0, len(e.runs))
	for _, run := range e.runs {
		runs = append(runs, run)
	}
	return runs
}

// runSteps drives the step sequence to completion in the background.
func (e *Engine) runSteps(ctx context.Context, run *Run, pb *playbook.Playbook, writer *report.Writer) {
	defer writer.Close()

	ctx, span := e.tracer.Start(ctx, "playbook.execute",
		trace.WithAttributes(
			attribute.String("run.id", run.id.String()),
			attribute.String("playbook.name", pb.Name),
			attribute.Int("playbook.steps", pb.StepCount()),
		))
	defer span.End()

	for i, step := range pb.Steps {
		position := i + 1

		select {
		case <-ctx.Done():
			e.logger.Info("playbook execution cancelled",
				"run_id", run.id, "playbook", pb.Name, "completed", run.CompletedSteps())
			e.finishRun(run, RunStateCancelled)
			return
		default:
		}

		result := e.executeStep(ctx, position, step)
		run.recordStep(position, result.Status)

		record := report.StepRecord{
			Position:  position,
			Module:    step.Module,
			Status:    result.Status,
			Message:   result.Message,
			Timestamp: time.Now(),
		}
		if err := writer.WriteRecord(record); err != nil {
			e.logger.Error("failed to write step record",
				"run_id", run.id, "position", position, "module", step.Module, "error", err)
		}
		if result.Value != nil {
			if err := writer.WriteResultPayload(step.Module, formatPayload(result.Value)); err != nil {
				e.logger.Error("failed to write result payload",
					"run_id", run.id, "position", position, "module", step.Module, "error", err)
			}
		}
		if e.history != nil {
			if err := e.history.AddStepResult(ctx, run.id, record); err != nil {
				e.logger.Warn("failed to index step result in history",
					"run_id", run.id, "position", position, "error", err)
			}
		}

		e.logger.Info("step completed",
			"run_id", run.id, "position", position, "module", step.Module, "status", result.Status)

		// The trailing wait has nothing left to pace, so it is skipped.
		if step.Wait > 0 && position < pb.StepCount() {
			if !e.waitBetweenSteps(ctx, step.Wait) {
				e.logger.Info("playbook execution cancelled during wait",
					"run_id", run.id, "playbook", pb.Name, "completed", run.CompletedSteps())
				e.finishRun(run, RunStateCancelled)
				return
			}
		}
	}

	e.logger.Info("playbook execution completed",
		"run_id", run.id, "playbook", pb.Name, "steps", pb.StepCount())
	e.finishRun(run, RunStateCompleted)
}

// executeStep runs a single step and converts every failure mode,
// including unknown modules, bad parameters, and panics inside the
// technique, into an ExecutionResult so the sequence keeps going.
func (e *Engine) executeStep(ctx context.Context, position int, step playbook.Step) (result technique.ExecutionResult) {
	ctx, span := e.tracer.Start(ctx, "playbook.step",
		trace.WithAttributes(
			attribute.Int("step.position", position),
			attribute.String("step.module", step.Module),
		))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("technique panicked",
				"position", position, "module", step.Module, "panic", r)
			result = technique.NewErrorResult(
				fmt.Sprintf("technique %s panicked", step.Module), fmt.Sprint(r))
		}
		span.SetAttributes(attribute.String("step.status", result.Status.String()))
	}()

	factory, err := e.registry.Get(step.Module)
	if err != nil {
		return technique.NewErrorResult(
			fmt.Sprintf("technique %s is not registered", step.Module), err.Error())
	}

	tech := factory()
	if err := tech.ValidateParameters(step.Params); err != nil {
		return technique.NewErrorResult(
			fmt.Sprintf("invalid parameters for %s", step.Module), err.Error())
	}

	return tech.Execute(ctx, step.Params)
}

// waitBetweenSteps pauses for the given number of seconds, returning
// false if the context was cancelled before the wait elapsed.
func (e *Engine) waitBetweenSteps(ctx context.Context, seconds int) bool {
	timer := time.NewTimer(time.Duration(seconds) * time.Second)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// finishRun settles the run handle and the history index.
func (e *Engine) finishRun(run *Run, state RunState) {
	run.finish(state)

	if e.history != nil {
		// The run's context may already be cancelled; history writes
		// still need to land.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.history.CompleteRun(ctx, run.id, time.Now()); err != nil {
			e.logger.Warn("failed to finalize run in history", "run_id", run.id, "error", err)
		}
	}
}

// formatPayload renders a technique result value for the per-step
// payload file. Values that cannot be marshaled fall back to their
// default string form.
func formatPayload(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}
