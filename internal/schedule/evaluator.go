package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/vectra-ai-research/halberd/internal/engine"
	"github.com/vectra-ai-research/halberd/internal/playbook"
)

// PlaybookLoader resolves a schedule's playbook reference.
type PlaybookLoader interface {
	LoadByName(name string) (*playbook.Playbook, error)
}

// Runner starts a playbook execution.
type Runner interface {
	Execute(ctx context.Context, pb *playbook.Playbook) (*engine.Run, error)
}

// Evaluator is the wall-clock polling loop over the schedule store. On
// each tick it fires every due schedule through the runner, at most
// once per occurrence.
type Evaluator struct {
	schedules *Store
	playbooks PlaybookLoader
	runner    Runner
	logger    *slog.Logger
	interval  time.Duration

	// fired maps schedule name to the occurrence instant last fired,
	// so a schedule does not fire twice inside one polling window.
	fired map[string]time.Time
}

// NewEvaluator creates an Evaluator polling at the given interval.
func NewEvaluator(schedules *Store, playbooks PlaybookLoader, runner Runner, interval time.Duration, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		schedules: schedules,
		playbooks: playbooks,
		runner:    runner,
		logger:    logger,
		interval:  interval,
		fired:     make(map[string]time.Time),
	}
}

// Run polls until the context is cancelled.
func (e *Evaluator) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			e.Tick(ctx, now)
		}
	}
}

// Tick evaluates every persisted schedule against the given instant and
// fires the due ones. Exposed separately from Run so tests and callers
// with their own loops can drive evaluation directly.
func (e *Evaluator) Tick(ctx context.Context, now time.Time) {
	if pruned, err := e.schedules.PruneExpired(now); err != nil {
		e.logger.Warn("failed to prune expired schedules", "error", err)
	} else if len(pruned) > 0 {
		e.logger.Info("pruned expired schedules", "schedules", pruned)
	}

	schedules, names, err := e.schedules.List()
	if err != nil {
		e.logger.Error("failed to list schedules", "error", err)
		return
	}

	for _, name := range names {
		sched := schedules[name]
		if !sched.MatchesAt(now, e.interval) {
			continue
		}

		occurrence := occurrenceAt(sched, now)
		if last, ok := e.fired[name]; ok && last.Equal(occurrence) {
			continue
		}
		e.fired[name] = occurrence

		e.fire(ctx, name, sched)
	}
}

// fire resolves the playbook and starts a run.
func (e *Evaluator) fire(ctx context.Context, name string, sched Schedule) {
	pb, err := e.playbooks.LoadByName(sched.PlaybookID)
	if err != nil {
		e.logger.Error("scheduled playbook could not be loaded",
			"schedule", name, "playbook", sched.PlaybookID, "error", err)
		return
	}

	run, err := e.runner.Execute(ctx, pb)
	if err != nil {
		e.logger.Error("scheduled playbook failed to start",
			"schedule", name, "playbook", sched.PlaybookID, "error", err)
		return
	}

	e.logger.Info("schedule fired",
		"schedule", name, "playbook", sched.PlaybookID, "run_id", run.ID())
}

// occurrenceAt returns the schedule's due instant on now's date.
func occurrenceAt(sched Schedule, now time.Time) time.Time {
	execTime, err := time.Parse(TimeLayout, sched.ExecutionTime)
	if err != nil {
		return time.Time{}
	}
	return time.Date(now.Year(), now.Month(), now.Day(),
		execTime.Hour(), execTime.Minute(), 0, 0, now.Location())
}
