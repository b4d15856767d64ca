package schedule

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectra-ai-research/halberd/internal/engine"
	"github.com/vectra-ai-research/halberd/internal/playbook"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "Schedules.yml"))
}

func validSchedule(playbookID string) Schedule {
	return Schedule{
		PlaybookID:    playbookID,
		StartDate:     "2026-09-01",
		EndDate:       "2026-09-30",
		ExecutionTime: "10:00",
	}
}

func TestStoreAddAndGet(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Add("nightly_recon", validSchedule("aws_recon")))

	got, err := store.Get("nightly_recon")
	require.NoError(t, err)
	assert.Equal(t, "aws_recon", got.PlaybookID)
	assert.Equal(t, "10:00", got.ExecutionTime)
}

func TestStoreAddCollision(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Add("nightly_recon", validSchedule("aws_recon")))
	err := store.Add("nightly_recon", validSchedule("gcp_enum"))
	require.Error(t, err)
	assert.True(t, IsCollisionError(err))
}

func TestStoreAddInvalid(t *testing.T) {
	store := setupTestStore(t)

	err := store.Add("", validSchedule("aws_recon"))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	sched := validSchedule("aws_recon")
	sched.ExecutionTime = "bad"
	err = store.Add("broken", sched)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestStoreGetNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Get("missing")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestStoreListSorted(t *testing.T) {
	store := setupTestStore(t)

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, store.Add(name, validSchedule("aws_recon")))
	}

	schedules, names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, names)
	assert.Len(t, schedules, 3)
}

func TestStoreListEmptyWhenFileMissing(t *testing.T) {
	store := setupTestStore(t)

	schedules, names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, schedules)
	assert.Empty(t, names)
}

func TestStoreDelete(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Add("nightly_recon", validSchedule("aws_recon")))
	require.NoError(t, store.Delete("nightly_recon"))

	_, err := store.Get("nightly_recon")
	assert.True(t, IsNotFoundError(err))

	err = store.Delete("nightly_recon")
	assert.True(t, IsNotFoundError(err))
}

func TestStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Schedules.yml")

	first := NewStore(path)
	require.NoError(t, first.Add("nightly_recon", validSchedule("aws_recon")))

	second := NewStore(path)
	got, err := second.Get("nightly_recon")
	require.NoError(t, err)
	assert.Equal(t, "aws_recon", got.PlaybookID)

	// The on-disk format is the Halberd schedules file shape.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Playbook_Id: aws_recon")
	assert.Contains(t, string(data), "Execution_Time: \"10:00\"")
}

func TestStorePruneExpired(t *testing.T) {
	store := setupTestStore(t)

	expired := validSchedule("aws_recon")
	expired.StartDate = "2026-01-01"
	expired.EndDate = "2026-01-02"
	require.NoError(t, store.Add("old", expired))
	require.NoError(t, store.Add("current", validSchedule("gcp_enum")))

	pruned, err := store.PruneExpired(time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, pruned)

	_, names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"current"}, names)
}

// fakeRunner records executions started by the evaluator.
type fakeRunner struct {
	mu       sync.Mutex
	executed []string
}

func (f *fakeRunner) Execute(ctx context.Context, pb *playbook.Playbook) (*engine.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, pb.Name)

	// A minimal settled handle; the evaluator only logs its ID.
	return &engine.Run{}, nil
}

func (f *fakeRunner) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.executed...)
}

func setupEvaluator(t *testing.T, runner Runner) (*Store, *playbook.Store, *Evaluator) {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	playbooks := playbook.NewStore(filepath.Join(dir, "playbooks"), filepath.Join(dir, "exports"), logger)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "playbooks"), 0o755))

	schedules := NewStore(filepath.Join(dir, "Schedules.yml"))
	evaluator := NewEvaluator(schedules, playbooks, runner, pollGranularity, logger)
	return schedules, playbooks, evaluator
}

func TestEvaluatorFiresDueScheduleOnce(t *testing.T) {
	runner := &fakeRunner{}
	schedules, playbooks, evaluator := setupEvaluator(t, runner)

	pb, err := playbooks.Create("aws_recon", "tester", "scheduled recon", nil)
	require.NoError(t, err)
	require.NoError(t, pb.AppendStep(playbook.Step{Module: "aws_list_buckets"}))
	require.NoError(t, playbooks.Save(pb))

	require.NoError(t, schedules.Add("morning", Schedule{
		PlaybookID:    "aws_recon",
		StartDate:     "2026-09-01",
		EndDate:       "2026-09-01",
		ExecutionTime: "10:00",
	}))

	ctx := context.Background()
	due := dayAt(t, "2026-09-01", "10:00")

	evaluator.Tick(ctx, due.Add(-time.Hour))
	assert.Empty(t, runner.names())

	evaluator.Tick(ctx, due)
	assert.Equal(t, []string{"aws_recon"}, runner.names())

	// The same occurrence does not fire twice.
	evaluator.Tick(ctx, due.Add(30*time.Second))
	assert.Equal(t, []string{"aws_recon"}, runner.names())
}

func TestEvaluatorSkipsMissingPlaybook(t *testing.T) {
	runner := &fakeRunner{}
	schedules, _, evaluator := setupEvaluator(t, runner)

	require.NoError(t, schedules.Add("dangling", Schedule{
		PlaybookID:    "no_such_playbook",
		StartDate:     "2026-09-01",
		EndDate:       "2026-09-01",
		ExecutionTime: "10:00",
	}))

	evaluator.Tick(context.Background(), dayAt(t, "2026-09-01", "10:00"))
	assert.Empty(t, runner.names())
}

func TestEvaluatorPrunesExpired(t *testing.T) {
	runner := &fakeRunner{}
	schedules, _, evaluator := setupEvaluator(t, runner)

	require.NoError(t, schedules.Add("stale", Schedule{
		PlaybookID:    "aws_recon",
		StartDate:     "2026-01-01",
		EndDate:       "2026-01-02",
		ExecutionTime: "10:00",
	}))

	evaluator.Tick(context.Background(), dayAt(t, "2026-09-01", "10:00"))

	_, names, err := schedules.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}
