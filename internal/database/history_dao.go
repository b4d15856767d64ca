package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vectra-ai-research/halberd/internal/report"
	"github.com/vectra-ai-research/halberd/internal/technique"
	"github.com/vectra-ai-research/halberd/internal/types"
)

// Run lifecycle states recorded in the history index.
const (
	RunStateRunning   = "running"
	RunStateCompleted = "completed"
)

// RunRecord is one row of the run history index.
type RunRecord struct {
	ID           types.ID   `json:"id"`
	PlaybookName string     `json:"playbook_name"`
	RunDir       string     `json:"run_dir"`
	StepCount    int        `json:"step_count"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// HistoryStore records playbook executions and their per-step outcomes.
type HistoryStore struct {
	db *DB
}

// NewHistoryStore creates a HistoryStore backed by the given database.
func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// SaveRun inserts a new run in the running state.
func (s *HistoryStore) SaveRun(ctx context.Context, run *RunRecord) error {
	query := `
	INSERT INTO runs (id, playbook_name, run_dir, step_count, status, started_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.conn.ExecContext(ctx, query,
		run.ID.String(), run.PlaybookName, run.RunDir, run.StepCount, run.Status, run.StartedAt)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to save run", err)
	}
	return nil
}

// CompleteRun marks a run completed with the given completion time.
func (s *HistoryStore) CompleteRun(ctx context.Context, id types.ID, completedAt time.Time) error {
	query := `UPDATE runs SET status = ?, completed_at = ? WHERE id = ?`

	result, err := s.db.conn.ExecContext(ctx, query, RunStateCompleted, completedAt, id.String())
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to complete run", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to read rows affected", err)
	}
	if rows == 0 {
		return types.NewError(types.DB_QUERY_FAILED, fmt.Sprintf("run not found: %s", id))
	}
	return nil
}

// AddStepResult records one step outcome for a run.
func (s *HistoryStore) AddStepResult(ctx context.Context, runID types.ID, record report.StepRecord) error {
	query := `
	INSERT INTO run_steps (run_id, position, module, status, message, completed_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.conn.ExecContext(ctx, query,
		runID.String(), record.Position, record.Module, record.Status.String(), record.Message, record.Timestamp)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to save step result", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *HistoryStore) GetRun(ctx context.Context, id types.ID) (*RunRecord, error) {
	query := `
	SELECT id, playbook_name, run_dir, step_count, status, started_at, completed_at
	FROM runs WHERE id = ?`

	run, err := scanRun(s.db.conn.QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, types.NewError(types.DB_QUERY_FAILED, fmt.Sprintf("run not found: %s", id))
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get run", err)
	}
	return run, nil
}

// ListRuns retrieves runs ordered by start time descending, optionally
// filtered by playbook name (empty name matches all). Limit <= 0 means
// no limit.
func (s *HistoryStore) ListRuns(ctx context.Context, playbookName string, limit int) ([]*RunRecord, error) {
	query := `
	SELECT id, playbook_name, run_dir, step_count, status, started_at, completed_at
	FROM runs`
	var args []any

	if playbookName != "" {
		query += ` WHERE playbook_name = ?`
		args = append(args, playbookName)
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list runs", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan run", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to iterate runs", err)
	}

	return runs, nil
}

// ListStepResults retrieves a run's step outcomes ordered by position.
func (s *HistoryStore) ListStepResults(ctx context.Context, runID types.ID) ([]report.StepRecord, error) {
	query := `
	SELECT position, module, status, message, completed_at
	FROM run_steps WHERE run_id = ? ORDER BY position`

	rows, err := s.db.conn.QueryContext(ctx, query, runID.String())
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list step results", err)
	}
	defer rows.Close()

	var records []report.StepRecord
	for rows.Next() {
		var record report.StepRecord
		var status string
		if err := rows.Scan(&record.Position, &record.Module, &status, &record.Message, &record.Timestamp); err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan step result", err)
		}
		record.Status = statusFromString(status)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to iterate step results", err)
	}

	return records, nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var run RunRecord
	var id string
	var completedAt sql.NullTime

	if err := row.Scan(&id, &run.PlaybookName, &run.RunDir, &run.StepCount, &run.Status, &run.StartedAt, &completedAt); err != nil {
		return nil, err
	}

	run.ID = types.ID(id)
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return &run, nil
}

func statusFromString(s string) (status technique.ExecutionStatus) {
	status = technique.ExecutionStatus(s)
	if !status.IsValid() {
		status = technique.StatusError
	}
	return status
}
