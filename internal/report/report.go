// Package report manages the durable per-run execution artifacts: the
// run folder keyed by playbook name and start timestamp, the incrementally
// written step report, and per-step result payload dumps. A reader can
// observe partial progress while a run is still in flight.
package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/vectra-ai-research/halberd/internal/technique"
)

const (
	// ReportFileName is the per-run step report file.
	ReportFileName = "Report.csv"

	// ConfigFileName is the frozen copy of the executed step sequence.
	ConfigFileName = "Execution_Config.yml"

	// RunTimestampLayout formats run start timestamps. Lexicographic
	// order of formatted values matches chronological order, which the
	// tracker relies on to pick the latest run.
	RunTimestampLayout = "2006-01-02_15-04-05"
)

// reportHeader is the column set of the step report.
var reportHeader = []string{"Position", "Module", "Status", "Message", "Time_Stamp"}

// StepRecord is one per-step entry of an execution report.
type StepRecord struct {
	// Position is the 1-based step position in the playbook.
	Position int `json:"position"`

	// Module is the technique ID the step invoked.
	Module string `json:"module"`

	// Status is the step's execution outcome.
	Status technique.ExecutionStatus `json:"status"`

	// Message summarizes the outcome.
	Message string `json:"message"`

	// Timestamp records when the step completed.
	Timestamp time.Time `json:"timestamp"`
}

// row converts the record to its CSV representation.
func (r StepRecord) row() []string {
	return []string{
		strconv.Itoa(r.Position),
		r.Module,
		r.Status.String(),
		r.Message,
		r.Timestamp.Format(RunTimestampLayout),
	}
}

// recordFromRow parses a CSV row back into a StepRecord.
func recordFromRow(row []string) (StepRecord, error) {
	if len(row) != len(reportHeader) {
		return StepRecord{}, fmt.Errorf("report row has %d columns, want %d", len(row), len(reportHeader))
	}

	position, err := strconv.Atoi(row[0])
	if err != nil {
		return StepRecord{}, fmt.Errorf("invalid step position %q: %w", row[0], err)
	}

	status := technique.ExecutionStatus(row[2])
	if !status.IsValid() {
		return StepRecord{}, fmt.Errorf("invalid step status %q", row[2])
	}

	timestamp, err := time.ParseInLocation(RunTimestampLayout, row[4], time.Local)
	if err != nil {
		return StepRecord{}, fmt.Errorf("invalid step timestamp %q: %w", row[4], err)
	}

	return StepRecord{
		Position:  position,
		Module:    row[1],
		Status:    status,
		Message:   row[3],
		Timestamp: timestamp,
	}, nil
}

// RunDirName derives the run folder name for a playbook run started at
// the given time. Concurrent and historical runs of the same playbook
// land in distinct folders by construction.
func RunDirName(playbookName string, start time.Time) string {
	return fmt.Sprintf("%s_%s", playbookName, start.Format(RunTimestampLayout))
}
