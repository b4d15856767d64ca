package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vectra-ai-research/halberd/internal/technique"
)

// Progress is a point-in-time view of how far a playbook run has
// progressed, derived entirely from the persisted report.
type Progress struct {
	// Completed is the number of steps with a written report record.
	Completed int `json:"completed"`

	// Total is the expected step count of the playbook.
	Total int `json:"total"`

	// Statuses maps 1-based step position to that step's outcome for
	// every completed step.
	Statuses map[int]technique.ExecutionStatus `json:"statuses"`

	// RunDir is the run folder the progress was read from; empty when
	// no run has produced a report yet.
	RunDir string `json:"run_dir,omitempty"`
}

// Done reports whether every expected step has a recorded result.
func (p Progress) Done() bool {
	return p.Total > 0 && p.Completed >= p.Total
}

// Tracker is a stateless reader over persisted execution reports. It is
// designed to be polled repeatedly while a run is in flight; a missing or
// partial report is a normal state, not an error.
type Tracker struct {
	outputDir string
}

// NewTracker creates a tracker over the given run output directory.
func NewTracker(outputDir string) *Tracker {
	return &Tracker{outputDir: outputDir}
}

// Progress locates the most recent run folder for the named playbook and
// reports how many steps have completed so far. When no matching run
// folder or report exists yet, it returns zero completed steps with no
// error.
func (t *Tracker) Progress(playbookName string, totalSteps int) (Progress, error) {
	progress := Progress{
		Total:    totalSteps,
		Statuses: make(map[int]technique.ExecutionStatus),
	}

	runDir, found, err := t.LatestRunDir(playbookName)
	if err != nil {
		return Progress{}, err
	}
	if !found {
		return progress, nil
	}
	progress.RunDir = runDir

	records, err := ParseRunDir(runDir)
	if err != nil {
		return Progress{}, err
	}

	progress.Completed = len(records)
	for _, record := range records {
		progress.Statuses[record.Position] = record.Status
	}

	return progress, nil
}

// LatestRunDir returns the most recent run folder for the named playbook,
// picked by the lexicographically greatest timestamp suffix. The second
// return value is false when no run folder exists.
func (t *Tracker) LatestRunDir(playbookName string) (string, bool, error) {
	entries, err := os.ReadDir(t.outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read run output directory: %w", err)
	}

	prefix := playbookName + "_"
	var latest string
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		if entry.Name() > latest {
			latest = entry.Name()
		}
	}

	if latest == "" {
		return "", false, nil
	}
	return filepath.Join(t.outputDir, latest), true, nil
}

// ParseRunDir reads however many step records have been written to a run
// folder's report so far. A missing report file yields no records and no
// error, since the engine may not have opened the report yet.
func ParseRunDir(runDir string) ([]StepRecord, error) {
	file, err := os.Open(filepath.Join(runDir, ReportFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open step report: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var records []StepRecord
	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read step report: %w", err)
		}

		// Skip the header row.
		if first {
			first = false
			continue
		}

		record, err := recordFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("corrupt step report in %s: %w", runDir, err)
		}
		records = append(records, record)
	}

	return records, nil
}
