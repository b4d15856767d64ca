package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vectra-ai-research/halberd/internal/playbook"
)

// Writer appends step records to a run folder. One run has exactly one
// writer; writes are flushed and synced immediately so a concurrent
// reader always sees every completed step.
type Writer struct {
	dir  string
	file *os.File
	csv  *csv.Writer
}

// NewWriter creates the run folder under outputDir and opens the step
// report with its header row already written.
func NewWriter(outputDir, playbookName string, start time.Time) (*Writer, error) {
	dir := filepath.Join(outputDir, RunDirName(playbookName, start))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run folder: %w", err)
	}

	file, err := os.OpenFile(filepath.Join(dir, ReportFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create step report: %w", err)
	}

	w := &Writer{
		dir:  dir,
		file: file,
		csv:  csv.NewWriter(file),
	}

	if err := w.csv.Write(reportHeader); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write report header: %w", err)
	}
	if err := w.sync(); err != nil {
		file.Close()
		return nil, err
	}

	return w, nil
}

// Dir returns the run folder path.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteConfig freezes the executed step sequence into the run folder so
// the report stays interpretable even if the playbook is later edited.
func (w *Writer) WriteConfig(steps []playbook.Step) error {
	sequence := make(map[int]playbook.Step, len(steps))
	for i, step := range steps {
		sequence[i+1] = step
	}

	data, err := yaml.Marshal(sequence)
	if err != nil {
		return fmt.Errorf("failed to encode execution config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(w.dir, ConfigFileName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write execution config: %w", err)
	}
	return nil
}

// WriteRecord appends one step record to the report. The write is durable
// before WriteRecord returns.
func (w *Writer) WriteRecord(record StepRecord) error {
	if err := w.csv.Write(record.row()); err != nil {
		return fmt.Errorf("failed to append step record: %w", err)
	}
	return w.sync()
}

// WriteResultPayload dumps a step's raw result payload into the run
// folder under Result_{module}.txt.
func (w *Writer) WriteResultPayload(module string, payload string) error {
	name := fmt.Sprintf("Result_%s.txt", module)
	if err := os.WriteFile(filepath.Join(w.dir, name), []byte(payload), 0o644); err != nil {
		return fmt.Errorf("failed to write result payload: %w", err)
	}
	return nil
}

// Close flushes and closes the step report.
func (w *Writer) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// sync flushes the CSV buffer and fsyncs the underlying file.
func (w *Writer) sync() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush step report: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync step report: %w", err)
	}
	return nil
}
