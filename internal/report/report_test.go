package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vectra-ai-research/halberd/internal/playbook"
	"github.com/vectra-ai-research/halberd/internal/technique"
)

func TestRunDirName(t *testing.T) {
	start := time.Date(2025, 3, 15, 9, 30, 5, 0, time.Local)
	assert.Equal(t, "Cloud Recon_2025-03-15_09-30-05", RunDirName("Cloud Recon", start))
}

func TestWriter_WriteAndParse(t *testing.T) {
	outputDir := t.TempDir()
	start := time.Now()

	w, err := NewWriter(outputDir, "Recon", start)
	require.NoError(t, err)

	records := []StepRecord{
		{Position: 1, Module: "aws_enumerate_s3_buckets", Status: technique.StatusSuccess, Message: "found 4 buckets", Timestamp: start},
		{Position: 2, Module: "azure_dump_keyvault", Status: technique.StatusFailure, Message: "access denied, check role", Timestamp: start.Add(time.Second)},
		{Position: 3, Module: "missing_module", Status: technique.StatusError, Message: "technique not found", Timestamp: start.Add(2 * time.Second)},
	}
	for _, record := range records {
		require.NoError(t, w.WriteRecord(record))
	}
	require.NoError(t, w.Close())

	parsed, err := ParseRunDir(w.Dir())
	require.NoError(t, err)
	require.Len(t, parsed, 3)

	assert.Equal(t, 1, parsed[0].Position)
	assert.Equal(t, technique.StatusSuccess, parsed[0].Status)
	// Messages containing commas survive the CSV round trip.
	assert.Equal(t, "access denied, check role", parsed[1].Message)
	assert.Equal(t, technique.StatusError, parsed[2].Status)
}

func TestWriter_WriteConfig(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "Recon", time.Now())
	require.NoError(t, err)
	defer w.Close()

	steps := []playbook.Step{
		playbook.NewStep("aws_enumerate_s3_buckets", map[string]any{"region": "us-east-1"}, 0),
	}
	require.NoError(t, w.WriteConfig(steps))

	data, err := os.ReadFile(filepath.Join(w.Dir(), ConfigFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "aws_enumerate_s3_buckets")
}

func TestWriter_WriteResultPayload(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "Recon", time.Now())
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.WriteResultPayload("aws_enumerate_s3_buckets", "bucket-a\nbucket-b\n"))

	data, err := os.ReadFile(filepath.Join(w.Dir(), "Result_aws_enumerate_s3_buckets.txt"))
	require.NoError(t, err)
	assert.Equal(t, "bucket-a\nbucket-b\n", string(data))
}

func TestParseRunDir_NoReport(t *testing.T) {
	records, err := ParseRunDir(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestTracker_Progress_NoRunsYet(t *testing.T) {
	tracker := NewTracker(t.TempDir())

	progress, err := tracker.Progress("Recon", 3)
	require.NoError(t, err)
	assert.Equal(t, 0, progress.Completed)
	assert.Equal(t, 3, progress.Total)
	assert.Empty(t, progress.Statuses)
	assert.False(t, progress.Done())
}

func TestTracker_Progress_Partial(t *testing.T) {
	outputDir := t.TempDir()
	w, err := NewWriter(outputDir, "Recon", time.Now())
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.WriteRecord(StepRecord{
		Position: 1, Module: "a", Status: technique.StatusSuccess, Message: "ok", Timestamp: time.Now(),
	}))

	tracker := NewTracker(outputDir)
	progress, err := tracker.Progress("Recon", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.Completed)
	assert.Equal(t, technique.StatusSuccess, progress.Statuses[1])
	assert.False(t, progress.Done())
}

func TestTracker_Progress_Complete(t *testing.T) {
	outputDir := t.TempDir()
	w, err := NewWriter(outputDir, "Recon", time.Now())
	require.NoError(t, err)
	defer w.Close()

	for i := 1; i <= 2; i++ {
		require.NoError(t, w.WriteRecord(StepRecord{
			Position: i, Module: "m", Status: technique.StatusSuccess, Message: "ok", Timestamp: time.Now(),
		}))
	}

	progress, err := NewTracker(outputDir).Progress("Recon", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.Completed)
	assert.True(t, progress.Done())
}

func TestTracker_PicksLatestRun(t *testing.T) {
	outputDir := t.TempDir()

	early := time.Date(2025, 3, 15, 8, 0, 0, 0, time.Local)
	late := time.Date(2025, 3, 15, 9, 0, 0, 0, time.Local)

	wEarly, err := NewWriter(outputDir, "Recon", early)
	require.NoError(t, err)
	require.NoError(t, wEarly.WriteRecord(StepRecord{Position: 1, Module: "a", Status: technique.StatusFailure, Message: "old run", Timestamp: early}))
	require.NoError(t, wEarly.Close())

	wLate, err := NewWriter(outputDir, "Recon", late)
	require.NoError(t, err)
	require.NoError(t, wLate.WriteRecord(StepRecord{Position: 1, Module: "a", Status: technique.StatusSuccess, Message: "new run", Timestamp: late}))
	require.NoError(t, wLate.Close())

	progress, err := NewTracker(outputDir).Progress("Recon", 1)
	require.NoError(t, err)
	assert.Equal(t, technique.StatusSuccess, progress.Statuses[1])
	assert.Contains(t, progress.RunDir, "09-00-00")
}

func TestTracker_IgnoresOtherPlaybooks(t *testing.T) {
	outputDir := t.TempDir()

	w, err := NewWriter(outputDir, "Other Playbook", time.Now())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	progress, err := NewTracker(outputDir).Progress("Recon", 2)
	require.NoError(t, err)
	assert.Empty(t, progress.RunDir)
	assert.Equal(t, 0, progress.Completed)
}
