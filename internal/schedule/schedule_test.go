package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pollGranularity = time.Minute

func dayAt(t *testing.T, date, clock string) time.Time {
	t.Helper()

	parsed, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, time.Local)
	require.NoError(t, err)
	return parsed
}

func TestScheduleValidate(t *testing.T) {
	valid := Schedule{
		PlaybookID:    "aws_recon",
		StartDate:     "2026-09-01",
		EndDate:       "2026-09-30",
		ExecutionTime: "14:30",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Schedule)
	}{
		{"empty playbook id", func(s *Schedule) { s.PlaybookID = "" }},
		{"bad start date", func(s *Schedule) { s.StartDate = "09/01/2026" }},
		{"bad end date", func(s *Schedule) { s.EndDate = "sometime" }},
		{"end before start", func(s *Schedule) { s.EndDate = "2026-08-01" }},
		{"bad execution time", func(s *Schedule) { s.ExecutionTime = "2pm" }},
		{"repeat without frequency", func(s *Schedule) { s.Repeat = true }},
		{"bad frequency", func(s *Schedule) { s.Repeat = true; s.RepeatFrequency = "hourly" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := valid
			tt.mutate(&sched)
			err := sched.Validate()
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestOneShotFiresExactlyOnceInWindow(t *testing.T) {
	sched := Schedule{
		PlaybookID:    "aws_recon",
		StartDate:     "2026-09-01",
		EndDate:       "2026-09-01",
		ExecutionTime: "10:00",
	}
	require.NoError(t, sched.Validate())

	// Not before the time of day.
	assert.False(t, sched.MatchesAt(dayAt(t, "2026-09-01", "09:59"), pollGranularity))
	// Due at the execution time, within the polling granularity.
	assert.True(t, sched.MatchesAt(dayAt(t, "2026-09-01", "10:00"), pollGranularity))
	// Not after the granularity window has passed.
	assert.False(t, sched.MatchesAt(dayAt(t, "2026-09-01", "10:01"), pollGranularity))
	// Not on any other day.
	assert.False(t, sched.MatchesAt(dayAt(t, "2026-08-31", "10:00"), pollGranularity))
	assert.False(t, sched.MatchesAt(dayAt(t, "2026-09-02", "10:00"), pollGranularity))
}

func TestDailyRepeat(t *testing.T) {
	sched := Schedule{
		PlaybookID:      "entra_sweep",
		StartDate:       "2026-09-01",
		EndDate:         "2026-09-10",
		ExecutionTime:   "06:00",
		Repeat:          true,
		RepeatFrequency: RepeatDaily,
	}

	assert.True(t, sched.MatchesAt(dayAt(t, "2026-09-01", "06:00"), pollGranularity))
	assert.True(t, sched.MatchesAt(dayAt(t, "2026-09-05", "06:00"), pollGranularity))
	assert.True(t, sched.MatchesAt(dayAt(t, "2026-09-10", "06:00"), pollGranularity))
	// Outside the window.
	assert.False(t, sched.MatchesAt(dayAt(t, "2026-09-11", "06:00"), pollGranularity))
	// Wrong time of day.
	assert.False(t, sched.MatchesAt(dayAt(t, "2026-09-05", "07:00"), pollGranularity))
}

func TestWeeklyRepeatMatchesStartWeekday(t *testing.T) {
	// 2026-09-01 is a Tuesday.
	sched := Schedule{
		PlaybookID:      "m365_audit",
		StartDate:       "2026-09-01",
		EndDate:         "2026-09-30",
		ExecutionTime:   "08:00",
		Repeat:          true,
		RepeatFrequency: RepeatWeekly,
	}

	assert.True(t, sched.MatchesAt(dayAt(t, "2026-09-01", "08:00"), pollGranularity))
	assert.True(t, sched.MatchesAt(dayAt(t, "2026-09-08", "08:00"), pollGranularity))
	assert.True(t, sched.MatchesAt(dayAt(t, "2026-09-15", "08:00"), pollGranularity))
	// Wednesday.
	assert.False(t, sched.MatchesAt(dayAt(t, "2026-09-02", "08:00"), pollGranularity))
}

func TestMonthlyRepeatMatchesStartDay(t *testing.T) {
	sched := Schedule{
		PlaybookID:      "gcp_enum",
		StartDate:       "2026-01-15",
		EndDate:         "2026-12-31",
		ExecutionTime:   "03:00",
		Repeat:          true,
		RepeatFrequency: RepeatMonthly,
	}

	assert.True(t, sched.MatchesAt(dayAt(t, "2026-01-15", "03:00"), pollGranularity))
	assert.True(t, sched.MatchesAt(dayAt(t, "2026-06-15", "03:00"), pollGranularity))
	assert.False(t, sched.MatchesAt(dayAt(t, "2026-06-16", "03:00"), pollGranularity))
}

func TestExpired(t *testing.T) {
	sched := Schedule{
		PlaybookID:    "aws_recon",
		StartDate:     "2026-09-01",
		EndDate:       "2026-09-02",
		ExecutionTime: "10:00",
	}

	assert.False(t, sched.Expired(dayAt(t, "2026-09-02", "23:59")))
	assert.True(t, sched.Expired(dayAt(t, "2026-09-03", "00:00")))
}
