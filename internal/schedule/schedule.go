// Package schedule persists playbook trigger definitions and decides
// whether a schedule is due at a given instant. The polling loop that
// feeds instants in lives in the evaluator; the matching rules live on
// the Schedule record itself.
package schedule

import (
	"fmt"
	"time"
)

const (
	// DateLayout formats schedule window dates.
	DateLayout = "2006-01-02"

	// TimeLayout formats the schedule's time of day.
	TimeLayout = "15:04"
)

// RepeatFrequency is the recurrence cadence of a repeating schedule.
type RepeatFrequency string

const (
	RepeatDaily   RepeatFrequency = "daily"
	RepeatWeekly  RepeatFrequency = "weekly"
	RepeatMonthly RepeatFrequency = "monthly"
)

// String returns the string representation of the frequency.
func (f RepeatFrequency) String() string {
	return string(f)
}

// IsValid checks if the frequency is one of the defined cadences.
func (f RepeatFrequency) IsValid() bool {
	switch f {
	case RepeatDaily, RepeatWeekly, RepeatMonthly:
		return true
	}
	return false
}

// Schedule is a persisted trigger definition. The YAML field names are
// the on-disk schedules file format.
type Schedule struct {
	// PlaybookID names the playbook the trigger fires.
	PlaybookID string `yaml:"Playbook_Id"`

	// StartDate is the first day the schedule may fire.
	StartDate string `yaml:"Start_Date"`

	// EndDate is the last day the schedule may fire, inclusive.
	EndDate string `yaml:"End_Date"`

	// ExecutionTime is the time of day the schedule fires.
	ExecutionTime string `yaml:"Execution_Time"`

	// Repeat marks the schedule as recurring within its window.
	Repeat bool `yaml:"Repeat"`

	// RepeatFrequency is the recurrence cadence; only meaningful when
	// Repeat is set.
	RepeatFrequency RepeatFrequency `yaml:"Repeat_Frequency,omitempty"`
}

// Validate checks the schedule's fields are well-formed.
func (s Schedule) Validate() error {
	if s.PlaybookID == "" {
		return NewValidationError("schedule playbook id cannot be empty")
	}

	start, err := time.ParseInLocation(DateLayout, s.StartDate, time.Local)
	if err != nil {
		return NewValidationError(fmt.Sprintf("invalid start date %q: expected %s", s.StartDate, DateLayout))
	}
	end, err := time.ParseInLocation(DateLayout, s.EndDate, time.Local)
	if err != nil {
		return NewValidationError(fmt.Sprintf("invalid end date %q: expected %s", s.EndDate, DateLayout))
	}
	if end.Before(start) {
		return NewValidationError(fmt.Sprintf("end date %s precedes start date %s", s.EndDate, s.StartDate))
	}

	if _, err := time.Parse(TimeLayout, s.ExecutionTime); err != nil {
		return NewValidationError(fmt.Sprintf("invalid execution time %q: expected %s", s.ExecutionTime, TimeLayout))
	}

	if s.Repeat && !s.RepeatFrequency.IsValid() {
		return NewValidationError(fmt.Sprintf("invalid repeat frequency %q", s.RepeatFrequency))
	}

	return nil
}

// window returns the schedule's date window as local midnights.
func (s Schedule) window() (start, end time.Time, err error) {
	start, err = time.ParseInLocation(DateLayout, s.StartDate, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = time.ParseInLocation(DateLayout, s.EndDate, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// Expired reports whether the schedule can never fire again: its window
// has fully passed. Repeat does not extend the window.
func (s Schedule) Expired(now time.Time) bool {
	_, end, err := s.window()
	if err != nil {
		return false
	}
	endOfWindow := end.Add(24 * time.Hour)
	return !now.Before(endOfWindow)
}

// MatchesAt reports whether the schedule is due at the given instant,
// evaluated with the given polling granularity.
//
// A schedule is due when now's date falls inside [StartDate, EndDate],
// now's time of day is within granularity at or after ExecutionTime,
// and the recurrence cadence lands on now's date. A non-repeating
// schedule only fires on its start date.
func (s Schedule) MatchesAt(now time.Time, granularity time.Duration) bool {
	start, end, err := s.window()
	if err != nil {
		return false
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if today.Before(start) || today.After(end) {
		return false
	}

	execTime, err := time.Parse(TimeLayout, s.ExecutionTime)
	if err != nil {
		return false
	}
	due := time.Date(now.Year(), now.Month(), now.Day(),
		execTime.Hour(), execTime.Minute(), 0, 0, now.Location())
	if now.Before(due) || now.Sub(due) >= granularity {
		return false
	}

	if !s.Repeat {
		return today.Equal(start)
	}

	switch s.RepeatFrequency {
	case RepeatDaily:
		return true
	case RepeatWeekly:
		return now.Weekday() == start.Weekday()
	case RepeatMonthly:
		return now.Day() == start.Day()
	}
	return false
}
