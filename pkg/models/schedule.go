package models

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduleFrequency enumerates the supported recurrence kinds.
type ScheduleFrequency string

const (
	FrequencyOnce     ScheduleFrequency = "once"
	FrequencyDaily    ScheduleFrequency = "daily"
	FrequencyWeekly   ScheduleFrequency = "weekly"
	FrequencyMonthly  ScheduleFrequency = "monthly"
	FrequencyInterval ScheduleFrequency = "interval"
	FrequencyCron     ScheduleFrequency = "cron"
)

// ErrInvalidSchedule is returned when schedule validation fails.
var ErrInvalidSchedule = errors.New("invalid schedule configuration")

// Schedule describes when a schedule-triggered workflow fires.
//
// Which fields are read depends on Frequency:
//
//	once     At
//	daily    Time
//	weekly   Time, DayOfWeek
//	monthly  Time, DayOfMonth
//	interval IntervalMinutes
//	cron     CronExpression (standard 5-field format)
//
// EndDate and MaxExecutions bound recurring schedules; when either limit is
// reached the workflow is disabled instead of re-armed.
type Schedule struct {
	Frequency       ScheduleFrequency `json:"frequency" validate:"required,oneof=once daily weekly monthly interval cron"`
	At              *time.Time        `json:"at,omitempty"`
	Time            string            `json:"time,omitempty"` // "15:04", local time
	DayOfWeek       *time.Weekday     `json:"day_of_week,omitempty"`
	DayOfMonth      *int              `json:"day_of_month,omitempty"`
	IntervalMinutes int               `json:"interval_minutes,omitempty"`
	CronExpression  string            `json:"cron_expression,omitempty"`
	EndDate         *time.Time        `json:"end_date,omitempty"`
	MaxExecutions   *int              `json:"max_executions,omitempty"`
}

// Validate checks that the fields required by Frequency are present and
// well-formed.
func (s *Schedule) Validate() error {
	switch s.Frequency {
	case FrequencyOnce:
		if s.At == nil {
			return ErrInvalidSchedule
		}
	case FrequencyDaily:
		if _, err := ParseClock(s.Time); err != nil {
			return err
		}
	case FrequencyWeekly:
		if s.DayOfWeek == nil {
			return ErrInvalidSchedule
		}
		if _, err := ParseClock(s.Time); err != nil {
			return err
		}
	case FrequencyMonthly:
		if s.DayOfMonth == nil || *s.DayOfMonth < 1 || *s.DayOfMonth > 31 {
			return ErrInvalidSchedule
		}
		if _, err := ParseClock(s.Time); err != nil {
			return err
		}
	case FrequencyInterval:
		if s.IntervalMinutes <= 0 {
			return ErrInvalidSchedule
		}
	case FrequencyCron:
		if _, err := cron.ParseStandard(s.CronExpression); err != nil {
			return err
		}
	default:
		return ErrInvalidSchedule
	}

	return nil
}

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses a "15:04" time-of-day string.
func ParseClock(value string) (Clock, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return Clock{}, err
	}

	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}
