package models

import (
	"time"

	"github.com/lib/pq"
)

// LessonSchedule is the persisted header of a teacher's schedule.
type LessonSchedule struct {
	ID            string         `db:"id" json:"id"`
	UserID        string         `db:"user_id" json:"userId"`
	Name          string         `db:"name" json:"name"`
	TeachingDays  pq.StringArray `db:"teaching_days" json:"teachingDays"`
	PeriodsPerDay int            `db:"periods_per_day" json:"periodsPerDay"`
	StartDate     time.Time      `db:"start_date" json:"startDate"`
	EndDate       time.Time      `db:"end_date" json:"endDate"`
	Version       int64          `db:"version" json:"version"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}

// TeachingConfiguration returns the calendar settings stored on the schedule.
func (s LessonSchedule) TeachingConfiguration() TeachingConfiguration {
	return TeachingConfiguration{
		TeachingDays:  []string(s.TeachingDays),
		PeriodsPerDay: s.PeriodsPerDay,
		StartDate:     DateOnly(s.StartDate),
		EndDate:       DateOnly(s.EndDate),
	}
}

// TeachingConfiguration bounds generation and shifting. The date range is inclusive.
type TeachingConfiguration struct {
	TeachingDays  []string  `json:"teachingDays"`
	PeriodsPerDay int       `json:"periodsPerDay"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
}

// ScheduleIssue describes a configuration problem that prevents generation.
type ScheduleIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Period  *int   `json:"period,omitempty"`
}

const (
	IssueNoUser              = "NO_USER"
	IssueNoAssignments       = "NO_PERIOD_ASSIGNMENTS"
	IssueNoTeachingDays      = "NO_TEACHING_DAYS"
	IssueInvalidPeriods      = "INVALID_PERIODS_PER_DAY"
	IssueInvalidDateRange    = "INVALID_DATE_RANGE"
	IssuePeriodOutOfRange    = "PERIOD_OUT_OF_RANGE"
	IssueDuplicatePeriod     = "DUPLICATE_PERIOD"
	IssueAmbiguousAssignment = "AMBIGUOUS_ASSIGNMENT"
)
