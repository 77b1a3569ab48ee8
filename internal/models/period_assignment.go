package models

// PeriodAssignmentKind describes what a period is bound to.
type PeriodAssignmentKind string

const (
	PeriodAssignmentCourse     PeriodAssignmentKind = "COURSE"
	PeriodAssignmentSpecial    PeriodAssignmentKind = "SPECIAL"
	PeriodAssignmentUnassigned PeriodAssignmentKind = "UNASSIGNED"
)

// PeriodAssignment binds one period number to a course, a recurring special activity, or
// nothing at all.
type PeriodAssignment struct {
	ID                string  `db:"id" json:"id"`
	ScheduleID        string  `db:"schedule_id" json:"scheduleId"`
	Period            int     `db:"period" json:"period"`
	CourseID          *string `db:"course_id" json:"courseId,omitempty"`
	SpecialPeriodType *string `db:"special_period_type" json:"specialPeriodType,omitempty"`
}

// Kind classifies the assignment.
func (a PeriodAssignment) Kind() PeriodAssignmentKind {
	switch {
	case a.CourseID != nil && *a.CourseID != "":
		return PeriodAssignmentCourse
	case a.SpecialPeriodType != nil && *a.SpecialPeriodType != "":
		return PeriodAssignmentSpecial
	default:
		return PeriodAssignmentUnassigned
	}
}
