package models

import "time"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// EventType tags what occupies a slot. Besides Lesson and Error any special activity tag
// (Lunch, Holiday, Assembly, ...) is accepted.
type EventType string

const (
	EventTypeLesson   EventType = "Lesson"
	EventTypeError    EventType = "Error"
	EventTypeLunch    EventType = "Lunch"
	EventTypeHoliday  EventType = "Holiday"
	EventTypeAssembly EventType = "Assembly"
	EventTypeDuty     EventType = "Duty"
)

// EventCategory groups event types. Error events carry no category.
type EventCategory string

const (
	EventCategoryLesson        EventCategory = "Lesson"
	EventCategorySpecialPeriod EventCategory = "SpecialPeriod"
	EventCategorySpecialDay    EventCategory = "SpecialDay"
)

// Valid reports whether the category is one of the known values.
func (c EventCategory) Valid() bool {
	switch c {
	case EventCategoryLesson, EventCategorySpecialPeriod, EventCategorySpecialDay:
		return true
	default:
		return false
	}
}

// ScheduleEvent is one (date, period) assignment inside a schedule. Negative ids mark events
// that have not been persisted yet.
type ScheduleEvent struct {
	ID            int64          `db:"id" json:"id"`
	ScheduleID    string         `db:"schedule_id" json:"scheduleId"`
	CourseID      *string        `db:"course_id" json:"courseId,omitempty"`
	Date          time.Time      `db:"event_date" json:"date"`
	Period        int            `db:"period" json:"period"`
	LessonID      *string        `db:"lesson_id" json:"lessonId,omitempty"`
	EventType     EventType      `db:"event_type" json:"eventType"`
	EventCategory *EventCategory `db:"event_category" json:"eventCategory,omitempty"`
	Comment       *string        `db:"comment" json:"comment,omitempty"`
}

// IsLesson reports whether the event places a lesson.
func (e ScheduleEvent) IsLesson() bool {
	return e.EventCategory != nil && *e.EventCategory == EventCategoryLesson
}

// IsError reports whether the event is an unfilled-slot placeholder.
func (e ScheduleEvent) IsError() bool {
	return e.EventType == EventTypeError
}

// IsSpecial reports whether the event is a real non-lesson commitment. Only special events
// block lesson placement.
func (e ScheduleEvent) IsSpecial() bool {
	if e.EventType == "" || e.EventType == EventTypeLesson || e.EventType == EventTypeError {
		return false
	}
	return !e.IsLesson()
}

// IsSpecialDay reports whether the event belongs to a whole-day special event.
func (e ScheduleEvent) IsSpecialDay() bool {
	return e.EventCategory != nil && *e.EventCategory == EventCategorySpecialDay
}

// Persisted reports whether the event carries a database id.
func (e ScheduleEvent) Persisted() bool {
	return e.ID > 0
}

// Clone returns a deep copy so callers can mutate pointer fields safely.
func (e ScheduleEvent) Clone() ScheduleEvent {
	clone := e
	clone.CourseID = cloneString(e.CourseID)
	clone.LessonID = cloneString(e.LessonID)
	clone.Comment = cloneString(e.Comment)
	if e.EventCategory != nil {
		category := *e.EventCategory
		clone.EventCategory = &category
	}
	return clone
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a wire date into a DateOnly value.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, err
	}
	return DateOnly(t), nil
}

// StringPtr returns a pointer to the given value.
func StringPtr(v string) *string {
	return &v
}

// CategoryPtr returns a pointer to the given category.
func CategoryPtr(c EventCategory) *EventCategory {
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
