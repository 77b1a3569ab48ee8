package dto

import "github.com/noah-isme/lesson-planner-api/internal/models"

// EventQuery filters the events of a schedule.
type EventQuery struct {
	From   string `form:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `form:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
	Period int    `form:"period" json:"period" validate:"omitempty,min=1"`
}

// OccupancyQuery selects the date whose occupied periods are listed.
type OccupancyQuery struct {
	Date string `form:"date" json:"date" validate:"required,datetime=2006-01-02"`
}

// SpecialEventRequest inserts a special event into one period or, for SpecialDay, into the
// whole day.
type SpecialEventRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Period    int    `json:"period" validate:"omitempty,min=1"`
	EventType string `json:"eventType" validate:"required,max=64"`
	// EventCategory is SpecialPeriod or SpecialDay.
	EventCategory string  `json:"eventCategory" validate:"required,oneof=SpecialPeriod SpecialDay"`
	Comment       *string `json:"comment" validate:"omitempty,max=500"`
}

// ExportQuery picks the export format.
type ExportQuery struct {
	Format string `form:"format" json:"format" validate:"omitempty,oneof=csv pdf"`
}

// ScheduleEventView is the wire shape of a schedule event.
type ScheduleEventView struct {
	ID            int64   `json:"id"`
	ScheduleID    string  `json:"scheduleId"`
	CourseID      *string `json:"courseId,omitempty"`
	Date          string  `json:"date"`
	Period        int     `json:"period"`
	LessonID      *string `json:"lessonId,omitempty"`
	EventType     string  `json:"eventType"`
	EventCategory *string `json:"eventCategory,omitempty"`
	Comment       *string `json:"comment,omitempty"`
}

// NewScheduleEventView converts a model event.
func NewScheduleEventView(event models.ScheduleEvent) ScheduleEventView {
	view := ScheduleEventView{
		ID:         event.ID,
		ScheduleID: event.ScheduleID,
		CourseID:   event.CourseID,
		Date:       event.Date.Format(models.DateLayout),
		Period:     event.Period,
		LessonID:   event.LessonID,
		EventType:  string(event.EventType),
		Comment:    event.Comment,
	}
	if event.EventCategory != nil {
		category := string(*event.EventCategory)
		view.EventCategory = &category
	}
	return view
}

// NewScheduleEventViews converts a slice of model events.
func NewScheduleEventViews(events []models.ScheduleEvent) []ScheduleEventView {
	views := make([]ScheduleEventView, 0, len(events))
	for _, event := range events {
		views = append(views, NewScheduleEventView(event))
	}
	return views
}

// GenerateScheduleResult summarises a generation.
type GenerateScheduleResult struct {
	ScheduleID    string                 `json:"scheduleId"`
	Version       uint64                 `json:"version"`
	Events        int                    `json:"events"`
	LessonsPlaced int                    `json:"lessonsPlaced"`
	ErrorEvents   int                    `json:"errorEvents"`
	TeachingDays  int                    `json:"teachingDays"`
	Issues        []models.ScheduleIssue `json:"issues"`
}

// ShiftSummary reports the effect of a shift on one period.
type ShiftSummary struct {
	Direction  string              `json:"direction"`
	Period     int                 `json:"period"`
	Moved      []ScheduleEventView `json:"moved"`
	Removed    []int64             `json:"removed"`
	Overflowed []ScheduleEventView `json:"overflowed"`
	Stranded   []int64             `json:"stranded,omitempty"`
}

// SpecialEventResult is returned after inserting or removing a special event.
type SpecialEventResult struct {
	Version  uint64              `json:"version"`
	Inserted []ScheduleEventView `json:"inserted,omitempty"`
	Removed  []ScheduleEventView `json:"removed,omitempty"`
	Shifts   []ShiftSummary      `json:"shifts"`
}

// OccupancyResult lists the used periods of a date.
type OccupancyResult struct {
	Date    string `json:"date"`
	Periods []int  `json:"periods"`
	Blocked []int  `json:"blocked"`
}

// SaveScheduleResult reports a persistence run.
type SaveScheduleResult struct {
	ScheduleID     string `json:"scheduleId"`
	Version        uint64 `json:"version"`
	StoredVersion  int64  `json:"storedVersion"`
	Persisted      bool   `json:"persisted"`
	EventsInserted int    `json:"eventsInserted"`
	EventsUpdated  int    `json:"eventsUpdated"`
	EventsDeleted  int64  `json:"eventsDeleted"`
}
