package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/lesson-planner-api/internal/models"
	appErrors "github.com/noah-isme/lesson-planner-api/pkg/errors"
)

// SpecialPlacement is a special event to place into one or more periods of a date.
type SpecialPlacement struct {
	ScheduleID string
	Date       time.Time
	Periods    []int
	EventType  models.EventType
	Category   models.EventCategory
	Comment    *string
}

// PlaceSpecialEvent writes p into tx. A lesson in the way is shifted forward and an Error
// filler is replaced. A slot already held by another special event is an ErrSlotOccupied,
// except for special days which skip it; a day where every period is skipped is refused.
func PlaceSpecialEvent(tx *AggregateTx, shifter *LessonShifter, cal *TeachingCalendar, p SpecialPlacement) ([]models.ScheduleEvent, []ShiftResult, error) {
	date := models.DateOnly(p.Date)
	if !cal.InRange(date) || !cal.IsTeachingDay(date) {
		return nil, nil, appErrors.Clone(appErrors.ErrOutOfRange, fmt.Sprintf("%s is not a teaching day of this schedule", date.Format(models.DateLayout)))
	}

	var inserted []models.ScheduleEvent
	var shifts []ShiftResult
	for _, period := range p.Periods {
		existing, occupied := NewSlotIndex(tx.Events()).At(date, period)
		if occupied && existing.IsSpecial() {
			if p.Category == models.EventCategorySpecialDay {
				continue
			}
			return nil, nil, appErrors.Clone(appErrors.ErrSlotOccupied, fmt.Sprintf("period %d on %s already holds %s", period, date.Format(models.DateLayout), existing.EventType))
		}
		if occupied && existing.IsError() {
			tx.Remove(existing.ID)
		}
		special := tx.Upsert(models.ScheduleEvent{
			ScheduleID:    p.ScheduleID,
			Date:          date,
			Period:        period,
			EventType:     p.EventType,
			EventCategory: models.CategoryPtr(p.Category),
			Comment:       p.Comment,
		})
		inserted = append(inserted, special)
		if occupied && existing.IsLesson() {
			shift := shifter.ShiftForward(tx.Events(), cal, period, date, tx.NextID)
			tx.Apply(shift)
			shifts = append(shifts, shift)
		}
	}
	if len(inserted) == 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrSlotOccupied, fmt.Sprintf("every period on %s already holds a special event", date.Format(models.DateLayout)))
	}
	return inserted, shifts, nil
}

// RemoveSpecialEvent deletes the special event id from tx and pulls later lessons of the
// period back. Every event of a special day goes together.
func RemoveSpecialEvent(tx *AggregateTx, shifter *LessonShifter, cal *TeachingCalendar, id int64) ([]models.ScheduleEvent, []ShiftResult, error) {
	target, ok := tx.Event(id)
	if !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("event %d not found", id))
	}
	if !target.IsSpecial() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "only special events can be removed; regenerate the schedule to change lessons")
	}

	date := models.DateOnly(target.Date)
	victims := []models.ScheduleEvent{target}
	if target.IsSpecialDay() {
		victims = victims[:0]
		for _, event := range tx.Events() {
			if event.IsSpecialDay() && models.DateOnly(event.Date).Equal(date) {
				victims = append(victims, event)
			}
		}
	}

	shifts := make([]ShiftResult, 0, len(victims))
	for _, victim := range victims {
		tx.Remove(victim.ID)
		shift := shifter.ShiftBackward(tx.Events(), cal, victim.Period, date, tx.NextID)
		tx.Apply(shift)
		shifts = append(shifts, shift)
	}
	return victims, shifts, nil
}
