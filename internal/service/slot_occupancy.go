package service

import (
	"sort"
	"time"

	"github.com/noah-isme/lesson-planner-api/internal/models"
)

// IsPeriodOccupiedByNonLessonEvent reports whether (date, period) holds a special event.
// Error placeholders do not count: they only exist because lessons ran out, so a shifted
// lesson may take their slot.
func IsPeriodOccupiedByNonLessonEvent(date time.Time, period int, events []models.ScheduleEvent) bool {
	key := newSlotKey(date, period)
	for _, event := range events {
		if newSlotKey(event.Date, event.Period) == key && event.IsSpecial() {
			return true
		}
	}
	return false
}

// OccupiedPeriods returns the sorted period numbers holding any event on date.
func OccupiedPeriods(date time.Time, events []models.ScheduleEvent) []int {
	day := dayNumber(date)
	seen := make(map[int]struct{})
	for _, event := range events {
		if dayNumber(event.Date) == day {
			seen[event.Period] = struct{}{}
		}
	}
	periods := make([]int, 0, len(seen))
	for period := range seen {
		periods = append(periods, period)
	}
	sort.Ints(periods)
	return periods
}

type slotKey struct {
	Day    int64
	Period int
}

func newSlotKey(date time.Time, period int) slotKey {
	return slotKey{Day: dayNumber(date), Period: period}
}

// dayNumber identifies a calendar date independent of time-of-day and location.
func dayNumber(date time.Time) int64 {
	return models.DateOnly(date).Unix() / 86400
}

// SlotIndex answers occupancy questions for a fixed event collection in constant time.
type SlotIndex struct {
	slots map[slotKey]models.ScheduleEvent
}

// NewSlotIndex indexes events by (date, period). When two events share a slot the special
// one wins so the slot keeps blocking lessons.
func NewSlotIndex(events []models.ScheduleEvent) *SlotIndex {
	idx := &SlotIndex{slots: make(map[slotKey]models.ScheduleEvent, len(events))}
	for _, event := range events {
		key := newSlotKey(event.Date, event.Period)
		if existing, ok := idx.slots[key]; ok && existing.IsSpecial() {
			continue
		}
		idx.slots[key] = event
	}
	return idx
}

// At returns the event stored at (date, period).
func (i *SlotIndex) At(date time.Time, period int) (models.ScheduleEvent, bool) {
	event, ok := i.slots[newSlotKey(date, period)]
	return event, ok
}

// BlocksLesson reports whether a lesson may not be placed at (date, period).
func (i *SlotIndex) BlocksLesson(date time.Time, period int) bool {
	event, ok := i.At(date, period)
	return ok && event.IsSpecial()
}

// OccupiedPeriods lists the periods used on date.
func (i *SlotIndex) OccupiedPeriods(date time.Time) []int {
	day := dayNumber(date)
	var periods []int
	for key := range i.slots {
		if key.Day == day {
			periods = append(periods, key.Period)
		}
	}
	sort.Ints(periods)
	return periods
}

// DoubleBookedSlots counts slots holding more than one event.
func DoubleBookedSlots(events []models.ScheduleEvent) int {
	counts := make(map[slotKey]int, len(events))
	doubles := 0
	for _, event := range events {
		key := newSlotKey(event.Date, event.Period)
		counts[key]++
		if counts[key] == 2 {
			doubles++
		}
	}
	return doubles
}
