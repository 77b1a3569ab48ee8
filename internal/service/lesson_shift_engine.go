package service

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lesson-planner-api/internal/models"
)

// ShiftDirection names the repair applied to a period.
type ShiftDirection string

const (
	ShiftForward  ShiftDirection = "forward"
	ShiftBackward ShiftDirection = "backward"
)

// ShiftResult lists the writes a shift needs. Upserted holds moved lessons plus created or
// re-dated Error fillers; Removed holds ids to delete. Overflowed lessons were pushed past the
// end of the range and converted to Error events; they are also listed in Removed because no
// in-range slot is left for them.
type ShiftResult struct {
	Direction  ShiftDirection         `json:"direction"`
	Period     int                    `json:"period"`
	Moved      []models.ScheduleEvent `json:"moved"`
	Upserted   []models.ScheduleEvent `json:"-"`
	Removed    []int64                `json:"removed"`
	Overflowed []models.ScheduleEvent `json:"overflowed"`
	Stranded   []int64                `json:"stranded,omitempty"`
}

// LessonShifter keeps one period's lessons contiguous on available teaching days after a
// special event is inserted or removed.
type LessonShifter struct {
	logger *zap.Logger
}

// NewLessonShifter constructs the shifting engine.
func NewLessonShifter(logger *zap.Logger) *LessonShifter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonShifter{logger: logger}
}

// ShiftForward pushes every lesson of period dated on or after insertionDate to the next
// available slot. events must already contain the inserted special event.
//
// A lesson with no slot left before the end of the range is converted to an Error event and
// deleted: its id is listed in Removed, and the converted event exists only in Overflowed and
// is never written back, since every remaining slot already holds an event.
func (s *LessonShifter) ShiftForward(events []models.ScheduleEvent, cal *TeachingCalendar, period int, insertionDate time.Time, nextID func() int64) ShiftResult {
	from := models.DateOnly(insertionDate)
	layout := newPeriodLayout(events, cal, period)
	result := ShiftResult{Direction: ShiftForward, Period: period}

	cursor := from.AddDate(0, 0, 1)
	for _, lesson := range layout.lessonsFrom(from, true) {
		slot, ok := layout.nextAvailable(cursor)
		if !ok {
			converted := lesson.Clone()
			converted.EventType = models.EventTypeError
			converted.EventCategory = nil
			converted.Comment = models.StringPtr(overflowComment(derefString(lesson.LessonID), cal.End()))
			converted.LessonID = nil
			result.Overflowed = append(result.Overflowed, converted)
			result.Removed = append(result.Removed, lesson.ID)
			layout.removed[lesson.ID] = true
			s.logger.Info("lesson pushed past schedule end",
				zap.String("schedule_id", lesson.ScheduleID),
				zap.Int("period", period),
				zap.Int64("event_id", lesson.ID),
				zap.String("lesson_id", derefString(lesson.LessonID)),
			)
			continue
		}
		if !slot.Equal(models.DateOnly(lesson.Date)) {
			lesson.Date = slot
			result.Moved = append(result.Moved, lesson.Clone())
		}
		cursor = slot.AddDate(0, 0, 1)
	}

	layout.reconcile(from, nextID, &result)
	return result
}

// ShiftBackward pulls the lessons of period dated after deletedDate toward the freed slot,
// earliest first, so the freed slot is filled and later lessons compact behind it. events
// must no longer contain the removed special event.
func (s *LessonShifter) ShiftBackward(events []models.ScheduleEvent, cal *TeachingCalendar, period int, deletedDate time.Time, nextID func() int64) ShiftResult {
	from := models.DateOnly(deletedDate)
	layout := newPeriodLayout(events, cal, period)
	result := ShiftResult{Direction: ShiftBackward, Period: period}

	cursor := from
	for _, lesson := range layout.lessonsFrom(from, false) {
		current := models.DateOnly(lesson.Date)
		slot, ok := layout.nextAvailable(cursor)
		if !ok {
			s.logger.Warn("no available slot for lesson, leaving it in place",
				zap.String("schedule_id", lesson.ScheduleID),
				zap.Int("period", period),
				zap.Int64("event_id", lesson.ID),
				zap.String("date", current.Format(models.DateLayout)),
			)
			result.Stranded = append(result.Stranded, lesson.ID)
			continue
		}
		if slot.After(current) {
			continue
		}
		if slot.Before(current) {
			lesson.Date = slot
			result.Moved = append(result.Moved, lesson.Clone())
		}
		cursor = slot.AddDate(0, 0, 1)
	}

	layout.reconcile(from, nextID, &result)
	return result
}

// periodLayout is the working state of one period during a shift.
type periodLayout struct {
	cal      *TeachingCalendar
	schedule string
	period   int
	blocked  map[int64]bool
	lessons  []*models.ScheduleEvent
	fillers  []*models.ScheduleEvent
	removed  map[int64]bool
	template *models.ScheduleEvent
}

func newPeriodLayout(events []models.ScheduleEvent, cal *TeachingCalendar, period int) *periodLayout {
	layout := &periodLayout{
		cal:     cal,
		period:  period,
		blocked: make(map[int64]bool),
		removed: make(map[int64]bool),
	}
	for _, event := range events {
		if event.Period != period {
			continue
		}
		if layout.schedule == "" {
			layout.schedule = event.ScheduleID
		}
		switch {
		case event.IsSpecial():
			layout.blocked[dayNumber(event.Date)] = true
		case event.IsLesson():
			clone := event.Clone()
			clone.Date = models.DateOnly(clone.Date)
			layout.lessons = append(layout.lessons, &clone)
		case event.IsError():
			clone := event.Clone()
			clone.Date = models.DateOnly(clone.Date)
			layout.fillers = append(layout.fillers, &clone)
		}
	}
	sortEventPtrs(layout.lessons)
	sortEventPtrs(layout.fillers)
	layout.template = fillerTemplate(layout.schedule, period, layout.lessons, layout.fillers)
	return layout
}

// lessonsFrom returns the lessons dated on (inclusive) or after from, ascending.
func (l *periodLayout) lessonsFrom(from time.Time, inclusive bool) []*models.ScheduleEvent {
	var out []*models.ScheduleEvent
	for _, lesson := range l.lessons {
		if lesson.Date.After(from) || (inclusive && lesson.Date.Equal(from)) {
			out = append(out, lesson)
		}
	}
	return out
}

// nextAvailable finds the first in-range teaching day on or after from whose slot is not
// held by a special event. Every step advances at least one day inside the range, so the
// loop is bounded by the range length; the explicit step check only guards that invariant.
func (l *periodLayout) nextAvailable(from time.Time) (time.Time, bool) {
	day, ok := l.cal.Next(from)
	for steps := 0; ok; steps++ {
		if steps > l.cal.rangeDays() {
			return time.Time{}, false
		}
		if !l.blocked[dayNumber(day)] {
			return day, true
		}
		day, ok = l.cal.Next(day.AddDate(0, 0, 1))
	}
	return time.Time{}, false
}

// reconcile makes every available slot on or after from that holds no lesson carry exactly
// one Error filler. Existing fillers are kept in place when possible, re-dated otherwise, and
// dropped when surplus.
func (l *periodLayout) reconcile(from time.Time, nextID func() int64, result *ShiftResult) {
	result.Upserted = append(result.Upserted, result.Moved...)
	lessonDays := make(map[int64]bool, len(l.lessons))
	for _, lesson := range l.lessons {
		if l.removed[lesson.ID] {
			continue
		}
		lessonDays[dayNumber(lesson.Date)] = true
	}

	var needed []time.Time
	neededSet := make(map[int64]bool)
	for day, ok := l.nextAvailable(from); ok; day, ok = l.nextAvailable(day.AddDate(0, 0, 1)) {
		key := dayNumber(day)
		if lessonDays[key] {
			continue
		}
		needed = append(needed, day)
		neededSet[key] = true
	}

	claimed := make(map[int64]bool, len(needed))
	var spare []*models.ScheduleEvent
	var written []models.ScheduleEvent
	for _, filler := range l.fillers {
		if filler.Date.Before(from) {
			continue
		}
		key := dayNumber(filler.Date)
		if neededSet[key] && !claimed[key] {
			claimed[key] = true
			continue
		}
		spare = append(spare, filler)
	}

	for _, day := range needed {
		key := dayNumber(day)
		if claimed[key] {
			continue
		}
		claimed[key] = true
		if len(spare) > 0 {
			filler := spare[0]
			spare = spare[1:]
			filler.Date = day
			written = append(written, filler.Clone())
			continue
		}
		created := l.template.Clone()
		created.ID = nextID()
		created.Date = day
		written = append(written, created)
	}
	for _, filler := range spare {
		result.Removed = append(result.Removed, filler.ID)
	}
	result.Upserted = append(result.Upserted, written...)
}

// fillerTemplate derives the Error event used to fill empty slots of a period. The course is
// taken from the period's own events; periods without one get the unconfigured comment.
func fillerTemplate(scheduleID string, period int, lessons, fillers []*models.ScheduleEvent) *models.ScheduleEvent {
	template := models.ScheduleEvent{
		ScheduleID: scheduleID,
		Period:     period,
		EventType:  models.EventTypeError,
		Comment:    models.StringPtr(unconfiguredComment(period)),
	}
	for _, group := range [][]*models.ScheduleEvent{lessons, fillers} {
		for _, event := range group {
			if event.CourseID != nil {
				template.CourseID = models.StringPtr(*event.CourseID)
				template.Comment = models.StringPtr(exhaustedComment(*event.CourseID))
				return &template
			}
		}
	}
	return &template
}

func sortEventPtrs(events []*models.ScheduleEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].ID < events[j].ID
	})
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
