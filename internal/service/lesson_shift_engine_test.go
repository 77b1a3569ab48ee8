package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/lesson-planner-api/internal/models"
)

func TestShiftForwardHolidayPushesLessons(t *testing.T) {
	cal := twoWeekCalendar(t, 1)
	events := generateSingleCourse(t, 3, 1)
	holiday := specialEvent(-100, "2025-01-07", 1, models.EventTypeHoliday, models.EventCategorySpecialDay)
	events = append(events, holiday)

	result := NewLessonShifter(nil).ShiftForward(events, cal, 1, date("2025-01-07"), newIDSequence(-1000).Next)

	assert.Equal(t, ShiftForward, result.Direction)
	require.Len(t, result.Moved, 2)
	assert.Equal(t, "l2", *result.Moved[0].LessonID)
	assert.Equal(t, date("2025-01-08"), result.Moved[0].Date)
	assert.Equal(t, "l3", *result.Moved[1].LessonID)
	assert.Equal(t, date("2025-01-09"), result.Moved[1].Date)
	assert.Empty(t, result.Overflowed)
	assert.Equal(t, []int64{-4}, result.Removed, "the Thursday filler is taken by l3")

	final := applyShiftResult(events, result)
	assert.Zero(t, DoubleBookedSlots(final))
	assert.Equal(t, map[string]string{
		"2025-01-06": "l1",
		"2025-01-08": "l2",
		"2025-01-09": "l3",
	}, lessonDates(final, 1))
	assert.Len(t, final, 10)
	assert.Equal(t, 6, countErrors(final))
}

func TestShiftForwardSkipsSlotsHeldBySpecialEvents(t *testing.T) {
	cal := twoWeekCalendar(t, 1)
	events := []models.ScheduleEvent{
		lessonEvent(-1, "2025-01-06", 1, "C", "l1"),
		lessonEvent(-2, "2025-01-07", 1, "C", "l2"),
		specialEvent(-3, "2025-01-08", 1, models.EventTypeAssembly, models.EventCategorySpecialPeriod),
		lessonEvent(-4, "2025-01-09", 1, "C", "l3"),
		specialEvent(-5, "2025-01-07", 1, models.EventTypeDuty, models.EventCategorySpecialPeriod),
	}

	result := NewLessonShifter(nil).ShiftForward(events, cal, 1, date("2025-01-07"), newIDSequence(-1000).Next)

	final := applyShiftResult(events, result)
	assert.Equal(t, map[string]string{
		"2025-01-06": "l1",
		"2025-01-09": "l2",
		"2025-01-10": "l3",
	}, lessonDates(final, 1))
	assert.Zero(t, DoubleBookedSlots(final))

	for _, event := range final {
		if event.IsError() {
			require.NotNil(t, event.CourseID)
			assert.Equal(t, "C", *event.CourseID, "fillers inherit the period course")
			assert.Negative(t, event.ID)
		}
	}
	assert.Equal(t, 5, countErrors(final), "week two is filled with placeholders")
}

func TestShiftForwardOverflowConvertsLessonToError(t *testing.T) {
	cal := twoWeekCalendar(t, 1)
	events := generateSingleCourse(t, 10, 1)
	events = append(events, specialEvent(-100, "2025-01-13", 1, models.EventTypeHoliday, models.EventCategorySpecialDay))

	result := NewLessonShifter(nil).ShiftForward(events, cal, 1, date("2025-01-13"), newIDSequence(-1000).Next)

	require.Len(t, result.Overflowed, 1)
	overflow := result.Overflowed[0]
	assert.Equal(t, models.EventTypeError, overflow.EventType)
	assert.Nil(t, overflow.LessonID)
	assert.Nil(t, overflow.EventCategory)
	require.NotNil(t, overflow.Comment)
	assert.Contains(t, *overflow.Comment, "l10")
	assert.Contains(t, result.Removed, int64(-10))
	assert.Len(t, result.Moved, 4)

	final := applyShiftResult(events, result)
	assert.Zero(t, DoubleBookedSlots(final))
	for _, event := range final {
		assert.True(t, cal.InRange(event.Date), "nothing is dated past the range")
	}
	assert.Len(t, lessonDates(final, 1), 9)
	assert.Equal(t, "l9", lessonDates(final, 1)["2025-01-17"])
}

func TestShiftBackwardRestoresPriorLayout(t *testing.T) {
	cal := twoWeekCalendar(t, 1)
	original := generateSingleCourse(t, 3, 1)
	ids := newIDSequence(-1000)
	shifter := NewLessonShifter(nil)

	holiday := specialEvent(-100, "2025-01-07", 1, models.EventTypeHoliday, models.EventCategorySpecialDay)
	shifted := applyShiftResult(append(copyEvents(original), holiday), shifter.ShiftForward(append(copyEvents(original), holiday), cal, 1, date("2025-01-07"), ids.Next))

	withoutHoliday := make([]models.ScheduleEvent, 0, len(shifted))
	for _, event := range shifted {
		if event.ID != holiday.ID {
			withoutHoliday = append(withoutHoliday, event)
		}
	}
	result := shifter.ShiftBackward(withoutHoliday, cal, 1, date("2025-01-07"), ids.Next)
	restored := applyShiftResult(withoutHoliday, result)

	assert.Equal(t, ShiftBackward, result.Direction)
	require.Len(t, result.Moved, 2)
	assert.Equal(t, lessonDates(original, 1), lessonDates(restored, 1))
	assert.Len(t, restored, len(original))
	assert.Equal(t, countErrors(original), countErrors(restored))
	assert.Zero(t, DoubleBookedSlots(restored))
}

func TestShiftBackwardLeavesEarlierLessonsInPlace(t *testing.T) {
	cal := twoWeekCalendar(t, 1)
	events := []models.ScheduleEvent{
		lessonEvent(-1, "2025-01-06", 1, "C", "l1"),
		lessonEvent(-2, "2025-01-08", 1, "C", "l2"),
		lessonEvent(-3, "2025-01-09", 1, "C", "l3"),
	}

	result := NewLessonShifter(nil).ShiftBackward(events, cal, 1, date("2025-01-07"), newIDSequence(-1000).Next)
	final := applyShiftResult(events, result)

	assert.Equal(t, map[string]string{
		"2025-01-06": "l1",
		"2025-01-07": "l2",
		"2025-01-08": "l3",
	}, lessonDates(final, 1))
	assert.Zero(t, DoubleBookedSlots(final))
}

func TestShiftBackwardLeavesLessonsWithoutSlotInPlace(t *testing.T) {
	cal := twoWeekCalendar(t, 1)
	events := []models.ScheduleEvent{
		lessonEvent(-1, "2025-01-06", 1, "C", "l1"),
		lessonEvent(-2, "2025-01-24", 1, "C", "l2"),
		lessonEvent(-3, "2025-01-27", 1, "C", "l3"),
	}
	core, logs := observer.New(zap.WarnLevel)

	result := NewLessonShifter(zap.New(core)).ShiftBackward(events, cal, 1, date("2025-01-20"), newIDSequence(-1000).Next)

	assert.Equal(t, []int64{-2, -3}, result.Stranded)
	assert.Empty(t, result.Moved)
	assert.Empty(t, result.Upserted)
	assert.Empty(t, result.Removed)
	assert.Equal(t, events, applyShiftResult(copyEvents(events), result))

	entries := logs.FilterMessage("no available slot for lesson, leaving it in place").All()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(-2), entries[0].ContextMap()["event_id"])
	assert.Equal(t, "2025-01-24", entries[0].ContextMap()["date"])
}

func TestShiftOnlyTouchesItsPeriod(t *testing.T) {
	cal := twoWeekCalendar(t, 2)
	events := []models.ScheduleEvent{
		lessonEvent(-1, "2025-01-06", 1, "C", "c1"),
		lessonEvent(-2, "2025-01-06", 2, "D", "d1"),
		lessonEvent(-3, "2025-01-07", 1, "C", "c2"),
		lessonEvent(-4, "2025-01-07", 2, "D", "d2"),
		specialEvent(-5, "2025-01-06", 1, models.EventTypeAssembly, models.EventCategorySpecialPeriod),
	}

	result := NewLessonShifter(nil).ShiftForward(events, cal, 1, date("2025-01-06"), newIDSequence(-1000).Next)

	for _, event := range append(result.Upserted, result.Overflowed...) {
		assert.Equal(t, 1, event.Period)
	}
	final := applyShiftResult(events, result)
	assert.Equal(t, map[string]string{"2025-01-06": "d1", "2025-01-07": "d2"}, lessonDates(final, 2))
	assert.Equal(t, map[string]string{"2025-01-07": "c1", "2025-01-08": "c2"}, lessonDates(final, 1))
}

// --- Fixtures ---

func generateSingleCourse(t *testing.T, lessons, periodsPerDay int) []models.ScheduleEvent {
	t.Helper()
	list := make([]string, 0, lessons)
	for i := 1; i <= lessons; i++ {
		list = append(list, fmt.Sprintf("l%d", i))
	}
	result := NewLessonScheduleGenerator(nil).Generate(GenerateInput{
		ScheduleID:  "sched-1",
		UserID:      "teacher-1",
		Assignments: []models.PeriodAssignment{courseAssignment(1, "C")},
		Lessons:     models.LessonLists{"C": list},
		Config:      twoWeekConfig(periodsPerDay),
	})
	require.Empty(t, result.Issues)
	return result.Events
}

// applyShiftResult writes result into a copy of events the way the aggregate does: removals
// first, then upserts by id.
func applyShiftResult(events []models.ScheduleEvent, result ShiftResult) []models.ScheduleEvent {
	byID := make(map[int64]models.ScheduleEvent, len(events))
	for _, event := range events {
		byID[event.ID] = event
	}
	for _, id := range result.Removed {
		delete(byID, id)
	}
	for _, event := range result.Upserted {
		byID[event.ID] = event
	}
	out := make([]models.ScheduleEvent, 0, len(byID))
	for _, event := range byID {
		out = append(out, event)
	}
	sortEvents(out)
	return out
}

func copyEvents(events []models.ScheduleEvent) []models.ScheduleEvent {
	out := make([]models.ScheduleEvent, len(events))
	copy(out, events)
	return out
}

func lessonDates(events []models.ScheduleEvent, period int) map[string]string {
	out := make(map[string]string)
	for _, event := range events {
		if event.Period == period && event.IsLesson() {
			out[event.Date.Format(models.DateLayout)] = *event.LessonID
		}
	}
	return out
}

func countErrors(events []models.ScheduleEvent) int {
	count := 0
	for _, event := range events {
		if event.IsError() {
			count++
		}
	}
	return count
}
