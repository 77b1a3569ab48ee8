package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/lesson-planner-api/internal/models"
)

// maxSingleDayScan guards the single-day searches. Two weeks always contains every weekday,
// so hitting it means the day set was empty.
const maxSingleDayScan = 14

var weekdayNumbers = map[string]int{
	"sunday":    0,
	"sun":       0,
	"monday":    1,
	"mon":       1,
	"tuesday":   2,
	"tue":       2,
	"wednesday": 3,
	"wed":       3,
	"thursday":  4,
	"thu":       4,
	"friday":    5,
	"fri":       5,
	"saturday":  6,
	"sat":       6,
}

// TeachingDayNumbers converts weekday names to sorted, unique weekday numbers
// (0=Sunday..6=Saturday). Unrecognised names are dropped.
func TeachingDayNumbers(names []string) []int {
	seen := make(map[int]struct{}, len(names))
	result := make([]int, 0, len(names))
	for _, name := range names {
		day, ok := weekdayNumbers[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		result = append(result, day)
	}
	sort.Ints(result)
	return result
}

// IsTeachingDay reports whether date falls on one of dayNumbers.
func IsTeachingDay(date time.Time, dayNumbers []int) bool {
	weekday := int(date.Weekday())
	for _, day := range dayNumbers {
		if day == weekday {
			return true
		}
	}
	return false
}

// NextTeachingDay returns the smallest teaching day on or after from. When no teaching day
// is found within two weeks it falls back to from + 1.
func NextTeachingDay(from time.Time, dayNumbers []int) time.Time {
	start := models.DateOnly(from)
	day := start
	for i := 0; i < maxSingleDayScan; i++ {
		if IsTeachingDay(day, dayNumbers) {
			return day
		}
		day = day.AddDate(0, 0, 1)
	}
	return start.AddDate(0, 0, 1)
}

// PreviousTeachingDay returns the largest teaching day strictly before from, falling back to
// from - 1.
func PreviousTeachingDay(from time.Time, dayNumbers []int) time.Time {
	start := models.DateOnly(from)
	day := start.AddDate(0, 0, -1)
	for i := 0; i < maxSingleDayScan; i++ {
		if IsTeachingDay(day, dayNumbers) {
			return day
		}
		day = day.AddDate(0, 0, -1)
	}
	return start.AddDate(0, 0, -1)
}

// TeachingDaysBetween lists the teaching days in [start, end] in ascending order.
func TeachingDaysBetween(start, end time.Time, dayNumbers []int) []time.Time {
	start = models.DateOnly(start)
	end = models.DateOnly(end)
	if end.Before(start) || len(dayNumbers) == 0 {
		return nil
	}
	var days []time.Time
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if IsTeachingDay(day, dayNumbers) {
			days = append(days, day)
		}
	}
	return days
}

// TeachingCalendar is a validated teaching-day set bound to an inclusive date range. Because
// it always holds at least one weekday, every search over it terminates within the range.
type TeachingCalendar struct {
	dayNumbers []int
	weekdays   [7]bool
	start      time.Time
	end        time.Time
}

// NewTeachingCalendar validates the configuration and builds a calendar.
func NewTeachingCalendar(cfg models.TeachingConfiguration) (*TeachingCalendar, error) {
	days := TeachingDayNumbers(cfg.TeachingDays)
	if len(days) == 0 {
		return nil, fmt.Errorf("teaching calendar requires at least one recognised weekday")
	}
	if cfg.StartDate.IsZero() || cfg.EndDate.IsZero() {
		return nil, fmt.Errorf("teaching calendar requires a start and end date")
	}
	start := models.DateOnly(cfg.StartDate)
	end := models.DateOnly(cfg.EndDate)
	if end.Before(start) {
		return nil, fmt.Errorf("teaching calendar end %s precedes start %s", end.Format(models.DateLayout), start.Format(models.DateLayout))
	}
	cal := &TeachingCalendar{dayNumbers: days, start: start, end: end}
	for _, day := range days {
		cal.weekdays[day] = true
	}
	return cal, nil
}

// Start returns the first date of the range.
func (c *TeachingCalendar) Start() time.Time { return c.start }

// End returns the last date of the range.
func (c *TeachingCalendar) End() time.Time { return c.end }

// DayNumbers returns the weekday numbers of the calendar.
func (c *TeachingCalendar) DayNumbers() []int {
	out := make([]int, len(c.dayNumbers))
	copy(out, c.dayNumbers)
	return out
}

// InRange reports whether date is within the inclusive range.
func (c *TeachingCalendar) InRange(date time.Time) bool {
	date = models.DateOnly(date)
	return !date.Before(c.start) && !date.After(c.end)
}

// IsTeachingDay reports whether date is a teaching weekday, regardless of range.
func (c *TeachingCalendar) IsTeachingDay(date time.Time) bool {
	return c.weekdays[date.Weekday()]
}

// Days lists every teaching day in the range.
func (c *TeachingCalendar) Days() []time.Time {
	return TeachingDaysBetween(c.start, c.end, c.dayNumbers)
}

// Next returns the first teaching day on or after from that is still inside the range.
func (c *TeachingCalendar) Next(from time.Time) (time.Time, bool) {
	from = models.DateOnly(from)
	if from.Before(c.start) {
		from = c.start
	}
	if from.After(c.end) {
		return time.Time{}, false
	}
	day := NextTeachingDay(from, c.dayNumbers)
	if day.After(c.end) {
		return time.Time{}, false
	}
	return day, true
}

// Previous returns the last teaching day strictly before from that is still inside the range.
func (c *TeachingCalendar) Previous(from time.Time) (time.Time, bool) {
	from = models.DateOnly(from)
	if from.After(c.end.AddDate(0, 0, 1)) {
		from = c.end.AddDate(0, 0, 1)
	}
	if !from.After(c.start) {
		return time.Time{}, false
	}
	day := PreviousTeachingDay(from, c.dayNumbers)
	if day.Before(c.start) {
		return time.Time{}, false
	}
	return day, true
}

// rangeDays is the number of calendar days covered by the range; cascading searches never
// need more steps than this.
func (c *TeachingCalendar) rangeDays() int {
	return int(c.end.Sub(c.start).Hours()/24) + 1
}
