package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lesson-planner-api/internal/models"
)

// GenerateInput carries everything needed to lay out a schedule.
type GenerateInput struct {
	ScheduleID  string
	UserID      string
	Assignments []models.PeriodAssignment
	Lessons     models.LessonLists
	Config      models.TeachingConfiguration
}

// GenerateResult is the full event set for the range, or an issue list when the
// configuration is unusable.
type GenerateResult struct {
	Events        []models.ScheduleEvent
	Issues        []models.ScheduleIssue
	LessonsPlaced int
	ErrorEvents   int
}

// idSequence hands out strictly decreasing negative ids for unsaved events.
type idSequence struct {
	next int64
}

func newIDSequence(floor int64) *idSequence {
	if floor > 0 {
		floor = 0
	}
	return &idSequence{next: floor - 1}
}

func (s *idSequence) Next() int64 {
	id := s.next
	s.next--
	return id
}

// lessonCursor walks one course's lesson list for one period. It only advances when a
// lesson is actually placed, so once exhausted it stays exhausted.
type lessonCursor struct {
	lessons []string
	pos     int
}

func (c *lessonCursor) take() (string, bool) {
	if c.pos >= len(c.lessons) {
		return "", false
	}
	lesson := c.lessons[c.pos]
	c.pos++
	return lesson, true
}

// LessonScheduleGenerator lays lessons out over the teaching calendar.
type LessonScheduleGenerator struct {
	logger *zap.Logger
}

// NewLessonScheduleGenerator constructs the generator.
func NewLessonScheduleGenerator(logger *zap.Logger) *LessonScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonScheduleGenerator{logger: logger}
}

// Generate walks every teaching day of the range and every period of the day, emitting one
// event per slot. Configuration issues yield zero events.
func (g *LessonScheduleGenerator) Generate(in GenerateInput) GenerateResult {
	issues := ValidateGenerateInput(in)
	if len(issues) > 0 {
		g.logger.Info("schedule generation refused",
			zap.String("schedule_id", in.ScheduleID),
			zap.Int("issues", len(issues)),
		)
		return GenerateResult{Events: []models.ScheduleEvent{}, Issues: issues}
	}

	cal, err := NewTeachingCalendar(in.Config)
	if err != nil {
		return GenerateResult{
			Events: []models.ScheduleEvent{},
			Issues: []models.ScheduleIssue{{Code: models.IssueInvalidDateRange, Message: err.Error()}},
		}
	}

	byPeriod := make(map[int]models.PeriodAssignment, len(in.Assignments))
	for _, assignment := range in.Assignments {
		byPeriod[assignment.Period] = assignment
	}
	periods := periodNumbers(in.Config.PeriodsPerDay, in.Assignments)

	cursors := make(map[cursorKey]*lessonCursor)
	ids := newIDSequence(0)
	days := cal.Days()
	result := GenerateResult{Events: make([]models.ScheduleEvent, 0, len(days)*len(periods))}

	for _, day := range days {
		for _, period := range periods {
			assignment, ok := byPeriod[period]
			if !ok {
				assignment = models.PeriodAssignment{Period: period}
			}
			event := models.ScheduleEvent{
				ID:         ids.Next(),
				ScheduleID: in.ScheduleID,
				Date:       day,
				Period:     period,
			}
			switch assignment.Kind() {
			case models.PeriodAssignmentCourse:
				courseID := *assignment.CourseID
				key := cursorKey{period: period, courseID: courseID}
				cursor, exists := cursors[key]
				if !exists {
					cursor = &lessonCursor{lessons: in.Lessons[courseID]}
					cursors[key] = cursor
				}
				event.CourseID = models.StringPtr(courseID)
				if lessonID, ok := cursor.take(); ok {
					event.LessonID = models.StringPtr(lessonID)
					event.EventType = models.EventTypeLesson
					event.EventCategory = models.CategoryPtr(models.EventCategoryLesson)
					result.LessonsPlaced++
				} else {
					event.EventType = models.EventTypeError
					event.Comment = models.StringPtr(exhaustedComment(courseID))
					result.ErrorEvents++
				}
			case models.PeriodAssignmentSpecial:
				event.EventType = models.EventType(*assignment.SpecialPeriodType)
				event.EventCategory = models.CategoryPtr(models.EventCategorySpecialPeriod)
			default:
				event.EventType = models.EventTypeError
				event.Comment = models.StringPtr(unconfiguredComment(period))
				result.ErrorEvents++
			}
			result.Events = append(result.Events, event)
		}
	}

	g.logger.Debug("schedule generated",
		zap.String("schedule_id", in.ScheduleID),
		zap.Int("teaching_days", len(days)),
		zap.Int("events", len(result.Events)),
		zap.Int("lessons", result.LessonsPlaced),
		zap.Int("errors", result.ErrorEvents),
	)
	return result
}

type cursorKey struct {
	period   int
	courseID string
}

// ValidateGenerateInput lists configuration problems that make generation meaningless.
func ValidateGenerateInput(in GenerateInput) []models.ScheduleIssue {
	var issues []models.ScheduleIssue
	if strings.TrimSpace(in.UserID) == "" {
		issues = append(issues, models.ScheduleIssue{Code: models.IssueNoUser, Message: "an authenticated user is required to generate a schedule"})
	}
	if len(in.Assignments) == 0 {
		issues = append(issues, models.ScheduleIssue{Code: models.IssueNoAssignments, Message: "no period assignments configured"})
	}
	if len(TeachingDayNumbers(in.Config.TeachingDays)) == 0 {
		issues = append(issues, models.ScheduleIssue{Code: models.IssueNoTeachingDays, Message: "no recognised teaching days configured"})
	}
	if in.Config.PeriodsPerDay < 1 {
		issues = append(issues, models.ScheduleIssue{Code: models.IssueInvalidPeriods, Message: "periods per day must be at least 1"})
	}
	switch {
	case in.Config.StartDate.IsZero() || in.Config.EndDate.IsZero():
		issues = append(issues, models.ScheduleIssue{Code: models.IssueInvalidDateRange, Message: "start and end dates are required"})
	case models.DateOnly(in.Config.EndDate).Before(models.DateOnly(in.Config.StartDate)):
		issues = append(issues, models.ScheduleIssue{Code: models.IssueInvalidDateRange, Message: "end date precedes start date"})
	}

	seen := make(map[int]bool, len(in.Assignments))
	for _, assignment := range in.Assignments {
		period := assignment.Period
		if period < 1 || (in.Config.PeriodsPerDay >= 1 && period > in.Config.PeriodsPerDay) {
			issues = append(issues, models.ScheduleIssue{
				Code:    models.IssuePeriodOutOfRange,
				Message: fmt.Sprintf("period %d is outside 1..%d", period, in.Config.PeriodsPerDay),
				Period:  &period,
			})
		}
		if seen[period] {
			issues = append(issues, models.ScheduleIssue{
				Code:    models.IssueDuplicatePeriod,
				Message: fmt.Sprintf("period %d is assigned more than once", period),
				Period:  &period,
			})
		}
		seen[period] = true
		if assignment.CourseID != nil && *assignment.CourseID != "" && assignment.SpecialPeriodType != nil && *assignment.SpecialPeriodType != "" {
			issues = append(issues, models.ScheduleIssue{
				Code:    models.IssueAmbiguousAssignment,
				Message: fmt.Sprintf("period %d names both a course and a special period type", period),
				Period:  &period,
			})
		}
	}
	return issues
}

// BuildLessonLists groups lessons per course, ordered by topic, sub-topic and lesson sort
// order. The order is fixed here and never changed by the engine afterwards.
func BuildLessonLists(lessons []models.Lesson) models.LessonLists {
	sorted := make([]models.Lesson, len(lessons))
	copy(sorted, lessons)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.CourseID != b.CourseID {
			return a.CourseID < b.CourseID
		}
		if a.TopicSortOrder != b.TopicSortOrder {
			return a.TopicSortOrder < b.TopicSortOrder
		}
		if a.SubTopicSortOrder != b.SubTopicSortOrder {
			return a.SubTopicSortOrder < b.SubTopicSortOrder
		}
		return a.SortOrder < b.SortOrder
	})
	lists := make(models.LessonLists)
	for _, lesson := range sorted {
		lists[lesson.CourseID] = append(lists[lesson.CourseID], lesson.ID)
	}
	return lists
}

func periodNumbers(periodsPerDay int, assignments []models.PeriodAssignment) []int {
	if periodsPerDay < 1 {
		for _, assignment := range assignments {
			if assignment.Period > periodsPerDay {
				periodsPerDay = assignment.Period
			}
		}
	}
	periods := make([]int, 0, periodsPerDay)
	for p := 1; p <= periodsPerDay; p++ {
		periods = append(periods, p)
	}
	return periods
}

func exhaustedComment(courseID string) string {
	return fmt.Sprintf("No lessons remaining for course %s", courseID)
}

func unconfiguredComment(period int) string {
	return fmt.Sprintf("Period %d is not configured", period)
}

func overflowComment(lessonID string, end time.Time) string {
	return fmt.Sprintf("Lesson %s was pushed past the schedule end %s", lessonID, end.Format(models.DateLayout))
}
