package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-planner-api/internal/models"
)

func newPlannerRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScheduleEventRepositoryListBySchedule(t *testing.T) {
	db, mock, cleanup := newPlannerRepoMock(t)
	defer cleanup()
	repo := NewScheduleEventRepository(db)

	rows := sqlmock.NewRows([]string{"id", "schedule_id", "course_id", "event_date", "period", "lesson_id", "event_type", "event_category", "comment"}).
		AddRow(int64(1), "sched-1", "C", time.Date(2025, 1, 6, 7, 30, 0, 0, time.UTC), 1, "l1", "Lesson", "Lesson", nil).
		AddRow(int64(2), "sched-1", nil, time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC), 1, nil, "Holiday", "SpecialDay", "school closed")
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_events WHERE schedule_id = $1 ORDER BY event_date ASC, period ASC, id ASC")).
		WithArgs("sched-1").
		WillReturnRows(rows)

	events, err := repo.ListBySchedule(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.True(t, events[0].IsLesson())
	assert.Equal(t, "l1", *events[0].LessonID)
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), events[0].Date)
	assert.True(t, events[1].IsSpecialDay())
	assert.Nil(t, events[1].CourseID)
	assert.Equal(t, "school closed", *events[1].Comment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEventRepositoryDeleteExceptInTransaction(t *testing.T) {
	db, mock, cleanup := newPlannerRepoMock(t)
	defer cleanup()
	repo := NewScheduleEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_events WHERE schedule_id = $1 AND NOT (id = ANY($2))")).
		WithArgs("sched-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	deleted, err := repo.DeleteExcept(context.Background(), tx, "sched-1", nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEventRepositoryInsertReturnsID(t *testing.T) {
	db, mock, cleanup := newPlannerRepoMock(t)
	defer cleanup()
	repo := NewScheduleEventRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO schedule_events")).
		WithArgs("sched-1", "C", sqlmock.AnyArg(), 2, "l4", "Lesson", "Lesson", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(41)))

	id, err := repo.Insert(context.Background(), nil, models.ScheduleEvent{
		ID:            -7,
		ScheduleID:    "sched-1",
		CourseID:      models.StringPtr("C"),
		Date:          time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
		Period:        2,
		LessonID:      models.StringPtr("l4"),
		EventType:     models.EventTypeLesson,
		EventCategory: models.CategoryPtr(models.EventCategoryLesson),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(41), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEventRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newPlannerRepoMock(t)
	defer cleanup()
	repo := NewScheduleEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_events")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_events")).
		WillReturnError(errors.New("connection reset"))

	event := models.ScheduleEvent{ID: 9, ScheduleID: "sched-1", Date: time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC), Period: 1, EventType: models.EventTypeError}
	require.NoError(t, repo.Update(context.Background(), nil, event))
	err := repo.Update(context.Background(), nil, event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update schedule event 9")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonScheduleRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newPlannerRepoMock(t)
	defer cleanup()
	repo := NewLessonScheduleRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "teaching_days", "periods_per_day", "start_date", "end_date", "version", "created_at", "updated_at"}).
		AddRow("sched-1", "teacher-1", "Grade 7", "{Monday,Wednesday}", 4, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC), int64(2), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM lesson_schedules WHERE id = $1")).
		WithArgs("sched-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("FROM lesson_schedules WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	schedule, err := repo.FindByID(context.Background(), "sched-1")
	require.NoError(t, err)
	cfg := schedule.TeachingConfiguration()
	assert.Equal(t, []string{"Monday", "Wednesday"}, cfg.TeachingDays)
	assert.Equal(t, 4, cfg.PeriodsPerDay)
	assert.Equal(t, int64(2), schedule.Version)

	_, err = repo.FindByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonScheduleRepositoryBumpVersion(t *testing.T) {
	db, mock, cleanup := newPlannerRepoMock(t)
	defer cleanup()
	repo := NewLessonScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE lesson_schedules SET version = version + 1")).
		WithArgs("sched-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(5)))

	version, err := repo.BumpVersion(context.Background(), nil, "sched-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodAssignmentRepositoryListBySchedule(t *testing.T) {
	db, mock, cleanup := newPlannerRepoMock(t)
	defer cleanup()
	repo := NewPeriodAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "schedule_id", "period", "course_id", "special_period_type"}).
		AddRow("pa-1", "sched-1", 1, "C", nil).
		AddRow("pa-2", "sched-1", 2, nil, "Lunch").
		AddRow("pa-3", "sched-1", 3, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM period_assignments WHERE schedule_id = $1 ORDER BY period ASC")).
		WithArgs("sched-1").
		WillReturnRows(rows)

	assignments, err := repo.ListBySchedule(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Len(t, assignments, 3)
	assert.Equal(t, models.PeriodAssignmentCourse, assignments[0].Kind())
	assert.Equal(t, models.PeriodAssignmentSpecial, assignments[1].Kind())
	assert.Equal(t, models.PeriodAssignmentUnassigned, assignments[2].Kind())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryListOrderedByCourses(t *testing.T) {
	db, mock, cleanup := newPlannerRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	empty, err := repo.ListOrderedByCourses(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	rows := sqlmock.NewRows([]string{"id", "course_id", "topic_id", "sub_topic_id", "title", "topic_sort_order", "sub_topic_sort_order", "sort_order"}).
		AddRow("l1", "C", "t1", nil, "Fractions", 1, 0, 1).
		AddRow("l2", "C", "t1", "st1", "Decimals", 1, 1, 1)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.course_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	lessons, err := repo.ListOrderedByCourses(context.Background(), []string{"C"})
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Nil(t, lessons[0].SubTopicID)
	assert.Equal(t, "st1", *lessons[1].SubTopicID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
