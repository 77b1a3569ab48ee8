package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lesson-planner-api/internal/models"
)

// LessonScheduleRepository reads schedule headers and tracks their stored version.
type LessonScheduleRepository struct {
	db *sqlx.DB
}

// NewLessonScheduleRepository builds repository.
func NewLessonScheduleRepository(db *sqlx.DB) *LessonScheduleRepository {
	return &LessonScheduleRepository{db: db}
}

func (r *LessonScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID returns the schedule header.
func (r *LessonScheduleRepository) FindByID(ctx context.Context, id string) (*models.LessonSchedule, error) {
	const query = `SELECT id, user_id, name, teaching_days, periods_per_day, start_date, end_date, version, created_at, updated_at
FROM lesson_schedules WHERE id = $1`
	var schedule models.LessonSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, fmt.Errorf("get lesson schedule: %w", err)
	}
	return &schedule, nil
}

// BumpVersion increments the stored version and returns the new value.
func (r *LessonScheduleRepository) BumpVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int64, error) {
	const query = `UPDATE lesson_schedules SET version = version + 1, updated_at = $2 WHERE id = $1 RETURNING version`
	var version int64
	if err := r.exec(exec).QueryRowxContext(ctx, query, id, time.Now().UTC()).Scan(&version); err != nil {
		return 0, fmt.Errorf("bump lesson schedule version: %w", err)
	}
	return version, nil
}
