package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lesson-planner-api/internal/models"
)

// ScheduleEventRepository persists the events of lesson schedules.
type ScheduleEventRepository struct {
	db *sqlx.DB
}

// NewScheduleEventRepository builds repository.
func NewScheduleEventRepository(db *sqlx.DB) *ScheduleEventRepository {
	return &ScheduleEventRepository{db: db}
}

func (r *ScheduleEventRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListBySchedule returns the events of a schedule ordered by date and period.
func (r *ScheduleEventRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleEvent, error) {
	const query = `SELECT id, schedule_id, course_id, event_date, period, lesson_id, event_type, event_category, comment
FROM schedule_events WHERE schedule_id = $1 ORDER BY event_date ASC, period ASC, id ASC`
	var events []models.ScheduleEvent
	if err := r.db.SelectContext(ctx, &events, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule events: %w", err)
	}
	for i := range events {
		events[i].Date = models.DateOnly(events[i].Date)
	}
	return events, nil
}

// DeleteExcept removes every event of the schedule whose id is not in keep.
func (r *ScheduleEventRepository) DeleteExcept(ctx context.Context, exec sqlx.ExtContext, scheduleID string, keep []int64) (int64, error) {
	const query = `DELETE FROM schedule_events WHERE schedule_id = $1 AND NOT (id = ANY($2))`
	if keep == nil {
		keep = []int64{}
	}
	res, err := r.exec(exec).ExecContext(ctx, query, scheduleID, pq.Array(keep))
	if err != nil {
		return 0, fmt.Errorf("delete stale schedule events: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete stale schedule events: %w", err)
	}
	return affected, nil
}

// Update rewrites a persisted event.
func (r *ScheduleEventRepository) Update(ctx context.Context, exec sqlx.ExtContext, event models.ScheduleEvent) error {
	const query = `
UPDATE schedule_events
SET course_id = :course_id,
    event_date = :event_date,
    period = :period,
    lesson_id = :lesson_id,
    event_type = :event_type,
    event_category = :event_category,
    comment = :comment
WHERE id = :id AND schedule_id = :schedule_id`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, event); err != nil {
		return fmt.Errorf("update schedule event %d: %w", event.ID, err)
	}
	return nil
}

// Insert stores a new event and returns its database id.
func (r *ScheduleEventRepository) Insert(ctx context.Context, exec sqlx.ExtContext, event models.ScheduleEvent) (int64, error) {
	const named = `
INSERT INTO schedule_events (schedule_id, course_id, event_date, period, lesson_id, event_type, event_category, comment)
VALUES (:schedule_id, :course_id, :event_date, :period, :lesson_id, :event_type, :event_category, :comment)
RETURNING id`
	query, args, err := sqlx.Named(named, event)
	if err != nil {
		return 0, fmt.Errorf("bind schedule event: %w", err)
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	var id int64
	if err := r.exec(exec).QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert schedule event: %w", err)
	}
	return id, nil
}
