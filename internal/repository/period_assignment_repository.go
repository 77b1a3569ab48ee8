package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lesson-planner-api/internal/models"
)

// PeriodAssignmentRepository reads the per-period configuration of schedules.
type PeriodAssignmentRepository struct {
	db *sqlx.DB
}

// NewPeriodAssignmentRepository builds repository.
func NewPeriodAssignmentRepository(db *sqlx.DB) *PeriodAssignmentRepository {
	return &PeriodAssignmentRepository{db: db}
}

// ListBySchedule returns the assignments of a schedule ordered by period.
func (r *PeriodAssignmentRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.PeriodAssignment, error) {
	const query = `SELECT id, schedule_id, period, course_id, special_period_type
FROM period_assignments WHERE schedule_id = $1 ORDER BY period ASC`
	var assignments []models.PeriodAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list period assignments: %w", err)
	}
	return assignments, nil
}
