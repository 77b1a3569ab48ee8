package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lesson-planner-api/internal/models"
)

// LessonRepository reads course lessons with their curriculum ordering.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository builds repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// ListOrderedByCourses returns the lessons of the given courses ordered by topic, sub-topic
// and lesson sort order.
func (r *LessonRepository) ListOrderedByCourses(ctx context.Context, courseIDs []string) ([]models.Lesson, error) {
	if len(courseIDs) == 0 {
		return []models.Lesson{}, nil
	}
	const query = `
SELECT l.id, t.course_id, l.topic_id, l.sub_topic_id, l.title,
       t.sort_order AS topic_sort_order,
       COALESCE(st.sort_order, 0) AS sub_topic_sort_order,
       l.sort_order
FROM lessons l
JOIN topics t ON t.id = l.topic_id
LEFT JOIN sub_topics st ON st.id = l.sub_topic_id
WHERE t.course_id = ANY($1)
ORDER BY t.course_id ASC, t.sort_order ASC, COALESCE(st.sort_order, 0) ASC, l.sort_order ASC`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, pq.Array(courseIDs)); err != nil {
		return nil, fmt.Errorf("list lessons by courses: %w", err)
	}
	return lessons, nil
}
