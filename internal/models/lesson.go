package models

// Lesson is a leaf of the course -> topic -> sub-topic hierarchy together with the sort keys
// that decide its position in the course's lesson list.
type Lesson struct {
	ID                string  `db:"id" json:"id"`
	CourseID          string  `db:"course_id" json:"courseId"`
	TopicID           string  `db:"topic_id" json:"topicId"`
	SubTopicID        *string `db:"sub_topic_id" json:"subTopicId,omitempty"`
	Title             string  `db:"title" json:"title"`
	TopicSortOrder    int     `db:"topic_sort_order" json:"topicSortOrder"`
	SubTopicSortOrder int     `db:"sub_topic_sort_order" json:"subTopicSortOrder"`
	SortOrder         int     `db:"sort_order" json:"sortOrder"`
}

// LessonLists maps a course id to its ordered lesson ids.
type LessonLists map[string][]string
