package entity

import (
	"time"

	"github.com/google/uuid"
)

// Course groups the assignments extracted from one document.
type Course struct {
	ID          uuid.UUID    `json:"id"`
	UserID      string       `json:"user_id"`
	CourseName  string       `json:"course_name"`
	SourceType  string       `json:"source_type,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Assignments []Assignment `json:"assignments"`
}

// CourseData is the in-memory result of extraction, before persistence.
type CourseData struct {
	CourseName  string       `json:"course_name"`
	SourceType  string       `json:"source_type,omitempty"`
	Assignments []Assignment `json:"assignments"`
}
