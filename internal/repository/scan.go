package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

// storedTimeLayout is fixed width so that TEXT ordering matches time ordering.
const storedTimeLayout = "2006-01-02T15:04:05.000000Z"

type rowScanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{storedTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func scanCourse(row rowScanner) (*entity.Course, error) {
	var (
		id, createdAt string
		c             entity.Course
	)
	if err := row.Scan(&id, &c.UserID, &c.CourseName, &c.SourceType, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if c.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("course id: %w", err)
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	c.Assignments = []entity.Assignment{}
	return &c, nil
}

func scanAssignment(row rowScanner) (entity.Assignment, error) {
	var (
		a           entity.Assignment
		courseID    string
		createdAt   string
		completedAt sql.NullString
	)
	if err := row.Scan(&a.ID, &courseID, &a.Name, &a.Description, &a.DueDate, &a.StartTime, &a.EndTime,
		&a.Color, &a.Reminder, &completedAt, &createdAt); err != nil {
		return entity.Assignment{}, err
	}
	var err error
	if a.CourseID, err = uuid.Parse(courseID); err != nil {
		return entity.Assignment{}, fmt.Errorf("course id: %w", err)
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return entity.Assignment{}, err
	}
	if completedAt.Valid && completedAt.String != "" {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return entity.Assignment{}, err
		}
		a.Completed = true
		a.CompletedAt = &t
	}
	return a, nil
}
