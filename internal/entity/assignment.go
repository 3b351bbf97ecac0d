package entity

import (
	"time"

	"github.com/google/uuid"
)

// Assignment is one canonical, dated course item.
type Assignment struct {
	ID          int64      `json:"id"`
	CourseID    uuid.UUID  `json:"course_id,omitzero"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	DueDate     string     `json:"due_date"`   // YYYY-MM-DD
	StartTime   string     `json:"start_time"` // HH:mm
	EndTime     string     `json:"end_time"`   // HH:mm
	Color       string     `json:"color"`      // palette hex
	Reminder    int        `json:"reminder"`   // minutes before start
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at,omitzero"`
}

// RawAssignment is an assignment as proposed by the model or a manual entry,
// before defaults, ids and colors are applied.
type RawAssignment struct {
	ID          *int64 `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	Color       string `json:"color,omitempty"`
	Reminder    *int   `json:"reminder,omitempty"`
}

// AssignmentPatch carries the fields of an edit; nil fields are left unchanged.
type AssignmentPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	StartTime   *string `json:"start_time,omitempty"`
	EndTime     *string `json:"end_time,omitempty"`
	Color       *string `json:"color,omitempty"`
	Reminder    *int    `json:"reminder,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p AssignmentPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.DueDate == nil &&
		p.StartTime == nil && p.EndTime == nil && p.Color == nil && p.Reminder == nil
}

// Apply returns a copy of a with the patch's non-nil fields written over it.
func (p AssignmentPatch) Apply(a Assignment) Assignment {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.DueDate != nil {
		a.DueDate = *p.DueDate
	}
	if p.StartTime != nil {
		a.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		a.EndTime = *p.EndTime
	}
	if p.Color != nil {
		a.Color = *p.Color
	}
	if p.Reminder != nil {
		a.Reminder = *p.Reminder
	}
	return a
}
