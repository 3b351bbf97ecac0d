package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

// HistoryLister is the slice of the course repository the export needs.
type HistoryLister interface {
	ListCourseHistory(ctx context.Context, userID string) ([]*entity.Course, error)
}

// Service is a tiny façade over the course repository that produces XLSX bytes for exports.
type Service struct {
	courses HistoryLister
	logger  *slog.Logger
}

func NewService(courses HistoryLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{courses: courses, logger: logger}
}

const sheet = "Assignments"

var headers = []string{
	"Course",
	"Assignment",
	"Description",
	"Due Date",
	"Start",
	"End",
	"Reminder (min)",
	"Color",
	"Completed",
	"Extracted At",
}

// ExportHistoryXLSX returns an XLSX workbook (as bytes) with one row per assignment
// in the user's history, filtered by due date.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> everything.
func (s *Service) ExportHistoryXLSX(ctx context.Context, userID string, from, to *time.Time) ([]byte, error) {
	start := time.Now()
	fromDate, toDate := window(from, to, time.Now().UTC())

	courses, err := s.courses.ListCourseHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	_ = f.DeleteSheet("Sheet1")
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, c := range courses {
		for _, a := range c.Assignments {
			if !inWindow(a.DueDate, fromDate, toDate) {
				continue
			}
			write := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(sheet, cell, v)
			}
			completed := "No"
			if a.Completed {
				completed = "Yes"
			}
			write(1, c.CourseName)
			write(2, a.Name)
			write(3, truncate(a.Description, 140))
			write(4, a.DueDate)
			write(5, a.StartTime)
			write(6, a.EndTime)
			write(7, a.Reminder)
			write(8, a.Color)
			write(9, completed)
			write(10, c.CreatedAt.UTC().Format(time.RFC3339))
			row++
		}
	}

	_ = f.SetColWidth(sheet, "A", "B", 28) // course, assignment
	_ = f.SetColWidth(sheet, "C", "C", 48) // description
	_ = f.SetColWidth(sheet, "D", "F", 12) // date, times
	_ = f.SetColWidth(sheet, "J", "J", 22) // extracted at

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"user_id", userID,
		"courses", len(courses),
		"rows", row-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// window truncates the bounds to dates and closes an open-ended from at today.
func window(from, to *time.Time, now time.Time) (*time.Time, *time.Time) {
	day := func(t time.Time) *time.Time {
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	}
	var fromDate, toDate *time.Time
	if from != nil {
		fromDate = day(*from)
	}
	if to != nil {
		toDate = day(*to)
	}
	if fromDate != nil && toDate == nil {
		toDate = day(now)
	}
	return fromDate, toDate
}

// inWindow keeps unparseable due dates only when no window is set.
func inWindow(due string, from, to *time.Time) bool {
	if from == nil && to == nil {
		return true
	}
	d, err := time.Parse(constants.DateLayout, due)
	if err != nil {
		return false
	}
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && d.After(*to) {
		return false
	}
	return true
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
