package course

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/core/normalize"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
	"github.com/joseph-ayodele/syllabus-sync/internal/repository"
)

var ErrNothingToUpdate = common.NewAppError("NOTHING_TO_UPDATE", "no fields to update", common.ErrInvalidInput)

// Service handles course history and assignment edits.
type Service struct {
	repo       repository.CourseRepository
	normalizer *normalize.Normalizer
	logger     *slog.Logger
}

// NewService creates a new course service.
func NewService(repo repository.CourseRepository, normalizer *normalize.Normalizer, logger *slog.Logger) *Service {
	if normalizer == nil {
		normalizer = normalize.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, normalizer: normalizer, logger: logger}
}

// History lists the user's extracted courses, most recent first.
func (s *Service) History(ctx context.Context, userID string) ([]*entity.Course, error) {
	validator := common.NewValidator()
	validator.Field("user_id", userID, common.Required)
	if err := common.ValidateAndReturnError(validator); err != nil {
		return nil, err
	}
	return s.repo.ListCourseHistory(ctx, userID)
}

func (s *Service) GetCourse(ctx context.Context, courseID string) (*entity.Course, error) {
	id, err := parseCourseID(courseID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetCourse(ctx, id)
}

// InsertAssignmentRequest represents a manually entered assignment.
type InsertAssignmentRequest struct {
	CourseID   string
	Assignment entity.RawAssignment
}

// InsertAssignment adds a manual assignment to an existing course. Defaults
// are applied as for extracted items, except that a palette color and a zero
// reminder chosen in the form are kept.
func (s *Service) InsertAssignment(ctx context.Context, req InsertAssignmentRequest) (*entity.Assignment, error) {
	validator := common.NewValidator()
	validator.Field("course_id", req.CourseID, common.Required, common.UUID)
	validator.Field("name", req.Assignment.Name, common.Required)
	validator.Field("due_date", req.Assignment.DueDate, common.Required)
	if err := common.ValidateAndReturnError(validator); err != nil {
		return nil, err
	}
	courseID, _ := uuid.Parse(req.CourseID)

	a := s.normalizer.Normalize(req.Assignment, nil)
	if c := strings.TrimSpace(req.Assignment.Color); constants.IsPaletteColor(c) {
		a.Color = c
	}
	if r := req.Assignment.Reminder; r != nil && *r == 0 {
		a.Reminder = 0
	}
	if err := validateAssignment(a); err != nil {
		return nil, err
	}

	saved, err := s.repo.SaveAssignments(ctx, courseID, []entity.Assignment{a})
	if err != nil {
		return nil, common.WrapError(err, "insert assignment")
	}
	s.logger.Info("assignment inserted", "course_id", courseID, "assignment_id", saved[0].ID)
	return &saved[0], nil
}

// UpdateAssignment validates the edited assignment as a whole before writing the patch.
func (s *Service) UpdateAssignment(ctx context.Context, id int64, patch entity.AssignmentPatch) (*entity.Assignment, error) {
	if id <= 0 {
		return nil, common.NewAppError("VALIDATION_FAILED", "assignment id is required", common.ErrValidation)
	}
	patch = trimPatch(patch)
	if patch.Empty() {
		return nil, ErrNothingToUpdate
	}

	current, err := s.repo.GetAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateAssignment(patch.Apply(*current)); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateAssignment(ctx, id, patch)
	if err != nil {
		return nil, common.WrapError(err, "update assignment")
	}
	s.logger.Info("assignment updated", "assignment_id", id)
	return updated, nil
}

func (s *Service) DeleteAssignment(ctx context.Context, courseID string, id int64) (*entity.Assignment, error) {
	cid, err := parseCourseID(courseID)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, common.NewAppError("VALIDATION_FAILED", "assignment id is required", common.ErrValidation)
	}
	deleted, err := s.repo.DeleteAssignment(ctx, cid, id)
	if err != nil {
		return nil, common.WrapError(err, "delete assignment")
	}
	s.logger.Info("assignment deleted", "course_id", cid, "assignment_id", id)
	return deleted, nil
}

// MarkAssignment sets or clears the completion stamp.
func (s *Service) MarkAssignment(ctx context.Context, id int64, completed bool) (*entity.Assignment, error) {
	if id <= 0 {
		return nil, common.NewAppError("VALIDATION_FAILED", "assignment id is required", common.ErrValidation)
	}
	a, err := s.repo.SetCompletion(ctx, id, completed)
	if err != nil {
		return nil, common.WrapError(err, "mark assignment")
	}
	return a, nil
}

func parseCourseID(s string) (uuid.UUID, error) {
	validator := common.NewValidator()
	validator.Field("course_id", s, common.Required, common.UUID)
	if err := common.ValidateAndReturnError(validator); err != nil {
		return uuid.Nil, err
	}
	id, _ := uuid.Parse(s)
	return id, nil
}

func validateAssignment(a entity.Assignment) error {
	validator := common.NewValidator()
	validator.Field("name", a.Name, common.Required, common.MaxLength(200))
	validator.Field("description", a.Description, common.MaxLength(2000))
	validator.Field("due_date", a.DueDate, common.Required, common.Date)
	validator.Field("start_time", a.StartTime, common.ClockTime)
	validator.Field("end_time", a.EndTime, common.ClockTime)
	if common.IsClockTime(a.StartTime) && common.IsClockTime(a.EndTime) {
		validator.Check(a.EndTime >= a.StartTime, "end_time", a.EndTime, "must not be before start_time")
	}
	validator.Field("color", a.Color, common.PaletteColor)
	validator.Field("reminder", a.Reminder, common.NonNegative)
	return common.ValidateAndReturnError(validator)
}

func trimPatch(p entity.AssignmentPatch) entity.AssignmentPatch {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		t := strings.TrimSpace(*s)
		return &t
	}
	p.Name = trim(p.Name)
	p.Description = trim(p.Description)
	p.DueDate = trim(p.DueDate)
	p.StartTime = trim(p.StartTime)
	p.EndTime = trim(p.EndTime)
	p.Color = trim(p.Color)
	return p
}
