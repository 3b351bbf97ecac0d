package llm

import (
	"context"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

// Extraction client failures. All are terminal for the current upload.
var (
	ErrModelUnavailable        = common.NewAppError("MODEL_UNAVAILABLE", "model endpoint unavailable", common.ErrUpstream)
	ErrNoJSONFound             = common.NewAppError("NO_JSON_FOUND", "no JSON object in model response", common.ErrContract)
	ErrMalformedModelResponse  = common.NewAppError("MALFORMED_MODEL_RESPONSE", "model response does not match the course shape", common.ErrContract)
	ErrUnexpectedResponseShape = common.NewAppError("UNEXPECTED_RESPONSE_SHAPE", "model returned a non-text content block", common.ErrContract)
)

type ExtractRequest struct {
	Text         string
	FilenameHint string
}

// RawCourse is the model's course payload before normalization.
type RawCourse struct {
	CourseName  string                 `json:"course_name"`
	Assignments []entity.RawAssignment `json:"assignments"`
}

// CourseExtractor is the interface our pipeline depends on.
type CourseExtractor interface {
	ExtractCourseData(ctx context.Context, req ExtractRequest) (entity.CourseData, []byte /*rawJSON*/, error)
}
