package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/syllabus-sync/internal/core/normalize"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

// ParseCourseResponse locates the JSON object in the model's free text,
// sanitizes it, validates it against the course schema and decodes it.
// The returned bytes are the sanitized span (or the raw span when parsing
// fails past the locate step). Raw model text is logged on failure, never returned.
func ParseCourseResponse(text string, logger *slog.Logger) (RawCourse, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}

	span, err := FirstJSONObject(text)
	if err != nil {
		logger.Error("llm.extract.locate_failed", "error", err, "content", truncate(text, 4<<10))
		return RawCourse{}, nil, err
	}
	rawSpan := []byte(span)

	cleaned, _, err := SanitizeCourseJSON(rawSpan, logger)
	if err != nil {
		logger.Error("llm.extract.sanitize_failed", "error", err, "content", truncate(span, 4<<10))
		return RawCourse{}, rawSpan, fmt.Errorf("%w: %v", ErrMalformedModelResponse, err)
	}

	if err := ValidateCourseJSON(cleaned); err != nil {
		logger.Error("llm.extract.schema_validation_failed", "error", err, "content", truncate(span, 4<<10))
		return RawCourse{}, rawSpan, fmt.Errorf("%w: %v", ErrMalformedModelResponse, err)
	}

	var out RawCourse
	if err := json.Unmarshal(cleaned, &out); err != nil {
		logger.Error("llm.extract.unmarshal_failed", "error", err, "content", truncate(span, 4<<10))
		return RawCourse{}, rawSpan, fmt.Errorf("%w: %v", ErrMalformedModelResponse, err)
	}
	if out.Assignments == nil {
		out.Assignments = []entity.RawAssignment{}
	}
	return out, cleaned, nil
}

// BuildCourseData parses the model text and normalizes every assignment.
func BuildCourseData(text string, n *normalize.Normalizer, logger *slog.Logger) (entity.CourseData, []byte, error) {
	raw, rawJSON, err := ParseCourseResponse(text, logger)
	if err != nil {
		return entity.CourseData{}, rawJSON, err
	}
	if n == nil {
		n = normalize.New()
	}
	return entity.CourseData{
		CourseName:  raw.CourseName,
		Assignments: n.NormalizeBatch(raw.Assignments),
	}, rawJSON, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
