// Package pipeline wires the core stages into the two request-scoped flows:
// document upload to persisted course, and persisted course to calendar.
package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/syllabus-sync/internal/core/llm"
	"github.com/joseph-ayodele/syllabus-sync/internal/core/textextract"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

// TextExtractor is satisfied by *textextract.Extractor.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (textextract.ExtractionResult, error)
}

// CourseSaver persists a freshly extracted course.
type CourseSaver interface {
	SaveCourse(ctx context.Context, userID string, data entity.CourseData) (*entity.Course, error)
}

// Upload is one document submitted for extraction.
type Upload struct {
	UserID   string
	Filename string
	MimeType string
	Data     []byte
}

type ExtractionOutcome struct {
	Course   *entity.Course
	Pages    int
	Method   string
	Warnings []string
	RawJSON  []byte
}

type ExtractionPipeline struct {
	text   TextExtractor
	model  llm.CourseExtractor
	store  CourseSaver
	logger *slog.Logger
}

// NewExtractionPipeline builds the upload flow. store may be nil for callers
// that only want the extracted data.
func NewExtractionPipeline(text TextExtractor, model llm.CourseExtractor, store CourseSaver, logger *slog.Logger) *ExtractionPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionPipeline{text: text, model: model, store: store, logger: logger}
}

// Extract runs text extraction and the model without persisting anything.
func (p *ExtractionPipeline) Extract(ctx context.Context, up Upload) (entity.CourseData, textextract.ExtractionResult, []byte, error) {
	start := time.Now()
	log := p.logger.With("filename", up.Filename, "mime_type", up.MimeType)

	res, err := p.text.Extract(ctx, up.Data, up.MimeType)
	if err != nil {
		log.Error("pipeline.extract.text_failed", "error", err)
		return entity.CourseData{}, res, nil, err
	}
	log.Debug("pipeline.extract.text_ok",
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)

	data, rawJSON, err := p.model.ExtractCourseData(ctx, llm.ExtractRequest{
		Text:         res.Text,
		FilenameHint: filepath.Base(strings.TrimSpace(up.Filename)),
	})
	if err != nil {
		log.Error("pipeline.extract.model_failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return entity.CourseData{}, res, rawJSON, err
	}
	data.SourceType = res.SourceType
	return data, res, rawJSON, nil
}

// Run extracts the upload and saves the course for up.UserID.
func (p *ExtractionPipeline) Run(ctx context.Context, up Upload) (*ExtractionOutcome, error) {
	start := time.Now()
	p.logger.Info("pipeline.extract.start", "user_id", up.UserID, "filename", up.Filename, "bytes", len(up.Data))

	data, res, rawJSON, err := p.Extract(ctx, up)
	if err != nil {
		return nil, err
	}

	out := &ExtractionOutcome{Pages: res.Pages, Method: res.Method, Warnings: res.Warnings, RawJSON: rawJSON}
	if p.store == nil {
		out.Course = &entity.Course{UserID: up.UserID, CourseName: data.CourseName, SourceType: data.SourceType, Assignments: data.Assignments}
		return out, nil
	}

	course, err := p.store.SaveCourse(ctx, up.UserID, data)
	if err != nil {
		p.logger.Error("pipeline.extract.save_failed", "user_id", up.UserID, "error", err)
		return nil, err
	}
	out.Course = course

	p.logger.Info("pipeline.extract.ok",
		"user_id", up.UserID,
		"course_id", course.ID,
		"assignments", len(course.Assignments),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
