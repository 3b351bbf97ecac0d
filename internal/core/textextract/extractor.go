// Package textextract turns uploaded syllabus documents (PDF, legacy Word and
// Word-XML) into plain text.
package textextract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/common"
)

// Extraction failures. All are terminal for the current document.
var (
	ErrUnsupportedFileType = common.NewAppError("UNSUPPORTED_FILE_TYPE", "only PDF and Word documents are allowed", common.ErrInvalidInput)
	ErrCorruptDocument     = common.NewAppError("CORRUPT_DOCUMENT", "document structure cannot be parsed", common.ErrInvalidInput)
	ErrEmptyDocument       = common.NewAppError("EMPTY_DOCUMENT", "no text could be extracted from the document", common.ErrInvalidInput)
)

const (
	MethodPDFNative    = "pdf-native"
	MethodPDFPdftotext = "pdf-pdftotext"
	MethodDOCX         = "docx-xml"
	MethodDOC          = "doc-piece-table"
)

type Config struct {
	Pdftotext string        // fallback binary for PDFs the native parser cannot read; empty disables it
	Timeout   time.Duration // cap on the fallback command
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.DOC | constants.DOCX
	Method     string
	Duration   time.Duration
	Warnings   []string
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

type Option func(*Extractor)

// WithRunner replaces the command runner used for the pdftotext fallback.
func WithRunner(r Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	e := &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract picks a strategy based on the declared MIME type.
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string) (ExtractionResult, error) {
	start := time.Now()
	format := constants.MapMimeToFormat(mimeType)
	if format == "" {
		e.logger.Warn("textextract.unsupported_type", "mime_type", mimeType)
		return ExtractionResult{}, fmt.Errorf("%w: %q", ErrUnsupportedFileType, mimeType)
	}
	if err := ctx.Err(); err != nil {
		return ExtractionResult{SourceType: format}, err
	}

	e.logger.Debug("textextract.start", "format", format, "bytes", len(data))

	var (
		res ExtractionResult
		err error
	)
	switch format {
	case constants.PDF:
		res, err = e.extractPDF(ctx, data)
	case constants.DOCX:
		res, err = extractDOCX(data)
	case constants.DOC:
		res, err = extractDOC(data)
	}
	res.SourceType = format
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("textextract.failed",
			"format", format, "error", err,
			"elapsed_ms", res.Duration.Milliseconds(),
		)
		return res, err
	}

	res.Text = Normalize(res.Text)
	if res.Text == "" {
		e.logger.Warn("textextract.empty", "format", format, "pages", res.Pages)
		return res, ErrEmptyDocument
	}

	e.logger.Info("textextract.ok",
		"format", format,
		"method", res.Method,
		"pages", res.Pages,
		"text_len", len(res.Text),
		"warnings", len(res.Warnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
