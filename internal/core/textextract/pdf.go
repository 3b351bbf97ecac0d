package textextract

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (ExtractionResult, error) {
	text, pages, nativeErr := readPDFText(data)
	if nativeErr == nil && strings.TrimSpace(text) != "" {
		return ExtractionResult{Text: text, Pages: pages, Method: MethodPDFNative}, nil
	}
	if e.cfg.Pdftotext == "" {
		if nativeErr != nil {
			return ExtractionResult{}, nativeErr
		}
		return ExtractionResult{Text: text, Pages: pages, Method: MethodPDFNative}, nil
	}

	var warns []string
	if nativeErr != nil {
		warns = append(warns, "native parse failed: "+nativeErr.Error())
	} else {
		warns = append(warns, "native parse produced no text")
	}
	e.logger.Warn("textextract.pdf.fallback", "reason", warns[0], "binary", e.cfg.Pdftotext)

	out, outPages, err := e.pdftotext(ctx, data)
	if err != nil {
		warns = append(warns, "pdftotext failed: "+err.Error())
		if nativeErr != nil {
			return ExtractionResult{Warnings: warns}, nativeErr
		}
		// Native parse succeeded with no text; report it as empty rather than corrupt.
		return ExtractionResult{Text: text, Pages: pages, Method: MethodPDFNative, Warnings: warns}, nil
	}
	return ExtractionResult{Text: out, Pages: outPages, Method: MethodPDFPdftotext, Warnings: warns}, nil
}

// readPDFText reads text row by row. Row runs on a page are joined by one
// space and pages by a newline.
func readPDFText(data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, pages = "", 0
			err = fmt.Errorf("%w: pdf parser panic: %v", ErrCorruptDocument, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	pages = r.NumPage()
	pageTexts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return "", 0, fmt.Errorf("%w: page %d: %v", ErrCorruptDocument, i, err)
		}
		runs := make([]string, 0, len(rows))
		for _, row := range rows {
			var b strings.Builder
			for _, t := range row.Content {
				b.WriteString(t.S)
			}
			runs = append(runs, b.String())
		}
		pageTexts = append(pageTexts, joinRuns(runs))
	}
	return strings.Join(pageTexts, "\n"), pages, nil
}

// joinRuns percent-decodes each run and joins the non-blank ones with a single space.
func joinRuns(runs []string) string {
	out := make([]string, 0, len(runs))
	for _, s := range runs {
		s = strings.TrimSpace(decodeRun(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, " ")
}

// decodeRun undoes URL encoding in a text run. Runs that are not valid
// percent-encodings (a literal "100%") or that decode to invalid UTF-8
// ("25%AB") are returned unchanged.
func decodeRun(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	if d, err := url.PathUnescape(s); err == nil && utf8.ValidString(d) {
		return d
	}
	return s
}

func (e *Extractor) pdftotext(ctx context.Context, data []byte) (string, int, error) {
	f, err := os.CreateTemp("", "syllabus-*.pdf")
	if err != nil {
		return "", 0, err
	}
	defer func() {
		if err := os.Remove(f.Name()); err != nil {
			e.logger.Warn("textextract.pdf.tempfile_remove_failed", "path", f.Name(), "error", err)
		}
	}()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", 0, err
	}
	if err := f.Close(); err != nil {
		return "", 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	// pdftotext -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, e.logger, "-enc", "UTF-8", "-eol", "unix", f.Name(), "-")
	if err != nil {
		return "", 0, fmt.Errorf("%w: %s", err, truncate(strings.TrimSpace(string(errb)), 512))
	}
	// A form-feed terminates each page.
	text := strings.TrimRight(string(out), "\f\n")
	pages := 1 + strings.Count(text, "\f")
	return strings.ReplaceAll(text, "\f", "\n"), pages, nil
}
