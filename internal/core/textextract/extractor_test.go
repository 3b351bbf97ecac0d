package textextract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/common"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func buildDOCX(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:rPr><w:b/></w:rPr><w:t>Course: CS 101</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Midterm Exam</w:t></w:r><w:r><w:tab/><w:t>2025-03-15</w:t></w:r></w:p>
    <w:p><w:r><w:t>Line one</w:t><w:br/><w:t>Line two</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestExtract_DOCX(t *testing.T) {
	data := buildDOCX(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   documentXML,
	})
	e := NewExtractor(Config{}, quietLogger())

	res, err := e.Extract(context.Background(), data, constants.MimeDOCX)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "Course: CS 101\nMidterm Exam 2025-03-15\nLine one\nLine two"
	if res.Text != want {
		t.Fatalf("text = %q, want %q", res.Text, want)
	}
	if res.SourceType != constants.DOCX || res.Method != MethodDOCX {
		t.Fatalf("source/method = %s/%s", res.SourceType, res.Method)
	}
}

func TestExtract_Failures(t *testing.T) {
	emptyDocx := buildDOCX(t, map[string]string{
		"word/document.xml": `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p/><w:p><w:r><w:t>   </w:t></w:r></w:p></w:body></w:document>`,
	})
	noBody := buildDOCX(t, map[string]string{"word/styles.xml": `<w:styles/>`})

	tests := []struct {
		name string
		data []byte
		mime string
		want error
	}{
		{"unsupported type", []byte("hello"), "text/plain", ErrUnsupportedFileType},
		{"image rejected", []byte{0x89, 'P', 'N', 'G'}, "image/png", ErrUnsupportedFileType},
		{"corrupt pdf", []byte("definitely not a pdf"), constants.MimePDF, ErrCorruptDocument},
		{"pdf mime with params", []byte("garbage"), "Application/PDF; charset=binary", ErrCorruptDocument},
		{"corrupt docx", []byte("PK not really"), constants.MimeDOCX, ErrCorruptDocument},
		{"docx without body", noBody, constants.MimeDOCX, ErrCorruptDocument},
		{"empty docx", emptyDocx, constants.MimeDOCX, ErrEmptyDocument},
		{"corrupt doc", []byte("not an ole file"), constants.MimeDOC, ErrCorruptDocument},
	}
	e := NewExtractor(Config{}, quietLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Extract(context.Background(), tt.data, tt.mime)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, common.ErrInvalidInput) {
				t.Fatalf("expected input error class, got %v", err)
			}
			if res.Text != "" {
				t.Fatalf("failure returned text %q", res.Text)
			}
		})
	}
}

type stubRunner struct {
	stdout []byte
	err    error
	name   string
	args   []string
	sawPDF bool
}

func (s *stubRunner) Run(_ context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	s.name = name
	s.args = args
	// the document is written to a temp file that must exist while the command runs
	for _, a := range args {
		if strings.HasSuffix(a, ".pdf") {
			if b, err := os.ReadFile(a); err == nil && len(b) > 0 {
				s.sawPDF = true
			}
		}
	}
	return s.stdout, nil, s.err
}

func TestExtract_PDFFallback(t *testing.T) {
	stub := &stubRunner{stdout: []byte("Syllabus page one\fMidterm Exam   due 2025-03-15\f")}
	e := NewExtractor(Config{Pdftotext: "pdftotext"}, quietLogger(), WithRunner(stub))

	res, err := e.Extract(context.Background(), []byte("%PDF-broken"), constants.MimePDF)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Method != MethodPDFPdftotext {
		t.Fatalf("method = %s", res.Method)
	}
	if res.Pages != 2 {
		t.Fatalf("pages = %d, want 2", res.Pages)
	}
	if res.Text != "Syllabus page one\nMidterm Exam due 2025-03-15" {
		t.Fatalf("text = %q", res.Text)
	}
	if stub.name != "pdftotext" || !stub.sawPDF {
		t.Fatalf("runner not invoked with the document: name=%q args=%v", stub.name, stub.args)
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("expected a fallback warning")
	}
}

func TestExtract_PDFFallbackFails(t *testing.T) {
	stub := &stubRunner{err: errors.New("exit status 1")}
	e := NewExtractor(Config{Pdftotext: "pdftotext"}, quietLogger(), WithRunner(stub))

	_, err := e.Extract(context.Background(), []byte("garbage"), constants.MimePDF)
	if !errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("err = %v, want corrupt document", err)
	}
}

func TestJoinRuns(t *testing.T) {
	tests := []struct {
		name string
		runs []string
		want string
	}{
		{"plain", []string{"Intro to", "Databases"}, "Intro to Databases"},
		{"percent encoded", []string{"Midterm%20Exam", "due%3A%202025-03-15"}, "Midterm Exam due: 2025-03-15"},
		{"literal percent kept", []string{"Grade: 100%", "of total"}, "Grade: 100% of total"},
		{"non utf-8 escape kept", []string{"Labs 25%AB"}, "Labs 25%AB"},
		{"multibyte escape decoded", []string{"Room%20%E2%80%93%204"}, "Room – 4"},
		{"blank runs skipped", []string{" ", "HW1", ""}, "HW1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinRuns(tt.runs); got != tt.want {
				t.Fatalf("joinRuns = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	in := "Week 1\r\n\tIntro   to Go  \r\n\n\n\n\nWeek 2 \n"
	want := "Week 1\n Intro to Go\n\nWeek 2"
	if got := Normalize(in); got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}
