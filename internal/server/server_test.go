package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/core/pipeline"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
	"github.com/joseph-ayodele/syllabus-sync/internal/services/course"
)

type stubExtractor struct {
	calls int
	got   pipeline.Upload
	out   *pipeline.ExtractionOutcome
	err   error
	panic bool
}

func (s *stubExtractor) Run(_ context.Context, up pipeline.Upload) (*pipeline.ExtractionOutcome, error) {
	s.calls++
	s.got = up
	if s.panic {
		panic("boom")
	}
	return s.out, s.err
}

type stubCourses struct {
	inserted course.InsertAssignmentRequest
	marked   struct {
		id   int64
		done bool
	}
	err error
}

func (s *stubCourses) History(_ context.Context, userID string) ([]*entity.Course, error) {
	return []*entity.Course{{UserID: userID, CourseName: "CS 101"}}, s.err
}

func (s *stubCourses) InsertAssignment(_ context.Context, req course.InsertAssignmentRequest) (*entity.Assignment, error) {
	s.inserted = req
	if s.err != nil {
		return nil, s.err
	}
	return &entity.Assignment{ID: 11, Name: req.Assignment.Name, DueDate: req.Assignment.DueDate}, nil
}

func (s *stubCourses) UpdateAssignment(_ context.Context, id int64, patch entity.AssignmentPatch) (*entity.Assignment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &entity.Assignment{ID: id, Name: *patch.Name}, nil
}

func (s *stubCourses) DeleteAssignment(_ context.Context, _ string, id int64) (*entity.Assignment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &entity.Assignment{ID: id}, nil
}

func (s *stubCourses) MarkAssignment(_ context.Context, id int64, done bool) (*entity.Assignment, error) {
	s.marked.id, s.marked.done = id, done
	if s.err != nil {
		return nil, s.err
	}
	return &entity.Assignment{ID: id, Completed: done}, nil
}

type stubSyncer struct {
	got pipeline.SyncRequest
	res entity.SyncResult
	err error
}

func (s *stubSyncer) Run(_ context.Context, req pipeline.SyncRequest) (entity.SyncResult, error) {
	s.got = req
	return s.res, s.err
}

type stubExporter struct {
	from, to *time.Time
}

func (s *stubExporter) ExportHistoryXLSX(_ context.Context, _ string, from, to *time.Time) ([]byte, error) {
	s.from, s.to = from, to
	return []byte("PK-xlsx"), nil
}

type stubDB struct{ err error }

func (s stubDB) HealthCheck(context.Context, time.Duration) error { return s.err }

type fixture struct {
	ex      *stubExtractor
	courses *stubCourses
	syncer  *stubSyncer
	export  *stubExporter
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ex: &stubExtractor{out: &pipeline.ExtractionOutcome{
			Course: &entity.Course{ID: uuid.New(), CourseName: "CS 101"},
			Pages:  2,
		}},
		courses: &stubCourses{},
		syncer:  &stubSyncer{},
		export:  &stubExporter{},
	}
	f.handler = NewRouter(Deps{
		Extraction:     f.ex,
		Courses:        f.courses,
		Calendar:       f.syncer,
		Export:         f.export,
		DB:             stubDB{},
		MaxUploadBytes: 1 << 20,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f
}

func (f *fixture) do(t *testing.T, req *http.Request, subscribed bool) *httptest.ResponseRecorder {
	t.Helper()
	req.Header.Set(DefaultUserHeader, "user-1")
	req.Header.Set(DefaultSubscriptionHeader, fmt.Sprint(subscribed))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	_, _ = part.Write(data)
	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/extraction/extract-syllabus", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestExtractSyllabus_OK(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, uploadRequest(t, "syllabus.pdf", "application/pdf", []byte("%PDF-1.4")), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody[struct {
		Message string        `json:"message"`
		Data    entity.Course `json:"data"`
	}](t, rec)
	if body.Message != "Syllabus processed successfully" || body.Data.CourseName != "CS 101" {
		t.Fatalf("unexpected body %+v", body)
	}
	if f.ex.got.UserID != "user-1" || f.ex.got.MimeType != "application/pdf" || f.ex.got.Filename != "syllabus.pdf" {
		t.Fatalf("unexpected upload %+v", f.ex.got)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("missing request id header")
	}
}

func TestExtractSyllabus_MimeFromExtension(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, uploadRequest(t, "Syllabus.DOCX", "application/octet-stream", []byte("PK")), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(f.ex.got.MimeType, "wordprocessingml") {
		t.Fatalf("mime = %q", f.ex.got.MimeType)
	}
}

func TestExtractSyllabus_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		mime     string
		data     []byte
		status   int
		code     string
	}{
		{"text file", "notes.txt", "text/plain", []byte("hi"), http.StatusBadRequest, CodeInvalidFileType},
		{"image", "scan.png", "image/png", []byte("png"), http.StatusBadRequest, CodeInvalidFileType},
		{"too large", "big.pdf", "application/pdf", bytes.Repeat([]byte("a"), (1<<20)+4096), http.StatusRequestEntityTooLarge, CodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(t, uploadRequest(t, tt.filename, tt.mime, tt.data), true)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tt.status, rec.Body.String())
			}
			if got := decodeBody[ErrorResponse](t, rec); got.Error != tt.code {
				t.Fatalf("error = %q, want %q", got.Error, tt.code)
			}
			if f.ex.calls != 0 {
				t.Fatalf("extractor called %d times", f.ex.calls)
			}
		})
	}
}

func TestExtractSyllabus_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"empty document", common.NewAppError("EMPTY_DOCUMENT", "no text could be extracted from the document", common.ErrInvalidInput), http.StatusBadRequest, "EMPTY_DOCUMENT"},
		{"contract", common.NewAppError("MALFORMED_OUTPUT", "bad json", common.ErrContract), http.StatusBadGateway, CodeUpstream},
		{"upstream", common.NewAppError("MODEL_UNAVAILABLE", "model down", common.ErrUpstream), http.StatusBadGateway, CodeUpstream},
		{"database", common.NewAppError("DB_ERROR", "insert failed", common.ErrDatabase), http.StatusInternalServerError, "DB_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.ex.err = tt.err
			rec := f.do(t, uploadRequest(t, "s.pdf", "application/pdf", []byte("%PDF")), true)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			got := decodeBody[ErrorResponse](t, rec)
			if got.Error != tt.code {
				t.Fatalf("error = %q, want %q", got.Error, tt.code)
			}
			if tt.status >= 500 && strings.Contains(got.Message, "failed") {
				t.Fatalf("internal detail leaked: %q", got.Message)
			}
		})
	}
}

func TestGate(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/extraction/user-extraction-history", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", rec.Code)
	}

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/extraction/user-extraction-history", nil), false)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unsubscribed status = %d", rec.Code)
	}

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/extraction/user-extraction-history", nil), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("subscribed status = %d", rec.Code)
	}
	body := decodeBody[struct {
		Data []entity.Course `json:"data"`
	}](t, rec)
	if len(body.Data) != 1 || body.Data[0].UserID != "user-1" {
		t.Fatalf("unexpected history %+v", body.Data)
	}
}

func TestHealthz_NoAuth(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	down := NewRouter(Deps{DB: stubDB{err: errors.New("down")}, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded status = %d", rec.Code)
	}
}

func TestAddToCalendar(t *testing.T) {
	f := newFixture(t)
	f.syncer.res = entity.SyncResult{
		Attempted: 2,
		Successes: []entity.SyncSuccess{{AssignmentID: 1, ProviderEventID: "evt-1"}},
		Failures:  []entity.SyncFailure{{AssignmentID: 2, Error: "rejected"}},
	}
	req := jsonRequest(http.MethodPost, "/add-to-calendar",
		`{"assignments":[{"id":1,"name":"A","due_date":"2025-03-15"},{"id":2,"name":"B","due_date":"2025-03-16"}],"timezone":" America/Los_Angeles "}`)
	req.Header.Set(DefaultTokenHeader, "Bearer tok-123")
	rec := f.do(t, req, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody[addToCalendarResponse](t, rec)
	if body.Message != "1 of 2 added" || len(body.Result.Failures) != 1 {
		t.Fatalf("unexpected body %+v", body)
	}
	if f.syncer.got.Credential != "tok-123" || f.syncer.got.Timezone != "America/Los_Angeles" || len(f.syncer.got.Assignments) != 2 {
		t.Fatalf("unexpected sync request %+v", f.syncer.got)
	}
}

func TestAddToCalendar_Reauth(t *testing.T) {
	f := newFixture(t)
	f.syncer.err = fmt.Errorf("sync: %w", common.ErrReauthRequired)
	rec := f.do(t, jsonRequest(http.MethodPost, "/add-to-calendar", `{"assignments":[{"id":1}],"timezone":"UTC"}`), true)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody[ErrorResponse](t, rec)
	if body.Error != CodeReauthRequired || !body.Reauth || body.Redirect != ReauthRedirect {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestAddToCalendar_ByCourse(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	rec := f.do(t, jsonRequest(http.MethodPost, "/add-to-calendar", fmt.Sprintf(`{"courseId":%q,"timezone":"UTC"}`, id)), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if f.syncer.got.CourseID != id {
		t.Fatalf("course id = %v", f.syncer.got.CourseID)
	}

	rec = f.do(t, jsonRequest(http.MethodPost, "/add-to-calendar", `{"courseId":"nope"}`), true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad course id status = %d", rec.Code)
	}
}

func TestAssignmentRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, jsonRequest(http.MethodPost, "/insert-manual-assignment",
		`{"courseId":"c-1","assignment":{"name":"Quiz","due_date":"2025-04-01"}}`), true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("insert status = %d", rec.Code)
	}
	ins := decodeBody[struct {
		Message  string            `json:"message"`
		Inserted entity.Assignment `json:"insertedAssignment"`
	}](t, rec)
	if ins.Message != "Assignment created successfully!" || ins.Inserted.ID != 11 || f.courses.inserted.CourseID != "c-1" {
		t.Fatalf("unexpected insert %+v", ins)
	}

	rec = f.do(t, jsonRequest(http.MethodPut, "/update-assignment", `{"assignmentId":4,"assignment":{"name":"Final"}}`), true)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"Final"`) {
		t.Fatalf("update status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, jsonRequest(http.MethodPut, "/mark-assignment", `{"assignment":{"id":7},"markAssignment":true}`), true)
	if rec.Code != http.StatusOK || f.courses.marked.id != 7 || !f.courses.marked.done {
		t.Fatalf("mark status = %d marked=%+v", rec.Code, f.courses.marked)
	}

	rec = f.do(t, jsonRequest(http.MethodPut, "/mark-assignment", `{"assignmentId":7}`), true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("mark without flag status = %d", rec.Code)
	}

	rec = f.do(t, jsonRequest(http.MethodDelete, "/delete-assignment", `{"assignmentId":5,"courseId":"c-1"}`), true)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Assignment deleted successfully") {
		t.Fatalf("delete status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, jsonRequest(http.MethodPost, "/insert-manual-assignment", `{not json`), true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad body status = %d", rec.Code)
	}
}

func TestAssignmentRoutes_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", common.NewAppError("VALIDATION_FAILED", "name is required", common.ErrValidation), http.StatusBadRequest},
		{"not found", common.NewAppError("ASSIGNMENT_NOT_FOUND", "assignment not found", common.ErrNotFound), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.courses.err = tt.err
			rec := f.do(t, jsonRequest(http.MethodDelete, "/delete-assignment", `{"assignmentId":5,"courseId":"c-1"}`), true)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := decodeBody[ErrorResponse](t, rec); got.Error != common.AppCode(tt.err) {
				t.Fatalf("error = %q", got.Error)
			}
		})
	}
}

func TestExportHistory(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/export/history.xlsx?from=2025-01-01&to=2025-06-30", nil), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Fatalf("content type = %q", ct)
	}
	if f.export.from == nil || f.export.from.Format("2006-01-02") != "2025-01-01" || f.export.to == nil {
		t.Fatalf("window not passed: %v %v", f.export.from, f.export.to)
	}

	for _, q := range []string{"?from=01/02/2025", "?from=2025-06-01&to=2025-01-01"} {
		rec = f.do(t, httptest.NewRequest(http.MethodGet, "/export/history.xlsx"+q, nil), true)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s status = %d", q, rec.Code)
		}
	}
}

func TestRecovery(t *testing.T) {
	f := newFixture(t)
	f.ex.panic = true
	rec := f.do(t, uploadRequest(t, "s.pdf", "application/pdf", []byte("%PDF")), true)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeBody[ErrorResponse](t, rec); got.Error != CodeInternal {
		t.Fatalf("error = %q", got.Error)
	}
}
