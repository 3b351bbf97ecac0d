package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/joseph-ayodele/syllabus-sync/internal/core/pipeline"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
	"github.com/joseph-ayodele/syllabus-sync/internal/services/course"
)

// Extractor turns an uploaded document into a saved course.
type Extractor interface {
	Run(ctx context.Context, up pipeline.Upload) (*pipeline.ExtractionOutcome, error)
}

// CourseService covers history and assignment edits.
type CourseService interface {
	History(ctx context.Context, userID string) ([]*entity.Course, error)
	InsertAssignment(ctx context.Context, req course.InsertAssignmentRequest) (*entity.Assignment, error)
	UpdateAssignment(ctx context.Context, id int64, patch entity.AssignmentPatch) (*entity.Assignment, error)
	DeleteAssignment(ctx context.Context, courseID string, id int64) (*entity.Assignment, error)
	MarkAssignment(ctx context.Context, id int64, completed bool) (*entity.Assignment, error)
}

// CalendarSyncer pushes assignments to the user's calendar.
type CalendarSyncer interface {
	Run(ctx context.Context, req pipeline.SyncRequest) (entity.SyncResult, error)
}

// HistoryExporter renders a user's assignments as a workbook.
type HistoryExporter interface {
	ExportHistoryXLSX(ctx context.Context, userID string, from, to *time.Time) ([]byte, error)
}

// HealthChecker reports whether storage is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

// Deps wires handlers to their services.
type Deps struct {
	Extraction     Extractor
	Courses        CourseService
	Calendar       CalendarSyncer
	Export         HistoryExporter
	DB             HealthChecker
	Auth           Authenticator
	Credentials    CredentialProvider
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(d Deps) *mux.Router {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Auth == nil {
		d.Auth = NewHeaderAuthenticator()
	}
	if d.Credentials == nil {
		d.Credentials = HeaderCredentials{}
	}

	r := mux.NewRouter()
	r.Use(RequestID(d.Logger))
	r.Use(Logging(d.Logger))
	r.Use(Recovery(d.Logger))

	r.HandleFunc("/healthz", HealthCheck(d.DB)).Methods(http.MethodGet)

	api := r.PathPrefix("/").Subrouter()
	api.Use(RequireSubscriber(d.Auth, d.Logger))

	api.HandleFunc("/extraction/extract-syllabus", ExtractSyllabus(d.Extraction, d.MaxUploadBytes, d.Logger)).Methods(http.MethodPost)
	api.HandleFunc("/extraction/user-extraction-history", ExtractionHistory(d.Courses, d.Logger)).Methods(http.MethodGet)

	api.HandleFunc("/insert-manual-assignment", InsertAssignment(d.Courses, d.Logger)).Methods(http.MethodPost)
	api.HandleFunc("/update-assignment", UpdateAssignment(d.Courses, d.Logger)).Methods(http.MethodPut)
	api.HandleFunc("/delete-assignment", DeleteAssignment(d.Courses, d.Logger)).Methods(http.MethodDelete)
	api.HandleFunc("/mark-assignment", MarkAssignment(d.Courses, d.Logger)).Methods(http.MethodPut)

	api.HandleFunc("/add-to-calendar", AddToCalendar(d.Calendar, d.Credentials, d.Logger)).Methods(http.MethodPost)
	api.HandleFunc("/export/history.xlsx", ExportHistory(d.Export, d.Logger)).Methods(http.MethodGet)

	return r
}
