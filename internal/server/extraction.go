package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/core/pipeline"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

const (
	multipartMemory  = 8 << 20
	multipartSlack   = 1 << 20
	uploadFormField  = "file"
	invalidFileTypes = "Invalid file type. Only PDF and Word documents are allowed."
)

type extractResponse struct {
	Message  string         `json:"message"`
	Data     *entity.Course `json:"data"`
	Pages    int            `json:"pages,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
}

// ExtractSyllabus handles POST /extraction/extract-syllabus.
func ExtractSyllabus(ex Extractor, maxBytes int64, logger *slog.Logger) http.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = common.DefaultConfig().Server.MaxUploadBytes
	}
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartSlack)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				WriteError(w, http.StatusRequestEntityTooLarge, CodeBadRequest, "File is too large")
				return
			}
			WriteError(w, http.StatusBadRequest, CodeBadRequest, "Expected a multipart upload")
			return
		}
		if r.MultipartForm != nil {
			defer r.MultipartForm.RemoveAll()
		}

		file, header, err := r.FormFile(uploadFormField)
		if err != nil {
			WriteError(w, http.StatusBadRequest, CodeBadRequest, "No file uploaded")
			return
		}
		defer file.Close()

		if header.Size > maxBytes {
			WriteError(w, http.StatusRequestEntityTooLarge, CodeBadRequest, "File is too large")
			return
		}

		mimeType := uploadMime(header.Header.Get("Content-Type"), header.Filename)
		if constants.MapMimeToFormat(mimeType) == "" {
			WriteError(w, http.StatusBadRequest, CodeInvalidFileType, invalidFileTypes)
			return
		}

		data, err := io.ReadAll(file)
		if err != nil {
			writeAppError(w, r, logger, "http.extract.read_failed",
				common.NewAppError("UPLOAD_READ_FAILED", "could not read upload", err))
			return
		}

		out, err := ex.Run(r.Context(), pipeline.Upload{
			UserID:   common.UserIDFromContext(r.Context()),
			Filename: header.Filename,
			MimeType: mimeType,
			Data:     data,
		})
		if err != nil {
			writeAppError(w, r, logger, "http.extract.failed", err)
			return
		}

		WriteJSON(w, http.StatusOK, extractResponse{
			Message:  "Syllabus processed successfully",
			Data:     out.Course,
			Pages:    out.Pages,
			Warnings: out.Warnings,
		})
	}
}

// uploadMime trusts a declared document type and falls back to the filename
// extension when the client sent nothing useful.
func uploadMime(declared, filename string) string {
	mt := constants.NormalizeMime(declared)
	if mt == "" || mt == "application/octet-stream" {
		return constants.MapExtToMime(filepath.Ext(filename))
	}
	return mt
}

// ExtractionHistory handles GET /extraction/user-extraction-history.
func ExtractionHistory(svc CourseService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courses, err := svc.History(r.Context(), common.UserIDFromContext(r.Context()))
		if err != nil {
			writeAppError(w, r, logger, "http.history.failed", err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"data": courses})
	}
}
