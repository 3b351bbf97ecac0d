package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
	"github.com/joseph-ayodele/syllabus-sync/internal/services/course"
)

const maxJSONBody = 1 << 20

type insertAssignmentRequest struct {
	Assignment entity.RawAssignment `json:"assignment"`
	CourseID   string               `json:"courseId"`
}

type updateAssignmentRequest struct {
	AssignmentID int64                  `json:"assignmentId"`
	Assignment   entity.AssignmentPatch `json:"assignment"`
}

type deleteAssignmentRequest struct {
	AssignmentID int64  `json:"assignmentId"`
	CourseID     string `json:"courseId"`
}

type markAssignmentRequest struct {
	AssignmentID int64 `json:"assignmentId"`
	Assignment   *struct {
		ID int64 `json:"id"`
	} `json:"assignment"`
	MarkAssignment *bool `json:"markAssignment"`
}

// decodeJSON reads a bounded JSON body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body")
		return false
	}
	return true
}

// InsertAssignment handles POST /insert-manual-assignment.
func InsertAssignment(svc CourseService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req insertAssignmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		a, err := svc.InsertAssignment(r.Context(), course.InsertAssignmentRequest{
			CourseID:   req.CourseID,
			Assignment: req.Assignment,
		})
		if err != nil {
			writeAppError(w, r, logger, "http.assignment.insert_failed", err)
			return
		}
		WriteJSON(w, http.StatusCreated, map[string]any{
			"message":            "Assignment created successfully!",
			"insertedAssignment": a,
		})
	}
}

// UpdateAssignment handles PUT /update-assignment.
func UpdateAssignment(svc CourseService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateAssignmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		a, err := svc.UpdateAssignment(r.Context(), req.AssignmentID, req.Assignment)
		if err != nil {
			writeAppError(w, r, logger, "http.assignment.update_failed", err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"message":    "Assignment updated successfully",
			"assignment": a,
		})
	}
}

// DeleteAssignment handles DELETE /delete-assignment.
func DeleteAssignment(svc CourseService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deleteAssignmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		a, err := svc.DeleteAssignment(r.Context(), req.CourseID, req.AssignmentID)
		if err != nil {
			writeAppError(w, r, logger, "http.assignment.delete_failed", err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"message":    "Assignment deleted successfully",
			"assignment": a,
		})
	}
}

// MarkAssignment handles PUT /mark-assignment.
func MarkAssignment(svc CourseService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req markAssignmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		id := req.AssignmentID
		if id == 0 && req.Assignment != nil {
			id = req.Assignment.ID
		}
		if req.MarkAssignment == nil {
			WriteError(w, http.StatusBadRequest, CodeBadRequest, "markAssignment is required")
			return
		}
		a, err := svc.MarkAssignment(r.Context(), id, *req.MarkAssignment)
		if err != nil {
			writeAppError(w, r, logger, "http.assignment.mark_failed", err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"message":    "Assignment updated successfully",
			"assignment": a,
		})
	}
}
