package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/core/pipeline"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

type addToCalendarRequest struct {
	Assignments []entity.Assignment `json:"assignments"`
	CourseID    string              `json:"courseId"`
	Timezone    string              `json:"timezone"`
}

type addToCalendarResponse struct {
	Message string            `json:"message"`
	Result  entity.SyncResult `json:"result"`
}

// AddToCalendar handles POST /add-to-calendar. Partial failures still answer
// 200 with the per-item result.
func AddToCalendar(syncer CalendarSyncer, creds CredentialProvider, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addToCalendarRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		sr := pipeline.SyncRequest{
			Assignments: req.Assignments,
			Credential:  creds.ProviderToken(r),
			Timezone:    strings.TrimSpace(req.Timezone),
		}
		if len(sr.Assignments) == 0 && req.CourseID != "" {
			id, err := uuid.Parse(req.CourseID)
			if err != nil {
				WriteError(w, http.StatusBadRequest, CodeBadRequest, "courseId must be a valid UUID")
				return
			}
			sr.CourseID = id
		}

		res, err := syncer.Run(r.Context(), sr)
		if err != nil {
			if errors.Is(err, common.ErrReauthRequired) {
				common.LoggerFromContext(r.Context(), logger).Info("http.calendar.reauth")
				WriteReauth(w, "Calendar access expired, please sign in again")
				return
			}
			writeAppError(w, r, logger, "http.calendar.failed", err)
			return
		}

		WriteJSON(w, http.StatusOK, addToCalendarResponse{Message: res.Summary(), Result: res})
	}
}
