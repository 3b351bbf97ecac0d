package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/common"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHistory handles GET /export/history.xlsx?from=YYYY-MM-DD&to=YYYY-MM-DD.
func ExportHistory(exp HistoryExporter, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := dateParam(r, "from")
		if err != nil {
			WriteError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
		to, err := dateParam(r, "to")
		if err != nil {
			WriteError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
		if from != nil && to != nil && to.Before(*from) {
			WriteError(w, http.StatusBadRequest, CodeBadRequest, "to must not be before from")
			return
		}

		data, err := exp.ExportHistoryXLSX(r.Context(), common.UserIDFromContext(r.Context()), from, to)
		if err != nil {
			writeAppError(w, r, logger, "http.export.failed", err)
			return
		}

		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="assignments.xlsx"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func dateParam(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(constants.DateLayout, v)
	if err != nil {
		return nil, fmt.Errorf("%s must be a date in YYYY-MM-DD format", name)
	}
	return &t, nil
}
