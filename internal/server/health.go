package server

import (
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

// HealthStatus is the body of GET /healthz.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// HealthCheck reports liveness and database reachability.
func HealthCheck(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := HealthStatus{Status: "ok", Database: "ok"}
		code := http.StatusOK
		if db == nil {
			st.Database = "disabled"
		} else if err := db.HealthCheck(r.Context(), healthTimeout); err != nil {
			st.Status, st.Database = "degraded", "unreachable"
			code = http.StatusServiceUnavailable
		}
		WriteJSON(w, code, st)
	}
}
