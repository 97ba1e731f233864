package http

import (
	"context"
	"net/http"
	"time"

	"github.com/rollcall-hq/rollcall/internal/auth/revoke"
	"github.com/rollcall-hq/rollcall/internal/auth/store"
	"github.com/rollcall-hq/rollcall/pkg/httpx"
)

type healthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *healthChecks `json:"checks,omitempty"`
}

type healthChecks struct {
	Database   string `json:"database"`
	Revocation string `json:"revocation,omitempty"`
}

// LivezHandler is the liveness probe. Always 200 while the process runs.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler is the readiness probe. Reports 503 while the database or
// the revocation backend is unreachable. The in-memory revocation store has
// no connection to check and is skipped.
func ReadyzHandler(startTime time.Time, version string, st store.Store, revoked revoke.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &healthChecks{Database: "ok"}
		status := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if pinger, ok := revoked.(interface{ Ping(context.Context) error }); ok {
			checks.Revocation = "ok"
			if err := pinger.Ping(r.Context()); err != nil {
				checks.Revocation = "error: " + err.Error()
				status = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}

		httpx.WriteJSON(w, statusCode, healthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
