package http

import (
	"net/http"
	"time"

	"github.com/tabwave/keygate/pkg/httpx"
	"github.com/tabwave/keygate/pkg/licensesdk"
)

// LivezHandler is the liveness probe. Always 200 while the process runs.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, licensesdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
