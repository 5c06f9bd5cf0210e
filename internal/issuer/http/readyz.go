package http

import (
	"net/http"

	"github.com/tabwave/keygate/internal/issuer/store"
	"github.com/tabwave/keygate/pkg/httpx"
	"github.com/tabwave/keygate/pkg/jwtx"
	"github.com/tabwave/keygate/pkg/licensesdk"
)

// ReadyzHandler is the readiness probe. Not ready until the audit ledger is
// reachable and signing keys are loaded.
func ReadyzHandler(st store.Store, keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		if !keys.IsReady() {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, licensesdk.HealthResponse{Status: status})
	}
}
