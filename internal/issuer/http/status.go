package http

import (
	"errors"
	"net/http"

	"github.com/tabwave/keygate/internal/issuer/service"
	"github.com/tabwave/keygate/pkg/httpx"
	"github.com/tabwave/keygate/pkg/licensesdk"
	"github.com/tabwave/keygate/pkg/slogx"
)

// maxJTILen bounds the path identifier. Minted JTIs are UUIDs, so anything
// longer is garbage and must not reach the revocation store as a lookup key.
const maxJTILen = 256

// StatusHandler serves GET /status/{jti}: a public lookup of whether a token
// identifier is currently revoked. It reveals nothing about whether the JTI
// was ever issued.
type StatusHandler struct {
	LicenseService *service.LicenseService
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	jti := r.PathValue("jti")
	if jti == "" || len(jti) > maxJTILen {
		licensesdk.ErrInvalidPayload.WriteError(w)
		return
	}

	revoked, err := h.LicenseService.Status(ctx, jti)
	if err != nil {
		if errors.Is(err, service.ErrStoreUnavailable) {
			licensesdk.ErrStoreUnavailable.WriteError(w)
			return
		}
		log.Error("status lookup failed", "jti", jti, "err", err)
		licensesdk.ErrInternal.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, licensesdk.StatusResponse{Revoked: revoked})
}
