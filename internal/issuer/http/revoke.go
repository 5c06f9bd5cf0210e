package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/tabwave/keygate/internal/issuer/service"
	"github.com/tabwave/keygate/pkg/httpx"
	"github.com/tabwave/keygate/pkg/licensesdk"
	"github.com/tabwave/keygate/pkg/slogx"
)

// RevokeHandler serves POST /revoke. Admin-only and idempotent: revoking an
// already-revoked or unknown JTI still succeeds, so retries are safe.
type RevokeHandler struct {
	LicenseService *service.LicenseService
	Validate       *validator.Validate
}

func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req licensesdk.RevokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		licensesdk.ErrInvalidPayload.WriteError(w)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		licensesdk.ErrInvalidPayload.WriteError(w)
		return
	}

	admin := httpx.AdminFromCtx(ctx)
	if err := h.LicenseService.Revoke(ctx, req.JTI, admin); err != nil {
		if errors.Is(err, service.ErrStoreUnavailable) {
			licensesdk.ErrStoreUnavailable.WriteError(w)
			return
		}
		log.Error("revoke failed", "jti", req.JTI, "err", err)
		if errors.Is(err, service.ErrPersistence) {
			licensesdk.ErrPersistenceFailure.WriteError(w)
			return
		}
		licensesdk.ErrRevocationFailed.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, licensesdk.RevokeResponse{OK: true})
}
