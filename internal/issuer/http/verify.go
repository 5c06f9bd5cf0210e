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

// VerifyHandler serves POST /verify, the hot path every licensed client hits
// on startup. Rejections carry a reason but deliberately no detail beyond
// it; a revocation-backend outage is a 503, never a verdict.
type VerifyHandler struct {
	LicenseService *service.LicenseService
	Validate       *validator.Validate
}

func (h *VerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req licensesdk.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, licensesdk.VerifyResponse{
			OK: false, Reason: licensesdk.ReasonInvalidOrExpired,
		})
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, licensesdk.VerifyResponse{
			OK: false, Reason: licensesdk.ReasonInvalidOrExpired,
		})
		return
	}

	res, err := h.LicenseService.Verify(ctx, req.Token, req.HWID)
	if err != nil {
		if errors.Is(err, service.ErrStoreUnavailable) {
			licensesdk.ErrStoreUnavailable.WriteError(w)
			return
		}
		log.Error("verify failed", "err", err)
		licensesdk.ErrInternal.WriteError(w)
		return
	}

	if !res.OK {
		httpx.WriteJSON(w, http.StatusUnauthorized, licensesdk.VerifyResponse{
			OK: false, Reason: res.Reason,
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, licensesdk.VerifyResponse{
		OK:        true,
		Plan:      res.Plan,
		ExpiresAt: res.ExpiresAt.Unix(),
	})
}
