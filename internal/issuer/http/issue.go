package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tabwave/keygate/internal/issuer/service"
	"github.com/tabwave/keygate/pkg/httpx"
	"github.com/tabwave/keygate/pkg/licensesdk"
	"github.com/tabwave/keygate/pkg/slogx"
)

// IssueHandler serves POST /issue. Admin-only: mints a signed license token
// bound to a hardware identifier and records it in the audit ledger.
type IssueHandler struct {
	LicenseService *service.LicenseService
	Validate       *validator.Validate
}

func (h *IssueHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req licensesdk.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		licensesdk.ErrInvalidPayload.WriteError(w)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		licensesdk.ErrInvalidPayload.WriteError(w)
		return
	}

	issued, err := h.LicenseService.Issue(ctx, service.IssueParams{
		HWID:     req.HWID,
		TTL:      time.Duration(req.TTLSeconds) * time.Second,
		Plan:     req.Plan,
		Note:     req.Note,
		IssuerIP: httpx.IPKeyExtractor(r),
	})
	if err != nil {
		if errors.Is(err, service.ErrTTLOutOfRange) {
			licensesdk.ErrInvalidPayload.WriteError(w)
			return
		}
		log.Error("issue failed", "err", err)
		if errors.Is(err, service.ErrPersistence) {
			licensesdk.ErrPersistenceFailure.WriteError(w)
			return
		}
		licensesdk.ErrSigningFailed.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, licensesdk.IssueResponse{
		Token:     issued.Token,
		JTI:       issued.JTI,
		ExpiresAt: issued.ExpiresAt.Unix(),
	})
}
