package http

import (
	"net/http"
	"strconv"

	"github.com/tabwave/keygate/internal/issuer/domain"
	"github.com/tabwave/keygate/internal/issuer/service"
	"github.com/tabwave/keygate/pkg/httpx"
	"github.com/tabwave/keygate/pkg/licensesdk"
	"github.com/tabwave/keygate/pkg/slogx"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// ListHandler serves GET /licenses. Admin-only audit listing, newest first.
//
// Query parameters:
//
//	limit   - max records to return (default 10, cap 100)
//	revoked - "true", "false" or "all" (default "all")
type ListHandler struct {
	LicenseService *service.LicenseService
}

func (h *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	filter, ok := parseListFilter(r)
	if !ok {
		licensesdk.ErrInvalidQuery.WriteError(w)
		return
	}

	licenses, err := h.LicenseService.List(ctx, filter)
	if err != nil {
		log.Error("license listing failed", "err", err)
		licensesdk.ErrInternal.WriteError(w)
		return
	}

	items := make([]licensesdk.LicenseRecord, 0, len(licenses))
	for _, l := range licenses {
		items = append(items, toRecord(l))
	}

	httpx.WriteJSON(w, http.StatusOK, licensesdk.ListResponse{Items: items})
}

func parseListFilter(r *http.Request) (domain.ListFilter, bool) {
	filter := domain.ListFilter{Limit: defaultListLimit}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			return domain.ListFilter{}, false
		}
		filter.Limit = n
	}

	switch r.URL.Query().Get("revoked") {
	case "", "all":
		// no narrowing
	case "true":
		v := true
		filter.Revoked = &v
	case "false":
		v := false
		filter.Revoked = &v
	default:
		return domain.ListFilter{}, false
	}

	return filter, true
}

func toRecord(l domain.License) licensesdk.LicenseRecord {
	rec := licensesdk.LicenseRecord{
		JTI:       l.JTI,
		HWID:      l.HWID,
		Plan:      l.Plan,
		Note:      l.Note,
		IssuedAt:  l.IssuedAt.Unix(),
		ExpiresAt: l.ExpiresAt.Unix(),
		IssuerIP:  l.IssuerIP,
		Revoked:   l.Revoked(),
	}
	if l.Revocation != nil {
		rec.RevokedAt = l.Revocation.RevokedAt.Unix()
		rec.RevokedBy = l.Revocation.Admin
	}
	return rec
}
