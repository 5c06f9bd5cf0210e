package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tabwave/keygate/internal/issuer/domain"
	"github.com/tabwave/keygate/internal/issuer/revocation"
	"github.com/tabwave/keygate/internal/issuer/store"
	"github.com/tabwave/keygate/pkg/cryptox"
	"github.com/tabwave/keygate/pkg/licensesdk"
	"github.com/tabwave/keygate/pkg/slogx"
)

// ErrStoreUnavailable is returned when the revocation backend cannot answer.
// Verification fails closed on it: callers must surface an error, never an
// "ok" or a confident rejection.
var ErrStoreUnavailable = revocation.ErrUnavailable

// ErrPersistence wraps audit ledger write failures so the HTTP layer can
// report them distinctly from signing failures.
var ErrPersistence = errors.New("persistence_failure")

// LicenseService orchestrates token signing, the audit ledger and the
// revocation set. It is the only layer that knows all three.
type LicenseService struct {
	Tokens      *TokenService
	Store       store.Store
	Revocations revocation.Store

	// now is swappable for tests.
	now func() time.Time
}

func NewLicenseService(tokens *TokenService, st store.Store, rev revocation.Store) *LicenseService {
	return &LicenseService{
		Tokens:      tokens,
		Store:       st,
		Revocations: rev,
		now:         time.Now,
	}
}

// IssueParams carries everything needed to mint one license.
type IssueParams struct {
	HWID     string
	TTL      time.Duration
	Plan     string
	Note     string
	IssuerIP string
}

// Issue mints a signed license token and records it in the audit ledger.
// The ledger write is part of the contract: if it fails, no token leaves
// the building.
func (s *LicenseService) Issue(ctx context.Context, p IssueParams) (domain.IssuedLicense, error) {
	l := slogx.FromContext(ctx)

	token, claims, err := s.Tokens.SignLicense(p.HWID, p.Plan, p.TTL)
	if err != nil {
		l.Error("license signing failed", slog.Any("err", err))
		return domain.IssuedLicense{}, err
	}

	lic := domain.License{
		JTI:       claims.JTI(),
		HWID:      p.HWID,
		Plan:      p.Plan,
		Note:      p.Note,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		IssuerIP:  p.IssuerIP,
	}

	if err := s.Store.Licenses().UpsertLicense(ctx, lic); err != nil {
		l.Error("audit ledger write failed, discarding token",
			slog.String("jti", lic.JTI), slog.Any("err", err))
		return domain.IssuedLicense{}, fmt.Errorf("%w: record license: %v", ErrPersistence, err)
	}

	l.Info("license issued",
		slog.String("jti", lic.JTI),
		slog.String("plan", p.Plan),
		slog.Int64("ttl_seconds", int64(p.TTL.Seconds())))

	return domain.IssuedLicense{
		Token:     token,
		JTI:       lic.JTI,
		ExpiresAt: lic.ExpiresAt,
	}, nil
}

// Verify checks a presented token against a hardware identifier and the
// revocation set.
//
// Every token-level failure (bad signature, wrong issuer, expired, missing
// claims) collapses into one generic rejection so the endpoint cannot be
// used as an oracle for WHY a forged token failed. The hardware check runs
// in constant time. A revocation-backend outage is an error, never a "not
// revoked".
func (s *LicenseService) Verify(ctx context.Context, token, hwid string) (domain.VerifyResult, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Tokens.VerifyLicense(token)
	if err != nil {
		if errors.Is(err, ErrVerificationUnavailable) {
			return domain.VerifyResult{}, err
		}
		return domain.VerifyResult{Reason: licensesdk.ReasonInvalidOrExpired}, nil
	}

	if !cryptox.ConstantTimeEquals(claims.HWID, hwid) {
		l.Info("license hwid mismatch", slog.String("jti", claims.JTI()))
		return domain.VerifyResult{Reason: licensesdk.ReasonHWIDMismatch}, nil
	}

	revoked, err := s.Revocations.IsRevoked(ctx, claims.JTI())
	if err != nil {
		l.Error("revocation lookup failed", slog.String("jti", claims.JTI()), slog.Any("err", err))
		return domain.VerifyResult{}, err
	}
	if revoked {
		return domain.VerifyResult{Reason: licensesdk.ReasonRevoked}, nil
	}

	return domain.VerifyResult{
		OK:        true,
		Plan:      claims.Plan,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke adds a JTI to the revocation set and records it in the ledger.
//
// The expiry for the revocation entry comes from the audit record. When the
// JTI is unknown to the ledger the entry is pinned without expiry: better a
// permanent tombstone than a revocation that lapses early.
func (s *LicenseService) Revoke(ctx context.Context, jti, admin string) error {
	l := slogx.FromContext(ctx)

	var expiresAt time.Time
	lic, err := s.Store.Licenses().GetLicense(ctx, jti)
	switch {
	case err == nil:
		expiresAt = lic.ExpiresAt
	case errors.Is(err, store.ErrNotFound):
		l.Warn("revoking jti unknown to the ledger, pinning without expiry",
			slog.String("jti", jti))
	default:
		return fmt.Errorf("look up license: %w", err)
	}

	if err := s.Revocations.Revoke(ctx, jti, expiresAt); err != nil {
		l.Error("revocation store write failed", slog.String("jti", jti), slog.Any("err", err))
		return err
	}

	rev := domain.Revocation{JTI: jti, RevokedAt: s.now(), Admin: admin}
	if err := s.Store.Licenses().UpsertRevocation(ctx, rev); err != nil {
		// The revocation itself took effect; the audit trail did not.
		l.Error("revocation audit write failed", slog.String("jti", jti), slog.Any("err", err))
		return fmt.Errorf("%w: record revocation: %v", ErrPersistence, err)
	}

	l.Info("license revoked", slog.String("jti", jti), slog.String("admin", admin))
	return nil
}

// Status reports whether a JTI is currently revoked. Backend outages fail
// closed as with Verify.
func (s *LicenseService) Status(ctx context.Context, jti string) (bool, error) {
	revoked, err := s.Revocations.IsRevoked(ctx, jti)
	if err != nil {
		slogx.FromContext(ctx).Error("revocation lookup failed",
			slog.String("jti", jti), slog.Any("err", err))
		return false, err
	}
	return revoked, nil
}

// List returns audit records from the ledger, newest first.
func (s *LicenseService) List(ctx context.Context, filter domain.ListFilter) ([]domain.License, error) {
	return s.Store.Licenses().ListLicenses(ctx, filter)
}
