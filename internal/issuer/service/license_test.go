package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabwave/keygate/internal/issuer/domain"
	"github.com/tabwave/keygate/internal/issuer/revocation"
	"github.com/tabwave/keygate/internal/issuer/store"
	"github.com/tabwave/keygate/internal/issuer/store/drivers/sqlite"
	"github.com/tabwave/keygate/pkg/cryptox"
	"github.com/tabwave/keygate/pkg/jwtx"
	"github.com/tabwave/keygate/pkg/licensesdk"
)

const (
	testIssuer   = "keygate-issuer"
	testAudience = "keygate-clients"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()

	pemKey, err := cryptox.GenerateRSAKey(2048)
	require.NoError(t, err)

	signer, err := jwtx.NewSignerRS256("test-key", pemKey)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	verifier := jwtx.NewCommonRS256(keys, testIssuer, []string{testAudience})

	return NewTokenService(signer, verifier, keys, testIssuer, []string{testAudience})
}

func newTestLicenseService(t *testing.T) (*LicenseService, *revocation.MemoryStore) {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	rev := revocation.NewMemoryStore()
	return NewLicenseService(newTestTokenService(t), st, rev), rev
}

func TestIssueVerifyRevokeLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestLicenseService(t)

	issued, err := svc.Issue(ctx, IssueParams{
		HWID:     "HWID-1",
		TTL:      time.Hour,
		Plan:     "pro",
		Note:     "lifecycle test",
		IssuerIP: "192.0.2.10",
	})
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	require.NotEmpty(t, issued.JTI)

	// The right hardware sees a valid license.
	res, err := svc.Verify(ctx, issued.Token, "HWID-1")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "pro", res.Plan)
	assert.WithinDuration(t, time.Now().Add(time.Hour), res.ExpiresAt, 5*time.Second)

	// A different machine is told about the binding, nothing else.
	res, err = svc.Verify(ctx, issued.Token, "OTHER")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, licensesdk.ReasonHWIDMismatch, res.Reason)

	// After revocation the original machine is rejected too.
	require.NoError(t, svc.Revoke(ctx, issued.JTI, "alice"))

	res, err = svc.Verify(ctx, issued.Token, "HWID-1")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, licensesdk.ReasonRevoked, res.Reason)

	revoked, err := svc.Status(ctx, issued.JTI)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestIssueWritesAuditRecord(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestLicenseService(t)

	issued, err := svc.Issue(ctx, IssueParams{
		HWID:     "HWID-1",
		TTL:      time.Hour,
		Plan:     "pro",
		Note:     "customer #42",
		IssuerIP: "192.0.2.10",
	})
	require.NoError(t, err)

	lic, err := svc.Store.Licenses().GetLicense(ctx, issued.JTI)
	require.NoError(t, err)
	assert.Equal(t, "HWID-1", lic.HWID)
	assert.Equal(t, "customer #42", lic.Note)
	assert.Equal(t, "192.0.2.10", lic.IssuerIP)

	// The note is for the ledger only, never for the token.
	assert.NotContains(t, issued.Token, "customer")
}

func TestVerifyRejectsGarbageAndForeignTokens(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestLicenseService(t)

	// Garbage input.
	res, err := svc.Verify(ctx, "not.a.token", "HWID-1")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, licensesdk.ReasonInvalidOrExpired, res.Reason)

	// A structurally valid token signed by someone else entirely. The
	// reason must be indistinguishable from garbage.
	other := newTestTokenService(t)
	foreign, _, err := other.SignLicense("HWID-1", "pro", time.Hour)
	require.NoError(t, err)

	res, err = svc.Verify(ctx, foreign, "HWID-1")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, licensesdk.ReasonInvalidOrExpired, res.Reason)
}

func TestVerifyExpiredToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestLicenseService(t)

	// Backdate issuance so the token is already expired.
	svc.Tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	issued, err := svc.Issue(ctx, IssueParams{HWID: "HWID-1", TTL: time.Hour})
	require.NoError(t, err)
	svc.Tokens.now = time.Now

	res, err := svc.Verify(ctx, issued.Token, "HWID-1")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, licensesdk.ReasonInvalidOrExpired, res.Reason)
}

// failingRevocations simulates an unreachable Redis backend.
type failingRevocations struct{}

func (failingRevocations) Revoke(context.Context, string, time.Time) error {
	return revocation.ErrUnavailable
}
func (failingRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, revocation.ErrUnavailable
}
func (failingRevocations) Close() error { return nil }

func TestVerifyFailsClosedOnRevocationOutage(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestLicenseService(t)

	issued, err := svc.Issue(ctx, IssueParams{HWID: "HWID-1", TTL: time.Hour})
	require.NoError(t, err)

	svc.Revocations = failingRevocations{}

	// A valid token plus an unreachable revocation set is an error, not an
	// "ok" and not an "invalid_or_expired".
	res, err := svc.Verify(ctx, issued.Token, "HWID-1")
	require.ErrorIs(t, err, revocation.ErrUnavailable)
	assert.False(t, res.OK)
	assert.Empty(t, res.Reason)

	_, err = svc.Status(ctx, issued.JTI)
	require.ErrorIs(t, err, revocation.ErrUnavailable)

	err = svc.Revoke(ctx, issued.JTI, "alice")
	require.ErrorIs(t, err, revocation.ErrUnavailable)
}

func TestRevokeUnknownJTIPinsEntry(t *testing.T) {
	ctx := context.Background()
	svc, rev := newTestLicenseService(t)

	require.NoError(t, svc.Revoke(ctx, "never-issued", "alice"))

	revoked, err := rev.IsRevoked(ctx, "never-issued")
	require.NoError(t, err)
	assert.True(t, revoked)

	// The ledger records the revocation even without a matching license.
	licenses, err := svc.List(ctx, domain.ListFilter{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, licenses)
}

func TestRevokeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestLicenseService(t)

	issued, err := svc.Issue(ctx, IssueParams{HWID: "HWID-1", TTL: time.Hour})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, issued.JTI, "alice"))
	require.NoError(t, svc.Revoke(ctx, issued.JTI, "bob"))

	lic, err := svc.Store.Licenses().GetLicense(ctx, issued.JTI)
	require.NoError(t, err)
	require.True(t, lic.Revoked())
	assert.Equal(t, "bob", lic.Revocation.Admin, "latest revocation wins")
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestLicenseService(t)

	a, err := svc.Issue(ctx, IssueParams{HWID: "HWID-1", TTL: time.Hour, Plan: "pro"})
	require.NoError(t, err)
	_, err = svc.Issue(ctx, IssueParams{HWID: "HWID-2", TTL: time.Hour, Plan: "team"})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, a.JTI, "alice"))

	all, err := svc.List(ctx, domain.ListFilter{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	revoked := true
	got, err := svc.List(ctx, domain.ListFilter{Limit: 10, Revoked: &revoked})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.JTI, got[0].JTI)

	active := false
	got, err = svc.List(ctx, domain.ListFilter{Limit: 10, Revoked: &active})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "team", got[0].Plan)
}

// brokenLedger fails every write so issuance cannot be recorded.
type brokenLedger struct {
	store.Store
}

type brokenLicenses struct {
	store.Licenses
}

func (brokenLedger) Licenses() store.Licenses { return brokenLicenses{} }

func (brokenLicenses) UpsertLicense(context.Context, domain.License) error {
	return assert.AnError
}

func TestIssueFailsWhenLedgerUnavailable(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestLicenseService(t)
	svc.Store = brokenLedger{}

	_, err := svc.Issue(ctx, IssueParams{HWID: "HWID-1", TTL: time.Hour})
	require.ErrorIs(t, err, ErrPersistence)
}

func TestSignLicenseMintsUniqueJTIs(t *testing.T) {
	tokens := newTestTokenService(t)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		_, claims, err := tokens.SignLicense("HWID-1", "pro", time.Hour)
		require.NoError(t, err)
		require.False(t, seen[claims.JTI()], "jti reuse")
		seen[claims.JTI()] = true
	}
}

func TestSignLicenseBoundsTTL(t *testing.T) {
	tokens := newTestTokenService(t)

	for _, ttl := range []time.Duration{0, jwtx.MinLicenseTTL - time.Second, jwtx.MaxLicenseTTL + time.Second} {
		_, _, err := tokens.SignLicense("HWID-1", "pro", ttl)
		require.ErrorIs(t, err, ErrTTLOutOfRange, ttl)
	}

	_, _, err := tokens.SignLicense("HWID-1", "pro", jwtx.MinLicenseTTL)
	require.NoError(t, err)
	_, _, err = tokens.SignLicense("HWID-1", "pro", jwtx.MaxLicenseTTL)
	require.NoError(t, err)
}

func TestTokenServiceUnavailable(t *testing.T) {
	tokens := &TokenService{now: time.Now}

	_, _, err := tokens.SignLicense("HWID-1", "pro", time.Hour)
	require.ErrorIs(t, err, ErrSigningUnavailable)

	_, err = tokens.VerifyLicense("whatever")
	require.ErrorIs(t, err, ErrVerificationUnavailable)
}
