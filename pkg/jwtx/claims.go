package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SubjectLicense is the fixed subject claim carried by every license token.
// Verification rejects anything else so other token types signed with the
// same key can never pass as licenses.
const SubjectLicense = "license"

// License TTL bounds in seconds. Sixty days is the longest license we are
// willing to mint in one go; anything longer should be re-issued.
const (
	MinLicenseTTL = 60 * time.Second
	MaxLicenseTTL = 5_184_000 * time.Second
)

// Claims are the license-token claims. The hardware identifier binds the
// token to a single machine; the plan is an optional entitlement tier.
// The free-text issuance note deliberately has no field here: it lives in
// the audit ledger only and must never be recoverable from the token.
type Claims struct {
	jwt.RegisteredClaims

	// HWID is the hardware identifier the license is bound to.
	HWID string `json:"hwid,omitempty"`

	// Plan is the entitlement tier ("pro", "team", ...). Empty means no tier.
	Plan string `json:"plan,omitempty"`
}

// NewLicenseClaims builds minimally-correct license claims. The jti is
// minted by the caller so issuance and audit logging share one identifier.
func NewLicenseClaims(
	jti, hwid, plan string,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   SubjectLicense,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
		HWID: hwid,
		Plan: plan,
	}
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}

// ValidateLicense enforces the license-token shape on top of the standard
// registered-claim checks: fixed subject, a hardware binding, and a token
// identifier to key revocation and audit lookups.
func (c *Claims) ValidateLicense() error {
	if c.Subject != SubjectLicense {
		return ErrSubject
	}
	if c.HWID == "" {
		return ErrMissingHWID
	}
	if c.ID == "" {
		return ErrMissingJTI
	}
	return nil
}

// JTI returns the token identifier used as the revocation and audit key.
func (c *Claims) JTI() string { return c.ID }

// ExpiresUnix returns the expiry as Unix seconds, or zero when absent.
func (c *Claims) ExpiresUnix() int64 {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Unix()
}

// IssuedUnix returns the issuance time as Unix seconds, or zero when absent.
func (c *Claims) IssuedUnix() int64 {
	if c.IssuedAt == nil {
		return 0
	}
	return c.IssuedAt.Unix()
}
