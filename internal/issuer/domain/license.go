package domain

import "time"

// License is the audit record for a minted license token. The token itself
// is never stored; only the claims needed for audit and revocation live here.
type License struct {
	JTI       string
	HWID      string
	Plan      string
	Note      string // operator annotation, never embedded in the token
	IssuedAt  time.Time
	ExpiresAt time.Time
	IssuerIP  string // remote address of the admin who minted the token

	// Revocation is non-nil once the license has been revoked.
	Revocation *Revocation
}

// Revoked reports whether the license carries a revocation record.
func (l *License) Revoked() bool {
	return l.Revocation != nil
}

type Revocation struct {
	JTI       string
	RevokedAt time.Time
	Admin     string // username of the admin who revoked the token
}

// IssuedLicense is the outcome of minting a token: the signed compact JWT
// plus the claims the caller needs to echo back.
type IssuedLicense struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// VerifyResult captures a verification outcome. Exactly one of OK or Reason
// is meaningful: a rejected token carries a Reason, an accepted one carries
// the plan and expiry extracted from its claims.
type VerifyResult struct {
	OK        bool
	Reason    string
	Plan      string
	ExpiresAt time.Time
}

// ListFilter narrows a license listing.
type ListFilter struct {
	// Limit caps the number of records returned, newest first.
	Limit int

	// Revoked filters by revocation state when non-nil.
	Revoked *bool
}
