package licensesdk

// Verification failure reasons. Everything token-level (bad signature,
// expired, wrong issuer/audience, malformed claims) collapses into
// ReasonInvalidOrExpired so callers can't use the endpoint as an oracle
// for why a forged token was rejected.
const (
	ReasonHWIDMismatch     = "hwid_mismatch"
	ReasonRevoked          = "revoked"
	ReasonInvalidOrExpired = "invalid_or_expired"
)

// Include filters for listing licenses.
const (
	IncludeAll     = "all"
	IncludeActive  = "active"
	IncludeRevoked = "revoked"
)

// IssueRequest is the admin request to mint a new license token.
type IssueRequest struct {
	HWID       string `json:"hwid" validate:"required,min=1,max=256"`
	TTLSeconds int64  `json:"ttlSeconds" validate:"required,min=60,max=5184000"`
	Plan       string `json:"plan,omitempty" validate:"omitempty,min=1,max=64"`
	Note       string `json:"note,omitempty" validate:"omitempty,min=1,max=512"`
}

// IssueResponse returns the signed token plus the identifiers an admin
// needs to track or revoke it later.
type IssueResponse struct {
	Token     string `json:"token"`
	JTI       string `json:"jti"`
	ExpiresAt int64  `json:"exp"`
}

// VerifyRequest asks whether a token is valid for the presenting hardware.
type VerifyRequest struct {
	Token string `json:"token" validate:"required,min=10"`
	HWID  string `json:"hwid" validate:"required,min=1,max=256"`
}

// VerifyResponse reports the verification outcome. Reason is only set when
// OK is false.
type VerifyResponse struct {
	OK        bool   `json:"ok"`
	Reason    string `json:"reason,omitempty"`
	Plan      string `json:"plan,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
}

// RevokeRequest marks a previously issued token as revoked.
type RevokeRequest struct {
	JTI string `json:"jti" validate:"required,min=1,max=256"`
}

// RevokeResponse acknowledges a revocation.
type RevokeResponse struct {
	OK bool `json:"ok"`
}

// StatusResponse reports whether a token identifier is currently revoked.
type StatusResponse struct {
	Revoked bool `json:"revoked"`
}

// LicenseRecord is an audit ledger row as served over the API. Times are
// Unix seconds to match the token claims.
type LicenseRecord struct {
	JTI       string `json:"jti"`
	HWID      string `json:"hwid"`
	Plan      string `json:"plan,omitempty"`
	Note      string `json:"note,omitempty"`
	IssuedAt  int64  `json:"issuedAt"`
	ExpiresAt int64  `json:"exp"`
	IssuerIP  string `json:"issuerIp,omitempty"`
	Revoked   bool   `json:"revoked"`
	RevokedAt int64  `json:"revokedAt,omitempty"`
	RevokedBy string `json:"revokedBy,omitempty"`
}

// ListResponse wraps the license listing.
type ListResponse struct {
	Items []LicenseRecord `json:"items"`
}

// HealthResponse reports liveness/readiness state.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime,omitempty"`
	Version string `json:"version,omitempty"`
}
