package service

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tabwave/keygate/pkg/jwtx"
)

var (
	// ErrSigningUnavailable means no usable signing key is loaded.
	ErrSigningUnavailable = errors.New("signing_unavailable")

	// ErrVerificationUnavailable means no public key material is loaded.
	ErrVerificationUnavailable = errors.New("verification_unavailable")

	// ErrTTLOutOfRange means the requested lifetime is outside the
	// mintable bounds.
	ErrTTLOutOfRange = errors.New("ttl_out_of_range")
)

// TokenService mints and checks license tokens. It knows nothing about
// storage or revocation; LicenseService layers those on top.
type TokenService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Keys     *jwtx.KeySet

	Issuer   string
	Audience []string

	// now is swappable for tests.
	now func() time.Time
}

func NewTokenService(signer jwtx.Signer, verifier jwtx.Verifier, keys *jwtx.KeySet, issuer string, audience []string) *TokenService {
	return &TokenService{
		Signer:   signer,
		Verifier: verifier,
		Keys:     keys,
		Issuer:   issuer,
		Audience: audience,
		now:      time.Now,
	}
}

// SignLicense mints a signed license token bound to hwid, valid for ttl.
// The returned claims carry the freshly minted jti for audit logging.
func (s *TokenService) SignLicense(hwid, plan string, ttl time.Duration) (string, jwtx.Claims, error) {
	if s.Signer == nil {
		return "", jwtx.Claims{}, ErrSigningUnavailable
	}
	if ttl < jwtx.MinLicenseTTL || ttl > jwtx.MaxLicenseTTL {
		return "", jwtx.Claims{}, ErrTTLOutOfRange
	}

	jti := uuid.NewString()
	claims := jwtx.NewLicenseClaims(jti, hwid, plan, ttl, s.Issuer, s.Audience, s.now())

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", jwtx.Claims{}, err
	}
	return token, claims, nil
}

// VerifyLicense checks a token's signature and license claims. Revocation
// and hardware binding are the caller's concern.
func (s *TokenService) VerifyLicense(token string) (jwtx.Claims, error) {
	if s.Verifier == nil || (s.Keys != nil && !s.Keys.IsReady()) {
		return jwtx.Claims{}, ErrVerificationUnavailable
	}
	return s.Verifier.Verify(token)
}

// PublicJWKS exposes the current public key material.
func (s *TokenService) PublicJWKS() jwtx.JWKS {
	if s.Keys == nil {
		return jwtx.JWKS{}
	}
	return s.Keys.PublicJWKS()
}
