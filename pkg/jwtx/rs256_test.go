package jwtx_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tabwave/keygate/pkg/cryptox"
	"github.com/tabwave/keygate/pkg/jwtx"
)

const (
	exampleIssuer   = "keygate-issuer"
	exampleAudience = "keygate-clients"
)

func newRS256Signer(t *testing.T, kid string) jwtx.Signer {
	t.Helper()
	pemKey, err := cryptox.GenerateRSAKey(2048)
	require.NoError(t, err)

	signer, err := jwtx.NewSignerRS256(kid, pemKey)
	require.NoError(t, err)
	require.NoError(t, signer.Validate())
	return signer
}

func TestRS256SignAndVerify(t *testing.T) {
	signer := newRS256Signer(t, "test-key-rs256")
	require.Equal(t, "RS256", signer.Alg())
	require.Equal(t, "test-key-rs256", signer.KID())

	now := time.Now().UTC()
	jti := uuid.NewString()
	claims := jwtx.NewLicenseClaims(
		jti,
		"HWID-ABC123",
		"pro",
		time.Hour,
		exampleIssuer,
		[]string{exampleAudience},
		now,
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	jwks := keyset.PublicJWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "RSA", jwks.Keys[0].Kty)
	require.NotEmpty(t, jwks.Keys[0].N)

	verifier := jwtx.NewVerifierRS256(keyset, exampleIssuer, []string{exampleAudience})

	parsed, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, jwtx.SubjectLicense, parsed.Subject)
	require.Equal(t, "HWID-ABC123", parsed.HWID)
	require.Equal(t, "pro", parsed.Plan)
	require.Equal(t, jti, parsed.JTI())
	require.Equal(t, now.Add(time.Hour).Unix(), parsed.ExpiresUnix())
}

func TestRS256VerifyFailsForWrongIssuer(t *testing.T) {
	signer := newRS256Signer(t, "k1")

	claims := jwtx.NewLicenseClaims(
		uuid.NewString(), "HWID-1", "",
		time.Hour, exampleIssuer, nil, time.Now().UTC(),
	)
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	verifier := jwtx.NewVerifierRS256(keyset, "someone-else", nil)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestRS256VerifyFailsForWrongAudience(t *testing.T) {
	signer := newRS256Signer(t, "k1")

	claims := jwtx.NewLicenseClaims(
		uuid.NewString(), "HWID-1", "",
		time.Hour, exampleIssuer, []string{"desktop-app"}, time.Now().UTC(),
	)
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	verifier := jwtx.NewVerifierRS256(keyset, exampleIssuer, []string{"mobile-app"})
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrAudience)
}

func TestRS256VerifyFailsForExpiredToken(t *testing.T) {
	signer := newRS256Signer(t, "k1")

	// Issued two hours ago with a one hour TTL.
	claims := jwtx.NewLicenseClaims(
		uuid.NewString(), "HWID-1", "",
		time.Hour, exampleIssuer, nil, time.Now().UTC().Add(-2*time.Hour),
	)
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	verifier := jwtx.NewVerifierRS256(keyset, exampleIssuer, nil)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestRS256VerifyFailsForUnknownKey(t *testing.T) {
	signer1 := newRS256Signer(t, "key1")
	signer2 := newRS256Signer(t, "key2")

	claims := jwtx.NewLicenseClaims(
		uuid.NewString(), "HWID-1", "",
		time.Hour, exampleIssuer, nil, time.Now().UTC(),
	)
	token, err := signer1.Sign(claims)
	require.NoError(t, err)

	// Keyset only knows about key2.
	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer2))

	verifier := jwtx.NewVerifierRS256(keyset, exampleIssuer, nil)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrUnknownKID)
}

func TestRS256VerifyFailsForTamperedToken(t *testing.T) {
	signer1 := newRS256Signer(t, "k1")
	signer2 := newRS256Signer(t, "k1") // same kid, different key material

	claims := jwtx.NewLicenseClaims(
		uuid.NewString(), "HWID-1", "",
		time.Hour, exampleIssuer, nil, time.Now().UTC(),
	)
	token, err := signer1.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer2))

	verifier := jwtx.NewVerifierRS256(keyset, exampleIssuer, nil)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestRS256VerifyRejectsWrongSubject(t *testing.T) {
	signer := newRS256Signer(t, "k1")

	// Hand-build claims with a foreign subject to make sure the license
	// shape check catches tokens minted for other purposes.
	claims := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    exampleIssuer,
			Subject:   "session",
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(time.Hour)),
			ID:        uuid.NewString(),
		},
		HWID: "HWID-1",
	}
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	verifier := jwtx.NewVerifierRS256(keyset, exampleIssuer, nil)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrSubject)
}

func TestRS256VerifyRejectsMissingHWID(t *testing.T) {
	signer := newRS256Signer(t, "k1")

	claims := jwtx.NewLicenseClaims(
		uuid.NewString(), "", "",
		time.Hour, exampleIssuer, nil, time.Now().UTC(),
	)
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	verifier := jwtx.NewVerifierRS256(keyset, exampleIssuer, nil)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrMissingHWID)
}

func TestRS256VerifyRejectsGarbage(t *testing.T) {
	signer := newRS256Signer(t, "k1")
	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	verifier := jwtx.NewVerifierRS256(keyset, exampleIssuer, nil)
	_, err := verifier.Verify("definitely.not.a-jwt")
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}
