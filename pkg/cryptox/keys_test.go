package cryptox_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tabwave/keygate/pkg/cryptox"
)

func TestGenerateRSAKey(t *testing.T) {
	pemKey, err := cryptox.GenerateRSAKey(2048)
	require.NoError(t, err)
	require.Contains(t, string(pemKey), "RSA PRIVATE KEY")

	pub, err := cryptox.PublicKeyPEM(pemKey)
	require.NoError(t, err)
	require.Contains(t, string(pub), "PUBLIC KEY")
}

func TestGenerateRSAKeyRejectsSmallSizes(t *testing.T) {
	_, err := cryptox.GenerateRSAKey(1024)
	require.Error(t, err)
}

func TestGenerateEd25519Key(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	require.Contains(t, string(pemKey), "PRIVATE KEY")

	pub, err := cryptox.PublicKeyPEM(pemKey)
	require.NoError(t, err)
	require.Contains(t, string(pub), "PUBLIC KEY")
}

func TestPublicKeyPEMRejectsGarbage(t *testing.T) {
	_, err := cryptox.PublicKeyPEM([]byte("not a pem"))
	require.Error(t, err)
}
