package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tabwave/keygate/pkg/cryptox"
	"github.com/tabwave/keygate/pkg/jwtx"
)

const defaultRSABits = 2048

// SigningKeys bundles everything the token service needs from key material.
type SigningKeys struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	KeySet   *jwtx.KeySet
}

// InitSigningKeys loads the configured private key, or generates an
// ephemeral one when no key file is set.
//
// Ephemeral mode means every token in the wild becomes unverifiable on
// restart, which is fine for development and fatal for production. The log
// line exists so nobody ships it by accident.
func InitSigningKeys(cfg Config, logger *slog.Logger) (*SigningKeys, error) {
	var pemKey []byte

	if cfg.PrivateKeyFile != "" {
		data, err := os.ReadFile(cfg.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read private key file: %w", err)
		}
		pemKey = data
		logger.Info("signing key loaded",
			"path", cfg.PrivateKeyFile,
			"algorithm", cfg.Algorithm,
			"kid", cfg.KID,
		)
	} else {
		var err error
		switch cfg.Algorithm {
		case "EdDSA":
			pemKey, err = cryptox.GenerateEd25519Key()
		default:
			bits := cfg.RSABits
			if bits <= 0 {
				bits = defaultRSABits
			}
			pemKey, err = cryptox.GenerateRSAKey(bits)
		}
		if err != nil {
			return nil, fmt.Errorf("generate ephemeral key: %w", err)
		}
		logger.Warn("no private key file configured, generated ephemeral signing key",
			"algorithm", cfg.Algorithm,
			"kid", cfg.KID,
		)
	}

	var signer jwtx.Signer
	var err error
	switch cfg.Algorithm {
	case "RS256":
		signer, err = jwtx.NewSignerRS256(cfg.KID, pemKey)
	case "EdDSA":
		signer, err = jwtx.NewSignerEdDSA(cfg.KID, pemKey)
	default:
		return nil, fmt.Errorf("unsupported algorithm %q", cfg.Algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("initialize %s signer: %w", cfg.Algorithm, err)
	}

	keys := jwtx.NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, fmt.Errorf("register signing key: %w", err)
	}

	audience := []string{cfg.Audience}
	var verifier jwtx.Verifier
	switch cfg.Algorithm {
	case "EdDSA":
		verifier = jwtx.NewCommonEdDSA(keys, cfg.Issuer, audience)
	default:
		verifier = jwtx.NewCommonRS256(keys, cfg.Issuer, audience)
	}

	return &SigningKeys{
		Signer:   signer,
		Verifier: verifier,
		KeySet:   keys,
	}, nil
}
