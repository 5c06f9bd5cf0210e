// Command keygen generates a signing keypair for the issuer and writes the
// private and public halves as PEM files. Point KEYGATE_PRIVATE_KEY_FILE at
// the private key; hand the public key to anything verifying offline.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tabwave/keygate/pkg/cryptox"
)

func main() {
	var (
		alg     = flag.String("alg", "RS256", "signing algorithm: RS256 or EdDSA")
		bits    = flag.Int("bits", 2048, "RSA key size (RS256 only)")
		outPriv = flag.String("out", "keygate.pem", "private key output path")
		outPub  = flag.String("pub", "keygate.pub.pem", "public key output path")
	)
	flag.Parse()

	var (
		privPEM []byte
		err     error
	)
	switch *alg {
	case "RS256":
		privPEM, err = cryptox.GenerateRSAKey(*bits)
	case "EdDSA":
		privPEM, err = cryptox.GenerateEd25519Key()
	default:
		log.Fatalf("unsupported algorithm %q (want RS256 or EdDSA)", *alg)
	}
	if err != nil {
		log.Fatalf("generate key: %v", err)
	}

	pubPEM, err := cryptox.PublicKeyPEM(privPEM)
	if err != nil {
		log.Fatalf("derive public key: %v", err)
	}

	// Private key is secret material; 0600 it.
	if err := os.WriteFile(*outPriv, privPEM, 0o600); err != nil {
		log.Fatalf("write private key: %v", err)
	}
	if err := os.WriteFile(*outPub, pubPEM, 0o644); err != nil {
		log.Fatalf("write public key: %v", err)
	}

	fmt.Printf("wrote %s (%s private key) and %s (public key)\n", *outPriv, *alg, *outPub)
}
