package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/charlesng35/authcore/pkg/crypto"
)

// PKCEMethod is the only challenge method issued.
const PKCEMethod = "S256"

// PKCEPair represents the verifier/challenge material required for PKCE flows.
type PKCEPair struct {
	Verifier  string
	Challenge string
}

// GeneratePKCE produces a PKCE verifier and associated S256 challenge. The 32 random
// bytes encode to a 43 character verifier.
func GeneratePKCE() (PKCEPair, error) {
	verifier, err := crypto.GenerateToken(32)
	if err != nil {
		return PKCEPair{}, fmt.Errorf("pkce: generate verifier: %w", err)
	}

	return PKCEPair{
		Verifier:  verifier,
		Challenge: PKCEChallenge(verifier),
	}, nil
}

// PKCEChallenge derives the S256 challenge for a verifier.
func PKCEChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
