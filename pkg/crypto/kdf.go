package crypto

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2Parameters controls the cost factors for password key derivation.
type PBKDF2Parameters struct {
	// Iterations is the PBKDF2 round count.
	Iterations int
	// SaltLength is the size of the random salt in bytes.
	SaltLength int
	// KeyLength is the desired length of the derived key in bytes.
	KeyLength int
}

// DefaultPBKDF2Params returns the parameters used for stored password hashes.
func DefaultPBKDF2Params() PBKDF2Parameters {
	return PBKDF2Parameters{
		Iterations: 100_000,
		SaltLength: 16,
		KeyLength:  32,
	}
}

// Validate ensures the parameters are suitable for password hashing.
func (p PBKDF2Parameters) Validate() error {
	if p.Iterations < 100_000 {
		return fmt.Errorf("pbkdf2: iterations must be at least 100000 (got %d)", p.Iterations)
	}
	if p.SaltLength < 16 {
		return fmt.Errorf("pbkdf2: salt must be at least 16 bytes (got %d)", p.SaltLength)
	}
	if p.KeyLength < 32 {
		return fmt.Errorf("pbkdf2: key length must be at least 32 bytes (got %d)", p.KeyLength)
	}
	return nil
}

// DeriveKeyPBKDF2 derives a key using PBKDF2-HMAC-SHA256.
func DeriveKeyPBKDF2(secret, salt []byte, params PBKDF2Parameters) ([]byte, error) {
	if len(salt) != params.SaltLength {
		return nil, fmt.Errorf("pbkdf2: salt must be %d bytes (got %d)", params.SaltLength, len(salt))
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return pbkdf2.Key(secret, salt, params.Iterations, params.KeyLength, sha256.New), nil
}
