package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

// HashPassword derives a PBKDF2 key for the password with a fresh random salt and
// returns base64(salt || key).
func HashPassword(password string) (string, error) {
	params := DefaultPBKDF2Params()

	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key, err := DeriveKeyPBKDF2([]byte(password), salt, params)
	if err != nil {
		return "", err
	}

	encoded := make([]byte, 0, len(salt)+len(key))
	encoded = append(encoded, salt...)
	encoded = append(encoded, key...)
	return base64.StdEncoding.EncodeToString(encoded), nil
}

// VerifyPassword compares the stored hash with the plaintext candidate. Malformed
// or truncated hashes never match.
func VerifyPassword(hashedPassword, password string) bool {
	params := DefaultPBKDF2Params()

	raw, err := base64.StdEncoding.DecodeString(hashedPassword)
	if err != nil || len(raw) != params.SaltLength+params.KeyLength {
		return false
	}

	salt, expected := raw[:params.SaltLength], raw[params.SaltLength:]
	derived, err := DeriveKeyPBKDF2([]byte(password), salt, params)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(derived, expected) == 1
}

// GenerateToken returns a random URL-safe token of the requested byte length.
func GenerateToken(length int) (string, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// SecureTokenBytes is the amount of randomness carried by session and single-use tokens.
const SecureTokenBytes = 32

// GenerateSecureToken returns a hex encoded token carrying SecureTokenBytes of randomness.
func GenerateSecureToken() (string, error) {
	buffer := make([]byte, SecureTokenBytes)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return hex.EncodeToString(buffer), nil
}

// HashToken returns the SHA-256 hex digest used to store tokens at rest.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
