package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

// DefaultSecretLength is the default secret length in bytes.
const DefaultSecretLength = 32

// NewSecret generates a cryptographically secure random secret of the
// default length.
func NewSecret() (string, error) {
	return NewSecretWithLength(DefaultSecretLength)
}

// NewSecretWithLength generates a random secret with the given byte length.
//
// The returned secret is Base64 RawURL encoded.
func NewSecretWithLength(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Digest computes the hex-encoded SHA-256 digest of a secret.
func Digest(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}

// Verify reports whether a secret matches an expected digest.
//
// The digest comparison is constant time to prevent timing attacks.
func Verify(secret, expectedDigest string) bool {
	actual := Digest(secret)
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expectedDigest)) == 1
}
