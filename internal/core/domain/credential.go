package domain

import (
	"strings"

	"github.com/tokenward/tokenward-go/pkg/token"
)

// Credential format constants.
const (
	// SecretPrefix is the prefix for plaintext secrets (sensitive,
	// uses underscore).
	SecretPrefix = "tws_"

	// SecretLength is the total secret length: tws_ (4) + Base64
	// RawURL of 32 bytes (43).
	SecretLength = 47

	// CredentialSeparator joins the token ID and secret in the
	// plaintext credential. The ID prefix enables O(1) lookup before
	// the digest is verified.
	CredentialSeparator = "|"
)

// NewSecret generates a plaintext secret: tws_ + 32 random bytes,
// Base64 RawURL encoded.
func NewSecret() (string, error) {
	body, err := token.NewSecret()
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	return SecretPrefix + body, nil
}

// HashSecret computes the stored digest of a plaintext secret.
func HashSecret(secret string) string {
	return token.Digest(secret)
}

// VerifySecret compares a plaintext secret against a stored digest in
// constant time.
func VerifySecret(secret, secretHash string) bool {
	return token.Verify(secret, secretHash)
}

// IsValidSecret checks the tws_{base64url} format.
func IsValidSecret(secret string) bool {
	if !strings.HasPrefix(secret, SecretPrefix) {
		return false
	}
	if len(secret) != SecretLength {
		return false
	}
	for _, c := range secret[len(SecretPrefix):] {
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}

// FormatCredential builds the one-time plaintext credential {id}|{secret}.
func FormatCredential(id, secret string) string {
	return id + CredentialSeparator + secret
}

// ParseCredential splits a credential string into token ID and secret.
// Returns ErrCredentialMalformed on any syntax violation.
func ParseCredential(credential string) (id, secret string, err error) {
	id, secret, found := strings.Cut(credential, CredentialSeparator)
	if !found {
		return "", "", ErrCredentialMalformed.WithDetails("missing separator")
	}
	if !IsValidTokenID(id) {
		return "", "", ErrCredentialMalformed.WithDetails("bad token id")
	}
	if !IsValidSecret(secret) {
		return "", "", ErrCredentialMalformed.WithDetails("bad secret")
	}
	return id, secret, nil
}

// MaskCredential masks a credential or secret for safe logging, keeping
// only a short prefix and suffix.
func MaskCredential(s string) string {
	if len(s) < 12 {
		return "***REDACTED***"
	}
	return s[:6] + "..." + s[len(s)-3:]
}
