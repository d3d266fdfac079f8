// Package adaptive provides authenticated encryption with automatic
// algorithm selection.
//
// AES-GCM is used on architectures with hardware AES support
// (amd64, arm64); ChaCha20-Poly1305 is used elsewhere. Both variants
// prepend the random nonce to the ciphertext.
package adaptive

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required key length in bytes.
const KeySize = 32

// Algorithm identifies the cipher algorithm.
type Algorithm string

const (
	AlgorithmAESGCM   Algorithm = "aes-gcm"
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
)

// ErrInvalidKeySize is returned when the key is not KeySize bytes.
var ErrInvalidKeySize = errors.New("adaptive: key must be 32 bytes")

// Cipher provides authenticated encryption with associated data.
type Cipher interface {
	// Algorithm returns the selected algorithm.
	Algorithm() Algorithm

	// Seal encrypts plaintext, binding it to additionalData.
	Seal(plaintext, additionalData []byte) ([]byte, error)

	// Open decrypts ciphertext produced by Seal with the same
	// additionalData.
	Open(ciphertext, additionalData []byte) ([]byte, error)
}

// New creates a cipher, selecting the algorithm for the current hardware.
func New(key []byte) (Cipher, error) {
	if hasAESAcceleration() {
		return NewWithAlgorithm(key, AlgorithmAESGCM)
	}
	return NewWithAlgorithm(key, AlgorithmChaCha20)
}

// NewWithAlgorithm creates a cipher with an explicit algorithm.
func NewWithAlgorithm(key []byte, alg Algorithm) (Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	var (
		aead stdcipher.AEAD
		err  error
	)
	switch alg {
	case AlgorithmAESGCM:
		var block stdcipher.Block
		block, err = aes.NewCipher(key)
		if err == nil {
			aead, err = stdcipher.NewGCM(block)
		}
	case AlgorithmChaCha20:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, errors.New("adaptive: unknown algorithm " + string(alg))
	}
	if err != nil {
		return nil, err
	}

	return &aeadCipher{alg: alg, aead: aead}, nil
}

// hasAESAcceleration reports whether the Go runtime uses hardware AES
// on this architecture. Go's crypto/aes is accelerated on amd64 and
// arm64; other architectures do better with ChaCha20.
func hasAESAcceleration() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return true
	default:
		return false
	}
}

type aeadCipher struct {
	alg  Algorithm
	aead stdcipher.AEAD
}

func (c *aeadCipher) Algorithm() Algorithm {
	return c.alg
}

func (c *aeadCipher) Seal(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (c *aeadCipher) Open(ciphertext, additionalData []byte) ([]byte, error) {
	if len(ciphertext) < c.aead.NonceSize() {
		return nil, errors.New("adaptive: ciphertext too short")
	}
	nonce := ciphertext[:c.aead.NonceSize()]
	return c.aead.Open(nil, nonce, ciphertext[c.aead.NonceSize():], additionalData)
}
