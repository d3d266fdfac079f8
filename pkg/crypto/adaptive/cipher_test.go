package adaptive

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return key
}

func TestSealOpen_RoundTrip(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmAESGCM, AlgorithmChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			c, err := NewWithAlgorithm(testKey(t), alg)
			if err != nil {
				t.Fatalf("NewWithAlgorithm(%s) error = %v", alg, err)
			}
			if c.Algorithm() != alg {
				t.Errorf("Algorithm() = %s, want %s", c.Algorithm(), alg)
			}

			plaintext := []byte("token record payload")
			aad := []byte("twt-01hzxample")

			sealed, err := c.Seal(plaintext, aad)
			if err != nil {
				t.Fatalf("Seal error = %v", err)
			}
			if bytes.Contains(sealed, plaintext) {
				t.Error("sealed output contains plaintext")
			}

			opened, err := c.Open(sealed, aad)
			if err != nil {
				t.Fatalf("Open error = %v", err)
			}
			if !bytes.Equal(opened, plaintext) {
				t.Errorf("Open = %q, want %q", opened, plaintext)
			}
		})
	}
}

func TestOpen_WrongAAD(t *testing.T) {
	c, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}

	sealed, err := c.Seal([]byte("payload"), []byte("id-a"))
	if err != nil {
		t.Fatalf("Seal error = %v", err)
	}
	if _, err := c.Open(sealed, []byte("id-b")); err == nil {
		t.Error("Open with wrong additional data should fail")
	}
}

func TestOpen_Tampered(t *testing.T) {
	c, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}

	sealed, err := c.Seal([]byte("payload"), nil)
	if err != nil {
		t.Fatalf("Seal error = %v", err)
	}
	sealed[len(sealed)-1] ^= 0x01
	if _, err := c.Open(sealed, nil); err == nil {
		t.Error("Open of tampered ciphertext should fail")
	}

	if _, err := c.Open([]byte("short"), nil); err == nil {
		t.Error("Open of truncated ciphertext should fail")
	}
}

func TestNew_InvalidKey(t *testing.T) {
	if _, err := New(make([]byte, 16)); err != ErrInvalidKeySize {
		t.Errorf("New with short key error = %v, want ErrInvalidKeySize", err)
	}
}
