package storage

import (
	"encoding/json"
	"fmt"

	"github.com/tokenward/tokenward-go/internal/core/domain"
	"github.com/tokenward/tokenward-go/pkg/crypto/adaptive"
)

// tokenKeyPrefix namespaces token records inside Badger.
const tokenKeyPrefix = "token/"

// tokenRecord is the on-disk form of a token. Unlike the API form it
// carries the secret digest, so it must never leave the storage layer.
type tokenRecord struct {
	ID         string   `json:"id"`
	OwnerKind  string   `json:"owner_kind"`
	OwnerID    string   `json:"owner_id"`
	Name       string   `json:"name"`
	SecretHash string   `json:"secret_hash"`
	Abilities  []string `json:"abilities"`
	LastUsedAt int64    `json:"last_used_at,omitempty"`
	ExpiresAt  int64    `json:"expires_at,omitempty"`
	CreatedAt  int64    `json:"created_at"`
	UpdatedAt  int64    `json:"updated_at"`
	Version    uint64   `json:"version"`
}

func tokenKey(id string) []byte {
	return []byte(tokenKeyPrefix + id)
}

// encodeToken serializes a token, encrypting when a cipher is set. The
// token ID binds the ciphertext to its key as additional data.
func encodeToken(t *domain.Token, cipher adaptive.Cipher) ([]byte, error) {
	rec := tokenRecord{
		ID:         t.ID,
		OwnerKind:  t.OwnerKind,
		OwnerID:    t.OwnerID,
		Name:       t.Name,
		SecretHash: t.SecretHash,
		Abilities:  t.Abilities,
		LastUsedAt: t.LastUsedAt,
		ExpiresAt:  t.ExpiresAt,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
		Version:    t.Version,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal token: %w", err)
	}
	if cipher == nil {
		return data, nil
	}
	sealed, err := cipher.Seal(data, []byte(t.ID))
	if err != nil {
		return nil, fmt.Errorf("seal token: %w", err)
	}
	return sealed, nil
}

// decodeToken deserializes a token record stored under the given ID.
func decodeToken(id string, data []byte, cipher adaptive.Cipher) (*domain.Token, error) {
	if cipher != nil {
		opened, err := cipher.Open(data, []byte(id))
		if err != nil {
			return nil, fmt.Errorf("open token: %w", err)
		}
		data = opened
	}

	var rec tokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	if rec.ID != id {
		return nil, fmt.Errorf("token record id %q does not match key %q", rec.ID, id)
	}

	return &domain.Token{
		ID:         rec.ID,
		OwnerKind:  rec.OwnerKind,
		OwnerID:    rec.OwnerID,
		Name:       rec.Name,
		SecretHash: rec.SecretHash,
		Abilities:  rec.Abilities,
		LastUsedAt: rec.LastUsedAt,
		ExpiresAt:  rec.ExpiresAt,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
		Version:    rec.Version,
	}, nil
}
