package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Token format constants.
const (
	// TokenIDPrefix is the prefix for token IDs (public, uses hyphen).
	TokenIDPrefix = "twt-"

	// TokenIDLength is the total ID length: twt- (4) + ULID (26).
	TokenIDLength = 30

	// WildcardAbility grants every ability.
	WildcardAbility = "*"

	// MaxNameLength bounds user-supplied token labels.
	MaxNameLength = 128

	// MaxAbilities bounds the ability list per token.
	MaxAbilities = 64
)

// Token is an issued credential record authorizing API access on
// behalf of an owner. The plaintext secret is never stored; only its
// digest is retained.
type Token struct {
	// ID is the unique identifier. Format: twt-{ulid_lowercase}.
	ID string `json:"id"`

	// OwnerKind and OwnerID identify the owning entity. Ownership is
	// polymorphic: any registered kind may own tokens.
	OwnerKind string `json:"owner_kind"`
	OwnerID   string `json:"owner_id"`

	// Name is the user-supplied label. Not unique.
	Name string `json:"name"`

	// SecretHash is the hex SHA-256 digest of the secret (never exposed).
	// Globally unique across all tokens.
	SecretHash string `json:"-"`

	// Abilities is the ordered, duplicate-free ability list.
	// ["*"] grants every ability.
	Abilities []string `json:"abilities"`

	// LastUsedAt is the last verification timestamp (Unix MS), 0 = never.
	// Written only by the verifier; monotonically non-decreasing.
	LastUsedAt int64 `json:"last_used_at,omitempty"`

	// ExpiresAt is the absolute expiry (Unix MS), 0 = never expires.
	ExpiresAt int64 `json:"expires_at,omitempty"`

	// CreatedAt and UpdatedAt are maintenance timestamps (Unix MS).
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`

	// Version is the optimistic lock version number.
	Version uint64 `json:"version"`
}

// NewTokenID generates a token ID using a ULID.
func NewTokenID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(timeNow()), entropy)
	if err != nil {
		return "", err
	}
	return TokenIDPrefix + strings.ToLower(id.String()), nil
}

// IsValidTokenID checks the twt-{ulid} format.
func IsValidTokenID(id string) bool {
	if !strings.HasPrefix(id, TokenIDPrefix) {
		return false
	}
	if len(id) != TokenIDLength {
		return false
	}
	_, err := ulid.Parse(strings.ToUpper(id[len(TokenIDPrefix):]))
	return err == nil
}

// Owner returns the token's owner reference.
func (t *Token) Owner() OwnerRef {
	return OwnerRef{Kind: t.OwnerKind, ID: t.OwnerID}
}

// IsExpired reports whether the token is past its expiry. Expired
// tokens are treated as absent by the verifier though they remain
// queryable until pruned.
func (t *Token) IsExpired() bool {
	if t.ExpiresAt == 0 {
		return false
	}
	return currentTimeMillis() >= t.ExpiresAt
}

// Touch advances LastUsedAt to the given time. The field is
// monotonically non-decreasing; earlier timestamps are ignored.
func (t *Token) Touch(whenMillis int64) bool {
	if whenMillis <= t.LastUsedAt {
		return false
	}
	t.LastUsedAt = whenMillis
	t.UpdatedAt = currentTimeMillis()
	return true
}

// IncrVersion increments the optimistic lock version.
func (t *Token) IncrVersion() {
	t.Version++
}

// LastUsedAtTime returns LastUsedAt as time.Time (zero if never used).
func (t *Token) LastUsedAtTime() time.Time {
	if t.LastUsedAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(t.LastUsedAt)
}

// ExpiresAtTime returns ExpiresAt as time.Time (zero if never expires).
func (t *Token) ExpiresAtTime() time.Time {
	if t.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(t.ExpiresAt)
}

// Validate checks the token's structural invariants.
func (t *Token) Validate() error {
	var violations []string

	if !IsValidTokenID(t.ID) {
		violations = append(violations, "id format invalid")
	}
	if t.OwnerKind == "" || t.OwnerID == "" {
		violations = append(violations, "owner reference is required")
	}
	if t.Name == "" {
		violations = append(violations, "name is required")
	} else if len(t.Name) > MaxNameLength {
		violations = append(violations, "name exceeds 128 characters")
	}
	if t.SecretHash == "" {
		violations = append(violations, "secret_hash is required")
	}
	if len(t.Abilities) == 0 {
		violations = append(violations, "abilities must not be empty")
	} else if err := ValidateAbilities(t.Abilities); err != nil {
		violations = append(violations, err.Error())
	}

	if len(violations) > 0 {
		return ErrBadRequest.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// Clone creates a deep copy of the token.
func (t *Token) Clone() *Token {
	clone := *t
	if t.Abilities != nil {
		clone.Abilities = make([]string, len(t.Abilities))
		copy(clone.Abilities, t.Abilities)
	}
	return &clone
}

// ValidateAbilities checks that the list has no empty entries and no
// duplicates. Abilities are case-sensitive exact-match strings.
func ValidateAbilities(abilities []string) error {
	if len(abilities) > MaxAbilities {
		return ErrInvalidAbilities.WithDetails("too many abilities")
	}
	seen := make(map[string]struct{}, len(abilities))
	for _, a := range abilities {
		if a == "" {
			return ErrInvalidAbilities.WithDetails("empty ability")
		}
		if _, dup := seen[a]; dup {
			return ErrInvalidAbilities.WithDetails("duplicate ability: " + a)
		}
		seen[a] = struct{}{}
	}
	return nil
}

// DefaultAbilities returns the ability list used when a mint request
// does not specify one.
func DefaultAbilities() []string {
	return []string{WildcardAbility}
}

// currentTimeMillis returns the current Unix timestamp in milliseconds.
// Package-level to allow mock time in tests.
var currentTimeMillis = func() int64 {
	return timeNow().UnixMilli()
}

// timeNow is a hook for testing.
var timeNow = time.Now
