package service

import (
	"context"
	"errors"
	"time"

	"github.com/tokenward/tokenward-go/internal/core/domain"
)

// mintAttempts is the number of insert attempts with fresh randomness
// before a digest collision is surfaced as ErrCreationFailed.
const mintAttempts = 2

// MintRequest contains parameters for minting a token.
type MintRequest struct {
	// Owner is the acting owner. Must be known to the owner registry.
	Owner domain.OwnerRef

	// Name is the user-supplied label. Required.
	Name string

	// Abilities is the ability list; nil or empty grants ["*"].
	Abilities []string

	// TTL is the time until expiry. Nil means the token never
	// expires; a zero TTL mints an already-expired token.
	TTL *time.Duration
}

// MintResult is the outcome of minting a token.
type MintResult struct {
	// Token is the persisted record.
	Token *domain.Token

	// Credential is the one-time plaintext credential {id}|{secret}.
	// It is never stored or logged; this value is the only place it
	// exists.
	Credential string
}

// Mint creates a token for an owner and returns the record together
// with its one-time plaintext credential.
func (s *TokenService) Mint(ctx context.Context, req *MintRequest) (*MintResult, error) {
	if req.Name == "" {
		return nil, domain.ErrInvalidName.WithDetails("name is required")
	}
	if len(req.Name) > domain.MaxNameLength {
		return nil, domain.ErrInvalidName.WithDetails("name too long")
	}

	abilities := req.Abilities
	if len(abilities) == 0 {
		abilities = domain.DefaultAbilities()
	} else {
		if err := domain.ValidateAbilities(abilities); err != nil {
			return nil, err
		}
		// Keep caller order but own the slice.
		abilities = append([]string(nil), abilities...)
	}

	if err := s.owners.Exists(ctx, req.Owner); err != nil {
		return nil, err
	}

	var expiresAt int64
	if req.TTL != nil {
		expiresAt = time.Now().Add(*req.TTL).UnixMilli()
	}

	var lastErr error
	for attempt := 0; attempt < mintAttempts; attempt++ {
		id, err := domain.NewTokenID()
		if err != nil {
			return nil, domain.ErrInternal.WithCause(err)
		}
		secret, err := domain.NewSecret()
		if err != nil {
			return nil, err
		}

		now := time.Now().UnixMilli()
		tok := &domain.Token{
			ID:         id,
			OwnerKind:  req.Owner.Kind,
			OwnerID:    req.Owner.ID,
			Name:       req.Name,
			SecretHash: domain.HashSecret(secret),
			Abilities:  abilities,
			ExpiresAt:  expiresAt,
			CreatedAt:  now,
			UpdatedAt:  now,
			Version:    1,
		}

		err = s.store.Create(ctx, tok)
		if err == nil {
			if s.metrics != nil {
				s.metrics.TokensIssued.Inc()
			}
			s.logger.Info("token minted",
				"token_id", tok.ID,
				"owner", req.Owner.Key(),
				"name", req.Name,
				"expires_at", expiresAt)
			return &MintResult{
				Token:      tok,
				Credential: domain.FormatCredential(id, secret),
			}, nil
		}
		if !errors.Is(err, domain.ErrHashCollision) {
			return nil, err
		}
		// A 256-bit digest collision is effectively impossible; a
		// retry with fresh randomness resolves the practical cause
		// (duplicate insert race).
		lastErr = err
	}

	return nil, domain.ErrCreationFailed.WithCause(lastErr)
}
