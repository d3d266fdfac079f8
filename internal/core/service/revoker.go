package service

import (
	"context"
	"errors"
	"slices"

	"github.com/tokenward/tokenward-go/internal/core/domain"
)

// mutateAttempts bounds the optimistic-lock retry loop for ability
// changes.
const mutateAttempts = 3

// RevokeOne deletes the token if it belongs to owner. Reports whether
// a token was deleted; revoking an absent or foreign token is not an
// error, it simply reports false.
func (s *TokenService) RevokeOne(ctx context.Context, owner domain.OwnerRef, id string) (bool, error) {
	deleted, err := s.store.DeleteOwned(ctx, owner, id)
	if err != nil {
		return false, err
	}
	if deleted {
		if s.metrics != nil {
			s.metrics.TokensRevoked.Inc()
		}
		s.logger.Info("token revoked", "token_id", id, "owner", owner.Key())
	}
	return deleted, nil
}

// RevokeAll deletes every token of the owner. Returns the number
// deleted.
func (s *TokenService) RevokeAll(ctx context.Context, owner domain.OwnerRef) (int, error) {
	return s.revokeBulk(ctx, owner, nil)
}

// RevokeAllExcept deletes every token of the owner whose ID is not in
// keep. Used for "log out everywhere but here".
func (s *TokenService) RevokeAllExcept(ctx context.Context, owner domain.OwnerRef, keep []string) (int, error) {
	return s.revokeBulk(ctx, owner, keep)
}

func (s *TokenService) revokeBulk(ctx context.Context, owner domain.OwnerRef, keep []string) (int, error) {
	count, err := s.store.DeleteByOwner(ctx, owner, keep)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		if s.metrics != nil {
			s.metrics.TokensRevoked.Add(float64(count))
		}
		s.logger.Info("tokens revoked", "owner", owner.Key(), "count", count, "kept", len(keep))
	}
	return count, nil
}

// MutateAbilities adds and/or removes a single ability on one token,
// deduplicating. Adding a present ability or removing an absent one is
// a no-op. Reports whether the stored set changed.
//
// Concurrent mutations of the same token are serialized through
// optimistic locking; the read-modify-write is retried on version
// conflict.
func (s *TokenService) MutateAbilities(ctx context.Context, id, add, remove string) (bool, error) {
	if add == "" && remove == "" {
		return false, domain.ErrInvalidAbilities.WithDetails("nothing to add or remove")
	}
	if add != "" && add == remove {
		return false, domain.ErrInvalidAbilities.WithDetails("add and remove conflict")
	}

	var lastErr error
	for attempt := 0; attempt < mutateAttempts; attempt++ {
		tok, err := s.store.Get(ctx, id)
		if err != nil {
			return false, err
		}

		next := make([]string, 0, len(tok.Abilities)+1)
		for _, a := range tok.Abilities {
			if remove != "" && a == remove {
				continue
			}
			next = append(next, a)
		}
		if add != "" && !slices.Contains(next, add) {
			next = append(next, add)
		}

		if slices.Equal(next, tok.Abilities) {
			return false, nil
		}

		tok.Abilities = next
		err = s.store.Update(ctx, tok, tok.Version)
		if err == nil {
			s.logger.Info("token abilities changed",
				"token_id", id, "added", add, "removed", remove)
			return true, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return false, err
		}
		lastErr = err
	}

	return false, domain.ErrVersionConflict.WithCause(lastErr)
}
