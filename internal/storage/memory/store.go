package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tokenward/tokenward-go/internal/core/domain"
	"github.com/tokenward/tokenward-go/pkg/cmap"
)

// Store is the in-memory token store.
type Store struct {
	// Primary index: token ID -> Token
	tokens *cmap.Map[*domain.Token]

	// Unique index: secret digest -> token ID
	hashes *cmap.Map[string]

	// Secondary index: owner key -> set of token IDs
	owners *OwnerIndex

	// Global lock for operations that must be atomic across indexes.
	mu sync.RWMutex
}

// New creates an empty store.
func New() *Store {
	return &Store{
		tokens: cmap.New[*domain.Token](),
		hashes: cmap.New[string](),
		owners: NewOwnerIndex(),
	}
}

// Create inserts a new token. The secret digest must be unique across
// all tokens; a duplicate yields ErrHashCollision so the issuer can
// retry with fresh randomness.
func (s *Store) Create(_ context.Context, t *domain.Token) error {
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens.Has(t.ID) {
		return domain.ErrHashCollision.WithDetails("token id conflict")
	}
	if s.hashes.Has(t.SecretHash) {
		return domain.ErrHashCollision
	}

	clone := t.Clone()
	s.tokens.Set(t.ID, clone)
	s.hashes.Set(t.SecretHash, t.ID)
	s.owners.Add(clone.Owner().Key(), t.ID)

	return nil
}

// Get retrieves a token by ID. Expired tokens are returned as stored;
// expiry policy belongs to the caller. The read lock keeps the clone
// consistent with in-place Touch writes.
func (s *Store) Get(_ context.Context, id string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tok, ok := s.tokens.Get(id)
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return tok.Clone(), nil
}

// Update replaces a token under optimistic locking.
func (s *Store) Update(_ context.Context, t *domain.Token, expectedVersion uint64) error {
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tokens.Get(t.ID)
	if !ok {
		return domain.ErrTokenNotFound
	}
	if existing.Version != expectedVersion {
		return domain.ErrVersionConflict
	}

	if existing.SecretHash != t.SecretHash {
		if s.hashes.Has(t.SecretHash) {
			return domain.ErrHashCollision
		}
		s.hashes.Delete(existing.SecretHash)
		s.hashes.Set(t.SecretHash, t.ID)
	}

	clone := t.Clone()
	// LastUsedAt is monotonic; a stale caller copy never moves it back.
	if existing.LastUsedAt > clone.LastUsedAt {
		clone.LastUsedAt = existing.LastUsedAt
	}
	clone.UpdatedAt = time.Now().UnixMilli()
	clone.IncrVersion()
	s.tokens.Set(t.ID, clone)

	t.Version = clone.Version
	t.UpdatedAt = clone.UpdatedAt

	return nil
}

// Touch advances a token's last-used timestamp in place. Earlier
// timestamps are ignored, so concurrent verifications of the same
// token keep the field non-decreasing.
func (s *Store) Touch(_ context.Context, id string, whenMillis int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.tokens.Get(id)
	if !ok {
		return domain.ErrTokenNotFound
	}
	tok.Touch(whenMillis)
	return nil
}

// DeleteOwned deletes a token if it belongs to owner. Reports whether
// a token was deleted; absent and foreign tokens report false without
// error.
func (s *Store) DeleteOwned(_ context.Context, owner domain.OwnerRef, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.tokens.Get(id)
	if !ok || tok.Owner() != owner {
		return false, nil
	}
	s.removeLocked(tok)
	return true, nil
}

// DeleteByOwner deletes all tokens of an owner except those in keep.
func (s *Store) DeleteByOwner(ctx context.Context, owner domain.OwnerRef, keep []string) (int, error) {
	ids, err := s.DeleteByOwnerCollect(ctx, owner, keep)
	return len(ids), err
}

// DeleteByOwnerCollect is DeleteByOwner returning the deleted IDs, for
// callers that maintain external state per token.
func (s *Store) DeleteByOwnerCollect(_ context.Context, owner domain.OwnerRef, keep []string) ([]string, error) {
	kept := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		kept[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted []string
	for _, id := range s.owners.Get(owner.Key()) {
		if _, skip := kept[id]; skip {
			continue
		}
		tok, ok := s.tokens.Get(id)
		if !ok {
			continue
		}
		s.removeLocked(tok)
		deleted = append(deleted, id)
	}
	return deleted, nil
}

// ListByOwner returns all tokens of an owner, newest first.
func (s *Store) ListByOwner(_ context.Context, owner domain.OwnerRef) ([]*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.owners.Get(owner.Key())
	tokens := make([]*domain.Token, 0, len(ids))
	for _, id := range ids {
		if tok, ok := s.tokens.Get(id); ok {
			tokens = append(tokens, tok.Clone())
		}
	}

	sortNewestFirst(tokens)
	return tokens, nil
}

func sortNewestFirst(tokens []*domain.Token) {
	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].CreatedAt != tokens[j].CreatedAt {
			return tokens[i].CreatedAt > tokens[j].CreatedAt
		}
		return tokens[i].ID < tokens[j].ID
	})
}

// DeleteExpired removes tokens whose expiry is at or before the given
// time.
func (s *Store) DeleteExpired(ctx context.Context, beforeMillis int64) (int, error) {
	ids, err := s.DeleteExpiredCollect(ctx, beforeMillis)
	return len(ids), err
}

// DeleteExpiredCollect is DeleteExpired returning the deleted IDs.
func (s *Store) DeleteExpiredCollect(_ context.Context, beforeMillis int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*domain.Token
	s.tokens.Range(func(_ string, tok *domain.Token) bool {
		if tok.ExpiresAt != 0 && tok.ExpiresAt <= beforeMillis {
			expired = append(expired, tok)
		}
		return true
	})

	ids := make([]string, 0, len(expired))
	for _, tok := range expired {
		s.removeLocked(tok)
		ids = append(ids, tok.ID)
	}
	return ids, nil
}

// Count returns the number of stored tokens.
func (s *Store) Count() int {
	return s.tokens.Count()
}

// removeLocked drops a token from every index. Caller holds s.mu.
func (s *Store) removeLocked(tok *domain.Token) {
	s.tokens.Delete(tok.ID)
	s.hashes.Delete(tok.SecretHash)
	s.owners.Remove(tok.Owner().Key(), tok.ID)
}
