package memory

import (
	"context"
	"time"

	"github.com/tokenward/tokenward-go/internal/core/domain"
)

// TokenFilter selects tokens in a filtered listing. Zero-value fields
// are not applied.
type TokenFilter struct {
	// Owner limits results to a single owner.
	Owner *domain.OwnerRef

	// Active keeps only unexpired tokens; Expired keeps only expired
	// ones. Setting both matches nothing.
	Active  bool
	Expired bool

	// UnusedSince keeps tokens never used, or last used at or before
	// the given time.
	UnusedSince int64

	// UsedSince keeps tokens last used at or after the given time.
	UsedSince int64
}

func (f TokenFilter) matches(tok *domain.Token, nowMillis int64) bool {
	if f.Owner != nil && tok.Owner() != *f.Owner {
		return false
	}
	expired := tok.ExpiresAt != 0 && tok.ExpiresAt <= nowMillis
	if f.Active && expired {
		return false
	}
	if f.Expired && !expired {
		return false
	}
	if f.UnusedSince != 0 && tok.LastUsedAt > f.UnusedSince {
		return false
	}
	if f.UsedSince != 0 && tok.LastUsedAt < f.UsedSince {
		return false
	}
	return true
}

// List returns clones of all tokens matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter TokenFilter) ([]*domain.Token, error) {
	// The owner index narrows the scan when an owner is given.
	if filter.Owner != nil {
		owned, err := s.ListByOwner(ctx, *filter.Owner)
		if err != nil {
			return nil, err
		}
		now := time.Now().UnixMilli()
		matched := owned[:0]
		for _, tok := range owned {
			if filter.matches(tok, now) {
				matched = append(matched, tok)
			}
		}
		return matched, nil
	}

	s.mu.RLock()
	now := time.Now().UnixMilli()
	var matched []*domain.Token
	s.tokens.Range(func(_ string, tok *domain.Token) bool {
		if filter.matches(tok, now) {
			matched = append(matched, tok.Clone())
		}
		return true
	})
	s.mu.RUnlock()

	sortNewestFirst(matched)
	return matched, nil
}
