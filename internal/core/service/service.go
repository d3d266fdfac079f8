package service

import (
	"context"
	"log/slog"

	"github.com/tokenward/tokenward-go/internal/core/domain"
	"github.com/tokenward/tokenward-go/internal/telemetry/metric"
)

// TokenStore defines the storage interface for token operations.
//
// Implementations must make each call atomic: a concurrent reader
// either sees a token or does not, never a partially applied bulk
// operation.
type TokenStore interface {
	// Create inserts a new token. Returns ErrHashCollision when the
	// secret digest is already present, ErrVersionConflict is never
	// returned here.
	Create(ctx context.Context, t *domain.Token) error

	// Get retrieves a token by ID. Returns ErrTokenNotFound when absent.
	// Expired tokens are still returned; expiry policy belongs to the
	// verifier.
	Get(ctx context.Context, id string) (*domain.Token, error)

	// Update replaces a token under optimistic locking. Returns
	// ErrVersionConflict when the stored version differs from
	// expectedVersion.
	Update(ctx context.Context, t *domain.Token, expectedVersion uint64) error

	// Touch advances a token's last-used timestamp. The update is
	// monotonic: earlier timestamps are ignored.
	Touch(ctx context.Context, id string, whenMillis int64) error

	// DeleteOwned deletes a token if it exists and belongs to owner.
	// Reports whether a token was deleted.
	DeleteOwned(ctx context.Context, owner domain.OwnerRef, id string) (bool, error)

	// DeleteByOwner deletes all tokens of an owner except those in
	// keep. Returns the number deleted.
	DeleteByOwner(ctx context.Context, owner domain.OwnerRef, keep []string) (int, error)

	// ListByOwner returns all tokens of an owner, newest first.
	ListByOwner(ctx context.Context, owner domain.OwnerRef) ([]*domain.Token, error)

	// DeleteExpired removes tokens whose expiry is at or before the
	// given time. Returns the number removed.
	DeleteExpired(ctx context.Context, beforeMillis int64) (int, error)
}

// TokenService implements issuing, verifying, and revoking opaque
// bearer tokens over a TokenStore.
type TokenService struct {
	store   TokenStore
	owners  *domain.OwnerRegistry
	logger  *slog.Logger
	metrics *metric.Metrics
}

// Option configures a TokenService.
type Option func(*TokenService)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *TokenService) {
		s.logger = logger
	}
}

// WithMetrics attaches a metrics set.
func WithMetrics(m *metric.Metrics) Option {
	return func(s *TokenService) {
		s.metrics = m
	}
}

// NewTokenService creates a TokenService. The owner registry decides
// which (kind, id) pairs may own tokens.
func NewTokenService(store TokenStore, owners *domain.OwnerRegistry, opts ...Option) *TokenService {
	s := &TokenService{
		store:  store,
		owners: owners,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the owner's tokens, newest first.
func (s *TokenService) List(ctx context.Context, owner domain.OwnerRef) ([]*domain.Token, error) {
	return s.store.ListByOwner(ctx, owner)
}

// GetOwned retrieves a token by ID, scoped to an owner. A token that
// exists but belongs to someone else is reported as not found.
func (s *TokenService) GetOwned(ctx context.Context, owner domain.OwnerRef, id string) (*domain.Token, error) {
	tok, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tok.Owner() != owner {
		return nil, domain.ErrTokenNotFound
	}
	return tok, nil
}
