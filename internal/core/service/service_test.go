package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/tokenward/tokenward-go/internal/core/domain"
	"github.com/tokenward/tokenward-go/internal/storage/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	return memory.New()
}

func newTestService(t *testing.T) (*TokenService, *memory.Store) {
	t.Helper()

	registry := domain.NewOwnerRegistry()
	registry.Register("user", domain.AllowAllResolver{})
	registry.Register("service", domain.AllowAllResolver{})

	store := memory.New()
	svc := NewTokenService(store, registry, WithLogger(discardLogger()))
	return svc, store
}

func mintTestToken(t *testing.T, svc *TokenService, owner domain.OwnerRef, name string, abilities []string) *MintResult {
	t.Helper()

	res, err := svc.Mint(context.Background(), &MintRequest{
		Owner:     owner,
		Name:      name,
		Abilities: abilities,
	})
	if err != nil {
		t.Fatalf("Mint(%s): %v", name, err)
	}
	return res
}

// faultStore wraps a TokenStore to inject failures per operation.
type faultStore struct {
	TokenStore

	createErr func(attempt int) error
	creates   int

	touchErr error

	updateConflicts int
	updates         int
}

func (f *faultStore) Create(ctx context.Context, tok *domain.Token) error {
	f.creates++
	if f.createErr != nil {
		if err := f.createErr(f.creates); err != nil {
			return err
		}
	}
	return f.TokenStore.Create(ctx, tok)
}

func (f *faultStore) Touch(ctx context.Context, id string, whenMillis int64) error {
	if f.touchErr != nil {
		return f.touchErr
	}
	return f.TokenStore.Touch(ctx, id, whenMillis)
}

func (f *faultStore) Update(ctx context.Context, tok *domain.Token, expectedVersion uint64) error {
	f.updates++
	if f.updates <= f.updateConflicts {
		return domain.ErrVersionConflict
	}
	return f.TokenStore.Update(ctx, tok, expectedVersion)
}
