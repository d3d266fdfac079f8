package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tokenward/tokenward-go/internal/core/domain"
)

func TestMintRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	owner := domain.OwnerRef{Kind: "user", ID: "42"}

	res := mintTestToken(t, svc, owner, "Mobile", []string{"read:posts"})

	if !domain.IsValidTokenID(res.Token.ID) {
		t.Errorf("minted ID %q is not valid", res.Token.ID)
	}
	if res.Token.Owner() != owner {
		t.Errorf("Owner = %v, want %v", res.Token.Owner(), owner)
	}
	if res.Token.ExpiresAt != 0 {
		t.Errorf("ExpiresAt = %d without TTL, want 0", res.Token.ExpiresAt)
	}
	if res.Token.Version != 1 {
		t.Errorf("Version = %d, want 1", res.Token.Version)
	}

	// Credential format: {id}|{secret}, secret never stored.
	id, secret, err := domain.ParseCredential(res.Credential)
	if err != nil {
		t.Fatalf("ParseCredential: %v", err)
	}
	if id != res.Token.ID {
		t.Errorf("credential id = %q, want %q", id, res.Token.ID)
	}
	if strings.Contains(res.Token.SecretHash, secret) {
		t.Errorf("plaintext secret leaked into stored hash")
	}
	if domain.HashSecret(secret) != res.Token.SecretHash {
		t.Errorf("stored hash does not match credential secret")
	}

	// The minted token round-trips through authentication.
	authed, err := svc.Authenticate(context.Background(), res.Credential)
	if err != nil {
		t.Fatalf("Authenticate minted credential: %v", err)
	}
	if authed.Token.ID != res.Token.ID {
		t.Errorf("authenticated ID %q, want %q", authed.Token.ID, res.Token.ID)
	}
}

func TestMintDefaultsToWildcard(t *testing.T) {
	svc, _ := newTestService(t)
	owner := domain.OwnerRef{Kind: "user", ID: "42"}

	res := mintTestToken(t, svc, owner, "ci", nil)
	if len(res.Token.Abilities) != 1 || res.Token.Abilities[0] != domain.WildcardAbility {
		t.Errorf("Abilities = %v, want [*]", res.Token.Abilities)
	}
}

func TestMintValidation(t *testing.T) {
	svc, _ := newTestService(t)
	owner := domain.OwnerRef{Kind: "user", ID: "42"}

	tests := []struct {
		name    string
		req     *MintRequest
		wantErr *domain.DomainError
	}{
		{
			"empty name",
			&MintRequest{Owner: owner},
			domain.ErrInvalidName,
		},
		{
			"name too long",
			&MintRequest{Owner: owner, Name: strings.Repeat("x", domain.MaxNameLength+1)},
			domain.ErrInvalidName,
		},
		{
			"duplicate abilities",
			&MintRequest{Owner: owner, Name: "ci", Abilities: []string{"a", "a"}},
			domain.ErrInvalidAbilities,
		},
		{
			"empty ability",
			&MintRequest{Owner: owner, Name: "ci", Abilities: []string{""}},
			domain.ErrInvalidAbilities,
		},
		{
			"unregistered owner kind",
			&MintRequest{Owner: domain.OwnerRef{Kind: "robot", ID: "1"}, Name: "ci"},
			domain.ErrOwnerNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Mint(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Mint: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMintTTL(t *testing.T) {
	svc, _ := newTestService(t)
	owner := domain.OwnerRef{Kind: "user", ID: "42"}

	ttl := time.Hour
	res, err := svc.Mint(context.Background(), &MintRequest{
		Owner: owner,
		Name:  "expiring",
		TTL:   &ttl,
	})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	wantAround := time.Now().Add(time.Hour).UnixMilli()
	if diff := res.Token.ExpiresAt - wantAround; diff < -5000 || diff > 5000 {
		t.Errorf("ExpiresAt = %d, want about %d", res.Token.ExpiresAt, wantAround)
	}

	// A zero TTL mints an already expired token.
	zero := time.Duration(0)
	res, err = svc.Mint(context.Background(), &MintRequest{
		Owner: owner,
		Name:  "dead on arrival",
		TTL:   &zero,
	})
	if err != nil {
		t.Fatalf("Mint zero TTL: %v", err)
	}
	if !res.Token.IsExpired() {
		t.Errorf("zero-TTL token is not expired")
	}
	if _, err := svc.Authenticate(context.Background(), res.Credential); !errors.Is(err, domain.ErrCredentialExpired) {
		t.Errorf("Authenticate zero-TTL token: got %v, want ErrCredentialExpired", err)
	}
}

func TestMintRetriesOnceOnCollision(t *testing.T) {
	registry := domain.NewOwnerRegistry()
	registry.Register("user", domain.AllowAllResolver{})

	fake := &faultStore{
		TokenStore: newTestStore(t),
		createErr: func(attempt int) error {
			if attempt == 1 {
				return domain.ErrHashCollision
			}
			return nil
		},
	}
	svc := NewTokenService(fake, registry, WithLogger(discardLogger()))

	res, err := svc.Mint(context.Background(), &MintRequest{
		Owner: domain.OwnerRef{Kind: "user", ID: "42"},
		Name:  "retried",
	})
	if err != nil {
		t.Fatalf("Mint after one collision: %v", err)
	}
	if res == nil || res.Token == nil {
		t.Fatalf("Mint returned no token")
	}
	if fake.creates != 2 {
		t.Errorf("creates = %d, want 2", fake.creates)
	}
}

func TestMintFailsAfterRepeatedCollision(t *testing.T) {
	registry := domain.NewOwnerRegistry()
	registry.Register("user", domain.AllowAllResolver{})

	fake := &faultStore{
		TokenStore: newTestStore(t),
		createErr: func(int) error {
			return domain.ErrHashCollision
		},
	}
	svc := NewTokenService(fake, registry, WithLogger(discardLogger()))

	_, err := svc.Mint(context.Background(), &MintRequest{
		Owner: domain.OwnerRef{Kind: "user", ID: "42"},
		Name:  "doomed",
	})
	if !errors.Is(err, domain.ErrCreationFailed) {
		t.Fatalf("Mint: got %v, want ErrCreationFailed", err)
	}
	if fake.creates != mintAttempts {
		t.Errorf("creates = %d, want %d", fake.creates, mintAttempts)
	}
}
