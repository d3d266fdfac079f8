package service

import (
	"context"
	"testing"
	"time"

	"github.com/tokenward/tokenward-go/internal/core/domain"
)

func TestPrunerRunOnce(t *testing.T) {
	svc, store := newTestService(t)
	owner := domain.OwnerRef{Kind: "user", ID: "42"}

	zero := time.Duration(0)
	expired, err := svc.Mint(context.Background(), &MintRequest{
		Owner: owner,
		Name:  "expired",
		TTL:   &zero,
	})
	if err != nil {
		t.Fatalf("Mint expired: %v", err)
	}
	live := mintTestToken(t, svc, owner, "live", nil)

	p := NewPruner(store, 0, WithPrunerLogger(discardLogger()))
	n, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}

	if _, err := store.Get(context.Background(), expired.Token.ID); err == nil {
		t.Errorf("expired token survived sweep")
	}
	if _, err := store.Get(context.Background(), live.Token.ID); err != nil {
		t.Errorf("live token pruned: %v", err)
	}

	// A second sweep is a no-op.
	if n, err := p.RunOnce(context.Background()); err != nil || n != 0 {
		t.Errorf("second RunOnce = (%d, %v), want (0, nil)", n, err)
	}
}

func TestPrunerStartStop(t *testing.T) {
	_, store := newTestService(t)

	p := NewPruner(store, 10*time.Millisecond, WithPrunerLogger(discardLogger()))
	p.Start()
	time.Sleep(30 * time.Millisecond)
	p.Stop()

	// Stop must not hang or panic; calling RunOnce afterwards is fine.
	if _, err := p.RunOnce(context.Background()); err != nil {
		t.Errorf("RunOnce after Stop: %v", err)
	}
}
