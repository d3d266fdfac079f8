package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/tokenward/tokenward-go/internal/core/domain"
)

// rawRecord reads the persisted bytes for a token directly from Badger.
func (e *Engine) rawRecord(id string) ([]byte, error) {
	var data []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tokenKey(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	return data, err
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	cfg := DefaultConfig("")
	cfg.InMemory = true
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestEngineCreateGetDelete(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tok := sampleToken(t)
	if err := e.Create(ctx, tok); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := e.Get(ctx, tok.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != tok.Name {
		t.Errorf("Name = %q, want %q", got.Name, tok.Name)
	}

	// Durable copy must exist under the token key.
	stored, err := e.rawRecord(tok.ID)
	if err != nil {
		t.Fatalf("raw record: %v", err)
	}
	if len(stored) == 0 {
		t.Fatalf("no persisted record for %s", tok.ID)
	}

	deleted, err := e.DeleteOwned(ctx, tok.Owner(), tok.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteOwned = (%v, %v)", deleted, err)
	}
	if _, err := e.rawRecord(tok.ID); err == nil {
		t.Errorf("persisted record survived delete")
	}
}

func TestEngineDuplicateHash(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	first := sampleToken(t)
	if err := e.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dup := sampleToken(t)
	dup.SecretHash = first.SecretHash
	if err := e.Create(ctx, dup); !errors.Is(err, domain.ErrHashCollision) {
		t.Fatalf("duplicate Create: got %v, want ErrHashCollision", err)
	}
	if _, err := e.rawRecord(dup.ID); err == nil {
		t.Errorf("rejected token was persisted")
	}
}

func TestEngineUpdatePersists(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tok := sampleToken(t)
	if err := e.Create(ctx, tok); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, _ := e.Get(ctx, tok.ID)
	got.Abilities = []string{"read:posts"}
	if err := e.Update(ctx, got, got.Version); err != nil {
		t.Fatalf("Update: %v", err)
	}

	data, err := e.rawRecord(tok.ID)
	if err != nil {
		t.Fatalf("raw record: %v", err)
	}
	rec, err := decodeToken(tok.ID, data, nil)
	if err != nil {
		t.Fatalf("decode persisted record: %v", err)
	}
	if len(rec.Abilities) != 1 || rec.Abilities[0] != "read:posts" {
		t.Errorf("persisted Abilities = %v, want [read:posts]", rec.Abilities)
	}
	if rec.Version != got.Version {
		t.Errorf("persisted Version = %d, want %d", rec.Version, got.Version)
	}
}

func TestEngineRecover(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := DefaultConfig(dir)
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	live := sampleToken(t)
	if err := e.Create(ctx, live); err != nil {
		t.Fatalf("Create live: %v", err)
	}
	expired := sampleToken(t)
	expired.ExpiresAt = time.Now().Add(-time.Hour).UnixMilli()
	if err := e.Create(ctx, expired); err != nil {
		t.Fatalf("Create expired: %v", err)
	}

	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen and recover from disk.
	e2, err := New(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer e2.Close()

	if err := e2.Recover(ctx); err != nil {
		t.Fatalf("Recover: %v", err)
	}

	if _, err := e2.Get(ctx, live.ID); err != nil {
		t.Errorf("live token not recovered: %v", err)
	}
	// Expired records are skipped during recovery.
	if _, err := e2.Get(ctx, expired.ID); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Errorf("expired token recovered: %v", err)
	}
	if e2.Count() != 1 {
		t.Errorf("Count = %d after recovery, want 1", e2.Count())
	}
}

func TestEngineDeleteExpired(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tok := sampleToken(t)
	tok.ExpiresAt = time.Now().Add(-time.Minute).UnixMilli()
	if err := e.Create(ctx, tok); err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := e.DeleteExpired(ctx, time.Now().UnixMilli())
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	if _, err := e.rawRecord(tok.ID); err == nil {
		t.Errorf("persisted record survived prune")
	}
}
