package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/tokenward/tokenward-go/internal/core/domain"
	"github.com/tokenward/tokenward-go/internal/storage/memory"
	"github.com/tokenward/tokenward-go/internal/telemetry/metric"
	"github.com/tokenward/tokenward-go/pkg/crypto/adaptive"
)

// Default configuration values.
const (
	DefaultGCInterval  = 10 * time.Minute
	DefaultGCThreshold = 0.5
)

// Config configures the storage engine.
type Config struct {
	// DataDir is the Badger database directory. Ignored when InMemory
	// is set.
	DataDir string

	// InMemory runs Badger without files. For tests.
	InMemory bool

	// SyncWrites makes every Badger write fsync before returning.
	SyncWrites bool

	// GCInterval is the interval between value log GC runs.
	GCInterval time.Duration

	// GCThreshold is the value log rewrite ratio passed to Badger GC.
	GCThreshold float64

	// Cipher encrypts token records at rest when set.
	Cipher adaptive.Cipher

	// Logger is the structured logger.
	Logger *slog.Logger

	// Metrics receives storage gauges when set.
	Metrics *metric.Metrics
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:     dataDir,
		GCInterval:  DefaultGCInterval,
		GCThreshold: DefaultGCThreshold,
		Logger:      slog.Default(),
	}
}

// Engine is the durable token store. It implements the token store
// contract of the service layer: the memory store serves reads and
// holds the indexes, Badger makes writes survive restarts.
type Engine struct {
	cfg Config

	store *memory.Store
	db    *badger.DB

	logger  *slog.Logger
	metrics *metric.Metrics

	stopCh chan struct{}
	doneCh chan struct{}
}

// New opens the Badger database and prepares an empty engine.
//
// Call Recover after New to load existing records into memory.
func New(cfg Config) (*Engine, error) {
	if cfg.DataDir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("storage: data_dir is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = DefaultGCInterval
	}
	if cfg.GCThreshold <= 0 {
		cfg.GCThreshold = DefaultGCThreshold
	}

	opts := badger.DefaultOptions(cfg.DataDir)
	opts.InMemory = cfg.InMemory
	if cfg.InMemory {
		opts.Dir = ""
		opts.ValueDir = ""
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = &badgerLogger{logger: cfg.Logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open badger: %w", err)
	}

	e := &Engine{
		cfg:     cfg,
		store:   memory.New(),
		db:      db,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	go e.gcLoop()

	e.logger.Info("storage engine started",
		"dir", cfg.DataDir,
		"in_memory", cfg.InMemory,
		"sync_writes", cfg.SyncWrites,
		"encrypted", cfg.Cipher != nil)

	return e, nil
}

// Recover loads all persisted tokens into the memory store. Expired
// records are dropped instead of loaded; they are deleted from Badger
// on the next prune.
func (e *Engine) Recover(ctx context.Context) error {
	startTime := time.Now()
	e.logger.Info("storage recovery started")

	loaded := 0
	skipped := 0
	now := time.Now().UnixMilli()

	err := e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(tokenKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			id := strings.TrimPrefix(string(item.Key()), tokenKeyPrefix)

			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			tok, err := decodeToken(id, value, e.cfg.Cipher)
			if err != nil {
				e.logger.Error("skipping unreadable token record",
					"token_id", id,
					"error", err)
				continue
			}

			if tok.ExpiresAt != 0 && tok.ExpiresAt <= now {
				skipped++
				continue
			}

			if err := e.store.Create(ctx, tok); err != nil {
				e.logger.Warn("failed to restore token",
					"token_id", tok.ID,
					"error", err)
				continue
			}
			loaded++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage: recovery scan: %w", err)
	}

	e.setActiveGauge()
	e.logger.Info("storage recovery completed",
		"loaded", loaded,
		"skipped_expired", skipped,
		"elapsed", time.Since(startTime))
	return nil
}

// Create inserts a new token. The memory store detects conflicts; the
// record is persisted only after it is accepted.
func (e *Engine) Create(ctx context.Context, t *domain.Token) error {
	if err := e.store.Create(ctx, t); err != nil {
		return err
	}
	if err := e.persist(t); err != nil {
		// Roll back so memory and disk do not diverge.
		if _, derr := e.store.DeleteOwned(ctx, t.Owner(), t.ID); derr != nil {
			e.logger.Error("rollback after failed persist",
				"token_id", t.ID,
				"error", derr)
		}
		return domain.ErrStorage.WithCause(err)
	}
	e.setActiveGauge()
	return nil
}

// Get retrieves a token by ID.
func (e *Engine) Get(ctx context.Context, id string) (*domain.Token, error) {
	return e.store.Get(ctx, id)
}

// Update replaces a token under optimistic locking and persists the
// accepted result.
func (e *Engine) Update(ctx context.Context, t *domain.Token, expectedVersion uint64) error {
	if err := e.store.Update(ctx, t, expectedVersion); err != nil {
		return err
	}
	fresh, err := e.store.Get(ctx, t.ID)
	if err != nil {
		return err
	}
	if err := e.persist(fresh); err != nil {
		return domain.ErrStorage.WithCause(err)
	}
	return nil
}

// Touch advances a token's last-used timestamp. The disk write is
// best effort; the in-memory value is authoritative until the next
// persisted update.
func (e *Engine) Touch(ctx context.Context, id string, whenMillis int64) error {
	if err := e.store.Touch(ctx, id, whenMillis); err != nil {
		return err
	}
	fresh, err := e.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := e.persist(fresh); err != nil {
		e.logger.Warn("persist last-used timestamp failed",
			"token_id", id,
			"error", err)
	}
	return nil
}

// DeleteOwned deletes a token if it belongs to owner.
func (e *Engine) DeleteOwned(ctx context.Context, owner domain.OwnerRef, id string) (bool, error) {
	deleted, err := e.store.DeleteOwned(ctx, owner, id)
	if err != nil || !deleted {
		return deleted, err
	}
	if err := e.erase(id); err != nil {
		return true, domain.ErrStorage.WithCause(err)
	}
	e.setActiveGauge()
	return true, nil
}

// DeleteByOwner deletes all tokens of an owner except those in keep.
func (e *Engine) DeleteByOwner(ctx context.Context, owner domain.OwnerRef, keep []string) (int, error) {
	ids, err := e.store.DeleteByOwnerCollect(ctx, owner, keep)
	if err != nil {
		return 0, err
	}
	if err := e.eraseAll(ids); err != nil {
		return len(ids), domain.ErrStorage.WithCause(err)
	}
	e.setActiveGauge()
	return len(ids), nil
}

// ListByOwner returns all tokens of an owner, newest first.
func (e *Engine) ListByOwner(ctx context.Context, owner domain.OwnerRef) ([]*domain.Token, error) {
	return e.store.ListByOwner(ctx, owner)
}

// List returns all tokens matching the filter.
func (e *Engine) List(ctx context.Context, filter memory.TokenFilter) ([]*domain.Token, error) {
	return e.store.List(ctx, filter)
}

// DeleteExpired removes tokens whose expiry is at or before the given
// time, from memory and disk.
func (e *Engine) DeleteExpired(ctx context.Context, beforeMillis int64) (int, error) {
	ids, err := e.store.DeleteExpiredCollect(ctx, beforeMillis)
	if err != nil {
		return 0, err
	}
	if err := e.eraseAll(ids); err != nil {
		return len(ids), domain.ErrStorage.WithCause(err)
	}
	e.setActiveGauge()
	return len(ids), nil
}

// Count returns the number of stored tokens.
func (e *Engine) Count() int {
	return e.store.Count()
}

// Close stops background work and closes the database.
func (e *Engine) Close() error {
	e.logger.Info("shutting down storage engine")

	close(e.stopCh)
	<-e.doneCh

	if err := e.db.Close(); err != nil {
		return fmt.Errorf("storage: close badger: %w", err)
	}
	e.logger.Info("storage engine shutdown complete")
	return nil
}

func (e *Engine) persist(t *domain.Token) error {
	data, err := encodeToken(t, e.cfg.Cipher)
	if err != nil {
		return err
	}
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Set(tokenKey(t.ID), data)
	})
}

func (e *Engine) erase(id string) error {
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(tokenKey(id))
	})
}

func (e *Engine) eraseAll(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	wb := e.db.NewWriteBatch()
	defer wb.Cancel()
	for _, id := range ids {
		if err := wb.Delete(tokenKey(id)); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (e *Engine) setActiveGauge() {
	if e.metrics != nil {
		e.metrics.TokensActive.Set(float64(e.store.Count()))
	}
}

// gcLoop runs periodic Badger value log GC and refreshes size gauges.
func (e *Engine) gcLoop() {
	defer close(e.doneCh)

	ticker := time.NewTicker(e.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.runGC()
			if e.metrics != nil {
				lsm, vlog := e.db.Size()
				e.metrics.DBSizeBytes.Set(float64(lsm + vlog))
			}

		case <-e.stopCh:
			return
		}
	}
}

func (e *Engine) runGC() {
	for {
		err := e.db.RunValueLogGC(e.cfg.GCThreshold)
		if err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) {
				e.logger.Error("value log gc failed", "error", err)
			}
			return
		}
		if e.metrics != nil {
			e.metrics.DBGCReclaims.Inc()
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
