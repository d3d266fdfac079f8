package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tokenward/tokenward-go/internal/telemetry/metric"
)

// DefaultPruneInterval is the default sweep interval.
const DefaultPruneInterval = 15 * time.Minute

// Pruner periodically deletes tokens whose expiry has passed. Expired
// tokens are already invisible to the verifier; the sweep only
// reclaims storage.
type Pruner struct {
	store    TokenStore
	interval time.Duration
	logger   *slog.Logger
	metrics  *metric.Metrics

	stopCh chan struct{}
	doneCh chan struct{}
}

// PrunerOption configures a Pruner.
type PrunerOption func(*Pruner)

// WithPrunerLogger sets the structured logger.
func WithPrunerLogger(logger *slog.Logger) PrunerOption {
	return func(p *Pruner) {
		p.logger = logger
	}
}

// WithPrunerMetrics attaches a metrics set.
func WithPrunerMetrics(m *metric.Metrics) PrunerOption {
	return func(p *Pruner) {
		p.metrics = m
	}
}

// NewPruner creates a Pruner sweeping at the given interval
// (DefaultPruneInterval when non-positive).
func NewPruner(store TokenStore, interval time.Duration, opts ...PrunerOption) *Pruner {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	p := &Pruner{
		store:    store,
		interval: interval,
		logger:   slog.Default(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the background sweep loop.
func (p *Pruner) Start() {
	go p.loop()
}

// Stop terminates the loop and waits for it to finish.
func (p *Pruner) Stop() {
	close(p.stopCh)
	<-p.doneCh
}

func (p *Pruner) loop() {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := p.RunOnce(context.Background()); err != nil {
				p.logger.Error("prune sweep failed", "error", err)
			}
		case <-p.stopCh:
			return
		}
	}
}

// RunOnce performs a single sweep and returns the number of tokens
// removed.
func (p *Pruner) RunOnce(ctx context.Context) (int, error) {
	count, err := p.store.DeleteExpired(ctx, time.Now().UnixMilli())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		if p.metrics != nil {
			p.metrics.TokensPruned.Add(float64(count))
		}
		p.logger.Info("expired tokens pruned", "count", count)
	}
	return count, nil
}
