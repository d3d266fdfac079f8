package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/tokenward/tokenward-go/internal/core/service"
	"github.com/tokenward/tokenward-go/internal/server/httpserver/handler"
	"github.com/tokenward/tokenward-go/internal/telemetry/metric"
)

// RouterConfig holds the dependencies and policy of the HTTP router.
type RouterConfig struct {
	// Service is the token service behind every endpoint.
	Service *service.TokenService

	// Logger is the structured request logger.
	Logger *slog.Logger

	// Metrics drives /metrics and the request instrumentation. Nil
	// disables both.
	Metrics *metric.Metrics

	// BootstrapCredential authenticates the administrative caller.
	// Empty disables bootstrap access.
	BootstrapCredential string

	// RateLimit is the per-client request rate (requests/second).
	// Zero disables limiting.
	RateLimit float64

	// RateBurst is the burst size for the limiters.
	RateBurst int
}

// NewRouter builds the full route table with its middleware chains.
func NewRouter(cfg *RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	h := handler.New(cfg.Service, cfg.Logger)

	base := []Middleware{
		RequestID(),
		Recover(cfg.Logger),
	}
	if cfg.Metrics != nil {
		base = append(base, Observe(cfg.Metrics))
	}

	authed := append([]Middleware{}, base...)
	authed = append(authed,
		RateLimit(cfg.RateLimit, cfg.RateBurst),
		BearerAuth(&BearerAuthConfig{
			Service:             cfg.Service,
			BootstrapCredential: cfg.BootstrapCredential,
			TokenRate:           cfg.RateLimit,
			TokenBurst:          cfg.RateBurst,
			Logger:              cfg.Logger,
		}),
	)

	mux := http.NewServeMux()

	// Unauthenticated surface.
	mux.Handle("GET /health", Chain(http.HandlerFunc(h.Health), base...))
	mux.Handle("GET /ready", Chain(http.HandlerFunc(h.Ready), base...))
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), RequestID(), Recover(cfg.Logger)))
	}

	// Token API. Every route below requires a bearer credential.
	mux.Handle("POST /v1/owners/{kind}/{id}/tokens", Chain(http.HandlerFunc(h.Mint), authed...))
	mux.Handle("GET /v1/tokens", Chain(http.HandlerFunc(h.List), authed...))
	mux.Handle("GET /v1/tokens/check-ability", Chain(http.HandlerFunc(h.CheckAbility), authed...))
	mux.Handle("GET /v1/tokens/{id}", Chain(http.HandlerFunc(h.Get), authed...))
	mux.Handle("DELETE /v1/tokens/{id}", Chain(http.HandlerFunc(h.RevokeOne), authed...))
	mux.Handle("DELETE /v1/tokens", Chain(http.HandlerFunc(h.RevokeAll), authed...))
	mux.Handle("POST /v1/tokens/{id}/abilities", Chain(http.HandlerFunc(h.MutateAbilities), authed...))

	return mux
}
