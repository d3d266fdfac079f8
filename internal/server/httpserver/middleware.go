package httpserver

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tokenward/tokenward-go/internal/core/service"
	"github.com/tokenward/tokenward-go/internal/server/httpserver/handler"
	"github.com/tokenward/tokenward-go/internal/telemetry/metric"
	"github.com/tokenward/tokenward-go/pkg/token"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so the first listed runs first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID tags each request with a unique ID, honoring one supplied
// by the client.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				if id, err := token.NewSecretWithLength(12); err == nil {
					requestID = "req-" + id
				} else {
					requestID = "req-unknown"
				}
			}

			w.Header().Set("X-Request-ID", requestID)
			ctx := handler.WithRequestID(r.Context(), requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Recover converts panics into a 500 response.
func Recover(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"request_id", handler.RequestIDFrom(r.Context()),
						"path", r.URL.Path,
						"error", err)
					writeJSONError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Observe records request count and latency metrics per route pattern.
func Observe(m *metric.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			route := r.Pattern
			if route == "" {
				route = r.URL.Path
			}
			m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.status)).Inc()
			m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// limiterRegistry hands out one token bucket per key.
type limiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newLimiterRegistry(r float64, burst int) *limiterRegistry {
	return &limiterRegistry{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(r),
		burst:    burst,
	}
}

func (lr *limiterRegistry) allow(key string) bool {
	lr.mu.Lock()
	l, ok := lr.limiters[key]
	if !ok {
		l = rate.NewLimiter(lr.rate, lr.burst)
		lr.limiters[key] = l
	}
	lr.mu.Unlock()
	return l.Allow()
}

// RateLimit limits request rate per client IP. Zero requestsPerSecond
// disables the middleware.
func RateLimit(requestsPerSecond float64, burst int) Middleware {
	if requestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	registry := newLimiterRegistry(requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !registry.allow(clientIP(r)) {
				w.Header().Set("Retry-After", "1")
				writeJSONError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerAuthConfig configures the bearer authentication middleware.
type BearerAuthConfig struct {
	// Service resolves token credentials.
	Service *service.TokenService

	// BootstrapCredential, when non-empty, authenticates as the
	// administrative caller. Compared in constant time.
	BootstrapCredential string

	// TokenRate limits authenticated request rate per token ID. Zero
	// disables the per-token limiter.
	TokenRate  float64
	TokenBurst int

	Logger *slog.Logger
}

// BearerAuth authenticates requests via "Authorization: Bearer
// {id}|{secret}". Every failure, regardless of cause, produces the
// same 401 response body.
func BearerAuth(cfg *BearerAuthConfig) Middleware {
	var perToken *limiterRegistry
	if cfg.TokenRate > 0 {
		perToken = newLimiterRegistry(cfg.TokenRate, cfg.TokenBurst)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential, ok := bearerCredential(r)
			if !ok {
				writeUnauthenticated(w)
				return
			}

			if cfg.BootstrapCredential != "" &&
				subtle.ConstantTimeCompare([]byte(credential), []byte(cfg.BootstrapCredential)) == 1 {
				ctx := handler.WithAuth(r.Context(), &handler.Auth{Admin: true})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			authed, err := cfg.Service.Authenticate(r.Context(), credential)
			if err != nil {
				// The cause stays in the log; the response is uniform.
				cfg.Logger.Debug("authentication failed",
					"request_id", handler.RequestIDFrom(r.Context()),
					"error", err)
				writeUnauthenticated(w)
				return
			}

			if perToken != nil && !perToken.allow(authed.Token.ID) {
				w.Header().Set("Retry-After", "1")
				writeJSONError(w, http.StatusTooManyRequests, "too many requests")
				return
			}

			ctx := handler.WithAuth(r.Context(), &handler.Auth{Token: authed})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAbilities gates a route on the token carrying every listed
// ability. The bootstrap caller passes all gates.
func RequireAbilities(abilities ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := handler.AuthFrom(r.Context())
			if auth == nil {
				writeUnauthenticated(w)
				return
			}
			if !auth.Admin && !service.CanAll(auth.Token.Token, abilities) {
				writeJSONError(w, http.StatusForbidden, "insufficient abilities")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyAbility gates a route on the token carrying at least one
// of the listed abilities. The bootstrap caller passes all gates.
func RequireAnyAbility(abilities ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := handler.AuthFrom(r.Context())
			if auth == nil {
				writeUnauthenticated(w)
				return
			}
			if !auth.Admin && !service.CanAny(auth.Token.Token, abilities) {
				writeJSONError(w, http.StatusForbidden, "insufficient abilities")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerCredential extracts the credential from the Authorization
// header.
func bearerCredential(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	credential, found := strings.CutPrefix(header, "Bearer ")
	if !found || credential == "" {
		return "", false
	}
	return credential, true
}

// clientIP extracts the client address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeUnauthenticated writes the uniform 401 response. One body for
// malformed, unknown, mismatched, and expired credentials alike.
func writeUnauthenticated(w http.ResponseWriter) {
	writeJSONError(w, http.StatusUnauthorized, "unauthenticated")
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// statusWriter captures the response status code for metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
