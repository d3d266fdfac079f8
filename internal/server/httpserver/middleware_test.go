package httpserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tokenward/tokenward-go/internal/core/domain"
	"github.com/tokenward/tokenward-go/internal/core/service"
	"github.com/tokenward/tokenward-go/internal/server/httpserver/handler"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = handler.RequestIDFrom(r.Context())
	}), RequestID())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("no request ID in context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("header %q != context %q", got, seen)
	}
}

func TestRequestIDHonorsClient(t *testing.T) {
	h := Chain(okHandler(), RequestID())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-client-supplied")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-client-supplied" {
		t.Errorf("X-Request-ID = %q, want client value", got)
	}
}

func TestRecoverTurnsPanicInto500(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), Recover(logger))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRateLimitRejectsBurst(t *testing.T) {
	h := Chain(okHandler(), RateLimit(1, 2))

	var rejected int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			rejected++
		}
	}
	if rejected == 0 {
		t.Error("no request was rate limited")
	}

	// A different client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("fresh client = %d, want 200", rec.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	h := Chain(okHandler(), RateLimit(0, 0))

	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d with limiting disabled", i, rec.Code)
		}
	}
}

func TestRequireAbilitiesAdminBypasses(t *testing.T) {
	h := Chain(okHandler(), RequireAbilities("admin:everything"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(handler.WithAuth(req.Context(), &handler.Auth{Admin: true}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("admin = %d, want 200", rec.Code)
	}
}

func TestRequireAbilitiesWithoutAuth(t *testing.T) {
	h := Chain(okHandler(), RequireAbilities("read:posts"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no auth = %d, want 401", rec.Code)
	}
}

func TestAbilityGates(t *testing.T) {
	tok := &domain.Token{Abilities: []string{"read:posts"}}
	auth := &handler.Auth{Token: &service.AuthenticatedToken{Token: tok}}

	tests := []struct {
		name string
		mw   Middleware
		want int
	}{
		{"all satisfied", RequireAbilities("read:posts"), http.StatusOK},
		{"all missing one", RequireAbilities("read:posts", "write:posts"), http.StatusForbidden},
		{"any satisfied", RequireAnyAbility("write:posts", "read:posts"), http.StatusOK},
		{"any none", RequireAnyAbility("write:posts"), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Chain(okHandler(), tt.mw)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(handler.WithAuth(req.Context(), auth))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.168.1.5:4321", nil, "192.168.1.5"},
		{"x-forwarded-for", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "203.0.113.9"},
		{"x-real-ip", "10.0.0.1:80", map[string]string{"X-Real-IP": "198.51.100.4"}, "198.51.100.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
