package handler

import (
	"context"

	"github.com/tokenward/tokenward-go/internal/core/service"
)

// Context keys for request-scoped values, set by the middleware chain.
type contextKey string

const (
	// ContextKeyRequestID is the context key for the request ID.
	ContextKeyRequestID contextKey = "request_id"

	// ContextKeyAuth is the context key for the authenticated caller.
	ContextKeyAuth contextKey = "auth"
)

// Auth describes the authenticated caller of a request. Exactly one of
// the two forms applies: a real token, or the bootstrap credential
// (Admin true, Token nil).
type Auth struct {
	Token *service.AuthenticatedToken
	Admin bool
}

// WithAuth stores the authenticated caller on the context.
func WithAuth(ctx context.Context, auth *Auth) context.Context {
	return context.WithValue(ctx, ContextKeyAuth, auth)
}

// AuthFrom returns the authenticated caller, nil when the request did
// not pass authentication middleware.
func AuthFrom(ctx context.Context) *Auth {
	if auth, ok := ctx.Value(ContextKeyAuth).(*Auth); ok {
		return auth
	}
	return nil
}

// WithRequestID stores the request ID on the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, id)
}

// RequestIDFrom returns the request ID, empty when unset.
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}
