package handler

import (
	"time"

	"github.com/tokenward/tokenward-go/internal/core/domain"
)

// Response is the standard API response envelope. All JSON endpoints
// use it; /metrics uses the Prometheus exposition format.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// NewResponse creates a success envelope.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error envelope.
func NewErrorResponse(requestID, code, message string) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// MintTokenRequest is the request body for POST /v1/owners/{kind}/{id}/tokens.
type MintTokenRequest struct {
	Name       string   `json:"name"`
	Abilities  []string `json:"abilities,omitempty"`
	TTLSeconds *int64   `json:"ttl_seconds,omitempty"`
}

// MintTokenResponse is the response body for a mint. Credential is the
// only place the plaintext secret ever appears.
type MintTokenResponse struct {
	Token      TokenView `json:"token"`
	Credential string    `json:"credential"`
}

// TokenView is the API form of a token. The secret digest is never
// included.
type TokenView struct {
	ID         string     `json:"id"`
	OwnerKind  string     `json:"owner_kind"`
	OwnerID    string     `json:"owner_id"`
	Name       string     `json:"name"`
	Abilities  []string   `json:"abilities"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewTokenView converts a domain token to its API form.
func NewTokenView(t *domain.Token) TokenView {
	view := TokenView{
		ID:        t.ID,
		OwnerKind: t.OwnerKind,
		OwnerID:   t.OwnerID,
		Name:      t.Name,
		Abilities: t.Abilities,
		CreatedAt: time.UnixMilli(t.CreatedAt).UTC(),
	}
	if t.LastUsedAt != 0 {
		used := time.UnixMilli(t.LastUsedAt).UTC()
		view.LastUsedAt = &used
	}
	if t.ExpiresAt != 0 {
		expires := time.UnixMilli(t.ExpiresAt).UTC()
		view.ExpiresAt = &expires
	}
	return view
}

// ListTokensResponse is the response body for GET /v1/tokens.
type ListTokensResponse struct {
	Items []TokenView `json:"items"`
	Total int         `json:"total"`
}

// RevokeAllResponse is the response body for DELETE /v1/tokens.
type RevokeAllResponse struct {
	RevokedCount int `json:"revoked_count"`
}

// CheckAbilityResponse is the response body for GET /v1/tokens/check-ability.
type CheckAbilityResponse struct {
	Ability string `json:"ability"`
	Allowed bool   `json:"allowed"`
}

// MutateAbilitiesRequest is the request body for POST /v1/tokens/{id}/abilities.
type MutateAbilitiesRequest struct {
	Add    string `json:"add,omitempty"`
	Remove string `json:"remove,omitempty"`
}

// MutateAbilitiesResponse is the response body for an ability change.
type MutateAbilitiesResponse struct {
	Changed   bool     `json:"changed"`
	Abilities []string `json:"abilities"`
}
