package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tokenward/tokenward-go/internal/core/domain"
	"github.com/tokenward/tokenward-go/internal/core/service"
)

// Mint handles POST /v1/owners/{kind}/{id}/tokens.
//
// The bootstrap caller may mint for any owner; a token-authenticated
// caller may mint only for its own owner.
func (h *Handler) Mint(w http.ResponseWriter, r *http.Request) {
	owner := domain.OwnerRef{Kind: r.PathValue("kind"), ID: r.PathValue("id")}

	auth := AuthFrom(r.Context())
	if auth == nil {
		h.writeError(w, r, http.StatusUnauthorized, "TW-AUTH-4010", "unauthenticated")
		return
	}
	if !auth.Admin && auth.Token.Owner != owner {
		h.writeError(w, r, http.StatusForbidden, "TW-AUTH-4030", "cannot mint for another owner")
		return
	}

	var req MintTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "TW-SYS-4000", "invalid request body")
		return
	}

	mintReq := &service.MintRequest{
		Owner:     owner,
		Name:      req.Name,
		Abilities: req.Abilities,
	}
	if req.TTLSeconds != nil {
		ttl := time.Duration(*req.TTLSeconds) * time.Second
		mintReq.TTL = &ttl
	}

	result, err := h.svc.Mint(r.Context(), mintReq)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, MintTokenResponse{
		Token:      NewTokenView(result.Token),
		Credential: result.Credential,
	})
}

// List handles GET /v1/tokens: the authenticated owner's tokens,
// newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	tokens, err := h.svc.List(r.Context(), owner)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	items := make([]TokenView, 0, len(tokens))
	for _, tok := range tokens {
		items = append(items, NewTokenView(tok))
	}
	h.writeJSON(w, r, http.StatusOK, ListTokensResponse{Items: items, Total: len(items)})
}

// Get handles GET /v1/tokens/{id}, scoped to the authenticated owner.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	tok, err := h.svc.GetOwned(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, NewTokenView(tok))
}

// RevokeOne handles DELETE /v1/tokens/{id}. A token that does not
// exist, or belongs to someone else, yields 404.
func (h *Handler) RevokeOne(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	deleted, err := h.svc.RevokeOne(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if !deleted {
		h.writeError(w, r, http.StatusNotFound, domain.ErrTokenNotFound.Code, domain.ErrTokenNotFound.Message)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RevokeAll handles DELETE /v1/tokens. Repeatable "keep" query
// parameters exclude tokens from the purge ("log out everywhere but
// here").
func (h *Handler) RevokeAll(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	keep := r.URL.Query()["keep"]

	var (
		count int
		err   error
	)
	if len(keep) > 0 {
		count, err = h.svc.RevokeAllExcept(r.Context(), owner, keep)
	} else {
		count, err = h.svc.RevokeAll(r.Context(), owner)
	}
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, RevokeAllResponse{RevokedCount: count})
}

// CheckAbility handles GET /v1/tokens/check-ability?ability=X against
// the calling token's ability set.
func (h *Handler) CheckAbility(w http.ResponseWriter, r *http.Request) {
	auth := AuthFrom(r.Context())
	if auth == nil || auth.Token == nil {
		h.writeError(w, r, http.StatusUnauthorized, "TW-AUTH-4010", "token credential required")
		return
	}

	ability := r.URL.Query().Get("ability")
	if ability == "" {
		h.writeError(w, r, http.StatusBadRequest, "TW-SYS-4000", "ability query parameter is required")
		return
	}

	h.writeJSON(w, r, http.StatusOK, CheckAbilityResponse{
		Ability: ability,
		Allowed: service.Can(auth.Token.Token, ability),
	})
}

// MutateAbilities handles POST /v1/tokens/{id}/abilities, adding or
// removing one ability on a token of the authenticated owner.
func (h *Handler) MutateAbilities(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	var req MutateAbilitiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "TW-SYS-4000", "invalid request body")
		return
	}

	id := r.PathValue("id")

	// Ownership check before the mutation touches anything.
	if _, err := h.svc.GetOwned(r.Context(), owner, id); err != nil {
		h.serviceError(w, r, err)
		return
	}

	changed, err := h.svc.MutateAbilities(r.Context(), id, req.Add, req.Remove)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	tok, err := h.svc.GetOwned(r.Context(), owner, id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, MutateAbilitiesResponse{
		Changed:   changed,
		Abilities: tok.Abilities,
	})
}

// requireOwner resolves the owner the request acts for. Bootstrap
// callers have no owner of their own; they must scope owner-level
// operations through the mint route or the CLI.
func (h *Handler) requireOwner(w http.ResponseWriter, r *http.Request) (domain.OwnerRef, bool) {
	auth := AuthFrom(r.Context())
	if auth == nil {
		h.writeError(w, r, http.StatusUnauthorized, "TW-AUTH-4010", "unauthenticated")
		return domain.OwnerRef{}, false
	}
	if auth.Token == nil {
		h.writeError(w, r, http.StatusBadRequest, "TW-SYS-4000", "token credential required for owner-scoped operations")
		return domain.OwnerRef{}, false
	}
	return auth.Token.Owner, true
}
