package service

import (
	"context"
	"errors"
	"time"

	"github.com/tokenward/tokenward-go/internal/core/domain"
	"github.com/tokenward/tokenward-go/internal/telemetry/metric"
)

// AuthenticatedToken is the result of a successful credential check.
type AuthenticatedToken struct {
	Token *domain.Token
	Owner domain.OwnerRef
}

// Authenticate resolves a plaintext credential {id}|{secret} to its
// token.
//
// Failures are distinguished internally (ErrCredentialMalformed,
// ErrInvalidCredential, ErrCredentialExpired) so callers can meter
// them, but the HTTP layer collapses all of them into one generic 401.
// Unknown IDs and digest mismatches both yield ErrInvalidCredential.
//
// This is the hot path: one indexed read, a constant-time digest
// comparison, and a fire-and-forget last-used update.
func (s *TokenService) Authenticate(ctx context.Context, credential string) (*AuthenticatedToken, error) {
	id, secret, err := domain.ParseCredential(credential)
	if err != nil {
		s.countAuth(metric.ResultMalformed)
		return nil, err
	}

	tok, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			s.countAuth(metric.ResultInvalid)
			return nil, domain.ErrInvalidCredential
		}
		s.countAuth(metric.ResultError)
		return nil, err
	}

	if !domain.VerifySecret(secret, tok.SecretHash) {
		s.countAuth(metric.ResultInvalid)
		return nil, domain.ErrInvalidCredential
	}

	if tok.IsExpired() {
		s.countAuth(metric.ResultExpired)
		return nil, domain.ErrCredentialExpired
	}

	// Best-effort: a failed touch must never fail authentication. The
	// store keeps the field monotonic under concurrent verifications.
	if err := s.store.Touch(ctx, tok.ID, time.Now().UnixMilli()); err != nil {
		s.logger.Warn("last-used update failed", "token_id", tok.ID, "error", err)
	}

	s.countAuth(metric.ResultOK)
	return &AuthenticatedToken{Token: tok, Owner: tok.Owner()}, nil
}

func (s *TokenService) countAuth(result string) {
	if s.metrics != nil {
		s.metrics.AuthAttempts.WithLabelValues(result).Inc()
	}
}
