package domain

import (
	"errors"
	"fmt"
)

// DomainError is a business error carrying a structured code.
//
// Codes are stable identifiers of the form TW-<AREA>-<NNNN>; two
// DomainErrors compare equal under errors.Is when their codes match.
type DomainError struct {
	Code    string // stable error code, e.g. "TW-AUTH-4010"
	Message string // human-readable message
	Details string // optional additional details
	Cause   error  // underlying error, if any
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports code equality for errors.Is support.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Details: details, Cause: e.Cause}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Details: e.Details, Cause: cause}
}

// ErrorCode extracts the code from an error, or "" if it is not a
// DomainError.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Token lifecycle errors.
var (
	// ErrOwnerNotFound indicates the minting owner is not known to the
	// owner registry.
	ErrOwnerNotFound = NewDomainError("TW-TOKN-4040", "owner not found")

	// ErrInvalidName indicates an empty or unusable token name.
	ErrInvalidName = NewDomainError("TW-TOKN-4001", "invalid token name")

	// ErrInvalidAbilities indicates a malformed ability list (empty
	// entry or duplicate).
	ErrInvalidAbilities = NewDomainError("TW-TOKN-4002", "invalid ability list")

	// ErrHashCollision indicates a secret digest collision on insert.
	// The issuer retries with fresh randomness before surfacing
	// ErrCreationFailed.
	ErrHashCollision = NewDomainError("TW-TOKN-4090", "secret digest conflict")

	// ErrCreationFailed indicates token creation failed after retry.
	ErrCreationFailed = NewDomainError("TW-TOKN-5001", "token creation failed")

	// ErrTokenNotFound indicates the token does not exist.
	ErrTokenNotFound = NewDomainError("TW-TOKN-4041", "token not found")

	// ErrVersionConflict indicates an optimistic-lock conflict.
	ErrVersionConflict = NewDomainError("TW-TOKN-4091", "version conflict, please retry")
)

// Authentication and authorization errors.
var (
	// ErrCredentialMalformed indicates bad credential syntax.
	ErrCredentialMalformed = NewDomainError("TW-AUTH-4000", "malformed credential")

	// ErrInvalidCredential indicates an unknown token id or a secret
	// mismatch. The two cases are deliberately merged so responses do
	// not reveal which part was wrong.
	ErrInvalidCredential = NewDomainError("TW-AUTH-4010", "invalid credential")

	// ErrCredentialExpired indicates the token exists but is past its
	// expiry.
	ErrCredentialExpired = NewDomainError("TW-AUTH-4011", "credential expired")

	// ErrAbilityDenied indicates the token lacks a required ability.
	ErrAbilityDenied = NewDomainError("TW-AUTH-4030", "ability denied")
)

// System errors.
var (
	// ErrInternal indicates an internal failure.
	ErrInternal = NewDomainError("TW-SYS-5000", "internal error")

	// ErrStorage indicates a storage layer failure.
	ErrStorage = NewDomainError("TW-SYS-5001", "storage error")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("TW-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("TW-SYS-4290", "too many requests")
)
