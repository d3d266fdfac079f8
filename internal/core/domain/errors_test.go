package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Is(t *testing.T) {
	err := ErrInvalidCredential.WithDetails("digest mismatch")

	if !errors.Is(err, ErrInvalidCredential) {
		t.Error("detailed copy should match its base error")
	}
	if errors.Is(err, ErrCredentialExpired) {
		t.Error("different codes should not match")
	}
}

func TestDomainError_WrapUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := ErrStorage.WithCause(cause)

	if !errors.Is(err, ErrStorage) {
		t.Error("wrapped error should match its base")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause through Unwrap")
	}

	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatal("errors.As should extract *DomainError")
	}
	if de.Code != ErrStorage.Code {
		t.Errorf("code = %q, want %q", de.Code, ErrStorage.Code)
	}
}

func TestDomainError_Error(t *testing.T) {
	plain := NewDomainError("TW-TEST-0001", "boom")
	if got := plain.Error(); got != "[TW-TEST-0001] boom" {
		t.Errorf("Error() = %q", got)
	}

	detailed := plain.WithDetails("extra")
	if got := detailed.Error(); got != "[TW-TEST-0001] boom: extra" {
		t.Errorf("Error() with details = %q", got)
	}
}

func TestErrorCode(t *testing.T) {
	if got := ErrorCode(ErrTokenNotFound); got != "TW-TOKN-4041" {
		t.Errorf("ErrorCode = %q", got)
	}
	if got := ErrorCode(fmt.Errorf("plain")); got != "" {
		t.Errorf("ErrorCode of non-domain error = %q, want empty", got)
	}
	if got := ErrorCode(fmt.Errorf("wrapped: %w", ErrCredentialExpired)); got != "TW-AUTH-4011" {
		t.Errorf("ErrorCode of wrapped error = %q", got)
	}
}
