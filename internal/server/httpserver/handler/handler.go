package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tokenward/tokenward-go/internal/core/domain"
	"github.com/tokenward/tokenward-go/internal/core/service"
)

// Handler carries the dependencies shared by all endpoint handlers.
type Handler struct {
	svc    *service.TokenService
	logger *slog.Logger
}

// New creates a Handler backed by the token service.
func New(svc *service.TokenService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// writeJSON writes a success response in the standard envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	response := NewResponse(RequestIDFrom(r.Context()), data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

// writeError writes an error response in the standard envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	response := NewErrorResponse(RequestIDFrom(r.Context()), code, message)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// serviceError translates a domain error into an HTTP response.
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var derr *domain.DomainError
	if errors.As(err, &derr) {
		h.writeError(w, r, statusForCode(derr.Code), derr.Code, derr.Message)
		return
	}

	h.logger.Error("internal error",
		"request_id", RequestIDFrom(r.Context()),
		"error", err)
	h.writeError(w, r, http.StatusInternalServerError, "TW-SYS-5000", "internal server error")
}

// statusForCode maps structured error codes to HTTP status codes. The
// numeric tail of a code is its intended status family.
func statusForCode(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"), strings.HasSuffix(code, "-4041"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"), strings.HasSuffix(code, "-4091"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.Contains(code, "-400"):
		return http.StatusBadRequest
	case strings.Contains(code, "-401"):
		return http.StatusUnauthorized
	case strings.Contains(code, "-403"):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
