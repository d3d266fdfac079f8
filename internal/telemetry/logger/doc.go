// Package logger provides structured logging for tokenward.
//
// It wraps log/slog with JSON output by default, automatic redaction
// of credential material (tws_-prefixed values and sensitive key
// names), and request-ID propagation through context.
package logger
