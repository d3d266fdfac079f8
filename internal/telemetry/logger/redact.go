package logger

import (
	"log/slog"
	"strings"
)

// Value prefixes that mark credential material.
var sensitiveValuePrefixes = []string{
	"tws_", // plaintext token secret
}

// Key substrings suggesting a sensitive value.
var sensitiveKeyPatterns = []string{
	"secret",
	"credential",
	"password",
	"bearer",
	"authorization",
}

// redactedValue replaces fully redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive redacts an attribute when its value carries a
// credential prefix or its key suggests sensitive content. Prefixed
// values are partially masked so log lines stay correlatable; key-name
// matches are fully redacted.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		val := a.Value.String()
		for _, prefix := range sensitiveValuePrefixes {
			if idx := strings.Index(val, prefix); idx >= 0 {
				return slog.String(a.Key, maskValue(val, idx, prefix))
			}
		}

		keyLower := strings.ToLower(a.Key)
		for _, pattern := range sensitiveKeyPatterns {
			if strings.Contains(keyLower, pattern) {
				if val != "" {
					return slog.String(a.Key, redactedValue)
				}
				break
			}
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			redacted[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	return a
}

// maskValue keeps everything before the secret prefix plus the prefix
// and the first three secret characters; the rest is dropped.
func maskValue(val string, idx int, prefix string) string {
	head := val[:idx+len(prefix)]
	body := val[idx+len(prefix):]
	if len(body) > 3 {
		return head + body[:3] + "..."
	}
	return head + "***"
}
