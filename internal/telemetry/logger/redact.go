package logger

import (
	"log/slog"
	"strings"
)

// Key fragments naming attributes that must never be logged in clear.
var sensitiveKeyPatterns = []string{
	"password",
	"passphrase",
	"secret",
	"token",
	"credential",
	"authorization",
	"bearer",
}

const redactedValue = "***REDACTED***"

const bearerPrefix = "Bearer "

// redactSensitive masks bearer values and replaces secret-named attributes.
// Value masking runs first so a bearer header keeps its scheme and hints.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if hasBearer(strVal) {
			return slog.String(a.Key, maskValue(strVal, strVal[:len(bearerPrefix)]))
		}
		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

func hasBearer(s string) bool {
	return len(s) >= len(bearerPrefix) && strings.EqualFold(s[:len(bearerPrefix)], bearerPrefix)
}

// maskValue keeps prefix plus the first and last three characters.
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) <= 6 {
		return prefix + "***"
	}
	return prefix + body[:3] + "..." + body[len(body)-3:]
}

// RedactString masks a bearer value for use outside structured attributes,
// e.g. in a formatted error message. Other values are returned unchanged.
func RedactString(value string) string {
	if hasBearer(value) {
		return maskValue(value, value[:len(bearerPrefix)])
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
