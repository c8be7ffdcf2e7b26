package logger

import (
	"net/url"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// secretKeys are matched as substrings of lower-cased field names.
var secretKeys = []string{"token", "pwd", "password", "key", "secret"}

const redacted = "[REDACTED]"

func redactValue(key, val string) string {
	key = strings.ToLower(key)
	for _, s := range secretKeys {
		if strings.Contains(key, s) {
			return redacted
		}
	}
	// Redact email fields
	if strings.Contains(key, "email") || strings.Contains(key, "login") {
		return RedactEmail(val)
	}
	// Redact any embedded emails in generic fields
	return emailRegex.ReplaceAllStringFunc(val, RedactEmail)
}

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactQuery replaces the values of secret-looking query parameters in a
// raw query string. Parameter order follows url.Values encoding.
func RedactQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return redacted
	}
	for k := range values {
		if redactValue(k, "") == redacted {
			values[k] = []string{redacted}
		}
	}
	return values.Encode()
}
