package redact

import (
	"regexp"
	"strings"
)

var (
	// OpenAI-style keys: sk-..., sk-proj-...
	apiKeyPattern = regexp.MustCompile(`\bsk-([A-Za-z0-9]{4})[A-Za-z0-9_-]{12,}`)

	bearerPattern = regexp.MustCompile(`\bBearer\s+[A-Za-z0-9_\-\.=]+`)
)

// Redact masks sensitive patterns in a string. Any explicitly passed secrets
// (configured keys) are masked first, wherever they appear.
func Redact(s string, secrets ...string) string {
	for _, secret := range secrets {
		secret = strings.TrimSpace(secret)
		if len(secret) < 8 {
			continue
		}
		s = strings.ReplaceAll(s, secret, Mask(secret))
	}

	s = apiKeyPattern.ReplaceAllString(s, "sk-$1***")
	s = bearerPattern.ReplaceAllString(s, "Bearer ***")

	return s
}

// Mask shortens a key for display, keeping only a recognizable prefix and suffix.
func Mask(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:6] + "…" + key[len(key)-4:]
}
