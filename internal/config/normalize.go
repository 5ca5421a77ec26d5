package config

import (
	"regexp"
	"strings"
)

const fallbackProviderID = "openai"

var providerIDCleanRe = regexp.MustCompile(`[^a-z0-9_-]+`)

// NormalizeProviderID converts a user-entered provider name into a valid
// config key: lowercase, max 64 chars, only [a-z0-9_-], runs of invalid
// characters collapsed to a single "-", leading/trailing dashes stripped.
// An empty result falls back to "openai".
func NormalizeProviderID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = providerIDCleanRe.ReplaceAllString(id, "-")
	id = strings.Trim(id, "-")
	if len(id) > 64 {
		id = strings.TrimRight(id[:64], "-")
	}
	if id == "" {
		return fallbackProviderID
	}
	return id
}
