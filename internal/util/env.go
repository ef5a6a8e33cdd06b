// Package util holds small helpers for reading configuration from the
// process environment.
package util

import (
	"log/slog"
	"os"
	"strings"
)

// ParseBoolEnv reads key from the environment and interprets it as a
// boolean flag. Recognized spellings are true/1/yes/on and
// false/0/no/off, matched case-insensitively after trimming whitespace.
// Unset or unrecognized values fall back to defaultValue; unrecognized
// ones also log a warning.
func ParseBoolEnv(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	slog.Warn("ParseBoolEnv: unrecognized boolean value, using default",
		"key", key, "value", raw, "default", defaultValue)
	return defaultValue
}
