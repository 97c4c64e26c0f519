package common

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateOutputFormat validates format against the supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// ResolveFormat picks the requested format, falling back to the configured default
func ResolveFormat(requested, defaultFormat string) string {
	if f := strings.ToLower(strings.TrimSpace(requested)); f != "" {
		return f
	}
	if defaultFormat != "" {
		return defaultFormat
	}
	return "json"
}
