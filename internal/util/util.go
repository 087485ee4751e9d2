// Package util provides common utility functions used across framemark.
package util

import (
	"path/filepath"
	"strings"
)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FileStem returns the file name without directory or extension.
// Sessions take their name from the source file stem.
func FileStem(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
