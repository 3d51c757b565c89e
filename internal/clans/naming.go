package clans

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	colorCodes  = regexp.MustCompile(`&[a-fA-F0-9k-oK-OrR]`)
	namePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-\s]+$`)
)

// RemoveColors strips '&'-prefixed color and format codes.
func RemoveColors(s string) string {
	return colorCodes.ReplaceAllString(s, "")
}

// ValidateName checks a display name and returns its colorless form.
func ValidateName(name string, minLen, maxLen int) (string, bool) {
	if strings.TrimSpace(name) == "" {
		return "", false
	}
	colorless := RemoveColors(name)
	n := utf8.RuneCountInString(colorless)
	if n < minLen || n > maxLen {
		return "", false
	}
	if !namePattern.MatchString(colorless) {
		return "", false
	}
	return colorless, true
}
