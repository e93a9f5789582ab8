// Package textx provides small text utilities used across the project.
package textx

import (
	"strings"
)

// SanitizeText removes control characters except tab/newline/CR and trims spaces.
func SanitizeText(s string) string {
	// strip control chars outside tab/newline/carriage return
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// SanitizePromptField prepares a user-supplied free-text field for embedding
// into a prompt: control characters stripped, internal whitespace collapsed,
// and the result capped at maxLen runes.
func SanitizePromptField(s string, maxLen int) string {
	s = SanitizeText(s)
	s = strings.Join(strings.Fields(s), " ")
	if maxLen > 0 {
		r := []rune(s)
		if len(r) > maxLen {
			s = strings.TrimSpace(string(r[:maxLen]))
		}
	}
	return s
}
