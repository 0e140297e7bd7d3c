package textutil

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// StripMarkup removes every HTML tag from s and decodes entities.
func StripMarkup(s string) string {
	return html.UnescapeString(strictPolicy.Sanitize(s))
}

// CleanField prepares single-line user input for storage: markup and control
// characters are removed, whitespace is trimmed, and the result is capped at limit runes.
// A non-positive limit disables the cap.
func CleanField(value string, limit int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, StripMarkup(value))
	cleaned = strings.TrimSpace(cleaned)
	if limit > 0 && utf8.RuneCountInString(cleaned) > limit {
		cleaned = strings.TrimSpace(string([]rune(cleaned)[:limit]))
	}
	return cleaned
}
