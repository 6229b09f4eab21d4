package workflow

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var markupTags = regexp.MustCompile(`<[^>]*>`)

// StripMarkup removes HTML tags from a thread body, replacing each tag with
// a space so adjacent words do not merge.
func StripMarkup(body string) string {
	return markupTags.ReplaceAllString(body, " ")
}

// ExtractUTR scans free text for a bank UTR number. Every run of
// non-alphanumeric characters is collapsed to a single space, the text is
// split on spaces, and the first token whose rune length is exactly 12, 16
// or 22 and which contains at least one digit is returned. No match yields
// the empty string.
func ExtractUTR(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}

	for _, token := range strings.Fields(b.String()) {
		switch utf8.RuneCountInString(token) {
		case 12, 16, 22:
			if containsDigit(token) {
				return token
			}
		}
	}
	return ""
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
