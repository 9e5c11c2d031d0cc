package jikan

import (
	"strings"
	"unicode"
)

const longTitleThreshold = 40

var titleSeparators = []string{" - ", ":", "—", "–", "|", "/"}

// searchTitle turns a catalog title into a query the Jikan search handles
// well. Long titles keep only the part before the first separator found.
func searchTitle(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r), r == '☆', r == '★':
			return ' '
		default:
			return r
		}
	}, title)
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if len([]rune(cleaned)) <= longTitleThreshold {
		return cleaned
	}
	for _, sep := range titleSeparators {
		if head, _, found := strings.Cut(cleaned, sep); found {
			return strings.TrimSpace(head)
		}
	}
	return cleaned
}
