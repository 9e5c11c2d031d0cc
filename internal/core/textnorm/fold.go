// Package textnorm builds comparison keys for catalog titles and user queries.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Folder produces case-folded comparison keys. A Folder is not safe for
// concurrent use; create one per goroutine or use Fold.
type Folder struct {
	caser cases.Caser
}

func NewFolder() *Folder {
	return &Folder{caser: cases.Fold()}
}

// Key returns the NFKC-normalized, case-folded, trimmed form of s with control
// characters removed.
func (f *Folder) Key(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.TrimSpace(f.caser.String(s))
}

// Fold is a convenience wrapper for single keys.
func Fold(s string) string {
	return NewFolder().Key(s)
}
