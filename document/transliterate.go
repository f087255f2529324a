package document

import (
	"strings"

	"github.com/gosimple/slug"
)

// transliterateKey produces a diacritic-insensitive, lower-case,
// ASCII-transliterated comparison key for TOC titles, grounded on the
// teacher's Transliterate helper but simplified to a pure sort/search
// key rather than a display string: case and punctuation need not
// round-trip.
func transliterateKey(title string) string {
	if title == "" {
		return ""
	}
	prevLowercase := slug.Lowercase
	slug.Lowercase = true
	defer func() { slug.Lowercase = prevLowercase }()
	key := slug.Make(title)
	return strings.ReplaceAll(key, "-", " ")
}
