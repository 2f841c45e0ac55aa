// Package searchtext builds the normalized search keys stored alongside
// display names: uppercased, diacritic-folded strings used for prefix
// drilldown and title search, plus the script class that segments the
// drilldown alphabets.
package searchtext

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Script classes for the first character of a name. Names are segmented by
// script so that the drilldown can present one alphabet at a time.
const (
	ScriptAny      = 0
	ScriptCyrillic = 1
	ScriptLatin    = 2
	ScriptDigit    = 3
	ScriptOther    = 9
)

// stripRunes are trimmed from the edges of extracted metadata strings.
const stripRunes = "»«'\"&-.#\\`;"


// StripMeta collapses whitespace and trims decoration punctuation commonly
// found in ebook metadata fields.
func StripMeta(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(stripRunes, r)
	})
}

// Normalize produces the search key for a display name: uppercased, with
// diacritics folded on Latin letters only, so "Café" and "Cafe" collide. In
// Cyrillic the combining marks form distinct letters (Й, Ё) and are kept.
func Normalize(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	var base rune
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			if unicode.Is(unicode.Latin, base) {
				continue
			}
			b.WriteRune(r)
			continue
		}
		base = r
		b.WriteRune(r)
	}
	return strings.ToUpper(norm.NFC.String(b.String()))
}

// DetectScript classifies a name by its first rune.
func DetectScript(s string) int {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			return ScriptLatin
		case r >= '0' && r <= '9':
			return ScriptDigit
		case unicode.Is(unicode.Cyrillic, r):
			return ScriptCyrillic
		}
		return ScriptOther
	}
	return ScriptOther
}

// NormalizeAuthorName canonicalizes an author display name to "Last First
// Middle" order. Names that already contain a comma are treated as
// pre-ordered and only have the comma removed.
func NormalizeAuthorName(name string) string {
	name = StripMeta(name)
	if name == "" {
		return ""
	}
	if strings.Contains(name, ",") {
		return strings.Join(strings.Fields(strings.ReplaceAll(name, ",", " ")), " ")
	}
	parts := strings.Fields(name)
	if len(parts) <= 1 {
		return name
	}
	last := parts[len(parts)-1]
	return last + " " + strings.Join(parts[:len(parts)-1], " ")
}
