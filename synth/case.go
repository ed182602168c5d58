package synth

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Casers are stateful and must not be shared between goroutines.
func upper() cases.Caser { return cases.Upper(language.Und) }
func lower() cases.Caser { return cases.Lower(language.Und) }

func convertCase(c Case, s, sample string) string {
	if s == "" {
		return s
	}
	switch c {
	case CasePreserve:
		if startsWithUpper(sample) {
			if isAllUpper(sample) {
				return upper().String(s)
			}
			return mapFirst(s, upper())
		}
	case CaseStartUpper:
		return mapFirst(s, upper())
	case CaseStartLower:
		return mapFirst(s, lower())
	case CaseAllUpper:
		return upper().String(s)
	case CaseAllLower:
		return lower().String(s)
	case CaseStripDiacritics:
		return StripDiacritics(s)
	}
	return s
}

// mapFirst applies caser to the first rune of s only.
func mapFirst(s string, caser cases.Caser) string {
	_, n := utf8.DecodeRuneInString(s)
	return caser.String(s[:n]) + s[n:]
}

// UpperFirst uppercases the first letter of s.
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	return mapFirst(s, upper())
}

// StartsWithUpper reports whether s begins with an uppercase letter.
func StartsWithUpper(s string) bool { return startsWithUpper(s) }

func startsWithUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// isAllUpper reports whether s has no lowercase letters.
func isAllUpper(s string) bool {
	return !strings.ContainsFunc(s, unicode.IsLower)
}

// StripDiacritics removes combining marks from s: "café" becomes "cafe".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
