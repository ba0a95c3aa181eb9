package resolver

import (
	"strings"
	"unicode"
)

// Administrative decorations that carry no identity: an operator typing
// "Kab. Bandung Barat" means the same entity as "Bandung Barat", and
// "DKI Jakarta" the same as "Jakarta".
var stopTokens = map[string]bool{
	"kab":       true,
	"kabupaten": true,
	"kota":      true,
	"kec":       true,
	"kecamatan": true,
	"prov":      true,
	"provinsi":  true,
	"dki":       true,
	"di":        true,
	"daerah":    true,
	"istimewa":  true,
	"khusus":    true,
	"ibukota":   true,
	"bank":      true,
	"pt":        true,
	"tbk":       true,
}

var diacritics = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ä': 'a', 'ã': 'a', 'å': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
	'ó': 'o', 'ò': 'o', 'ô': 'o', 'ö': 'o', 'õ': 'o',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
	'ý': 'y', 'ÿ': 'y',
	'ñ': 'n', 'ç': 'c',
}

// Normalize prepares a string for similarity comparison: lowercase, strip
// diacritics, replace punctuation with spaces, drop administrative stop
// tokens, and collapse whitespace. If stripping stop tokens would leave
// nothing (the input was only decorations), the tokens are kept so the
// comparison still has something to work with.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if mapped, ok := diacritics[r]; ok {
			r = mapped
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	tokens := strings.Fields(b.String())
	kept := tokens[:0:len(tokens)]
	for _, token := range tokens {
		if !stopTokens[token] {
			kept = append(kept, token)
		}
	}
	if len(kept) == 0 {
		kept = strings.Fields(strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return ' '
		}, s))
	}

	return strings.Join(kept, " ")
}

// tokenSubset reports whether every token of a appears among the tokens
// of b.
func tokenSubset(a, b string) bool {
	bTokens := make(map[string]bool)
	for _, token := range strings.Fields(b) {
		bTokens[token] = true
	}
	for _, token := range strings.Fields(a) {
		if !bTokens[token] {
			return false
		}
	}
	return true
}

// sharesRunes reports whether the two strings have at least one letter or
// digit in common. Inputs with zero character overlap against a candidate
// must not produce a spurious low-but-nonzero score.
func sharesRunes(a, b string) bool {
	runes := make(map[rune]bool)
	for _, r := range a {
		if r != ' ' {
			runes[r] = true
		}
	}
	for _, r := range b {
		if r != ' ' && runes[r] {
			return true
		}
	}
	return false
}
