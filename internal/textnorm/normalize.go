// Package textnorm turns free-text artist and title guesses into a canonical
// form so that two spellings of the same song compare equal.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const releaseKeywords = `remastered|remaster|re-master|remix|deluxe|edition|version|live|acoustic`

var (
	bracketSuffix = regexp.MustCompile(`\s*[(\[][^()\[\]]*(?:` + releaseKeywords + `)[^()\[\]]*[)\]]`)
	ampersand     = regexp.MustCompile(`\s*&\s*`)
	hyphenSuffix  = regexp.MustCompile(`\s*-.*(?:` + releaseKeywords + `).*$`)
	leadingThe    = regexp.MustCompile(`^the\s+`)
)

// combiningMarks covers the Combining Diacritical Marks block.
var combiningMarks = runes.Predicate(func(r rune) bool {
	return r >= 0x0300 && r <= 0x036f
})

// Normalize returns the canonical comparable form of text. The steps run in a
// fixed order; later steps rely on the output of earlier ones.
func Normalize(text string) string {
	s := strings.ToLower(text)
	s = stripMarks(s)
	s = strings.TrimSpace(s)
	s = bracketSuffix.ReplaceAllString(s, "")
	s = strings.Map(keepRune("&-/"), s)
	s = ampersand.ReplaceAllString(s, " and ")
	s = hyphenSuffix.ReplaceAllString(s, "")
	s = leadingThe.ReplaceAllString(s, "")
	s = strings.NewReplacer("-", " ", "/", " ").Replace(s)
	s = strings.Map(keepRune(""), s)
	return strings.Join(strings.Fields(s), " ")
}

// Equal reports whether a and b normalize to the same string.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(combiningMarks))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// keepRune drops everything except letters, digits, whitespace and the given
// extra characters.
func keepRune(extra string) func(rune) rune {
	return func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		if extra != "" && strings.ContainsRune(extra, r) {
			return r
		}
		return -1
	}
}
