// Package hints picks which letters of a correct answer get revealed to a
// player asking for a hint.
package hints

import (
	"unicode"

	"github.com/valyala/fastrand"
)

// LettersPerHint is how many letters of each of artist and title one hint
// reveals.
const LettersPerHint = 2

// Letter is one revealed position: a rune index into the normalized correct
// text and the rune found there.
type Letter struct {
	Index int    `json:"index"`
	Char  string `json:"char"`
}

// Intn returns a uniformly distributed int in [0, n).
type Intn func(n int) int

// FastIntn draws from fastrand.
func FastIntn(n int) int {
	return int(fastrand.Uint32n(uint32(n)))
}

// RevealMore returns revealed extended with up to n new letters of text,
// chosen uniformly at random among the letters and digits not revealed yet.
// Spaces and punctuation are never picked.
func RevealMore(text string, n int, revealed []Letter, rng Intn) []Letter {
	if rng == nil {
		rng = FastIntn
	}
	out := make([]Letter, len(revealed), len(revealed)+n)
	copy(out, revealed)
	if n <= 0 {
		return out
	}

	taken := make(map[int]struct{}, len(revealed))
	for _, letter := range revealed {
		taken[letter.Index] = struct{}{}
	}
	chars := []rune(text)
	pool := make([]int, 0, len(chars))
	for i, r := range chars {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		if _, ok := taken[i]; ok {
			continue
		}
		pool = append(pool, i)
	}

	// Partial Fisher-Yates: the first n slots end up a uniform sample.
	for i := 0; i < n && i < len(pool); i++ {
		j := i + rng(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
		out = append(out, Letter{Index: pool[i], Char: string(chars[pool[i]])})
	}
	return out
}

// Mask renders text with every unrevealed letter or digit replaced by '_'.
func Mask(text string, revealed []Letter) string {
	shown := make(map[int]struct{}, len(revealed))
	for _, letter := range revealed {
		shown[letter.Index] = struct{}{}
	}
	chars := []rune(text)
	for i, r := range chars {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		if _, ok := shown[i]; !ok {
			chars[i] = '_'
		}
	}
	return string(chars)
}
