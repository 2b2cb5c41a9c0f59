package trivia

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"music-round/internal/hints"
)

const maxJoinCodeAttempts = 10

var joinCodeWords = []string{
	"ROCK", "JAZZ", "FUNK", "SOUL", "BEAT", "BASS", "DRUM", "HORN",
	"TUNE", "SONG", "HOOK", "RIFF", "LOOP", "DISC", "TAPE", "ALTO",
	"BAND", "DUET", "SOLO", "POPS", "RAVE", "FOLK", "CLEF", "KEYS",
	"NOTE", "AMPS", "GIGS", "HITS", "LYRE", "OBOE", "HARP", "FIFE",
}

// newJoinCode returns a word from the bank followed by three digits, e.g.
// ROCK042.
func newJoinCode(rng hints.Intn) string {
	return fmt.Sprintf("%s%03d", joinCodeWords[rng(len(joinCodeWords))], rng(1000))
}

const sessionTokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func newSessionToken() (string, error) {
	return gonanoid.Generate(sessionTokenAlphabet, 24)
}
