package server

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	maxNameLength     = 20
	maxGuessLength    = 120
	maxPlaylistLength = 32
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("name", func(fl validator.FieldLevel) bool {
			return validText(fl.Field().String(), maxNameLength)
		})
		_ = engine.RegisterValidation("guess", func(fl validator.FieldLevel) bool {
			return validText(fl.Field().String(), maxGuessLength)
		})
		_ = engine.RegisterValidation("playlist", func(fl validator.FieldLevel) bool {
			return validPlaylist(fl.Field().String())
		})
	})
}

func validText(text string, maxLen int) bool {
	trimmed := normalizeText(text)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > maxLen {
		return false
	}
	return isSafeText(trimmed)
}

func validPlaylist(tag string) bool {
	trimmed := strings.TrimSpace(tag)
	if trimmed == "" || len(trimmed) > maxPlaylistLength {
		return false
	}
	for _, r := range trimmed {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == ' ' {
			continue
		}
		return false
	}
	return true
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// isSafeText allows letters and digits in any script plus the punctuation
// that shows up in band names and song titles.
func isSafeText(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) {
			continue
		}
		switch r {
		case ' ', '-', '_', '\'', '"', '.', ',', '!', '?', ':', ';', '&', '(', ')', '/', '+', '#', '$', '*', '’':
			continue
		default:
			return false
		}
	}
	return true
}
