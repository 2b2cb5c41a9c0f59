package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"music-round/internal/logging"
	"music-round/internal/trivia"
)

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func (s *Server) writeEngineError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Errorw("request failed", "error", err)
		writeError(c, status, "internal error")
		return
	}
	writeError(c, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case trivia.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, trivia.ErrInvalidName),
		errors.Is(err, trivia.ErrInvalidSettings),
		errors.Is(err, trivia.ErrUnknownMode):
		return http.StatusBadRequest
	case errors.Is(err, trivia.ErrNotHost):
		return http.StatusForbidden
	case errors.Is(err, trivia.ErrRoundNotActive),
		errors.Is(err, trivia.ErrRoundNotStarted),
		errors.Is(err, trivia.ErrAnswerLocked),
		errors.Is(err, trivia.ErrHintsNotAvailable),
		errors.Is(err, trivia.ErrNoHintsRemaining),
		errors.Is(err, trivia.ErrAnswerAlreadyComplete),
		errors.Is(err, trivia.ErrGameAlreadyStarted),
		errors.Is(err, trivia.ErrNameTaken),
		errors.Is(err, trivia.ErrGameFull),
		errors.Is(err, trivia.ErrNoTracks):
		return http.StatusConflict
	case errors.Is(err, trivia.ErrJoinCodeExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
