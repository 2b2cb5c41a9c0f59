package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindMessages maps struct field -> validation tag -> client message.
type bindMessages map[string]map[string]string

func bindJSON(c *gin.Context, req any, messages bindMessages, fallback string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, http.StatusBadRequest, resolveBindError(err, messages, fallback))
		return false
	}
	return true
}

func resolveBindError(err error, messages bindMessages, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			if msg, ok := messages[verr.Field()][verr.Tag()]; ok {
				return msg
			}
		}
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return typeErr.Field + " has the wrong type"
	}
	if errors.Is(err, io.EOF) {
		return "request body is required"
	}
	if fallback != "" {
		return fallback
	}
	return "invalid request"
}
