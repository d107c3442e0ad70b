package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tavonga/careconnect/internal/fault"
)

// apiError is the error payload inside the envelope.
type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// errorEnvelope wraps every error response.
type errorEnvelope struct {
	Error apiError `json:"error"`
}

// respondError maps a domain error onto an HTTP status and JSON envelope.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *fault.ValidationError
		conflictErr   *fault.ConflictError
		stateErr      *fault.InvalidStateError
	)
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, errorEnvelope{apiError{Message: err.Error(), Code: "validation_error"}})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, errorEnvelope{apiError{Message: err.Error(), Code: "conflict"}})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, errorEnvelope{apiError{Message: err.Error(), Code: "invalid_state"}})
	case errors.Is(err, fault.ErrNotFound):
		c.JSON(http.StatusNotFound, errorEnvelope{apiError{Message: err.Error(), Code: "not_found"}})
	default:
		c.JSON(http.StatusInternalServerError, errorEnvelope{apiError{Message: err.Error(), Code: "internal"}})
	}
}

// badRequest reports a malformed request body or parameter.
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorEnvelope{apiError{Message: msg, Code: "bad_request"}})
}
