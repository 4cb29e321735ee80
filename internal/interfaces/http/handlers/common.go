// Package handlers implements the API server's HTTP handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/turtacn/EntiTag-Intelligence/internal/interfaces/http/middleware"
	"github.com/turtacn/EntiTag-Intelligence/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// respondError maps an error to its HTTP status via the error-code taxonomy
// and writes the structured body.  Server-side errors are masked so internal
// detail never leaks to clients.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = errors.DefaultMessageForCode(code)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:      string(code),
		Message:   message,
		RequestID: middleware.GetRequestID(c),
	})
}

// respondBadRequest writes a 400 for malformed request bodies.
func respondBadRequest(c *gin.Context, err error) {
	respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body"))
}
