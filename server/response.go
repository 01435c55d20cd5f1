package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richinex/ollamabridge/llm"
)

// Anthropic error types.
const (
	errInvalidRequest = "invalid_request_error"
	errNotFound       = "not_found_error"
	errAPI            = "api_error"
)

// ErrorResponse is the Anthropic error envelope.
type ErrorResponse struct {
	Type  string      `json:"type"`
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one error.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func writeError(c *gin.Context, status int, errType, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Type:  "error",
		Error: ErrorDetail{Type: errType, Message: message},
	})
}

func badRequest(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, errInvalidRequest, message)
}

// writeRuntimeError maps a runtime failure onto a status and error type.
func writeRuntimeError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case llm.IsRuntimeUnavailable(err):
		writeError(c, http.StatusServiceUnavailable, errAPI, err.Error())
	case llm.IsModelNotFound(err):
		writeError(c, http.StatusNotFound, errNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, errAPI, err.Error())
	}
}
