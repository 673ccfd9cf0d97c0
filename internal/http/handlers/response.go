// Package handlers provides HTTP handler implementations for the public API.
//
// This file holds the response helpers shared by every endpoint. Errors always
// leave through fail(), which writes an ErrorResponse and logs 5xx results
// with the request-scoped logger; successes go through ok() or noContent().
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "game not found"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tictactoe-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"game not found"`
}

// fail aborts the request with an ErrorResponse. Statuses >= 500 are logged.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is fail for the router's NoRoute/NoMethod fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes body as JSON with status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes 204 with no body.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
