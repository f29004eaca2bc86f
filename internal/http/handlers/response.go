// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by every endpoint. Failures
// always use the same envelope so clients can branch on a stable code:
//
//	HTTP/1.1 504 Gateway Timeout
//	{
//	  "success": false,
//	  "error": "assistant run timed out",
//	  "code": "run_timeout",
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "threadId": "thread_abc"
//	}
//
// threadId is present only when a chat submission failed after its
// conversation thread was resolved, so the client can retry on it.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lesson-tutor/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	Success bool `json:"success" example:"false"`
	// Human-readable message, safe to show to users
	Error string `json:"error" example:"course not found"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code" example:"not_found"`
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Conversation to retry on, for chat failures only
	ThreadID string `json:"threadId,omitempty" example:"thread_abc123"`
}

// fail aborts the request with the error envelope. 5xx responses are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	failWithThread(c, status, code, msg, "")
}

// failWithThread is fail with the conversation thread id attached.
func failWithThread(c *gin.Context, status int, code, msg, threadID string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("error", msg).
			Str("thread_id", threadID).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Success:   false,
		Error:     msg,
		Code:      code,
		RequestID: middleware.RequestIDFrom(c),
		ThreadID:  threadID,
	})
}

// Fail is the exported variant of fail for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
