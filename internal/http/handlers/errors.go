// Package handlers defines the stable error codes returned by the API and
// the mapping from service errors to HTTP statuses.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lesson-tutor/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeEmptyMessage           = "empty_message"
	ErrCodeMessageTooLong         = "message_too_long"
	ErrCodeInvalidProfile         = "invalid_profile"
	ErrCodeAssistantNotConfigured = "assistant_not_configured"
	ErrCodeRunTimeout             = "run_timeout"
	ErrCodeRunFailed              = "run_failed"
	ErrCodeUpstreamUnavailable    = "upstream_unavailable"
)

// errorMapping pairs a service error with its HTTP status and code. Order
// matters: the first errors.Is match wins.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrEmptyMessage, http.StatusBadRequest, ErrCodeEmptyMessage},
	{services.ErrTooLong, http.StatusBadRequest, ErrCodeMessageTooLong},
	{services.ErrInvalidChatType, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrCourseRequired, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrLessonRequired, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrInvalidProfile, http.StatusBadRequest, ErrCodeInvalidProfile},
	{services.ErrCourseNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrLessonNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrProfileNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrMissingAssistantConfiguration, http.StatusInternalServerError, ErrCodeAssistantNotConfigured},
	{services.ErrRunTimeout, http.StatusGatewayTimeout, ErrCodeRunTimeout},
	{services.ErrRunFailed, http.StatusBadGateway, ErrCodeRunFailed},
	{services.ErrUpstreamUnavailable, http.StatusServiceUnavailable, ErrCodeUpstreamUnavailable},
}

// statusFor returns the HTTP status, code and client-facing message for a
// service error. Mapped errors answer with the sentinel text so provider
// details stay out of responses; a failed run keeps its terminal status.
func statusFor(err error) (int, string, string) {
	var rf *services.RunFailedError
	if errors.As(err, &rf) {
		return http.StatusBadGateway, ErrCodeRunFailed, rf.Error()
	}
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return m.status, m.code, m.err.Error()
		}
	}
	return http.StatusInternalServerError, ErrCodeInternal, "internal server error"
}

// serviceError writes the envelope for err and records err on the context
// so the access log carries the full cause.
func serviceError(c *gin.Context, err error, threadID string) {
	status, code, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	failWithThread(c, status, code, msg, threadID)
}
