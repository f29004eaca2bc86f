package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-lesson-tutor/internal/http/middleware"
	"github.com/tbourn/go-lesson-tutor/internal/llm"
	"github.com/tbourn/go-lesson-tutor/internal/services"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestFailWithThread_500LogsAndEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := gin.New()
	r.Use(middleware.RequestID(), func(c *gin.Context) {
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/boom", func(c *gin.Context) {
		failWithThread(c, http.StatusGatewayTimeout, ErrCodeRunTimeout, "assistant run timed out", "thread_9")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-ID", "rid-504")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("status=%d", w.Code)
	}
	resp := decodeError(t, w)
	want := ErrorResponse{Success: false, Error: "assistant run timed out", Code: ErrCodeRunTimeout, RequestID: "rid-504", ThreadID: "thread_9"}
	if resp != want {
		t.Fatalf("envelope = %+v; want %+v", resp, want)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) || !strings.Contains(buf.String(), "thread_9") {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func TestFail_4xxOmitsThreadAndDoesNotLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("logger", &logger); c.Next() })
	r.GET("/missing", func(c *gin.Context) { Fail(c, http.StatusNotFound, ErrCodeNotFound, "route not found") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if strings.Contains(w.Body.String(), "threadId") {
		t.Fatalf("threadId should be omitted: %s", w.Body.String())
	}
	if buf.Len() != 0 {
		t.Fatalf("4xx should not log: %s", buf.String())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"empty message", services.ErrEmptyMessage, http.StatusBadRequest, ErrCodeEmptyMessage, "message is empty"},
		{"too long", services.ErrTooLong, http.StatusBadRequest, ErrCodeMessageTooLong, "message too long"},
		{"chat type", services.ErrInvalidChatType, http.StatusBadRequest, ErrCodeBadRequest, services.ErrInvalidChatType.Error()},
		{"invalid profile", fmt.Errorf("%w: email", services.ErrInvalidProfile), http.StatusBadRequest, ErrCodeInvalidProfile, "invalid profile"},
		{"course", services.ErrCourseNotFound, http.StatusNotFound, ErrCodeNotFound, "course not found"},
		{"lesson", services.ErrLessonNotFound, http.StatusNotFound, ErrCodeNotFound, "lesson not found"},
		{"no assistant", services.ErrMissingAssistantConfiguration, http.StatusInternalServerError, ErrCodeAssistantNotConfigured, services.ErrMissingAssistantConfiguration.Error()},
		{"timeout", services.ErrRunTimeout, http.StatusGatewayTimeout, ErrCodeRunTimeout, "assistant run timed out"},
		{"run failed", &services.RunFailedError{Status: llm.RunFailed, Reason: "rate_limit_exceeded"}, http.StatusBadGateway, ErrCodeRunFailed, "assistant run ended with status failed: rate_limit_exceeded"},
		{"upstream hides cause", fmt.Errorf("%w: create thread: dial tcp: refused", services.ErrUpstreamUnavailable), http.StatusServiceUnavailable, ErrCodeUpstreamUnavailable, "assistant service unavailable"},
		{"unmapped", errors.New("disk full"), http.StatusInternalServerError, ErrCodeInternal, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, msg := statusFor(tt.err)
			if status != tt.wantStatus || code != tt.wantCode || msg != tt.wantMsg {
				t.Fatalf("statusFor = (%d, %q, %q); want (%d, %q, %q)", status, code, msg, tt.wantStatus, tt.wantCode, tt.wantMsg)
			}
		})
	}
}
