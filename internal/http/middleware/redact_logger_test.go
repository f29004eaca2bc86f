package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"empty", "", ""},
		{"email", "contact=ana.k@example.com", "contact=[REDACTED:email]"},
		{"uuid", "thread=123e4567-e89b-42d3-a456-426614174000", "thread=[REDACTED:id]"},
		{"phone", "call 555 123 4567 now", "call [REDACTED:phone] now"},
		{"plain", "lessonId=lesson_1&page=2", "lessonId=lesson_1&page=2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Redact(tt.in); got != tt.want {
				t.Fatalf("Redact(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRedactingLogger_LevelsAndMasking(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{Logger: &base, MaskHeaders: []string{"X-Api-Key"}}))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "secret reply text") })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	req := httptest.NewRequest(http.MethodGet, "/ok?email=ana@example.com", nil)
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set("X-Api-Key", "k-1")
	req.Header.Set("X-Note", "reach me at ana@example.com")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	lines := logLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("want 3 access lines, got %d: %s", len(lines), buf.String())
	}

	first := lines[0]
	if first["level"] != "info" || first["message"] != "http_request" || first["path"] != "/ok" {
		t.Fatalf("unexpected first line: %v", first)
	}
	if q, _ := first["query"].(string); q != "email=[REDACTED:email]" {
		t.Fatalf("query not redacted: %q", q)
	}
	headers, _ := first["headers"].(map[string]any)
	if headers["Authorization"] != "[REDACTED]" || headers["X-Api-Key"] != "[REDACTED]" {
		t.Fatalf("credential headers leaked: %v", headers)
	}
	if headers["X-Note"] != "reach me at [REDACTED:email]" {
		t.Fatalf("header value not redacted: %v", headers["X-Note"])
	}
	if strings.Contains(buf.String(), "secret reply text") {
		t.Fatalf("response body was logged")
	}

	if lines[1]["level"] != "warn" || lines[2]["level"] != "error" {
		t.Fatalf("levels = %v, %v", lines[1]["level"], lines[2]["level"])
	}
}

func TestRedactingLogger_UserIDAfterAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{Logger: &base}))
	r.Use(func(c *gin.Context) { c.Set(userIDKey, "learner-7"); c.Next() })
	r.GET("/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/me", nil))

	lines := logLines(t, &buf)
	if len(lines) != 1 || lines[0]["user_id"] != "learner-7" {
		t.Fatalf("user_id missing: %v", lines)
	}
}
