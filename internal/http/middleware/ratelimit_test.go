package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")
	req.Header.Set(userIDHeader, "spoofed")
	c.Request = req

	if key := KeyByUserOrIP()(c); key != "ip:203.0.113.9" {
		t.Fatalf("unauthenticated key = %q", key)
	}
	c.Set(userIDKey, "u123")
	if key := KeyByUserOrIP()(c); key != "user:u123" {
		t.Fatalf("authenticated key = %q", key)
	}
}

func TestNewRateLimiter_DefaultsAndReuse(t *testing.T) {
	rl := NewRateLimiter(2, 0, nil)
	if rl.burst != 1 || rl.keyFn == nil {
		t.Fatalf("defaults not applied: burst=%d", rl.burst)
	}
	lim := rl.limiterFor("k1")
	if rl.limiterFor("k1") != lim {
		t.Fatalf("bucket not reused")
	}
	if rl.limiterFor("k2") == lim {
		t.Fatalf("distinct keys share a bucket")
	}
}

func TestRateLimiter_EvictsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }
	rl.gcEvery = 1
	rl.idleTTL = time.Minute

	stale := rl.limiterFor("old")
	clock = clock.Add(2 * time.Minute)
	rl.limiterFor("new")

	if rl.size() != 1 {
		t.Fatalf("size = %d; want 1", rl.size())
	}
	if rl.limiterFor("old") == stale {
		t.Fatalf("stale bucket survived the sweep")
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.5, 2, func(*gin.Context) string { return "same" })
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	r := gin.New()
	r.Use(RequestID(), rl.Handler())
	r.POST("/api/chat", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
		return w
	}

	for i := 0; i < 2; i++ {
		if w := hit(); w.Code != http.StatusOK {
			t.Fatalf("burst request %d -> %d", i, w.Code)
		}
	}

	w := hit()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("Retry-After = %q; want 2", got)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "too_many_requests" || body["success"] != false {
		t.Fatalf("envelope = %v", body)
	}

	// A rejected request must not consume a token.
	clock = clock.Add(2 * time.Second)
	if w := hit(); w.Code != http.StatusOK {
		t.Fatalf("after refill -> %d", w.Code)
	}
}

func TestRateLimiter_ReplayBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.001, 1, func(*gin.Context) string { return "k" })

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if strings.HasSuffix(c.Request.URL.Path, "replay") {
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	})
	r.Use(rl.Handler())
	r.POST("/first", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/replay", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/first", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first -> %d", w.Code)
	}
	for i := 0; i < 3; i++ {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/replay", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("replay %d -> %d", i, w.Code)
		}
	}
}
