package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/tbourn/go-lesson-tutor/internal/domain"
)

func TestMemory_SetGetDelete(t *testing.T) {
	c := NewMemory(0)
	ctx := context.Background()

	if _, err := c.Get(ctx, "u1"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	p := &domain.UserProfile{UserID: "u1", FirstName: "Ada", PrimaryGoals: []string{"lead"}}
	if err := c.Set(ctx, p); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// later mutations of the caller's value do not leak into the cache
	p.FirstName = "Changed"
	p.PrimaryGoals[0] = "changed"

	got, err := c.Get(ctx, "u1")
	if err != nil || got.FirstName != "Ada" || got.PrimaryGoals[0] != "lead" {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	_ = c.Delete(ctx, "u1")
	if _, err := c.Get(ctx, "u1"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
	if err := c.Set(ctx, nil); err != nil {
		t.Fatalf("Set(nil) should be a no-op, got %v", err)
	}
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.Set(ctx, &domain.UserProfile{UserID: "u1"})
	now = now.Add(59 * time.Second)
	if _, err := c.Get(ctx, "u1"); err != nil {
		t.Fatalf("entry should still be fresh: %v", err)
	}
	now = now.Add(time.Second)
	if _, err := c.Get(ctx, "u1"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected expiry miss, got %v", err)
	}
}

func TestRedis_RequiresAddr(t *testing.T) {
	if _, err := NewRedis("", "", 0, time.Minute); err == nil {
		t.Fatalf("expected error for empty address")
	}
}

func TestRedis_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	c, err := NewRedis(addr, os.Getenv("REDIS_PASSWORD"), 0, time.Minute)
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()
	id := "cache-test-" + time.Now().Format("150405.000000")

	if _, err := c.Get(ctx, id); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := c.Set(ctx, &domain.UserProfile{UserID: id, Industry: "Retail", PrimaryGoals: []string{"a"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, id)
	if err != nil || got.Industry != "Retail" || len(got.PrimaryGoals) != 1 {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	_ = c.Delete(ctx, id)
	if _, err := c.Get(ctx, id); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}
