package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tbourn/go-lesson-tutor/internal/domain"
)

const redisKeyPrefix = "tutor:profile:"

// Redis is a ProfileCache shared across instances.
type Redis struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedis connects to addr and verifies the connection with a PING.
func NewRedis(addr, password string, db int, ttl time.Duration) (*Redis, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{rdb: rdb, ttl: ttl}, nil
}

// Get loads and decodes the cached profile or returns ErrMiss.
func (r *Redis) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	raw, err := r.rdb.Get(ctx, redisKeyPrefix+userID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var p domain.UserProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		// unreadable entries are dropped and treated as a miss
		_ = r.rdb.Del(ctx, redisKeyPrefix+userID).Err()
		return nil, ErrMiss
	}
	return &p, nil
}

// Set stores p as JSON with the configured TTL (0 = no expiry).
func (r *Redis) Set(ctx context.Context, p *domain.UserProfile) error {
	if p == nil {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, redisKeyPrefix+p.UserID, raw, r.ttl).Err()
}

// Delete removes the entry for userID.
func (r *Redis) Delete(ctx context.Context, userID string) error {
	return r.rdb.Del(ctx, redisKeyPrefix+userID).Err()
}

// Close releases the connection pool.
func (r *Redis) Close() error { return r.rdb.Close() }
