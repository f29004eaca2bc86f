package handlers

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-lesson-tutor/internal/domain"
	"github.com/tbourn/go-lesson-tutor/internal/repo"
)

// DefaultIdempotencyTTL is how long a stored response can be replayed.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore keeps the responses of requests that carried an
// Idempotency-Key. Find returns (nil, nil) when nothing is stored.
type IdempotencyStore interface {
	Find(ctx context.Context, userID, scope, key string, now time.Time) (*domain.Idempotency, error)
	Save(ctx context.Context, userID, scope, key string, status int, body []byte) error
}

// DBIdempotencyStore is the database-backed IdempotencyStore.
type DBIdempotencyStore struct {
	DB  *gorm.DB
	TTL time.Duration
}

// NewDBIdempotencyStore returns a store keeping responses for ttl
// (DefaultIdempotencyTTL when ttl <= 0).
func NewDBIdempotencyStore(db *gorm.DB, ttl time.Duration) *DBIdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &DBIdempotencyStore{DB: db, TTL: ttl}
}

func (s *DBIdempotencyStore) Find(ctx context.Context, userID, scope, key string, now time.Time) (*domain.Idempotency, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// Save stores body. A concurrent request that stored first wins.
func (s *DBIdempotencyStore) Save(ctx context.Context, userID, scope, key string, status int, body []byte) error {
	_, err := repo.CreateIdempotency(ctx, s.DB, userID, scope, key, status, string(body), s.TTL)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// Exists matches middleware.IdempotencyLookup.
func (s *DBIdempotencyStore) Exists(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
	rec, err := s.Find(ctx, userID, scope, key, now)
	return rec != nil, err
}
