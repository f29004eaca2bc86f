// Package cache provides the profile cache used by the service layer to
// avoid a database read per chat submission. Entries are invalidated when a
// profile is written.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tbourn/go-lesson-tutor/internal/domain"
)

// ErrMiss is returned by Get when no fresh entry exists.
var ErrMiss = errors.New("cache: miss")

// ProfileCache stores user profiles by user id.
type ProfileCache interface {
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
	Set(ctx context.Context, p *domain.UserProfile) error
	Delete(ctx context.Context, userID string) error
}

type memoryEntry struct {
	profile   domain.UserProfile
	expiresAt time.Time
}

// Memory is an in-process ProfileCache. A zero TTL keeps entries until they
// are deleted.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory returns an empty in-process cache.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

// Get returns a copy of the cached profile or ErrMiss.
func (m *Memory) Get(_ context.Context, userID string) (*domain.UserProfile, error) {
	m.mu.RLock()
	e, ok := m.entries[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrMiss
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		if cur, ok := m.entries[userID]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.entries, userID)
		}
		m.mu.Unlock()
		return nil, ErrMiss
	}
	p := e.profile
	p.PrimaryGoals = append([]string(nil), e.profile.PrimaryGoals...)
	return &p, nil
}

// Set stores a copy of p.
func (m *Memory) Set(_ context.Context, p *domain.UserProfile) error {
	if p == nil {
		return nil
	}
	e := memoryEntry{profile: *p}
	e.profile.PrimaryGoals = append([]string(nil), p.PrimaryGoals...)
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[p.UserID] = e
	m.mu.Unlock()
	return nil
}

// Delete drops the entry for userID.
func (m *Memory) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	delete(m.entries, userID)
	m.mu.Unlock()
	return nil
}
