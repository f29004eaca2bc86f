// Package services – ProfileService
//
// ProfileService owns learner profiles: onboarding form writes, engagement
// tracking and the cached read path used when personalizing assistant
// instructions. Every write invalidates the cache entry for the user.
package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-lesson-tutor/internal/cache"
	"github.com/tbourn/go-lesson-tutor/internal/domain"
	"github.com/tbourn/go-lesson-tutor/internal/events"
	"github.com/tbourn/go-lesson-tutor/internal/observability"
	"github.com/tbourn/go-lesson-tutor/internal/repo"
)

const (
	maxProfileFieldRunes = 255
	maxGoals             = 10
)

// ProfileService reads and writes learner profiles.
type ProfileService struct {
	DB     *gorm.DB
	Cache  cache.ProfileCache
	Events events.Publisher
}

// NewProfileService constructs a ProfileService. A nil cache or publisher is
// replaced by a no-op equivalent.
func NewProfileService(db *gorm.DB, c cache.ProfileCache, pub events.Publisher) *ProfileService {
	if c == nil {
		c = cache.NewMemory(0)
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &ProfileService{DB: db, Cache: c, Events: pub}
}

// Get returns the profile for userID, reading through the cache.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	ctx, span := otel.Tracer("services/ProfileService").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	if p, err := s.Cache.Get(ctx, userID); err == nil {
		observability.ProfileCacheLookups.WithLabelValues("hit").Inc()
		return p, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("profile cache read failed")
	}
	observability.ProfileCacheLookups.WithLabelValues("miss").Inc()

	p, err := repo.GetProfile(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.Cache.Set(ctx, p); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("profile cache write failed")
	}
	return p, nil
}

// Upsert validates and stores the onboarding form fields of p.
func (s *ProfileService) Upsert(ctx context.Context, p *domain.UserProfile) (*domain.UserProfile, error) {
	ctx, span := otel.Tracer("services/ProfileService").Start(ctx, "Upsert",
		trace.WithAttributes(attribute.String("user.id", p.UserID)))
	defer span.End()

	if err := normalizeProfile(p); err != nil {
		return nil, err
	}
	if err := repo.UpsertProfile(ctx, s.DB, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, p.UserID)

	stored, err := repo.GetProfile(ctx, s.DB, p.UserID)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.Events, events.Event{
		Name:   events.ProfileUpdated,
		UserID: p.UserID,
		Data:   map[string]any{"experienceLevel": stored.ExperienceLevel, "industry": stored.Industry},
	})
	return stored, nil
}

// RecordSession increments the learner's session counter.
func (s *ProfileService) RecordSession(ctx context.Context, userID string) (*domain.UserProfile, error) {
	ctx, span := otel.Tracer("services/ProfileService").Start(ctx, "RecordSession",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	if err := repo.IncrementSessions(ctx, s.DB, userID); err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return repo.GetProfile(ctx, s.DB, userID)
}

// Personalization returns the context used to render instructions. A
// missing profile yields neutral placeholders rather than an error.
func (s *ProfileService) Personalization(ctx context.Context, userID string) (PersonalContext, error) {
	p, err := s.Get(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return PersonalContext{}, nil
	}
	if err != nil {
		return PersonalContext{}, err
	}
	return personalContextFrom(p), nil
}

func (s *ProfileService) invalidate(ctx context.Context, userID string) {
	if err := s.Cache.Delete(ctx, userID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("profile cache invalidation failed")
	}
}

func normalizeProfile(p *domain.UserProfile) error {
	if strings.TrimSpace(p.UserID) == "" {
		return ErrInvalidProfile
	}
	for _, f := range []*string{&p.FirstName, &p.LastName, &p.Email, &p.CurrentRole, &p.ExperienceLevel, &p.Industry} {
		*f = strings.TrimSpace(*f)
		if utf8.RuneCountInString(*f) > maxProfileFieldRunes {
			return ErrInvalidProfile
		}
	}
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return ErrInvalidProfile
		}
	}
	goals := p.PrimaryGoals[:0:0]
	for _, g := range p.PrimaryGoals {
		if g = strings.TrimSpace(g); g != "" {
			goals = append(goals, g)
		}
	}
	if len(goals) > maxGoals {
		return ErrInvalidProfile
	}
	p.PrimaryGoals = goals
	return nil
}

// publish sends ev and logs failures; analytics never fail a request.
func publish(ctx context.Context, pub events.Publisher, ev events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		observability.EventPublishFailures.WithLabelValues(ev.Name).Inc()
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", ev.Name).Msg("event publish failed")
	}
}
