// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for UserProfile.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-lesson-tutor/internal/domain"
)

// profileFormColumns are the columns the onboarding form may overwrite.
var profileFormColumns = []string{
	"first_name", "last_name", "email", "job_role",
	"experience_level", "industry", "primary_goals", "updated_at",
}

// GetProfile fetches a profile by user id, or ErrNotFound.
func GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile creates the profile or overwrites its form fields. The
// engagement counter is left untouched on update.
func UpsertProfile(ctx context.Context, db *gorm.DB, p *domain.UserProfile) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns(profileFormColumns),
		}).
		Create(p).Error
}

// IncrementSessions bumps total_sessions by one, creating a bare profile if
// the user has none yet.
func IncrementSessions(ctx context.Context, db *gorm.DB, userID string) error {
	now := time.Now().UTC()
	p := &domain.UserProfile{UserID: userID, TotalSessions: 1, CreatedAt: now, UpdatedAt: now}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"total_sessions": gorm.Expr("user_profiles.total_sessions + 1"),
				"updated_at":     now,
			}),
		}).
		Create(p).Error
}
