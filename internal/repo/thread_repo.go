// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for LessonThread,
// the mapping from a (user, course, lesson, chat type) tuple to an external
// assistant thread.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
//
// Error semantics:
//   - When a thread is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors the raw gorm error is propagated.
//
// Functions:
//
//   - FindThread(ctx, db, key) -> *domain.LessonThread, error
//     Looks up the thread stored at the tuple key.
//
//   - FindThreadByAssistantID(ctx, db, assistantThreadID) -> *domain.LessonThread, error
//     Looks up a thread by its external id.
//
//   - ClaimThread(ctx, db, key, assistantThreadID) -> *domain.LessonThread, bool, error
//     Conditionally stores a thread at the tuple key and returns whichever
//     record holds the key afterwards.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-lesson-tutor/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ThreadKey is the deterministic key a conversation thread is stored under.
// LessonID is empty for course-level chats.
type ThreadKey struct {
	UserID   string
	CourseID string
	LessonID string
	ChatType domain.ChatType
}

func (k ThreadKey) where(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ? AND course_id = ? AND lesson_id = ? AND chat_type = ?",
		k.UserID, k.CourseID, k.LessonID, k.ChatType)
}

// FindThread returns the thread stored at key, or ErrNotFound.
func FindThread(ctx context.Context, db *gorm.DB, key ThreadKey) (*domain.LessonThread, error) {
	var th domain.LessonThread
	if err := key.where(db.WithContext(ctx)).First(&th).Error; err != nil {
		return nil, err
	}
	return &th, nil
}

// FindThreadByAssistantID returns the oldest thread whose external id is
// assistantThreadID, or ErrNotFound.
func FindThreadByAssistantID(ctx context.Context, db *gorm.DB, assistantThreadID string) (*domain.LessonThread, error) {
	var th domain.LessonThread
	err := db.WithContext(ctx).
		Where("assistant_thread_id = ?", assistantThreadID).
		Order("created_at ASC").
		First(&th).Error
	if err != nil {
		return nil, err
	}
	return &th, nil
}

// ClaimThread inserts a thread for key pointing at assistantThreadID unless
// one already exists, then reads back the stored record. created reports
// whether this call's row won. Concurrent callers for the same key all
// observe the same record.
func ClaimThread(ctx context.Context, db *gorm.DB, key ThreadKey, assistantThreadID string) (th *domain.LessonThread, created bool, err error) {
	rec := &domain.LessonThread{
		ID:                uuid.NewString(),
		UserID:            key.UserID,
		CourseID:          key.CourseID,
		LessonID:          key.LessonID,
		ChatType:          key.ChatType,
		AssistantThreadID: assistantThreadID,
		CreatedAt:         time.Now().UTC(),
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec)
	if res.Error != nil {
		return nil, false, res.Error
	}
	stored, err := FindThread(ctx, db, key)
	if err != nil {
		return nil, false, err
	}
	return stored, res.RowsAffected == 1 && stored.ID == rec.ID, nil
}
