// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-lesson-tutor/internal/domain"
)

// ThreadMessagesStats returns the number of messages in a thread and the
// highest message id. Messages are append-only, so the pair changes whenever
// the history does. When the thread is empty both values are zero.
func ThreadMessagesStats(ctx context.Context, db *gorm.DB, threadID string) (count int64, lastID uint64, err error) {
	q := db.WithContext(ctx).Model(&domain.ChatMessage{}).
		Where("thread_id = ?", threadID).
		Session(&gorm.Session{})

	if err = q.Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}

	var row struct {
		ID uint64
	}
	if err = q.Select("id").Order("id DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return count, row.ID, nil
}

// ProgressStats returns how many lessons are unlocked and completed for a
// user in a course.
func ProgressStats(ctx context.Context, db *gorm.DB, userID, courseID string) (unlocked, completed int64, err error) {
	if err = db.WithContext(ctx).Model(&domain.UnlockedLesson{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&unlocked).Error; err != nil {
		return 0, 0, err
	}
	if err = db.WithContext(ctx).Model(&domain.CompletedLesson{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&completed).Error; err != nil {
		return 0, 0, err
	}
	return unlocked, completed, nil
}
