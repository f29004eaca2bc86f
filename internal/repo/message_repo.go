// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for ChatMessage.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-lesson-tutor/internal/domain"
)

// AppendMessage inserts a new message at the end of a thread's history.
func AppendMessage(ctx context.Context, db *gorm.DB, threadID, sender, text, runID string) (*domain.ChatMessage, error) {
	m := &domain.ChatMessage{
		ThreadID:  threadID,
		Sender:    sender,
		Text:      text,
		RunID:     runID,
		Timestamp: time.Now().UTC(),
	}
	return m, db.WithContext(ctx).Omit("Thread").Create(m).Error
}

// ListThreadMessages returns messages in send order (ID ASC).
func ListThreadMessages(ctx context.Context, db *gorm.DB, threadID string, limit int) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	q := db.WithContext(ctx).Where("thread_id = ?", threadID).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountThreadMessages uses a raw COUNT so a missing table surfaces as an error.
func CountThreadMessages(ctx context.Context, db *gorm.DB, threadID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM chat_messages WHERE thread_id = ?", threadID).
		Scan(&total).Error
	return total, err
}

// ListThreadMessagesPage returns a paginated slice in send order.
func ListThreadMessagesPage(ctx context.Context, db *gorm.DB, threadID string, offset, limit int) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	err := db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
