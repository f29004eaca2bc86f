// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for per-course
// progress: enrollment plus the unlocked and completed lesson sets.
//
// The sets are stored one row per member and written with insert-or-ignore,
// so they only ever grow and concurrent writers cannot lose each other's
// updates.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-lesson-tutor/internal/domain"
)

// EnsureEnrollment records that userID is enrolled in courseID. created
// reports whether this call inserted the row.
func EnsureEnrollment(ctx context.Context, db *gorm.DB, userID, courseID string) (created bool, err error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.Enrollment{UserID: userID, CourseID: courseID, EnrolledAt: time.Now().UTC()})
	return res.RowsAffected == 1, res.Error
}

// UnlockLesson adds lessonID to the unlocked set. added reports whether the
// lesson was newly unlocked.
func UnlockLesson(ctx context.Context, db *gorm.DB, userID, courseID, lessonID, source string) (added bool, err error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.UnlockedLesson{
			UserID:     userID,
			CourseID:   courseID,
			LessonID:   lessonID,
			Source:     source,
			UnlockedAt: time.Now().UTC(),
		})
	return res.RowsAffected == 1, res.Error
}

// CompleteLesson adds lessonID to the completed set with the unlock code that
// triggered it. A lesson already completed keeps its first completion.
func CompleteLesson(ctx context.Context, db *gorm.DB, userID, courseID, lessonID, unlockCode string) (added bool, err error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.CompletedLesson{
			UserID:      userID,
			CourseID:    courseID,
			LessonID:    lessonID,
			UnlockCode:  unlockCode,
			CompletedAt: time.Now().UTC(),
		})
	return res.RowsAffected == 1, res.Error
}

// LoadProgress reads the progress record for (userID, courseID). A user with
// no enrollment gets an empty record with Enrolled=false.
func LoadProgress(ctx context.Context, db *gorm.DB, userID, courseID string) (*domain.ProgressRecord, error) {
	db = db.WithContext(ctx)
	rec := &domain.ProgressRecord{
		UserID:           userID,
		CourseID:         courseID,
		UnlockedLessons:  map[string]bool{},
		CompletedLessons: map[string]domain.Completion{},
	}

	var enrolled int64
	if err := db.Model(&domain.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&enrolled).Error; err != nil {
		return nil, err
	}
	rec.Enrolled = enrolled > 0

	var unlocked []domain.UnlockedLesson
	if err := db.Where("user_id = ? AND course_id = ?", userID, courseID).Find(&unlocked).Error; err != nil {
		return nil, err
	}
	for _, u := range unlocked {
		rec.UnlockedLessons[u.LessonID] = true
	}

	var completed []domain.CompletedLesson
	if err := db.Where("user_id = ? AND course_id = ?", userID, courseID).Find(&completed).Error; err != nil {
		return nil, err
	}
	for _, c := range completed {
		rec.CompletedLessons[c.LessonID] = domain.Completion{CompletedAt: c.CompletedAt, UnlockCode: c.UnlockCode}
	}
	return rec, nil
}
