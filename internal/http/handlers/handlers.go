// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: they bind and normalize input, resolve the
// learner identity, call application services through the interfaces below,
// and translate results into JSON responses.
package handlers

import (
	"context"

	"github.com/tbourn/go-lesson-tutor/internal/domain"
	"github.com/tbourn/go-lesson-tutor/internal/services"
	"github.com/tbourn/go-lesson-tutor/internal/utils"
)

// TutorService submits learner messages and reads conversation history.
type TutorService interface {
	Submit(ctx context.Context, in services.SubmitInput) (*services.SubmitResult, error)
	History(ctx context.Context, userID, courseID, lessonID, chatType string, page utils.Page) (*services.HistoryPage, error)
}

// CourseService reads course trees and manages enrollment and progress.
type CourseService interface {
	GetCourse(ctx context.Context, courseID string) (*domain.Course, error)
	Overview(ctx context.Context, userID, courseID string) (*services.CourseOverview, error)
	Enroll(ctx context.Context, userID, courseID string) (*domain.ProgressRecord, error)
	GetProgress(ctx context.Context, userID, courseID string) (*domain.ProgressRecord, error)
}

// ProfileService reads and writes learner profiles.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
	Upsert(ctx context.Context, p *domain.UserProfile) (*domain.UserProfile, error)
	RecordSession(ctx context.Context, userID string) (*domain.UserProfile, error)
}

// Handlers groups the API endpoints. idem may be nil, which disables
// response replay.
type Handlers struct {
	tutor    TutorService
	courses  CourseService
	profiles ProfileService
	idem     IdempotencyStore
}

// New constructs Handlers bound to the given services.
func New(tutor TutorService, courses CourseService, profiles ProfileService, idem IdempotencyStore) *Handlers {
	return &Handlers{tutor: tutor, courses: courses, profiles: profiles, idem: idem}
}
