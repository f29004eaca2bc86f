package handlers

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-lesson-tutor/internal/domain"
	"github.com/tbourn/go-lesson-tutor/internal/repo"
	"github.com/tbourn/go-lesson-tutor/internal/services"
	"github.com/tbourn/go-lesson-tutor/internal/utils"
)

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// stubTutor records the last input and returns what the test scripted.
type stubTutor struct {
	submit  func(context.Context, services.SubmitInput) (*services.SubmitResult, error)
	history func(ctx context.Context, userID, courseID, lessonID, chatType string, page utils.Page) (*services.HistoryPage, error)

	calls int
	last  services.SubmitInput
}

func (s *stubTutor) Submit(ctx context.Context, in services.SubmitInput) (*services.SubmitResult, error) {
	s.calls++
	s.last = in
	if s.submit != nil {
		return s.submit(ctx, in)
	}
	return &services.SubmitResult{Response: "ok", ThreadID: "thread_1", RunID: "run_1"}, nil
}

func (s *stubTutor) History(ctx context.Context, userID, courseID, lessonID, chatType string, page utils.Page) (*services.HistoryPage, error) {
	if s.history != nil {
		return s.history(ctx, userID, courseID, lessonID, chatType, page)
	}
	return &services.HistoryPage{Messages: []domain.ChatMessage{}, Page: page}, nil
}

type stubCourses struct {
	getCourse   func(context.Context, string) (*domain.Course, error)
	overview    func(context.Context, string, string) (*services.CourseOverview, error)
	enroll      func(context.Context, string, string) (*domain.ProgressRecord, error)
	getProgress func(context.Context, string, string) (*domain.ProgressRecord, error)
}

func (s stubCourses) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	if s.getCourse != nil {
		return s.getCourse(ctx, id)
	}
	return &domain.Course{ID: id}, nil
}

func (s stubCourses) Overview(ctx context.Context, u, id string) (*services.CourseOverview, error) {
	if s.overview != nil {
		return s.overview(ctx, u, id)
	}
	return &services.CourseOverview{Course: &domain.Course{ID: id}}, nil
}

func (s stubCourses) Enroll(ctx context.Context, u, id string) (*domain.ProgressRecord, error) {
	if s.enroll != nil {
		return s.enroll(ctx, u, id)
	}
	return &domain.ProgressRecord{UserID: u, CourseID: id, Enrolled: true}, nil
}

func (s stubCourses) GetProgress(ctx context.Context, u, id string) (*domain.ProgressRecord, error) {
	if s.getProgress != nil {
		return s.getProgress(ctx, u, id)
	}
	return &domain.ProgressRecord{UserID: u, CourseID: id}, nil
}

type stubProfiles struct {
	get    func(context.Context, string) (*domain.UserProfile, error)
	upsert func(context.Context, *domain.UserProfile) (*domain.UserProfile, error)
	record func(context.Context, string) (*domain.UserProfile, error)
}

func (s stubProfiles) Get(ctx context.Context, u string) (*domain.UserProfile, error) {
	if s.get != nil {
		return s.get(ctx, u)
	}
	return &domain.UserProfile{UserID: u}, nil
}

func (s stubProfiles) Upsert(ctx context.Context, p *domain.UserProfile) (*domain.UserProfile, error) {
	if s.upsert != nil {
		return s.upsert(ctx, p)
	}
	return p, nil
}

func (s stubProfiles) RecordSession(ctx context.Context, u string) (*domain.UserProfile, error) {
	if s.record != nil {
		return s.record(ctx, u)
	}
	return &domain.UserProfile{UserID: u, TotalSessions: 1}, nil
}
