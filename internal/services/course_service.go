// Package services – CourseService
//
// CourseService serves the course tree and per-learner progress. Progress
// sets only grow: enrollment unlocks the first lesson, and an unlock code
// completes the current lesson and unlocks the next one in course order
// (module order, then lesson order).
package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/go-lesson-tutor/internal/domain"
	"github.com/tbourn/go-lesson-tutor/internal/observability"
	"github.com/tbourn/go-lesson-tutor/internal/repo"
)

// CourseService exposes course reads and progress transitions.
type CourseService struct {
	DB *gorm.DB
}

// NewCourseService constructs a CourseService.
func NewCourseService(db *gorm.DB) *CourseService { return &CourseService{DB: db} }

// LessonStatus is one row of a course overview.
type LessonStatus struct {
	LessonID    string     `json:"lessonId"`
	ModuleID    string     `json:"moduleId"`
	Title       string     `json:"title"`
	Unlocked    bool       `json:"unlocked"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// CourseOverview combines the course tree with a learner's progress.
type CourseOverview struct {
	Course       *domain.Course         `json:"course"`
	Progress     *domain.ProgressRecord `json:"progress"`
	Lessons      []LessonStatus         `json:"lessons"`
	NextLessonID string                 `json:"nextLessonId,omitempty"`
}

// UnlockOutcome describes the progress change caused by an unlock code.
type UnlockOutcome struct {
	Code            string
	CompletedLesson string
	NextLessonID    string
	NewlyCompleted  bool
}

// GetCourse returns the course tree in display order.
func (s *CourseService) GetCourse(ctx context.Context, courseID string) (*domain.Course, error) {
	ctx, span := otel.Tracer("services/CourseService").Start(ctx, "GetCourse",
		trace.WithAttributes(attribute.String("course.id", courseID)))
	defer span.End()
	return s.loadCourse(ctx, s.DB, courseID)
}

// Enroll creates the learner's progress record and unlocks the first
// lesson. Repeating it is a no-op.
func (s *CourseService) Enroll(ctx context.Context, userID, courseID string) (*domain.ProgressRecord, error) {
	ctx, span := otel.Tracer("services/CourseService").Start(ctx, "Enroll",
		trace.WithAttributes(observability.LearnerAttrs(userID, courseID, "")...))
	defer span.End()

	course, err := s.loadCourse(ctx, s.DB, courseID)
	if err != nil {
		return nil, err
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.EnsureEnrollment(ctx, tx, userID, courseID); err != nil {
			return err
		}
		if first := course.FirstLesson(); first != nil {
			if _, err := repo.UnlockLesson(ctx, tx, userID, courseID, first.ID, domain.UnlockSourceEnrollment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return repo.LoadProgress(ctx, s.DB, userID, courseID)
}

// GetProgress returns the learner's progress for an existing course.
func (s *CourseService) GetProgress(ctx context.Context, userID, courseID string) (*domain.ProgressRecord, error) {
	ctx, span := otel.Tracer("services/CourseService").Start(ctx, "GetProgress",
		trace.WithAttributes(observability.LearnerAttrs(userID, courseID, "")...))
	defer span.End()

	if _, err := s.loadCourse(ctx, s.DB, courseID); err != nil {
		return nil, err
	}
	return repo.LoadProgress(ctx, s.DB, userID, courseID)
}

// Overview loads the course tree and the learner's progress concurrently
// and merges them into per-lesson status rows.
func (s *CourseService) Overview(ctx context.Context, userID, courseID string) (*CourseOverview, error) {
	ctx, span := otel.Tracer("services/CourseService").Start(ctx, "Overview",
		trace.WithAttributes(observability.LearnerAttrs(userID, courseID, "")...))
	defer span.End()

	var (
		course   *domain.Course
		progress *domain.ProgressRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.loadCourse(gctx, s.DB, courseID)
		course = c
		return err
	})
	g.Go(func() error {
		p, err := repo.LoadProgress(gctx, s.DB, userID, courseID)
		progress = p
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ov := &CourseOverview{Course: course, Progress: progress}
	for _, l := range course.OrderedLessons() {
		st := LessonStatus{
			LessonID: l.ID,
			ModuleID: l.ModuleID,
			Title:    l.Title,
			Unlocked: progress.IsUnlocked(l.ID),
		}
		if c, ok := progress.CompletedLessons[l.ID]; ok {
			at := c.CompletedAt
			st.Completed, st.CompletedAt = true, &at
		}
		if ov.NextLessonID == "" && st.Unlocked && !st.Completed {
			ov.NextLessonID = l.ID
		}
		ov.Lessons = append(ov.Lessons, st)
	}
	return ov, nil
}

// recordUnlock applies an unlock code inside tx: the lesson is unlocked if
// needed and completed, and its successor is unlocked.
func (s *CourseService) recordUnlock(ctx context.Context, tx *gorm.DB, userID string, course *domain.Course, lessonID, code string) (UnlockOutcome, error) {
	out := UnlockOutcome{Code: code, CompletedLesson: lessonID}
	if _, err := repo.EnsureEnrollment(ctx, tx, userID, course.ID); err != nil {
		return out, err
	}
	if _, err := repo.UnlockLesson(ctx, tx, userID, course.ID, lessonID, domain.UnlockSourceCompletion); err != nil {
		return out, err
	}
	added, err := repo.CompleteLesson(ctx, tx, userID, course.ID, lessonID, code)
	if err != nil {
		return out, err
	}
	out.NewlyCompleted = added
	if next := course.NextLesson(lessonID); next != nil {
		if _, err := repo.UnlockLesson(ctx, tx, userID, course.ID, next.ID, domain.UnlockSourceUnlockCode); err != nil {
			return out, err
		}
		out.NextLessonID = next.ID
	}
	return out, nil
}

func (s *CourseService) loadCourse(ctx context.Context, db *gorm.DB, courseID string) (*domain.Course, error) {
	c, err := repo.GetCourseTree(ctx, db, courseID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrCourseNotFound
	}
	return c, err
}
