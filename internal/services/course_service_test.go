package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"
)

func newCourseFixture(t *testing.T) *CourseService {
	t.Helper()
	db := newSvcDB(t)
	seedCourse(t, db, testCourse())
	return NewCourseService(db)
}

func TestCourseService_GetCourseOrdered(t *testing.T) {
	s := newCourseFixture(t)
	c, err := s.GetCourse(context.Background(), "course_1")
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	var ids []string
	for _, l := range c.OrderedLessons() {
		ids = append(ids, l.ID)
	}
	if len(ids) != 3 || ids[0] != "lesson_1" || ids[1] != "lesson_2" || ids[2] != "lesson_3" {
		t.Fatalf("unexpected lesson order %v", ids)
	}
	if _, err := s.GetCourse(context.Background(), "missing"); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestCourseService_EnrollIdempotent(t *testing.T) {
	s := newCourseFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		p, err := s.Enroll(ctx, "u1", "course_1")
		if err != nil {
			t.Fatalf("Enroll: %v", err)
		}
		if !p.Enrolled || len(p.UnlockedLessons) != 1 || !p.IsUnlocked("lesson_1") {
			t.Fatalf("expected only lesson_1 unlocked, got %+v", p)
		}
	}
	if _, err := s.Enroll(ctx, "u1", "missing"); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestCourseService_GetProgressUnenrolled(t *testing.T) {
	s := newCourseFixture(t)
	p, err := s.GetProgress(context.Background(), "u1", "course_1")
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if p.Enrolled || len(p.UnlockedLessons) != 0 {
		t.Fatalf("expected empty progress, got %+v", p)
	}
}

func TestCourseService_RecordUnlockAndOverview(t *testing.T) {
	s := newCourseFixture(t)
	ctx := context.Background()

	if _, err := s.Enroll(ctx, "u1", "course_1"); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	course, err := s.GetCourse(ctx, "course_1")
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}

	// lesson_2 is the last lesson of m1; its successor is the first of m2.
	var out UnlockOutcome
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = s.recordUnlock(ctx, tx, "u1", course, "lesson_2", "LESSON_UNLOCKED_x")
		return err
	})
	if err != nil {
		t.Fatalf("recordUnlock: %v", err)
	}
	if !out.NewlyCompleted || out.NextLessonID != "lesson_3" {
		t.Fatalf("unexpected outcome %+v", out)
	}

	ov, err := s.Overview(ctx, "u1", "course_1")
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if len(ov.Lessons) != 3 {
		t.Fatalf("expected 3 lesson rows, got %d", len(ov.Lessons))
	}
	want := []struct {
		unlocked, completed bool
	}{{true, false}, {true, true}, {true, false}}
	for i, w := range want {
		got := ov.Lessons[i]
		if got.Unlocked != w.unlocked || got.Completed != w.completed {
			t.Fatalf("lesson %s: got unlocked=%v completed=%v", got.LessonID, got.Unlocked, got.Completed)
		}
	}
	if ov.Lessons[1].CompletedAt == nil {
		t.Fatal("completed lesson should carry completedAt")
	}
	if ov.NextLessonID != "lesson_1" {
		t.Fatalf("expected first unlocked incomplete lesson, got %q", ov.NextLessonID)
	}

	// Completed lessons are always unlocked.
	p, _ := s.GetProgress(ctx, "u1", "course_1")
	for id := range p.CompletedLessons {
		if !p.IsUnlocked(id) {
			t.Fatalf("completed lesson %s not unlocked", id)
		}
	}
}

func TestCourseService_OverviewMissingCourse(t *testing.T) {
	s := newCourseFixture(t)
	if _, err := s.Overview(context.Background(), "u1", "missing"); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}
