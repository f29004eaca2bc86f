package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-lesson-tutor/internal/domain"
)

func TestProfile_UpsertGetAndSessions(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	if _, err := GetProfile(ctx, db, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	p := &domain.UserProfile{UserID: "u1", FirstName: "Ada", CurrentRole: "Engineer", PrimaryGoals: []string{"lead"}}
	if err := UpsertProfile(ctx, db, p); err != nil {
		t.Fatalf("UpsertProfile create: %v", err)
	}
	if err := IncrementSessions(ctx, db, "u1"); err != nil {
		t.Fatalf("IncrementSessions: %v", err)
	}

	// overwrite form fields; the session counter must survive
	p2 := &domain.UserProfile{UserID: "u1", FirstName: "Ada", CurrentRole: "Manager", Industry: "Fintech"}
	if err := UpsertProfile(ctx, db, p2); err != nil {
		t.Fatalf("UpsertProfile update: %v", err)
	}

	got, err := GetProfile(ctx, db, "u1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.CurrentRole != "Manager" || got.Industry != "Fintech" || got.TotalSessions != 1 {
		t.Fatalf("unexpected profile: %+v", got)
	}
}

func TestIncrementSessions_CreatesBareProfile(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := IncrementSessions(ctx, db, "u9"); err != nil {
			t.Fatalf("IncrementSessions: %v", err)
		}
	}
	got, err := GetProfile(ctx, db, "u9")
	if err != nil || got.TotalSessions != 3 {
		t.Fatalf("expected 3 sessions, got %+v err=%v", got, err)
	}
}

func sampleTree() *domain.Course {
	return &domain.Course{
		ID:    "c1",
		Title: "Leadership",
		Modules: []domain.Module{
			{ID: "m2", Title: "Second", Order: 2, Lessons: []domain.Lesson{{ID: "lesson_3", Order: 1, Title: "C"}}},
			{ID: "m1", Title: "First", Order: 1, Lessons: []domain.Lesson{
				{ID: "lesson_2", Order: 2, Title: "B"},
				{ID: "lesson_1", Order: 1, Title: "A", RecitationAssistantID: "asst_r1"},
			}},
		},
	}
}

func TestCourseTree_UpsertAndLoadOrdered(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	if _, err := GetCourseTree(ctx, db, "c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := UpsertCourseTree(ctx, db, sampleTree()); err != nil {
		t.Fatalf("UpsertCourseTree: %v", err)
	}

	c, err := GetCourseTree(ctx, db, "c1")
	if err != nil {
		t.Fatalf("GetCourseTree: %v", err)
	}
	ordered := c.OrderedLessons()
	if len(ordered) != 3 || ordered[0].ID != "lesson_1" || ordered[1].ID != "lesson_2" || ordered[2].ID != "lesson_3" {
		t.Fatalf("unexpected order: %+v", ordered)
	}
	if ordered[0].RecitationAssistantID != "asst_r1" || ordered[0].ModuleID != "m1" {
		t.Fatalf("lesson fields not persisted: %+v", ordered[0])
	}

	// re-seed with a changed title is an update, not a duplicate
	tree := sampleTree()
	tree.Title = "Leadership 2"
	if err := UpsertCourseTree(ctx, db, tree); err != nil {
		t.Fatalf("UpsertCourseTree again: %v", err)
	}
	c, _ = GetCourseTree(ctx, db, "c1")
	if c.Title != "Leadership 2" || len(c.OrderedLessons()) != 3 {
		t.Fatalf("re-seed mismatch: %+v", c)
	}

	list, err := ListCourses(ctx, db)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListCourses = %+v, %v", list, err)
	}
}
