package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-lesson-tutor/internal/cache"
	"github.com/tbourn/go-lesson-tutor/internal/domain"
	"github.com/tbourn/go-lesson-tutor/internal/events"
	"github.com/tbourn/go-lesson-tutor/internal/llm"
	"github.com/tbourn/go-lesson-tutor/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// testCourse has lesson_1, lesson_2 in module m1 and lesson_3 in module m2.
func testCourse() *domain.Course {
	return &domain.Course{
		ID:             "course_1",
		Title:          "Negotiation Basics",
		QnaAssistantID: "asst_course_qna",
		Modules: []domain.Module{
			{ID: "m2", Title: "Closing", Order: 2, Lessons: []domain.Lesson{
				{ID: "lesson_3", ModuleID: "m2", Order: 1, Title: "Closing the Deal", RecitationAssistantID: "asst_recite_3"},
			}},
			{ID: "m1", Title: "Foundations", Order: 1, Lessons: []domain.Lesson{
				{ID: "lesson_2", ModuleID: "m1", Order: 2, Title: "Anchoring", RecitationAssistantID: "asst_recite_2"},
				{ID: "lesson_1", ModuleID: "m1", Order: 1, Title: "Preparation", RecitationAssistantID: "asst_recite_1"},
			}},
		},
	}
}

func seedCourse(t *testing.T, db *gorm.DB, c *domain.Course) {
	t.Helper()
	if err := repo.UpsertCourseTree(context.Background(), db, c); err != nil {
		t.Fatalf("seed course: %v", err)
	}
}

// fakeAssistant scripts the hosted assistant. GetRun returns statuses in
// order and repeats the last one.
type fakeAssistant struct {
	mu sync.Mutex

	startStatus llm.RunStatus
	statuses    []llm.RunStatus
	lastError   string
	reply       string

	createErr error
	existsErr error
	addErr    error
	startErr  error
	getErr    error
	replyErr  error

	threadsCreated int
	unknown        map[string]bool
	calls          []string
	messages       map[string][]string
	assistantIDs   []string
	instructions   []string
	getRuns        int
}

func newFakeAssistant(reply string) *fakeAssistant {
	return &fakeAssistant{
		startStatus: llm.RunQueued,
		statuses:    []llm.RunStatus{llm.RunCompleted},
		reply:       reply,
		messages:    map[string][]string{},
	}
}

func (f *fakeAssistant) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeAssistant) CreateThread(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateThread")
	if f.createErr != nil {
		return "", f.createErr
	}
	f.threadsCreated++
	return fmt.Sprintf("thread_%d", f.threadsCreated), nil
}

func (f *fakeAssistant) ThreadExists(_ context.Context, threadID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ThreadExists")
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return !f.unknown[threadID], nil
}

func (f *fakeAssistant) AddUserMessage(_ context.Context, threadID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AddUserMessage")
	if f.addErr != nil {
		return f.addErr
	}
	if f.unknown[threadID] {
		return fmt.Errorf("404 No thread found with id %q", threadID)
	}
	f.messages[threadID] = append(f.messages[threadID], text)
	return nil
}

func (f *fakeAssistant) StartRun(_ context.Context, threadID, assistantID, instructions string) (llm.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("StartRun")
	if f.startErr != nil {
		return llm.Run{}, f.startErr
	}
	f.assistantIDs = append(f.assistantIDs, assistantID)
	f.instructions = append(f.instructions, instructions)
	return llm.Run{ID: "run_1", ThreadID: threadID, Status: f.startStatus}, nil
}

func (f *fakeAssistant) GetRun(_ context.Context, threadID, runID string) (llm.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetRun")
	if f.getErr != nil {
		return llm.Run{}, f.getErr
	}
	i := f.getRuns
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	f.getRuns++
	return llm.Run{ID: runID, ThreadID: threadID, Status: f.statuses[i], LastError: f.lastError}, nil
}

func (f *fakeAssistant) Reply(context.Context, string, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Reply")
	if f.replyErr != nil {
		return "", f.replyErr
	}
	return f.reply, nil
}

func (f *fakeAssistant) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// recordingPublisher keeps published events in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Name)
	}
	return out
}

// fakeClock advances only when the poller sleeps.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps++
	c.now = c.now.Add(d)
	return nil
}

type tutorFixture struct {
	db        *gorm.DB
	svc       *TutorService
	assistant *fakeAssistant
	events    *recordingPublisher
	clock     *fakeClock
}

func newTutorFixture(t *testing.T, reply string) *tutorFixture {
	t.Helper()
	db := newSvcDB(t)
	seedCourse(t, db, testCourse())

	fa := newFakeAssistant(reply)
	pub := &recordingPublisher{}
	clock := newFakeClock()
	profiles := NewProfileService(db, cache.NewMemory(time.Minute), pub)
	svc := NewTutorService(db, fa, profiles, NewCourseService(db), pub)
	svc.Sleep = clock.Sleep
	svc.Now = clock.Now
	return &tutorFixture{db: db, svc: svc, assistant: fa, events: pub, clock: clock}
}

var errBoom = errors.New("boom")
