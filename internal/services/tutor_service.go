// Package services – TutorService
//
// TutorService runs one learner chat submission end to end: it resolves the
// conversation thread for (user, course, lesson, chat type), renders
// personalized run instructions, hands the message to the hosted assistant,
// waits for the run under a bounded poll budget, and persists both turns.
// For recitation chats a reply carrying the unlock code completes the lesson
// and unlocks the next one in the same transaction as the assistant turn.
//
// Observability: Submit and History are OpenTelemetry-instrumented and record
// run outcomes, durations and poll attempts as Prometheus metrics.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-lesson-tutor/internal/config"
	"github.com/tbourn/go-lesson-tutor/internal/domain"
	"github.com/tbourn/go-lesson-tutor/internal/events"
	"github.com/tbourn/go-lesson-tutor/internal/llm"
	"github.com/tbourn/go-lesson-tutor/internal/observability"
	"github.com/tbourn/go-lesson-tutor/internal/repo"
	"github.com/tbourn/go-lesson-tutor/internal/utils"
)

// Run outcome labels.
const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeTimeout   = "timeout"
	outcomeUpstream  = "upstream_error"
)

// TutorService coordinates chat submissions against a hosted assistant.
type TutorService struct {
	DB         *gorm.DB
	Assistants llm.AssistantClient
	Profiles   *ProfileService
	Courses    *CourseService
	Events     events.Publisher
	Unlock     *UnlockMatcher

	Poll               PollConfig
	DefaultAssistantID string
	MaxMessageRunes    int

	// Sleep and Now default to real time.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// NewTutorService constructs a TutorService with the default poll budget and
// the canonical unlock pattern.
func NewTutorService(db *gorm.DB, client llm.AssistantClient, profiles *ProfileService, courses *CourseService, pub events.Publisher) *TutorService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &TutorService{
		DB:              db,
		Assistants:      client,
		Profiles:        profiles,
		Courses:         courses,
		Events:          pub,
		Unlock:          MustUnlockMatcher(config.DefaultUnlockPattern),
		Poll:            DefaultPollConfig,
		MaxMessageRunes: 4000,
	}
}

// SubmitInput is one learner message.
type SubmitInput struct {
	UserID           string
	CourseID         string
	LessonID         string
	ChatType         string
	Message          string
	ExistingThreadID string
	AssistantID      string
}

// SubmitResult is the outcome of a submission. On failure after the thread
// was resolved, ThreadID (and RunID once started) are still set so a retry
// can continue on the same thread.
type SubmitResult struct {
	Response     string
	ThreadID     string
	RunID        string
	UnlockCode   *string
	NextLessonID string
}

// Submit sends in.Message to the assistant and returns its reply.
func (s *TutorService) Submit(ctx context.Context, in SubmitInput) (res *SubmitResult, err error) {
	ctx, span := otel.Tracer("services/TutorService").Start(ctx, "Submit",
		trace.WithAttributes(observability.LearnerAttrs(in.UserID, in.CourseID, in.LessonID)...),
		trace.WithAttributes(attribute.String("chat.type", in.ChatType)),
	)
	defer func() { observability.EndSpan(span, err) }()

	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(msg) > s.MaxMessageRunes {
		return nil, ErrTooLong
	}
	chatType, ok := domain.ParseChatType(in.ChatType)
	if !ok {
		return nil, ErrInvalidChatType
	}
	strategy := chatStrategies[chatType]
	courseID := strings.TrimSpace(in.CourseID)
	if courseID == "" {
		return nil, ErrCourseRequired
	}
	lessonID := strings.TrimSpace(in.LessonID)
	if strategy.requiresLesson && lessonID == "" {
		return nil, ErrLessonRequired
	}

	course, err := s.Courses.loadCourse(ctx, s.DB, courseID)
	if err != nil {
		return nil, err
	}
	var lesson *domain.Lesson
	if lessonID != "" {
		if lesson = course.FindLesson(lessonID); lesson == nil {
			return nil, ErrLessonNotFound
		}
	}
	assistantID, err := strategy.resolveAssistant(strings.TrimSpace(in.AssistantID), lesson, course, s.DefaultAssistantID)
	if err != nil {
		return nil, err
	}

	key := repo.ThreadKey{UserID: in.UserID, CourseID: courseID, LessonID: lessonID, ChatType: chatType}
	th, err := s.resolveThread(ctx, key, in.ExistingThreadID)
	if err != nil {
		return nil, err
	}
	res = &SubmitResult{ThreadID: th.AssistantThreadID}
	span.SetAttributes(attribute.String("assistant.thread_id", th.AssistantThreadID))

	pc, err := s.personalization(ctx, in.UserID)
	if err != nil {
		return res, err
	}
	instructions := renderInstructions(strategy.instructionsTemplate(lesson), pc, course, lesson)

	if err := s.Assistants.AddUserMessage(ctx, th.AssistantThreadID, msg); err != nil {
		return res, upstream("add message", err)
	}
	if _, err := repo.AppendMessage(ctx, s.DB, th.ID, domain.SenderUser, msg, ""); err != nil {
		return res, err
	}

	started := s.now()
	run, err := s.Assistants.StartRun(ctx, th.AssistantThreadID, assistantID, instructions)
	if err != nil {
		s.observeRun(chatType, outcomeUpstream, started)
		return res, upstream("create run", err)
	}
	res.RunID = run.ID

	polled, err := s.poller().await(ctx, th.AssistantThreadID, run)
	observability.PollAttempts.Observe(float64(polled.attempts))
	if err != nil {
		s.observeRun(chatType, runOutcome(err), started)
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("run_id", run.ID).
			Str("status", string(polled.run.Status)).
			Int("attempts", polled.attempts).
			Msg("assistant run did not complete")
		return res, err
	}
	s.observeRun(chatType, outcomeCompleted, started)

	reply, err := s.Assistants.Reply(ctx, th.AssistantThreadID, run.ID)
	if err != nil {
		return res, upstream("list messages", err)
	}
	res.Response = reply

	var (
		unlock  UnlockOutcome
		matched bool
	)
	if strategy.checksUnlock && lesson != nil && s.Unlock != nil {
		unlock.Code, _, matched = s.Unlock.Find(reply)
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.AppendMessage(ctx, tx, th.ID, domain.SenderAssistant, reply, run.ID); err != nil {
			return err
		}
		if !matched {
			return nil
		}
		out, err := s.Courses.recordUnlock(ctx, tx, in.UserID, course, lesson.ID, unlock.Code)
		unlock = out
		return err
	})
	if err != nil {
		return res, err
	}

	if matched {
		code := unlock.Code
		res.UnlockCode = &code
		res.NextLessonID = unlock.NextLessonID
		if unlock.NewlyCompleted {
			observability.LessonsUnlocked.Inc()
		}
		publish(ctx, s.Events, events.Event{
			Name:     events.LessonUnlocked,
			UserID:   in.UserID,
			CourseID: courseID,
			LessonID: lesson.ID,
			Data:     map[string]any{"unlockCode": code, "nextLessonId": unlock.NextLessonID},
		})
	}
	publish(ctx, s.Events, events.Event{
		Name:     events.ChatSubmitted,
		UserID:   in.UserID,
		CourseID: courseID,
		LessonID: lessonID,
		Data:     map[string]any{"chatType": string(chatType), "runId": run.ID, "unlocked": matched},
	})
	return res, nil
}

// resolveThread returns the thread stored for key. Without one it adopts
// existingThreadID when the provider knows it and no other conversation
// owns it; otherwise it opens a new assistant thread. The record is claimed with a conditional
// write so concurrent submissions converge on a single thread.
func (s *TutorService) resolveThread(ctx context.Context, key repo.ThreadKey, existingThreadID string) (*domain.LessonThread, error) {
	th, err := repo.FindThread(ctx, s.DB, key)
	if err == nil {
		return th, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	candidate := strings.TrimSpace(existingThreadID)
	if candidate != "" {
		owner, err := repo.FindThreadByAssistantID(ctx, s.DB, candidate)
		switch {
		case errors.Is(err, repo.ErrNotFound):
		case err != nil:
			return nil, err
		default:
			zerolog.Ctx(ctx).Warn().
				Str("thread_id", candidate).
				Str("owner_thread", owner.ID).
				Msg("ignoring thread id mapped to another conversation")
			candidate = ""
		}
	}
	if candidate != "" {
		ok, err := s.Assistants.ThreadExists(ctx, candidate)
		if err != nil {
			return nil, upstream("retrieve thread", err)
		}
		if !ok {
			zerolog.Ctx(ctx).Warn().
				Str("thread_id", candidate).
				Msg("ignoring unknown thread id, opening a new thread")
			candidate = ""
		}
	}
	if candidate == "" {
		id, err := s.Assistants.CreateThread(ctx)
		if err != nil {
			return nil, upstream("create thread", err)
		}
		candidate = id
	}

	th, created, err := repo.ClaimThread(ctx, s.DB, key, candidate)
	if err != nil {
		return nil, err
	}
	if !created && th.AssistantThreadID != candidate {
		zerolog.Ctx(ctx).Info().
			Str("abandoned_thread_id", candidate).
			Str("thread_id", th.AssistantThreadID).
			Msg("concurrent submission claimed the thread first")
	}
	return th, nil
}

// HistoryPage is one page of a conversation's persisted turns.
type HistoryPage struct {
	ThreadID string
	Messages []domain.ChatMessage
	Total    int64
	LastID   uint64
	Page     utils.Page
}

// History returns the persisted messages of the thread for the tuple, in send
// order. A conversation that was never started yields an empty page.
func (s *TutorService) History(ctx context.Context, userID, courseID, lessonID, chatType string, page utils.Page) (*HistoryPage, error) {
	ctx, span := otel.Tracer("services/TutorService").Start(ctx, "History",
		trace.WithAttributes(observability.LearnerAttrs(userID, courseID, lessonID)...),
		trace.WithAttributes(
			attribute.String("chat.type", chatType),
			attribute.Int("page", page.Number),
			attribute.Int("page_size", page.Size),
		),
	)
	defer span.End()

	ct, ok := domain.ParseChatType(chatType)
	if !ok {
		return nil, ErrInvalidChatType
	}
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return nil, ErrCourseRequired
	}
	if page.Number < 1 || page.Size < 1 {
		page = utils.ParsePage("", "")
	}

	out := &HistoryPage{Messages: []domain.ChatMessage{}, Page: page}
	key := repo.ThreadKey{UserID: userID, CourseID: courseID, LessonID: strings.TrimSpace(lessonID), ChatType: ct}
	th, err := repo.FindThread(ctx, s.DB, key)
	if errors.Is(err, repo.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	out.ThreadID = th.AssistantThreadID

	total, lastID, err := repo.ThreadMessagesStats(ctx, s.DB, th.ID)
	if err != nil {
		return nil, err
	}
	out.Total, out.LastID = total, lastID
	if total == 0 {
		return out, nil
	}
	msgs, err := repo.ListThreadMessagesPage(ctx, s.DB, th.ID, page.Offset(), page.Size)
	if err != nil {
		return nil, err
	}
	out.Messages = msgs
	return out, nil
}

func (s *TutorService) personalization(ctx context.Context, userID string) (PersonalContext, error) {
	if s.Profiles == nil {
		return PersonalContext{}, nil
	}
	return s.Profiles.Personalization(ctx, userID)
}

func (s *TutorService) poller() *runPoller {
	cfg := s.Poll
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollConfig.Interval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultPollConfig.MaxAttempts
	}
	if cfg.Budget <= 0 {
		cfg.Budget = DefaultPollConfig.Budget
	}
	p := &runPoller{client: s.Assistants, cfg: cfg, sleep: s.Sleep, now: s.now}
	if p.sleep == nil {
		p.sleep = sleepCtx
	}
	return p
}

func (s *TutorService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TutorService) observeRun(ct domain.ChatType, outcome string, started time.Time) {
	observability.AssistantRuns.WithLabelValues(string(ct), outcome).Inc()
	observability.AssistantRunDuration.WithLabelValues(string(ct), outcome).Observe(s.now().Sub(started).Seconds())
}

func runOutcome(err error) string {
	switch {
	case errors.Is(err, ErrRunTimeout):
		return outcomeTimeout
	case errors.Is(err, ErrRunFailed):
		return outcomeFailed
	default:
		return outcomeUpstream
	}
}
