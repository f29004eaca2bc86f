// Package services defines the business logic for tutoring chats, lesson
// progress, courses and learner profiles. This file centralizes service-level
// error values so they can be returned consistently by service methods and
// mapped to HTTP results by the handler layer.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-lesson-tutor/internal/llm"
)

// Validation errors. These are detected before any network call.
var (
	// ErrEmptyMessage is returned when a chat submission has no text.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrTooLong is returned when a chat submission exceeds the configured
	// rune limit.
	ErrTooLong = errors.New("message too long")

	// ErrInvalidChatType is returned for a chat type outside
	// recitation, qna and general.
	ErrInvalidChatType = errors.New("chatType must be one of recitation, qna, general")

	// ErrCourseRequired is returned when a request omits the course id.
	ErrCourseRequired = errors.New("courseId is required")

	// ErrLessonRequired is returned when a recitation chat omits the lesson id.
	ErrLessonRequired = errors.New("lessonId is required for recitation chats")

	// ErrInvalidProfile is returned when profile fields fail validation.
	ErrInvalidProfile = errors.New("invalid profile")
)

// Lookup errors.
var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrLessonNotFound  = errors.New("lesson not found")
	ErrProfileNotFound = errors.New("profile not found")
)

// Assistant errors.
var (
	// ErrMissingAssistantConfiguration is returned when no assistant id can be
	// resolved for the chat type, lesson and course.
	ErrMissingAssistantConfiguration = errors.New("no assistant configured for this chat")

	// ErrRunTimeout is returned when a run is still pending after the poll
	// attempts or time budget ran out.
	ErrRunTimeout = errors.New("assistant run timed out")

	// ErrRunFailed matches every *RunFailedError via errors.Is.
	ErrRunFailed = errors.New("assistant run failed")

	// ErrUpstreamUnavailable wraps transport and API errors from the assistant
	// provider.
	ErrUpstreamUnavailable = errors.New("assistant service unavailable")
)

// RunFailedError reports a run that reached a terminal state other than
// completed.
type RunFailedError struct {
	Status llm.RunStatus
	Reason string
}

func (e *RunFailedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("assistant run ended with status %s: %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("assistant run ended with status %s", e.Status)
}

// Is makes errors.Is(err, ErrRunFailed) true for every RunFailedError.
func (e *RunFailedError) Is(target error) bool { return target == ErrRunFailed }

// upstream wraps a provider error so callers can match ErrUpstreamUnavailable
// while keeping the cause.
func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, op, err)
}
