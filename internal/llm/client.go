// Package llm provides the hosted-assistant client used by the chat
// orchestrator: threads, messages and runs.
package llm

import (
	"context"
	"errors"
)

// ErrNoReply is returned when a completed run left no assistant text on the
// thread.
var ErrNoReply = errors.New("llm: run completed without an assistant reply")

// RunStatus is the lifecycle state of an assistant run.
type RunStatus string

const (
	RunQueued         RunStatus = "queued"
	RunInProgress     RunStatus = "in_progress"
	RunRequiresAction RunStatus = "requires_action"
	RunCancelling     RunStatus = "cancelling"
	RunCancelled      RunStatus = "cancelled"
	RunFailed         RunStatus = "failed"
	RunCompleted      RunStatus = "completed"
	RunExpired        RunStatus = "expired"
)

// Pending reports whether the run may still change state on its own.
func (s RunStatus) Pending() bool {
	switch s {
	case RunQueued, RunInProgress, RunCancelling:
		return true
	default:
		return false
	}
}

// Run is a snapshot of an assistant run.
type Run struct {
	ID        string
	ThreadID  string
	Status    RunStatus
	LastError string
}

// AssistantClient is the narrow surface of a hosted assistant API that the
// service depends on.
type AssistantClient interface {
	// CreateThread opens a new conversation thread and returns its id.
	CreateThread(ctx context.Context) (string, error)

	// ThreadExists reports whether threadID names a thread the caller can
	// use. A thread the provider does not know is (false, nil); transport
	// and server failures are returned as errors.
	ThreadExists(ctx context.Context, threadID string) (bool, error)

	// AddUserMessage appends a user turn to the thread.
	AddUserMessage(ctx context.Context, threadID, text string) error

	// StartRun asks assistantID to answer on the thread with the given
	// run-level instructions.
	StartRun(ctx context.Context, threadID, assistantID, instructions string) (Run, error)

	// GetRun fetches the current state of a run.
	GetRun(ctx context.Context, threadID, runID string) (Run, error)

	// Reply returns the text of the newest assistant message produced by runID.
	Reply(ctx context.Context, threadID, runID string) (string, error)
}
