package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-lesson-tutor/internal/llm"
)

func newTestPoller(fa *fakeAssistant, cfg PollConfig, clock *fakeClock) *runPoller {
	return &runPoller{client: fa, cfg: cfg, sleep: clock.Sleep, now: clock.Now}
}

func TestRunPoller_CompletedWithoutPolling(t *testing.T) {
	fa := newFakeAssistant("")
	p := newTestPoller(fa, DefaultPollConfig, newFakeClock())

	res, err := p.await(context.Background(), "th", llm.Run{ID: "r", Status: llm.RunCompleted})
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if res.attempts != 0 || fa.getRuns != 0 {
		t.Fatalf("expected no status checks, got %d", res.attempts)
	}
}

func TestRunPoller_QueuedThenCompleted(t *testing.T) {
	fa := newFakeAssistant("")
	fa.statuses = []llm.RunStatus{llm.RunQueued, llm.RunInProgress, llm.RunCompleted}
	clock := newFakeClock()
	p := newTestPoller(fa, DefaultPollConfig, clock)

	res, err := p.await(context.Background(), "th", llm.Run{ID: "r", Status: llm.RunQueued})
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if res.attempts != 3 || res.run.Status != llm.RunCompleted {
		t.Fatalf("expected completion after 3 checks, got %+v", res)
	}
	if clock.sleeps != 3 {
		t.Fatalf("expected a sleep before every check, got %d", clock.sleeps)
	}
}

func TestRunPoller_QueuedForWholeBudgetTimesOut(t *testing.T) {
	fa := newFakeAssistant("")
	fa.statuses = []llm.RunStatus{llm.RunQueued}
	p := newTestPoller(fa, PollConfig{Interval: 2 * time.Second, MaxAttempts: 30, Budget: time.Hour}, newFakeClock())

	res, err := p.await(context.Background(), "th", llm.Run{ID: "r", Status: llm.RunQueued})
	if !errors.Is(err, ErrRunTimeout) {
		t.Fatalf("expected ErrRunTimeout, got %v", err)
	}
	if res.attempts != 30 {
		t.Fatalf("expected 30 attempts, got %d", res.attempts)
	}
}

func TestRunPoller_ElapsedBudgetStopsBeforeAttempts(t *testing.T) {
	fa := newFakeAssistant("")
	fa.statuses = []llm.RunStatus{llm.RunInProgress}
	p := newTestPoller(fa, PollConfig{Interval: 10 * time.Second, MaxAttempts: 100, Budget: 35 * time.Second}, newFakeClock())

	res, err := p.await(context.Background(), "th", llm.Run{ID: "r", Status: llm.RunInProgress})
	if !errors.Is(err, ErrRunTimeout) {
		t.Fatalf("expected ErrRunTimeout, got %v", err)
	}
	if res.attempts != 4 {
		t.Fatalf("expected 4 attempts within a 35s budget, got %d", res.attempts)
	}
}

func TestRunPoller_TerminalStatuses(t *testing.T) {
	for _, st := range []llm.RunStatus{llm.RunFailed, llm.RunCancelled, llm.RunExpired, llm.RunRequiresAction} {
		t.Run(string(st), func(t *testing.T) {
			fa := newFakeAssistant("")
			fa.statuses = []llm.RunStatus{st}
			p := newTestPoller(fa, DefaultPollConfig, newFakeClock())

			_, err := p.await(context.Background(), "th", llm.Run{ID: "r", Status: llm.RunQueued})
			var rf *RunFailedError
			if !errors.As(err, &rf) || rf.Status != st {
				t.Fatalf("expected RunFailedError(%s), got %v", st, err)
			}
			if !errors.Is(err, ErrRunFailed) {
				t.Fatal("RunFailedError must match ErrRunFailed")
			}
		})
	}
}

func TestRunPoller_CancelledContext(t *testing.T) {
	fa := newFakeAssistant("")
	fa.statuses = []llm.RunStatus{llm.RunQueued}
	p := newTestPoller(fa, DefaultPollConfig, newFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.await(ctx, "th", llm.Run{ID: "r", Status: llm.RunQueued}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSleepCtx(t *testing.T) {
	if err := sleepCtx(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("sleepCtx: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepCtx(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := sleepCtx(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled for zero delay, got %v", err)
	}
}
