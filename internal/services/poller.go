package services

import (
	"context"
	"time"

	"github.com/tbourn/go-lesson-tutor/internal/llm"
)

// PollConfig bounds how long a submission waits for a run.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
	Budget      time.Duration
}

// DefaultPollConfig is 30 checks two seconds apart within 75 seconds.
var DefaultPollConfig = PollConfig{Interval: 2 * time.Second, MaxAttempts: 30, Budget: 75 * time.Second}

// runPoller drives a run from its first observed status to a terminal
// state. Only the polling state repeats; each repetition costs one attempt
// and the loop stops once attempts or the elapsed budget are exhausted.
type runPoller struct {
	client llm.AssistantClient
	cfg    PollConfig
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
}

// pollResult is the last observed run and how many status checks it took.
type pollResult struct {
	run      llm.Run
	attempts int
}

// await returns the completed run, a *RunFailedError for any other terminal
// status, ErrRunTimeout when the run is still pending at the limit, or an
// upstream error.
func (p *runPoller) await(ctx context.Context, threadID string, run llm.Run) (pollResult, error) {
	start := p.now()
	res := pollResult{run: run}

	for res.run.Status.Pending() {
		if res.attempts >= p.cfg.MaxAttempts || p.now().Sub(start) >= p.cfg.Budget {
			return res, ErrRunTimeout
		}
		if err := p.sleep(ctx, p.cfg.Interval); err != nil {
			return res, err
		}
		res.attempts++
		next, err := p.client.GetRun(ctx, threadID, res.run.ID)
		if err != nil {
			return res, upstream("retrieve run", err)
		}
		res.run = next
	}

	if res.run.Status == llm.RunCompleted {
		return res, nil
	}
	// requires_action is terminal here: no tool outputs are ever submitted.
	return res, &RunFailedError{Status: res.run.Status, Reason: res.run.LastError}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
