package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AssistantRuns counts finished assistant runs by chat type and outcome
	// (completed, failed, timeout, upstream_error).
	AssistantRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_assistant_runs_total",
			Help: "Assistant runs by chat type and outcome",
		},
		[]string{"chat_type", "outcome"},
	)

	// AssistantRunDuration tracks time from run start to a terminal state.
	AssistantRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutor_assistant_run_duration_seconds",
			Help:    "Assistant run duration from start to terminal state",
			Buckets: []float64{1, 2, 4, 6, 10, 15, 20, 30, 45, 60, 75},
		},
		[]string{"chat_type", "outcome"},
	)

	// PollAttempts observes how many status checks a run needed.
	PollAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tutor_run_poll_attempts",
			Help:    "Status checks per assistant run",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 30},
		},
	)

	// LessonsUnlocked counts lessons completed through an unlock code.
	LessonsUnlocked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tutor_lessons_unlocked_total",
			Help: "Lessons completed via an unlock code",
		},
	)

	// ProfileCacheLookups counts profile cache hits and misses.
	ProfileCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_profile_cache_lookups_total",
			Help: "Profile cache lookups by result",
		},
		[]string{"result"},
	)

	// EventPublishFailures counts analytics events that could not be sent.
	EventPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_event_publish_failures_total",
			Help: "Analytics events that failed to publish",
		},
		[]string{"event"},
	)
)
