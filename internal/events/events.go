// Package events publishes fire-and-forget analytics events about learner
// activity. Delivery is best effort; callers log failures and move on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// Event names, appended to the subject prefix.
const (
	ChatSubmitted  = "chat.submitted"
	LessonUnlocked = "lesson.unlocked"
	ProfileUpdated = "profile.updated"
)

// Event is the envelope published for every analytics event.
type Event struct {
	Name       string         `json:"name"`
	UserID     string         `json:"userId"`
	CourseID   string         `json:"courseId,omitempty"`
	LessonID   string         `json:"lessonId,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
	Data       map[string]any `json:"data,omitempty"`
}

// Publisher emits analytics events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// NATS publishes events on core NATS subjects "<prefix>.<event name>".
type NATS struct {
	conn   *nats.Conn
	prefix string
}

// ConnectNATS dials url and returns a publisher. The connection reconnects
// indefinitely in the background.
func ConnectNATS(url, prefix, clientName string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectBufSize(8*1024*1024),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return NewNATS(nc, prefix), nil
}

// NewNATS wraps an existing connection.
func NewNATS(nc *nats.Conn, prefix string) *NATS {
	return &NATS{conn: nc, prefix: strings.Trim(prefix, ".")}
}

// Subject returns the subject an event name is published on.
func (p *NATS) Subject(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + "." + name
}

// Publish encodes ev as JSON and publishes it without waiting for an ack.
func (p *NATS) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.Subject(ev.Name), raw)
}

// Close drains pending messages and closes the connection.
func (p *NATS) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}

// IsConnected reports whether the connection is currently up.
func (p *NATS) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}
