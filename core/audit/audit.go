// Package audit records security events from the login module lifecycle.
//
// Every login attempt, commit, abort and logout produces an Event. Events go
// to a Sink: ZapSink writes them to the structured log, MemorySink keeps them
// for inspection. A Recorder stamps IDs and raises high-risk events (such as
// a credential store outage) to an alert hook.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RiskLevel categorizes the severity of audit events.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Event types.
const (
	EventLoginSuccess = "auth.login.success"
	EventLoginFailure = "auth.login.failure"
	EventLoginBlocked = "auth.login.blocked"
	EventCommit       = "auth.commit"
	EventAbort        = "auth.abort"
	EventLogout       = "auth.logout"
)

// Event is a structured security event record.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Module     string    `json:"module"`
	Username   string    `json:"username,omitempty"`
	Status     string    `json:"status"` // "success", "failure", "blocked"
	Message    string    `json:"message,omitempty"`
	Principals []string  `json:"principals,omitempty"`
	Risk       RiskLevel `json:"risk"`
	CreatedAt  time.Time `json:"created_at"`
}

// EventBuilder provides a fluent API for creating audit events.
type EventBuilder struct {
	event *Event
}

// NewEvent starts building a new audit event.
func NewEvent(eventType, module string) *EventBuilder {
	return &EventBuilder{
		event: &Event{
			Type:      eventType,
			Module:    module,
			CreatedAt: time.Now(),
			Risk:      RiskLow,
		},
	}
}

func (b *EventBuilder) User(username string) *EventBuilder {
	b.event.Username = username
	return b
}

func (b *EventBuilder) Success() *EventBuilder {
	b.event.Status = "success"
	return b
}

func (b *EventBuilder) Failure() *EventBuilder {
	b.event.Status = "failure"
	return b
}

func (b *EventBuilder) Blocked() *EventBuilder {
	b.event.Status = "blocked"
	return b
}

func (b *EventBuilder) Message(msg string) *EventBuilder {
	b.event.Message = msg
	return b
}

func (b *EventBuilder) Principals(names []string) *EventBuilder {
	b.event.Principals = names
	return b
}

func (b *EventBuilder) Risk(level RiskLevel) *EventBuilder {
	b.event.Risk = level
	return b
}

func (b *EventBuilder) Build() *Event {
	return b.event
}

// Sink persists audit events.
type Sink interface {
	SaveEvent(ctx context.Context, event *Event) error
}

// Recorder wraps a Sink, assigning IDs and alerting on high risk events.
// A nil Recorder drops everything.
type Recorder struct {
	sink        Sink
	alertOnRisk func(ctx context.Context, event *Event)
}

// NewRecorder creates a recorder. alert may be nil.
func NewRecorder(sink Sink, alert func(ctx context.Context, event *Event)) *Recorder {
	return &Recorder{sink: sink, alertOnRisk: alert}
}

// Record saves event. Sink errors are returned but never affect the
// authentication outcome; callers log and continue.
func (r *Recorder) Record(ctx context.Context, event *Event) error {
	if r == nil || r.sink == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if err := r.sink.SaveEvent(ctx, event); err != nil {
		return err
	}
	if event.Risk == RiskHigh && r.alertOnRisk != nil {
		r.alertOnRisk(ctx, event)
	}
	return nil
}

// ZapSink writes events to a zap logger.
type ZapSink struct {
	log *zap.Logger
}

func NewZapSink(log *zap.Logger) *ZapSink {
	return &ZapSink{log: log.Named("audit")}
}

func (s *ZapSink) SaveEvent(ctx context.Context, e *Event) error {
	fields := []zap.Field{
		zap.String("id", e.ID),
		zap.String("type", e.Type),
		zap.String("module", e.Module),
		zap.String("status", e.Status),
		zap.String("risk", string(e.Risk)),
		zap.Time("created_at", e.CreatedAt),
	}
	if e.Username != "" {
		fields = append(fields, zap.String("username", e.Username))
	}
	if e.Message != "" {
		fields = append(fields, zap.String("message", e.Message))
	}
	if len(e.Principals) > 0 {
		fields = append(fields, zap.Strings("principals", e.Principals))
	}
	if e.Risk == RiskHigh {
		s.log.Warn("audit event", fields...)
	} else {
		s.log.Info("audit event", fields...)
	}
	return nil
}

// MemorySink keeps events in memory.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) SaveEvent(ctx context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *e)
	return nil
}

// Events returns a copy of the recorded events.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// Types returns the recorded event types in order.
func (s *MemorySink) Types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}
