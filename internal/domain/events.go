package domain

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is something that happened in a training session. Events are
// published after the fact and never fail the operation that raised them.
type Event interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	SessionID() string
}

// Event types
const (
	EventSessionStarted  = "session.started"
	EventQuestionServed  = "question.served"
	EventAttemptRecorded = "attempt.recorded"
	EventMistakeRetried  = "mistake.retried"
)

// BaseEvent carries the envelope fields shared by every event
type BaseEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Session   string    `json:"session_id"`
	UserID    string    `json:"user_id"`
}

func NewBaseEvent(eventType, sessionID, userID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Session:   sessionID,
		UserID:    userID,
	}
}

func (e BaseEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) SessionID() string     { return e.Session }

// EventHandler observes published events synchronously
type EventHandler func(event Event)

// anyType subscribes a handler to every event type
const anyType = "*"

// EventDispatcher fans events out to subscribers in subscription order,
// type-specific handlers before catch-all ones.
type EventDispatcher struct {
	mu   sync.RWMutex
	subs map[string][]EventHandler
}

func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{subs: make(map[string][]EventHandler)}
}

// Subscribe adds a handler for one event type
func (d *EventDispatcher) Subscribe(eventType string, handler EventHandler) {
	d.add(eventType, handler)
}

// SubscribeAll adds a handler for every event type
func (d *EventDispatcher) SubscribeAll(handler EventHandler) {
	d.add(anyType, handler)
}

func (d *EventDispatcher) add(key string, handler EventHandler) {
	d.mu.Lock()
	d.subs[key] = append(d.subs[key], handler)
	d.mu.Unlock()
}

// Publish delivers event to its subscribers. A nil dispatcher drops it.
func (d *EventDispatcher) Publish(event Event) {
	if d == nil {
		return
	}

	d.mu.RLock()
	handlers := append(slices.Clone(d.subs[event.EventType()]), d.subs[anyType]...)
	d.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// SessionStartedEvent is published when a training session begins
type SessionStartedEvent struct {
	BaseEvent
	PatternID PatternID `json:"pattern_id"`
	Mode      Mode      `json:"mode"`
}

func NewSessionStartedEvent(sessionID, userID string, patternID PatternID, mode Mode) SessionStartedEvent {
	return SessionStartedEvent{
		BaseEvent: NewBaseEvent(EventSessionStarted, sessionID, userID),
		PatternID: patternID,
		Mode:      mode,
	}
}

// QuestionServedEvent is published whenever a session receives a new question
type QuestionServedEvent struct {
	BaseEvent
	PatternID PatternID      `json:"pattern_id"`
	Origin    QuestionOrigin `json:"origin"`
}

func NewQuestionServedEvent(sessionID, userID string, q Question) QuestionServedEvent {
	return QuestionServedEvent{
		BaseEvent: NewBaseEvent(EventQuestionServed, sessionID, userID),
		PatternID: q.PatternID,
		Origin:    q.Origin,
	}
}

// AttemptRecordedEvent is published after a submission is validated and logged
type AttemptRecordedEvent struct {
	BaseEvent
	LogID     int64     `json:"log_id"`
	PatternID PatternID `json:"pattern_id"`
	IsCorrect bool      `json:"is_correct"`
	Reviewer  string    `json:"reviewer"`
	Findings  []RuleID  `json:"findings,omitempty"`
}

// NewAttemptRecordedEvent summarises a logged verdict; findings keep only rule IDs
func NewAttemptRecordedEvent(sessionID string, entry *LogEntry, verdict Verdict) AttemptRecordedEvent {
	var rules []RuleID
	for _, f := range verdict.Findings {
		rules = append(rules, f.Rule)
	}
	return AttemptRecordedEvent{
		BaseEvent: NewBaseEvent(EventAttemptRecorded, sessionID, entry.UserID),
		LogID:     entry.ID,
		PatternID: entry.PatternID,
		IsCorrect: verdict.IsCorrect,
		Reviewer:  verdict.Reviewer,
		Findings:  rules,
	}
}

// MistakeRetriedEvent is published when a past mistake is loaded for another try
type MistakeRetriedEvent struct {
	BaseEvent
	LogID     int64     `json:"log_id"`
	PatternID PatternID `json:"pattern_id"`
}

func NewMistakeRetriedEvent(sessionID string, entry *LogEntry) MistakeRetriedEvent {
	return MistakeRetriedEvent{
		BaseEvent: NewBaseEvent(EventMistakeRetried, sessionID, entry.UserID),
		LogID:     entry.ID,
		PatternID: entry.PatternID,
	}
}
