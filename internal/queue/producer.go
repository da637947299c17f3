package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
)

// Publisher forwards training events to RabbitMQ
type Publisher struct {
	conn    *Connection
	timeout time.Duration
}

// NewPublisher creates a new event publisher
func NewPublisher(conn *Connection) *Publisher {
	return &Publisher{conn: conn, timeout: 5 * time.Second}
}

// NewMessage wraps a domain event in its wire envelope
func NewMessage(event domain.Event) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return &Message{
		ID:         event.EventID(),
		Type:       event.EventType(),
		SessionID:  event.SessionID(),
		OccurredAt: event.OccurredAt(),
		Payload:    payload,
	}, nil
}

// RouteFor returns the queue an event type is published to
func RouteFor(eventType string) string {
	if eventType == domain.EventAttemptRecorded {
		return AttemptQueueName
	}
	return EventQueueName
}

// PublishEvent publishes a training event to its queue
func (p *Publisher) PublishEvent(ctx context.Context, event domain.Event) error {
	msg, err := NewMessage(event)
	if err != nil {
		return err
	}

	queue := RouteFor(msg.Type)
	if err := p.conn.Publish(ctx, queue, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", msg.Type, err)
	}

	slog.Debug("published event",
		"event_id", msg.ID,
		"type", msg.Type,
		"session_id", msg.SessionID,
		"queue", queue,
	)

	return nil
}

// Handler returns an event handler publishing every dispatched event.
// Broker failures are logged and never fail the training loop.
func (p *Publisher) Handler() domain.EventHandler {
	return func(event domain.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		if err := p.PublishEvent(ctx, event); err != nil {
			slog.Warn("failed to publish training event", "type", event.EventType(), "error", err)
		}
	}
}
