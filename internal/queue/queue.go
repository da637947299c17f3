package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue names
const (
	AttemptQueueName = "etltrainer.attempts"
	EventQueueName   = "etltrainer.events"
)

// Message is the envelope of a training event on the wire
type Message struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	SessionID  string          `json:"session_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// queueSpec describes a durable queue and how long its messages live
type queueSpec struct {
	name string
	ttl  time.Duration
}

// Attempts feed downstream grading and dashboards and are kept a day;
// the other training events only an hour.
var queueSpecs = []queueSpec{
	{name: AttemptQueueName, ttl: 24 * time.Hour},
	{name: EventQueueName, ttl: time.Hour},
}

func (q queueSpec) args() amqp.Table {
	return amqp.Table{"x-message-ttl": int32(q.ttl.Milliseconds())}
}

const maxReconnects = 10

// Connection is a RabbitMQ connection and channel that redials after the
// broker drops it
type Connection struct {
	url        string
	mu         sync.RWMutex
	conn       *amqp.Connection
	channel    *amqp.Channel
	done       chan struct{}
	closeOnce  sync.Once
	reconnects int
}

// NewConnection dials the broker and declares the training queues
func NewConnection(url string) (*Connection, error) {
	c := &Connection{url: url, done: make(chan struct{})}
	if err := c.dial(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Connection) dial() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	for _, q := range queueSpecs {
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, q.args()); err != nil {
			conn.Close()
			return fmt.Errorf("failed to declare queue %s: %w", q.name, err)
		}
	}

	c.mu.Lock()
	c.conn, c.channel = conn, ch
	c.mu.Unlock()

	go c.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))

	slog.Info("connected to RabbitMQ", "url", sanitizeURL(c.url))
	return nil
}

// watch redials with backoff when the broker closes the connection. A
// nil error on the channel is a deliberate close.
func (c *Connection) watch(closed <-chan *amqp.Error) {
	var reason *amqp.Error
	select {
	case reason = <-closed:
	case <-c.done:
		return
	}
	if reason == nil {
		return
	}

	slog.Warn("RabbitMQ connection lost, reconnecting", "error", reason, "reconnects", c.reconnects)
	for attempt := 0; attempt < maxReconnects; attempt++ {
		select {
		case <-time.After(reconnectBackoff(attempt)):
		case <-c.done:
			return
		}

		c.reconnects++
		if err := c.dial(); err != nil {
			slog.Error("reconnection failed", "error", err, "attempt", attempt+1)
			continue
		}
		slog.Info("reconnected to RabbitMQ", "attempts", attempt+1)
		return
	}
	slog.Error("giving up on RabbitMQ", "attempts", maxReconnects)
}

// reconnectBackoff returns the wait before reconnect attempt n (0-based)
func reconnectBackoff(n int) time.Duration {
	if n >= 5 {
		return 30 * time.Second
	}
	return time.Duration(1<<n) * time.Second
}

// Channel returns the current channel
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// IsConnected reports whether the underlying connection is open
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// Close stops reconnecting and closes the connection
func (c *Connection) Close() error {
	c.closeOnce.Do(func() { close(c.done) })

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.conn.IsClosed() {
		return nil
	}
	return c.conn.Close()
}

// Publish sends an event envelope to a queue as a persistent JSON message
func (c *Connection) Publish(ctx context.Context, queue string, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ch := c.Channel()
	if ch == nil {
		return errors.New("rabbitmq channel is not open")
	}
	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID.String(),
		Type:         msg.Type,
		Timestamp:    msg.OccurredAt,
		Body:         body,
	})
}

// sanitizeURL hides the password of an AMQP URL for logging
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "amqp://[invalid]"
	}
	return u.Redacted()
}
