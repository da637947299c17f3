package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

// MessageHandler processes one event message. A failure requeues the
// message once; a failing redelivery is dropped.
type MessageHandler func(ctx context.Context, msg *Message) error

// ConsumerConfig sizes a Consumer. Zero fields take the defaults.
type ConsumerConfig struct {
	Queue    string
	Workers  int
	Prefetch int
}

func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Queue:    AttemptQueueName,
		Workers:  1,
		Prefetch: 10,
	}
}

// Consumer drains one queue with a fixed pool of workers.
type Consumer struct {
	conn     *Connection
	queue    string
	handler  MessageHandler
	workers  int
	prefetch int
}

func NewConsumer(conn *Connection, handler MessageHandler, cfg ConsumerConfig) *Consumer {
	def := DefaultConsumerConfig()
	if cfg.Queue == "" {
		cfg.Queue = def.Queue
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = def.Prefetch
	}
	return &Consumer{
		conn:     conn,
		queue:    cfg.Queue,
		handler:  handler,
		workers:  cfg.Workers,
		prefetch: cfg.Prefetch,
	}
}

// Run consumes until ctx is cancelled or the broker closes the delivery
// channel. Cancellation is not an error.
func (c *Consumer) Run(ctx context.Context) error {
	ch := c.conn.Channel()
	if ch == nil {
		return fmt.Errorf("consume %s: not connected", c.queue)
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	// manual acks; the broker names the consumer
	deliveries, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	slog.Info("consuming events", "queue", c.queue, "workers", c.workers, "prefetch", c.prefetch)

	g, ctx := errgroup.WithContext(ctx)
	for w := range c.workers {
		g.Go(func() error {
			c.work(ctx, w, deliveries)
			return nil
		})
	}
	err = g.Wait()
	slog.Info("consumer stopped", "queue", c.queue)
	return err
}

func (c *Consumer) work(ctx context.Context, worker int, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				slog.Debug("delivery channel closed", "queue", c.queue, "worker", worker)
				return
			}
			settle(ctx, worker, d.Body, d.Redelivered, d, c.handler)
		}
	}
}

// acker settles a delivery; amqp.Delivery implements it.
type acker interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
	Reject(requeue bool) error
}

func settle(ctx context.Context, worker int, body []byte, redelivered bool, ack acker, handler MessageHandler) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		slog.Error("undecodable event message", "worker", worker, "error", err)
		_ = ack.Reject(false)
		return
	}

	if err := handler(ctx, &msg); err != nil {
		slog.Warn("event handler failed",
			"worker", worker,
			"event_id", msg.ID,
			"type", msg.Type,
			"redelivered", redelivered,
			"error", err,
		)
		_ = ack.Nack(false, !redelivered)
		return
	}

	if err := ack.Ack(false); err != nil {
		slog.Error("ack event message", "worker", worker, "event_id", msg.ID, "error", err)
	}
}
