//go:build integration

package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"github.com/felixgeelhaar/etltrainer/internal/queue"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

// setupRabbitMQ creates a RabbitMQ container for testing
func setupRabbitMQ(t *testing.T) (string, func()) {
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12-management")
	if err != nil {
		t.Fatalf("failed to start RabbitMQ container: %v", err)
	}

	amqpURL, err := container.AmqpURL(ctx)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("failed to get AMQP URL: %v", err)
	}

	cleanup := func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return amqpURL, cleanup
}

func TestIntegration_Connection_ConnectAndClose(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}

	if !conn.IsConnected() {
		t.Error("expected connection to be active")
	}

	if err := conn.Close(); err != nil {
		t.Errorf("failed to close connection: %v", err)
	}
}

func TestIntegration_Connection_InvalidURL(t *testing.T) {
	_, err := queue.NewConnection("amqp://invalid:5672")
	if err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestIntegration_Publisher_RoutesAttempts(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	pub := queue.NewPublisher(conn)
	ctx := context.Background()

	entry := &domain.LogEntry{ID: 1, UserID: "User1", PatternID: domain.PatternDate}
	attempt := domain.NewAttemptRecordedEvent("s1", entry, domain.Verdict{IsCorrect: true, Reviewer: "rules"})
	if err := pub.PublishEvent(ctx, attempt); err != nil {
		t.Fatalf("PublishEvent(attempt) error = %v", err)
	}

	started := domain.NewSessionStartedEvent("s1", "User1", domain.PatternDate, domain.ModeCanned)
	if err := pub.PublishEvent(ctx, started); err != nil {
		t.Fatalf("PublishEvent(started) error = %v", err)
	}

	ch := conn.Channel()
	attempts, err := ch.QueueDeclarePassive(queue.AttemptQueueName, true, false, false, false, nil)
	if err != nil {
		t.Fatalf("inspect attempts queue: %v", err)
	}
	if attempts.Messages != 1 {
		t.Errorf("attempts queue has %d messages; want 1", attempts.Messages)
	}
}

func TestIntegration_Consumer_ReceivesEvents(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	received := make(chan *queue.Message, 1)
	consumer := queue.NewConsumer(conn, func(_ context.Context, m *queue.Message) error {
		received <- m
		return nil
	}, queue.ConsumerConfig{Queue: queue.AttemptQueueName})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- consumer.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-runErr; err != nil {
			t.Errorf("consumer.Run() error = %v", err)
		}
	}()

	entry := &domain.LogEntry{ID: 7, UserID: "User1", PatternID: domain.PatternNull}
	event := domain.NewAttemptRecordedEvent("s2", entry, domain.Verdict{Reviewer: "rules"})
	if err := queue.NewPublisher(conn).PublishEvent(ctx, event); err != nil {
		t.Fatalf("PublishEvent() error = %v", err)
	}

	select {
	case m := <-received:
		if m.ID != event.EventID() {
			t.Errorf("received ID = %v; want %v", m.ID, event.EventID())
		}
		if m.SessionID != "s2" {
			t.Errorf("received SessionID = %q; want s2", m.SessionID)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}
