package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"github.com/felixgeelhaar/etltrainer/internal/queue"
)

func newWatchCmd(c *cli) *cobra.Command {
	var events bool
	var workers int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print training events from the RabbitMQ broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if cfg.Events.RabbitMQURL == "" {
				return errors.New("events.rabbitmq_url is not configured")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			conn, err := queue.NewConnection(cfg.Events.RabbitMQURL)
			if err != nil {
				return err
			}
			defer conn.Close()

			ccfg := queue.DefaultConsumerConfig()
			if events {
				ccfg.Queue = queue.EventQueueName
			}
			if workers > 0 {
				ccfg.Workers = workers
			}

			fmt.Fprintf(c.errOut, "watching %s (Ctrl+C to stop)\n", ccfg.Queue)
			return queue.NewConsumer(conn, c.printMessage, ccfg).Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&events, "events", false, "watch session and question events instead of attempts")
	cmd.Flags().IntVar(&workers, "workers", 0, "consumer workers")
	return cmd
}

// printMessage renders one event; attempts get a one-line verdict summary
func (c *cli) printMessage(_ context.Context, msg *queue.Message) error {
	ts := msg.OccurredAt.Local().Format(timeLayout)
	if msg.Type != domain.EventAttemptRecorded {
		_, err := fmt.Fprintf(c.out, "%s %s session=%s %s\n", ts, msg.Type, msg.SessionID, msg.Payload)
		return err
	}

	var attempt domain.AttemptRecordedEvent
	if err := json.Unmarshal(msg.Payload, &attempt); err != nil {
		return fmt.Errorf("decode attempt: %w", err)
	}
	status := "❌ FAIL"
	if attempt.IsCorrect {
		status = "✅ PASS"
	}
	_, err := fmt.Fprintf(c.out, "%s %s user=%s pattern=%s log=%d reviewer=%s %s\n",
		ts, msg.Type, attempt.UserID, attempt.PatternID, attempt.LogID, attempt.Reviewer, status)
	return err
}
