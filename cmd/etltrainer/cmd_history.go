package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

func newMistakesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "mistakes",
		Short: "Show the mistake notebook, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}

			entries, err := a.Service.Mistakes(cmd.Context(), c.userID())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(c.out, "No mistakes recorded for %s.\n", c.userID())
				return nil
			}
			for _, e := range entries {
				printEntry(c.out, e)
				fmt.Fprintf(c.out, "  question: %s\n  answer:   %s\n  feedback: %s\n", e.QuestionCode, e.UserCode, e.Feedback)
			}
			return nil
		},
	}
}

func newLogsCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent training activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = a.Config.Trainer.RecentLimit
			}

			entries, err := a.Service.Activity(cmd.Context(), c.userID(), limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				printEntry(c.out, e)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of entries (default from config)")
	return cmd
}

func printEntry(w io.Writer, e *domain.LogEntry) {
	fmt.Fprintf(w, "#%d %s %s %s\n", e.ID, e.CreatedAt.Local().Format(timeLayout), e.PatternID, e.Status())
}
