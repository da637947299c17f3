package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/etltrainer/internal/app"
	"github.com/felixgeelhaar/etltrainer/internal/config"
	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"github.com/felixgeelhaar/etltrainer/internal/trainer"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if err := newRootCmd(newCLI(os.Stdin, os.Stdout, os.Stderr)).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cli carries the state shared by all commands of one invocation
type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	user    string
	mode    string
	verbose bool

	loadConfig func() (*config.LocalConfig, error)
	cfg        *config.LocalConfig
	app        *app.App
}

func newCLI(in io.Reader, out, errOut io.Writer) *cli {
	return &cli{
		in:         in,
		out:        out,
		errOut:     errOut,
		loadConfig: config.LoadLocalConfig,
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "etltrainer",
		Short: "Practice legacy-to-Snowflake SQL migration patterns",
		Long: `ETL Trainer serves broken legacy SQL snippets for a chosen migration
pattern, checks your rewrite and keeps a notebook of your mistakes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if c.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(c.errOut, &slog.HandlerOptions{Level: level})))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
	}

	root.PersistentFlags().StringVarP(&c.user, "user", "u", "", "user label (default from config)")
	root.PersistentFlags().StringVarP(&c.mode, "mode", "m", "", "training mode: canned or generative (default from config)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newPatternsCmd(c),
		newQuestionCmd(c),
		newCheckCmd(c),
		newPracticeCmd(c),
		newMistakesCmd(c),
		newLogsCmd(c),
		newConfigCmd(c),
		newProviderCmd(c),
		newMCPCmd(c),
		newWatchCmd(c),
		newVersionCmd(c),
	)
	return root
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.out, "etltrainer %s\n", Version)
		},
	}
}

// config loads the configuration once and applies the global flags
func (c *cli) config() (*config.LocalConfig, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if c.user != "" {
		cfg.Trainer.UserID = c.user
	}
	if c.mode != "" {
		cfg.Trainer.Mode = c.mode
	}
	c.cfg = cfg
	return cfg, nil
}

// open wires the application on first use
func (c *cli) open(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}

	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Driver == config.DriverSQLite && cfg.Storage.SQLitePath != ":memory:" {
		if _, err := config.EnsureTrainerDir(); err != nil {
			return nil, err
		}
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

func (c *cli) userID() string {
	if c.cfg != nil && c.cfg.Trainer.UserID != "" {
		return c.cfg.Trainer.UserID
	}
	return trainer.DefaultUserID
}

func parsePattern(a *app.App, arg string) (domain.PatternID, error) {
	id := domain.PatternID(arg)
	if !a.Catalog.Has(id) {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownPattern, arg)
	}
	return id, nil
}
