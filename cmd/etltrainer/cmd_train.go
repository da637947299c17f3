package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/etltrainer/internal/app"
	"github.com/felixgeelhaar/etltrainer/internal/check"
	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"github.com/felixgeelhaar/etltrainer/internal/trainer"
)

func newPatternsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List the migration patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}

			for _, p := range a.Catalog.List() {
				fmt.Fprintf(c.out, "%-4s %-24s %d samples\n", p.ID, p.Name, len(p.Samples))
				fmt.Fprintf(c.out, "     %s\n", p.Description)
			}
			return nil
		},
	}
}

func newQuestionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "question <pattern>",
		Short: "Print a broken snippet for a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			id, err := parsePattern(a, args[0])
			if err != nil {
				return err
			}

			sc, err := a.Service.NewSession(cmd.Context(), c.userID(), id, a.DefaultMode())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, sc.Question.Code)
			return nil
		},
	}
}

func newCheckCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "check <pattern> [file]",
		Short: "Check rewritten SQL against a pattern's rules (reads stdin without a file)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			id, err := parsePattern(a, args[0])
			if err != nil {
				return err
			}

			var code []byte
			if len(args) == 2 && args[1] != "-" {
				code, err = os.ReadFile(args[1])
			} else {
				code, err = io.ReadAll(c.in)
			}
			if err != nil {
				return fmt.Errorf("read sql: %w", err)
			}

			verdict, err := check.NewRuleValidator(a.Catalog).Check(id, string(code))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, verdict.Feedback)
			if !verdict.IsCorrect {
				return errCheckFailed
			}
			return nil
		},
	}
}

var errCheckFailed = errors.New("check failed")

func newPracticeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "practice [pattern]",
		Short: "Interactive practice loop",
		Long: `Interactive practice loop. Type your rewrite line by line, then:
  /submit        check the rewrite (the unchanged question when nothing was typed)
  /new           draw another question
  /pattern <id>  switch pattern
  /mode <mode>   switch between canned and generative
  /retry <id>    reload a mistake from the notebook
  /show          print the current question
  /quit          leave`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			id := domain.PatternDate
			if len(args) == 1 {
				if id, err = parsePattern(a, args[0]); err != nil {
					return err
				}
			}

			sc, err := a.Service.NewSession(cmd.Context(), c.userID(), id, a.DefaultMode())
			if err != nil {
				return err
			}
			return (&repl{cli: c, app: a, sc: sc}).run(cmd)
		},
	}
}

// repl drives one practice session from line-oriented input
type repl struct {
	cli    *cli
	app    *app.App
	sc     trainer.SessionContext
	buffer []string
}

func (r *repl) run(cmd *cobra.Command) error {
	r.show()

	scanner := bufio.NewScanner(r.cli.in)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "/") {
			r.buffer = append(r.buffer, line)
			continue
		}

		fields := strings.Fields(line)
		arg := ""
		if len(fields) > 1 {
			arg = fields[1]
		}

		var err error
		switch fields[0] {
		case "/quit", "/exit":
			return nil
		case "/submit":
			err = r.submit(cmd)
		case "/new":
			r.sc, err = r.app.Service.NewQuestion(cmd.Context(), r.sc)
			r.reset(err)
		case "/pattern":
			r.sc, err = r.app.Service.ChangePattern(cmd.Context(), r.sc, domain.PatternID(arg))
			r.reset(err)
		case "/mode":
			var mode domain.Mode
			if mode, err = domain.ParseMode(arg); err == nil {
				r.sc, err = r.app.Service.SetMode(r.sc, mode)
			}
			if err == nil {
				fmt.Fprintf(r.cli.out, "mode: %s\n", r.sc.Mode)
			}
		case "/retry":
			var logID int64
			if logID, err = strconv.ParseInt(arg, 10, 64); err != nil {
				err = fmt.Errorf("%w: log id %q", domain.ErrInvalidInput, arg)
			} else {
				r.sc, err = r.app.Service.Retry(cmd.Context(), r.sc, logID)
				r.reset(err)
			}
		case "/show":
			r.show()
		default:
			err = fmt.Errorf("unknown command %s", fields[0])
		}
		if err != nil {
			fmt.Fprintf(r.cli.out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func (r *repl) submit(cmd *cobra.Command) error {
	if len(r.buffer) > 0 {
		r.sc = r.app.Service.SetEditor(r.sc, strings.Join(r.buffer, "\n"))
		r.buffer = nil
	}

	sc, res, err := r.app.Service.Submit(cmd.Context(), r.sc)
	if err != nil {
		return err
	}
	r.sc = sc
	fmt.Fprintln(r.cli.out, res.Verdict.Feedback)
	return nil
}

// reset shows the new question after a successful question change
func (r *repl) reset(err error) {
	if err != nil {
		return
	}
	r.buffer = nil
	r.show()
}

func (r *repl) show() {
	p, err := r.app.Catalog.Get(r.sc.PatternID)
	label := string(r.sc.PatternID)
	if err == nil {
		label = p.Label()
	}
	fmt.Fprintf(r.cli.out, "[%s | %s | %s]\n%s\n", label, r.sc.Mode, r.sc.Question.Origin, r.sc.Question.Code)
}
