package mcp

import (
	"context"
	"fmt"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"github.com/felixgeelhaar/etltrainer/internal/trainer"
)

// Server wraps the MCP server with trainer functionality
type Server struct {
	mcpServer   *server.Server
	service     *trainer.Service
	sessions    trainer.SessionStore
	defaultUser string
	defaultMode domain.Mode
}

// Config contains configuration for the MCP server
type Config struct {
	Service     *trainer.Service
	Sessions    trainer.SessionStore
	DefaultUser string
	DefaultMode domain.Mode
	Version     string
}

// NewServer creates a new MCP server for the trainer
func NewServer(cfg Config) *Server {
	s := &Server{
		service:     cfg.Service,
		sessions:    cfg.Sessions,
		defaultUser: cfg.DefaultUser,
		defaultMode: cfg.DefaultMode,
	}
	if s.sessions == nil {
		s.sessions = trainer.NewSessions()
	}
	if s.defaultUser == "" {
		s.defaultUser = trainer.DefaultUserID
	}
	if !s.defaultMode.Valid() {
		s.defaultMode = domain.ModeCanned
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s.mcpServer = server.New(server.Info{
		Name:    "etltrainer",
		Version: version,
	}, server.WithInstructions(`
ETL Trainer drills legacy-to-Snowflake SQL migration patterns.

Available tools:
- etl_patterns: List the migration patterns (P1-P4)
- etl_start: Start a training session on a pattern and get its first question
- etl_new_question: Draw another question for the session's pattern
- etl_submit: Submit a rewrite of the current question and get a verdict
- etl_mistakes: List a user's failed attempts

Patterns:
- P1: TO_DATE must become TO_TIMESTAMP_NTZ
- P2: Full-width punctuation must become ASCII
- P3: Empty-string comparisons must become IS NULL
- P4: All of the above at once
`))

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("etl_patterns").
		Description("List the migration patterns available for training.").
		Handler(s.handlePatterns)

	s.mcpServer.Tool("etl_start").
		Description("Start a training session on a pattern. Returns the session ID and the first question.").
		Handler(s.handleStart)

	s.mcpServer.Tool("etl_new_question").
		Description("Draw a new question for the session's current pattern.").
		Handler(s.handleNewQuestion)

	s.mcpServer.Tool("etl_submit").
		Description("Submit rewritten SQL for the current question and get a verdict.").
		Handler(s.handleSubmit)

	s.mcpServer.Tool("etl_mistakes").
		Description("List a user's failed attempts, newest first.").
		Handler(s.handleMistakes)
}

type PatternsInput struct{}

type PatternInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Samples     int    `json:"samples"`
}

type PatternsOutput struct {
	Patterns []PatternInfo `json:"patterns"`
}

type StartInput struct {
	PatternID string `json:"pattern_id" jsonschema:"description=Pattern ID such as P1,enum=P1,enum=P2,enum=P3,enum=P4"`
	UserID    string `json:"user_id,omitempty" jsonschema:"description=User label (default: User1)"`
	Mode      string `json:"mode,omitempty" jsonschema:"description=Question and review mode,enum=canned,enum=generative"`
}

type QuestionOutput struct {
	SessionID string `json:"session_id"`
	PatternID string `json:"pattern_id"`
	Mode      string `json:"mode"`
	Origin    string `json:"origin"`
	Question  string `json:"question"`
}

type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session ID from etl_start"`
}

type SubmitInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session ID from etl_start"`
	Code      string `json:"code" jsonschema:"description=Rewritten SQL for the current question"`
}

type SubmitOutput struct {
	IsCorrect bool     `json:"is_correct"`
	Feedback  string   `json:"feedback"`
	Reviewer  string   `json:"reviewer"`
	Rules     []string `json:"rules,omitempty"`
	LogID     int64    `json:"log_id"`
}

type MistakesInput struct {
	UserID string `json:"user_id,omitempty" jsonschema:"description=User label (default: User1)"`
}

type MistakeInfo struct {
	LogID     int64  `json:"log_id"`
	PatternID string `json:"pattern_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Feedback  string `json:"feedback"`
	CreatedAt string `json:"created_at"`
}

type MistakesOutput struct {
	UserID   string        `json:"user_id"`
	Mistakes []MistakeInfo `json:"mistakes"`
}

func (s *Server) handlePatterns(ctx context.Context, _ PatternsInput) (PatternsOutput, error) {
	patterns := s.service.Catalog().List()
	out := PatternsOutput{Patterns: make([]PatternInfo, 0, len(patterns))}
	for _, p := range patterns {
		out.Patterns = append(out.Patterns, PatternInfo{
			ID:          string(p.ID),
			Name:        p.Name,
			Description: p.Description,
			Samples:     len(p.Samples),
		})
	}
	return out, nil
}

func (s *Server) handleStart(ctx context.Context, input StartInput) (QuestionOutput, error) {
	mode := s.defaultMode
	if input.Mode != "" {
		m, err := domain.ParseMode(input.Mode)
		if err != nil {
			return QuestionOutput{}, err
		}
		mode = m
	}
	user := input.UserID
	if user == "" {
		user = s.defaultUser
	}

	sc, err := s.service.NewSession(ctx, user, domain.PatternID(input.PatternID), mode)
	if err != nil {
		return QuestionOutput{}, fmt.Errorf("failed to start session: %w", err)
	}
	if err := s.sessions.Put(ctx, sc); err != nil {
		return QuestionOutput{}, fmt.Errorf("failed to save session: %w", err)
	}
	return questionOutput(sc), nil
}

func (s *Server) handleNewQuestion(ctx context.Context, input SessionInput) (QuestionOutput, error) {
	sc, err := s.sessions.Get(ctx, input.SessionID)
	if err != nil {
		return QuestionOutput{}, err
	}

	sc, err = s.service.NewQuestion(ctx, sc)
	if err != nil {
		return QuestionOutput{}, fmt.Errorf("failed to draw question: %w", err)
	}
	if err := s.sessions.Put(ctx, sc); err != nil {
		return QuestionOutput{}, fmt.Errorf("failed to save session: %w", err)
	}
	return questionOutput(sc), nil
}

func (s *Server) handleSubmit(ctx context.Context, input SubmitInput) (SubmitOutput, error) {
	sc, err := s.sessions.Get(ctx, input.SessionID)
	if err != nil {
		return SubmitOutput{}, err
	}

	sc = s.service.SetEditor(sc, input.Code)
	sc, res, err := s.service.Submit(ctx, sc)
	if err != nil {
		return SubmitOutput{}, fmt.Errorf("failed to submit: %w", err)
	}
	if err := s.sessions.Put(ctx, sc); err != nil {
		return SubmitOutput{}, fmt.Errorf("failed to save session: %w", err)
	}

	out := SubmitOutput{
		IsCorrect: res.Verdict.IsCorrect,
		Feedback:  res.Verdict.Feedback,
		Reviewer:  res.Verdict.Reviewer,
	}
	for _, f := range res.Verdict.Findings {
		out.Rules = append(out.Rules, string(f.Rule))
	}
	if res.Entry != nil {
		out.LogID = res.Entry.ID
	}
	return out, nil
}

func (s *Server) handleMistakes(ctx context.Context, input MistakesInput) (MistakesOutput, error) {
	user := input.UserID
	if user == "" {
		user = s.defaultUser
	}

	entries, err := s.service.Mistakes(ctx, user)
	if err != nil {
		return MistakesOutput{}, fmt.Errorf("failed to list mistakes: %w", err)
	}

	out := MistakesOutput{UserID: user, Mistakes: make([]MistakeInfo, 0, len(entries))}
	for _, e := range entries {
		out.Mistakes = append(out.Mistakes, MistakeInfo{
			LogID:     e.ID,
			PatternID: string(e.PatternID),
			Question:  e.QuestionCode,
			Answer:    e.UserCode,
			Feedback:  e.Feedback,
			CreatedAt: e.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return out, nil
}

func questionOutput(sc trainer.SessionContext) QuestionOutput {
	return QuestionOutput{
		SessionID: sc.ID,
		PatternID: string(sc.PatternID),
		Mode:      string(sc.Mode),
		Origin:    string(sc.Question.Origin),
		Question:  sc.Question.Code,
	}
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
