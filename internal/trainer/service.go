package trainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/etltrainer/internal/catalog"
	"github.com/felixgeelhaar/etltrainer/internal/check"
	"github.com/felixgeelhaar/etltrainer/internal/domain"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotOwner        = errors.New("training log belongs to another user")
	ErrNotAMistake     = errors.New("training log is not a mistake")
)

// Result is the outcome of a submission
type Result struct {
	Verdict domain.Verdict   `json:"verdict"`
	Entry   *domain.LogEntry `json:"entry"`
}

// Service runs the training loop: pick a pattern, get a question, submit a
// rewrite, record the verdict.
type Service struct {
	catalog    *catalog.Catalog
	selector   QuestionSelector
	rules      check.Validator
	generative check.Validator // nil when no provider is configured
	store      LogStore
	events     *domain.EventDispatcher
	now        func() time.Time
}

// Deps holds the collaborators of a Service
type Deps struct {
	Catalog    *catalog.Catalog
	Selector   QuestionSelector
	Rules      check.Validator
	Generative check.Validator
	Store      LogStore
	Events     *domain.EventDispatcher
}

// NewService creates a new trainer service
func NewService(deps Deps) *Service {
	return &Service{
		catalog:    deps.Catalog,
		selector:   deps.Selector,
		rules:      deps.Rules,
		generative: deps.Generative,
		store:      deps.Store,
		events:     deps.Events,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Catalog returns the pattern catalog the service trains on
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// NewSession starts a session on a pattern with its first question
func (s *Service) NewSession(ctx context.Context, userID string, id domain.PatternID, mode domain.Mode) (SessionContext, error) {
	if !mode.Valid() {
		return SessionContext{}, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, mode)
	}

	sc := newSessionContext(userID, id, mode, s.now())
	sc, err := s.NewQuestion(ctx, sc)
	if err != nil {
		return SessionContext{}, err
	}

	s.events.Publish(domain.NewSessionStartedEvent(sc.ID, sc.UserID, sc.PatternID, sc.Mode))
	slog.Info("session started", "session", sc.ID, "user", sc.UserID, "pattern", sc.PatternID, "mode", sc.Mode)
	return sc, nil
}

// ChangePattern switches the session to another pattern. A different pattern
// gets a fresh question; selecting the current pattern keeps the session as is.
func (s *Service) ChangePattern(ctx context.Context, sc SessionContext, id domain.PatternID) (SessionContext, error) {
	if !s.catalog.Has(id) {
		return sc, fmt.Errorf("%w: %s", domain.ErrUnknownPattern, id)
	}
	if id == sc.PatternID && sc.Question.Code != "" {
		return sc, nil
	}

	sc.PatternID = id
	return s.NewQuestion(ctx, sc)
}

// SetMode switches between canned and generative mode. The cached question is kept.
func (s *Service) SetMode(sc SessionContext, mode domain.Mode) (SessionContext, error) {
	if !mode.Valid() {
		return sc, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, mode)
	}
	sc.Mode = mode
	sc.UpdatedAt = s.now()
	return sc, nil
}

// NewQuestion replaces the cached question and resets the editor
func (s *Service) NewQuestion(ctx context.Context, sc SessionContext) (SessionContext, error) {
	q, err := s.selector.Select(ctx, sc.PatternID, sc.Mode)
	if err != nil {
		return sc, err
	}

	sc = sc.withQuestion(q, s.now())
	s.events.Publish(domain.NewQuestionServedEvent(sc.ID, sc.UserID, q))
	return sc, nil
}

// SetEditor replaces the editor contents
func (s *Service) SetEditor(sc SessionContext, code string) SessionContext {
	sc.Editor = code
	sc.UpdatedAt = s.now()
	return sc
}

// Submit validates the editor contents against the current question and
// appends the attempt to the training log.
func (s *Service) Submit(ctx context.Context, sc SessionContext) (SessionContext, *Result, error) {
	sub := sc.Submission()

	verdict, err := s.validator(sc.Mode).Validate(ctx, sub)
	if err != nil {
		return sc, nil, err
	}

	entry := domain.NewLogEntry(sc.UserID, sub, verdict)
	if err := s.store.Append(ctx, entry); err != nil {
		return sc, nil, fmt.Errorf("append training log: %w", err)
	}

	s.events.Publish(domain.NewAttemptRecordedEvent(sc.ID, entry, verdict))
	slog.Info("attempt recorded",
		"session", sc.ID,
		"user", sc.UserID,
		"pattern", sub.PatternID,
		"reviewer", verdict.Reviewer,
		"correct", verdict.IsCorrect)

	sc.UpdatedAt = s.now()
	return sc, &Result{Verdict: verdict, Entry: entry}, nil
}

func (s *Service) validator(mode domain.Mode) check.Validator {
	if mode == domain.ModeGenerative && s.generative != nil {
		return s.generative
	}
	return s.rules
}

// Retry reloads a past mistake of the session's user as the current question
func (s *Service) Retry(ctx context.Context, sc SessionContext, logID int64) (SessionContext, error) {
	entry, err := s.store.Get(ctx, logID)
	if err != nil {
		return sc, err
	}
	if entry.UserID != sc.UserID {
		return sc, fmt.Errorf("%w: log %d", ErrNotOwner, logID)
	}
	if entry.IsCorrect {
		return sc, fmt.Errorf("%w: log %d", ErrNotAMistake, logID)
	}

	q := domain.Question{
		PatternID: entry.PatternID,
		Code:      entry.QuestionCode,
		Origin:    domain.OriginRetry,
	}
	sc = sc.withQuestion(q, s.now())

	s.events.Publish(domain.NewMistakeRetriedEvent(sc.ID, entry))
	return sc, nil
}

// Mistakes returns the user's mistake notebook, newest first
func (s *Service) Mistakes(ctx context.Context, userID string) ([]*domain.LogEntry, error) {
	return s.store.ListMistakes(ctx, userID)
}

// Activity returns the user's most recent attempts, newest first
func (s *Service) Activity(ctx context.Context, userID string, limit int) ([]*domain.LogEntry, error) {
	return s.store.ListLogs(ctx, userID, limit)
}

// GenerativeEnabled reports whether generative review is available
func (s *Service) GenerativeEnabled() bool {
	return s.generative != nil
}
