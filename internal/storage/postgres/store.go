package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"github.com/felixgeelhaar/etltrainer/internal/trainer"
)

const schema = `
CREATE TABLE IF NOT EXISTS training_logs (
    id            BIGSERIAL   PRIMARY KEY,
    user_id       TEXT        NOT NULL,
    pattern_type  TEXT        NOT NULL,
    question_code TEXT        NOT NULL,
    user_code     TEXT        NOT NULL,
    ai_feedback   TEXT,
    is_correct    BOOLEAN     NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_training_logs_user_created
    ON training_logs (user_id, created_at DESC, id DESC);
`

const logColumns = "id, user_id, pattern_type, question_code, user_code, ai_feedback, is_correct, created_at"

// LogStore implements trainer.LogStore using PostgreSQL
type LogStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// Open connects to PostgreSQL and ensures the schema exists
func Open(ctx context.Context, url string) (*LogStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := NewLogStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	slog.Info("connected to postgres", "max_conns", pool.Config().MaxConns)
	return store, nil
}

// NewLogStore creates a store on an existing pool
func NewLogStore(pool *pgxpool.Pool) *LogStore {
	return &LogStore{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates the training log table if missing
func (s *LogStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Append inserts an entry and fills in its ID and creation time
func (s *LogStore) Append(ctx context.Context, e *domain.LogEntry) error {
	query := `
		INSERT INTO training_logs (user_id, pattern_type, question_code, user_code, ai_feedback, is_correct, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := s.pool.QueryRow(ctx, query,
		e.UserID, string(e.PatternID), e.QuestionCode, e.UserCode, e.Feedback, e.IsCorrect, s.now(),
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert training log: %w", err)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return nil
}

// ListMistakes returns the user's failed attempts, newest first
func (s *LogStore) ListMistakes(ctx context.Context, userID string) ([]*domain.LogEntry, error) {
	query := `SELECT ` + logColumns + ` FROM training_logs
		WHERE user_id = $1 AND NOT is_correct
		ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query mistakes: %w", err)
	}
	return collectEntries(rows)
}

// ListLogs returns the user's attempts, newest first. limit <= 0 returns all.
func (s *LogStore) ListLogs(ctx context.Context, userID string, limit int) ([]*domain.LogEntry, error) {
	query := `SELECT ` + logColumns + ` FROM training_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query training logs: %w", err)
	}
	return collectEntries(rows)
}

// Get retrieves an entry by ID
func (s *LogStore) Get(ctx context.Context, id int64) (*domain.LogEntry, error) {
	query := `SELECT ` + logColumns + ` FROM training_logs WHERE id = $1`

	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query training log: %w", err)
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanEntry)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", domain.ErrLogNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Close releases the pool
func (s *LogStore) Close() error {
	s.pool.Close()
	return nil
}

func scanEntry(row pgx.CollectableRow) (*domain.LogEntry, error) {
	var (
		e         domain.LogEntry
		patternID string
		feedback  *string
	)
	if err := row.Scan(&e.ID, &e.UserID, &patternID, &e.QuestionCode, &e.UserCode, &feedback, &e.IsCorrect, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.PatternID = domain.PatternID(patternID)
	if feedback != nil {
		e.Feedback = *feedback
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

func collectEntries(rows pgx.Rows) ([]*domain.LogEntry, error) {
	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("scan training logs: %w", err)
	}
	return entries, nil
}

var _ trainer.LogStore = (*LogStore)(nil)
