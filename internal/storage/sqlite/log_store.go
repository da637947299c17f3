package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
)

const logColumns = "id, user_id, pattern_type, question_code, user_code, ai_feedback, is_correct, created_at"

// LogStore is the SQLite-backed training log. It owns the database handle.
type LogStore struct {
	db  *DB
	now func() time.Time
}

// NewLogStore creates a new SQLite-backed training log.
func NewLogStore(db *DB) *LogStore {
	return &LogStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Append stores an entry and fills in its ID and creation time.
func (s *LogStore) Append(ctx context.Context, e *domain.LogEntry) error {
	createdAt := s.now()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO training_logs (user_id, pattern_type, question_code, user_code, ai_feedback, is_correct, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, string(e.PatternID), e.QuestionCode, e.UserCode, e.Feedback, e.IsCorrect, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert training log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("training log id: %w", err)
	}

	e.ID = id
	e.CreatedAt = createdAt
	return nil
}

// ListMistakes returns the user's failed attempts, newest first.
func (s *LogStore) ListMistakes(ctx context.Context, userID string) ([]*domain.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+logColumns+" FROM training_logs WHERE user_id = ? AND is_correct = 0 ORDER BY created_at DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query mistakes: %w", err)
	}
	return scanLogEntries(rows)
}

// ListLogs returns the user's attempts, newest first. limit <= 0 returns all.
func (s *LogStore) ListLogs(ctx context.Context, userID string, limit int) ([]*domain.LogEntry, error) {
	query := "SELECT " + logColumns + " FROM training_logs WHERE user_id = ? ORDER BY created_at DESC, id DESC"
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query training logs: %w", err)
	}
	return scanLogEntries(rows)
}

// Get retrieves an entry by ID.
func (s *LogStore) Get(ctx context.Context, id int64) (*domain.LogEntry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+logColumns+" FROM training_logs WHERE id = ?", id)

	e, err := scanLogEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", domain.ErrLogNotFound, id)
	}
	return e, err
}

// Close closes the underlying database.
func (s *LogStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLogEntry(row scanner) (*domain.LogEntry, error) {
	var (
		e         domain.LogEntry
		patternID string
		feedback  sql.NullString
	)
	if err := row.Scan(&e.ID, &e.UserID, &patternID, &e.QuestionCode, &e.UserCode, &feedback, &e.IsCorrect, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.PatternID = domain.PatternID(patternID)
	e.Feedback = feedback.String
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

func scanLogEntries(rows *sql.Rows) ([]*domain.LogEntry, error) {
	defer rows.Close()

	var entries []*domain.LogEntry
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan training log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
