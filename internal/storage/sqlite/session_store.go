package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"github.com/felixgeelhaar/etltrainer/internal/trainer"
)

const sessionColumns = "id, user_id, pattern_id, mode, question, editor, created_at, updated_at"

// SessionStore implements trainer.SessionStore backed by SQLite.
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SQLite-backed session store.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Put persists a session (insert or update).
func (s *SessionStore) Put(ctx context.Context, sc trainer.SessionContext) error {
	question, err := json.Marshal(sc.Question)
	if err != nil {
		return fmt.Errorf("marshal question: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, pattern_id, mode, question, editor, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id=excluded.user_id, pattern_id=excluded.pattern_id,
			mode=excluded.mode, question=excluded.question,
			editor=excluded.editor, updated_at=excluded.updated_at`,
		sc.ID, sc.UserID, string(sc.PatternID), string(sc.Mode),
		string(question), sc.Editor, sc.CreatedAt.UTC(), sc.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(ctx context.Context, id string) (trainer.SessionContext, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id)

	sc, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return trainer.SessionContext{}, trainer.ErrSessionNotFound
	}
	return sc, err
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return trainer.ErrSessionNotFound
	}
	return nil
}

// List returns all sessions, most recently updated first.
func (s *SessionStore) List(ctx context.Context) ([]trainer.SessionContext, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+sessionColumns+" FROM sessions ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []trainer.SessionContext
	for rows.Next() {
		sc, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sc)
	}
	return sessions, rows.Err()
}

func scanSession(row scanner) (trainer.SessionContext, error) {
	var (
		sc        trainer.SessionContext
		patternID string
		mode      string
		question  string
	)
	err := row.Scan(&sc.ID, &sc.UserID, &patternID, &mode, &question, &sc.Editor, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sc, err
		}
		return sc, fmt.Errorf("scan session: %w", err)
	}

	if err := json.Unmarshal([]byte(question), &sc.Question); err != nil {
		return sc, fmt.Errorf("unmarshal question: %w", err)
	}
	sc.PatternID = domain.PatternID(patternID)
	sc.Mode = domain.Mode(mode)
	sc.CreatedAt = sc.CreatedAt.UTC()
	sc.UpdatedAt = sc.UpdatedAt.UTC()
	return sc, nil
}
