package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
)

// AnalyticsEvent is one stored domain event with its JSON payload.
type AnalyticsEvent struct {
	ID        int64           `json:"id"`
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	SessionID string          `json:"session_id,omitempty"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// EventFilter narrows Query; zero fields match everything.
type EventFilter struct {
	Type      string
	SessionID string
	Since     time.Time
	Until     time.Time
	Limit     int
}

func (f EventFilter) where() (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		conds = append(conds, cond)
		args = append(args, arg)
	}
	if f.Type != "" {
		add("event_type = ?", f.Type)
	}
	if f.SessionID != "" {
		add("session_id = ?", f.SessionID)
	}
	if !f.Since.IsZero() {
		add("created_at >= ?", f.Since.UTC())
	}
	if !f.Until.IsZero() {
		add("created_at <= ?", f.Until.UTC())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// AnalyticsStore is the append-only training event log.
type AnalyticsStore struct {
	db *DB
}

func NewAnalyticsStore(db *DB) *AnalyticsStore {
	return &AnalyticsStore{db: db}
}

// Record stores event keyed by its event ID; recording it again is a no-op.
func (s *AnalyticsStore) Record(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.EventType(), err)
	}

	var session any
	if id := event.SessionID(); id != "" {
		session = id
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO analytics_events (event_id, event_type, session_id, data, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		event.EventID().String(), event.EventType(), session, string(payload), event.OccurredAt().UTC(),
	); err != nil {
		return fmt.Errorf("record %s: %w", event.EventType(), err)
	}
	return nil
}

// Handler adapts Record to the event dispatcher. Errors are only logged.
func (s *AnalyticsStore) Handler() domain.EventHandler {
	return func(event domain.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Record(ctx, event); err != nil {
			slog.Warn("analytics event dropped", "type", event.EventType(), "error", err)
		}
	}
}

// Query returns the events matching f, newest first.
func (s *AnalyticsStore) Query(ctx context.Context, f EventFilter) ([]AnalyticsEvent, error) {
	where, args := f.where()
	query := "SELECT id, event_id, event_type, session_id, data, created_at FROM analytics_events" +
		where + " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analytics: %w", err)
	}
	defer rows.Close()

	events := []AnalyticsEvent{}
	for rows.Next() {
		var (
			e       AnalyticsEvent
			session *string
			data    []byte
		)
		if err := rows.Scan(&e.ID, &e.EventID, &e.EventType, &session, &data, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analytics event: %w", err)
		}
		if session != nil {
			e.SessionID = *session
		}
		e.Data = json.RawMessage(data)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Counts returns the number of stored events per event type.
func (s *AnalyticsStore) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT event_type, COUNT(*) FROM analytics_events GROUP BY event_type")
	if err != nil {
		return nil, fmt.Errorf("count analytics: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			typ string
			n   int
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan analytics count: %w", err)
		}
		counts[typ] = n
	}
	return counts, rows.Err()
}

// Prune deletes events recorded before now minus olderThan.
func (s *AnalyticsStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM analytics_events WHERE created_at < ?", time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("prune analytics: %w", err)
	}
	return res.RowsAffected()
}
