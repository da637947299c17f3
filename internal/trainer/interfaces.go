package trainer

import (
	"context"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
)

// LogStore is the append-only training log. Listings are newest first.
type LogStore interface {
	// Append assigns the entry its ID and creation time and stores it
	Append(ctx context.Context, entry *domain.LogEntry) error

	// ListMistakes returns the user's failed attempts
	ListMistakes(ctx context.Context, userID string) ([]*domain.LogEntry, error)

	// ListLogs returns up to limit attempts of the user; limit <= 0 returns all
	ListLogs(ctx context.Context, userID string, limit int) ([]*domain.LogEntry, error)

	// Get returns a single entry or domain.ErrLogNotFound
	Get(ctx context.Context, id int64) (*domain.LogEntry, error)

	Close() error
}

// QuestionSelector produces questions for a pattern
type QuestionSelector interface {
	Select(ctx context.Context, id domain.PatternID, mode domain.Mode) (domain.Question, error)
}

// SessionStore keeps the current SessionContext of live sessions for surfaces
// that cannot carry the value themselves (HTTP, MCP).
type SessionStore interface {
	Put(ctx context.Context, sc SessionContext) error
	Get(ctx context.Context, id string) (SessionContext, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]SessionContext, error)
}
