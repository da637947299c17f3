//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"github.com/felixgeelhaar/etltrainer/internal/storage/postgres"
)

// setupPostgres creates a PostgreSQL container for testing
func setupPostgres(t *testing.T) (string, func()) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("etltrainer"),
		tcpostgres.WithUsername("trainer"),
		tcpostgres.WithPassword("trainer"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start PostgreSQL container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("failed to get connection string: %v", err)
	}

	cleanup := func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return url, cleanup
}

func TestIntegration_LogStore(t *testing.T) {
	url, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()
	store, err := postgres.Open(ctx, url)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	// schema creation is idempotent
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	attempts := []struct {
		user    string
		code    string
		correct bool
	}{
		{"alice", "first mistake", false},
		{"alice", "a pass", true},
		{"bob", "bob mistake", false},
		{"alice", "second mistake", false},
	}

	var ids []int64
	for _, a := range attempts {
		e := &domain.LogEntry{
			UserID:       a.user,
			PatternID:    domain.PatternNull,
			QuestionCode: `If Link.Col1 = "" Then ...`,
			UserCode:     a.code,
			Feedback:     "feedback",
			IsCorrect:    a.correct,
		}
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if e.ID == 0 || e.CreatedAt.IsZero() {
			t.Fatalf("Append() did not fill ID/CreatedAt: %+v", e)
		}
		ids = append(ids, e.ID)
	}

	mistakes, err := store.ListMistakes(ctx, "alice")
	if err != nil {
		t.Fatalf("ListMistakes() error = %v", err)
	}
	if len(mistakes) != 2 || mistakes[0].UserCode != "second mistake" || mistakes[1].UserCode != "first mistake" {
		t.Errorf("ListMistakes() = %+v", mistakes)
	}

	logs, err := store.ListLogs(ctx, "alice", 2)
	if err != nil {
		t.Fatalf("ListLogs() error = %v", err)
	}
	if len(logs) != 2 || logs[0].UserCode != "second mistake" || logs[1].UserCode != "a pass" {
		t.Errorf("ListLogs(2) = %+v", logs)
	}

	got, err := store.Get(ctx, ids[2])
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserID != "bob" || got.PatternID != domain.PatternNull {
		t.Errorf("Get() = %+v", got)
	}

	if _, err := store.Get(ctx, 99999); !errors.Is(err, domain.ErrLogNotFound) {
		t.Errorf("Get(99999) error = %v; want ErrLogNotFound", err)
	}
}
