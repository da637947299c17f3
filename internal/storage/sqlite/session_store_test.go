package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"github.com/felixgeelhaar/etltrainer/internal/trainer"
)

func testSession(id string, updated time.Time) trainer.SessionContext {
	return trainer.SessionContext{
		ID:        id,
		UserID:    "alice",
		PatternID: domain.PatternPunct,
		Mode:      domain.ModeCanned,
		Question: domain.Question{
			PatternID: domain.PatternPunct,
			Code:      "SELECT * FROM T_A WHERE ID ＝ '123';",
			Origin:    domain.OriginCanned,
		},
		Editor:    "SELECT * FROM T_A WHERE ID = '123';",
		CreatedAt: updated,
		UpdatedAt: updated,
	}
}

func TestSessionStore_PutGet(t *testing.T) {
	store := NewSessionStore(openTestDB(t))
	ctx := context.Background()

	sc := testSession("s1", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	if err := store.Put(ctx, sc); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if diff := cmp.Diff(sc, got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionStore_PutUpdates(t *testing.T) {
	store := NewSessionStore(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	sc := testSession("s1", base)
	store.Put(ctx, sc)

	sc.Editor = "edited"
	sc.Question = domain.Question{PatternID: domain.PatternDate, Code: "AI Generation Error: timeout", Origin: domain.OriginFailed, Err: "timeout"}
	sc.PatternID = domain.PatternDate
	sc.UpdatedAt = base.Add(time.Minute)
	if err := store.Put(ctx, sc); err != nil {
		t.Fatalf("Put() update error = %v", err)
	}

	got, _ := store.Get(ctx, "s1")
	if diff := cmp.Diff(sc, got); diff != "" {
		t.Errorf("Get() after update mismatch (-want +got):\n%s", diff)
	}
	if !got.Question.Failed() {
		t.Error("failed question origin should round-trip")
	}
}

func TestSessionStore_Get_NotFound(t *testing.T) {
	store := NewSessionStore(openTestDB(t))

	_, err := store.Get(context.Background(), "nonexistent")
	if !errors.Is(err, trainer.ErrSessionNotFound) {
		t.Errorf("Get() error = %v; want ErrSessionNotFound", err)
	}
}

func TestSessionStore_Delete(t *testing.T) {
	store := NewSessionStore(openTestDB(t))
	ctx := context.Background()

	store.Put(ctx, testSession("s1", time.Now().UTC()))

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, trainer.ErrSessionNotFound) {
		t.Errorf("Get() after delete error = %v", err)
	}
	if err := store.Delete(ctx, "s1"); !errors.Is(err, trainer.ErrSessionNotFound) {
		t.Errorf("Delete() twice error = %v; want ErrSessionNotFound", err)
	}
}

func TestSessionStore_List(t *testing.T) {
	store := NewSessionStore(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	store.Put(ctx, testSession("old", base))
	store.Put(ctx, testSession("new", base.Add(time.Hour)))

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != "new" || list[1].ID != "old" {
		t.Errorf("List() = %v; want [new old]", list)
	}
}
