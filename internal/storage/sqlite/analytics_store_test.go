package sqlite

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
)

func TestAnalyticsStore_Record(t *testing.T) {
	store := NewAnalyticsStore(openTestDB(t))
	ctx := context.Background()

	entry := &domain.LogEntry{ID: 3, UserID: "alice", PatternID: domain.PatternNull}
	event := domain.NewAttemptRecordedEvent("s1", entry, domain.Verdict{
		Reviewer: "rules",
		Findings: []domain.Finding{{Rule: domain.RuleNull}},
	})

	if err := store.Record(ctx, event); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	// same event twice is ignored
	if err := store.Record(ctx, event); err != nil {
		t.Fatalf("Record() duplicate error = %v", err)
	}

	events, err := store.Query(ctx, EventFilter{Type: domain.EventAttemptRecorded, SessionID: "s1"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Query() returned %d events; want 1", len(events))
	}
	if events[0].EventID != event.EventID().String() {
		t.Errorf("EventID = %q; want %q", events[0].EventID, event.EventID())
	}

	var payload struct {
		LogID    int64    `json:"log_id"`
		UserID   string   `json:"user_id"`
		Findings []string `json:"findings"`
	}
	if err := json.Unmarshal(events[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if payload.LogID != 3 || payload.UserID != "alice" {
		t.Errorf("payload = %+v", payload)
	}
	if diff := cmp.Diff([]string{"null"}, payload.Findings); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyticsStore_QueryFilters(t *testing.T) {
	store := NewAnalyticsStore(openTestDB(t))
	ctx := context.Background()

	now := time.Now().UTC()
	events := []domain.SessionStartedEvent{
		domain.NewSessionStartedEvent("s1", "alice", domain.PatternDate, domain.ModeCanned),
		domain.NewSessionStartedEvent("s2", "bob", domain.PatternNull, domain.ModeCanned),
		domain.NewSessionStartedEvent("s1", "alice", domain.PatternPunct, domain.ModeCanned),
	}
	for i := range events {
		events[i].Timestamp = now.Add(time.Duration(i-3) * time.Hour)
		if err := store.Record(ctx, events[i]); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter EventFilter
		want   []string
	}{
		{"all newest first", EventFilter{}, []string{"s1", "s2", "s1"}},
		{"by session", EventFilter{SessionID: "s2"}, []string{"s2"}},
		{"since", EventFilter{Since: now.Add(-150 * time.Minute)}, []string{"s1", "s2"}},
		{"until", EventFilter{Until: now.Add(-150 * time.Minute)}, []string{"s1"}},
		{"limit", EventFilter{Limit: 1}, []string{"s1"}},
		{"other type", EventFilter{Type: domain.EventQuestionServed}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			sessions := []string{}
			for _, e := range got {
				sessions = append(sessions, e.SessionID)
			}
			if diff := cmp.Diff(tt.want, sessions); diff != "" {
				t.Errorf("sessions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAnalyticsStore_HandlerAndCounts(t *testing.T) {
	store := NewAnalyticsStore(openTestDB(t))
	dispatcher := domain.NewEventDispatcher()
	dispatcher.SubscribeAll(store.Handler())

	q := domain.Question{PatternID: domain.PatternDate, Origin: domain.OriginCanned}
	dispatcher.Publish(domain.NewSessionStartedEvent("s1", "alice", domain.PatternDate, domain.ModeCanned))
	dispatcher.Publish(domain.NewQuestionServedEvent("s1", "alice", q))
	dispatcher.Publish(domain.NewQuestionServedEvent("s1", "alice", q))

	counts, err := store.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	want := map[string]int{
		domain.EventSessionStarted: 1,
		domain.EventQuestionServed: 2,
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyticsStore_Prune(t *testing.T) {
	store := NewAnalyticsStore(openTestDB(t))
	ctx := context.Background()

	old := domain.NewSessionStartedEvent("s1", "alice", domain.PatternDate, domain.ModeCanned)
	old.Timestamp = time.Now().UTC().Add(-48 * time.Hour)
	fresh := domain.NewSessionStartedEvent("s2", "alice", domain.PatternDate, domain.ModeCanned)
	for _, e := range []domain.Event{old, fresh} {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	n, err := store.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() removed %d; want 1", n)
	}
	left, err := store.Query(ctx, EventFilter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(left) != 1 || left[0].SessionID != "s2" {
		t.Errorf("remaining = %+v; want only s2", left)
	}
}
