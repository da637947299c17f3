package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/etltrainer/internal/config"
	"github.com/felixgeelhaar/etltrainer/internal/domain"
)

func testConfig(t *testing.T) *config.LocalConfig {
	t.Helper()
	cfg := config.DefaultLocalConfig()
	cfg.Storage.SQLitePath = ":memory:"
	return cfg
}

func TestNew_CannedTrainingLoop(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if a.Providers.Len() != 0 {
		t.Errorf("providers = %v; want none without API keys", a.Providers.List())
	}
	if a.Service.GenerativeEnabled() {
		t.Error("generative mode should be unavailable without providers")
	}
	if a.DefaultMode() != domain.ModeCanned {
		t.Errorf("DefaultMode() = %q; want canned", a.DefaultMode())
	}

	sc, err := a.Service.NewSession(ctx, "User1", domain.PatternDate, domain.ModeCanned)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if err := a.Sessions.Put(ctx, sc); err != nil {
		t.Fatalf("Sessions.Put() error = %v", err)
	}

	sc = a.Service.SetEditor(sc, "SELECT TO_TIMESTAMP_NTZ(ORDER_DT) FROM T_SALES;")
	_, res, err := a.Service.Submit(ctx, sc)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !res.Verdict.IsCorrect {
		t.Errorf("verdict = %+v; want pass", res.Verdict)
	}

	logs, err := a.Store().ListLogs(ctx, "User1", 5)
	if err != nil {
		t.Fatalf("ListLogs() error = %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("logs = %d; want 1", len(logs))
	}

	counts, err := a.Analytics.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if n := counts[domain.EventAttemptRecorded]; n != 1 {
		t.Errorf("recorded attempt events = %d; want 1", n)
	}
}

func TestNew_GenerativeFallsBackToCanned(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Trainer.Mode = "generative"

	a, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	sc, err := a.Service.NewSession(ctx, "User1", domain.PatternNull, a.DefaultMode())
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if sc.Question.Origin != domain.OriginCanned {
		t.Errorf("origin = %q; want canned fallback", sc.Question.Origin)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "oracle"

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("New() should reject an unknown storage driver")
	}
}

func TestNew_CatalogOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	overlay := "patterns:\n  - id: P3\n    samples:\n      - \"SELECT * FROM T_CUST WHERE NAME = '';\"\n"
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(t)
	cfg.Trainer.CatalogPath = path
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	samples, err := a.Catalog.Samples(domain.PatternNull)
	if err != nil {
		t.Fatal(err)
	}
	if samples[len(samples)-1] != "SELECT * FROM T_CUST WHERE NAME = '';" {
		t.Errorf("overlay sample missing: %v", samples)
	}

	cfg.Trainer.CatalogPath = filepath.Join(dir, "missing.yaml")
	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("New() should fail on a missing overlay")
	}
}

func TestSetupProviders(t *testing.T) {
	cfg := config.DefaultLocalConfig()
	cfg.LLM.Providers[config.ProviderClaude].Enabled = true // no key, skipped
	cfg.LLM.Providers[config.ProviderOllama].Enabled = true
	cfg.LLM.Providers[config.ProviderOpenAI].Enabled = true
	cfg.LLM.Providers[config.ProviderOpenAI].APIKey = "sk-test"

	reg := setupProviders(cfg, nil)

	got := reg.List()
	if len(got) != 2 || got[0] != "ollama" || got[1] != "openai" {
		t.Fatalf("providers = %v; want [ollama openai]", got)
	}

	// Default minimax has no key, so the first provider by name serves
	p, err := reg.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("default = %q; want ollama", p.Name())
	}
}

func TestSetupProviders_DefaultHonored(t *testing.T) {
	cfg := config.DefaultLocalConfig()
	cfg.LLM.Providers[config.ProviderMiniMax].APIKey = "mm-key"
	cfg.LLM.Providers[config.ProviderOllama].Enabled = true

	reg := setupProviders(cfg, nil)

	p, err := reg.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if p.Name() != "minimax" {
		t.Errorf("default = %q; want minimax", p.Name())
	}
}
