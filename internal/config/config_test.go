package config

import (
	"log/slog"
	"strings"
	"testing"
)

func TestEnvOverrides_Apply(t *testing.T) {
	cfg := DefaultLocalConfig()

	EnvOverrides{
		Mode:          "generative",
		UserID:        "bob",
		Provider:      "claude",
		APIKey:        "sk-env",
		StorageDriver: "postgres",
		SQLitePath:    "/data/etl.db",
		PostgresURL:   "postgres://db/etl",
		RabbitMQURL:   "amqp://guest:guest@mq:5672/",
		LogLevel:      "warn",
		Port:          9000,
	}.Apply(cfg)

	if cfg.Trainer.Mode != "generative" {
		t.Errorf("Mode = %q", cfg.Trainer.Mode)
	}
	if cfg.Trainer.UserID != "bob" {
		t.Errorf("UserID = %q", cfg.Trainer.UserID)
	}
	if cfg.LLM.DefaultProvider != "claude" {
		t.Errorf("DefaultProvider = %q", cfg.LLM.DefaultProvider)
	}
	claude := cfg.LLM.Providers["claude"]
	if claude.APIKey != "sk-env" || !claude.Enabled {
		t.Errorf("claude = %+v, want enabled with env key", claude)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.SQLitePath != "/data/etl.db" || cfg.Storage.PostgresURL != "postgres://db/etl" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Events.RabbitMQURL != "amqp://guest:guest@mq:5672/" {
		t.Errorf("RabbitMQURL = %q", cfg.Events.RabbitMQURL)
	}
	if cfg.LogLevel != "warn" || cfg.Daemon.Port != 9000 {
		t.Errorf("LogLevel = %q, Port = %d", cfg.LogLevel, cfg.Daemon.Port)
	}
}

func TestEnvOverrides_ApplyEmptyKeepsConfig(t *testing.T) {
	cfg := DefaultLocalConfig()
	EnvOverrides{}.Apply(cfg)

	def := DefaultLocalConfig()
	if cfg.Trainer != def.Trainer || cfg.Daemon != def.Daemon || cfg.Storage != def.Storage {
		t.Errorf("empty overrides changed config: %+v", cfg)
	}
}

func TestEnvOverrides_APIKeyForUnlistedProvider(t *testing.T) {
	cfg := DefaultLocalConfig()
	cfg.LLM.Providers = nil

	EnvOverrides{APIKey: "k"}.Apply(cfg)

	p, ok := cfg.LLM.Providers[ProviderMiniMax]
	if !ok || p.APIKey != "k" || !p.Enabled {
		t.Errorf("minimax = %+v, want created with key", p)
	}
}

func TestReadEnv(t *testing.T) {
	t.Setenv("ETLTRAINER_USER", "carol")
	t.Setenv("ETLTRAINER_RABBITMQ_URL", "amqp://localhost:5672/")

	env, err := ReadEnv()
	if err != nil {
		t.Fatalf("ReadEnv() error = %v", err)
	}
	if env.UserID != "carol" {
		t.Errorf("UserID = %q, want carol", env.UserID)
	}
	if env.RabbitMQURL != "amqp://localhost:5672/" {
		t.Errorf("RabbitMQURL = %q", env.RabbitMQURL)
	}
}

func TestReadEnv_InvalidPort(t *testing.T) {
	t.Setenv("ETLTRAINER_PORT", "not-a-number")

	if _, err := ReadEnv(); err == nil {
		t.Error("ReadEnv() should fail on a non-numeric port")
	}
}

func TestEnvUsage(t *testing.T) {
	usage, err := EnvUsage()
	if err != nil {
		t.Fatalf("EnvUsage() error = %v", err)
	}
	for _, name := range []string{"ETLTRAINER_MODE", "ETLTRAINER_API_KEY", "ETLTRAINER_POSTGRES_URL"} {
		if !strings.Contains(usage, name) {
			t.Errorf("EnvUsage() missing %s", name)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
