package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"gopkg.in/yaml.v3"
)

// Known provider names
const (
	ProviderMiniMax = "minimax"
	ProviderClaude  = "claude"
	ProviderOpenAI  = "openai"
	ProviderOllama  = "ollama"
)

// Storage drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultDBFile is the SQLite file name inside the trainer directory
const DefaultDBFile = "etl_training.db"

// LocalConfig holds configuration for the CLI and the local daemon
type LocalConfig struct {
	LogLevel string        `yaml:"log_level"`
	Daemon   DaemonConfig  `yaml:"daemon"`
	Trainer  TrainerConfig `yaml:"trainer"`
	LLM      LLMConfig     `yaml:"llm"`
	Storage  StorageConfig `yaml:"storage"`
	Events   EventsConfig  `yaml:"events"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// DaemonConfig holds daemon server settings
type DaemonConfig struct {
	Port int    `yaml:"port"`
	Bind string `yaml:"bind"`
}

// TrainerConfig holds training loop settings
type TrainerConfig struct {
	Mode        string `yaml:"mode"`         // canned or generative
	UserID      string `yaml:"user_id"`      // default learner
	CatalogPath string `yaml:"catalog_path"` // optional sample overlay
	RecentLimit int    `yaml:"recent_limit"` // recent activity entries
}

// LLMConfig holds LLM provider settings
type LLMConfig struct {
	DefaultProvider string                     `yaml:"default_provider"`
	TimeoutSeconds  int                        `yaml:"timeout_seconds"`
	Providers       map[string]*ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds settings for a single LLM provider
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	URL     string `yaml:"url,omitempty"`
	APIKey  string `yaml:"-"` // Loaded from secrets.yaml
}

// StorageConfig selects the persistence store
type StorageConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path,omitempty"`
	PostgresURL string `yaml:"postgres_url,omitempty"`
	SessionsDir string `yaml:"sessions_dir,omitempty"` // session files for the postgres driver

	// AnalyticsRetentionDays prunes older analytics events at startup; 0 keeps everything
	AnalyticsRetentionDays int `yaml:"analytics_retention_days,omitempty"`
}

// EventsConfig holds the optional event broker settings
type EventsConfig struct {
	RabbitMQURL string `yaml:"rabbitmq_url,omitempty"`
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// SecretsConfig holds API keys loaded from secrets.yaml
type SecretsConfig struct {
	Providers map[string]SecretEntry `yaml:"providers"`
}

// SecretEntry is a single provider secret
type SecretEntry struct {
	APIKey string `yaml:"api_key"`
}

// TrainerDir returns the path to ~/.etltrainer
func TrainerDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".etltrainer"), nil
}

// EnsureTrainerDir creates ~/.etltrainer and subdirectories if they don't exist
func EnsureTrainerDir() (string, error) {
	dir, err := TrainerDir()
	if err != nil {
		return "", err
	}

	for _, subdir := range []string{"", "logs"} {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// DefaultLocalConfig returns sensible defaults for local mode
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		LogLevel: "info",
		Daemon: DaemonConfig{
			Port: 7433,
			Bind: "127.0.0.1",
		},
		Trainer: TrainerConfig{
			Mode:        string(domain.ModeCanned),
			UserID:      "User1",
			RecentLimit: 5,
		},
		LLM: LLMConfig{
			DefaultProvider: ProviderMiniMax,
			TimeoutSeconds:  120,
			Providers: map[string]*ProviderConfig{
				ProviderMiniMax: {
					Enabled: true,
					Model:   "MiniMax-M2.1",
				},
				ProviderClaude: {
					Enabled: false,
					Model:   "claude-sonnet-4-20250514",
				},
				ProviderOpenAI: {
					Enabled: false,
					Model:   "gpt-4o",
				},
				ProviderOllama: {
					Enabled: false,
					URL:     "http://localhost:11434",
					Model:   "llama3",
				},
			},
		},
		Storage: StorageConfig{
			Driver:                 DriverSQLite,
			AnalyticsRetentionDays: 90,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// LoadLocalConfig loads ~/.etltrainer/config.yaml and secrets.yaml, then
// applies ETLTRAINER_* environment overrides.
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := TrainerDir()
	if err != nil {
		return nil, err
	}

	cfg, err := loadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		return nil, err
	}

	if err := loadSecrets(dir, cfg); err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(configPath string) (*LocalConfig, error) {
	// If config doesn't exist, return defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultLocalConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultLocalConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// loadSecrets loads API keys from secrets.yaml
func loadSecrets(dir string, cfg *LocalConfig) error {
	secretsPath := filepath.Join(dir, "secrets.yaml")

	// If secrets file doesn't exist, skip
	if _, err := os.Stat(secretsPath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(secretsPath)
	if err != nil {
		return fmt.Errorf("read secrets: %w", err)
	}

	var secrets SecretsConfig
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return fmt.Errorf("parse secrets: %w", err)
	}

	for name, secret := range secrets.Providers {
		if provider, ok := cfg.LLM.Providers[name]; ok {
			provider.APIKey = secret.APIKey
		}
	}

	return nil
}

// SaveLocalConfig saves configuration to ~/.etltrainer/config.yaml
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsureTrainerDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// SaveSecrets merges API keys into ~/.etltrainer/secrets.yaml
func SaveSecrets(secrets map[string]string) error {
	dir, err := EnsureTrainerDir()
	if err != nil {
		return err
	}

	secretsPath := filepath.Join(dir, "secrets.yaml")

	existing := SecretsConfig{Providers: make(map[string]SecretEntry)}
	if data, err := os.ReadFile(secretsPath); err == nil {
		if err := yaml.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf("parse secrets: %w", err)
		}
		if existing.Providers == nil {
			existing.Providers = make(map[string]SecretEntry)
		}
	}

	for name, key := range secrets {
		existing.Providers[name] = SecretEntry{APIKey: key}
	}

	data, err := yaml.Marshal(existing)
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}

	// Owner read/write only
	if err := os.WriteFile(secretsPath, data, 0600); err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}

	return nil
}

// SQLiteFile returns the configured SQLite path, defaulting to
// ~/.etltrainer/etl_training.db
func (c *LocalConfig) SQLiteFile() (string, error) {
	if c.Storage.SQLitePath != "" {
		return c.Storage.SQLitePath, nil
	}
	dir, err := TrainerDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultDBFile), nil
}

// SessionsPath returns the directory of file-backed sessions, defaulting to
// ~/.etltrainer/sessions
func (c *LocalConfig) SessionsPath() (string, error) {
	if c.Storage.SessionsDir != "" {
		return c.Storage.SessionsDir, nil
	}
	dir, err := TrainerDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions"), nil
}

// Validate rejects settings the trainer cannot run with
func (c *LocalConfig) Validate() error {
	if _, err := domain.ParseMode(c.Trainer.Mode); err != nil {
		return fmt.Errorf("trainer.mode: %w", err)
	}
	if c.Trainer.RecentLimit < 0 {
		return fmt.Errorf("trainer.recent_limit must not be negative")
	}

	if c.Daemon.Port <= 0 || c.Daemon.Port > 65535 {
		return fmt.Errorf("daemon.port %d out of range", c.Daemon.Port)
	}

	switch c.Storage.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("storage.postgres_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.AnalyticsRetentionDays < 0 {
		return fmt.Errorf("storage.analytics_retention_days must not be negative")
	}

	if p := c.LLM.DefaultProvider; p != "" {
		if _, ok := c.LLM.Providers[p]; !ok {
			return fmt.Errorf("default provider %q is not configured", p)
		}
	}
	for name := range c.LLM.Providers {
		switch name {
		case ProviderMiniMax, ProviderClaude, ProviderOpenAI, ProviderOllama:
		default:
			return fmt.Errorf("unknown provider %q", name)
		}
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// ParseLogLevel maps a config log level to slog
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
