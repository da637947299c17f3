package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvOverrides are the ETLTRAINER_* environment variables. Unset variables
// leave the file configuration untouched.
type EnvOverrides struct {
	Mode          string `env:"ETLTRAINER_MODE" env-description:"question and review mode (canned|generative)"`
	UserID        string `env:"ETLTRAINER_USER" env-description:"learner identifier"`
	Provider      string `env:"ETLTRAINER_PROVIDER" env-description:"default LLM provider (minimax|claude|openai|ollama)"`
	APIKey        string `env:"ETLTRAINER_API_KEY" env-description:"API key for the default LLM provider"`
	StorageDriver string `env:"ETLTRAINER_STORAGE_DRIVER" env-description:"persistence store (sqlite|postgres)"`
	SQLitePath    string `env:"ETLTRAINER_SQLITE_PATH" env-description:"SQLite database file"`
	PostgresURL   string `env:"ETLTRAINER_POSTGRES_URL" env-description:"PostgreSQL connection URL"`
	RabbitMQURL   string `env:"ETLTRAINER_RABBITMQ_URL" env-description:"RabbitMQ URL for training events"`
	LogLevel      string `env:"ETLTRAINER_LOG_LEVEL" env-description:"log level (debug|info|warn|error)"`
	Port          int    `env:"ETLTRAINER_PORT" env-description:"daemon port"`
}

// ReadEnv reads the ETLTRAINER_* environment variables
func ReadEnv() (EnvOverrides, error) {
	var env EnvOverrides
	if err := cleanenv.ReadEnv(&env); err != nil {
		return env, fmt.Errorf("read environment: %w", err)
	}
	return env, nil
}

// ApplyEnv overlays the environment onto cfg
func ApplyEnv(cfg *LocalConfig) error {
	env, err := ReadEnv()
	if err != nil {
		return err
	}
	env.Apply(cfg)
	return nil
}

// Apply copies every set override into cfg
func (e EnvOverrides) Apply(cfg *LocalConfig) {
	if e.Mode != "" {
		cfg.Trainer.Mode = e.Mode
	}
	if e.UserID != "" {
		cfg.Trainer.UserID = e.UserID
	}
	if e.Provider != "" {
		cfg.LLM.DefaultProvider = e.Provider
	}
	if e.APIKey != "" && cfg.LLM.DefaultProvider != "" {
		if cfg.LLM.Providers == nil {
			cfg.LLM.Providers = make(map[string]*ProviderConfig)
		}
		p, ok := cfg.LLM.Providers[cfg.LLM.DefaultProvider]
		if !ok {
			p = &ProviderConfig{}
			cfg.LLM.Providers[cfg.LLM.DefaultProvider] = p
		}
		p.APIKey = e.APIKey
		p.Enabled = true
	}
	if e.StorageDriver != "" {
		cfg.Storage.Driver = e.StorageDriver
	}
	if e.SQLitePath != "" {
		cfg.Storage.SQLitePath = e.SQLitePath
	}
	if e.PostgresURL != "" {
		cfg.Storage.PostgresURL = e.PostgresURL
	}
	if e.RabbitMQURL != "" {
		cfg.Events.RabbitMQURL = e.RabbitMQURL
	}
	if e.LogLevel != "" {
		cfg.LogLevel = e.LogLevel
	}
	if e.Port != 0 {
		cfg.Daemon.Port = e.Port
	}
}

// EnvUsage describes the supported environment variables
func EnvUsage() (string, error) {
	header := "Environment overrides:"
	return cleanenv.GetDescription(&EnvOverrides{}, &header)
}
