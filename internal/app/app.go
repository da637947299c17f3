// Package app builds the trainer and its collaborators from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/felixgeelhaar/etltrainer/internal/catalog"
	"github.com/felixgeelhaar/etltrainer/internal/check"
	"github.com/felixgeelhaar/etltrainer/internal/config"
	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"github.com/felixgeelhaar/etltrainer/internal/llm"
	"github.com/felixgeelhaar/etltrainer/internal/metrics"
	"github.com/felixgeelhaar/etltrainer/internal/question"
	"github.com/felixgeelhaar/etltrainer/internal/queue"
	"github.com/felixgeelhaar/etltrainer/internal/storage/local"
	"github.com/felixgeelhaar/etltrainer/internal/storage/postgres"
	"github.com/felixgeelhaar/etltrainer/internal/storage/sqlite"
	"github.com/felixgeelhaar/etltrainer/internal/trainer"
)

// App is a fully wired trainer
type App struct {
	Config    *config.LocalConfig
	Catalog   *catalog.Catalog
	Providers *llm.Registry
	Service   *trainer.Service
	Sessions  trainer.SessionStore
	Events    *domain.EventDispatcher
	Metrics   *metrics.Metrics       // nil when disabled
	Analytics *sqlite.AnalyticsStore // nil with the postgres driver
	Broker    *queue.Connection      // nil when no broker is configured

	store trainer.LogStore
}

// New validates cfg and wires every collaborator. The returned App owns the
// store and broker connections; call Close when done.
func New(ctx context.Context, cfg *config.LocalConfig) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{
		Config: cfg,
		Events: domain.NewEventDispatcher(),
	}

	cat, err := loadCatalog(cfg.Trainer.CatalogPath)
	if err != nil {
		return nil, err
	}
	a.Catalog = cat

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		a.Events.SubscribeAll(a.Metrics.EventHandler())
	}

	a.Providers = setupProviders(cfg, a.Metrics)

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	if cfg.Events.RabbitMQURL != "" {
		conn, err := queue.NewConnection(cfg.Events.RabbitMQURL)
		if err != nil {
			// The training loop never depends on the broker
			slog.Warn("event broker unavailable, continuing without it", "error", err)
		} else {
			a.Broker = conn
			a.Events.SubscribeAll(queue.NewPublisher(conn).Handler())
		}
	}

	a.Service = trainer.NewService(a.deps())
	return a, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	slog.Info("loaded catalog overlay", "path", path, "samples", cat.Stats().SampleCount)
	return cat, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.Config.Storage.Driver {
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, a.Config.Storage.PostgresURL)
		if err != nil {
			return fmt.Errorf("open postgres store: %w", err)
		}
		a.store = store

		dir, err := a.Config.SessionsPath()
		if err != nil {
			return err
		}
		sessions, err := local.NewSessionStore(dir)
		if err != nil {
			return fmt.Errorf("open session files: %w", err)
		}
		a.Sessions = sessions
		return nil

	default:
		path, err := a.Config.SQLiteFile()
		if err != nil {
			return err
		}
		db, err := sqlite.OpenMigrated(path)
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		a.store = sqlite.NewLogStore(db)
		a.Sessions = sqlite.NewSessionStore(db)
		a.Analytics = sqlite.NewAnalyticsStore(db)
		a.Events.SubscribeAll(a.Analytics.Handler())

		if days := a.Config.Storage.AnalyticsRetentionDays; days > 0 {
			n, err := a.Analytics.Prune(ctx, time.Duration(days)*24*time.Hour)
			if err != nil {
				slog.Warn("prune analytics failed", "error", err)
			} else if n > 0 {
				slog.Info("pruned analytics events", "count", n, "retention_days", days)
			}
		}
		return nil
	}
}

func (a *App) deps() trainer.Deps {
	deps := trainer.Deps{
		Catalog: a.Catalog,
		Rules:   check.NewRuleValidator(a.Catalog),
		Store:   a.store,
		Events:  a.Events,
	}

	var generative question.Source
	if p, err := a.Providers.Default(); err == nil {
		generative = question.NewGenerativeSource(p)
		deps.Generative = check.NewGenerativeValidator(a.Catalog, p)
		slog.Debug("generative mode available", "provider", p.Name())
	}
	deps.Selector = question.NewSelector(a.Catalog, nil, generative)
	return deps
}

// Store returns the persistence store
func (a *App) Store() trainer.LogStore {
	return a.store
}

// DefaultMode returns the configured training mode
func (a *App) DefaultMode() domain.Mode {
	mode, err := domain.ParseMode(a.Config.Trainer.Mode)
	if err != nil {
		return domain.ModeCanned
	}
	return mode
}

// Close releases the broker connection and the store
func (a *App) Close() error {
	var errs []error
	if a.Broker != nil {
		if err := a.Broker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close broker: %w", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// setupProviders registers every enabled and usable provider, each wrapped
// with circuit breaker and retry.
func setupProviders(cfg *config.LocalConfig, m *metrics.Metrics) *llm.Registry {
	registry := llm.NewRegistry()
	timeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second

	names := make([]string, 0, len(cfg.LLM.Providers))
	for name := range cfg.LLM.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pc := cfg.LLM.Providers[name]
		if pc == nil || !pc.Enabled {
			continue
		}

		provider := newProvider(name, pc, timeout)
		if provider == nil {
			continue
		}

		rc := llm.DefaultResilientConfig()
		rc.Observe = m.ObserveProvider
		registry.Register(name, llm.NewResilientProvider(provider, rc))
		slog.Info("registered LLM provider", "name", name, "model", pc.Model)
	}

	if def := cfg.LLM.DefaultProvider; def != "" {
		if err := registry.SetDefault(def); err != nil && registry.Len() > 0 {
			slog.Warn("default provider not available, falling back", "provider", def, "fallback", registry.List()[0])
		}
	}

	return registry
}

func newProvider(name string, pc *config.ProviderConfig, timeout time.Duration) llm.Provider {
	switch name {
	case config.ProviderMiniMax:
		if pc.APIKey == "" {
			slog.Debug("MiniMax provider enabled but no API key set")
			return nil
		}
		if pc.URL != "" {
			return llm.NewAnthropicProvider(llm.AnthropicConfig{
				Name:    name,
				APIKey:  pc.APIKey,
				BaseURL: pc.URL,
				Model:   pc.Model,
				Timeout: timeout,
			})
		}
		return llm.NewMiniMaxProvider(pc.APIKey, pc.Model, timeout)

	case config.ProviderClaude:
		if pc.APIKey == "" {
			slog.Debug("Claude provider enabled but no API key set")
			return nil
		}
		return llm.NewAnthropicProvider(llm.AnthropicConfig{
			Name:    name,
			APIKey:  pc.APIKey,
			BaseURL: pc.URL,
			Model:   pc.Model,
			Timeout: timeout,
		})

	case config.ProviderOpenAI:
		if pc.APIKey == "" {
			slog.Debug("OpenAI provider enabled but no API key set")
			return nil
		}
		return llm.NewOpenAIProvider(llm.OpenAIConfig{
			Name:    name,
			APIKey:  pc.APIKey,
			BaseURL: pc.URL,
			Model:   pc.Model,
			Timeout: timeout,
		})

	case config.ProviderOllama:
		return llm.NewOllamaProvider(pc.URL, pc.Model, timeout)
	}
	return nil
}
