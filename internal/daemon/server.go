package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/etltrainer/internal/app"
	"github.com/felixgeelhaar/etltrainer/internal/config"
	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"github.com/felixgeelhaar/etltrainer/internal/trainer"
	"github.com/go-playground/validator/v10"
)

// Version is reported by /v1/status
var Version = "0.1.0"

// Server represents the trainer daemon HTTP server
type Server struct {
	app      *app.App
	cfg      *config.LocalConfig
	service  *trainer.Service
	sessions trainer.SessionStore
	validate *validator.Validate
	started  time.Time

	server *http.Server
	router *http.ServeMux
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	App *app.App
}

// NewServer creates a new daemon server
func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("daemon requires a wired app")
	}

	s := &Server{
		app:      cfg.App,
		cfg:      cfg.App.Config,
		service:  cfg.App.Service,
		sessions: cfg.App.Sessions,
		validate: newValidator(),
		started:  time.Now(),
		router:   http.NewServeMux(),
	}

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.cfg.Daemon.Bind, s.cfg.Daemon.Port)
	handler := withRequestID(withRecovery(withAccessLog(cfg.App.Metrics, s.router)))
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second, // generative review can take minutes
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// Pattern catalog
	s.router.HandleFunc("GET /v1/patterns", s.handleListPatterns)
	s.router.HandleFunc("GET /v1/patterns/{id}", s.handleGetPattern)

	// Sessions
	s.router.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	s.router.HandleFunc("GET /v1/sessions", s.handleListSessions)
	s.router.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	s.router.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)
	s.router.HandleFunc("PUT /v1/sessions/{id}/pattern", s.handleChangePattern)
	s.router.HandleFunc("PUT /v1/sessions/{id}/mode", s.handleSetMode)
	s.router.HandleFunc("POST /v1/sessions/{id}/question", s.handleNewQuestion)
	s.router.HandleFunc("PUT /v1/sessions/{id}/editor", s.handleSetEditor)
	s.router.HandleFunc("POST /v1/sessions/{id}/submit", s.handleSubmit)
	s.router.HandleFunc("POST /v1/sessions/{id}/retry", s.handleRetry)

	// Training log
	s.router.HandleFunc("GET /v1/users/{user}/mistakes", s.handleMistakes)
	s.router.HandleFunc("GET /v1/users/{user}/logs", s.handleLogs)

	// Analytics
	s.router.HandleFunc("GET /v1/analytics/events", s.handleAnalyticsEvents)
	s.router.HandleFunc("GET /v1/analytics/summary", s.handleAnalyticsSummary)

	// Prometheus
	if s.app.Metrics != nil {
		s.router.Handle("GET /metrics", s.app.Metrics.Handler())
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting etltrainer daemon",
		"addr", s.server.Addr,
		"llm_providers", s.app.Providers.List(),
		"storage", s.cfg.Storage.Driver,
	)
	return s.server.ListenAndServe()
}

// Handler returns the full middleware chain, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.app.Catalog.Stats()
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":             "running",
		"version":            Version,
		"uptime_seconds":     int(time.Since(s.started).Seconds()),
		"mode":               s.app.DefaultMode(),
		"generative_enabled": s.service.GenerativeEnabled(),
		"llm_providers":      s.app.Providers.List(),
		"default_provider":   s.cfg.LLM.DefaultProvider,
		"storage":            s.cfg.Storage.Driver,
		"event_broker":       s.app.Broker != nil && s.app.Broker.IsConnected(),
		"patterns":           stats.PatternCount,
		"samples":            stats.SampleCount,
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}

// serviceError maps trainer and domain errors to HTTP statuses
func (s *Server) serviceError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnknownPattern), errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, trainer.ErrSessionNotFound), errors.Is(err, domain.ErrLogNotFound):
		status = http.StatusNotFound
	case errors.Is(err, trainer.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, trainer.ErrNotAMistake):
		status = http.StatusConflict
	}
	s.jsonError(w, status, message, err)
}
