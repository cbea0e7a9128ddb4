package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/inclusiveworks/inlint/internal/cache"
	"github.com/inclusiveworks/inlint/internal/catalog"
	"github.com/inclusiveworks/inlint/internal/config"
	"github.com/inclusiveworks/inlint/internal/history"
	"github.com/inclusiveworks/inlint/internal/linter"
	"github.com/inclusiveworks/inlint/internal/llm"
	"github.com/inclusiveworks/inlint/internal/logger"
	"github.com/inclusiveworks/inlint/internal/pipeline"
	"github.com/inclusiveworks/inlint/internal/web"
	"github.com/inclusiveworks/inlint/internal/websocket"
	"go.uber.org/zap"
)

// Server represents the main lint API server
type Server struct {
	config      *config.Config
	logger      *logger.Logger
	engine      *linter.Engine
	runner      *pipeline.Runner
	history     *history.Store
	cache       *cache.ResultCache
	router      *mux.Router
	server      *http.Server
	wsHub       *websocket.Hub
	rateLimiter *rateLimiter
	stopWatch   func() error
	stopStatus  chan struct{}
	totalScans  atomic.Int64
	startedAt   time.Time
}

// statusInterval is how often the hub broadcasts a system-status event
const statusInterval = 30 * time.Second

// New creates a lint server and all its collaborators. The result cache and
// history store are constructed only when enabled; the LLM client is always
// constructed but stays inert without a credential.
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	catalogOpts := catalog.Options{
		RulesFile:  cfg.Catalog.RulesFile,
		Categories: cfg.Catalog.Categories,
	}

	cat, err := catalog.Load(catalogOpts, log.WithComponent("catalog"))
	if err != nil {
		return nil, fmt.Errorf("failed to load rule catalog: %w", err)
	}

	engine := linter.New(cat, log.WithComponent("linter"))
	llmClient := llm.New(cfg.LLM, log.WithComponent("llm"))

	var resultCache *cache.ResultCache
	if cfg.Cache.Enabled {
		resultCache, err = cache.New(cfg.Cache, log.WithComponent("cache").Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create result cache: %w", err)
		}
	}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.New(cfg.History, log.WithComponent("history").Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create history store: %w", err)
		}
	}

	runner := pipeline.New(engine, llmClient, resultCache, store, log.WithComponent("pipeline"))

	wsHub := websocket.NewHub(&websocket.HubConfig{
		BroadcastResults:     cfg.WebSocket.Events.BroadcastResults,
		BroadcastSystem:      cfg.WebSocket.Events.BroadcastSystem,
		BroadcastConnections: cfg.WebSocket.Events.BroadcastConnections,
		AllowedOrigins:       cfg.WebSocket.AllowedOrigins,
	}, log.WithComponent("websocket").Logger)

	router := mux.NewRouter()

	server := &Server{
		config:      cfg,
		logger:      log.WithComponent("server"),
		engine:      engine,
		runner:      runner,
		history:     store,
		cache:       resultCache,
		router:      router,
		wsHub:       wsHub,
		rateLimiter: newRateLimiter(cfg.Server.RateLimit.RequestsPerSecond, cfg.Server.RateLimit.Burst),
		stopStatus:  make(chan struct{}),
		startedAt:   time.Now(),
	}

	server.setupRoutes()

	if cfg.Catalog.WatchRules {
		server.stopWatch, err = catalog.Watch(catalogOpts, log.WithComponent("catalog"), engine.SetCatalog)
		if err != nil {
			return nil, fmt.Errorf("failed to watch rules file: %w", err)
		}
	}

	server.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return server, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health check and info endpoints
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")

	// Dashboard
	s.router.HandleFunc("/", web.ServeDashboard).Methods("GET")
	s.router.HandleFunc("/dashboard", web.ServeDashboard).Methods("GET")

	// WebSocket endpoint for the dashboard
	if s.config.WebSocket.Enabled {
		s.router.HandleFunc(s.config.WebSocket.Path, s.handleWebSocket).Methods("GET")
	}

	// Lint API
	api := s.router.PathPrefix("/v1").Subrouter()
	api.Use(s.loggingMiddleware)
	api.Use(s.rateLimitMiddleware)
	api.HandleFunc("/lint", s.handleLint).Methods("POST")
	api.HandleFunc("/lint/export", s.handleExport).Methods("POST")
	api.HandleFunc("/rules", s.handleRules).Methods("GET")
	api.HandleFunc("/scans", s.handleScans).Methods("GET")
	api.HandleFunc("/cache/clear", s.handleCacheClear).Methods("POST")
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting inlint server",
		zap.Int("port", s.config.Server.Port),
		zap.Int("rules", s.engine.Catalog().Len()),
		zap.Bool("cache_enabled", s.cache != nil),
		zap.Bool("history_enabled", s.history != nil),
	)

	// Start WebSocket hub in a separate goroutine
	go s.wsHub.Run()

	if s.config.WebSocket.Enabled && s.config.WebSocket.Events.BroadcastSystem {
		go s.statusLoop()
	}

	return s.server.ListenAndServe()
}

// statusLoop periodically broadcasts a system-status event to dashboard
// clients until the server stops
func (s *Server) statusLoop() {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.wsHub.BroadcastEvent(s.systemStatusEvent())
		case <-s.stopStatus:
			return
		}
	}
}

// systemStatusEvent snapshots the server state for the dashboard
func (s *Server) systemStatusEvent() websocket.Event {
	cat := s.engine.Catalog()
	return websocket.Event{
		Type:      websocket.EventTypeSystemStatus,
		Timestamp: time.Now(),
		Data: websocket.SystemStatusEvent{
			Status:           "healthy",
			Uptime:           time.Since(s.startedAt).String(),
			TotalScans:       s.totalScans.Load(),
			ActiveRules:      cat.Len(),
			CatalogVersion:   cat.Version(),
			LLMEnabled:       s.runner.LLMEnabled(),
			ConnectedClients: int(s.wsHub.GetStats().ActiveConnections),
		},
	}
}

// ApplyConfig applies a reloaded configuration. Only the catalog section can
// change at runtime; server, cache and history settings need a restart.
func (s *Server) ApplyConfig(cfg *config.Config) {
	cat, err := catalog.Load(catalog.Options{
		RulesFile:  cfg.Catalog.RulesFile,
		Categories: cfg.Catalog.Categories,
	}, s.logger)
	if err != nil {
		s.logger.Warn("Configuration changed but catalog failed to load, keeping previous catalog",
			zap.Error(err),
		)
		return
	}

	if cat.Version() == s.engine.Catalog().Version() {
		return
	}
	s.engine.SetCatalog(cat)
}

// Stop gracefully stops the HTTP server and its collaborators
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping inlint server")

	close(s.stopStatus)

	if s.stopWatch != nil {
		if err := s.stopWatch(); err != nil {
			s.logger.Warn("Failed to stop rules watcher", zap.Error(err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn("Failed to close result cache", zap.Error(err))
		}
	}
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			s.logger.Warn("Failed to close history store", zap.Error(err))
		}
	}

	return s.server.Shutdown(ctx)
}

// handleWebSocket handles WebSocket connections for the dashboard
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.wsHub.HandleWebSocket(w, r)
}
