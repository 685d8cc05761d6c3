// Package server runs the docex HTTP API.
//
// The listener comes up first so /health answers while the extraction
// backends initialize; endpoints that need them return 503 until then.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackzampolin/docex/docs/swagger"
	"github.com/jackzampolin/docex/internal/api"
	"github.com/jackzampolin/docex/internal/config"
	"github.com/jackzampolin/docex/internal/extract"
	"github.com/jackzampolin/docex/internal/home"
	"github.com/jackzampolin/docex/internal/metrics"
	"github.com/jackzampolin/docex/internal/prompts"
	"github.com/jackzampolin/docex/internal/providers"
	"github.com/jackzampolin/docex/internal/server/endpoints"
	"github.com/jackzampolin/docex/internal/store"
	"github.com/jackzampolin/docex/internal/svcctx"
)

// Backend is what Init builds: the collaborators behind /ocr and /file-upload.
type Backend struct {
	Engine     *extract.Engine
	Store      *store.Store
	Prompts    *prompts.Resolver
	Metrics    *metrics.Recorder // Model-call usage; optional
	Rasterizer string
	Languages  []string

	// Close releases native handles (the recognition engine). Optional.
	Close func() error
}

// InitFunc builds the backend once the listener is up.
type InitFunc func(ctx context.Context, registry *providers.Registry) (*Backend, error)

// Server is the main docex HTTP server.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	registry   *providers.Registry
	configMgr  *config.Manager
	home       *home.Dir
	init       InitFunc
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services atomic.Pointer[svcctx.Services]
	backend  *Backend

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8000, "0" picks a free port)
	Port string
	// ReadTimeout and WriteTimeout bound each request.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Registry is used as-is when set; otherwise one is built from ConfigManager.
	Registry *providers.Registry
	// Home is the docex home directory
	Home *home.Dir
	// Init builds the extraction backend (required)
	Init InitFunc
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Init == nil {
		return nil, errors.New("server init function is required")
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8000"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	registry := cfg.Registry
	if registry == nil {
		registry = providers.NewRegistry()
		registry.SetLogger(cfg.Logger)
	}

	// If config manager provided, set up providers and hot reload
	if cfg.ConfigManager != nil {
		if cfg.Registry == nil {
			registry.Reload(cfg.ConfigManager.Get().ToProviderRegistryConfig())
		}

		cfg.ConfigManager.OnChange(func(c *config.Config) {
			registry.Reload(c.ToProviderRegistryConfig())
			cfg.Logger.Info("provider registry reloaded from config")
		})
	}

	s := &Server{
		registry:  registry,
		configMgr: cfg.ConfigManager,
		home:      cfg.Home,
		init:      cfg.Init,
		logger:    cfg.Logger,
	}
	s.services.Store(s.baseServices())

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.withServices(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// baseServices are available before Init completes.
func (s *Server) baseServices() *svcctx.Services {
	return &svcctx.Services{
		Registry:  s.registry,
		ConfigMgr: s.configMgr,
		Logger:    s.logger,
		Home:      s.home,
	}
}

// Start starts the listener, then builds the backend.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	swagger.SwaggerInfo.Host = ln.Addr().String()

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Build the backend while /health already answers
	s.logger.Info("initializing extraction backend")
	backend, err := s.init(ctx, s.registry)
	if err != nil {
		_ = s.shutdown()
		return fmt.Errorf("backend initialization failed: %w", err)
	}
	s.mu.Lock()
	s.backend = backend
	s.mu.Unlock()

	services := s.baseServices()
	services.Engine = backend.Engine
	services.Store = backend.Store
	services.Prompts = backend.Prompts
	services.Metrics = backend.Metrics
	services.Rasterizer = backend.Rasterizer
	services.Languages = backend.Languages
	s.services.Store(services)
	s.logger.Info("server ready", "addr", ln.Addr().String(), "llm_providers", s.registry.ListLLM())

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server and the backend.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.mu.Lock()
	backend := s.backend
	s.backend = nil
	s.mu.Unlock()
	s.services.Store(s.baseServices())

	if backend != nil {
		if backend.Close != nil {
			s.logger.Info("closing recognition engine")
			if err := backend.Close(); err != nil {
				s.logger.Error("recognition engine close error", "error", err)
			}
		}
		if backend.Store != nil {
			if err := backend.Store.Close(); err != nil {
				s.logger.Error("store close error", "error", err)
			}
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// IsInitialized reports whether the backend is ready.
func (s *Server) IsInitialized() bool {
	svc := s.services.Load()
	return svc.Engine != nil && svc.Store != nil
}

// Addr returns the bound address once started, otherwise the configured one.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := svcctx.WithServices(r.Context(), s.services.Load())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until the engine and store are ready.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.IsInitialized() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
