// Package server wires the gin engine, the module system and the HTTP
// listener together.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/api"
	"github.com/mantonx/streamflow/internal/cache"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/events"
	"github.com/mantonx/streamflow/internal/logger"
	"github.com/mantonx/streamflow/internal/metrics"
	"github.com/mantonx/streamflow/internal/middleware"
	"github.com/mantonx/streamflow/internal/modules/modulemanager"
	"github.com/mantonx/streamflow/internal/telemetry"
	"gorm.io/gorm"

	// Import all modules to trigger their registration
	_ "github.com/mantonx/streamflow/internal/modules/accountmodule"
	_ "github.com/mantonx/streamflow/internal/modules/activitymodule"
	_ "github.com/mantonx/streamflow/internal/modules/adminmodule"
	_ "github.com/mantonx/streamflow/internal/modules/authmodule"
	_ "github.com/mantonx/streamflow/internal/modules/catalogmodule"
	_ "github.com/mantonx/streamflow/internal/modules/commentsmodule"
	_ "github.com/mantonx/streamflow/internal/modules/favoritesmodule"
	_ "github.com/mantonx/streamflow/internal/modules/playbackmodule"
	_ "github.com/mantonx/streamflow/internal/modules/subscriptionmodule"
	_ "github.com/mantonx/streamflow/internal/modules/suggestionsmodule"
	_ "github.com/mantonx/streamflow/internal/modules/tmdbmodule"
)

// Version is stamped at build time with -ldflags
var Version = "dev"

// Server owns the router, the event bus and the HTTP listener
type Server struct {
	cfg     *config.Config
	db      *gorm.DB
	modules *modulemanager.ModuleRegistry
	store   cache.Store
	bus     events.EventBus
	limiter *middleware.IPRateLimiter
	router  *gin.Engine
	http    *http.Server
	log     hclog.Logger
	started time.Time
}

// New creates a server over the global module registry
func New(cfg *config.Config, db *gorm.DB, store cache.Store) *Server {
	return newServer(cfg, db, store, modulemanager.Registry)
}

func newServer(cfg *config.Config, db *gorm.DB, store cache.Store, modules *modulemanager.ModuleRegistry) *Server {
	return &Server{
		cfg:     cfg,
		db:      db,
		modules: modules,
		store:   store,
		log:     logger.Named("server"),
		started: time.Now(),
	}
}

// Setup starts the event bus, loads every module and builds the router
func (s *Server) Setup(ctx context.Context) error {
	if err := s.initializeEventBus(ctx); err != nil {
		return err
	}

	for _, id := range s.cfg.Server.DisabledModules {
		s.modules.DisableModule(strings.TrimSpace(id))
	}
	if err := s.modules.LoadAll(s.db); err != nil {
		return fmt.Errorf("failed to load modules: %w", err)
	}
	s.logModuleStatus()

	s.router = s.setupRouter()
	return nil
}

// Router returns the configured engine. Setup must have run.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// initializeEventBus sets up the system-wide event bus
func (s *Server) initializeEventBus(ctx context.Context) error {
	s.bus = events.NewEventBus(events.DefaultEventBusConfig())
	if err := s.bus.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}
	events.SetGlobalEventBus(s.bus)
	s.log.Debug("event bus started")
	return nil
}

// setupRouter builds the engine with the shared middleware chain
func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	if len(s.cfg.Server.TrustedProxies) > 0 {
		if err := r.SetTrustedProxies(s.cfg.Server.TrustedProxies); err != nil {
			s.log.Warn("invalid trusted proxies, ignoring", "error", err)
		}
	} else {
		r.SetTrustedProxies(nil)
	}

	s.limiter = middleware.NewIPRateLimiter(s.cfg.Security.RateLimitRPM, s.cfg.Security.RateLimitBurst, s.cfg.Security.RateLimitEnabled)
	config.AddWatcher(s.limiter.Watch)

	r.Use(middleware.RequestID())
	r.Use(api.ErrorMiddleware())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorLogger())
	if s.cfg.Metrics.Enabled {
		r.Use(metrics.Middleware())
	}
	if s.cfg.Security.SecureHeaders {
		r.Use(middleware.SecureHeaders())
	}
	if s.cfg.Server.EnableCORS {
		r.Use(middleware.CORS(s.cfg.Server.AllowedOrigins))
	}
	r.Use(s.limiter.Middleware())

	s.setupRoutes(r)
	return r
}

// logModuleStatus logs the loaded modules
func (s *Server) logModuleStatus() {
	modules := s.modules.ListModules()
	s.log.Info("module system initialized", "count", len(modules))
	for _, module := range modules {
		s.log.Debug("module", "id", module.ID(), "name", module.Name(), "core", module.Core())
	}
}

// Run serves HTTP until ctx is cancelled, then shuts everything down
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.http = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.cfg.Server.ReadTimeout,
		WriteTimeout:   s.cfg.Server.WriteTimeout,
		MaxHeaderBytes: s.cfg.Server.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting streamflow server", "addr", addr, "version", Version)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.shutdownBackground()
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down gracefully")
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.log.Error("HTTP server shutdown error", "error", err)
	}
	s.Shutdown(shutdownCtx)
	s.log.Info("server shutdown complete")
	return nil
}

// Shutdown stops modules, the event bus and flushes telemetry. The HTTP
// listener must already be closed.
func (s *Server) Shutdown(ctx context.Context) {
	if err := s.modules.Shutdown(ctx); err != nil {
		s.log.Error("module shutdown error", "error", err)
	}
	if s.bus != nil {
		if err := s.bus.Stop(ctx); err != nil {
			s.log.Error("event bus shutdown error", "error", err)
		}
		events.SetGlobalEventBus(nil)
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.Warn("cache close error", "error", err)
		}
	}
	telemetry.Flush()
}

func (s *Server) shutdownBackground() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Shutdown(ctx)
}
