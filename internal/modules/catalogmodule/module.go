// Package catalogmodule serves the public catalog: films, series, seasons,
// episodes, genres and search.
package catalogmodule

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/cache"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/events"
	"github.com/mantonx/streamflow/internal/logger"
	"github.com/mantonx/streamflow/internal/modules/catalogmodule/api"
	"github.com/mantonx/streamflow/internal/modules/catalogmodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/catalogmodule/service"
	"github.com/mantonx/streamflow/internal/modules/modulemanager"
	"github.com/mantonx/streamflow/internal/services"
	"gorm.io/gorm"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	// ModuleID is the unique identifier for the catalog module
	ModuleID = "system.catalog"

	// ModuleName is the display name for the catalog module
	ModuleName = "Catalog"

	// ModuleVersion is the version of the catalog module
	ModuleVersion = "1.0.0"
)

// Module implements catalog browsing as a module
type Module struct {
	db       *gorm.DB
	store    cache.Store
	eventBus events.EventBus
	service  *service.CatalogService
	authSvc  services.AuthService
	subID    string
}

// Register registers the catalog module with the module system
func Register() {
	modulemanager.Register(&Module{})
}

// ID returns the unique module identifier
func (m *Module) ID() string {
	return ModuleID
}

// Name returns the module display name
func (m *Module) Name() string {
	return ModuleName
}

// Core returns whether this is a core module
func (m *Module) Core() bool {
	return true
}

// Migrate performs database migrations
func (m *Module) Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&database.Film{}, &database.Series{}, &database.Season{}, &database.Episode{}); err != nil {
		return fmt.Errorf("failed to migrate catalog models: %w", err)
	}
	return nil
}

// Init initializes the catalog module
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}
	if m.store == nil {
		m.store = cache.Default()
	}
	if m.eventBus == nil {
		m.eventBus = events.GetGlobalEventBus()
	}

	authSvc, err := services.GetService[services.AuthService](services.AuthServiceName)
	if err != nil {
		return fmt.Errorf("catalog requires the auth service: %w", err)
	}
	m.authSvc = authSvc

	m.service = service.NewCatalogService(
		repository.NewCatalogRepository(m.db),
		m.store,
		config.Get().Cache.GenresTTL,
		logger.Named("catalog"),
	)
	services.RegisterService[services.CatalogService](services.CatalogServiceName, m.service)

	if m.eventBus != nil {
		sub, err := m.eventBus.Subscribe(context.Background(), events.EventFilter{
			Types: []events.EventType{events.EventContentChanged},
		}, func(events.Event) error {
			m.service.InvalidateGenres(context.Background())
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to content changes: %w", err)
		}
		m.subID = sub.ID
	}

	return nil
}

// Service returns the module's catalog service
func (m *Module) Service() *service.CatalogService {
	return m.service
}

// RegisterRoutes registers HTTP routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api.RegisterRoutes(router, api.NewHandler(m.service), m.authSvc.Middleware())
}

// Shutdown drops the event subscription
func (m *Module) Shutdown(ctx context.Context) error {
	if m.eventBus != nil && m.subID != "" {
		return m.eventBus.Unsubscribe(m.subID)
	}
	return nil
}

// Dependencies returns the modules this module depends on
func (m *Module) Dependencies() []string {
	return []string{"system.auth"}
}

// ProvidedServices implements modulemanager.ServiceProvider
func (m *Module) ProvidedServices() []string {
	return []string{services.CatalogServiceName}
}

// RequiredServices implements modulemanager.ServiceConsumer
func (m *Module) RequiredServices() []string {
	return []string{services.AuthServiceName}
}
