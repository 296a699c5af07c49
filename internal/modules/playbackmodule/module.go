// Package playbackmodule resolves playable sources and tracks what viewers watch
package playbackmodule

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/logger"
	"github.com/mantonx/streamflow/internal/modules/modulemanager"
	"github.com/mantonx/streamflow/internal/modules/playbackmodule/api"
	"github.com/mantonx/streamflow/internal/modules/playbackmodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/playbackmodule/service"
	"github.com/mantonx/streamflow/internal/services"
	"gorm.io/gorm"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	// ModuleID is the unique identifier for the playback module
	ModuleID = "system.playback"

	// ModuleName is the display name for the playback module
	ModuleName = "Playback"

	// ModuleVersion is the version of the playback module
	ModuleVersion = "1.0.0"
)

// Module implements playback as a module
type Module struct {
	db      *gorm.DB
	service *service.PlaybackService
	socket  *api.ProgressSocket
	authSvc services.AuthService
}

// Register registers the playback module with the module system
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
	if err := db.AutoMigrate(&database.WatchHistory{}, &database.WatchedEpisode{}); err != nil {
		return fmt.Errorf("failed to migrate playback models: %w", err)
	}
	return nil
}

// Init initializes the playback module
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}

	authSvc, err := services.GetService[services.AuthService](services.AuthServiceName)
	if err != nil {
		return fmt.Errorf("playback requires the auth service: %w", err)
	}
	catalog, err := services.GetService[services.CatalogService](services.CatalogServiceName)
	if err != nil {
		return fmt.Errorf("playback requires the catalog service: %w", err)
	}

	m.authSvc = authSvc
	m.service = service.NewPlaybackService(repository.NewHistoryRepository(m.db), catalog, logger.Named("playback"))
	return nil
}

// RegisterRoutes registers HTTP routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	m.socket = api.NewProgressSocket(m.service, config.Get().Security.WebsocketOrigins, logger.Named("playback-ws"))
	api.RegisterRoutes(router, api.NewHandler(m.service, m.socket), m.authSvc.Middleware())
}

// Shutdown disconnects websocket clients
func (m *Module) Shutdown(ctx context.Context) error {
	if m.socket != nil {
		m.socket.Close()
	}
	return nil
}

// Dependencies returns the modules this module depends on
func (m *Module) Dependencies() []string {
	return []string{"system.auth", "system.catalog"}
}

// RequiredServices implements modulemanager.ServiceConsumer
func (m *Module) RequiredServices() []string {
	return []string{services.AuthServiceName, services.CatalogServiceName}
}
