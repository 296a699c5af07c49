// Package favoritesmodule lets users keep favorite films, series and episodes
package favoritesmodule

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/logger"
	"github.com/mantonx/streamflow/internal/modules/favoritesmodule/api"
	"github.com/mantonx/streamflow/internal/modules/favoritesmodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/favoritesmodule/service"
	"github.com/mantonx/streamflow/internal/modules/modulemanager"
	"github.com/mantonx/streamflow/internal/services"
	"gorm.io/gorm"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	ModuleID      = "system.favorites"
	ModuleName    = "Favorites"
	ModuleVersion = "1.0.0"
)

// Module implements favorites as a module
type Module struct {
	db      *gorm.DB
	service *service.FavoriteService
	authSvc services.AuthService
}

// Register registers the favorites module with the module system
func Register() {
	modulemanager.Register(&Module{})
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return false }

// Migrate performs database migrations
func (m *Module) Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&database.Favorite{}); err != nil {
		return fmt.Errorf("failed to migrate favorites: %w", err)
	}
	return nil
}

// Init initializes the favorites module
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}

	authSvc, err := services.GetService[services.AuthService](services.AuthServiceName)
	if err != nil {
		return fmt.Errorf("favorites requires the auth service: %w", err)
	}
	catalog, err := services.GetService[services.CatalogService](services.CatalogServiceName)
	if err != nil {
		return fmt.Errorf("favorites requires the catalog service: %w", err)
	}

	m.authSvc = authSvc
	m.service = service.NewFavoriteService(repository.NewFavoriteRepository(m.db), catalog, logger.Named("favorites"))
	return nil
}

// RegisterRoutes registers HTTP routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api.RegisterRoutes(router, api.NewHandler(m.service), m.authSvc.Middleware())
}

// Dependencies returns the modules this module depends on
func (m *Module) Dependencies() []string {
	return []string{"system.auth", "system.catalog"}
}

// RequiredServices implements modulemanager.ServiceConsumer
func (m *Module) RequiredServices() []string {
	return []string{services.AuthServiceName, services.CatalogServiceName}
}
