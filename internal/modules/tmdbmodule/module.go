// Package tmdbmodule imports films and series from The Movie Database
package tmdbmodule

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/cache"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/logger"
	"github.com/mantonx/streamflow/internal/modules/modulemanager"
	"github.com/mantonx/streamflow/internal/modules/tmdbmodule/api"
	"github.com/mantonx/streamflow/internal/modules/tmdbmodule/client"
	"github.com/mantonx/streamflow/internal/modules/tmdbmodule/service"
	"github.com/mantonx/streamflow/internal/services"
	"gorm.io/gorm"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	ModuleID      = "system.tmdb"
	ModuleName    = "TMDB Import"
	ModuleVersion = "1.0.0"
)

// Module wires the TMDB client and importer
type Module struct {
	client   *client.Client
	importer *service.Importer
	authSvc  services.AuthService
}

// Register registers the TMDB module with the module system
func Register() {
	modulemanager.Register(&Module{})
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }

// Core is false; the back-office works without TMDB
func (m *Module) Core() bool { return false }

// Migrate is a no-op; imports write through the content service
func (m *Module) Migrate(db *gorm.DB) error {
	return nil
}

// Init initializes the TMDB module
func (m *Module) Init() error {
	authSvc, err := services.GetService[services.AuthService](services.AuthServiceName)
	if err != nil {
		return err
	}
	m.authSvc = authSvc

	content, err := services.GetService[services.ContentService](services.ContentServiceName)
	if err != nil {
		return err
	}
	catalog, err := services.GetService[services.CatalogService](services.CatalogServiceName)
	if err != nil {
		return err
	}

	cfg := config.Get().TMDB
	log := logger.Named("tmdb")
	m.client = client.NewClient(cfg, cache.Default(), log)
	if !m.client.Configured() {
		log.Warn("tmdb api key is not set, lookups and imports will fail")
	}
	m.importer = service.NewImporter(m.client, content, catalog, log.Named("import"))
	return nil
}

// RegisterRoutes registers HTTP routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api.RegisterRoutes(router, api.NewHandler(m.client, m.importer), m.authSvc.Middleware())
}

// Dependencies returns the modules this module depends on
func (m *Module) Dependencies() []string {
	return []string{"system.auth"}
}

// RequiredServices implements modulemanager.ServiceConsumer
func (m *Module) RequiredServices() []string {
	return []string{services.ContentServiceName, services.CatalogServiceName}
}
