// Package adminmodule is the back-office: catalog editing, user management,
// the dashboard and artwork uploads
package adminmodule

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/assets"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/logger"
	"github.com/mantonx/streamflow/internal/modules/adminmodule/api"
	"github.com/mantonx/streamflow/internal/modules/adminmodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/adminmodule/service"
	"github.com/mantonx/streamflow/internal/modules/modulemanager"
	"github.com/mantonx/streamflow/internal/services"
	"gorm.io/gorm"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	ModuleID      = "system.admin"
	ModuleName    = "Back-office"
	ModuleVersion = "1.0.0"
)

// Module wires the admin services
type Module struct {
	db      *gorm.DB
	content *service.ContentService
	users   *service.UserService
	stats   *service.StatsService
	media   *service.MediaService
	authSvc services.AuthService
}

// Register registers the admin module with the module system
func Register() {
	modulemanager.Register(&Module{})
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return true }

// Migrate is a no-op; the catalog and auth modules own the tables edited here
func (m *Module) Migrate(db *gorm.DB) error {
	return nil
}

// Init initializes the admin module
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}

	authSvc, err := services.GetService[services.AuthService](services.AuthServiceName)
	if err != nil {
		return err
	}
	m.authSvc = authSvc

	cfg := config.Get().Assets
	store, err := assets.NewStore(cfg.Dir, cfg.PublicPath, cfg.WebPQuality)
	if err != nil {
		return fmt.Errorf("failed to prepare asset directory: %w", err)
	}

	log := logger.Named("admin")
	m.content = service.NewContentService(repository.NewContentRepository(m.db), log.Named("content"))
	m.users = service.NewUserService(repository.NewUserRepository(m.db), log.Named("users"))
	m.stats = service.NewStatsService(repository.NewStatsRepository(m.db))
	m.media = service.NewMediaService(store, cfg.MaxUploadSize)

	services.RegisterService[services.ContentService](services.ContentServiceName, m.content)
	log.Info("admin module initialized", "assets", cfg.Dir)
	return nil
}

// RegisterRoutes registers HTTP routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api.RegisterRoutes(router, api.NewHandler(m.content, m.users, m.stats, m.media), m.authSvc.Middleware())
}

// Dependencies returns the modules this module depends on
func (m *Module) Dependencies() []string {
	return []string{"system.auth", "system.catalog"}
}

// ProvidedServices implements modulemanager.ServiceProvider
func (m *Module) ProvidedServices() []string {
	return []string{services.ContentServiceName}
}
