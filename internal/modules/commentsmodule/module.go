// Package commentsmodule provides rated comments on catalog content with
// reporting and moderation
package commentsmodule

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/logger"
	"github.com/mantonx/streamflow/internal/modules/commentsmodule/api"
	"github.com/mantonx/streamflow/internal/modules/commentsmodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/commentsmodule/service"
	"github.com/mantonx/streamflow/internal/modules/modulemanager"
	"github.com/mantonx/streamflow/internal/services"
	"gorm.io/gorm"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	ModuleID      = "system.comments"
	ModuleName    = "Comments"
	ModuleVersion = "1.0.0"
)

// Module implements comments as a module
type Module struct {
	db      *gorm.DB
	service *service.CommentService
	authSvc services.AuthService
}

// Register registers the comments module with the module system
func Register() {
	modulemanager.Register(&Module{})
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return false }

// Migrate performs database migrations
func (m *Module) Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&database.Comment{}, &database.CommentReport{}); err != nil {
		return fmt.Errorf("failed to migrate comments: %w", err)
	}
	return nil
}

// Init initializes the comments module
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}

	authSvc, err := services.GetService[services.AuthService](services.AuthServiceName)
	if err != nil {
		return fmt.Errorf("comments requires the auth service: %w", err)
	}
	catalog, err := services.GetService[services.CatalogService](services.CatalogServiceName)
	if err != nil {
		return fmt.Errorf("comments requires the catalog service: %w", err)
	}

	cfg := config.Get().Comments
	log := logger.Named("comments")
	if cfg.RequireModeration {
		log.Info("new comments wait for moderation")
	}

	m.authSvc = authSvc
	m.service = service.NewCommentService(repository.NewCommentRepository(m.db), catalog,
		service.Options{RequireModeration: cfg.RequireModeration, MaxLength: cfg.MaxLength}, log)
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
