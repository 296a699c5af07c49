// Package suggestionsmodule lets members suggest TMDB titles for the catalog
// and admins review them
package suggestionsmodule

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/logger"
	"github.com/mantonx/streamflow/internal/modules/modulemanager"
	"github.com/mantonx/streamflow/internal/modules/suggestionsmodule/api"
	"github.com/mantonx/streamflow/internal/modules/suggestionsmodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/suggestionsmodule/service"
	"github.com/mantonx/streamflow/internal/services"
	"gorm.io/gorm"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	ModuleID      = "system.suggestions"
	ModuleName    = "Suggestions"
	ModuleVersion = "1.0.0"
)

// Module implements content suggestions as a module
type Module struct {
	db      *gorm.DB
	service *service.SuggestionService
	authSvc services.AuthService
}

// Register registers the suggestions module with the module system
func Register() {
	modulemanager.Register(&Module{})
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return false }

// Migrate performs database migrations
func (m *Module) Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&database.Suggestion{}); err != nil {
		return fmt.Errorf("failed to migrate suggestions: %w", err)
	}
	return nil
}

// Init initializes the suggestions module
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}

	authSvc, err := services.GetService[services.AuthService](services.AuthServiceName)
	if err != nil {
		return fmt.Errorf("suggestions requires the auth service: %w", err)
	}
	m.authSvc = authSvc
	m.service = service.NewSuggestionService(repository.NewSuggestionRepository(m.db), logger.Named("suggestions"))
	return nil
}

// RegisterRoutes registers HTTP routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api.RegisterRoutes(router, api.NewHandler(m.service), m.authSvc.Middleware())
}

// Dependencies lists catalog so film and series tables exist before lookups
func (m *Module) Dependencies() []string {
	return []string{"system.auth", "system.catalog"}
}

// RequiredServices implements modulemanager.ServiceConsumer
func (m *Module) RequiredServices() []string {
	return []string{services.AuthServiceName}
}
