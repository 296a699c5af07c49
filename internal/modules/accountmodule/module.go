// Package accountmodule lets users manage their profile, preferences and password
package accountmodule

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/logger"
	"github.com/mantonx/streamflow/internal/modules/accountmodule/api"
	"github.com/mantonx/streamflow/internal/modules/accountmodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/accountmodule/service"
	"github.com/mantonx/streamflow/internal/modules/modulemanager"
	"github.com/mantonx/streamflow/internal/services"
	"gorm.io/gorm"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	ModuleID      = "system.account"
	ModuleName    = "Account"
	ModuleVersion = "1.0.0"
)

// Module implements self-service account management
type Module struct {
	db      *gorm.DB
	service *service.AccountService
	authSvc services.AuthService
}

// Register registers the account module with the module system
func Register() {
	modulemanager.Register(&Module{})
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return true }

// Migrate has nothing to do: users belong to the auth module
func (m *Module) Migrate(db *gorm.DB) error {
	return nil
}

// Init initializes the account module
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}

	authSvc, err := services.GetService[services.AuthService](services.AuthServiceName)
	if err != nil {
		return fmt.Errorf("account requires the auth service: %w", err)
	}
	m.authSvc = authSvc

	log := logger.Named("account")

	// Billing is optional; without it the account page has no subscription
	subscriptions, err := services.GetService[services.SubscriptionService](services.SubscriptionServiceName)
	if err != nil {
		log.Warn("subscription service unavailable", "error", err)
		subscriptions = nil
	}

	m.service = service.NewAccountService(repository.NewAccountRepository(m.db), authSvc, subscriptions, log)
	return nil
}

// RegisterRoutes registers HTTP routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api.RegisterRoutes(router, api.NewHandler(m.service), m.authSvc.Middleware())
}

// Dependencies returns the modules this module depends on
func (m *Module) Dependencies() []string {
	return []string{"system.auth"}
}

// RequiredServices implements modulemanager.ServiceConsumer. Listing
// subscriptions orders this module after billing when billing is enabled.
func (m *Module) RequiredServices() []string {
	return []string{services.AuthServiceName, services.SubscriptionServiceName}
}
