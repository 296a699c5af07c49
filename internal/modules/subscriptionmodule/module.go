// Package subscriptionmodule sells VIP plans through Stripe or, when Stripe
// is not configured, through simulated payments
package subscriptionmodule

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/logger"
	"github.com/mantonx/streamflow/internal/modules/modulemanager"
	"github.com/mantonx/streamflow/internal/modules/subscriptionmodule/api"
	"github.com/mantonx/streamflow/internal/modules/subscriptionmodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/subscriptionmodule/gateway"
	"github.com/mantonx/streamflow/internal/modules/subscriptionmodule/service"
	"github.com/mantonx/streamflow/internal/services"
	"gorm.io/gorm"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	ModuleID      = "system.subscriptions"
	ModuleName    = "Subscriptions"
	ModuleVersion = "1.0.0"
)

// Module wires billing into the application
type Module struct {
	db            *gorm.DB
	service       *service.SubscriptionService
	sweeper       *service.ExpirySweeper
	authSvc       services.AuthService
	webhookSecret string
}

// Register registers the subscription module with the module system
func Register() {
	modulemanager.Register(&Module{})
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return true }

// Migrate creates the billing tables
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&database.Subscription{}, &database.Payment{}, &database.WebhookEvent{})
}

// Init initializes the subscription module
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}

	authSvc, err := services.GetService[services.AuthService](services.AuthServiceName)
	if err != nil {
		return err
	}
	m.authSvc = authSvc

	cfg := config.Get()
	log := logger.Named("subscriptions")

	var gw gateway.Gateway
	if cfg.Billing.StripeSecretKey != "" {
		gw = gateway.NewStripeGateway(cfg.Billing.StripeSecretKey)
		log.Info("stripe billing enabled")
	} else {
		log.Warn("stripe is not configured, checkouts are simulated")
	}
	m.webhookSecret = cfg.Billing.StripeWebhookSecret

	m.service = service.NewSubscriptionService(repository.NewSubscriptionRepository(m.db), gw, cfg.Billing, log)
	services.RegisterService[services.SubscriptionService](services.SubscriptionServiceName, m.service)

	m.sweeper = service.NewExpirySweeper(m.service, cfg.Billing.ExpirySweepInterval, log.Named("expiry"))
	m.sweeper.Start()
	return nil
}

// RegisterRoutes registers HTTP routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api.RegisterRoutes(router, api.NewHandler(m.service, m.webhookSecret), m.authSvc.Middleware())
}

// Shutdown stops the expiry sweeper
func (m *Module) Shutdown(ctx context.Context) error {
	if m.sweeper == nil {
		return nil
	}
	return m.sweeper.Stop(ctx)
}

// Dependencies returns the modules this module depends on
func (m *Module) Dependencies() []string {
	return []string{"system.auth"}
}

// ProvidedServices implements modulemanager.ServiceProvider
func (m *Module) ProvidedServices() []string {
	return []string{services.SubscriptionServiceName}
}
