// Package activitymodule keeps the audit trail of back-office actions
package activitymodule

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/events"
	"github.com/mantonx/streamflow/internal/logger"
	"github.com/mantonx/streamflow/internal/modules/activitymodule/api"
	"github.com/mantonx/streamflow/internal/modules/activitymodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/activitymodule/service"
	"github.com/mantonx/streamflow/internal/modules/modulemanager"
	"github.com/mantonx/streamflow/internal/services"
	"gorm.io/gorm"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	ModuleID      = "system.activity"
	ModuleName    = "Activity Log"
	ModuleVersion = "1.0.0"
)

// Module records admin.action events
type Module struct {
	db           *gorm.DB
	bus          events.EventBus
	service      *service.ActivityService
	worker       *service.RetentionWorker
	subscription *events.Subscription
	authSvc      services.AuthService
}

// Register registers the activity module with the module system
func Register() {
	modulemanager.Register(&Module{})
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return true }

// Migrate creates the activity log table
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&database.ActivityLog{})
}

// Init initializes the activity module
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}
	if m.bus == nil {
		m.bus = events.GetGlobalEventBus()
	}

	authSvc, err := services.GetService[services.AuthService](services.AuthServiceName)
	if err != nil {
		return err
	}
	m.authSvc = authSvc

	log := logger.Named("activity")
	m.service = service.NewActivityService(repository.NewActivityRepository(m.db), log)
	services.RegisterService[services.ActivityService](services.ActivityServiceName, m.service)

	if m.bus != nil {
		sub, err := m.bus.Subscribe(context.Background(),
			events.EventFilter{Types: []events.EventType{events.EventAdminAction}},
			m.service.HandleEvent)
		if err != nil {
			return err
		}
		m.subscription = sub
	} else {
		log.Warn("no event bus, admin actions will not be logged")
	}

	cfg := config.Get().Activity
	m.worker = service.NewRetentionWorker(m.service, cfg.Retention, cfg.PurgeInterval, log.Named("retention"))
	m.worker.Start()
	return nil
}

// RegisterRoutes registers HTTP routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api.RegisterRoutes(router, api.NewHandler(m.service), m.authSvc.Middleware())
}

// Shutdown detaches from the bus and stops the retention worker
func (m *Module) Shutdown(ctx context.Context) error {
	if m.subscription != nil && m.bus != nil {
		if err := m.bus.Unsubscribe(m.subscription.ID); err != nil {
			logger.Debug("activity unsubscribe failed", "error", err)
		}
		m.subscription = nil
	}
	if m.worker == nil {
		return nil
	}
	return m.worker.Stop(ctx)
}

// Dependencies returns the modules this module depends on
func (m *Module) Dependencies() []string {
	return []string{"system.auth"}
}

// ProvidedServices implements modulemanager.ServiceProvider
func (m *Module) ProvidedServices() []string {
	return []string{services.ActivityServiceName}
}
