// Package modulemanager registers modules and starts them in dependency order
package modulemanager

import (
	"context"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/logger"
	"gorm.io/gorm"
)

// Module defines the interface that all modules must implement
type Module interface {
	ID() string                // Unique identifier for the module
	Name() string              // Display name for the module
	Core() bool                // Whether this is a core module (cannot be disabled)
	Migrate(db *gorm.DB) error // Run database migrations
	Init() error               // Initialize the module
}

// RouteRegistrar is an optional interface for modules that need to register routes
type RouteRegistrar interface {
	RegisterRoutes(router *gin.Engine)
}

// Shutdowner is an optional interface for modules that run background work
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// ModuleRegistry manages module registration and initialization
type ModuleRegistry struct {
	modules         map[string]Module
	disabledModules map[string]bool
	order           []Module
	mu              sync.RWMutex
	initialized     bool
}

// Registry is the global module registry
var Registry = NewRegistry()

// NewRegistry creates an empty registry
func NewRegistry() *ModuleRegistry {
	return &ModuleRegistry{
		modules:         make(map[string]Module),
		disabledModules: make(map[string]bool),
	}
}

// Register adds a module to the registry
func Register(m Module) {
	Registry.Register(m)
}

// Register adds a module to the registry
func (r *ModuleRegistry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("module registered after initialization", "module", m.ID())
	}

	r.modules[m.ID()] = m
	logger.Debug("module registered", "module", m.ID(), "name", m.Name())
}

// enabledOrder resolves the init order of every enabled module. Caller holds the lock.
func (r *ModuleRegistry) enabledOrder() ([]Module, error) {
	enabled := make(map[string]Module)
	for id, module := range r.modules {
		if r.disabledModules[id] {
			if module.Core() {
				return nil, fmt.Errorf("attempted to disable core module: %s", id)
			}
			logger.Warn("skipping disabled module", "module", id)
			continue
		}
		enabled[id] = module
	}

	plan, err := planInit(enabled)
	if err != nil {
		return nil, fmt.Errorf("failed to plan module startup: %w", err)
	}
	for _, unmet := range plan.unmet {
		logger.Warn("required service has no provider", "requirement", unmet)
	}

	return plan.order()
}

// MigrateAll runs every enabled module's migrations without initializing them
func MigrateAll(db *gorm.DB) error {
	return Registry.MigrateAll(db)
}

// MigrateAll runs every enabled module's migrations in dependency order
func (r *ModuleRegistry) MigrateAll(db *gorm.DB) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, err := r.enabledOrder()
	if err != nil {
		return err
	}

	for _, module := range order {
		if err := module.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", module.Name(), err)
		}
	}
	return nil
}

// LoadAll initializes all registered modules
func LoadAll(db *gorm.DB) error {
	return Registry.LoadAll(db)
}

// LoadAll migrates and initializes all registered modules in dependency order
func (r *ModuleRegistry) LoadAll(db *gorm.DB) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("module system already initialized")
		return nil
	}

	order, err := r.enabledOrder()
	if err != nil {
		return err
	}

	logger.Info("loading modules", "count", len(order))

	for i, module := range order {
		logger.Debug("initializing module", "position", i+1, "total", len(order), "module", module.ID())

		if err := module.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", module.Name(), err)
		}
		if err := module.Init(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", module.Name(), err)
		}

		logger.Info("module loaded", "module", module.ID(), "name", module.Name())
	}

	r.order = order
	r.initialized = true
	return nil
}

// DisableModule marks a module as disabled
func DisableModule(id string) {
	Registry.DisableModule(id)
}

// DisableModule marks a module as disabled. Core modules cannot be disabled.
func (r *ModuleRegistry) DisableModule(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	module, exists := r.modules[id]
	if !exists {
		logger.Warn("attempted to disable non-existent module", "module", id)
		return
	}
	if module.Core() {
		logger.Error("cannot disable core module", "module", id)
		return
	}

	r.disabledModules[id] = true
	logger.Info("module disabled", "module", id)
}

// GetModule returns a module by ID
func GetModule(id string) (Module, bool) {
	return Registry.GetModule(id)
}

// GetModule returns a module by ID
func (r *ModuleRegistry) GetModule(id string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	module, exists := r.modules[id]
	return module, exists
}

// ListModules returns loaded modules in init order, or every registered module before LoadAll
func ListModules() []Module {
	return Registry.ListModules()
}

// ListModules returns loaded modules in init order, or every registered module before LoadAll
func (r *ModuleRegistry) ListModules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.initialized {
		return append([]Module(nil), r.order...)
	}
	modules := make([]Module, 0, len(r.modules))
	for _, module := range r.modules {
		modules = append(modules, module)
	}
	return modules
}

// RegisterRoutes registers routes for all modules that implement RouteRegistrar
func RegisterRoutes(router *gin.Engine) {
	Registry.RegisterRoutes(router)
}

// RegisterRoutes registers routes of loaded modules in init order
func (r *ModuleRegistry) RegisterRoutes(router *gin.Engine) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, module := range r.order {
		if routeRegistrar, ok := module.(RouteRegistrar); ok {
			logger.Debug("registering routes", "module", module.ID())
			routeRegistrar.RegisterRoutes(router)
		}
	}
}

// Shutdown stops every module in reverse init order
func Shutdown(ctx context.Context) error {
	return Registry.Shutdown(ctx)
}

// Shutdown stops every module in reverse init order and returns the first error
func (r *ModuleRegistry) Shutdown(ctx context.Context) error {
	r.mu.RLock()
	order := append([]Module(nil), r.order...)
	r.mu.RUnlock()

	var firstErr error
	for i := len(order) - 1; i >= 0; i-- {
		shutdowner, ok := order[i].(Shutdowner)
		if !ok {
			continue
		}
		if err := shutdowner.Shutdown(ctx); err != nil {
			logger.Error("module shutdown failed", "module", order[i].ID(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
