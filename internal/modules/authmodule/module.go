// Package authmodule owns account credentials and the route guards used by
// every other module.
package authmodule

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/cache"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/logger"
	"github.com/mantonx/streamflow/internal/modules/authmodule/api"
	"github.com/mantonx/streamflow/internal/modules/authmodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/authmodule/service"
	"github.com/mantonx/streamflow/internal/modules/modulemanager"
	"github.com/mantonx/streamflow/internal/ratelimit"
	"github.com/mantonx/streamflow/internal/services"
	"gorm.io/gorm"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	// ModuleID is the unique identifier for the auth module
	ModuleID = "system.auth"

	// ModuleName is the display name for the auth module
	ModuleName = "Authentication"

	// ModuleVersion is the version of the auth module
	ModuleVersion = "1.0.0"

	tokenPruneInterval = 6 * time.Hour
)

// Module implements authentication as a module
type Module struct {
	db      *gorm.DB
	cfg     *config.Config
	service *service.AuthService
	cancel  context.CancelFunc
	done    chan struct{}
}

// Register registers the auth module with the module system
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
	if err := db.AutoMigrate(&database.User{}, &database.RefreshToken{}, &database.PasswordReset{}); err != nil {
		return fmt.Errorf("failed to migrate auth models: %w", err)
	}
	return nil
}

// Init initializes the auth module
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}
	if m.cfg == nil {
		m.cfg = config.Get()
	}

	sec := m.cfg.Security
	tm, err := auth.NewTokenManager(sec.JWTSecret, sec.JWTIssuer, sec.AccessTokenTTL, sec.RefreshTokenTTL)
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}

	m.service = service.NewAuthService(
		repository.NewUserRepository(m.db),
		repository.NewTokenRepository(m.db),
		tm,
		auth.NewPasswordHasher(sec.BcryptCost),
		ratelimit.New(cache.Default()),
		logger.Named("auth"),
	).WithPasswordReset(repository.NewResetRepository(m.db), service.ResetOptions{
		URL: sec.PasswordResetURL,
		TTL: sec.PasswordResetTTL,
	})
	services.RegisterService[services.AuthService](services.AuthServiceName, m.service)

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.pruneTokens(ctx)

	logger.Info("auth service registered")
	return nil
}

// Service returns the module's auth service
func (m *Module) Service() *service.AuthService {
	return m.service
}

// RegisterRoutes registers HTTP routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api.RegisterRoutes(router, api.NewHandler(m.service), m.service.Middleware())
}

// Shutdown stops the token pruner
func (m *Module) Shutdown(ctx context.Context) error {
	if m.cancel == nil {
		return nil
	}
	m.cancel()
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ProvidedServices implements modulemanager.ServiceProvider
func (m *Module) ProvidedServices() []string {
	return []string{services.AuthServiceName}
}

func (m *Module) pruneTokens(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(tokenPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.service.PruneExpiredTokens(ctx)
			if err != nil {
				logger.Warn("failed to prune refresh tokens", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("pruned expired refresh tokens", "count", n)
			}
			if n, err := m.service.PruneExpiredResets(ctx); err != nil {
				logger.Warn("failed to prune reset tokens", "error", err)
			} else if n > 0 {
				logger.Debug("pruned expired reset tokens", "count", n)
			}
		}
	}
}
