package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/cache"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/logger"
	"github.com/mantonx/streamflow/internal/modules/modulemanager"
	"github.com/mantonx/streamflow/internal/server"
	"github.com/mantonx/streamflow/internal/telemetry"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"
)

// Runner holds what every command needs after bootstrap
type Runner struct {
	cfg   *config.Config
	db    *gorm.DB
	store cache.Store
	log   hclog.Logger
}

// NewRunner creates an empty runner; bootstrap fills it in
func NewRunner() *Runner {
	return &Runner{}
}

// bootstrap loads configuration, then opens the database and the cache
func (r *Runner) bootstrap(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := config.Load(path); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	r.cfg = config.Get()

	logger.Configure(r.cfg.Logging.Level, r.cfg.Logging.Format)
	r.log = logger.Named("streamflow")

	if err := telemetry.Init(r.cfg.Telemetry, server.Version); err != nil {
		r.log.Warn("error reporting disabled", "error", err)
	}

	if err := database.Initialize(r.cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	r.db = database.GetDB()

	store, err := cache.Open(ctx, r.cfg.Cache.RedisURL, r.cfg.Cache.KeyPrefix)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	cache.SetDefault(store)
	r.store = store
	return nil
}

// Serve runs the API until SIGINT or SIGTERM
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(ctx, cmd); err != nil {
		return err
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.AddWatcher(func(oldConfig, newConfig *config.Config) {
		if !strings.EqualFold(oldConfig.Logging.Level, newConfig.Logging.Level) {
			logger.SetLevel(newConfig.Logging.Level)
			r.log.Info("log level changed", "level", newConfig.Logging.Level)
		}
	})
	if err := config.Watch(ctx); err != nil {
		r.log.Debug("configuration hot reload disabled", "reason", err)
	}

	gin.SetMode(r.cfg.Server.Mode)

	srv := server.New(r.cfg, r.db, r.store)
	if err := srv.Setup(ctx); err != nil {
		return err
	}
	return srv.Run(ctx)
}

// Migrate runs every module's migrations without starting the server
func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(ctx, cmd); err != nil {
		return err
	}
	defer database.Close()

	if err := modulemanager.MigrateAll(r.db); err != nil {
		return err
	}
	r.log.Info("database schema is up to date", "type", r.cfg.Database.Type)
	return nil
}

// CreateAdmin creates an admin account. An existing account is promoted and,
// when a password is given, has it reset.
func (r *Runner) CreateAdmin(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(ctx, cmd); err != nil {
		return err
	}
	defer database.Close()

	if err := modulemanager.MigrateAll(r.db); err != nil {
		return err
	}

	role := database.RoleAdmin
	if cmd.Bool("super") {
		role = database.RoleSuperAdmin
	}
	user, created, err := createAdmin(ctx, r.db, auth.NewPasswordHasher(r.cfg.Security.BcryptCost), adminParams{
		Email:    cmd.String("email"),
		Password: cmd.String("password"),
		Name:     cmd.String("name"),
		Role:     role,
	})
	if err != nil {
		return err
	}

	if created {
		r.log.Info("admin account created", "email", user.Email, "role", user.Role)
	} else {
		r.log.Info("existing account promoted", "email", user.Email, "role", user.Role)
	}
	return nil
}

// Seed loads the demo catalog
func (r *Runner) Seed(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(ctx, cmd); err != nil {
		return err
	}
	defer database.Close()

	if err := modulemanager.MigrateAll(r.db); err != nil {
		return err
	}

	result, err := seedCatalog(ctx, r.db, cmd.Bool("publish"))
	if err != nil {
		return err
	}
	r.log.Info("demo catalog seeded", "films", result.Films, "series", result.Series, "episodes", result.Episodes, "skipped", result.Skipped)
	return nil
}
