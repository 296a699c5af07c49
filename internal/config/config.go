package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mantonx/streamflow/internal/logger"
	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server" toml:"server"`
	Database  DatabaseConfig  `yaml:"database" json:"database" toml:"database"`
	Cache     CacheConfig     `yaml:"cache" json:"cache" toml:"cache"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging" toml:"logging"`
	Security  SecurityConfig  `yaml:"security" json:"security" toml:"security"`
	TMDB      TMDBConfig      `yaml:"tmdb" json:"tmdb" toml:"tmdb"`
	Billing   BillingConfig   `yaml:"billing" json:"billing" toml:"billing"`
	Assets    AssetConfig     `yaml:"assets" json:"assets" toml:"assets"`
	Comments  CommentsConfig  `yaml:"comments" json:"comments" toml:"comments"`
	Activity  ActivityConfig  `yaml:"activity" json:"activity" toml:"activity"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics" toml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry" toml:"telemetry"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host            string        `yaml:"host" json:"host" toml:"host" env:"STREAMFLOW_HOST" default:"0.0.0.0"`
	Port            int           `yaml:"port" json:"port" toml:"port" env:"STREAMFLOW_PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout" toml:"read_timeout" env:"STREAMFLOW_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout" toml:"write_timeout" env:"STREAMFLOW_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" toml:"shutdown_timeout" env:"STREAMFLOW_SHUTDOWN_TIMEOUT" default:"10s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" json:"max_header_bytes" toml:"max_header_bytes" env:"STREAMFLOW_MAX_HEADER_BYTES" default:"1048576"`
	Mode            string        `yaml:"mode" json:"mode" toml:"mode" env:"GIN_MODE" default:"release"`
	EnableCORS      bool          `yaml:"enable_cors" json:"enable_cors" toml:"enable_cors" env:"STREAMFLOW_ENABLE_CORS" default:"true"`
	AllowedOrigins  []string      `yaml:"allowed_origins" json:"allowed_origins" toml:"allowed_origins" env:"STREAMFLOW_ALLOWED_ORIGINS"`
	TrustedProxies  []string      `yaml:"trusted_proxies" json:"trusted_proxies" toml:"trusted_proxies" env:"STREAMFLOW_TRUSTED_PROXIES"`
	DisabledModules []string      `yaml:"disabled_modules" json:"disabled_modules" toml:"disabled_modules" env:"STREAMFLOW_DISABLED_MODULES"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Type            string        `yaml:"type" json:"type" toml:"type" env:"DATABASE_TYPE" default:"sqlite"`
	URL             string        `yaml:"url" json:"url" toml:"url" env:"DATABASE_URL"`
	Host            string        `yaml:"host" json:"host" toml:"host" env:"POSTGRES_HOST" default:"localhost"`
	Port            int           `yaml:"port" json:"port" toml:"port" env:"POSTGRES_PORT" default:"5432"`
	Username        string        `yaml:"username" json:"username" toml:"username" env:"POSTGRES_USER" default:"streamflow"`
	Password        string        `yaml:"password" json:"-" toml:"password" env:"POSTGRES_PASSWORD"`
	Database        string        `yaml:"database" json:"database" toml:"database" env:"POSTGRES_DB" default:"streamflow"`
	SSLMode         string        `yaml:"ssl_mode" json:"ssl_mode" toml:"ssl_mode" env:"POSTGRES_SSLMODE" default:"disable"`
	DataDir         string        `yaml:"data_dir" json:"data_dir" toml:"data_dir" env:"STREAMFLOW_DATA_DIR" default:"./data"`
	DatabasePath    string        `yaml:"database_path" json:"database_path" toml:"database_path" env:"STREAMFLOW_DATABASE_PATH"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns" toml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns" toml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" toml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" default:"1h"`
	LogQueries      bool          `yaml:"log_queries" json:"log_queries" toml:"log_queries" env:"DB_LOG_QUERIES" default:"false"`
}

// CacheConfig selects the cache backend. An empty RedisURL keeps everything in memory.
type CacheConfig struct {
	RedisURL   string        `yaml:"redis_url" json:"redis_url" toml:"redis_url" env:"REDIS_URL"`
	KeyPrefix  string        `yaml:"key_prefix" json:"key_prefix" toml:"key_prefix" env:"STREAMFLOW_CACHE_PREFIX" default:"streamflow:"`
	GenresTTL  time.Duration `yaml:"genres_ttl" json:"genres_ttl" toml:"genres_ttl" env:"STREAMFLOW_GENRES_TTL" default:"1h"`
	DefaultTTL time.Duration `yaml:"default_ttl" json:"default_ttl" toml:"default_ttl" env:"STREAMFLOW_CACHE_TTL" default:"10m"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" toml:"level" env:"STREAMFLOW_LOG_LEVEL" default:"info"`
	Format string `yaml:"format" json:"format" toml:"format" env:"STREAMFLOW_LOG_FORMAT" default:"text"`
}

// SecurityConfig holds authentication and abuse-protection settings
type SecurityConfig struct {
	JWTSecret        string        `yaml:"jwt_secret" json:"-" toml:"jwt_secret" env:"STREAMFLOW_JWT_SECRET"`
	JWTIssuer        string        `yaml:"jwt_issuer" json:"jwt_issuer" toml:"jwt_issuer" env:"STREAMFLOW_JWT_ISSUER" default:"streamflow"`
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl" json:"access_token_ttl" toml:"access_token_ttl" env:"STREAMFLOW_ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL  time.Duration `yaml:"refresh_token_ttl" json:"refresh_token_ttl" toml:"refresh_token_ttl" env:"STREAMFLOW_REFRESH_TOKEN_TTL" default:"720h"`
	BcryptCost       int           `yaml:"bcrypt_cost" json:"bcrypt_cost" toml:"bcrypt_cost" env:"STREAMFLOW_BCRYPT_COST" default:"12"`
	RateLimitEnabled bool          `yaml:"rate_limit_enabled" json:"rate_limit_enabled" toml:"rate_limit_enabled" env:"STREAMFLOW_RATE_LIMIT" default:"true"`
	RateLimitRPM     int           `yaml:"rate_limit_rpm" json:"rate_limit_rpm" toml:"rate_limit_rpm" env:"STREAMFLOW_RATE_LIMIT_RPM" default:"600"`
	RateLimitBurst   int           `yaml:"rate_limit_burst" json:"rate_limit_burst" toml:"rate_limit_burst" env:"STREAMFLOW_RATE_LIMIT_BURST" default:"60"`
	SecureHeaders    bool          `yaml:"secure_headers" json:"secure_headers" toml:"secure_headers" env:"STREAMFLOW_SECURE_HEADERS" default:"true"`
	WebsocketOrigins []string      `yaml:"websocket_origins" json:"websocket_origins" toml:"websocket_origins" env:"STREAMFLOW_WS_ORIGINS"`
	// PasswordResetURL is the frontend page receiving ?token= in reset links
	PasswordResetURL string        `yaml:"password_reset_url" json:"password_reset_url" toml:"password_reset_url" env:"STREAMFLOW_PASSWORD_RESET_URL" default:"http://localhost:3000/reset-password"`
	PasswordResetTTL time.Duration `yaml:"password_reset_ttl" json:"password_reset_ttl" toml:"password_reset_ttl" env:"STREAMFLOW_PASSWORD_RESET_TTL" default:"1h"`
}

// TMDBConfig configures The Movie Database client
type TMDBConfig struct {
	APIKey            string        `yaml:"api_key" json:"-" toml:"api_key" env:"TMDB_API_KEY"`
	BaseURL           string        `yaml:"base_url" json:"base_url" toml:"base_url" env:"TMDB_BASE_URL" default:"https://api.themoviedb.org/3"`
	ImageBaseURL      string        `yaml:"image_base_url" json:"image_base_url" toml:"image_base_url" env:"TMDB_IMAGE_BASE_URL" default:"https://image.tmdb.org/t/p"`
	Language          string        `yaml:"language" json:"language" toml:"language" env:"TMDB_LANGUAGE" default:"fr-FR"`
	RequestTimeout    time.Duration `yaml:"request_timeout" json:"request_timeout" toml:"request_timeout" env:"TMDB_REQUEST_TIMEOUT" default:"15s"`
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second" toml:"requests_per_second" env:"TMDB_RPS" default:"4"`
	CacheTTL          time.Duration `yaml:"cache_ttl" json:"cache_ttl" toml:"cache_ttl" env:"TMDB_CACHE_TTL" default:"6h"`
}

// BillingConfig configures subscriptions and the Stripe integration
type BillingConfig struct {
	StripeSecretKey     string        `yaml:"stripe_secret_key" json:"-" toml:"stripe_secret_key" env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string        `yaml:"stripe_webhook_secret" json:"-" toml:"stripe_webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	Currency            string        `yaml:"currency" json:"currency" toml:"currency" env:"STREAMFLOW_CURRENCY" default:"eur"`
	TaxRate             float64       `yaml:"tax_rate" json:"tax_rate" toml:"tax_rate" env:"STREAMFLOW_TAX_RATE" default:"0.20"`
	SuccessURL          string        `yaml:"success_url" json:"success_url" toml:"success_url" env:"STREAMFLOW_CHECKOUT_SUCCESS_URL" default:"http://localhost:3000/vip/success"`
	CancelURL           string        `yaml:"cancel_url" json:"cancel_url" toml:"cancel_url" env:"STREAMFLOW_CHECKOUT_CANCEL_URL" default:"http://localhost:3000/vip"`
	ExpirySweepInterval time.Duration `yaml:"expiry_sweep_interval" json:"expiry_sweep_interval" toml:"expiry_sweep_interval" env:"STREAMFLOW_EXPIRY_SWEEP" default:"10m"`
}

// AssetConfig controls uploaded artwork storage
type AssetConfig struct {
	Dir           string `yaml:"dir" json:"dir" toml:"dir" env:"STREAMFLOW_ASSETS_DIR"`
	PublicPath    string `yaml:"public_path" json:"public_path" toml:"public_path" env:"STREAMFLOW_ASSETS_PUBLIC_PATH" default:"/media"`
	MaxUploadSize int64  `yaml:"max_upload_size" json:"max_upload_size" toml:"max_upload_size" env:"STREAMFLOW_MAX_UPLOAD_SIZE" default:"10485760"`
	WebPQuality   int    `yaml:"webp_quality" json:"webp_quality" toml:"webp_quality" env:"STREAMFLOW_WEBP_QUALITY" default:"85"`
}

// CommentsConfig controls comment moderation
type CommentsConfig struct {
	RequireModeration bool `yaml:"require_moderation" json:"require_moderation" toml:"require_moderation" env:"STREAMFLOW_COMMENTS_MODERATION" default:"false"`
	MaxLength         int  `yaml:"max_length" json:"max_length" toml:"max_length" env:"STREAMFLOW_COMMENTS_MAX_LENGTH" default:"2000"`
}

// ActivityConfig controls admin activity log retention
type ActivityConfig struct {
	Retention     time.Duration `yaml:"retention" json:"retention" toml:"retention" env:"STREAMFLOW_ACTIVITY_RETENTION" default:"4320h"`
	PurgeInterval time.Duration `yaml:"purge_interval" json:"purge_interval" toml:"purge_interval" env:"STREAMFLOW_ACTIVITY_PURGE_INTERVAL" default:"24h"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" toml:"enabled" env:"STREAMFLOW_METRICS" default:"true"`
	Path    string `yaml:"path" json:"path" toml:"path" env:"STREAMFLOW_METRICS_PATH" default:"/metrics"`
}

// TelemetryConfig configures Sentry error reporting. An empty DSN disables it.
type TelemetryConfig struct {
	SentryDSN        string  `yaml:"sentry_dsn" json:"-" toml:"sentry_dsn" env:"SENTRY_DSN"`
	Environment      string  `yaml:"environment" json:"environment" toml:"environment" env:"STREAMFLOW_ENV" default:"development"`
	TracesSampleRate float64 `yaml:"traces_sample_rate" json:"traces_sample_rate" toml:"traces_sample_rate" env:"SENTRY_TRACES_SAMPLE_RATE" default:"0.1"`
}

// ConfigManager manages application configuration with hot-reload support
type ConfigManager struct {
	config     *Config
	configPath string
	watchers   []ConfigWatcher
	mu         sync.RWMutex
}

// ConfigWatcher is called when configuration changes
type ConfigWatcher func(oldConfig, newConfig *Config)

var (
	globalConfigManager *ConfigManager
	configOnce          sync.Once
)

// GetConfigManager returns the global configuration manager instance
func GetConfigManager() *ConfigManager {
	configOnce.Do(func() {
		globalConfigManager = NewConfigManager()
	})
	return globalConfigManager
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config:   DefaultConfig(),
		watchers: make([]ConfigWatcher, 0),
	}
}

// DefaultConfig returns the default application configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxHeaderBytes:  1 << 20,
			Mode:            "release",
			EnableCORS:      true,
			AllowedOrigins:  []string{"*"},
			TrustedProxies:  []string{},
		},
		Database: DatabaseConfig{
			Type:            "sqlite",
			Host:            "localhost",
			Port:            5432,
			Username:        "streamflow",
			Database:        "streamflow",
			SSLMode:         "disable",
			DataDir:         "./data",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
		},
		Cache: CacheConfig{
			KeyPrefix:  "streamflow:",
			GenresTTL:  time.Hour,
			DefaultTTL: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Security: SecurityConfig{
			JWTIssuer:        "streamflow",
			AccessTokenTTL:   15 * time.Minute,
			RefreshTokenTTL:  30 * 24 * time.Hour,
			BcryptCost:       12,
			RateLimitEnabled: true,
			RateLimitRPM:     600,
			RateLimitBurst:   60,
			SecureHeaders:    true,
			PasswordResetURL: "http://localhost:3000/reset-password",
			PasswordResetTTL: time.Hour,
		},
		TMDB: TMDBConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			ImageBaseURL:      "https://image.tmdb.org/t/p",
			Language:          "fr-FR",
			RequestTimeout:    15 * time.Second,
			RequestsPerSecond: 4,
			CacheTTL:          6 * time.Hour,
		},
		Billing: BillingConfig{
			Currency:            "eur",
			TaxRate:             0.20,
			SuccessURL:          "http://localhost:3000/vip/success",
			CancelURL:           "http://localhost:3000/vip",
			ExpirySweepInterval: 10 * time.Minute,
		},
		Assets: AssetConfig{
			PublicPath:    "/media",
			MaxUploadSize: 10 << 20,
			WebPQuality:   85,
		},
		Comments: CommentsConfig{
			MaxLength: 2000,
		},
		Activity: ActivityConfig{
			Retention:     180 * 24 * time.Hour,
			PurgeInterval: 24 * time.Hour,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Telemetry: TelemetryConfig{
			Environment:      "development",
			TracesSampleRate: 0.1,
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func (cm *ConfigManager) LoadConfig(configPath string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	oldConfig := *cm.config
	cm.configPath = configPath

	newConfig := DefaultConfig()

	if configPath != "" && fileExists(configPath) {
		if err := loadFromFile(configPath, newConfig); err != nil {
			return fmt.Errorf("failed to load config from file: %w", err)
		}
		logger.Info("configuration file loaded", "path", configPath)
	}

	if err := loadFromEnv(newConfig); err != nil {
		return fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := validateConfig(newConfig); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	applyDerivedConfig(newConfig)

	cm.config = newConfig

	for _, watcher := range cm.watchers {
		go watcher(&oldConfig, newConfig)
	}

	return nil
}

// Reload re-reads the file the manager was last loaded from.
func (cm *ConfigManager) Reload() error {
	cm.mu.RLock()
	path := cm.configPath
	cm.mu.RUnlock()
	return cm.LoadConfig(path)
}

// Path returns the file the configuration was loaded from.
func (cm *ConfigManager) Path() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.configPath
}

// GetConfig returns the current configuration (thread-safe)
func (cm *ConfigManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	configCopy := *cm.config
	return &configCopy
}

// AddWatcher adds a configuration change watcher
func (cm *ConfigManager) AddWatcher(watcher ConfigWatcher) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.watchers = append(cm.watchers, watcher)
}

func loadFromFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	case ".json":
		return json.Unmarshal(data, config)
	case ".toml":
		return toml.Unmarshal(data, config)
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
}

func loadFromEnv(config *Config) error {
	return loadStructFromEnv(reflect.ValueOf(config).Elem())
}

// loadStructFromEnv only overrides a field when its variable is set.
// Defaults come from DefaultConfig so file values are not clobbered.
func loadStructFromEnv(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		envValue, ok := os.LookupEnv(envTag)
		if !ok || envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set field %s from %s: %w", fieldType.Name, envTag, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			duration, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(duration))
		} else {
			intVal, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(intVal)
		}
	case reflect.Float32, reflect.Float64:
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolVal)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %v", field.Type())
		}
		values := strings.Split(value, ",")
		for i, v := range values {
			values[i] = strings.TrimSpace(v)
		}
		field.Set(reflect.ValueOf(values))
	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

func validateConfig(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Type != "sqlite" && config.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type: %s", config.Database.Type)
	}

	if config.Security.BcryptCost < 4 || config.Security.BcryptCost > 31 {
		return fmt.Errorf("invalid bcrypt cost: %d", config.Security.BcryptCost)
	}

	if config.Security.AccessTokenTTL <= 0 || config.Security.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}

	if config.Billing.TaxRate < 0 || config.Billing.TaxRate > 1 {
		return fmt.Errorf("invalid tax rate: %v", config.Billing.TaxRate)
	}

	if config.TMDB.RequestsPerSecond <= 0 {
		return fmt.Errorf("invalid tmdb requests_per_second: %v", config.TMDB.RequestsPerSecond)
	}

	if config.Assets.WebPQuality < 1 || config.Assets.WebPQuality > 100 {
		return fmt.Errorf("invalid webp quality: %d", config.Assets.WebPQuality)
	}

	if config.Assets.MaxUploadSize <= 0 {
		return fmt.Errorf("invalid max upload size: %d", config.Assets.MaxUploadSize)
	}

	return nil
}

func applyDerivedConfig(config *Config) {
	if config.Database.DatabasePath == "" && config.Database.Type == "sqlite" {
		config.Database.DatabasePath = filepath.Join(config.Database.DataDir, "streamflow.db")
	}

	if config.Assets.Dir == "" {
		config.Assets.Dir = filepath.Join(config.Database.DataDir, "assets")
	}

	if config.Security.JWTSecret == "" {
		// Tokens signed with this key do not survive a restart.
		config.Security.JWTSecret = "streamflow-dev-secret-change-me"
		logger.Warn("security.jwt_secret not set, using development secret")
	}

	config.Assets.PublicPath = "/" + strings.Trim(config.Assets.PublicPath, "/")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Get returns the current global configuration
func Get() *Config {
	return GetConfigManager().GetConfig()
}

// Load loads configuration from the specified path
func Load(configPath string) error {
	return GetConfigManager().LoadConfig(configPath)
}

// AddWatcher adds a global configuration watcher
func AddWatcher(watcher ConfigWatcher) {
	GetConfigManager().AddWatcher(watcher)
}
