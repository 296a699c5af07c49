package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTagsMatchDefaultConfig(t *testing.T) {
	fromTags := &Config{}
	require.NoError(t, applyDefaultTags(reflect.ValueOf(fromTags).Elem()))

	defaults := DefaultConfig()

	var compare func(path string, want, got reflect.Value)
	compare = func(path string, want, got reflect.Value) {
		typ := want.Type()
		for i := 0; i < want.NumField(); i++ {
			field := typ.Field(i)
			name := path + "." + field.Name
			if want.Field(i).Kind() == reflect.Struct {
				compare(name, want.Field(i), got.Field(i))
				continue
			}
			if field.Tag.Get("default") == "" {
				continue
			}
			assert.Equal(t, want.Field(i).Interface(), got.Field(i).Interface(), name)
		}
	}
	compare("Config", reflect.ValueOf(defaults).Elem(), reflect.ValueOf(fromTags).Elem())
}

// applyDefaultTags fills fields from their default tags.
func applyDefaultTags(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Struct {
			if err := applyDefaultTags(field); err != nil {
				return err
			}
			continue
		}
		if def := t.Field(i).Tag.Get("default"); def != "" {
			if err := setFieldValue(field, def); err != nil {
				return err
			}
		}
	}
	return nil
}

func TestLoadConfigFormats(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"config.yaml": "server:\n  port: 9001\ntmdb:\n  language: en-US\n  cache_ttl: 2h\n",
		"config.json": `{"server": {"port": 9002}, "tmdb": {"language": "en-US"}}`,
		"config.toml": "[server]\nport = 9003\n\n[tmdb]\nlanguage = \"en-US\"\n",
	}
	ports := map[string]int{"config.yaml": 9001, "config.json": 9002, "config.toml": 9003}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			cm := NewConfigManager()
			require.NoError(t, cm.LoadConfig(path))

			cfg := cm.GetConfig()
			assert.Equal(t, ports[name], cfg.Server.Port)
			assert.Equal(t, "en-US", cfg.TMDB.Language)
			assert.Equal(t, "sqlite", cfg.Database.Type)
		})
	}
}

func TestLoadConfigUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte("port=1"), 0o644))

	err := NewConfigManager().LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config file format")
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9001\nlogging:\n  level: warn\n"), 0o644))

	t.Setenv("STREAMFLOW_PORT", "7070")
	t.Setenv("STREAMFLOW_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("STREAMFLOW_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("STREAMFLOW_TAX_RATE", "0.055")

	cm := NewConfigManager()
	require.NoError(t, cm.LoadConfig(path))
	cfg := cm.GetConfig()

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level, "file value survives when env is unset")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Security.AccessTokenTTL)
	assert.InDelta(t, 0.055, cfg.Billing.TaxRate, 1e-9)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		msg  string
	}{
		{"bad port", map[string]string{"STREAMFLOW_PORT": "70000"}, "invalid server port"},
		{"bad db type", map[string]string{"DATABASE_TYPE": "mysql"}, "unsupported database type"},
		{"bad tax", map[string]string{"STREAMFLOW_TAX_RATE": "1.5"}, "invalid tax rate"},
		{"bad bcrypt", map[string]string{"STREAMFLOW_BCRYPT_COST": "2"}, "invalid bcrypt cost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			err := NewConfigManager().LoadConfig("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestDerivedConfig(t *testing.T) {
	t.Setenv("STREAMFLOW_DATA_DIR", "/srv/streamflow")
	t.Setenv("STREAMFLOW_ASSETS_PUBLIC_PATH", "media/")

	cm := NewConfigManager()
	require.NoError(t, cm.LoadConfig(""))
	cfg := cm.GetConfig()

	assert.Equal(t, filepath.Join("/srv/streamflow", "streamflow.db"), cfg.Database.DatabasePath)
	assert.Equal(t, filepath.Join("/srv/streamflow", "assets"), cfg.Assets.Dir)
	assert.Equal(t, "/media", cfg.Assets.PublicPath)
	assert.NotEmpty(t, cfg.Security.JWTSecret)
	assert.Equal(t, cfg.Database.DatabasePath, cfg.Database.DSN())
}

func TestPostgresDSN(t *testing.T) {
	d := DatabaseConfig{
		Type:     "postgres",
		Host:     "db",
		Port:     5432,
		Username: "sf",
		Password: "p@ss",
		Database: "streamflow",
		SSLMode:  "disable",
	}
	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://sf:p%40ss@db:5432/streamflow")
	assert.Contains(t, dsn, "sslmode=disable")

	d.URL = "postgres://override"
	assert.Equal(t, "postgres://override", d.DSN())
}

func TestWatchersNotified(t *testing.T) {
	cm := NewConfigManager()
	changed := make(chan *Config, 1)
	cm.AddWatcher(func(_, newConfig *Config) { changed <- newConfig })

	t.Setenv("STREAMFLOW_LOG_LEVEL", "debug")
	require.NoError(t, cm.LoadConfig(""))

	select {
	case cfg := <-changed:
		assert.Equal(t, "debug", cfg.Logging.Level)
	case <-time.After(time.Second):
		t.Fatal("watcher not called")
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o644))

	cm := NewConfigManager()
	require.NoError(t, cm.LoadConfig(path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, cm.Watch(ctx))

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644))

	assert.Eventually(t, func() bool {
		return cm.GetConfig().Logging.Level == "debug"
	}, 3*time.Second, 50*time.Millisecond)
}

func TestWatchWithoutFile(t *testing.T) {
	err := NewConfigManager().Watch(context.Background())
	assert.Error(t, err)
}
