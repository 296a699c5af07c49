package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/cache"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/modules/modulemanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type pingModule struct{ shutdown bool }

func (m *pingModule) ID() string                { return "test.ping" }
func (m *pingModule) Name() string              { return "Ping" }
func (m *pingModule) Core() bool                { return false }
func (m *pingModule) Migrate(db *gorm.DB) error { return nil }
func (m *pingModule) Init() error               { return nil }

func (m *pingModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"pong": true}) })
}

func (m *pingModule) Shutdown(ctx context.Context) error {
	m.shutdown = true
	return nil
}

func newTestServer(t *testing.T) (*Server, *pingModule, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.Assets.Dir = t.TempDir()

	registry := modulemanager.NewRegistry()
	ping := &pingModule{}
	registry.Register(ping)

	s := newServer(cfg, database.NewTestDB(t), cache.NewMemoryStore(), registry)
	require.NoError(t, s.Setup(context.Background()))
	return s, ping, cfg.Assets.Dir
}

func get(s *Server, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthAndRouteList(t *testing.T) {
	s, _, _ := newTestServer(t)
	t.Cleanup(func() { s.Shutdown(context.Background()) })

	w := get(s, "/api/health")
	require.Equal(t, http.StatusOK, w.Code)
	var health struct {
		Status  string                     `json:"status"`
		Modules int                        `json:"modules"`
		Checks  map[string]json.RawMessage `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 1, health.Modules)
	assert.Contains(t, health.Checks, "database")
	assert.Contains(t, health.Checks, "cache")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = get(s, "/api")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/api/health"`)

	assert.Equal(t, http.StatusOK, get(s, "/api/db-health").Code)
	assert.Equal(t, http.StatusOK, get(s, "/api/ping").Code)

	w = get(s, "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestMetricsStaticAndHeaders(t *testing.T) {
	s, ping, dir := newTestServer(t)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "images", "poster.webp"), []byte("RIFF"), 0o644))

	w := get(s, "/media/images/poster.webp")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "RIFF", w.Body.String())

	get(s, "/api/ping")
	w = get(s, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "streamflow_http_requests_total")

	w = get(s, "/api/health", "Origin", "http://localhost:3000")
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	s.Shutdown(context.Background())
	assert.True(t, ping.shutdown)
}
