package authmodule

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/cache"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cache.SetDefault(cache.NewMemoryStore())

	cfg := config.DefaultConfig()
	cfg.Security.JWTSecret = "module-test-secret"
	cfg.Security.BcryptCost = 4

	m := &Module{db: database.NewTestDB(t), cfg: cfg}
	require.NoError(t, m.Init())
	t.Cleanup(func() { m.Shutdown(context.Background()) })

	router := gin.New()
	m.RegisterRoutes(router)
	return router
}

func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type authResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		IsVIP bool   `json:"is_vip"`
	} `json:"user"`
	Tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"tokens"`
}

func TestAuthFlow(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "viewer@example.com", "password": "password123", "full_name": "Viewer",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var registered authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))
	assert.Equal(t, "viewer@example.com", registered.User.Email)
	assert.NotContains(t, w.Body.String(), "password_hash")

	w = doJSON(router, http.MethodGet, "/api/auth/me", registered.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), registered.User.ID)

	w = doJSON(router, http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": registered.Tokens.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)
	var refreshed authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refreshed))

	w = doJSON(router, http.MethodPost, "/api/auth/logout", refreshed.Tokens.AccessToken, gin.H{"refresh_token": refreshed.Tokens.RefreshToken})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": refreshed.Tokens.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthErrors(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/auth/register", "", gin.H{"email": "nope", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/auth/register", "", gin.H{"email": "dup@example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(router, http.MethodPost, "/api/auth/register", "", gin.H{"email": "dup@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(router, http.MethodPost, "/api/auth/login", "", gin.H{"email": "dup@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")

	w = doJSON(router, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodGet, "/api/auth/me", "not.a.token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInitRegistersService(t *testing.T) {
	newTestRouter(t)

	svc, err := services.GetService[services.AuthService](services.AuthServiceName)
	require.NoError(t, err)
	assert.NotNil(t, svc.Middleware())
}

func TestPasswordResetRoutes(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/auth/register", "", gin.H{"email": "reset@example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, w.Code)

	known := doJSON(router, http.MethodPost, "/api/auth/forgot-password", "", gin.H{"email": "reset@example.com"})
	unknown := doJSON(router, http.MethodPost, "/api/auth/forgot-password", "", gin.H{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())

	w = doJSON(router, http.MethodPost, "/api/auth/reset-password", "", gin.H{"token": "bogus", "new_password": "password456"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "RESET_TOKEN_INVALID")

	w = doJSON(router, http.MethodPost, "/api/auth/reset-password", "", gin.H{"token": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
