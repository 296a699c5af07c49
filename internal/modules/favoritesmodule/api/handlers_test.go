package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/cache"
	"github.com/mantonx/streamflow/internal/database"
	catalogrepo "github.com/mantonx/streamflow/internal/modules/catalogmodule/core/repository"
	catalogservice "github.com/mantonx/streamflow/internal/modules/catalogmodule/service"
	"github.com/mantonx/streamflow/internal/modules/favoritesmodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/favoritesmodule/service"
	"github.com/mantonx/streamflow/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type dbUsers struct{ db *gorm.DB }

func (u dbUsers) FindUserByID(ctx context.Context, id string) (*database.User, error) {
	var user database.User
	if err := u.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, types.NewNotFoundError("user", id)
	}
	return &user, nil
}

func setup(t *testing.T) (*gin.Engine, string, database.Film) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := database.NewTestDB(t)
	tm, err := auth.NewTokenManager("favorites-test", "streamflow", time.Hour, time.Hour)
	require.NoError(t, err)

	catalog := catalogservice.NewCatalogService(catalogrepo.NewCatalogRepository(db), cache.NewMemoryStore(), time.Hour, hclog.NewNullLogger())
	svc := service.NewFavoriteService(repository.NewFavoriteRepository(db), catalog, hclog.NewNullLogger())

	router := gin.New()
	RegisterRoutes(router, NewHandler(svc), auth.NewMiddleware(tm, dbUsers{db}))

	user := database.User{Email: "fan@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	token, _, err := tm.GenerateAccessToken(&user)
	require.NoError(t, err)

	film := database.Film{Title: "Heat", Published: true, VideoURL: "https://cdn.example.com/heat.mp4"}
	require.NoError(t, db.Create(&film).Error)
	return router, token, film
}

func call(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
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

func TestFavoritesFlow(t *testing.T) {
	router, token, film := setup(t)
	add := gin.H{"content_type": "film", "content_id": film.ID}

	assert.Equal(t, http.StatusUnauthorized, call(router, http.MethodGet, "/api/favorites", "", nil).Code)

	w := call(router, http.MethodGet, "/api/favorites/film/"+film.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"favorite":false}`, w.Body.String())

	assert.Equal(t, http.StatusCreated, call(router, http.MethodPost, "/api/favorites", token, add).Code)
	assert.Equal(t, http.StatusConflict, call(router, http.MethodPost, "/api/favorites", token, add).Code)
	assert.Equal(t, http.StatusNotFound, call(router, http.MethodPost, "/api/favorites", token,
		gin.H{"content_type": "series", "content_id": film.ID}).Code)
	assert.Equal(t, http.StatusBadRequest, call(router, http.MethodPost, "/api/favorites", token, gin.H{}).Code)

	w = call(router, http.MethodGet, "/api/favorites/film/"+film.ID, token, nil)
	assert.JSONEq(t, `{"favorite":true}`, w.Body.String())

	w = call(router, http.MethodGet, "/api/favorites", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Favorites []struct {
			Film *struct {
				Title string `json:"title"`
			} `json:"film"`
		} `json:"favorites"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Heat", list.Favorites[0].Film.Title)

	assert.Equal(t, http.StatusNoContent, call(router, http.MethodDelete, "/api/favorites/film/"+film.ID, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, call(router, http.MethodDelete, "/api/favorites/film/"+film.ID, token, nil).Code)
}
