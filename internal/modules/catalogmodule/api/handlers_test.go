package api

import (
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
	"github.com/mantonx/streamflow/internal/modules/catalogmodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/catalogmodule/service"
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

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	tokens *auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := database.NewTestDB(t)
	tm, err := auth.NewTokenManager("catalog-test", "streamflow", time.Hour, time.Hour)
	require.NoError(t, err)

	svc := service.NewCatalogService(repository.NewCatalogRepository(db), cache.NewMemoryStore(), time.Hour, hclog.NewNullLogger())
	router := gin.New()
	RegisterRoutes(router, NewHandler(svc), auth.NewMiddleware(tm, dbUsers{db}))

	return &testEnv{router: router, db: db, tokens: tm}
}

func (e *testEnv) token(t *testing.T, vip bool) string {
	t.Helper()
	user := database.User{Email: "u@example.com", PasswordHash: "x", IsActive: true, IsVIP: vip}
	require.NoError(t, e.db.Create(&user).Error)
	token, _, err := e.tokens.GenerateAccessToken(&user)
	require.NoError(t, err)
	return token
}

func (e *testEnv) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestListFilmsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&database.Film{Title: "Heat", VideoURL: "https://cdn/heat.mp4", Published: true, Genres: database.GenreList{"crime"}}).Error)
	require.NoError(t, env.db.Create(&database.Film{Title: "Up", VideoURL: "https://cdn/up.mp4", Published: true, Genres: database.GenreList{"animation"}}).Error)

	w := env.get("/api/films?genre=Crime&limit=500", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Items []struct {
			Title  string `json:"title"`
			Locked bool   `json:"locked"`
		} `json:"items"`
		Pagination types.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "Heat", body.Items[0].Title)
	assert.Equal(t, types.MaxPageSize, body.Pagination.Limit)
}

func TestExclusiveRequiresVIP(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusUnauthorized, env.get("/api/exclusive", "").Code)

	w := env.get("/api/exclusive", env.token(t, false))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "VIP_REQUIRED")

	require.NoError(t, env.db.Where("1 = 1").Delete(&database.User{}).Error)
	assert.Equal(t, http.StatusOK, env.get("/api/exclusive", env.token(t, true)).Code)

	// The public VIP page needs no account
	assert.Equal(t, http.StatusOK, env.get("/api/vip", "").Code)
}

func TestEpisodeEndpoints(t *testing.T) {
	env := newTestEnv(t)

	series := database.Series{Title: "Dark", Published: true}
	require.NoError(t, env.db.Create(&series).Error)
	season := database.Season{SeriesID: series.ID, SeasonNumber: 1}
	require.NoError(t, env.db.Create(&season).Error)
	last := database.Episode{SeriesID: series.ID, SeasonID: season.ID, EpisodeNumber: 1, Published: true}
	require.NoError(t, env.db.Create(&last).Error)
	draft := database.Episode{SeriesID: series.ID, SeasonID: season.ID, EpisodeNumber: 2}
	require.NoError(t, env.db.Create(&draft).Error)

	w := env.get("/api/episodes/"+last.ID+"/next", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"next":null}`, w.Body.String())

	w = env.get("/api/episodes/"+draft.ID+"/next", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "CONTENT_UNAVAILABLE")

	assert.Equal(t, http.StatusBadRequest, env.get("/api/series/"+series.ID+"/seasons/abc", "").Code)
	assert.Equal(t, http.StatusOK, env.get("/api/series/"+series.ID+"/seasons/1", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.get("/api/search", "").Code)
}

func TestLockedContentHidesVideoURL(t *testing.T) {
	env := newTestEnv(t)

	film := database.Film{Title: "Vault", VideoURL: "https://cdn/vip-secret.m3u8", Published: true, IsVIP: true}
	require.NoError(t, env.db.Create(&film).Error)
	series := database.Series{Title: "Locked Show", Published: true, IsVIP: true}
	require.NoError(t, env.db.Create(&series).Error)
	season := database.Season{SeriesID: series.ID, SeasonNumber: 1}
	require.NoError(t, env.db.Create(&season).Error)
	episode := database.Episode{SeriesID: series.ID, SeasonID: season.ID, EpisodeNumber: 1, Published: true, VideoURL: "https://cdn/vip-episode.m3u8"}
	require.NoError(t, env.db.Create(&episode).Error)

	for _, path := range []string{
		"/api/films",
		"/api/films/" + film.ID,
		"/api/vip",
		"/api/home",
		"/api/search?q=v",
		"/api/series/" + series.ID,
		"/api/episodes/" + episode.ID,
	} {
		t.Run(path, func(t *testing.T) {
			w := env.get(path, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.NotContains(t, w.Body.String(), "vip-secret.m3u8")
			assert.NotContains(t, w.Body.String(), "vip-episode.m3u8")
			assert.Contains(t, w.Body.String(), `"locked":true`)
		})
	}

	w := env.get("/api/films/"+film.ID, env.token(t, true))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vip-secret.m3u8")
	assert.Contains(t, w.Body.String(), `"locked":false`)
}

func TestVIPFilterUsesVIPColumn(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&database.Film{Title: "Free", VideoURL: "https://cdn/free.mp4", Published: true}).Error)
	require.NoError(t, env.db.Create(&database.Film{Title: "Gold", VideoURL: "https://cdn/gold.mp4", Published: true, IsVIP: true}).Error)

	w := env.get("/api/films?vip=true", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Items []struct {
			Title string `json:"title"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "Gold", body.Items[0].Title)
}
