package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/cache"
	"github.com/mantonx/streamflow/internal/database"
	catalogrepo "github.com/mantonx/streamflow/internal/modules/catalogmodule/core/repository"
	catalogservice "github.com/mantonx/streamflow/internal/modules/catalogmodule/service"
	"github.com/mantonx/streamflow/internal/modules/playbackmodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/playbackmodule/service"
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
	socket *ProgressSocket
	db     *gorm.DB
	token  string
	film   database.Film
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := database.NewTestDB(t)
	tm, err := auth.NewTokenManager("playback-test", "streamflow", time.Hour, time.Hour)
	require.NoError(t, err)

	catalog := catalogservice.NewCatalogService(catalogrepo.NewCatalogRepository(db), cache.NewMemoryStore(), time.Hour, hclog.NewNullLogger())
	svc := service.NewPlaybackService(repository.NewHistoryRepository(db), catalog, hclog.NewNullLogger())
	socket := NewProgressSocket(svc, []string{"*"}, hclog.NewNullLogger())

	router := gin.New()
	RegisterRoutes(router, NewHandler(svc, socket), auth.NewMiddleware(tm, dbUsers{db}))

	user := database.User{Email: "viewer@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	token, _, err := tm.GenerateAccessToken(&user)
	require.NoError(t, err)

	film := database.Film{Title: "Heat", Published: true, VideoURL: "https://cdn.example.com/heat.mp4"}
	require.NoError(t, db.Create(&film).Error)

	return &testEnv{router: router, socket: socket, db: db, token: token, film: film}
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
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
	e.router.ServeHTTP(w, req)
	return w
}

func TestSourceEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/playback/film/"+env.film.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var source service.PlaybackSource
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &source))
	assert.Equal(t, "mp4", string(source.StreamType))

	w = env.do(http.MethodGet, "/api/playback/series/"+env.film.ID, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/playback/film/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProgressAndHistoryEndpoints(t *testing.T) {
	env := newTestEnv(t)
	report := gin.H{"content_type": "film", "content_id": env.film.ID, "position": 30, "duration": 60}

	w := env.do(http.MethodPost, "/api/playback/progress", "", report)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/playback/progress", env.token, gin.H{"content_type": "film"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/playback/progress", env.token, report)
	require.Equal(t, http.StatusOK, w.Code)
	var saved struct {
		History database.WatchHistory `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.Equal(t, 50.0, saved.History.Progress)

	w = env.do(http.MethodGet, "/api/history", env.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		History []service.HistoryItem `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.History, 1)
	assert.Equal(t, "Heat", list.History[0].Title)

	w = env.do(http.MethodDelete, "/api/history/"+saved.History.ID, env.token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(http.MethodDelete, "/api/history/"+saved.History.ID, env.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodDelete, "/api/history", env.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":0}`, w.Body.String())
}

func dialSocket(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/playback/ws?access_token=" + env.token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketProgress(t *testing.T) {
	env := newTestEnv(t)
	conn := dialSocket(t, env)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, conn.WriteJSON(SocketMessage{Type: MessagePing}))
	var reply SocketMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, MessagePong, reply.Type)

	require.NoError(t, conn.WriteJSON(SocketMessage{Type: MessageProgress, ContentType: "film", ContentID: env.film.ID, Position: 45, Duration: 60}))
	reply = SocketMessage{}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, MessageAck, reply.Type)
	require.NotNil(t, reply.Progress)
	assert.Equal(t, 75.0, *reply.Progress)

	require.NoError(t, conn.WriteJSON(SocketMessage{Type: MessageProgress, ContentType: "film", ContentID: "missing"}))
	reply = SocketMessage{}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, MessageError, reply.Type)
	assert.Equal(t, string(types.ErrorCodeNotFound), reply.Code)

	require.NoError(t, conn.WriteJSON(SocketMessage{Type: "rewind"}))
	reply = SocketMessage{}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, MessageError, reply.Type)

	var entry database.WatchHistory
	require.NoError(t, env.db.Where("content_id = ?", env.film.ID).First(&entry).Error)
	assert.Equal(t, 45, entry.Position)
}

func TestWebSocketRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/playback/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://streamflow.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/api/playback/ws", nil)
	assert.True(t, check(req), "requests without an Origin header are not browsers")

	req.Header.Set("Origin", "https://streamflow.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))
}

func TestWebSocketHidesInternalErrors(t *testing.T) {
	env := newTestEnv(t)
	conn := dialSocket(t, env)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, env.db.Migrator().DropTable(&database.WatchHistory{}))

	require.NoError(t, conn.WriteJSON(SocketMessage{Type: MessageProgress, ContentType: "film", ContentID: env.film.ID, Position: 10, Duration: 60}))
	var reply SocketMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, MessageError, reply.Type)
	assert.Equal(t, string(types.ErrorCodeInternal), reply.Code)
	assert.Equal(t, "internal server error", reply.Error)
	assert.NotContains(t, reply.Error, "watch_histories")
}

func TestSocketCloseDisconnectsClients(t *testing.T) {
	env := newTestEnv(t)
	conn := dialSocket(t, env)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	// A round trip guarantees the connection is registered
	require.NoError(t, conn.WriteJSON(SocketMessage{Type: MessagePing}))
	var reply SocketMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, 1, env.socket.Open())

	env.socket.Close()

	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected error: %v", err)
	assert.Eventually(t, func() bool { return env.socket.Open() == 0 }, 2*time.Second, 10*time.Millisecond)

	// Upgrades after Close are refused
	late := dialSocket(t, env)
	late.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = late.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected error: %v", err)
}
