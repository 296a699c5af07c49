package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/apiroutes"
	"github.com/mantonx/streamflow/internal/auth"
)

// RegisterRoutes registers all playback routes
func RegisterRoutes(router *gin.Engine, handler *Handler, mw *auth.Middleware) {
	playback := router.Group("/api/playback")
	{
		playback.GET("/ws", mw.RequireSocketAuth(), handler.HandleWebSocket)
		playback.POST("/progress", mw.RequireAuth(), handler.RecordProgress)
		playback.GET("/:type/:id", mw.OptionalAuth(), handler.GetSource)
	}

	history := router.Group("/api/history", mw.RequireAuth())
	{
		history.GET("", handler.GetHistory)
		history.DELETE("", handler.ClearHistory)
		history.DELETE("/:id", handler.DeleteHistoryEntry)
	}

	router.GET("/api/series/:id/watched", mw.RequireAuth(), handler.GetWatchedEpisodes)
	router.POST("/api/episodes/:id/watched", mw.RequireAuth(), handler.MarkWatched)
	router.DELETE("/api/episodes/:id/watched", mw.RequireAuth(), handler.UnmarkWatched)

	apiroutes.RegisterFor("playback", "/api/playback/:type/:id", "GET", "Playable source of a film or episode.")
	apiroutes.RegisterFor("playback", "/api/playback/progress", "POST", "Report playback progress.")
	apiroutes.RegisterFor("playback", "/api/playback/ws", "GET", "Progress websocket.")
	apiroutes.RegisterFor("playback", "/api/history", "GET", "Watch history.")
	apiroutes.RegisterFor("playback", "/api/history", "DELETE", "Clear watch history.")
	apiroutes.RegisterFor("playback", "/api/history/:id", "DELETE", "Remove a history entry.")
	apiroutes.RegisterFor("playback", "/api/series/:id/watched", "GET", "Watched episodes of a series.")
	apiroutes.RegisterFor("playback", "/api/episodes/:id/watched", "POST", "Mark an episode watched.")
	apiroutes.RegisterFor("playback", "/api/episodes/:id/watched", "DELETE", "Unmark an episode.")
}
