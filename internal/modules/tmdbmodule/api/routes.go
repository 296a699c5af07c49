package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/apiroutes"
	"github.com/mantonx/streamflow/internal/auth"
)

// RegisterRoutes registers the TMDB routes, all admin only
func RegisterRoutes(router *gin.Engine, handler *Handler, mw *auth.Middleware) {
	tmdb := router.Group("/api/admin/tmdb", mw.RequireAdmin())
	{
		tmdb.GET("/search/movie", handler.SearchMovies)
		tmdb.GET("/search/tv", handler.SearchTV)
		tmdb.GET("/movie/:id", handler.GetMovie)
		tmdb.GET("/movie/:id/credits", handler.GetMovieCredits)
		tmdb.GET("/tv/:id", handler.GetTV)
		tmdb.GET("/tv/:id/credits", handler.GetTVCredits)
		tmdb.GET("/tv/:id/season/:season", handler.GetSeason)
		tmdb.GET("/tv/:id/season/:season/episode/:episode", handler.GetEpisode)

		tmdb.POST("/import/movie/:tmdbId", handler.ImportMovie)
		tmdb.POST("/import/tv/:tmdbId", handler.ImportTV)
		tmdb.POST("/import/series/:seriesId/season/:number", handler.ImportSeason)
		tmdb.POST("/import/series/:seriesId/season/:number/episode/:episode", handler.ImportEpisode)
	}

	apiroutes.RegisterFor("tmdb", "/api/admin/tmdb/search/movie", "GET", "Search TMDB movies.")
	apiroutes.RegisterFor("tmdb", "/api/admin/tmdb/search/tv", "GET", "Search TMDB shows.")
	apiroutes.RegisterFor("tmdb", "/api/admin/tmdb/movie/:id", "GET", "TMDB movie with an import preview.")
	apiroutes.RegisterFor("tmdb", "/api/admin/tmdb/movie/:id/credits", "GET", "TMDB movie cast and directors.")
	apiroutes.RegisterFor("tmdb", "/api/admin/tmdb/tv/:id", "GET", "TMDB show with an import preview.")
	apiroutes.RegisterFor("tmdb", "/api/admin/tmdb/tv/:id/credits", "GET", "TMDB show cast.")
	apiroutes.RegisterFor("tmdb", "/api/admin/tmdb/tv/:id/season/:season", "GET", "TMDB season with episodes.")
	apiroutes.RegisterFor("tmdb", "/api/admin/tmdb/tv/:id/season/:season/episode/:episode", "GET", "TMDB episode.")
	apiroutes.RegisterFor("tmdb", "/api/admin/tmdb/import/movie/:tmdbId", "POST", "Import a film from TMDB.")
	apiroutes.RegisterFor("tmdb", "/api/admin/tmdb/import/tv/:tmdbId", "POST", "Import a series, optionally with seasons.")
	apiroutes.RegisterFor("tmdb", "/api/admin/tmdb/import/series/:seriesId/season/:number", "POST", "Import a season, optionally with episodes.")
	apiroutes.RegisterFor("tmdb", "/api/admin/tmdb/import/series/:seriesId/season/:number/episode/:episode", "POST", "Import one episode.")
}
