package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/apiroutes"
	"github.com/mantonx/streamflow/internal/auth"
)

const module = "admin"

// RegisterRoutes registers the back-office routes. Every route requires an admin.
func RegisterRoutes(router *gin.Engine, handler *Handler, mw *auth.Middleware) {
	admin := router.Group("/api/admin", mw.RequireAdmin())

	films := admin.Group("/films")
	{
		films.GET("", handler.ListFilms)
		films.POST("", handler.CreateFilm)
		films.GET("/:id", handler.GetFilm)
		films.PUT("/:id", handler.UpdateFilm)
		films.DELETE("/:id", handler.DeleteFilm)
		films.PATCH("/:id/publish", handler.PublishFilm)
	}

	series := admin.Group("/series")
	{
		series.GET("", handler.ListSeries)
		series.POST("", handler.CreateSeries)
		series.GET("/:id", handler.GetSeries)
		series.PUT("/:id", handler.UpdateSeries)
		series.DELETE("/:id", handler.DeleteSeries)
		series.PATCH("/:id/publish", handler.PublishSeries)
		series.GET("/:id/seasons", handler.ListSeasons)
		series.POST("/:id/seasons", handler.CreateSeason)
	}

	seasons := admin.Group("/seasons")
	{
		seasons.PUT("/:id", handler.UpdateSeason)
		seasons.DELETE("/:id", handler.DeleteSeason)
		seasons.GET("/:id/episodes", handler.ListEpisodes)
		seasons.POST("/:id/episodes", handler.CreateEpisode)
		seasons.GET("/:id/episodes/next-number", handler.NextEpisodeNumber)
	}

	episodes := admin.Group("/episodes")
	{
		episodes.PUT("/:id", handler.UpdateEpisode)
		episodes.DELETE("/:id", handler.DeleteEpisode)
		episodes.PATCH("/:id/publish", handler.PublishEpisode)
	}

	users := admin.Group("/users")
	{
		users.GET("", handler.ListUsers)
		users.GET("/:id", handler.GetUser)
		users.PUT("/:id", handler.UpdateUser)
		users.DELETE("/:id", handler.DeleteUser)
	}

	admin.GET("/stats", handler.GetStats)
	admin.POST("/uploads/image", handler.UploadImage)

	for _, r := range []struct{ path, method, desc string }{
		{"/api/admin/films", "GET", "List films including drafts."},
		{"/api/admin/films", "POST", "Create a film."},
		{"/api/admin/films/:id", "GET", "Get a film."},
		{"/api/admin/films/:id", "PUT", "Update a film."},
		{"/api/admin/films/:id", "DELETE", "Delete a film and its engagement."},
		{"/api/admin/films/:id/publish", "PATCH", "Publish or unpublish a film."},
		{"/api/admin/series", "GET", "List series including drafts."},
		{"/api/admin/series", "POST", "Create a series."},
		{"/api/admin/series/:id", "GET", "Get a series with its seasons."},
		{"/api/admin/series/:id", "PUT", "Update a series."},
		{"/api/admin/series/:id", "DELETE", "Delete a series, its seasons and episodes."},
		{"/api/admin/series/:id/publish", "PATCH", "Publish or unpublish a series."},
		{"/api/admin/series/:id/seasons", "GET", "List the seasons of a series."},
		{"/api/admin/series/:id/seasons", "POST", "Add a season."},
		{"/api/admin/seasons/:id", "PUT", "Update a season."},
		{"/api/admin/seasons/:id", "DELETE", "Delete a season and its episodes."},
		{"/api/admin/seasons/:id/episodes", "GET", "List the episodes of a season."},
		{"/api/admin/seasons/:id/episodes", "POST", "Add an episode."},
		{"/api/admin/seasons/:id/episodes/next-number", "GET", "Next free episode number."},
		{"/api/admin/episodes/:id", "PUT", "Update an episode."},
		{"/api/admin/episodes/:id", "DELETE", "Delete an episode."},
		{"/api/admin/episodes/:id/publish", "PATCH", "Publish or unpublish an episode."},
		{"/api/admin/users", "GET", "List users with filters."},
		{"/api/admin/users/:id", "GET", "Get a user."},
		{"/api/admin/users/:id", "PUT", "Update status, VIP or role."},
		{"/api/admin/users/:id", "DELETE", "Delete a user and their data."},
		{"/api/admin/stats", "GET", "Dashboard totals, top genres and host metrics."},
		{"/api/admin/uploads/image", "POST", "Upload an image, stored as WebP."},
	} {
		apiroutes.RegisterFor(module, r.path, r.method, r.desc)
	}
}
