package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/apiroutes"
	"github.com/mantonx/streamflow/internal/auth"
)

// RegisterRoutes registers all catalog routes
func RegisterRoutes(router *gin.Engine, handler *Handler, mw *auth.Middleware) {
	public := router.Group("/api", mw.OptionalAuth())
	{
		public.GET("/home", handler.GetHome)
		public.GET("/genres", handler.ListGenres)
		public.GET("/search", handler.Search)
		public.GET("/vip", handler.GetVIPCatalog)

		public.GET("/films", handler.ListFilms)
		public.GET("/films/:id", handler.GetFilm)
		public.GET("/films/:id/similar", handler.GetSimilarFilms)

		public.GET("/series", handler.ListSeries)
		public.GET("/series/:id", handler.GetSeries)
		public.GET("/series/:id/similar", handler.GetSimilarSeries)
		public.GET("/series/:id/seasons/:number", handler.GetSeason)

		public.GET("/episodes/:id", handler.GetEpisode)
		public.GET("/episodes/:id/next", handler.GetNextEpisode)
	}

	router.GET("/api/exclusive", mw.RequireAuth(), mw.RequireVIP(), handler.GetVIPCatalog)

	for _, r := range []struct{ path, desc string }{
		{"/api/home", "Landing page rows."},
		{"/api/genres", "Genres with published counts."},
		{"/api/search", "Search films and series by title."},
		{"/api/vip", "VIP catalog, locked for non-VIP viewers."},
		{"/api/exclusive", "VIP catalog for VIP members."},
		{"/api/films", "List films."},
		{"/api/films/:id", "Film details."},
		{"/api/films/:id/similar", "Films sharing a genre."},
		{"/api/series", "List series."},
		{"/api/series/:id", "Series with seasons and episodes."},
		{"/api/series/:id/similar", "Other popular series."},
		{"/api/series/:id/seasons/:number", "One season with its episodes."},
		{"/api/episodes/:id", "Episode with next and previous links."},
		{"/api/episodes/:id/next", "Next episode to play."},
	} {
		apiroutes.RegisterFor("catalog", r.path, "GET", r.desc)
	}
}
