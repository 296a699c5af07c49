package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/apiroutes"
	"github.com/mantonx/streamflow/internal/auth"
)

// RegisterRoutes registers the favorites routes. All of them require login.
func RegisterRoutes(router *gin.Engine, handler *Handler, mw *auth.Middleware) {
	favorites := router.Group("/api/favorites", mw.RequireAuth())
	{
		favorites.GET("", handler.ListFavorites)
		favorites.POST("", handler.AddFavorite)
		favorites.GET("/:type/:id", handler.CheckFavorite)
		favorites.DELETE("/:type/:id", handler.RemoveFavorite)
	}

	apiroutes.RegisterFor("favorites", "/api/favorites", "GET", "List favorites, newest first. Optional ?type= filter.")
	apiroutes.RegisterFor("favorites", "/api/favorites", "POST", "Add a favorite.")
	apiroutes.RegisterFor("favorites", "/api/favorites/:type/:id", "GET", "Whether content is a favorite.")
	apiroutes.RegisterFor("favorites", "/api/favorites/:type/:id", "DELETE", "Remove a favorite.")
}
