package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/apiroutes"
	"github.com/mantonx/streamflow/internal/auth"
)

// RegisterRoutes registers the member and admin suggestion routes
func RegisterRoutes(router *gin.Engine, handler *Handler, mw *auth.Middleware) {
	suggestions := router.Group("/api/suggestions", mw.RequireAuth())
	{
		suggestions.POST("", handler.CreateSuggestion)
		suggestions.GET("/status", handler.GetStatus)
	}

	admin := router.Group("/api/admin/suggestions", mw.RequireAdmin())
	{
		admin.GET("", handler.AdminListSuggestions)
		admin.DELETE("/:id", handler.DeleteSuggestion)
	}

	apiroutes.RegisterFor("suggestions", "/api/suggestions", "POST", "Suggest a TMDB title for the catalog.")
	apiroutes.RegisterFor("suggestions", "/api/suggestions/status", "GET", "Which TMDB ids are already suggested or available.")
	apiroutes.RegisterFor("suggestions", "/api/admin/suggestions", "GET", "Suggestions, newest first.")
	apiroutes.RegisterFor("suggestions", "/api/admin/suggestions/:id", "DELETE", "Dismiss a suggestion.")
}
