package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/apiroutes"
	"github.com/mantonx/streamflow/internal/auth"
)

// RegisterRoutes registers the account routes
func RegisterRoutes(router *gin.Engine, handler *Handler, mw *auth.Middleware) {
	account := router.Group("/api/account", mw.RequireAuth())
	{
		account.GET("", handler.GetAccount)
		account.DELETE("", handler.DeleteAccount)
		account.PUT("/profile", handler.UpdateProfile)
		account.PUT("/settings", handler.UpdateSettings)
		account.PUT("/password", handler.ChangePassword)
	}

	apiroutes.RegisterFor("account", "/api/account", "GET", "Profile, settings and subscription of the current user.")
	apiroutes.RegisterFor("account", "/api/account", "DELETE", "Delete the current account.")
	apiroutes.RegisterFor("account", "/api/account/profile", "PUT", "Update name and avatar.")
	apiroutes.RegisterFor("account", "/api/account/settings", "PUT", "Update preferences.")
	apiroutes.RegisterFor("account", "/api/account/password", "PUT", "Change password.")
}
