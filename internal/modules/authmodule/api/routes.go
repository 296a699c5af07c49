package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/apiroutes"
	"github.com/mantonx/streamflow/internal/auth"
)

// RegisterRoutes registers all auth module routes
func RegisterRoutes(router *gin.Engine, handler *Handler, mw *auth.Middleware) {
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register", handler.Register)
		authGroup.POST("/login", handler.Login)
		authGroup.POST("/refresh", handler.Refresh)
		authGroup.POST("/forgot-password", handler.ForgotPassword)
		authGroup.POST("/reset-password", handler.ResetPassword)
		authGroup.POST("/logout", mw.RequireAuth(), handler.Logout)
		authGroup.GET("/me", mw.RequireAuth(), handler.Me)
	}

	apiroutes.RegisterFor("auth", "/api/auth/register", "POST", "Create an account.")
	apiroutes.RegisterFor("auth", "/api/auth/login", "POST", "Sign in with email and password.")
	apiroutes.RegisterFor("auth", "/api/auth/refresh", "POST", "Rotate a refresh token.")
	apiroutes.RegisterFor("auth", "/api/auth/forgot-password", "POST", "Request a password reset link.")
	apiroutes.RegisterFor("auth", "/api/auth/reset-password", "POST", "Set a new password with a reset token.")
	apiroutes.RegisterFor("auth", "/api/auth/logout", "POST", "Revoke a refresh token.")
	apiroutes.RegisterFor("auth", "/api/auth/me", "GET", "Current user.")
}
