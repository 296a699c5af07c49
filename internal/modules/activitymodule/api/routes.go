package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/apiroutes"
	"github.com/mantonx/streamflow/internal/auth"
)

// RegisterRoutes registers the activity log routes
func RegisterRoutes(router *gin.Engine, handler *Handler, mw *auth.Middleware) {
	logs := router.Group("/api/admin/activity-logs", mw.RequireAdmin())
	{
		logs.GET("", handler.ListLogs)
		logs.GET("/recent", handler.RecentLogs)
	}

	apiroutes.RegisterFor("activity", "/api/admin/activity-logs", "GET", "Admin activity log with filters.")
	apiroutes.RegisterFor("activity", "/api/admin/activity-logs/recent", "GET", "Latest admin actions.")
}
