package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/apiroutes"
	"github.com/mantonx/streamflow/internal/auth"
)

// RegisterRoutes registers the public, member and moderation comment routes
func RegisterRoutes(router *gin.Engine, handler *Handler, mw *auth.Middleware) {
	comments := router.Group("/api/comments")
	{
		comments.GET("", handler.ListComments)
		comments.POST("", mw.RequireAuth(), handler.CreateComment)
		comments.PUT("/:id", mw.RequireAuth(), handler.UpdateComment)
		comments.DELETE("/:id", mw.RequireAuth(), handler.DeleteComment)
		comments.POST("/:id/report", mw.RequireAuth(), handler.ReportComment)
	}

	moderation := router.Group("/api/admin/comments", mw.RequireAdmin())
	{
		moderation.GET("", handler.AdminListComments)
		moderation.GET("/stats", handler.GetStats)
		moderation.PATCH("/:id/moderate", handler.ModerateComment)
	}

	apiroutes.RegisterFor("comments", "/api/comments", "GET", "Approved comments on content, newest first.")
	apiroutes.RegisterFor("comments", "/api/comments", "POST", "Post a comment with a 1-5 rating.")
	apiroutes.RegisterFor("comments", "/api/comments/:id", "PUT", "Edit your own comment.")
	apiroutes.RegisterFor("comments", "/api/comments/:id", "DELETE", "Delete your comment, or any comment as admin.")
	apiroutes.RegisterFor("comments", "/api/comments/:id/report", "POST", "Report a comment.")
	apiroutes.RegisterFor("comments", "/api/admin/comments", "GET", "Moderation listing with status, content, user, rating and reported filters.")
	apiroutes.RegisterFor("comments", "/api/admin/comments/stats", "GET", "Comment totals and average rating.")
	apiroutes.RegisterFor("comments", "/api/admin/comments/:id/moderate", "PATCH", "Approve or reject a comment.")
}
