package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/apiroutes"
	"github.com/mantonx/streamflow/internal/auth"
)

// RegisterRoutes registers the subscription routes
func RegisterRoutes(router *gin.Engine, handler *Handler, mw *auth.Middleware) {
	subs := router.Group("/api/subscriptions")
	{
		subs.GET("/plans", handler.GetPlans)
		subs.POST("/webhook", handler.Webhook)

		subs.GET("/me", mw.RequireAuth(), handler.GetMine)
		subs.POST("/checkout", mw.RequireAuth(), handler.Checkout)
		subs.POST("/cancel", mw.RequireAuth(), handler.Cancel)
	}

	apiroutes.RegisterFor("subscriptions", "/api/subscriptions/plans", "GET", "Plans with taxed prices.")
	apiroutes.RegisterFor("subscriptions", "/api/subscriptions/me", "GET", "Current subscription and payments.")
	apiroutes.RegisterFor("subscriptions", "/api/subscriptions/checkout", "POST", "Start a subscription.")
	apiroutes.RegisterFor("subscriptions", "/api/subscriptions/cancel", "POST", "Stop renewal at period end.")
	apiroutes.RegisterFor("subscriptions", "/api/subscriptions/webhook", "POST", "Stripe webhook endpoint.")
}
