// Package api provides HTTP handlers for subscriptions and the Stripe webhook
package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	apiutil "github.com/mantonx/streamflow/internal/api"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/modules/subscriptionmodule/gateway"
	"github.com/mantonx/streamflow/internal/modules/subscriptionmodule/service"
	"github.com/mantonx/streamflow/internal/types"
)

// Stripe events are small; anything larger is not from Stripe
const maxWebhookBody = 64 << 10

// Handler handles HTTP requests for subscriptions
type Handler struct {
	service       *service.SubscriptionService
	webhookSecret string
}

// NewHandler creates a new subscription handler. An empty webhookSecret
// disables the webhook endpoint.
func NewHandler(svc *service.SubscriptionService, webhookSecret string) *Handler {
	return &Handler{service: svc, webhookSecret: webhookSecret}
}

// GetPlans handles GET /api/subscriptions/plans
func (h *Handler) GetPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"plans":    h.service.Plans(),
		"tax_rate": h.service.TaxRate(),
		"currency": h.service.Currency(),
	})
}

// GetMine handles GET /api/subscriptions/me
func (h *Handler) GetMine(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context(), auth.ViewerFromContext(c).UserID)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Checkout handles POST /api/subscriptions/checkout
func (h *Handler) Checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if !apiutil.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Checkout(c.Request.Context(), auth.ViewerFromContext(c), req)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	status := http.StatusOK
	if result.Simulated {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// Cancel handles POST /api/subscriptions/cancel
func (h *Handler) Cancel(c *gin.Context) {
	sub, err := h.service.Cancel(c.Request.Context(), auth.ViewerFromContext(c).UserID)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// Webhook handles POST /api/subscriptions/webhook
func (h *Handler) Webhook(c *gin.Context) {
	if h.webhookSecret == "" {
		apiutil.RespondWithError(c, types.NewAppError(types.ErrorCodeBillingDisabled, "stripe webhooks are not configured", http.StatusServiceUnavailable))
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		apiutil.RespondWithValidationError(c, "webhook body too large")
		return
	}

	event, err := gateway.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		apiutil.RespondWithValidationError(c, "invalid webhook signature")
		return
	}

	if err := h.service.HandleWebhook(c.Request.Context(), event); err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
