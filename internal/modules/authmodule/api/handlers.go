// Package api provides HTTP handlers for the auth module
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apiutil "github.com/mantonx/streamflow/internal/api"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/modules/authmodule/service"
)

// Handler handles HTTP requests for the auth module
type Handler struct {
	service *service.AuthService
}

// NewHandler creates a new auth handler
func NewHandler(svc *service.AuthService) *Handler {
	return &Handler{service: svc}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register handles POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if !apiutil.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Register(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Login handles POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req service.LoginRequest
	if !apiutil.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), req, auth.ActorFromContext(c))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Refresh handles POST /api/auth/refresh
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !apiutil.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Logout handles POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	var req logoutRequest
	// The body is optional
	_ = c.ShouldBindJSON(&req)

	if err := h.service.Logout(c.Request.Context(), auth.ViewerFromContext(c), req.RefreshToken, auth.ActorFromContext(c)); err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me handles GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context(), auth.ViewerFromContext(c).UserID)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ForgotPassword handles POST /api/auth/forgot-password
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req service.ForgotPasswordRequest
	if !apiutil.BindJSON(c, &req) {
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req); err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": service.ForgotPasswordMessage})
}

// ResetPassword handles POST /api/auth/reset-password
func (h *Handler) ResetPassword(c *gin.Context) {
	var req service.ResetPasswordRequest
	if !apiutil.BindJSON(c, &req) {
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req); err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated. Please sign in again."})
}
