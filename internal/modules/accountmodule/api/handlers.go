// Package api provides HTTP handlers for the account module
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apiutil "github.com/mantonx/streamflow/internal/api"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/modules/accountmodule/service"
)

// Handler handles HTTP requests for the account module
type Handler struct {
	service *service.AccountService
}

// NewHandler creates a new account handler
func NewHandler(svc *service.AccountService) *Handler {
	return &Handler{service: svc}
}

func (h *Handler) respond(c *gin.Context, account *service.Account, err error) {
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// GetAccount handles GET /api/account
func (h *Handler) GetAccount(c *gin.Context) {
	account, err := h.service.Get(c.Request.Context(), auth.ViewerFromContext(c).UserID)
	h.respond(c, account, err)
}

// UpdateProfile handles PUT /api/account/profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req service.ProfileRequest
	if !apiutil.BindJSON(c, &req) {
		return
	}
	account, err := h.service.UpdateProfile(c.Request.Context(), auth.ViewerFromContext(c).UserID, req)
	h.respond(c, account, err)
}

// UpdateSettings handles PUT /api/account/settings
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req service.SettingsRequest
	if !apiutil.BindJSON(c, &req) {
		return
	}
	account, err := h.service.UpdateSettings(c.Request.Context(), auth.ViewerFromContext(c).UserID, req)
	h.respond(c, account, err)
}

// ChangePassword handles PUT /api/account/password
func (h *Handler) ChangePassword(c *gin.Context) {
	var req service.PasswordRequest
	if !apiutil.BindJSON(c, &req) {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), auth.ViewerFromContext(c).UserID, req); err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteAccount handles DELETE /api/account
func (h *Handler) DeleteAccount(c *gin.Context) {
	var req service.DeleteRequest
	if !apiutil.BindJSON(c, &req) {
		return
	}
	if err := h.service.Delete(c.Request.Context(), auth.ViewerFromContext(c).UserID, req); err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
