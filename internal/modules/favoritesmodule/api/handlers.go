// Package api provides HTTP handlers for the favorites module
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apiutil "github.com/mantonx/streamflow/internal/api"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/modules/favoritesmodule/service"
)

// Handler handles HTTP requests for favorites
type Handler struct {
	service *service.FavoriteService
}

// NewHandler creates a new favorites handler
func NewHandler(svc *service.FavoriteService) *Handler {
	return &Handler{service: svc}
}

// ListFavorites handles GET /api/favorites
func (h *Handler) ListFavorites(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), auth.ViewerFromContext(c), c.Query("type"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": items, "count": len(items)})
}

// AddFavorite handles POST /api/favorites
func (h *Handler) AddFavorite(c *gin.Context) {
	var req service.AddRequest
	if !apiutil.BindJSON(c, &req) {
		return
	}

	fav, err := h.service.Add(c.Request.Context(), auth.ViewerFromContext(c), req)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"favorite": fav})
}

// RemoveFavorite handles DELETE /api/favorites/:type/:id
func (h *Handler) RemoveFavorite(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), auth.ViewerFromContext(c), c.Param("type"), c.Param("id")); err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckFavorite handles GET /api/favorites/:type/:id
func (h *Handler) CheckFavorite(c *gin.Context) {
	ok, err := h.service.IsFavorite(c.Request.Context(), auth.ViewerFromContext(c), c.Param("type"), c.Param("id"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorite": ok})
}
