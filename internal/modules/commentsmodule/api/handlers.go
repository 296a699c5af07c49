// Package api provides HTTP handlers for comments and their moderation
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apiutil "github.com/mantonx/streamflow/internal/api"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/modules/commentsmodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/commentsmodule/service"
	"github.com/mantonx/streamflow/internal/types"
)

// Handler handles HTTP requests for comments
type Handler struct {
	service *service.CommentService
}

// NewHandler creates a new comments handler
func NewHandler(svc *service.CommentService) *Handler {
	return &Handler{service: svc}
}

// ListComments handles GET /api/comments
func (h *Handler) ListComments(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), c.Query("content_type"), c.Query("content_id"),
		apiutil.Pagination(c, types.DefaultPageSize))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	apiutil.RespondWithPage(c, page.Items, page.Pagination)
}

// CreateComment handles POST /api/comments
func (h *Handler) CreateComment(c *gin.Context) {
	var req service.CreateRequest
	if !apiutil.BindJSON(c, &req) {
		return
	}

	comment, err := h.service.Create(c.Request.Context(), auth.ViewerFromContext(c), req)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// UpdateComment handles PUT /api/comments/:id
func (h *Handler) UpdateComment(c *gin.Context) {
	var req service.UpdateRequest
	if !apiutil.BindJSON(c, &req) {
		return
	}

	comment, err := h.service.Update(c.Request.Context(), auth.ViewerFromContext(c), c.Param("id"), req)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DeleteComment handles DELETE /api/comments/:id
func (h *Handler) DeleteComment(c *gin.Context) {
	err := h.service.Delete(c.Request.Context(), auth.ViewerFromContext(c), auth.ActorFromContext(c), c.Param("id"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}

// ReportComment handles POST /api/comments/:id/report
func (h *Handler) ReportComment(c *gin.Context) {
	var req service.ReportRequest
	if c.Request.ContentLength != 0 && !apiutil.BindJSON(c, &req) {
		return
	}

	if err := h.service.Report(c.Request.Context(), auth.ViewerFromContext(c), c.Param("id"), req); err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "comment reported"})
}

// AdminListComments handles GET /api/admin/comments
func (h *Handler) AdminListComments(c *gin.Context) {
	filter := repository.AdminFilter{
		Status:    c.Query("status"),
		ContentID: c.Query("content_id"),
		UserID:    c.Query("user_id"),
	}
	if raw := c.Query("content_type"); raw != "" {
		ct, ok := database.ParseContentType(raw)
		if !ok {
			apiutil.RespondWithValidationError(c, "content_type must be film, series or episode")
			return
		}
		filter.ContentType = ct
	}
	if raw := c.Query("min_rating"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < service.MinRating || n > service.MaxRating {
			apiutil.RespondWithValidationError(c, "min_rating must be between 1 and 5")
			return
		}
		filter.MinRating = n
	}
	if v, err := strconv.ParseBool(c.Query("reported")); err == nil {
		filter.Reported = &v
	}

	page, err := h.service.AdminList(c.Request.Context(), filter, apiutil.Pagination(c, types.DefaultPageSize))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	apiutil.RespondWithPage(c, page.Items, page.Pagination)
}

// ModerateComment handles PATCH /api/admin/comments/:id/moderate
func (h *Handler) ModerateComment(c *gin.Context) {
	var req service.ModerateRequest
	if !apiutil.BindJSON(c, &req) {
		return
	}

	comment, err := h.service.Moderate(c.Request.Context(), auth.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// GetStats handles GET /api/admin/comments/stats
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
