// Package api provides HTTP handlers for content suggestions
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	apiutil "github.com/mantonx/streamflow/internal/api"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/modules/suggestionsmodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/suggestionsmodule/service"
	"github.com/mantonx/streamflow/internal/types"
)

// Handler handles HTTP requests for suggestions
type Handler struct {
	service *service.SuggestionService
}

// NewHandler creates a new suggestions handler
func NewHandler(svc *service.SuggestionService) *Handler {
	return &Handler{service: svc}
}

// CreateSuggestion handles POST /api/suggestions
func (h *Handler) CreateSuggestion(c *gin.Context) {
	var req service.SuggestRequest
	if !apiutil.BindJSON(c, &req) {
		return
	}

	suggestion, err := h.service.Suggest(c.Request.Context(), auth.ViewerFromContext(c), req)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, suggestion)
}

// GetStatus handles GET /api/suggestions/status?type=&tmdb_ids=1,2,3
func (h *Handler) GetStatus(c *gin.Context) {
	var ids []int
	for _, part := range strings.Split(c.Query("tmdb_ids"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			apiutil.RespondWithValidationError(c, "tmdb_ids must be a comma-separated list of ids")
			return
		}
		ids = append(ids, id)
	}

	status, err := h.service.Status(c.Request.Context(), c.Query("type"), ids)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// AdminListSuggestions handles GET /api/admin/suggestions
func (h *Handler) AdminListSuggestions(c *gin.Context) {
	filter := repository.Filter{
		Search: c.Query("search"),
		UserID: c.Query("user_id"),
	}
	if raw := c.Query("type"); raw != "" {
		mediaType, err := service.ParseMediaType(raw)
		if err != nil {
			apiutil.RespondWithError(c, err)
			return
		}
		filter.MediaType = mediaType
	}

	page, err := h.service.AdminList(c.Request.Context(), filter, apiutil.Pagination(c, types.DefaultPageSize))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	apiutil.RespondWithPage(c, page.Items, page.Pagination)
}

// DeleteSuggestion handles DELETE /api/admin/suggestions/:id
func (h *Handler) DeleteSuggestion(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), auth.ActorFromContext(c), c.Param("id")); err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
