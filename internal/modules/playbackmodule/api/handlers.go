// Package api provides HTTP and websocket handlers for the playback module
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apiutil "github.com/mantonx/streamflow/internal/api"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/modules/playbackmodule/service"
)

// Handler handles HTTP requests for the playback module
type Handler struct {
	service *service.PlaybackService
	ws      *ProgressSocket
}

// NewHandler creates a new playback handler
func NewHandler(svc *service.PlaybackService, ws *ProgressSocket) *Handler {
	return &Handler{service: svc, ws: ws}
}

// GetSource handles GET /api/playback/:type/:id
func (h *Handler) GetSource(c *gin.Context) {
	source, err := h.service.Source(c.Request.Context(), auth.ViewerFromContext(c), c.Param("type"), c.Param("id"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, source)
}

// RecordProgress handles POST /api/playback/progress
func (h *Handler) RecordProgress(c *gin.Context) {
	var req service.ProgressRequest
	if !apiutil.BindJSON(c, &req) {
		return
	}

	entry, err := h.service.RecordProgress(c.Request.Context(), auth.ViewerFromContext(c), req)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entry})
}

// GetHistory handles GET /api/history
func (h *Handler) GetHistory(c *gin.Context) {
	items, err := h.service.History(c.Request.Context(), auth.ViewerFromContext(c).UserID)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": items})
}

// DeleteHistoryEntry handles DELETE /api/history/:id
func (h *Handler) DeleteHistoryEntry(c *gin.Context) {
	if err := h.service.DeleteHistory(c.Request.Context(), auth.ViewerFromContext(c).UserID, c.Param("id")); err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearHistory handles DELETE /api/history
func (h *Handler) ClearHistory(c *gin.Context) {
	n, err := h.service.ClearHistory(c.Request.Context(), auth.ViewerFromContext(c).UserID)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// GetWatchedEpisodes handles GET /api/series/:id/watched
func (h *Handler) GetWatchedEpisodes(c *gin.Context) {
	ids, err := h.service.WatchedEpisodes(c.Request.Context(), auth.ViewerFromContext(c).UserID, c.Param("id"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"episode_ids": ids})
}

// MarkWatched handles POST /api/episodes/:id/watched
func (h *Handler) MarkWatched(c *gin.Context) {
	if err := h.service.MarkWatched(c.Request.Context(), auth.ViewerFromContext(c).UserID, c.Param("id")); err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UnmarkWatched handles DELETE /api/episodes/:id/watched
func (h *Handler) UnmarkWatched(c *gin.Context) {
	if err := h.service.UnmarkWatched(c.Request.Context(), auth.ViewerFromContext(c).UserID, c.Param("id")); err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleWebSocket handles GET /api/playback/ws
func (h *Handler) HandleWebSocket(c *gin.Context) {
	h.ws.Serve(c)
}
