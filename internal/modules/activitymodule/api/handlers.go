// Package api provides HTTP handlers for the admin activity log
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apiutil "github.com/mantonx/streamflow/internal/api"
	"github.com/mantonx/streamflow/internal/modules/activitymodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/activitymodule/service"
	"github.com/mantonx/streamflow/internal/types"
)

// Handler handles HTTP requests for the activity log
type Handler struct {
	service *service.ActivityService
}

// NewHandler creates a new activity handler
func NewHandler(svc *service.ActivityService) *Handler {
	return &Handler{service: svc}
}

// ListLogs handles GET /api/admin/activity-logs
func (h *Handler) ListLogs(c *gin.Context) {
	filter := repository.Filter{
		AdminID:    c.Query("admin_id"),
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
	}

	var err error
	if filter.From, err = parseTime(c.Query("from"), false); err != nil {
		apiutil.RespondWithValidationError(c, "invalid 'from' date", err.Error())
		return
	}
	if filter.To, err = parseTime(c.Query("to"), true); err != nil {
		apiutil.RespondWithValidationError(c, "invalid 'to' date", err.Error())
		return
	}

	entries, page, err := h.service.List(c.Request.Context(), filter, apiutil.Pagination(c, types.DefaultPageSize))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	apiutil.RespondWithPage(c, entries, page)
}

// RecentLogs handles GET /api/admin/activity-logs/recent
func (h *Handler) RecentLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": entries, "count": len(entries)})
}

// parseTime accepts RFC 3339 timestamps or plain dates. A plain date used
// as an upper bound covers the whole day.
func parseTime(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
