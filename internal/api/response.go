package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/types"
)

// RequestIDKey is the gin context key holding the request id
const RequestIDKey = "request_id"

// PageResponse is the envelope for paginated listings
type PageResponse struct {
	Items      interface{}      `json:"items"`
	Pagination types.Pagination `json:"pagination"`
}

// RespondWithPage writes a paginated listing
func RespondWithPage(c *gin.Context, items interface{}, pagination types.Pagination) {
	c.JSON(http.StatusOK, PageResponse{Items: items, Pagination: pagination})
}

// BindJSON decodes the request body, answering 400 on failure. It returns
// false when the handler should stop.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondWithValidationError(c, "invalid request body", err.Error())
		return false
	}
	return true
}

// Pagination reads page and limit query parameters
func Pagination(c *gin.Context, defaultLimit int) types.Pagination {
	return types.ParsePagination(c.Query("page"), c.Query("limit"), defaultLimit)
}
