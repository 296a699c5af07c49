// Package api provides HTTP handlers for the catalog module
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apiutil "github.com/mantonx/streamflow/internal/api"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/modules/catalogmodule/service"
	catalogtypes "github.com/mantonx/streamflow/internal/modules/catalogmodule/types"
)

// Handler handles HTTP requests for the catalog module
type Handler struct {
	service *service.CatalogService
}

// NewHandler creates a new catalog handler
func NewHandler(svc *service.CatalogService) *Handler {
	return &Handler{service: svc}
}

// GetHome handles GET /api/home
func (h *Handler) GetHome(c *gin.Context) {
	home, err := h.service.Home(c.Request.Context(), auth.ViewerFromContext(c))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, home)
}

// ListFilms handles GET /api/films
func (h *Handler) ListFilms(c *gin.Context) {
	filter := catalogtypes.ParseFilter(c.Query)
	page, err := h.service.ListFilms(c.Request.Context(), auth.ViewerFromContext(c), filter, apiutil.Pagination(c, 0))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	apiutil.RespondWithPage(c, page.Items, page.Pagination)
}

// GetFilm handles GET /api/films/:id
func (h *Handler) GetFilm(c *gin.Context) {
	film, err := h.service.FilmDetail(c.Request.Context(), auth.ViewerFromContext(c), c.Param("id"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"film": film})
}

// GetSimilarFilms handles GET /api/films/:id/similar
func (h *Handler) GetSimilarFilms(c *gin.Context) {
	films, err := h.service.SimilarFilms(c.Request.Context(), auth.ViewerFromContext(c), c.Param("id"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"films": films})
}

// ListSeries handles GET /api/series
func (h *Handler) ListSeries(c *gin.Context) {
	filter := catalogtypes.ParseFilter(c.Query)
	page, err := h.service.ListSeries(c.Request.Context(), auth.ViewerFromContext(c), filter, apiutil.Pagination(c, 0))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	apiutil.RespondWithPage(c, page.Items, page.Pagination)
}

// GetSeries handles GET /api/series/:id
func (h *Handler) GetSeries(c *gin.Context) {
	series, err := h.service.SeriesDetail(c.Request.Context(), auth.ViewerFromContext(c), c.Param("id"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": series})
}

// GetSimilarSeries handles GET /api/series/:id/similar
func (h *Handler) GetSimilarSeries(c *gin.Context) {
	list, err := h.service.SimilarSeries(c.Request.Context(), auth.ViewerFromContext(c), c.Param("id"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": list})
}

// GetSeason handles GET /api/series/:id/seasons/:number
func (h *Handler) GetSeason(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 0 {
		apiutil.RespondWithValidationError(c, "invalid season number")
		return
	}

	season, err := h.service.SeasonDetail(c.Request.Context(), auth.ViewerFromContext(c), c.Param("id"), number)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"season": season})
}

// GetEpisode handles GET /api/episodes/:id
func (h *Handler) GetEpisode(c *gin.Context) {
	detail, err := h.service.EpisodeDetail(c.Request.Context(), auth.ViewerFromContext(c), c.Param("id"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GetNextEpisode handles GET /api/episodes/:id/next
func (h *Handler) GetNextEpisode(c *gin.Context) {
	next, err := h.service.NextEpisodeFor(c.Request.Context(), auth.ViewerFromContext(c), c.Param("id"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"next": next})
}

// ListGenres handles GET /api/genres
func (h *Handler) ListGenres(c *gin.Context) {
	list, err := h.service.Genres(c.Request.Context())
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": list})
}

// Search handles GET /api/search?q=
func (h *Handler) Search(c *gin.Context) {
	results, err := h.service.Search(c.Request.Context(), auth.ViewerFromContext(c), c.Query("q"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// GetVIPCatalog handles GET /api/vip and GET /api/exclusive
func (h *Handler) GetVIPCatalog(c *gin.Context) {
	catalog, err := h.service.VIPCatalog(c.Request.Context(), auth.ViewerFromContext(c))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalog)
}
