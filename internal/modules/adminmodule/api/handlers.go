// Package api provides HTTP handlers for the back-office
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apiutil "github.com/mantonx/streamflow/internal/api"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/modules/adminmodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/adminmodule/service"
	catalogtypes "github.com/mantonx/streamflow/internal/modules/catalogmodule/types"
	"github.com/mantonx/streamflow/internal/types"
)

// multipartOverhead is the slack allowed on top of the image limit for
// multipart boundaries and headers
const multipartOverhead = 64 << 10

// Handler handles back-office requests
type Handler struct {
	content *service.ContentService
	users   *service.UserService
	stats   *service.StatsService
	media   *service.MediaService
}

// NewHandler creates a new admin handler
func NewHandler(content *service.ContentService, users *service.UserService, stats *service.StatsService, media *service.MediaService) *Handler {
	return &Handler{content: content, users: users, stats: stats, media: media}
}

func adminFilter(c *gin.Context) catalogtypes.CatalogFilter {
	filter := catalogtypes.ParseFilter(c.Query)
	filter.IncludeUnpublished = true
	return filter
}

func publishBody(c *gin.Context) (bool, bool) {
	var in service.PublishInput
	if !apiutil.BindJSON(c, &in) {
		return false, false
	}
	return *in.Published, true
}

// =============================================================================
// FILMS
// =============================================================================

// ListFilms handles GET /api/admin/films
func (h *Handler) ListFilms(c *gin.Context) {
	page, err := h.content.ListFilms(c.Request.Context(), adminFilter(c), apiutil.Pagination(c, types.DefaultPageSize))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	apiutil.RespondWithPage(c, page.Items, page.Pagination)
}

// GetFilm handles GET /api/admin/films/:id
func (h *Handler) GetFilm(c *gin.Context) {
	film, err := h.content.GetFilm(c.Request.Context(), c.Param("id"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, film)
}

// CreateFilm handles POST /api/admin/films
func (h *Handler) CreateFilm(c *gin.Context) {
	var in service.FilmInput
	if !apiutil.BindJSON(c, &in) {
		return
	}
	film, err := h.content.AddFilm(c.Request.Context(), auth.ActorFromContext(c), in)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, film)
}

// UpdateFilm handles PUT /api/admin/films/:id
func (h *Handler) UpdateFilm(c *gin.Context) {
	var in service.FilmInput
	if !apiutil.BindJSON(c, &in) {
		return
	}
	film, err := h.content.UpdateFilm(c.Request.Context(), auth.ActorFromContext(c), c.Param("id"), in)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, film)
}

// DeleteFilm handles DELETE /api/admin/films/:id
func (h *Handler) DeleteFilm(c *gin.Context) {
	if err := h.content.DeleteFilm(c.Request.Context(), auth.ActorFromContext(c), c.Param("id")); err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "film deleted"})
}

// PublishFilm handles PATCH /api/admin/films/:id/publish
func (h *Handler) PublishFilm(c *gin.Context) {
	published, ok := publishBody(c)
	if !ok {
		return
	}
	film, err := h.content.PublishFilm(c.Request.Context(), auth.ActorFromContext(c), c.Param("id"), published)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, film)
}

// =============================================================================
// SERIES, SEASONS AND EPISODES
// =============================================================================

// ListSeries handles GET /api/admin/series
func (h *Handler) ListSeries(c *gin.Context) {
	page, err := h.content.ListSeries(c.Request.Context(), adminFilter(c), apiutil.Pagination(c, types.DefaultPageSize))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	apiutil.RespondWithPage(c, page.Items, page.Pagination)
}

// GetSeries handles GET /api/admin/series/:id
func (h *Handler) GetSeries(c *gin.Context) {
	series, err := h.content.GetSeries(c.Request.Context(), c.Param("id"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// CreateSeries handles POST /api/admin/series
func (h *Handler) CreateSeries(c *gin.Context) {
	var in service.SeriesInput
	if !apiutil.BindJSON(c, &in) {
		return
	}
	series, err := h.content.AddSeries(c.Request.Context(), auth.ActorFromContext(c), in)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, series)
}

// UpdateSeries handles PUT /api/admin/series/:id
func (h *Handler) UpdateSeries(c *gin.Context) {
	var in service.SeriesInput
	if !apiutil.BindJSON(c, &in) {
		return
	}
	series, err := h.content.UpdateSeries(c.Request.Context(), auth.ActorFromContext(c), c.Param("id"), in)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// DeleteSeries handles DELETE /api/admin/series/:id
func (h *Handler) DeleteSeries(c *gin.Context) {
	if err := h.content.DeleteSeries(c.Request.Context(), auth.ActorFromContext(c), c.Param("id")); err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "series deleted"})
}

// PublishSeries handles PATCH /api/admin/series/:id/publish
func (h *Handler) PublishSeries(c *gin.Context) {
	published, ok := publishBody(c)
	if !ok {
		return
	}
	series, err := h.content.PublishSeries(c.Request.Context(), auth.ActorFromContext(c), c.Param("id"), published)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// ListSeasons handles GET /api/admin/series/:id/seasons
func (h *Handler) ListSeasons(c *gin.Context) {
	seasons, err := h.content.ListSeasons(c.Request.Context(), c.Param("id"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"seasons": seasons, "count": len(seasons)})
}

// CreateSeason handles POST /api/admin/series/:id/seasons
func (h *Handler) CreateSeason(c *gin.Context) {
	var in service.SeasonInput
	if !apiutil.BindJSON(c, &in) {
		return
	}
	season, err := h.content.AddSeason(c.Request.Context(), auth.ActorFromContext(c), c.Param("id"), in)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, season)
}

// UpdateSeason handles PUT /api/admin/seasons/:id
func (h *Handler) UpdateSeason(c *gin.Context) {
	var in service.SeasonInput
	if !apiutil.BindJSON(c, &in) {
		return
	}
	season, err := h.content.UpdateSeason(c.Request.Context(), auth.ActorFromContext(c), c.Param("id"), in)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, season)
}

// DeleteSeason handles DELETE /api/admin/seasons/:id
func (h *Handler) DeleteSeason(c *gin.Context) {
	if err := h.content.DeleteSeason(c.Request.Context(), auth.ActorFromContext(c), c.Param("id")); err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "season deleted"})
}

// ListEpisodes handles GET /api/admin/seasons/:id/episodes
func (h *Handler) ListEpisodes(c *gin.Context) {
	episodes, err := h.content.ListEpisodes(c.Request.Context(), c.Param("id"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"episodes": episodes, "count": len(episodes)})
}

// NextEpisodeNumber handles GET /api/admin/seasons/:id/episodes/next-number
func (h *Handler) NextEpisodeNumber(c *gin.Context) {
	next, err := h.content.NextEpisodeNumber(c.Request.Context(), c.Param("id"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"episode_number": next})
}

// CreateEpisode handles POST /api/admin/seasons/:id/episodes
func (h *Handler) CreateEpisode(c *gin.Context) {
	var in service.EpisodeInput
	if !apiutil.BindJSON(c, &in) {
		return
	}
	episode, err := h.content.AddEpisode(c.Request.Context(), auth.ActorFromContext(c), c.Param("id"), in)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, episode)
}

// UpdateEpisode handles PUT /api/admin/episodes/:id
func (h *Handler) UpdateEpisode(c *gin.Context) {
	var in service.EpisodeInput
	if !apiutil.BindJSON(c, &in) {
		return
	}
	episode, err := h.content.UpdateEpisode(c.Request.Context(), auth.ActorFromContext(c), c.Param("id"), in)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, episode)
}

// DeleteEpisode handles DELETE /api/admin/episodes/:id
func (h *Handler) DeleteEpisode(c *gin.Context) {
	if err := h.content.DeleteEpisode(c.Request.Context(), auth.ActorFromContext(c), c.Param("id")); err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "episode deleted"})
}

// PublishEpisode handles PATCH /api/admin/episodes/:id/publish
func (h *Handler) PublishEpisode(c *gin.Context) {
	published, ok := publishBody(c)
	if !ok {
		return
	}
	episode, err := h.content.PublishEpisode(c.Request.Context(), auth.ActorFromContext(c), c.Param("id"), published)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, episode)
}

// =============================================================================
// USERS
// =============================================================================

// ListUsers handles GET /api/admin/users
func (h *Handler) ListUsers(c *gin.Context) {
	filter := repository.UserFilter{
		Role:   c.Query("role"),
		Search: c.Query("search"),
	}
	if v, err := strconv.ParseBool(c.Query("vip")); err == nil {
		filter.VIP = &v
	}
	if v, err := strconv.ParseBool(c.Query("active")); err == nil {
		filter.Active = &v
	}

	page, err := h.users.List(c.Request.Context(), filter, apiutil.Pagination(c, types.DefaultPageSize))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	apiutil.RespondWithPage(c, page.Items, page.Pagination)
}

// GetUser handles GET /api/admin/users/:id
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser handles PUT /api/admin/users/:id
func (h *Handler) UpdateUser(c *gin.Context) {
	var in service.UserUpdate
	if !apiutil.BindJSON(c, &in) {
		return
	}
	user, err := h.users.Update(c.Request.Context(), auth.ViewerFromContext(c), auth.ActorFromContext(c), c.Param("id"), in)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /api/admin/users/:id
func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), auth.ViewerFromContext(c), auth.ActorFromContext(c), c.Param("id")); err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

// =============================================================================
// DASHBOARD AND UPLOADS
// =============================================================================

// GetStats handles GET /api/admin/stats
func (h *Handler) GetStats(c *gin.Context) {
	dashboard, err := h.stats.Dashboard(c.Request.Context())
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// UploadImage handles POST /api/admin/uploads/image (multipart field "file")
func (h *Handler) UploadImage(c *gin.Context) {
	limit := h.media.MaxSize()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || c.Request.ContentLength > limit+multipartOverhead {
			apiutil.RespondWithAppError(c, types.ErrorCodeValidation,
				fmt.Sprintf("file exceeds the %d byte limit", limit), http.StatusRequestEntityTooLarge)
			return
		}
		apiutil.RespondWithValidationError(c, "a multipart 'file' field is required", err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		apiutil.RespondWithValidationError(c, "failed to read upload", err.Error())
		return
	}

	image, err := h.media.UploadImage(c.Request.Context(), auth.ActorFromContext(c), header.Filename, data)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, image)
}
