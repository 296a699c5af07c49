// Package api exposes TMDB lookups and imports to admins
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	apiutil "github.com/mantonx/streamflow/internal/api"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/modules/tmdbmodule/client"
	"github.com/mantonx/streamflow/internal/modules/tmdbmodule/service"
)

const maxCast = 20

// Handler serves the TMDB proxy and import routes
type Handler struct {
	client   *client.Client
	importer *service.Importer
}

// NewHandler creates a new TMDB handler
func NewHandler(c *client.Client, importer *service.Importer) *Handler {
	return &Handler{client: c, importer: importer}
}

// SearchItem is a search hit with resolved image URLs
type SearchItem struct {
	TMDBID        int     `json:"tmdb_id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	Date          string  `json:"date"`
	Year          int     `json:"year,omitempty"`
	PosterURL     string  `json:"poster_url"`
	BackdropURL   string  `json:"backdrop_url"`
	VoteAverage   float64 `json:"vote_average"`
	Popularity    float64 `json:"popularity"`
}

// Person is a cast member with a resolved profile picture
type Person struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Character  string `json:"character,omitempty"`
	ProfileURL string `json:"profile_url"`
}

func (h *Handler) searchItems(res *client.SearchResponse) []SearchItem {
	items := make([]SearchItem, 0, len(res.Results))
	for _, r := range res.Results {
		item := SearchItem{
			TMDBID:        r.ID,
			Title:         r.Title,
			OriginalTitle: r.OriginalTitle,
			Overview:      r.Overview,
			Date:          r.ReleaseDate,
			PosterURL:     h.client.ImageURL(r.PosterPath, client.PosterSize),
			BackdropURL:   h.client.ImageURL(r.BackdropPath, client.BackdropSize),
			VoteAverage:   r.VoteAverage,
			Popularity:    r.Popularity,
		}
		if item.Title == "" {
			item.Title, item.OriginalTitle, item.Date = r.Name, r.OriginalName, r.FirstAirDate
		}
		if len(item.Date) >= 4 {
			item.Year, _ = strconv.Atoi(item.Date[:4])
		}
		items = append(items, item)
	}
	return items
}

func (h *Handler) credits(credits *client.Credits) gin.H {
	cast := make([]Person, 0, maxCast)
	for _, m := range credits.Cast {
		if len(cast) == maxCast {
			break
		}
		cast = append(cast, Person{ID: m.ID, Name: m.Name, Character: m.Character,
			ProfileURL: h.client.ImageURL(m.ProfilePath, client.ProfileSize)})
	}
	return gin.H{"cast": cast, "directors": credits.Directors()}
}

func intParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n < 0 {
		apiutil.RespondWithValidationError(c, "invalid "+name, c.Param(name))
		return 0, false
	}
	return n, true
}

func (h *Handler) search(c *gin.Context, tv bool) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		apiutil.RespondWithValidationError(c, "query is required")
		return
	}
	page, _ := strconv.Atoi(c.Query("page"))

	var res *client.SearchResponse
	var err error
	if tv {
		res, err = h.client.SearchTV(c.Request.Context(), query, page)
	} else {
		res, err = h.client.SearchMovies(c.Request.Context(), query, page)
	}
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results":       h.searchItems(res),
		"page":          res.Page,
		"total_pages":   res.TotalPages,
		"total_results": res.TotalResults,
	})
}

// SearchMovies handles GET /api/admin/tmdb/search/movie
func (h *Handler) SearchMovies(c *gin.Context) { h.search(c, false) }

// SearchTV handles GET /api/admin/tmdb/search/tv
func (h *Handler) SearchTV(c *gin.Context) { h.search(c, true) }

// GetMovie handles GET /api/admin/tmdb/movie/:id. The preview is the film
// an import would create.
func (h *Handler) GetMovie(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	movie, err := h.client.GetMovie(c.Request.Context(), id, c.Query("append_to_response"))
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movie": movie, "preview": service.FilmFromMovie(movie, h.client)})
}

// GetMovieCredits handles GET /api/admin/tmdb/movie/:id/credits
func (h *Handler) GetMovieCredits(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	credits, err := h.client.GetMovieCredits(c.Request.Context(), id)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.credits(credits))
}

// GetTV handles GET /api/admin/tmdb/tv/:id
func (h *Handler) GetTV(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	tv, err := h.client.GetTV(c.Request.Context(), id)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"show": tv, "preview": service.SeriesFromTV(tv, h.client)})
}

// GetTVCredits handles GET /api/admin/tmdb/tv/:id/credits
func (h *Handler) GetTVCredits(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	credits, err := h.client.GetTVCredits(c.Request.Context(), id)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.credits(credits))
}

// GetSeason handles GET /api/admin/tmdb/tv/:id/season/:season
func (h *Handler) GetSeason(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	number, ok := intParam(c, "season")
	if !ok {
		return
	}
	season, err := h.client.GetSeason(c.Request.Context(), id, number)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	stills := make(map[int]string, len(season.Episodes))
	for _, e := range season.Episodes {
		stills[e.EpisodeNumber] = h.client.ImageURL(e.StillPath, client.StillSize)
	}
	c.JSON(http.StatusOK, gin.H{
		"season":     season,
		"poster_url": h.client.ImageURL(season.PosterPath, client.PosterSize),
		"stills":     stills,
	})
}

// GetEpisode handles GET /api/admin/tmdb/tv/:id/season/:season/episode/:episode
func (h *Handler) GetEpisode(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	number, ok := intParam(c, "season")
	if !ok {
		return
	}
	episodeNumber, ok := intParam(c, "episode")
	if !ok {
		return
	}
	episode, err := h.client.GetEpisode(c.Request.Context(), id, number, episodeNumber)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"episode":     episode,
		"still_url":   h.client.ImageURL(episode.StillPath, client.StillSize),
		"trailer_url": episode.Videos.TrailerURL(),
	})
}

// bindOptional decodes an optional JSON body
func bindOptional(c *gin.Context, dst interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return apiutil.BindJSON(c, dst)
}

// ImportMovie handles POST /api/admin/tmdb/import/movie/:tmdbId
func (h *Handler) ImportMovie(c *gin.Context) {
	id, ok := intParam(c, "tmdbId")
	if !ok {
		return
	}
	var in service.MovieImport
	if !bindOptional(c, &in) {
		return
	}
	film, err := h.importer.ImportMovie(c.Request.Context(), auth.ActorFromContext(c), id, in)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, film)
}

// ImportTV handles POST /api/admin/tmdb/import/tv/:tmdbId
func (h *Handler) ImportTV(c *gin.Context) {
	id, ok := intParam(c, "tmdbId")
	if !ok {
		return
	}
	var in service.TVImport
	if !bindOptional(c, &in) {
		return
	}
	result, err := h.importer.ImportTV(c.Request.Context(), auth.ActorFromContext(c), id, in)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ImportSeason handles POST /api/admin/tmdb/import/series/:seriesId/season/:number
func (h *Handler) ImportSeason(c *gin.Context) {
	number, ok := intParam(c, "number")
	if !ok {
		return
	}
	var in service.SeasonImport
	if !bindOptional(c, &in) {
		return
	}
	result, err := h.importer.ImportSeason(c.Request.Context(), auth.ActorFromContext(c), c.Param("seriesId"), number, in)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ImportEpisode handles POST /api/admin/tmdb/import/series/:seriesId/season/:number/episode/:episode
func (h *Handler) ImportEpisode(c *gin.Context) {
	number, ok := intParam(c, "number")
	if !ok {
		return
	}
	episodeNumber, ok := intParam(c, "episode")
	if !ok {
		return
	}
	var in service.EpisodeImport
	if !bindOptional(c, &in) {
		return
	}
	episode, err := h.importer.ImportEpisode(c.Request.Context(), auth.ActorFromContext(c), c.Param("seriesId"), number, episodeNumber, in)
	if err != nil {
		apiutil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, episode)
}

