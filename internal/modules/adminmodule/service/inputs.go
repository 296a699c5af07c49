package service

import (
	"strings"
	"time"

	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/genres"
	"github.com/mantonx/streamflow/internal/types"
)

// Inputs use pointers so an update only touches the fields that were sent.

// FilmInput is the body of POST and PUT /api/admin/films
type FilmInput struct {
	Title         *string  `json:"title"`
	OriginalTitle *string  `json:"original_title"`
	Description   *string  `json:"description"`
	Poster        *string  `json:"poster"`
	Backdrop      *string  `json:"backdrop"`
	VideoURL      *string  `json:"video_url"`
	TrailerURL    *string  `json:"trailer_url"`
	Genres        []string `json:"genres"`
	Year          *int     `json:"year"`
	ReleaseDate   *string  `json:"release_date"`
	Duration      *int     `json:"duration"`
	Director      *string  `json:"director"`
	Popularity    *float64 `json:"popularity"`
	VoteAverage   *float64 `json:"vote_average"`
	VoteCount     *int     `json:"vote_count"`
	IsVIP         *bool    `json:"is_vip"`
	Published     *bool    `json:"published"`
}

// SeriesInput is the body of POST and PUT /api/admin/series
type SeriesInput struct {
	Title         *string  `json:"title"`
	OriginalTitle *string  `json:"original_title"`
	Description   *string  `json:"description"`
	Poster        *string  `json:"poster"`
	Backdrop      *string  `json:"backdrop"`
	TrailerURL    *string  `json:"trailer_url"`
	Genres        []string `json:"genres"`
	StartYear     *int     `json:"start_year"`
	EndYear       *int     `json:"end_year"`
	Creator       *string  `json:"creator"`
	Popularity    *float64 `json:"popularity"`
	VoteAverage   *float64 `json:"vote_average"`
	IsVIP         *bool    `json:"is_vip"`
	Published     *bool    `json:"published"`
}

// SeasonInput is the body of POST /api/admin/series/:id/seasons and PUT /api/admin/seasons/:id
type SeasonInput struct {
	SeasonNumber *int    `json:"season_number"`
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Poster       *string `json:"poster"`
	AirDate      *string `json:"air_date"`
}

// EpisodeInput is the body of POST /api/admin/seasons/:id/episodes and PUT /api/admin/episodes/:id.
// A missing episode number on create takes the next free one.
type EpisodeInput struct {
	EpisodeNumber *int     `json:"episode_number"`
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	Thumbnail     *string  `json:"thumbnail"`
	AirDate       *string  `json:"air_date"`
	Runtime       *int     `json:"runtime"`
	VoteAverage   *float64 `json:"vote_average"`
	VoteCount     *int     `json:"vote_count"`
	IsVIP         *bool    `json:"is_vip"`
	Published     *bool    `json:"published"`
	VideoURL      *string  `json:"video_url"`
}

// PublishInput is the body of the publish endpoints
type PublishInput struct {
	Published *bool `json:"published" binding:"required"`
}

// changes collects column updates and validation failures
type changes struct {
	cols   map[string]interface{}
	errors []string
}

func newChanges() *changes {
	return &changes{cols: make(map[string]interface{})}
}

func (c *changes) fail(msg string) {
	c.errors = append(c.errors, msg)
}

func (c *changes) err() error {
	if len(c.errors) == 0 {
		return nil
	}
	return types.NewValidationError("invalid content", c.errors...)
}

func set[T any](c *changes, column string, v *T) {
	if v != nil {
		c.cols[column] = *v
	}
}

func (c *changes) text(column string, v *string) {
	if v != nil {
		c.cols[column] = strings.TrimSpace(*v)
	}
}

func (c *changes) required(column, field string, v *string, creating bool) {
	switch {
	case v == nil && creating:
		c.fail(field + " is required")
	case v != nil && strings.TrimSpace(*v) == "":
		c.fail(field + " must not be empty")
	default:
		c.text(column, v)
	}
}

func (c *changes) genres(v []string) {
	if v != nil {
		c.cols["genres"] = database.GenreList(genres.NormalizeList(v...))
	}
}

func (c *changes) year(column string, v *int) {
	if v == nil {
		return
	}
	if *v != 0 && (*v < 1888 || *v > time.Now().Year()+5) {
		c.fail(column + " is out of range")
		return
	}
	c.cols[column] = *v
}

func (c *changes) rating(v *float64) {
	if v == nil {
		return
	}
	if *v < 0 || *v > 10 {
		c.fail("vote_average must be between 0 and 10")
		return
	}
	c.cols["vote_average"] = *v
}

func (c *changes) nonNegative(column string, v *int) {
	if v == nil {
		return
	}
	if *v < 0 {
		c.fail(column + " must not be negative")
		return
	}
	c.cols[column] = *v
}

// date accepts YYYY-MM-DD or RFC 3339. An empty string clears the column.
func (c *changes) date(column string, v *string) *time.Time {
	if v == nil {
		return nil
	}
	raw := strings.TrimSpace(*v)
	if raw == "" {
		c.cols[column] = nil
		return nil
	}
	t, err := parseDate(raw)
	if err != nil {
		c.fail(column + " must be a date (YYYY-MM-DD)")
		return nil
	}
	c.cols[column] = t
	return &t
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func (in FilmInput) changes(creating bool) *changes {
	c := newChanges()
	c.required("title", "title", in.Title, creating)
	c.required("video_url", "video_url", in.VideoURL, creating)
	c.text("original_title", in.OriginalTitle)
	c.text("description", in.Description)
	c.text("poster", in.Poster)
	c.text("backdrop", in.Backdrop)
	c.text("trailer_url", in.TrailerURL)
	c.text("director", in.Director)
	c.genres(in.Genres)
	c.year("year", in.Year)
	if release := c.date("release_date", in.ReleaseDate); release != nil && in.Year == nil {
		c.cols["year"] = release.Year()
	}
	c.nonNegative("duration", in.Duration)
	c.nonNegative("vote_count", in.VoteCount)
	c.rating(in.VoteAverage)
	set(c, "popularity", in.Popularity)
	set(c, "is_vip", in.IsVIP)
	set(c, "published", in.Published)
	return c
}

func (in SeriesInput) changes(creating bool) *changes {
	c := newChanges()
	c.required("title", "title", in.Title, creating)
	c.text("original_title", in.OriginalTitle)
	c.text("description", in.Description)
	c.text("poster", in.Poster)
	c.text("backdrop", in.Backdrop)
	c.text("trailer_url", in.TrailerURL)
	c.text("creator", in.Creator)
	c.genres(in.Genres)
	c.year("start_year", in.StartYear)
	c.year("end_year", in.EndYear)
	c.rating(in.VoteAverage)
	set(c, "popularity", in.Popularity)
	set(c, "is_vip", in.IsVIP)
	set(c, "published", in.Published)

	if in.StartYear != nil && in.EndYear != nil && *in.EndYear != 0 && *in.EndYear < *in.StartYear {
		c.fail("end_year must not be before start_year")
	}
	return c
}

func (in SeasonInput) changes(creating bool) *changes {
	c := newChanges()
	switch {
	case in.SeasonNumber == nil && creating:
		c.fail("season_number is required")
	case in.SeasonNumber != nil && *in.SeasonNumber < 1:
		c.fail("season_number must be at least 1")
	default:
		set(c, "season_number", in.SeasonNumber)
	}
	c.text("title", in.Title)
	c.text("description", in.Description)
	c.text("poster", in.Poster)
	c.date("air_date", in.AirDate)
	return c
}

func (in EpisodeInput) changes() *changes {
	c := newChanges()
	if in.EpisodeNumber != nil && *in.EpisodeNumber < 1 {
		c.fail("episode_number must be at least 1")
	} else {
		set(c, "episode_number", in.EpisodeNumber)
	}
	c.text("title", in.Title)
	c.text("description", in.Description)
	c.text("thumbnail", in.Thumbnail)
	c.text("video_url", in.VideoURL)
	c.date("air_date", in.AirDate)
	c.nonNegative("runtime", in.Runtime)
	c.nonNegative("vote_count", in.VoteCount)
	c.rating(in.VoteAverage)
	set(c, "is_vip", in.IsVIP)
	set(c, "published", in.Published)
	return c
}

func val[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

func trimmed(v *string) string {
	return strings.TrimSpace(val(v))
}

// timeCol reads a parsed date back from the collected changes
func (c *changes) timeCol(column string) *time.Time {
	if t, ok := c.cols[column].(time.Time); ok {
		return &t
	}
	return nil
}

func (c *changes) genreCol() database.GenreList {
	if g, ok := c.cols["genres"].(database.GenreList); ok {
		return g
	}
	return database.GenreList{}
}

func (in FilmInput) film(c *changes) *database.Film {
	film := &database.Film{
		Title:         trimmed(in.Title),
		OriginalTitle: trimmed(in.OriginalTitle),
		Description:   trimmed(in.Description),
		Poster:        trimmed(in.Poster),
		Backdrop:      trimmed(in.Backdrop),
		VideoURL:      trimmed(in.VideoURL),
		TrailerURL:    trimmed(in.TrailerURL),
		Genres:        c.genreCol(),
		ReleaseDate:   c.timeCol("release_date"),
		Duration:      val(in.Duration),
		Director:      trimmed(in.Director),
		Popularity:    val(in.Popularity),
		VoteAverage:   val(in.VoteAverage),
		VoteCount:     val(in.VoteCount),
		IsVIP:         val(in.IsVIP),
		Published:     val(in.Published),
	}
	if year, ok := c.cols["year"].(int); ok {
		film.Year = year
	}
	return film
}

func (in SeriesInput) series(c *changes) *database.Series {
	return &database.Series{
		Title:         trimmed(in.Title),
		OriginalTitle: trimmed(in.OriginalTitle),
		Description:   trimmed(in.Description),
		Poster:        trimmed(in.Poster),
		Backdrop:      trimmed(in.Backdrop),
		TrailerURL:    trimmed(in.TrailerURL),
		Genres:        c.genreCol(),
		StartYear:     val(in.StartYear),
		EndYear:       val(in.EndYear),
		Creator:       trimmed(in.Creator),
		Popularity:    val(in.Popularity),
		VoteAverage:   val(in.VoteAverage),
		IsVIP:         val(in.IsVIP),
		Published:     val(in.Published),
	}
}

func (in SeasonInput) season(c *changes) *database.Season {
	return &database.Season{
		SeasonNumber: val(in.SeasonNumber),
		Title:        trimmed(in.Title),
		Description:  trimmed(in.Description),
		Poster:       trimmed(in.Poster),
		AirDate:      c.timeCol("air_date"),
	}
}

func (in EpisodeInput) episode(c *changes) *database.Episode {
	return &database.Episode{
		EpisodeNumber: val(in.EpisodeNumber),
		Title:         trimmed(in.Title),
		Description:   trimmed(in.Description),
		Thumbnail:     trimmed(in.Thumbnail),
		AirDate:       c.timeCol("air_date"),
		Runtime:       val(in.Runtime),
		VoteAverage:   val(in.VoteAverage),
		VoteCount:     val(in.VoteCount),
		IsVIP:         val(in.IsVIP),
		Published:     val(in.Published),
		VideoURL:      trimmed(in.VideoURL),
	}
}
