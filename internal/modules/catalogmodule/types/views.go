package types

import (
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/genres"
)

// GenreLabel pairs a slug with its display label
type GenreLabel struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

func labels(slugs database.GenreList) []GenreLabel {
	out := make([]GenreLabel, 0, len(slugs))
	for _, slug := range slugs {
		out = append(out, GenreLabel{Slug: slug, Label: genres.Label(slug)})
	}
	return out
}

// FilmView is a film as shown to a viewer. Locked films are listed but cannot
// be played, so their video URL is left out.
type FilmView struct {
	database.Film
	GenreLabels []GenreLabel `json:"genre_labels"`
	Locked      bool         `json:"locked"`
}

// NewFilmView presents film to viewer, which may be nil
func NewFilmView(film database.Film, viewer *auth.Viewer) FilmView {
	locked := film.IsVIP && !viewer.CanSeeVIP()
	if locked {
		film.VideoURL = ""
	}
	return FilmView{
		Film:        film,
		GenreLabels: labels(film.Genres),
		Locked:      locked,
	}
}

// NewFilmViews presents a list of films
func NewFilmViews(films []database.Film, viewer *auth.Viewer) []FilmView {
	out := make([]FilmView, 0, len(films))
	for _, f := range films {
		out = append(out, NewFilmView(f, viewer))
	}
	return out
}

// EpisodeView is an episode as shown to a viewer. An episode is locked when it
// or its series is VIP; locked episodes carry no video URL.
type EpisodeView struct {
	database.Episode
	Locked bool `json:"locked"`
}

// NewEpisodeView presents episode to viewer. seriesVIP is the VIP flag of the parent series.
func NewEpisodeView(episode database.Episode, seriesVIP bool, viewer *auth.Viewer) EpisodeView {
	locked := (episode.IsVIP || seriesVIP) && !viewer.CanSeeVIP()
	if locked {
		episode.VideoURL = ""
	}
	return EpisodeView{
		Episode: episode,
		Locked:  locked,
	}
}

// SeasonView is a season with its visible episodes
type SeasonView struct {
	database.Season
	Episodes []EpisodeView `json:"episodes"`
}

// SeriesView is a series as shown to a viewer. Seasons are only filled on detail pages.
type SeriesView struct {
	database.Series
	GenreLabels []GenreLabel `json:"genre_labels"`
	Seasons     []SeasonView `json:"seasons,omitempty"`
	Locked      bool         `json:"locked"`
}

// NewSeriesView presents series and any loaded seasons to viewer
func NewSeriesView(series database.Series, viewer *auth.Viewer) SeriesView {
	view := SeriesView{
		GenreLabels: labels(series.Genres),
		Locked:      series.IsVIP && !viewer.CanSeeVIP(),
	}
	for _, season := range series.Seasons {
		view.Seasons = append(view.Seasons, NewSeasonView(season, series.IsVIP, viewer))
	}
	series.Seasons = nil
	view.Series = series
	return view
}

// NewSeriesViews presents a list of series
func NewSeriesViews(list []database.Series, viewer *auth.Viewer) []SeriesView {
	out := make([]SeriesView, 0, len(list))
	for _, s := range list {
		out = append(out, NewSeriesView(s, viewer))
	}
	return out
}

// NewSeasonView presents season and its loaded episodes
func NewSeasonView(season database.Season, seriesVIP bool, viewer *auth.Viewer) SeasonView {
	view := SeasonView{Episodes: make([]EpisodeView, 0, len(season.Episodes))}
	for _, ep := range season.Episodes {
		view.Episodes = append(view.Episodes, NewEpisodeView(ep, seriesVIP, viewer))
	}
	season.Episodes = nil
	view.Season = season
	return view
}

// EpisodeSummary is the short form used for next and previous links
type EpisodeSummary struct {
	ID            string `json:"id"`
	SeasonID      string `json:"season_id"`
	EpisodeNumber int    `json:"episode_number"`
	Title         string `json:"title"`
	Thumbnail     string `json:"thumbnail"`
}

// Summarize returns the short form of episode, or nil
func Summarize(episode *database.Episode) *EpisodeSummary {
	if episode == nil {
		return nil
	}
	return &EpisodeSummary{
		ID:            episode.ID,
		SeasonID:      episode.SeasonID,
		EpisodeNumber: episode.EpisodeNumber,
		Title:         episode.Title,
		Thumbnail:     episode.Thumbnail,
	}
}

// EpisodeDetail is the response of GET /api/episodes/:id
type EpisodeDetail struct {
	Episode  EpisodeView     `json:"episode"`
	Series   SeriesView      `json:"series"`
	Season   database.Season `json:"season"`
	Next     *EpisodeSummary `json:"next"`
	Previous *EpisodeSummary `json:"previous"`
}

// GenreCount is one entry of GET /api/genres
type GenreCount struct {
	Slug   string `json:"slug"`
	Label  string `json:"label"`
	Films  int    `json:"films"`
	Series int    `json:"series"`
	Custom bool   `json:"custom,omitempty"`
}

// Home is the response of GET /api/home
type Home struct {
	Featured     []FilmView   `json:"featured"`
	RecentFilms  []FilmView   `json:"recent_films"`
	RecentSeries []SeriesView `json:"recent_series"`
	VIPFilms     []FilmView   `json:"vip_films"`
	VIPSeries    []SeriesView `json:"vip_series"`
}

// SearchResults is the response of GET /api/search
type SearchResults struct {
	Query  string       `json:"query"`
	Films  []FilmView   `json:"films"`
	Series []SeriesView `json:"series"`
}

// VIPCatalog is the response of GET /api/vip and GET /api/exclusive
type VIPCatalog struct {
	Films  []FilmView   `json:"films"`
	Series []SeriesView `json:"series"`
}
