package service

import (
	"strings"
	"time"

	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/genres"
	"github.com/mantonx/streamflow/internal/modules/tmdbmodule/client"
)

// Images resolves TMDB image paths
type Images interface {
	ImageURL(path, size string) string
}

func parseDate(value string) *time.Time {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil
	}
	return &t
}

func yearOf(value string) int {
	if t := parseDate(value); t != nil {
		return t.Year()
	}
	return 0
}

func genreNames(list []client.Genre) []string {
	names := make([]string, 0, len(list))
	for _, g := range list {
		names = append(names, g.Name)
	}
	return genres.NormalizeList(names...)
}

// FilmFromMovie maps a TMDB movie to an unpublished film without a video source
func FilmFromMovie(movie *client.MovieDetails, images Images) *database.Film {
	id := movie.ID
	film := &database.Film{
		Title:         movie.Title,
		OriginalTitle: movie.OriginalTitle,
		Description:   movie.Overview,
		Poster:        images.ImageURL(movie.PosterPath, client.PosterSize),
		Backdrop:      images.ImageURL(movie.BackdropPath, client.BackdropSize),
		TrailerURL:    movie.Videos.TrailerURL(),
		Genres:        genreNames(movie.Genres),
		ReleaseDate:   parseDate(movie.ReleaseDate),
		Year:          yearOf(movie.ReleaseDate),
		Duration:      movie.Runtime,
		Director:      strings.Join(movie.Credits.Directors(), ", "),
		Popularity:    movie.Popularity,
		VoteAverage:   movie.VoteAverage,
		VoteCount:     movie.VoteCount,
		TMDBID:        &id,
	}
	if film.Title == "" {
		film.Title = movie.OriginalTitle
	}
	return film
}

// SeriesFromTV maps a TMDB show to an unpublished series
func SeriesFromTV(tv *client.TVDetails, images Images) *database.Series {
	id := tv.ID
	creators := make([]string, 0, len(tv.CreatedBy))
	for _, c := range tv.CreatedBy {
		creators = append(creators, c.Name)
	}
	series := &database.Series{
		Title:         tv.Name,
		OriginalTitle: tv.OriginalName,
		Description:   tv.Overview,
		Poster:        images.ImageURL(tv.PosterPath, client.PosterSize),
		Backdrop:      images.ImageURL(tv.BackdropPath, client.BackdropSize),
		TrailerURL:    tv.Videos.TrailerURL(),
		Genres:        genreNames(tv.Genres),
		StartYear:     yearOf(tv.FirstAirDate),
		Creator:       strings.Join(creators, ", "),
		Popularity:    tv.Popularity,
		VoteAverage:   tv.VoteAverage,
		TMDBID:        &id,
	}
	if !tv.InProduction && (tv.Status == "Ended" || tv.Status == "Canceled") {
		series.EndYear = yearOf(tv.LastAirDate)
	}
	if series.Title == "" {
		series.Title = tv.OriginalName
	}
	return series
}

// SeasonFromSummary maps a season listed on a show
func SeasonFromSummary(seriesID string, s client.SeasonSummary, images Images) *database.Season {
	id := s.ID
	return &database.Season{
		SeriesID:     seriesID,
		SeasonNumber: s.SeasonNumber,
		Title:        s.Name,
		Description:  s.Overview,
		Poster:       images.ImageURL(s.PosterPath, client.PosterSize),
		AirDate:      parseDate(s.AirDate),
		TMDBID:       &id,
	}
}

// SeasonFromDetails maps a fetched season
func SeasonFromDetails(seriesID string, s *client.SeasonDetails, images Images) *database.Season {
	return SeasonFromSummary(seriesID, client.SeasonSummary{
		ID:           s.ID,
		Name:         s.Name,
		Overview:     s.Overview,
		PosterPath:   s.PosterPath,
		SeasonNumber: s.SeasonNumber,
		AirDate:      s.AirDate,
	}, images)
}

// EpisodeFromTMDB maps an episode. The video source is left for an admin to fill.
func EpisodeFromTMDB(season *database.Season, e client.EpisodeDetails, images Images) *database.Episode {
	id := e.ID
	return &database.Episode{
		SeriesID:      season.SeriesID,
		SeasonID:      season.ID,
		EpisodeNumber: e.EpisodeNumber,
		Title:         e.Name,
		Description:   e.Overview,
		Thumbnail:     images.ImageURL(e.StillPath, client.StillSize),
		AirDate:       parseDate(e.AirDate),
		Runtime:       e.Runtime,
		VoteAverage:   e.VoteAverage,
		VoteCount:     e.VoteCount,
		TMDBID:        &id,
	}
}
