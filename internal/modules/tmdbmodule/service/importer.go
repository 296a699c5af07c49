// Package service turns TMDB records into catalog entries
package service

import (
	"context"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/modules/tmdbmodule/client"
	"github.com/mantonx/streamflow/internal/services"
	"github.com/mantonx/streamflow/internal/types"
)

// Source is the part of the TMDB client the importer needs
type Source interface {
	Images
	GetMovie(ctx context.Context, id int, appendToResponse string) (*client.MovieDetails, error)
	GetTV(ctx context.Context, id int) (*client.TVDetails, error)
	GetSeason(ctx context.Context, seriesID, season int) (*client.SeasonDetails, error)
	GetEpisode(ctx context.Context, seriesID, season, episode int) (*client.EpisodeDetails, error)
}

// SeriesLookup finds series regardless of publication state
type SeriesLookup interface {
	SeriesByIDs(ctx context.Context, ids []string) (map[string]*database.Series, error)
}

// MovieImport is the body of POST /api/admin/tmdb/import/movie/:tmdbId
type MovieImport struct {
	VideoURL string `json:"video_url"`
	IsVIP    bool   `json:"is_vip"`
}

// TVImport is the body of POST /api/admin/tmdb/import/tv/:tmdbId
type TVImport struct {
	WithSeasons bool `json:"with_seasons"`
	IsVIP       bool `json:"is_vip"`
}

// SeasonImport is the body of POST /api/admin/tmdb/import/series/:seriesId/season/:number
type SeasonImport struct {
	WithEpisodes bool `json:"with_episodes"`
}

// EpisodeImport is the body of the single-episode import
type EpisodeImport struct {
	VideoURL string `json:"video_url"`
}

// SeriesResult is an imported series and the seasons created with it
type SeriesResult struct {
	Series  *database.Series  `json:"series"`
	Seasons []database.Season `json:"seasons"`
}

// SeasonResult is an imported season, its new episodes and the episode
// numbers that already existed
type SeasonResult struct {
	Season   *database.Season   `json:"season"`
	Episodes []database.Episode `json:"episodes"`
	Skipped  []int              `json:"skipped"`
}

// Importer creates unpublished catalog entries from TMDB
type Importer struct {
	source  Source
	content services.ContentService
	series  SeriesLookup
	log     hclog.Logger
}

// NewImporter creates an importer
func NewImporter(source Source, content services.ContentService, series SeriesLookup, log hclog.Logger) *Importer {
	return &Importer{source: source, content: content, series: series, log: log}
}

// ImportMovie creates a film from a TMDB movie. A video source is required
// since films cannot be played without one.
func (i *Importer) ImportMovie(ctx context.Context, actor types.Actor, tmdbID int, in MovieImport) (*database.Film, error) {
	videoURL := strings.TrimSpace(in.VideoURL)
	if videoURL == "" {
		return nil, types.NewValidationError("video_url is required to import a film")
	}

	movie, err := i.source.GetMovie(ctx, tmdbID, client.DefaultMovieAppend)
	if err != nil {
		return nil, err
	}
	film := FilmFromMovie(movie, i.source)
	film.VideoURL = videoURL
	film.IsVIP = in.IsVIP

	if err := i.content.CreateFilm(ctx, actor, film); err != nil {
		return nil, err
	}
	i.log.Info("imported film", "tmdb_id", tmdbID, "film_id", film.ID, "title", film.Title)
	return film, nil
}

// ImportTV creates a series and, when asked, its numbered seasons. Specials
// (season 0) are not imported.
func (i *Importer) ImportTV(ctx context.Context, actor types.Actor, tmdbID int, in TVImport) (*SeriesResult, error) {
	tv, err := i.source.GetTV(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	series := SeriesFromTV(tv, i.source)
	series.IsVIP = in.IsVIP
	if err := i.content.CreateSeries(ctx, actor, series); err != nil {
		return nil, err
	}

	result := &SeriesResult{Series: series, Seasons: []database.Season{}}
	if in.WithSeasons {
		for _, summary := range tv.Seasons {
			if summary.SeasonNumber < 1 {
				continue
			}
			season := SeasonFromSummary(series.ID, summary, i.source)
			if err := i.content.CreateSeason(ctx, actor, season); err != nil {
				if types.IsCode(err, types.ErrorCodeConflict) {
					continue
				}
				return nil, err
			}
			result.Seasons = append(result.Seasons, *season)
		}
	}
	i.log.Info("imported series", "tmdb_id", tmdbID, "series_id", series.ID, "seasons", len(result.Seasons))
	return result, nil
}

// ImportSeason adds season number of an imported series and, when asked,
// its episodes. Episode numbers already present are skipped.
func (i *Importer) ImportSeason(ctx context.Context, actor types.Actor, seriesID string, number int, in SeasonImport) (*SeasonResult, error) {
	tmdbID, err := i.seriesTMDBID(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	details, err := i.source.GetSeason(ctx, tmdbID, number)
	if err != nil {
		return nil, err
	}

	season := SeasonFromDetails(seriesID, details, i.source)
	season.SeasonNumber = number
	if err := i.content.CreateSeason(ctx, actor, season); err != nil {
		return nil, err
	}

	result := &SeasonResult{Season: season, Episodes: []database.Episode{}, Skipped: []int{}}
	if in.WithEpisodes {
		for _, e := range details.Episodes {
			if e.EpisodeNumber < 1 {
				continue
			}
			episode := EpisodeFromTMDB(season, e, i.source)
			if err := i.content.CreateEpisode(ctx, actor, episode); err != nil {
				if types.IsCode(err, types.ErrorCodeConflict) {
					result.Skipped = append(result.Skipped, e.EpisodeNumber)
					continue
				}
				return nil, err
			}
			result.Episodes = append(result.Episodes, *episode)
		}
	}
	return result, nil
}

// ImportEpisode adds one episode to an existing season of an imported series
func (i *Importer) ImportEpisode(ctx context.Context, actor types.Actor, seriesID string, seasonNumber, episodeNumber int, in EpisodeImport) (*database.Episode, error) {
	if episodeNumber < 1 {
		return nil, types.NewValidationError("episode number must be at least 1")
	}
	tmdbID, err := i.seriesTMDBID(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	season, err := i.content.FindSeason(ctx, seriesID, seasonNumber)
	if err != nil {
		return nil, err
	}
	details, err := i.source.GetEpisode(ctx, tmdbID, seasonNumber, episodeNumber)
	if err != nil {
		return nil, err
	}

	episode := EpisodeFromTMDB(season, *details, i.source)
	episode.EpisodeNumber = episodeNumber
	episode.VideoURL = strings.TrimSpace(in.VideoURL)
	if err := i.content.CreateEpisode(ctx, actor, episode); err != nil {
		return nil, err
	}
	return episode, nil
}

func (i *Importer) seriesTMDBID(ctx context.Context, seriesID string) (int, error) {
	found, err := i.series.SeriesByIDs(ctx, []string{seriesID})
	if err != nil {
		return 0, err
	}
	series, ok := found[seriesID]
	if !ok {
		return 0, types.NewNotFoundError("series", seriesID)
	}
	if series.TMDBID == nil {
		return 0, types.NewValidationError("series " + series.Title + " has no TMDB id")
	}
	return *series.TMDBID, nil
}
