// Package service implements the back-office: catalog management, user
// management, dashboard statistics and artwork uploads
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/events"
	"github.com/mantonx/streamflow/internal/genres"
	"github.com/mantonx/streamflow/internal/modules/adminmodule/core/repository"
	catalogtypes "github.com/mantonx/streamflow/internal/modules/catalogmodule/types"
	"github.com/mantonx/streamflow/internal/types"
)

// ContentService manages films, series, seasons and episodes. It implements
// services.ContentService.
type ContentService struct {
	repo *repository.ContentRepository
	log  hclog.Logger
}

// NewContentService creates a content service
func NewContentService(repo *repository.ContentRepository, log hclog.Logger) *ContentService {
	return &ContentService{repo: repo, log: log}
}

// changed logs the admin action and tells caches the catalog moved
func (s *ContentService) changed(ctx context.Context, actor types.Actor, action, entity, id, name string, details map[string]interface{}) {
	events.RecordAdminAction(ctx, actor, action, entity, id, name, details)
	events.Publish(ctx, events.NewEventWithData(events.EventContentChanged, "admin", "Catalog changed", name,
		map[string]interface{}{"action": action, "entity_type": entity, "entity_id": id}))
	s.log.Debug("catalog changed", "action", action, "entity_type", entity, "id", id, "admin", actor.UserID)
}

func episodeName(e *database.Episode, seasonNumber int) string {
	name := fmt.Sprintf("S%02dE%02d", seasonNumber, e.EpisodeNumber)
	if e.Title != "" {
		name += " " + e.Title
	}
	return name
}

// =============================================================================
// FILMS
// =============================================================================

// ListFilms returns one page of films including unpublished ones
func (s *ContentService) ListFilms(ctx context.Context, filter catalogtypes.CatalogFilter, page types.Pagination) (*types.Page[database.Film], error) {
	films, total, err := s.repo.ListFilms(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &types.Page[database.Film]{Items: films, Pagination: page.WithTotal(total)}, nil
}

// GetFilm returns a film regardless of publication state
func (s *ContentService) GetFilm(ctx context.Context, id string) (*database.Film, error) {
	return s.repo.GetFilm(ctx, id)
}

// AddFilm validates a request body and creates the film
func (s *ContentService) AddFilm(ctx context.Context, actor types.Actor, in FilmInput) (*database.Film, error) {
	c := in.changes(true)
	if err := c.err(); err != nil {
		return nil, err
	}
	film := in.film(c)
	if err := s.CreateFilm(ctx, actor, film); err != nil {
		return nil, err
	}
	return film, nil
}

// CreateFilm stores a film after checking its video url and TMDB id are free
func (s *ContentService) CreateFilm(ctx context.Context, actor types.Actor, film *database.Film) error {
	film.Title = strings.TrimSpace(film.Title)
	film.VideoURL = strings.TrimSpace(film.VideoURL)
	if film.Title == "" || film.VideoURL == "" {
		return types.NewValidationError("title and video_url are required")
	}
	film.Genres = genres.NormalizeList(film.Genres...)

	existing, err := s.repo.FilmByVideoURL(ctx, film.VideoURL)
	if err != nil {
		return err
	}
	if existing != nil {
		return types.NewConflictError(fmt.Sprintf("video url already used by %q", existing.Title))
	}
	if film.TMDBID != nil {
		existing, err := s.repo.FilmByTMDBID(ctx, *film.TMDBID)
		if err != nil {
			return err
		}
		if existing != nil {
			return types.NewConflictError(fmt.Sprintf("TMDB movie %d was already imported as %q", *film.TMDBID, existing.Title))
		}
	}

	film.CreatedBy = actor.UserID
	if err := s.repo.CreateFilm(ctx, film); err != nil {
		return err
	}
	s.changed(ctx, actor, events.ActionCreate, events.EntityMovie, film.ID, film.Title, nil)
	return nil
}

// UpdateFilm applies the fields present in the body
func (s *ContentService) UpdateFilm(ctx context.Context, actor types.Actor, id string, in FilmInput) (*database.Film, error) {
	if _, err := s.repo.GetFilm(ctx, id); err != nil {
		return nil, err
	}
	c := in.changes(false)
	if err := c.err(); err != nil {
		return nil, err
	}
	if url, ok := c.cols["video_url"].(string); ok {
		existing, err := s.repo.FilmByVideoURL(ctx, url)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, types.NewConflictError(fmt.Sprintf("video url already used by %q", existing.Title))
		}
	}

	film, err := s.repo.UpdateFilm(ctx, id, c.cols)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor, events.ActionUpdate, events.EntityMovie, film.ID, film.Title, fieldsOf(c))
	return film, nil
}

// DeleteFilm removes a film
func (s *ContentService) DeleteFilm(ctx context.Context, actor types.Actor, id string) error {
	film, err := s.repo.GetFilm(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteFilm(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, actor, events.ActionDelete, events.EntityMovie, film.ID, film.Title, nil)
	return nil
}

// PublishFilm shows or hides a film
func (s *ContentService) PublishFilm(ctx context.Context, actor types.Actor, id string, published bool) (*database.Film, error) {
	if _, err := s.repo.GetFilm(ctx, id); err != nil {
		return nil, err
	}
	film, err := s.repo.UpdateFilm(ctx, id, map[string]interface{}{"published": published})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor, events.ActionUpdate, events.EntityMovie, film.ID, film.Title, map[string]interface{}{"published": published})
	return film, nil
}

// =============================================================================
// SERIES
// =============================================================================

// ListSeries returns one page of series including unpublished ones
func (s *ContentService) ListSeries(ctx context.Context, filter catalogtypes.CatalogFilter, page types.Pagination) (*types.Page[database.Series], error) {
	list, total, err := s.repo.ListSeries(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &types.Page[database.Series]{Items: list, Pagination: page.WithTotal(total)}, nil
}

// GetSeries returns a series with its seasons
func (s *ContentService) GetSeries(ctx context.Context, id string) (*database.Series, error) {
	series, err := s.repo.GetSeries(ctx, id)
	if err != nil {
		return nil, err
	}
	if series.Seasons, err = s.repo.ListSeasons(ctx, id); err != nil {
		return nil, err
	}
	return series, nil
}

// AddSeries validates a request body and creates the series
func (s *ContentService) AddSeries(ctx context.Context, actor types.Actor, in SeriesInput) (*database.Series, error) {
	c := in.changes(true)
	if err := c.err(); err != nil {
		return nil, err
	}
	series := in.series(c)
	if err := s.CreateSeries(ctx, actor, series); err != nil {
		return nil, err
	}
	return series, nil
}

// CreateSeries stores a series after checking its TMDB id is free
func (s *ContentService) CreateSeries(ctx context.Context, actor types.Actor, series *database.Series) error {
	series.Title = strings.TrimSpace(series.Title)
	if series.Title == "" {
		return types.NewValidationError("title is required")
	}
	series.Genres = genres.NormalizeList(series.Genres...)

	if series.TMDBID != nil {
		existing, err := s.repo.SeriesByTMDBID(ctx, *series.TMDBID)
		if err != nil {
			return err
		}
		if existing != nil {
			return types.NewConflictError(fmt.Sprintf("TMDB show %d was already imported as %q", *series.TMDBID, existing.Title))
		}
	}

	series.CreatedBy = actor.UserID
	if err := s.repo.CreateSeries(ctx, series); err != nil {
		return err
	}
	s.changed(ctx, actor, events.ActionCreate, events.EntitySeries, series.ID, series.Title, nil)
	return nil
}

// UpdateSeries applies the fields present in the body
func (s *ContentService) UpdateSeries(ctx context.Context, actor types.Actor, id string, in SeriesInput) (*database.Series, error) {
	if _, err := s.repo.GetSeries(ctx, id); err != nil {
		return nil, err
	}
	c := in.changes(false)
	if err := c.err(); err != nil {
		return nil, err
	}
	series, err := s.repo.UpdateSeries(ctx, id, c.cols)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor, events.ActionUpdate, events.EntitySeries, series.ID, series.Title, fieldsOf(c))
	return series, nil
}

// DeleteSeries removes a series with its seasons and episodes
func (s *ContentService) DeleteSeries(ctx context.Context, actor types.Actor, id string) error {
	series, err := s.repo.GetSeries(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteSeries(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, actor, events.ActionDelete, events.EntitySeries, series.ID, series.Title, nil)
	return nil
}

// PublishSeries shows or hides a series
func (s *ContentService) PublishSeries(ctx context.Context, actor types.Actor, id string, published bool) (*database.Series, error) {
	if _, err := s.repo.GetSeries(ctx, id); err != nil {
		return nil, err
	}
	series, err := s.repo.UpdateSeries(ctx, id, map[string]interface{}{"published": published})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor, events.ActionUpdate, events.EntitySeries, series.ID, series.Title, map[string]interface{}{"published": published})
	return series, nil
}

// =============================================================================
// SEASONS
// =============================================================================

// ListSeasons returns a series' seasons
func (s *ContentService) ListSeasons(ctx context.Context, seriesID string) ([]database.Season, error) {
	if _, err := s.repo.GetSeries(ctx, seriesID); err != nil {
		return nil, err
	}
	return s.repo.ListSeasons(ctx, seriesID)
}

// FindSeason returns a series' season by number, or NOT_FOUND
func (s *ContentService) FindSeason(ctx context.Context, seriesID string, number int) (*database.Season, error) {
	season, err := s.repo.SeasonByNumber(ctx, seriesID, number)
	if err != nil {
		return nil, err
	}
	if season == nil {
		return nil, types.NewNotFoundError("season", fmt.Sprintf("%s/%d", seriesID, number))
	}
	return season, nil
}

// AddSeason validates a request body and creates the season
func (s *ContentService) AddSeason(ctx context.Context, actor types.Actor, seriesID string, in SeasonInput) (*database.Season, error) {
	c := in.changes(true)
	if err := c.err(); err != nil {
		return nil, err
	}
	season := in.season(c)
	season.SeriesID = seriesID
	if err := s.CreateSeason(ctx, actor, season); err != nil {
		return nil, err
	}
	return season, nil
}

// CreateSeason stores a season after checking its number is free in the series
func (s *ContentService) CreateSeason(ctx context.Context, actor types.Actor, season *database.Season) error {
	if season.SeasonNumber < 1 {
		return types.NewValidationError("season_number must be at least 1")
	}
	series, err := s.repo.GetSeries(ctx, season.SeriesID)
	if err != nil {
		return err
	}
	existing, err := s.repo.SeasonByNumber(ctx, season.SeriesID, season.SeasonNumber)
	if err != nil {
		return err
	}
	if existing != nil {
		return types.NewConflictError(fmt.Sprintf("season %d already exists for %q", season.SeasonNumber, series.Title))
	}
	if season.Title == "" {
		season.Title = fmt.Sprintf("Saison %d", season.SeasonNumber)
	}

	if err := s.repo.CreateSeason(ctx, season); err != nil {
		return err
	}
	s.changed(ctx, actor, events.ActionCreate, events.EntitySeason, season.ID,
		fmt.Sprintf("%s - %s", series.Title, season.Title), map[string]interface{}{"series_id": series.ID})
	return nil
}

// UpdateSeason applies the fields present in the body
func (s *ContentService) UpdateSeason(ctx context.Context, actor types.Actor, id string, in SeasonInput) (*database.Season, error) {
	current, err := s.repo.GetSeason(ctx, id)
	if err != nil {
		return nil, err
	}
	c := in.changes(false)
	if err := c.err(); err != nil {
		return nil, err
	}
	if in.SeasonNumber != nil && *in.SeasonNumber != current.SeasonNumber {
		existing, err := s.repo.SeasonByNumber(ctx, current.SeriesID, *in.SeasonNumber)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, types.NewConflictError(fmt.Sprintf("season %d already exists", *in.SeasonNumber))
		}
	}

	season, err := s.repo.UpdateSeason(ctx, id, c.cols)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor, events.ActionUpdate, events.EntitySeason, season.ID, season.Title, fieldsOf(c))
	return season, nil
}

// DeleteSeason removes a season and its episodes
func (s *ContentService) DeleteSeason(ctx context.Context, actor types.Actor, id string) error {
	season, err := s.repo.GetSeason(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteSeason(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, actor, events.ActionDelete, events.EntitySeason, season.ID, season.Title,
		map[string]interface{}{"series_id": season.SeriesID})
	return nil
}

// =============================================================================
// EPISODES
// =============================================================================

// ListEpisodes returns a season's episodes ordered by number
func (s *ContentService) ListEpisodes(ctx context.Context, seasonID string) ([]database.Episode, error) {
	if _, err := s.repo.GetSeason(ctx, seasonID); err != nil {
		return nil, err
	}
	return s.repo.ListEpisodes(ctx, seasonID)
}

// NextEpisodeNumber returns the number a new episode of the season gets by default
func (s *ContentService) NextEpisodeNumber(ctx context.Context, seasonID string) (int, error) {
	if _, err := s.repo.GetSeason(ctx, seasonID); err != nil {
		return 0, err
	}
	last, err := s.repo.MaxEpisodeNumber(ctx, seasonID)
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

// AddEpisode validates a request body and creates the episode
func (s *ContentService) AddEpisode(ctx context.Context, actor types.Actor, seasonID string, in EpisodeInput) (*database.Episode, error) {
	c := in.changes()
	if err := c.err(); err != nil {
		return nil, err
	}
	episode := in.episode(c)
	episode.SeasonID = seasonID
	if err := s.CreateEpisode(ctx, actor, episode); err != nil {
		return nil, err
	}
	return episode, nil
}

// CreateEpisode stores an episode. A zero EpisodeNumber takes the season's
// last number plus one; an explicit number already in use is a conflict.
// The series is always the season's.
func (s *ContentService) CreateEpisode(ctx context.Context, actor types.Actor, episode *database.Episode) error {
	season, err := s.repo.GetSeason(ctx, episode.SeasonID)
	if err != nil {
		return err
	}
	episode.SeriesID = season.SeriesID

	if episode.EpisodeNumber == 0 {
		last, err := s.repo.MaxEpisodeNumber(ctx, season.ID)
		if err != nil {
			return err
		}
		episode.EpisodeNumber = last + 1
	} else {
		if episode.EpisodeNumber < 0 {
			return types.NewValidationError("episode_number must be at least 1")
		}
		taken, err := s.repo.EpisodeNumberTaken(ctx, season.ID, episode.EpisodeNumber, "")
		if err != nil {
			return err
		}
		if taken {
			return types.NewConflictError(fmt.Sprintf("episode %d already exists in season %d", episode.EpisodeNumber, season.SeasonNumber))
		}
	}

	if err := s.repo.CreateEpisode(ctx, episode); err != nil {
		return err
	}
	s.changed(ctx, actor, events.ActionCreate, events.EntityEpisode, episode.ID, episodeName(episode, season.SeasonNumber),
		map[string]interface{}{"series_id": episode.SeriesID, "season_id": season.ID})
	return nil
}

// UpdateEpisode applies the fields present in the body
func (s *ContentService) UpdateEpisode(ctx context.Context, actor types.Actor, id string, in EpisodeInput) (*database.Episode, error) {
	current, err := s.repo.GetEpisode(ctx, id)
	if err != nil {
		return nil, err
	}
	c := in.changes()
	if err := c.err(); err != nil {
		return nil, err
	}
	if in.EpisodeNumber != nil && *in.EpisodeNumber != current.EpisodeNumber {
		taken, err := s.repo.EpisodeNumberTaken(ctx, current.SeasonID, *in.EpisodeNumber, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, types.NewConflictError(fmt.Sprintf("episode %d already exists in this season", *in.EpisodeNumber))
		}
	}

	episode, err := s.repo.UpdateEpisode(ctx, id, c.cols)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor, events.ActionUpdate, events.EntityEpisode, episode.ID, episode.Title, fieldsOf(c))
	return episode, nil
}

// DeleteEpisode removes an episode
func (s *ContentService) DeleteEpisode(ctx context.Context, actor types.Actor, id string) error {
	episode, err := s.repo.GetEpisode(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteEpisode(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, actor, events.ActionDelete, events.EntityEpisode, episode.ID, episode.Title,
		map[string]interface{}{"season_id": episode.SeasonID})
	return nil
}

// PublishEpisode shows or hides an episode
func (s *ContentService) PublishEpisode(ctx context.Context, actor types.Actor, id string, published bool) (*database.Episode, error) {
	if _, err := s.repo.GetEpisode(ctx, id); err != nil {
		return nil, err
	}
	episode, err := s.repo.UpdateEpisode(ctx, id, map[string]interface{}{"published": published})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor, events.ActionUpdate, events.EntityEpisode, episode.ID, episode.Title, map[string]interface{}{"published": published})
	return episode, nil
}

// fieldsOf lists the columns an update touched, for the activity log
func fieldsOf(c *changes) map[string]interface{} {
	fields := make([]string, 0, len(c.cols))
	for col := range c.cols {
		fields = append(fields, col)
	}
	sort.Strings(fields)
	return map[string]interface{}{"fields": fields}
}
