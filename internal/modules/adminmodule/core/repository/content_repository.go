// Package repository provides back-office data access for the catalog,
// users and dashboard counters
package repository

import (
	"context"
	"fmt"

	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/modules/catalogmodule/core/filters"
	catalogtypes "github.com/mantonx/streamflow/internal/modules/catalogmodule/types"
	"github.com/mantonx/streamflow/internal/types"
	"gorm.io/gorm"
)

// ContentRepository reads and writes catalog entries regardless of publication state
type ContentRepository struct {
	db *gorm.DB
}

// NewContentRepository creates a new content repository
func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

func notFoundOr(err error, resource, id, action string) error {
	if database.IsNotFound(err) {
		return types.NewNotFoundError(resource, id)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// =============================================================================
// FILMS
// =============================================================================

// ListFilms returns one page of films, unpublished included
func (r *ContentRepository) ListFilms(ctx context.Context, filter catalogtypes.CatalogFilter, page types.Pagination) ([]database.Film, int64, error) {
	filter.IncludeUnpublished = true
	query := filters.ApplyFilter(r.db.WithContext(ctx).Model(&database.Film{}), filters.Films, filter)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count films: %w", err)
	}
	var films []database.Film
	if err := query.Offset(page.Offset()).Limit(page.Limit).Find(&films).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list films: %w", err)
	}
	return films, total, nil
}

// GetFilm retrieves a film by ID
func (r *ContentRepository) GetFilm(ctx context.Context, id string) (*database.Film, error) {
	var film database.Film
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&film).Error; err != nil {
		return nil, notFoundOr(err, "film", id, "get film")
	}
	return &film, nil
}

// FilmByVideoURL returns the film using url, or nil
func (r *ContentRepository) FilmByVideoURL(ctx context.Context, url string) (*database.Film, error) {
	var film database.Film
	err := r.db.WithContext(ctx).Where("video_url = ?", url).First(&film).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up video url: %w", err)
	}
	return &film, nil
}

// FilmByTMDBID returns the film imported from tmdbID, or nil
func (r *ContentRepository) FilmByTMDBID(ctx context.Context, tmdbID int) (*database.Film, error) {
	var film database.Film
	err := r.db.WithContext(ctx).Where("tmdb_id = ?", tmdbID).First(&film).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up tmdb film: %w", err)
	}
	return &film, nil
}

// CreateFilm inserts a film
func (r *ContentRepository) CreateFilm(ctx context.Context, film *database.Film) error {
	if err := r.db.WithContext(ctx).Create(film).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return types.NewConflictError("a film with this video url or tmdb id already exists")
		}
		return fmt.Errorf("failed to create film: %w", err)
	}
	return nil
}

// UpdateFilm writes column updates and returns the fresh row
func (r *ContentRepository) UpdateFilm(ctx context.Context, id string, updates map[string]interface{}) (*database.Film, error) {
	if len(updates) > 0 {
		err := r.db.WithContext(ctx).Model(&database.Film{}).Where("id = ?", id).Updates(updates).Error
		if err != nil {
			if database.IsUniqueViolation(err) {
				return nil, types.NewConflictError("a film with this video url already exists")
			}
			return nil, fmt.Errorf("failed to update film: %w", err)
		}
	}
	return r.GetFilm(ctx, id)
}

// DeleteFilm removes a film with the favorites, history and comments pointing at it
func (r *ContentRepository) DeleteFilm(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteEngagement(tx, database.ContentTypeFilm, []string{id}); err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&database.Film{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete film: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return types.NewNotFoundError("film", id)
		}
		return nil
	})
}

// =============================================================================
// SERIES
// =============================================================================

// ListSeries returns one page of series, unpublished included
func (r *ContentRepository) ListSeries(ctx context.Context, filter catalogtypes.CatalogFilter, page types.Pagination) ([]database.Series, int64, error) {
	filter.IncludeUnpublished = true
	query := filters.ApplyFilter(r.db.WithContext(ctx).Model(&database.Series{}), filters.Series, filter)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count series: %w", err)
	}
	var list []database.Series
	if err := query.Offset(page.Offset()).Limit(page.Limit).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list series: %w", err)
	}
	return list, total, nil
}

// GetSeries retrieves a series by ID
func (r *ContentRepository) GetSeries(ctx context.Context, id string) (*database.Series, error) {
	var series database.Series
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&series).Error; err != nil {
		return nil, notFoundOr(err, "series", id, "get series")
	}
	return &series, nil
}

// SeriesByTMDBID returns the series imported from tmdbID, or nil
func (r *ContentRepository) SeriesByTMDBID(ctx context.Context, tmdbID int) (*database.Series, error) {
	var series database.Series
	err := r.db.WithContext(ctx).Where("tmdb_id = ?", tmdbID).First(&series).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up tmdb series: %w", err)
	}
	return &series, nil
}

// CreateSeries inserts a series
func (r *ContentRepository) CreateSeries(ctx context.Context, series *database.Series) error {
	if err := r.db.WithContext(ctx).Omit("Seasons").Create(series).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return types.NewConflictError("a series with this tmdb id already exists")
		}
		return fmt.Errorf("failed to create series: %w", err)
	}
	return nil
}

// UpdateSeries writes column updates and returns the fresh row
func (r *ContentRepository) UpdateSeries(ctx context.Context, id string, updates map[string]interface{}) (*database.Series, error) {
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(&database.Series{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update series: %w", err)
		}
	}
	return r.GetSeries(ctx, id)
}

// DeleteSeries removes a series, its seasons and episodes, and everything
// users attached to them
func (r *ContentRepository) DeleteSeries(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var episodeIDs []string
		if err := tx.Model(&database.Episode{}).Where("series_id = ?", id).Pluck("id", &episodeIDs).Error; err != nil {
			return fmt.Errorf("failed to list episodes: %w", err)
		}
		if err := deleteEngagement(tx, database.ContentTypeEpisode, episodeIDs); err != nil {
			return err
		}
		if err := deleteEngagement(tx, database.ContentTypeSeries, []string{id}); err != nil {
			return err
		}
		if err := tx.Where("series_id = ?", id).Delete(&database.WatchedEpisode{}).Error; err != nil {
			return fmt.Errorf("failed to delete watched episodes: %w", err)
		}
		if err := tx.Where("series_id = ?", id).Delete(&database.Episode{}).Error; err != nil {
			return fmt.Errorf("failed to delete episodes: %w", err)
		}
		if err := tx.Where("series_id = ?", id).Delete(&database.Season{}).Error; err != nil {
			return fmt.Errorf("failed to delete seasons: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&database.Series{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete series: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return types.NewNotFoundError("series", id)
		}
		return nil
	})
}

// =============================================================================
// SEASONS
// =============================================================================

// ListSeasons returns a series' seasons by number
func (r *ContentRepository) ListSeasons(ctx context.Context, seriesID string) ([]database.Season, error) {
	var seasons []database.Season
	if err := r.db.WithContext(ctx).Where("series_id = ?", seriesID).Order("season_number ASC").Find(&seasons).Error; err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}
	return seasons, nil
}

// GetSeason retrieves a season by ID
func (r *ContentRepository) GetSeason(ctx context.Context, id string) (*database.Season, error) {
	var season database.Season
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&season).Error; err != nil {
		return nil, notFoundOr(err, "season", id, "get season")
	}
	return &season, nil
}

// SeasonByNumber returns the season with number in a series, or nil
func (r *ContentRepository) SeasonByNumber(ctx context.Context, seriesID string, number int) (*database.Season, error) {
	var season database.Season
	err := r.db.WithContext(ctx).Where("series_id = ? AND season_number = ?", seriesID, number).First(&season).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up season: %w", err)
	}
	return &season, nil
}

// CreateSeason inserts a season
func (r *ContentRepository) CreateSeason(ctx context.Context, season *database.Season) error {
	if err := r.db.WithContext(ctx).Omit("Episodes").Create(season).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return types.NewConflictError(fmt.Sprintf("season %d already exists", season.SeasonNumber))
		}
		return fmt.Errorf("failed to create season: %w", err)
	}
	return nil
}

// UpdateSeason writes column updates and returns the fresh row
func (r *ContentRepository) UpdateSeason(ctx context.Context, id string, updates map[string]interface{}) (*database.Season, error) {
	if len(updates) > 0 {
		err := r.db.WithContext(ctx).Model(&database.Season{}).Where("id = ?", id).Updates(updates).Error
		if err != nil {
			if database.IsUniqueViolation(err) {
				return nil, types.NewConflictError("another season already has this number")
			}
			return nil, fmt.Errorf("failed to update season: %w", err)
		}
	}
	return r.GetSeason(ctx, id)
}

// DeleteSeason removes a season and its episodes
func (r *ContentRepository) DeleteSeason(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var episodeIDs []string
		if err := tx.Model(&database.Episode{}).Where("season_id = ?", id).Pluck("id", &episodeIDs).Error; err != nil {
			return fmt.Errorf("failed to list episodes: %w", err)
		}
		if err := deleteEngagement(tx, database.ContentTypeEpisode, episodeIDs); err != nil {
			return err
		}
		if len(episodeIDs) > 0 {
			if err := tx.Where("episode_id IN ?", episodeIDs).Delete(&database.WatchedEpisode{}).Error; err != nil {
				return fmt.Errorf("failed to delete watched episodes: %w", err)
			}
		}
		if err := tx.Where("season_id = ?", id).Delete(&database.Episode{}).Error; err != nil {
			return fmt.Errorf("failed to delete episodes: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&database.Season{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete season: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return types.NewNotFoundError("season", id)
		}
		return nil
	})
}

// =============================================================================
// EPISODES
// =============================================================================

// ListEpisodes returns a season's episodes by number
func (r *ContentRepository) ListEpisodes(ctx context.Context, seasonID string) ([]database.Episode, error) {
	var episodes []database.Episode
	if err := r.db.WithContext(ctx).Where("season_id = ?", seasonID).Order("episode_number ASC").Find(&episodes).Error; err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	return episodes, nil
}

// GetEpisode retrieves an episode by ID
func (r *ContentRepository) GetEpisode(ctx context.Context, id string) (*database.Episode, error) {
	var episode database.Episode
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&episode).Error; err != nil {
		return nil, notFoundOr(err, "episode", id, "get episode")
	}
	return &episode, nil
}

// MaxEpisodeNumber returns the highest episode number of a season, 0 when empty
func (r *ContentRepository) MaxEpisodeNumber(ctx context.Context, seasonID string) (int, error) {
	var last *int
	err := r.db.WithContext(ctx).Model(&database.Episode{}).
		Where("season_id = ?", seasonID).
		Select("MAX(episode_number)").
		Scan(&last).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read last episode number: %w", err)
	}
	if last == nil {
		return 0, nil
	}
	return *last, nil
}

// EpisodeNumberTaken reports whether a season already has episode number
func (r *ContentRepository) EpisodeNumberTaken(ctx context.Context, seasonID string, number int, excludeID string) (bool, error) {
	query := r.db.WithContext(ctx).Model(&database.Episode{}).Where("season_id = ? AND episode_number = ?", seasonID, number)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check episode number: %w", err)
	}
	return count > 0, nil
}

// CreateEpisode inserts an episode and refreshes the season's episode count
func (r *ContentRepository) CreateEpisode(ctx context.Context, episode *database.Episode) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(episode).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return types.NewConflictError(fmt.Sprintf("episode %d already exists in this season", episode.EpisodeNumber))
			}
			return fmt.Errorf("failed to create episode: %w", err)
		}
		return refreshEpisodeCount(tx, episode.SeasonID)
	})
}

// UpdateEpisode writes column updates and returns the fresh row
func (r *ContentRepository) UpdateEpisode(ctx context.Context, id string, updates map[string]interface{}) (*database.Episode, error) {
	if len(updates) > 0 {
		err := r.db.WithContext(ctx).Model(&database.Episode{}).Where("id = ?", id).Updates(updates).Error
		if err != nil {
			if database.IsUniqueViolation(err) {
				return nil, types.NewConflictError("another episode already has this number")
			}
			return nil, fmt.Errorf("failed to update episode: %w", err)
		}
	}
	return r.GetEpisode(ctx, id)
}

// DeleteEpisode removes an episode and everything users attached to it
func (r *ContentRepository) DeleteEpisode(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var episode database.Episode
		if err := tx.Where("id = ?", id).First(&episode).Error; err != nil {
			return notFoundOr(err, "episode", id, "get episode")
		}
		if err := deleteEngagement(tx, database.ContentTypeEpisode, []string{id}); err != nil {
			return err
		}
		if err := tx.Where("episode_id = ?", id).Delete(&database.WatchedEpisode{}).Error; err != nil {
			return fmt.Errorf("failed to delete watched marks: %w", err)
		}
		if err := tx.Delete(&episode).Error; err != nil {
			return fmt.Errorf("failed to delete episode: %w", err)
		}
		return refreshEpisodeCount(tx, episode.SeasonID)
	})
}

func refreshEpisodeCount(tx *gorm.DB, seasonID string) error {
	var count int64
	if err := tx.Model(&database.Episode{}).Where("season_id = ?", seasonID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count episodes: %w", err)
	}
	if err := tx.Model(&database.Season{}).Where("id = ?", seasonID).Update("episode_count", count).Error; err != nil {
		return fmt.Errorf("failed to update episode count: %w", err)
	}
	return nil
}

// deleteEngagement removes favorites, history entries and comments that
// point at content being deleted
func deleteEngagement(tx *gorm.DB, contentType database.ContentType, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("content_type = ? AND content_id IN ?", contentType, ids).Delete(&database.Favorite{}).Error; err != nil {
		return fmt.Errorf("failed to delete favorites: %w", err)
	}
	if err := tx.Where("content_type = ? AND content_id IN ?", contentType, ids).Delete(&database.WatchHistory{}).Error; err != nil {
		return fmt.Errorf("failed to delete watch history: %w", err)
	}

	commentIDs := tx.Model(&database.Comment{}).Select("id").Where("content_type = ? AND content_id IN ?", contentType, ids)
	if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&database.CommentReport{}).Error; err != nil {
		return fmt.Errorf("failed to delete comment reports: %w", err)
	}
	if err := tx.Where("content_type = ? AND content_id IN ?", contentType, ids).Delete(&database.Comment{}).Error; err != nil {
		return fmt.Errorf("failed to delete comments: %w", err)
	}
	return nil
}
