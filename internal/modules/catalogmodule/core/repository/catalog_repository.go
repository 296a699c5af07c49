// Package repository provides data access for films, series, seasons and episodes
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

// CatalogRepository handles catalog reads
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListFilms returns one page of films matching filter
func (r *CatalogRepository) ListFilms(ctx context.Context, filter catalogtypes.CatalogFilter, page types.Pagination) ([]database.Film, int64, error) {
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

// ListSeries returns one page of series matching filter
func (r *CatalogRepository) ListSeries(ctx context.Context, filter catalogtypes.CatalogFilter, page types.Pagination) ([]database.Series, int64, error) {
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

// GetFilm retrieves a film by ID
func (r *CatalogRepository) GetFilm(ctx context.Context, id string) (*database.Film, error) {
	var film database.Film
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&film).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, types.NewNotFoundError("film", id)
		}
		return nil, fmt.Errorf("failed to get film: %w", err)
	}
	return &film, nil
}

// GetSeries retrieves a series by ID without its seasons
func (r *CatalogRepository) GetSeries(ctx context.Context, id string) (*database.Series, error) {
	var series database.Series
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&series).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, types.NewNotFoundError("series", id)
		}
		return nil, fmt.Errorf("failed to get series: %w", err)
	}
	return &series, nil
}

// GetSeriesWithSeasons retrieves a series with seasons and episodes loaded.
// Unpublished episodes are left out unless includeUnpublished is set.
func (r *CatalogRepository) GetSeriesWithSeasons(ctx context.Context, id string, includeUnpublished bool) (*database.Series, error) {
	var series database.Series
	err := r.db.WithContext(ctx).
		Preload("Seasons", func(db *gorm.DB) *gorm.DB { return db.Order("season_number ASC") }).
		Preload("Seasons.Episodes", func(db *gorm.DB) *gorm.DB {
			if !includeUnpublished {
				db = db.Where("published = ?", true)
			}
			return db.Order("episode_number ASC")
		}).
		Where("id = ?", id).
		First(&series).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, types.NewNotFoundError("series", id)
		}
		return nil, fmt.Errorf("failed to get series: %w", err)
	}
	return &series, nil
}

// GetSeasonByNumber retrieves one season of a series with its episodes
func (r *CatalogRepository) GetSeasonByNumber(ctx context.Context, seriesID string, number int, includeUnpublished bool) (*database.Season, error) {
	var season database.Season
	err := r.db.WithContext(ctx).
		Preload("Episodes", func(db *gorm.DB) *gorm.DB {
			if !includeUnpublished {
				db = db.Where("published = ?", true)
			}
			return db.Order("episode_number ASC")
		}).
		Where("series_id = ? AND season_number = ?", seriesID, number).
		First(&season).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, types.NewNotFoundError("season", fmt.Sprintf("%s/%d", seriesID, number))
		}
		return nil, fmt.Errorf("failed to get season: %w", err)
	}
	return &season, nil
}

// GetSeason retrieves a season by ID without episodes
func (r *CatalogRepository) GetSeason(ctx context.Context, id string) (*database.Season, error) {
	var season database.Season
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&season).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, types.NewNotFoundError("season", id)
		}
		return nil, fmt.Errorf("failed to get season: %w", err)
	}
	return &season, nil
}

// GetEpisode retrieves an episode by ID
func (r *CatalogRepository) GetEpisode(ctx context.Context, id string) (*database.Episode, error) {
	var episode database.Episode
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&episode).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, types.NewNotFoundError("episode", id)
		}
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}
	return &episode, nil
}

// SimilarFilms returns published films sharing genre, excluding excludeID
func (r *CatalogRepository) SimilarFilms(ctx context.Context, excludeID, genre string, limit int) ([]database.Film, error) {
	query := r.db.WithContext(ctx).Where("published = ? AND id <> ?", true, excludeID)
	if genre != "" {
		query = query.Where("genres LIKE ?", database.GenrePattern(genre))
	}

	var films []database.Film
	if err := query.Order("popularity DESC").Limit(limit).Find(&films).Error; err != nil {
		return nil, fmt.Errorf("failed to list similar films: %w", err)
	}
	return films, nil
}

// SimilarSeries returns other published series, most popular first
func (r *CatalogRepository) SimilarSeries(ctx context.Context, excludeID string, limit int) ([]database.Series, error) {
	var list []database.Series
	err := r.db.WithContext(ctx).
		Where("published = ? AND id <> ?", true, excludeID).
		Order("popularity DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list similar series: %w", err)
	}
	return list, nil
}

// PublishedGenres returns the genre lists of every published film and series
func (r *CatalogRepository) PublishedGenres(ctx context.Context) (films, series []database.GenreList, err error) {
	if err := r.db.WithContext(ctx).Model(&database.Film{}).Where("published = ?", true).Pluck("genres", &films).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load film genres: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&database.Series{}).Where("published = ?", true).Pluck("genres", &series).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load series genres: %w", err)
	}
	return films, series, nil
}

// FilmsByIDs loads the given films keyed by id. Missing ids are absent from the map.
func (r *CatalogRepository) FilmsByIDs(ctx context.Context, ids []string) (map[string]*database.Film, error) {
	out := make(map[string]*database.Film, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var films []database.Film
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&films).Error; err != nil {
		return nil, fmt.Errorf("failed to load films: %w", err)
	}
	for i := range films {
		out[films[i].ID] = &films[i]
	}
	return out, nil
}

// SeriesByIDs loads the given series keyed by id
func (r *CatalogRepository) SeriesByIDs(ctx context.Context, ids []string) (map[string]*database.Series, error) {
	out := make(map[string]*database.Series, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []database.Series
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to load series: %w", err)
	}
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out, nil
}

// EpisodesByIDs loads the given episodes keyed by id
func (r *CatalogRepository) EpisodesByIDs(ctx context.Context, ids []string) (map[string]*database.Episode, error) {
	out := make(map[string]*database.Episode, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var episodes []database.Episode
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&episodes).Error; err != nil {
		return nil, fmt.Errorf("failed to load episodes: %w", err)
	}
	for i := range episodes {
		out[episodes[i].ID] = &episodes[i]
	}
	return out, nil
}
