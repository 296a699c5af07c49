// Package service manages users' favorites
package service

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/modules/favoritesmodule/core"
	"github.com/mantonx/streamflow/internal/modules/favoritesmodule/core/repository"
	"github.com/mantonx/streamflow/internal/services"
	"github.com/mantonx/streamflow/internal/types"
)

// AddRequest is the body of POST /api/favorites
type AddRequest struct {
	ContentType string `json:"content_type" binding:"required"`
	ContentID   string `json:"content_id" binding:"required"`
}

// FavoriteService lists, adds and removes favorites
type FavoriteService struct {
	repo    *repository.FavoriteRepository
	catalog services.CatalogService
	log     hclog.Logger
}

// NewFavoriteService creates a favorite service
func NewFavoriteService(repo *repository.FavoriteRepository, catalog services.CatalogService, log hclog.Logger) *FavoriteService {
	return &FavoriteService{repo: repo, catalog: catalog, log: log}
}

// parseType accepts an empty filter when allowEmpty is set
func parseType(s string, allowEmpty bool) (database.ContentType, error) {
	if s == "" && allowEmpty {
		return "", nil
	}
	ct, ok := database.ParseContentType(s)
	if !ok {
		return "", types.NewValidationError("content type must be film, series or episode")
	}
	return ct, nil
}

// List returns the viewer's favorites resolved to their content, newest first
func (s *FavoriteService) List(ctx context.Context, viewer *auth.Viewer, contentType string) ([]core.Item, error) {
	ct, err := parseType(contentType, true)
	if err != nil {
		return nil, err
	}

	favorites, err := s.repo.List(ctx, viewer.UserID, ct)
	if err != nil {
		return nil, err
	}

	filmIDs, seriesIDs, episodeIDs := core.IDs(favorites)

	var content core.Content
	if content.Films, err = s.catalog.FilmsByIDs(ctx, filmIDs); err != nil {
		return nil, err
	}
	if content.Episodes, err = s.catalog.EpisodesByIDs(ctx, episodeIDs); err != nil {
		return nil, err
	}
	// Episodes need their series for the VIP lock
	for _, ep := range content.Episodes {
		seriesIDs = append(seriesIDs, ep.SeriesID)
	}
	if content.Series, err = s.catalog.SeriesByIDs(ctx, seriesIDs); err != nil {
		return nil, err
	}

	items := core.Merge(favorites, content, viewer)
	if skipped := len(favorites) - len(items); skipped > 0 {
		s.log.Debug("skipped unavailable favorites", "user_id", viewer.UserID, "count", skipped)
	}
	return items, nil
}

// Add favorites a piece of content. Unknown or hidden content is not found.
func (s *FavoriteService) Add(ctx context.Context, viewer *auth.Viewer, req AddRequest) (*database.Favorite, error) {
	ct, err := parseType(req.ContentType, false)
	if err != nil {
		return nil, err
	}
	if err := s.checkExists(ctx, viewer, ct, req.ContentID); err != nil {
		return nil, err
	}

	fav := &database.Favorite{UserID: viewer.UserID, ContentType: ct, ContentID: req.ContentID}
	if err := s.repo.Create(ctx, fav); err != nil {
		return nil, err
	}
	return fav, nil
}

func (s *FavoriteService) checkExists(ctx context.Context, viewer *auth.Viewer, ct database.ContentType, id string) error {
	var published bool
	switch ct {
	case database.ContentTypeFilm:
		film, err := s.catalog.GetFilm(ctx, id)
		if err != nil {
			return err
		}
		published = film.Published
	case database.ContentTypeSeries:
		series, err := s.catalog.GetSeries(ctx, id)
		if err != nil {
			return err
		}
		published = series.Published
	case database.ContentTypeEpisode:
		episode, err := s.catalog.GetEpisode(ctx, id)
		if err != nil {
			return err
		}
		published = episode.Published
	}
	if !published && !viewer.IsAdmin() {
		return types.NewNotFoundError(string(ct), id)
	}
	return nil
}

// Remove deletes a favorite
func (s *FavoriteService) Remove(ctx context.Context, viewer *auth.Viewer, contentType, id string) error {
	ct, err := parseType(contentType, false)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, viewer.UserID, ct, id)
}

// IsFavorite reports whether the viewer has favorited a piece of content
func (s *FavoriteService) IsFavorite(ctx context.Context, viewer *auth.Viewer, contentType, id string) (bool, error) {
	ct, err := parseType(contentType, false)
	if err != nil {
		return false, err
	}
	return s.repo.Exists(ctx, viewer.UserID, ct, id)
}
