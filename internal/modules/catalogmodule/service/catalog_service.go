// Package service implements public catalog browsing
package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/cache"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/genres"
	"github.com/mantonx/streamflow/internal/modules/catalogmodule/core"
	"github.com/mantonx/streamflow/internal/modules/catalogmodule/core/repository"
	catalogtypes "github.com/mantonx/streamflow/internal/modules/catalogmodule/types"
	"github.com/mantonx/streamflow/internal/types"
)

const (
	similarLimit  = 12
	homeRowLimit  = 12
	featuredLimit = 5
	searchLimit   = 20
	vipLimit      = 50

	genresCacheNamespace = "genres"
	genresCacheKey       = "all"
)

// CatalogService serves the catalog to viewers. Non-admin viewers only see
// published content and VIP entries are flagged locked for non-VIP viewers.
type CatalogService struct {
	repo      *repository.CatalogRepository
	store     cache.Store
	genresTTL time.Duration
	log       hclog.Logger
}

// NewCatalogService creates a catalog service
func NewCatalogService(repo *repository.CatalogRepository, store cache.Store, genresTTL time.Duration, log hclog.Logger) *CatalogService {
	if genresTTL <= 0 {
		genresTTL = time.Hour
	}
	return &CatalogService{repo: repo, store: store, genresTTL: genresTTL, log: log}
}

func contentUnavailable(msg string) error {
	return types.NewAppError(types.ErrorCodeContentUnavailable, msg, 404)
}

// visibleTo reports whether content with the given published flag can be shown
func visibleTo(viewer *auth.Viewer, published bool) bool {
	return published || viewer.IsAdmin()
}

// GetFilm implements services.CatalogService
func (s *CatalogService) GetFilm(ctx context.Context, id string) (*database.Film, error) {
	return s.repo.GetFilm(ctx, id)
}

// GetSeries implements services.CatalogService
func (s *CatalogService) GetSeries(ctx context.Context, id string) (*database.Series, error) {
	return s.repo.GetSeries(ctx, id)
}

// GetSeason implements services.CatalogService
func (s *CatalogService) GetSeason(ctx context.Context, id string) (*database.Season, error) {
	return s.repo.GetSeason(ctx, id)
}

// GetEpisode implements services.CatalogService
func (s *CatalogService) GetEpisode(ctx context.Context, id string) (*database.Episode, error) {
	return s.repo.GetEpisode(ctx, id)
}

// FilmsByIDs implements services.CatalogService
func (s *CatalogService) FilmsByIDs(ctx context.Context, ids []string) (map[string]*database.Film, error) {
	return s.repo.FilmsByIDs(ctx, ids)
}

// SeriesByIDs implements services.CatalogService
func (s *CatalogService) SeriesByIDs(ctx context.Context, ids []string) (map[string]*database.Series, error) {
	return s.repo.SeriesByIDs(ctx, ids)
}

// EpisodesByIDs implements services.CatalogService
func (s *CatalogService) EpisodesByIDs(ctx context.Context, ids []string) (map[string]*database.Episode, error) {
	return s.repo.EpisodesByIDs(ctx, ids)
}

// NextEpisode implements services.CatalogService
func (s *CatalogService) NextEpisode(ctx context.Context, current *database.Episode) (*database.Episode, error) {
	order, err := s.playbackOrder(ctx, current.SeriesID)
	if err != nil {
		return nil, err
	}
	return core.NextEpisode(order, current.ID), nil
}

func (s *CatalogService) playbackOrder(ctx context.Context, seriesID string) ([]database.Episode, error) {
	series, err := s.repo.GetSeriesWithSeasons(ctx, seriesID, false)
	if err != nil {
		return nil, err
	}
	return core.PlaybackOrder(series.Seasons), nil
}

// Home builds the landing page rows
func (s *CatalogService) Home(ctx context.Context, viewer *auth.Viewer) (*catalogtypes.Home, error) {
	first := func(n int) types.Pagination { return types.NewPagination(1, n, n) }
	vip := true

	featured, _, err := s.repo.ListFilms(ctx, catalogtypes.CatalogFilter{Sort: catalogtypes.SortPopularity}, first(featuredLimit))
	if err != nil {
		return nil, err
	}
	recentFilms, _, err := s.repo.ListFilms(ctx, catalogtypes.CatalogFilter{Sort: catalogtypes.SortRecent}, first(homeRowLimit))
	if err != nil {
		return nil, err
	}
	recentSeries, _, err := s.repo.ListSeries(ctx, catalogtypes.CatalogFilter{Sort: catalogtypes.SortRecent}, first(homeRowLimit))
	if err != nil {
		return nil, err
	}
	vipFilms, _, err := s.repo.ListFilms(ctx, catalogtypes.CatalogFilter{VIP: &vip}, first(homeRowLimit))
	if err != nil {
		return nil, err
	}
	vipSeries, _, err := s.repo.ListSeries(ctx, catalogtypes.CatalogFilter{VIP: &vip}, first(homeRowLimit))
	if err != nil {
		return nil, err
	}

	return &catalogtypes.Home{
		Featured:     catalogtypes.NewFilmViews(featured, viewer),
		RecentFilms:  catalogtypes.NewFilmViews(recentFilms, viewer),
		RecentSeries: catalogtypes.NewSeriesViews(recentSeries, viewer),
		VIPFilms:     catalogtypes.NewFilmViews(vipFilms, viewer),
		VIPSeries:    catalogtypes.NewSeriesViews(vipSeries, viewer),
	}, nil
}

// ListFilms returns a page of films
func (s *CatalogService) ListFilms(ctx context.Context, viewer *auth.Viewer, filter catalogtypes.CatalogFilter, page types.Pagination) (*types.Page[catalogtypes.FilmView], error) {
	filter.IncludeUnpublished = viewer.IsAdmin()
	films, total, err := s.repo.ListFilms(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &types.Page[catalogtypes.FilmView]{
		Items:      catalogtypes.NewFilmViews(films, viewer),
		Pagination: page.WithTotal(total),
	}, nil
}

// ListSeries returns a page of series
func (s *CatalogService) ListSeries(ctx context.Context, viewer *auth.Viewer, filter catalogtypes.CatalogFilter, page types.Pagination) (*types.Page[catalogtypes.SeriesView], error) {
	filter.IncludeUnpublished = viewer.IsAdmin()
	list, total, err := s.repo.ListSeries(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &types.Page[catalogtypes.SeriesView]{
		Items:      catalogtypes.NewSeriesViews(list, viewer),
		Pagination: page.WithTotal(total),
	}, nil
}

// FilmDetail returns a film visible to viewer
func (s *CatalogService) FilmDetail(ctx context.Context, viewer *auth.Viewer, id string) (*catalogtypes.FilmView, error) {
	film, err := s.repo.GetFilm(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(viewer, film.Published) {
		return nil, types.NewNotFoundError("film", id)
	}
	view := catalogtypes.NewFilmView(*film, viewer)
	return &view, nil
}

// SimilarFilms returns published films sharing the film's first genre
func (s *CatalogService) SimilarFilms(ctx context.Context, viewer *auth.Viewer, id string) ([]catalogtypes.FilmView, error) {
	film, err := s.FilmDetail(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	genre := ""
	if len(film.Genres) > 0 {
		genre = film.Genres[0]
	}
	films, err := s.repo.SimilarFilms(ctx, id, genre, similarLimit)
	if err != nil {
		return nil, err
	}
	return catalogtypes.NewFilmViews(films, viewer), nil
}

// SeriesDetail returns a series with its seasons and visible episodes
func (s *CatalogService) SeriesDetail(ctx context.Context, viewer *auth.Viewer, id string) (*catalogtypes.SeriesView, error) {
	series, err := s.repo.GetSeriesWithSeasons(ctx, id, viewer.IsAdmin())
	if err != nil {
		return nil, err
	}
	if !visibleTo(viewer, series.Published) {
		return nil, types.NewNotFoundError("series", id)
	}
	core.SortSeasons(series.Seasons)
	view := catalogtypes.NewSeriesView(*series, viewer)
	if view.Seasons == nil {
		view.Seasons = []catalogtypes.SeasonView{}
	}
	return &view, nil
}

// SimilarSeries returns other published series, most popular first
func (s *CatalogService) SimilarSeries(ctx context.Context, viewer *auth.Viewer, id string) ([]catalogtypes.SeriesView, error) {
	series, err := s.repo.GetSeries(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(viewer, series.Published) {
		return nil, types.NewNotFoundError("series", id)
	}

	list, err := s.repo.SimilarSeries(ctx, id, similarLimit)
	if err != nil {
		return nil, err
	}
	return catalogtypes.NewSeriesViews(list, viewer), nil
}

// SeasonDetail returns one season of a series by number
func (s *CatalogService) SeasonDetail(ctx context.Context, viewer *auth.Viewer, seriesID string, number int) (*catalogtypes.SeasonView, error) {
	series, err := s.repo.GetSeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	if !visibleTo(viewer, series.Published) {
		return nil, types.NewNotFoundError("series", seriesID)
	}

	season, err := s.repo.GetSeasonByNumber(ctx, seriesID, number, viewer.IsAdmin())
	if err != nil {
		return nil, err
	}
	view := catalogtypes.NewSeasonView(*season, series.IsVIP, viewer)
	return &view, nil
}

// EpisodeDetail returns an episode with its series, season and neighbours
func (s *CatalogService) EpisodeDetail(ctx context.Context, viewer *auth.Viewer, id string) (*catalogtypes.EpisodeDetail, error) {
	episode, series, err := s.visibleEpisode(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	season, err := s.repo.GetSeason(ctx, episode.SeasonID)
	if err != nil {
		return nil, err
	}
	order, err := s.playbackOrder(ctx, series.ID)
	if err != nil {
		return nil, err
	}

	return &catalogtypes.EpisodeDetail{
		Episode:  catalogtypes.NewEpisodeView(*episode, series.IsVIP, viewer),
		Series:   catalogtypes.NewSeriesView(*series, viewer),
		Season:   *season,
		Next:     catalogtypes.Summarize(core.NextEpisode(order, episode.ID)),
		Previous: catalogtypes.Summarize(core.PreviousEpisode(order, episode.ID)),
	}, nil
}

// NextEpisodeFor returns the episode following id, or nil at the end of the series
func (s *CatalogService) NextEpisodeFor(ctx context.Context, viewer *auth.Viewer, id string) (*catalogtypes.EpisodeView, error) {
	episode, series, err := s.visibleEpisode(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	next, err := s.NextEpisode(ctx, episode)
	if err != nil || next == nil {
		return nil, err
	}
	view := catalogtypes.NewEpisodeView(*next, series.IsVIP, viewer)
	return &view, nil
}

// visibleEpisode loads an episode and its series. Unpublished episodes, or
// episodes of unpublished series, are unavailable to non-admins.
func (s *CatalogService) visibleEpisode(ctx context.Context, viewer *auth.Viewer, id string) (*database.Episode, *database.Series, error) {
	episode, err := s.repo.GetEpisode(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	series, err := s.repo.GetSeries(ctx, episode.SeriesID)
	if err != nil {
		return nil, nil, err
	}
	if !visibleTo(viewer, episode.Published && series.Published) {
		return nil, nil, contentUnavailable("episode not available")
	}
	return episode, series, nil
}

// Genres returns every genre with counts of published films and series.
// The result is cached.
func (s *CatalogService) Genres(ctx context.Context) ([]catalogtypes.GenreCount, error) {
	return cache.Remember(ctx, s.store, genresCacheNamespace, genresCacheKey, s.genresTTL, s.countGenres)
}

// InvalidateGenres drops the cached genre counts
func (s *CatalogService) InvalidateGenres(ctx context.Context) {
	if err := s.store.Del(ctx, genresCacheNamespace+":"+genresCacheKey); err != nil {
		s.log.Warn("failed to invalidate genre cache", "error", err)
	}
}

func (s *CatalogService) countGenres(ctx context.Context) ([]catalogtypes.GenreCount, error) {
	filmGenres, seriesGenres, err := s.repo.PublishedGenres(ctx)
	if err != nil {
		return nil, err
	}

	films := make(map[string]int)
	for _, list := range filmGenres {
		for _, slug := range list {
			films[slug]++
		}
	}
	series := make(map[string]int)
	for _, list := range seriesGenres {
		for _, slug := range list {
			series[slug]++
		}
	}

	out := make([]catalogtypes.GenreCount, 0, len(films)+len(series))
	known := make(map[string]bool)
	for _, g := range genres.All() {
		known[g.Slug] = true
		out = append(out, catalogtypes.GenreCount{Slug: g.Slug, Label: g.Label, Films: films[g.Slug], Series: series[g.Slug]})
	}

	var custom []catalogtypes.GenreCount
	seen := make(map[string]bool)
	for _, counts := range []map[string]int{films, series} {
		for slug := range counts {
			if known[slug] || seen[slug] {
				continue
			}
			seen[slug] = true
			custom = append(custom, catalogtypes.GenreCount{Slug: slug, Label: slug, Films: films[slug], Series: series[slug], Custom: true})
		}
	}
	sort.Slice(custom, func(i, j int) bool { return custom[i].Slug < custom[j].Slug })

	return append(out, custom...), nil
}

// Search matches film and series titles
func (s *CatalogService) Search(ctx context.Context, viewer *auth.Viewer, q string) (*catalogtypes.SearchResults, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, types.NewValidationError("search query is required")
	}

	filter := catalogtypes.CatalogFilter{Search: q, Sort: catalogtypes.SortPopularity, IncludeUnpublished: viewer.IsAdmin()}
	page := types.NewPagination(1, searchLimit, searchLimit)

	films, _, err := s.repo.ListFilms(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	series, _, err := s.repo.ListSeries(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	return &catalogtypes.SearchResults{
		Query:  q,
		Films:  catalogtypes.NewFilmViews(films, viewer),
		Series: catalogtypes.NewSeriesViews(series, viewer),
	}, nil
}

// VIPCatalog returns published VIP films and series
func (s *CatalogService) VIPCatalog(ctx context.Context, viewer *auth.Viewer) (*catalogtypes.VIPCatalog, error) {
	vip := true
	filter := catalogtypes.CatalogFilter{VIP: &vip, Sort: catalogtypes.SortPopularity}
	page := types.NewPagination(1, vipLimit, vipLimit)

	films, _, err := s.repo.ListFilms(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	series, _, err := s.repo.ListSeries(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	return &catalogtypes.VIPCatalog{
		Films:  catalogtypes.NewFilmViews(films, viewer),
		Series: catalogtypes.NewSeriesViews(series, viewer),
	}, nil
}
