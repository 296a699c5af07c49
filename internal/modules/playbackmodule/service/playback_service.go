// Package service resolves playable sources and tracks viewing progress
package service

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/events"
	"github.com/mantonx/streamflow/internal/metrics"
	"github.com/mantonx/streamflow/internal/modules/playbackmodule/core"
	"github.com/mantonx/streamflow/internal/modules/playbackmodule/core/repository"
	"github.com/mantonx/streamflow/internal/services"
	"github.com/mantonx/streamflow/internal/types"
)

// NextEpisodeRef points at the episode to offer when playback ends
type NextEpisodeRef struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	EpisodeNumber int    `json:"episode_number"`
	Thumbnail     string `json:"thumbnail"`
}

// PlaybackSource is everything a player needs to start
type PlaybackSource struct {
	ContentType    database.ContentType `json:"content_type"`
	ContentID      string               `json:"content_id"`
	Title          string               `json:"title"`
	VideoURL       string               `json:"video_url"`
	StreamType     core.StreamType      `json:"stream_type"`
	Poster         string               `json:"poster"`
	SeriesID       string               `json:"series_id,omitempty"`
	ResumePosition int                  `json:"resume_position"`
	NextEpisode    *NextEpisodeRef      `json:"next_episode"`
}

// ProgressRequest is one progress report from a player
type ProgressRequest struct {
	ContentType string   `json:"content_type" binding:"required"`
	ContentID   string   `json:"content_id" binding:"required"`
	Position    int      `json:"position"`
	Duration    int      `json:"duration"`
	Progress    *float64 `json:"progress"`
}

// HistoryItem is a history entry with the title and artwork of its content
type HistoryItem struct {
	database.WatchHistory
	Title     string `json:"title"`
	Poster    string `json:"poster"`
	Subtitle  string `json:"subtitle,omitempty"`
	Available bool   `json:"available"`
}

// target is a playable film or episode after visibility checks
type target struct {
	contentType database.ContentType
	id          string
	title       string
	videoURL    string
	poster      string
	vip         bool
	episode     *database.Episode
}

// PlaybackService serves playback sources and records progress
type PlaybackService struct {
	repo    *repository.HistoryRepository
	catalog services.CatalogService
	log     hclog.Logger
	now     func() time.Time
}

// NewPlaybackService creates a playback service
func NewPlaybackService(repo *repository.HistoryRepository, catalog services.CatalogService, log hclog.Logger) *PlaybackService {
	return &PlaybackService{repo: repo, catalog: catalog, log: log, now: time.Now}
}

func unavailable(msg string) error {
	return types.NewAppError(types.ErrorCodeContentUnavailable, msg, 404)
}

// ParseContentType accepts film and episode, the two playable kinds
func ParseContentType(s string) (database.ContentType, error) {
	ct, ok := database.ParseContentType(s)
	if !ok || ct == database.ContentTypeSeries {
		return "", types.NewValidationError("content type must be film or episode")
	}
	return ct, nil
}

// resolve loads a film or episode and applies publication and VIP rules
func (s *PlaybackService) resolve(ctx context.Context, viewer *auth.Viewer, ct database.ContentType, id string) (*target, error) {
	var t target
	switch ct {
	case database.ContentTypeFilm:
		film, err := s.catalog.GetFilm(ctx, id)
		if err != nil {
			return nil, err
		}
		if !film.Published && !viewer.IsAdmin() {
			return nil, unavailable("film not available")
		}
		t = target{contentType: ct, id: film.ID, title: film.Title, videoURL: film.VideoURL, poster: film.Backdrop, vip: film.IsVIP}
		if t.poster == "" {
			t.poster = film.Poster
		}

	case database.ContentTypeEpisode:
		episode, err := s.catalog.GetEpisode(ctx, id)
		if err != nil {
			return nil, err
		}
		series, err := s.catalog.GetSeries(ctx, episode.SeriesID)
		if err != nil {
			return nil, err
		}
		if !(episode.Published && series.Published) && !viewer.IsAdmin() {
			return nil, unavailable("episode not available")
		}
		t = target{
			contentType: ct,
			id:          episode.ID,
			title:       series.Title + " - " + episode.Title,
			videoURL:    episode.VideoURL,
			poster:      episode.Thumbnail,
			vip:         episode.IsVIP || series.IsVIP,
			episode:     episode,
		}
		if t.poster == "" {
			t.poster = series.Backdrop
		}

	default:
		return nil, types.NewValidationError("content type must be film or episode")
	}

	if t.vip && !viewer.CanSeeVIP() {
		return nil, types.NewVIPRequiredError(string(ct), id)
	}
	return &t, nil
}

// Source returns the playable source of a film or episode
func (s *PlaybackService) Source(ctx context.Context, viewer *auth.Viewer, contentType, id string) (*PlaybackSource, error) {
	ct, err := ParseContentType(contentType)
	if err != nil {
		return nil, err
	}

	t, err := s.resolve(ctx, viewer, ct, id)
	if err != nil {
		metrics.PlaybackRequests.WithLabelValues(string(ct), outcome(err)).Inc()
		return nil, err
	}
	if t.videoURL == "" {
		metrics.PlaybackRequests.WithLabelValues(string(ct), "unavailable").Inc()
		return nil, unavailable("no video available for this content")
	}

	source := &PlaybackSource{
		ContentType: ct,
		ContentID:   t.id,
		Title:       t.title,
		VideoURL:    t.videoURL,
		StreamType:  core.DetectStreamType(t.videoURL),
		Poster:      t.poster,
	}

	if t.episode != nil {
		source.SeriesID = t.episode.SeriesID
		next, err := s.catalog.NextEpisode(ctx, t.episode)
		if err != nil {
			s.log.Warn("failed to resolve next episode", "episode_id", t.id, "error", err)
		} else if next != nil {
			source.NextEpisode = &NextEpisodeRef{ID: next.ID, Title: next.Title, EpisodeNumber: next.EpisodeNumber, Thumbnail: next.Thumbnail}
		}
	}

	if viewer != nil {
		entry, err := s.repo.GetProgress(ctx, viewer.UserID, ct, t.id)
		if err != nil {
			s.log.Warn("failed to load resume position", "user_id", viewer.UserID, "error", err)
		} else if entry != nil && !core.IsWatched(entry.Progress) {
			source.ResumePosition = entry.Position
		}
	}

	metrics.PlaybackRequests.WithLabelValues(string(ct), "ok").Inc()
	return source, nil
}

func outcome(err error) string {
	switch {
	case types.IsCode(err, types.ErrorCodeVIPRequired):
		return "vip_required"
	case types.IsCode(err, types.ErrorCodeContentUnavailable), types.IsCode(err, types.ErrorCodeNotFound):
		return "unavailable"
	default:
		return "error"
	}
}

// RecordProgress stores a progress report. History is capped per user and an
// episode past the watched threshold is marked watched.
func (s *PlaybackService) RecordProgress(ctx context.Context, viewer *auth.Viewer, req ProgressRequest) (*database.WatchHistory, error) {
	ct, err := ParseContentType(req.ContentType)
	if err != nil {
		return nil, err
	}
	if req.Position < 0 || req.Duration < 0 {
		return nil, types.NewValidationError("position and duration must not be negative")
	}

	t, err := s.resolve(ctx, viewer, ct, req.ContentID)
	if err != nil {
		return nil, err
	}

	entry := &database.WatchHistory{
		UserID:      viewer.UserID,
		ContentType: ct,
		ContentID:   t.id,
		Progress:    core.ComputeProgress(req.Position, req.Duration, req.Progress),
		Position:    req.Position,
		Duration:    req.Duration,
		WatchedAt:   s.now(),
	}
	if t.episode != nil {
		entry.SeriesID = t.episode.SeriesID
	}

	saved, err := s.repo.UpsertProgress(ctx, entry)
	if err != nil {
		return nil, err
	}

	if pruned, err := s.repo.Prune(ctx, viewer.UserID, core.HistoryLimit); err != nil {
		s.log.Warn("failed to prune history", "user_id", viewer.UserID, "error", err)
	} else if pruned > 0 {
		s.log.Debug("pruned history", "user_id", viewer.UserID, "count", pruned)
	}

	events.Publish(ctx, events.NewEventWithData(events.EventPlaybackProgress, "user:"+viewer.UserID, "Playback progress", t.title,
		map[string]interface{}{
			"content_type": string(ct),
			"content_id":   t.id,
			"progress":     saved.Progress,
		}))

	if t.episode != nil && core.IsWatched(saved.Progress) {
		if err := s.repo.MarkWatched(ctx, viewer.UserID, t.id, t.episode.SeriesID); err != nil {
			return nil, err
		}
		events.Publish(ctx, events.NewEventWithData(events.EventEpisodeWatched, "user:"+viewer.UserID, "Episode watched", t.title,
			map[string]interface{}{"episode_id": t.id, "series_id": t.episode.SeriesID}))
	}

	return saved, nil
}

// History returns a user's history with titles resolved. Entries whose
// content no longer exists are reported with Available=false.
func (s *PlaybackService) History(ctx context.Context, userID string) ([]HistoryItem, error) {
	entries, err := s.repo.ListHistory(ctx, userID, core.HistoryLimit)
	if err != nil {
		return nil, err
	}

	var filmIDs, episodeIDs, seriesIDs []string
	for _, e := range entries {
		switch e.ContentType {
		case database.ContentTypeFilm:
			filmIDs = append(filmIDs, e.ContentID)
		case database.ContentTypeEpisode:
			episodeIDs = append(episodeIDs, e.ContentID)
			if e.SeriesID != "" {
				seriesIDs = append(seriesIDs, e.SeriesID)
			}
		}
	}

	films, err := s.catalog.FilmsByIDs(ctx, filmIDs)
	if err != nil {
		return nil, err
	}
	episodes, err := s.catalog.EpisodesByIDs(ctx, episodeIDs)
	if err != nil {
		return nil, err
	}
	series, err := s.catalog.SeriesByIDs(ctx, seriesIDs)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryItem, 0, len(entries))
	for _, e := range entries {
		item := HistoryItem{WatchHistory: e}
		switch e.ContentType {
		case database.ContentTypeFilm:
			if f, ok := films[e.ContentID]; ok {
				item.Title, item.Poster, item.Available = f.Title, f.Poster, f.Published
			}
		case database.ContentTypeEpisode:
			if ep, ok := episodes[e.ContentID]; ok {
				item.Title, item.Poster, item.Available = ep.Title, ep.Thumbnail, ep.Published
				if sr, ok := series[ep.SeriesID]; ok {
					item.Subtitle = sr.Title
					if item.Poster == "" {
						item.Poster = sr.Poster
					}
				}
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// DeleteHistory removes one history entry of a user
func (s *PlaybackService) DeleteHistory(ctx context.Context, userID, id string) error {
	return s.repo.DeleteHistory(ctx, userID, id)
}

// ClearHistory removes a user's whole history
func (s *PlaybackService) ClearHistory(ctx context.Context, userID string) (int64, error) {
	return s.repo.ClearHistory(ctx, userID)
}

// WatchedEpisodes returns the ids of watched episodes of a series
func (s *PlaybackService) WatchedEpisodes(ctx context.Context, userID, seriesID string) ([]string, error) {
	if _, err := s.catalog.GetSeries(ctx, seriesID); err != nil {
		return nil, err
	}
	return s.repo.WatchedEpisodeIDs(ctx, userID, seriesID)
}

// MarkWatched marks an episode watched by hand
func (s *PlaybackService) MarkWatched(ctx context.Context, userID, episodeID string) error {
	episode, err := s.catalog.GetEpisode(ctx, episodeID)
	if err != nil {
		return err
	}
	return s.repo.MarkWatched(ctx, userID, episode.ID, episode.SeriesID)
}

// UnmarkWatched clears the watched mark of an episode
func (s *PlaybackService) UnmarkWatched(ctx context.Context, userID, episodeID string) error {
	return s.repo.UnmarkWatched(ctx, userID, episodeID)
}
