// Package repository provides data access for watch history and watched episodes
package repository

import (
	"context"
	"fmt"

	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HistoryRepository handles watch history data access
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// UpsertProgress creates or updates the entry for (user, content type, content)
// and returns the stored row
func (r *HistoryRepository) UpsertProgress(ctx context.Context, entry *database.WatchHistory) (*database.WatchHistory, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "content_type"}, {Name: "content_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"series_id", "progress", "position", "duration", "watched_at", "updated_at"}),
	}).Create(entry).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save watch progress: %w", err)
	}
	return r.GetProgress(ctx, entry.UserID, entry.ContentType, entry.ContentID)
}

// GetProgress returns the entry for a piece of content, or nil when there is none
func (r *HistoryRepository) GetProgress(ctx context.Context, userID string, contentType database.ContentType, contentID string) (*database.WatchHistory, error) {
	var entry database.WatchHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND content_type = ? AND content_id = ?", userID, contentType, contentID).
		First(&entry).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get watch progress: %w", err)
	}
	return &entry, nil
}

// Prune deletes all but the newest keep entries of a user
func (r *HistoryRepository) Prune(ctx context.Context, userID string, keep int) (int64, error) {
	db := r.db.WithContext(ctx)
	newest := db.Model(&database.WatchHistory{}).
		Select("id").
		Where("user_id = ?", userID).
		Order("watched_at DESC").
		Limit(keep)

	result := db.
		Where("user_id = ? AND id NOT IN (?)", userID, newest).
		Delete(&database.WatchHistory{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune watch history: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ListHistory returns a user's history, most recent first
func (r *HistoryRepository) ListHistory(ctx context.Context, userID string, limit int) ([]database.WatchHistory, error) {
	var entries []database.WatchHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("watched_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list watch history: %w", err)
	}
	return entries, nil
}

// DeleteHistory removes one entry owned by userID
func (r *HistoryRepository) DeleteHistory(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&database.WatchHistory{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete history entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return types.NewNotFoundError("history entry", id)
	}
	return nil
}

// ClearHistory removes every entry of a user
func (r *HistoryRepository) ClearHistory(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&database.WatchHistory{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear watch history: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// MarkWatched records that a user has seen an episode. Marking twice is a no-op.
func (r *HistoryRepository) MarkWatched(ctx context.Context, userID, episodeID, seriesID string) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&database.WatchedEpisode{
		UserID:    userID,
		EpisodeID: episodeID,
		SeriesID:  seriesID,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to mark episode watched: %w", err)
	}
	return nil
}

// UnmarkWatched removes the watched mark of an episode
func (r *HistoryRepository) UnmarkWatched(ctx context.Context, userID, episodeID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND episode_id = ?", userID, episodeID).
		Delete(&database.WatchedEpisode{}).Error
	if err != nil {
		return fmt.Errorf("failed to unmark episode: %w", err)
	}
	return nil
}

// WatchedEpisodeIDs returns the ids of the episodes of a series a user has seen
func (r *HistoryRepository) WatchedEpisodeIDs(ctx context.Context, userID, seriesID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&database.WatchedEpisode{}).
		Where("user_id = ? AND series_id = ?", userID, seriesID).
		Order("created_at ASC").
		Pluck("episode_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list watched episodes: %w", err)
	}
	return ids, nil
}
