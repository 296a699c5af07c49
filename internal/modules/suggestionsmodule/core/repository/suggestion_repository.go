// Package repository provides data access for content suggestions
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/types"
	"gorm.io/gorm"
)

// Filter narrows the admin listing
type Filter struct {
	MediaType database.ContentType
	Search    string
	UserID    string
}

// SuggestionRepository handles suggestion data access
type SuggestionRepository struct {
	db *gorm.DB
}

// NewSuggestionRepository creates a new suggestion repository
func NewSuggestionRepository(db *gorm.DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

// Create stores a suggestion. A title that was already suggested is a conflict.
func (r *SuggestionRepository) Create(ctx context.Context, suggestion *database.Suggestion) error {
	if err := r.db.WithContext(ctx).Create(suggestion).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return types.NewConflictError("this title has already been suggested")
		}
		return fmt.Errorf("failed to create suggestion: %w", err)
	}
	return nil
}

// List returns suggestions newest first
func (r *SuggestionRepository) List(ctx context.Context, filter Filter, page types.Pagination) ([]database.Suggestion, int64, error) {
	query := r.db.WithContext(ctx).Model(&database.Suggestion{})
	if filter.MediaType != "" {
		query = query.Where("media_type = ?", filter.MediaType)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(s)+"%")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count suggestions: %w", err)
	}
	var suggestions []database.Suggestion
	err := query.Order("created_at DESC").Order("id DESC").Offset(page.Offset()).Limit(page.Limit).Find(&suggestions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list suggestions: %w", err)
	}
	return suggestions, total, nil
}

// Get loads a suggestion by id
func (r *SuggestionRepository) Get(ctx context.Context, id string) (*database.Suggestion, error) {
	var suggestion database.Suggestion
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&suggestion).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, types.NewNotFoundError("suggestion", id)
		}
		return nil, fmt.Errorf("failed to get suggestion: %w", err)
	}
	return &suggestion, nil
}

// Delete removes a suggestion
func (r *SuggestionRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&database.Suggestion{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete suggestion: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return types.NewNotFoundError("suggestion", id)
	}
	return nil
}

// Suggested returns which of tmdbIDs were already suggested for mediaType
func (r *SuggestionRepository) Suggested(ctx context.Context, mediaType database.ContentType, tmdbIDs []int) ([]int, error) {
	ids := []int{}
	if len(tmdbIDs) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).Model(&database.Suggestion{}).
		Where("media_type = ? AND tmdb_id IN ?", mediaType, tmdbIDs).
		Order("tmdb_id").Pluck("tmdb_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up suggestions: %w", err)
	}
	return ids, nil
}

// InCatalog returns which of tmdbIDs already exist as films or series,
// published or not
func (r *SuggestionRepository) InCatalog(ctx context.Context, mediaType database.ContentType, tmdbIDs []int) ([]int, error) {
	ids := []int{}
	if len(tmdbIDs) == 0 {
		return ids, nil
	}

	var model interface{}
	switch mediaType {
	case database.ContentTypeFilm:
		model = &database.Film{}
	case database.ContentTypeSeries:
		model = &database.Series{}
	default:
		return ids, nil
	}

	err := r.db.WithContext(ctx).Model(model).Where("tmdb_id IN ?", tmdbIDs).Order("tmdb_id").Pluck("tmdb_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up catalog: %w", err)
	}
	return ids, nil
}
