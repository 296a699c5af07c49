// Package repository provides data access for favorites
package repository

import (
	"context"
	"fmt"

	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/types"
	"gorm.io/gorm"
)

// FavoriteRepository handles favorite data access
type FavoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Create stores a favorite. A duplicate is reported as a conflict.
func (r *FavoriteRepository) Create(ctx context.Context, fav *database.Favorite) error {
	if err := r.db.WithContext(ctx).Create(fav).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return types.NewConflictError("already in favorites")
		}
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// Delete removes a favorite of a user
func (r *FavoriteRepository) Delete(ctx context.Context, userID string, contentType database.ContentType, contentID string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND content_type = ? AND content_id = ?", userID, contentType, contentID).
		Delete(&database.Favorite{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove favorite: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return types.NewNotFoundError("favorite", contentID)
	}
	return nil
}

// Exists reports whether a user has favorited a piece of content
func (r *FavoriteRepository) Exists(ctx context.Context, userID string, contentType database.ContentType, contentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&database.Favorite{}).
		Where("user_id = ? AND content_type = ? AND content_id = ?", userID, contentType, contentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return count > 0, nil
}

// List returns a user's favorites, newest first. An empty contentType lists every type.
func (r *FavoriteRepository) List(ctx context.Context, userID string, contentType database.ContentType) ([]database.Favorite, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if contentType != "" {
		query = query.Where("content_type = ?", contentType)
	}

	var favorites []database.Favorite
	if err := query.Order("created_at DESC").Order("id DESC").Find(&favorites).Error; err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favorites, nil
}
