// Package repository provides data access for user accounts
package repository

import (
	"context"
	"fmt"

	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/types"
	"gorm.io/gorm"
)

// AccountRepository handles account data access
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetUser loads a user by id
func (r *AccountRepository) GetUser(ctx context.Context, id string) (*database.User, error) {
	var user database.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, types.NewNotFoundError("user", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateUser applies column updates to a user. Maps are used so false and
// empty values are written.
func (r *AccountRepository) UpdateUser(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&database.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// DeleteUser removes a user and everything they own in one transaction
func (r *AccountRepository) DeleteUser(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := []interface{}{
			&database.Favorite{},
			&database.WatchHistory{},
			&database.WatchedEpisode{},
			&database.RefreshToken{},
			&database.PasswordReset{},
			&database.Payment{},
			&database.Subscription{},
			&database.CommentReport{},
			&database.Comment{},
		}
		for _, model := range owned {
			if err := tx.Where("user_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete %T rows: %w", model, err)
			}
		}

		if err := database.DetachSuggestions(tx, id); err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&database.User{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return types.NewNotFoundError("user", id)
		}
		return nil
	})
}
