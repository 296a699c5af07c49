package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/types"
	"gorm.io/gorm"
)

// UserFilter narrows the user listing. Nil pointers match everything.
type UserFilter struct {
	VIP    *bool
	Active *bool
	Role   string
	Search string
}

// UserRepository handles back-office user data access
type UserRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

// List returns one page of users, newest first. The VIP filter uses
// effective VIP, so lapsed memberships count as non-VIP.
func (r *UserRepository) List(ctx context.Context, filter UserFilter, page types.Pagination) ([]database.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&database.User{})
	if filter.VIP != nil {
		if *filter.VIP {
			query = query.Where("is_vip = ? AND (vip_expiry IS NULL OR vip_expiry > ?)", true, r.now())
		} else {
			query = query.Where("(is_vip = ? OR (vip_expiry IS NOT NULL AND vip_expiry <= ?))", false, r.now())
		}
	}
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		query = query.Where("(LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?)", pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []database.User
	if err := query.Order("created_at DESC").Order("id ASC").Offset(page.Offset()).Limit(page.Limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// Get loads a user by id
func (r *UserRepository) Get(ctx context.Context, id string) (*database.User, error) {
	var user database.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "user", id, "get user")
	}
	return &user, nil
}

// Update writes column updates and returns the fresh row
func (r *UserRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*database.User, error) {
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(&database.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}
	return r.Get(ctx, id)
}

// RevokeTokens signs a user out everywhere
func (r *UserRepository) RevokeTokens(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&database.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", r.now()).Error
	if err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}

// Delete removes a user and every row they own
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reports := tx.Model(&database.Comment{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("comment_id IN (?)", reports).Delete(&database.CommentReport{}).Error; err != nil {
			return fmt.Errorf("failed to delete reports on comments: %w", err)
		}

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
