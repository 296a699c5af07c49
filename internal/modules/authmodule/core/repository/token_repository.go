package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mantonx/streamflow/internal/database"
	"gorm.io/gorm"
)

// ErrTokenInvalid covers unknown, expired and revoked refresh tokens
var ErrTokenInvalid = errors.New("refresh token is invalid")

// TokenRepository stores refresh token hashes
type TokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create stores a refresh token hash
func (r *TokenRepository) Create(ctx context.Context, token *database.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// FindActive returns the live token with the given hash
func (r *TokenRepository) FindActive(ctx context.Context, hash string, now time.Time) (*database.RefreshToken, error) {
	var token database.RefreshToken
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND revoked_at IS NULL AND expires_at > ?", hash, now).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return &token, nil
}

// Revoke marks a token revoked. It fails with ErrTokenInvalid when the token
// was revoked concurrently, so a token can only be rotated once.
func (r *TokenRepository) Revoke(ctx context.Context, id string, now time.Time) error {
	result := r.db.WithContext(ctx).Model(&database.RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", now)
	if result.Error != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTokenInvalid
	}
	return nil
}

// RevokeByHash revokes the token with hash if it belongs to userID
func (r *TokenRepository) RevokeByHash(ctx context.Context, userID, hash string, now time.Time) error {
	err := r.db.WithContext(ctx).Model(&database.RefreshToken{}).
		Where("user_id = ? AND token_hash = ? AND revoked_at IS NULL", userID, hash).
		Update("revoked_at", now).Error
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes every live token of a user
func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID string, now time.Time) error {
	err := r.db.WithContext(ctx).Model(&database.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", now).Error
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}

// DeleteExpired removes tokens that expired before cutoff
func (r *TokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", cutoff).Delete(&database.RefreshToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}
