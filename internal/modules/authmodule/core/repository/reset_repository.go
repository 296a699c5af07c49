package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mantonx/streamflow/internal/database"
	"gorm.io/gorm"
)

var (
	// ErrResetNotFound is returned for unknown reset tokens
	ErrResetNotFound = errors.New("reset token not found")
	// ErrResetUsed is returned when a reset token was already redeemed
	ErrResetUsed = errors.New("reset token already used")
	// ErrResetExpired is returned for reset tokens past their expiry
	ErrResetExpired = errors.New("reset token expired")
)

// ResetRepository stores password reset token hashes
type ResetRepository struct {
	db *gorm.DB
}

// NewResetRepository creates a new reset repository
func NewResetRepository(db *gorm.DB) *ResetRepository {
	return &ResetRepository{db: db}
}

// Create stores a reset token hash
func (r *ResetRepository) Create(ctx context.Context, reset *database.PasswordReset) error {
	if err := r.db.WithContext(ctx).Create(reset).Error; err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

// Redeem marks the token with hash used and sets the user's password hash,
// revoking their refresh tokens in the same transaction. It returns the
// user id the token belonged to.
func (r *ResetRepository) Redeem(ctx context.Context, hash, passwordHash string, now time.Time) (string, error) {
	var userID string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reset database.PasswordReset
		if err := tx.Where("token_hash = ?", hash).First(&reset).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrResetNotFound
			}
			return fmt.Errorf("failed to get reset token: %w", err)
		}
		if reset.UsedAt != nil {
			return ErrResetUsed
		}
		if !now.Before(reset.ExpiresAt) {
			return ErrResetExpired
		}

		// Concurrent redemptions race on this update; only one sees a row
		result := tx.Model(&database.PasswordReset{}).
			Where("id = ? AND used_at IS NULL", reset.ID).
			Update("used_at", now)
		if result.Error != nil {
			return fmt.Errorf("failed to mark reset token used: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrResetUsed
		}

		if err := tx.Model(&database.User{}).Where("id = ?", reset.UserID).
			Update("password_hash", passwordHash).Error; err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		if err := tx.Model(&database.RefreshToken{}).
			Where("user_id = ? AND revoked_at IS NULL", reset.UserID).
			Update("revoked_at", now).Error; err != nil {
			return fmt.Errorf("failed to revoke refresh tokens: %w", err)
		}

		userID = reset.UserID
		return nil
	})
	return userID, err
}

// DeleteStale removes reset tokens that expired before cutoff
func (r *ResetRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", cutoff).Delete(&database.PasswordReset{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}
