// Package repository provides data access for the admin activity log
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/types"
	"gorm.io/gorm"
)

// Filter narrows an activity log listing. Zero values match everything.
type Filter struct {
	AdminID    string
	Action     string
	EntityType string
	EntityID   string
	From       *time.Time
	To         *time.Time
}

// ActivityRepository handles activity log data access
type ActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create stores one entry
func (r *ActivityRepository) Create(ctx context.Context, entry *database.ActivityLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// List returns one page of entries, newest first, and the total match count
func (r *ActivityRepository) List(ctx context.Context, filter Filter, page types.Pagination) ([]database.ActivityLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&database.ActivityLog{})
	if filter.AdminID != "" {
		query = query.Where("admin_id = ?", filter.AdminID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.From != nil {
		query = query.Where("timestamp >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("timestamp <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count activity: %w", err)
	}

	var entries []database.ActivityLog
	err := query.Order("timestamp DESC").Limit(page.Limit).Offset(page.Offset()).Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, total, nil
}

// Recent returns the latest limit entries
func (r *ActivityRepository) Recent(ctx context.Context, limit int) ([]database.ActivityLog, error) {
	var entries []database.ActivityLog
	if err := r.db.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent activity: %w", err)
	}
	return entries, nil
}

// PurgeBefore deletes entries older than cutoff and returns how many went
func (r *ActivityRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&database.ActivityLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge activity: %w", result.Error)
	}
	return result.RowsAffected, nil
}
