// Package repository provides data access for comments and reports
package repository

import (
	"context"
	"fmt"

	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/types"
	"gorm.io/gorm"
)

// AdminFilter narrows the moderation listing
type AdminFilter struct {
	Status      string
	ContentType database.ContentType
	ContentID   string
	UserID      string
	MinRating   int
	Reported    *bool
}

// Stats summarizes comments for the moderation dashboard
type Stats struct {
	Total         int64   `json:"total"`
	Approved      int64   `json:"approved"`
	Pending       int64   `json:"pending"`
	Rejected      int64   `json:"rejected"`
	Reported      int64   `json:"reported"`
	AverageRating float64 `json:"average_rating"`
}

// CommentRepository handles comment data access
type CommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) page(query *gorm.DB, page types.Pagination) ([]database.Comment, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}
	var comments []database.Comment
	if err := query.Order("created_at DESC").Order("id DESC").Offset(page.Offset()).Limit(page.Limit).Find(&comments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, total, nil
}

// ListApproved returns the approved comments on a piece of content, newest first
func (r *CommentRepository) ListApproved(ctx context.Context, contentType database.ContentType, contentID string, page types.Pagination) ([]database.Comment, int64, error) {
	query := r.db.WithContext(ctx).Model(&database.Comment{}).
		Where("content_type = ? AND content_id = ? AND status = ?", contentType, contentID, database.CommentApproved)
	return r.page(query, page)
}

// List returns comments for moderation, newest first
func (r *CommentRepository) List(ctx context.Context, filter AdminFilter, page types.Pagination) ([]database.Comment, int64, error) {
	query := r.db.WithContext(ctx).Model(&database.Comment{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ContentType != "" {
		query = query.Where("content_type = ?", filter.ContentType)
	}
	if filter.ContentID != "" {
		query = query.Where("content_id = ?", filter.ContentID)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.MinRating > 0 {
		query = query.Where("rating >= ?", filter.MinRating)
	}
	if filter.Reported != nil {
		if *filter.Reported {
			query = query.Where("report_count > 0")
		} else {
			query = query.Where("report_count = 0")
		}
	}
	return r.page(query, page)
}

// Get loads a comment by id
func (r *CommentRepository) Get(ctx context.Context, id string) (*database.Comment, error) {
	var comment database.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, types.NewNotFoundError("comment", id)
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

// Create stores a comment
func (r *CommentRepository) Create(ctx context.Context, comment *database.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// Update writes column updates and returns the fresh row
func (r *CommentRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*database.Comment, error) {
	if len(updates) > 0 {
		result := r.db.WithContext(ctx).Model(&database.Comment{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("failed to update comment: %w", result.Error)
		}
	}
	return r.Get(ctx, id)
}

// Delete removes a comment and its reports
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", id).Delete(&database.CommentReport{}).Error; err != nil {
			return fmt.Errorf("failed to delete comment reports: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&database.Comment{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete comment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return types.NewNotFoundError("comment", id)
		}
		return nil
	})
}

// AddReport stores a report and bumps the comment's report count. A second
// report by the same user is a conflict.
func (r *CommentRepository) AddReport(ctx context.Context, report *database.CommentReport) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(report).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return types.NewConflictError("you already reported this comment")
			}
			return fmt.Errorf("failed to report comment: %w", err)
		}
		err := tx.Model(&database.Comment{}).Where("id = ?", report.CommentID).
			UpdateColumn("report_count", gorm.Expr("report_count + ?", 1)).Error
		if err != nil {
			return fmt.Errorf("failed to count report: %w", err)
		}
		return nil
	})
}

// Stats computes the moderation totals
func (r *CommentRepository) Stats(ctx context.Context) (*Stats, error) {
	db := r.db.WithContext(ctx)
	stats := &Stats{}

	var byStatus []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&database.Comment{}).Select("status, COUNT(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to count comments by status: %w", err)
	}
	for _, row := range byStatus {
		stats.Total += row.Count
		switch row.Status {
		case database.CommentApproved:
			stats.Approved = row.Count
		case database.CommentPending:
			stats.Pending = row.Count
		case database.CommentRejected:
			stats.Rejected = row.Count
		}
	}

	if err := db.Model(&database.Comment{}).Where("report_count > 0").Count(&stats.Reported).Error; err != nil {
		return nil, fmt.Errorf("failed to count reported comments: %w", err)
	}

	var avg struct{ Value *float64 }
	err := db.Model(&database.Comment{}).Select("AVG(rating) AS value").
		Where("status = ? AND rating > 0", database.CommentApproved).Scan(&avg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to average ratings: %w", err)
	}
	if avg.Value != nil {
		stats.AverageRating = *avg.Value
	}
	return stats, nil
}
