// Package service manages comments, reports and moderation
package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/events"
	"github.com/mantonx/streamflow/internal/modules/commentsmodule/core/repository"
	"github.com/mantonx/streamflow/internal/services"
	"github.com/mantonx/streamflow/internal/types"
)

const (
	MinRating = 1
	MaxRating = 5

	// DefaultMaxLength applies when no limit is configured
	DefaultMaxLength = 2000

	maxReasonLength = 500
)

// CreateRequest is the body of POST /api/comments
type CreateRequest struct {
	ContentType string `json:"content_type" binding:"required"`
	ContentID   string `json:"content_id" binding:"required"`
	Text        string `json:"text"`
	Rating      int    `json:"rating"`
}

// UpdateRequest is the body of PUT /api/comments/:id
type UpdateRequest struct {
	Text   *string `json:"text"`
	Rating *int    `json:"rating"`
}

// ReportRequest is the body of POST /api/comments/:id/report
type ReportRequest struct {
	Reason string `json:"reason"`
}

// ModerateRequest is the body of PATCH /api/admin/comments/:id/moderate
type ModerateRequest struct {
	Status string `json:"status" binding:"required"`
}

// Options tune comment handling
type Options struct {
	RequireModeration bool
	MaxLength         int
}

// CommentService handles comments on behalf of viewers and moderators
type CommentService struct {
	repo    *repository.CommentRepository
	catalog services.CatalogService
	opts    Options
	log     hclog.Logger
}

// NewCommentService creates a comment service
func NewCommentService(repo *repository.CommentRepository, catalog services.CatalogService, opts Options, log hclog.Logger) *CommentService {
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	return &CommentService{repo: repo, catalog: catalog, opts: opts, log: log}
}

func parseType(s string) (database.ContentType, error) {
	ct, ok := database.ParseContentType(s)
	if !ok {
		return "", types.NewValidationError("content type must be film, series or episode")
	}
	return ct, nil
}

func (s *CommentService) checkText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", types.NewValidationError("text is required")
	}
	if utf8.RuneCountInString(text) > s.opts.MaxLength {
		return "", types.NewValidationError(fmt.Sprintf("text must be at most %d characters", s.opts.MaxLength))
	}
	return text, nil
}

func checkRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return types.NewValidationError(fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}
	return nil
}

// List returns the approved comments on a piece of content, newest first
func (s *CommentService) List(ctx context.Context, contentType, contentID string, page types.Pagination) (*types.Page[database.Comment], error) {
	ct, err := parseType(contentType)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(contentID) == "" {
		return nil, types.NewValidationError("content_id is required")
	}
	comments, total, err := s.repo.ListApproved(ctx, ct, contentID, page)
	if err != nil {
		return nil, err
	}
	return &types.Page[database.Comment]{Items: comments, Pagination: page.WithTotal(total)}, nil
}

// contentTitle resolves the commented content, hiding unpublished entries
// from non-admins
func (s *CommentService) contentTitle(ctx context.Context, viewer *auth.Viewer, ct database.ContentType, id string) (string, error) {
	var title string
	var published bool
	switch ct {
	case database.ContentTypeFilm:
		film, err := s.catalog.GetFilm(ctx, id)
		if err != nil {
			return "", err
		}
		title, published = film.Title, film.Published
	case database.ContentTypeSeries:
		series, err := s.catalog.GetSeries(ctx, id)
		if err != nil {
			return "", err
		}
		title, published = series.Title, series.Published
	case database.ContentTypeEpisode:
		episode, err := s.catalog.GetEpisode(ctx, id)
		if err != nil {
			return "", err
		}
		title, published = episode.Title, episode.Published
	}
	if !published && !viewer.IsAdmin() {
		return "", types.NewNotFoundError(string(ct), id)
	}
	return title, nil
}

// Create posts a comment. It is approved right away unless moderation is required.
func (s *CommentService) Create(ctx context.Context, viewer *auth.Viewer, req CreateRequest) (*database.Comment, error) {
	ct, err := parseType(req.ContentType)
	if err != nil {
		return nil, err
	}
	text, err := s.checkText(req.Text)
	if err != nil {
		return nil, err
	}
	if err := checkRating(req.Rating); err != nil {
		return nil, err
	}
	title, err := s.contentTitle(ctx, viewer, ct, req.ContentID)
	if err != nil {
		return nil, err
	}

	status := database.CommentApproved
	if s.opts.RequireModeration {
		status = database.CommentPending
	}
	name := viewer.Name
	if name == "" {
		name, _, _ = strings.Cut(viewer.Email, "@")
	}

	comment := &database.Comment{
		UserID:       viewer.UserID,
		UserName:     name,
		ContentType:  ct,
		ContentID:    req.ContentID,
		ContentTitle: title,
		Text:         text,
		Rating:       req.Rating,
		Status:       status,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, err
	}
	s.log.Debug("comment posted", "comment_id", comment.ID, "user_id", viewer.UserID, "status", status)
	return comment, nil
}

// Update edits the viewer's own comment. With moderation on, edited text
// goes back to pending.
func (s *CommentService) Update(ctx context.Context, viewer *auth.Viewer, id string, req UpdateRequest) (*database.Comment, error) {
	comment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != viewer.UserID {
		return nil, types.NewForbiddenError("you can only edit your own comments")
	}

	updates := make(map[string]interface{})
	if req.Text != nil {
		text, err := s.checkText(*req.Text)
		if err != nil {
			return nil, err
		}
		if text != comment.Text {
			updates["text"] = text
			if s.opts.RequireModeration {
				updates["status"] = database.CommentPending
			}
		}
	}
	if req.Rating != nil {
		if err := checkRating(*req.Rating); err != nil {
			return nil, err
		}
		updates["rating"] = *req.Rating
	}
	return s.repo.Update(ctx, id, updates)
}

// Delete removes a comment. Authors delete their own; admins delete any,
// which is recorded in the activity log.
func (s *CommentService) Delete(ctx context.Context, viewer *auth.Viewer, actor types.Actor, id string) error {
	comment, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	own := comment.UserID == viewer.UserID
	if !own && !viewer.IsAdmin() {
		return types.NewForbiddenError("you can only delete your own comments")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if !own {
		events.RecordAdminAction(ctx, actor, events.ActionDelete, events.EntityComment, id, comment.ContentTitle,
			map[string]interface{}{"author_id": comment.UserID})
	}
	return nil
}

// Report flags an approved comment for moderators
func (s *CommentService) Report(ctx context.Context, viewer *auth.Viewer, id string, req ReportRequest) error {
	comment, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if comment.Status != database.CommentApproved {
		return types.NewNotFoundError("comment", id)
	}
	if comment.UserID == viewer.UserID {
		return types.NewValidationError("you cannot report your own comment")
	}
	reason := strings.TrimSpace(req.Reason)
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return types.NewValidationError(fmt.Sprintf("reason must be at most %d characters", maxReasonLength))
	}
	return s.repo.AddReport(ctx, &database.CommentReport{CommentID: id, UserID: viewer.UserID, Reason: reason})
}

// AdminList returns comments matching the moderation filter
func (s *CommentService) AdminList(ctx context.Context, filter repository.AdminFilter, page types.Pagination) (*types.Page[database.Comment], error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, types.NewValidationError("unknown status: " + filter.Status)
	}
	comments, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &types.Page[database.Comment]{Items: comments, Pagination: page.WithTotal(total)}, nil
}

// Moderate approves or rejects a comment
func (s *CommentService) Moderate(ctx context.Context, actor types.Actor, id string, req ModerateRequest) (*database.Comment, error) {
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status != database.CommentApproved && status != database.CommentRejected {
		return nil, types.NewValidationError("status must be approved or rejected")
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	comment, err := s.repo.Update(ctx, id, map[string]interface{}{"status": status})
	if err != nil {
		return nil, err
	}
	events.RecordAdminAction(ctx, actor, events.ActionUpdate, events.EntityComment, id, comment.ContentTitle,
		map[string]interface{}{"status": status, "author_id": comment.UserID})
	return comment, nil
}

// Stats returns the moderation totals
func (s *CommentService) Stats(ctx context.Context) (*repository.Stats, error) {
	return s.repo.Stats(ctx)
}

func validStatus(status string) bool {
	switch status {
	case database.CommentApproved, database.CommentPending, database.CommentRejected:
		return true
	}
	return false
}
