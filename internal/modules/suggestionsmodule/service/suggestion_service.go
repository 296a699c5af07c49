// Package service handles member suggestions of titles to add to the catalog
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/events"
	"github.com/mantonx/streamflow/internal/modules/suggestionsmodule/core/repository"
	"github.com/mantonx/streamflow/internal/types"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 2000

	// MaxStatusIDs caps a status lookup
	MaxStatusIDs = 100
)

// SuggestRequest is the body of POST /api/suggestions. Fields mirror a TMDB
// search result.
type SuggestRequest struct {
	TMDBID      int    `json:"tmdb_id"`
	Type        string `json:"type" binding:"required"`
	Title       string `json:"title"`
	Year        string `json:"year"`
	Description string `json:"description"`
	PosterPath  string `json:"poster_path"`
}

// Status tells which TMDB ids can still be suggested
type Status struct {
	Suggested []int `json:"suggested"`
	Available []int `json:"available"`
}

// SuggestionView is a suggestion with whether it has since been added
type SuggestionView struct {
	database.Suggestion
	Available bool `json:"available"`
}

// SuggestionService handles suggestions
type SuggestionService struct {
	repo *repository.SuggestionRepository
	log  hclog.Logger
}

// NewSuggestionService creates a suggestion service
func NewSuggestionService(repo *repository.SuggestionRepository, log hclog.Logger) *SuggestionService {
	return &SuggestionService{repo: repo, log: log}
}

// ParseMediaType accepts film and series, with TMDB's movie and tv spellings
func ParseMediaType(s string) (database.ContentType, error) {
	ct, ok := database.ParseContentType(s)
	if !ok || ct == database.ContentTypeEpisode {
		return "", types.NewValidationError("type must be film or series")
	}
	return ct, nil
}

func checkYear(year string) (string, error) {
	year = strings.TrimSpace(year)
	if year == "" {
		return "", nil
	}
	if len(year) > 4 {
		year = year[:4]
	}
	if n, err := strconv.Atoi(year); err != nil || len(year) != 4 || n < 1870 {
		return "", types.NewValidationError("year must be a four-digit year")
	}
	return year, nil
}

// Suggest records a title. Titles already in the catalog, or already
// suggested by anyone, are conflicts.
func (s *SuggestionService) Suggest(ctx context.Context, viewer *auth.Viewer, req SuggestRequest) (*database.Suggestion, error) {
	if req.TMDBID <= 0 {
		return nil, types.NewValidationError("tmdb_id is required")
	}
	mediaType, err := ParseMediaType(req.Type)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, types.NewValidationError("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, types.NewValidationError(fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	description := strings.TrimSpace(req.Description)
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		description = string([]rune(description)[:maxDescriptionLength])
	}
	year, err := checkYear(req.Year)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.InCatalog(ctx, mediaType, []int{req.TMDBID})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, types.NewConflictError("this title is already in the catalog")
	}

	suggestion := &database.Suggestion{
		TMDBID:      req.TMDBID,
		MediaType:   mediaType,
		Title:       title,
		Year:        year,
		Description: description,
		PosterPath:  strings.TrimSpace(req.PosterPath),
	}
	if viewer != nil {
		userID := viewer.UserID
		suggestion.UserID = &userID
		suggestion.UserName = viewer.Name
		suggestion.UserEmail = viewer.Email
	}

	if err := s.repo.Create(ctx, suggestion); err != nil {
		return nil, err
	}
	s.log.Info("title suggested", "tmdb_id", suggestion.TMDBID, "type", mediaType, "title", title)
	return suggestion, nil
}

// Status reports which of tmdbIDs are already suggested or in the catalog, so
// search results can be marked before a member picks one
func (s *SuggestionService) Status(ctx context.Context, mediaType string, tmdbIDs []int) (*Status, error) {
	ct, err := ParseMediaType(mediaType)
	if err != nil {
		return nil, err
	}
	if len(tmdbIDs) > MaxStatusIDs {
		return nil, types.NewValidationError(fmt.Sprintf("at most %d ids can be checked at once", MaxStatusIDs))
	}

	suggested, err := s.repo.Suggested(ctx, ct, tmdbIDs)
	if err != nil {
		return nil, err
	}
	available, err := s.repo.InCatalog(ctx, ct, tmdbIDs)
	if err != nil {
		return nil, err
	}
	return &Status{Suggested: suggested, Available: available}, nil
}

// AdminList returns suggestions newest first, flagging those since added to the catalog
func (s *SuggestionService) AdminList(ctx context.Context, filter repository.Filter, page types.Pagination) (*types.Page[SuggestionView], error) {
	suggestions, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	byType := map[database.ContentType][]int{}
	for _, sg := range suggestions {
		byType[sg.MediaType] = append(byType[sg.MediaType], sg.TMDBID)
	}
	added := map[database.ContentType]map[int]bool{}
	for ct, ids := range byType {
		found, err := s.repo.InCatalog(ctx, ct, ids)
		if err != nil {
			return nil, err
		}
		added[ct] = map[int]bool{}
		for _, id := range found {
			added[ct][id] = true
		}
	}

	views := make([]SuggestionView, 0, len(suggestions))
	for _, sg := range suggestions {
		views = append(views, SuggestionView{Suggestion: sg, Available: added[sg.MediaType][sg.TMDBID]})
	}
	return &types.Page[SuggestionView]{Items: views, Pagination: page.WithTotal(total)}, nil
}

// Delete removes a suggestion on behalf of an admin
func (s *SuggestionService) Delete(ctx context.Context, actor types.Actor, id string) error {
	suggestion, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	events.RecordAdminAction(ctx, actor, events.ActionDelete, events.EntitySuggestion, id, suggestion.Title,
		map[string]interface{}{"tmdb_id": suggestion.TMDBID, "type": suggestion.MediaType})
	return nil
}
