// Package service records and queries the admin activity log
package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/events"
	"github.com/mantonx/streamflow/internal/modules/activitymodule/core/repository"
	"github.com/mantonx/streamflow/internal/types"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 50
)

var (
	validActions = map[string]bool{
		events.ActionCreate: true, events.ActionUpdate: true, events.ActionDelete: true,
		events.ActionLogin: true, events.ActionLogout: true, events.ActionOther: true,
	}
	validEntities = map[string]bool{
		events.EntityMovie: true, events.EntitySeries: true, events.EntitySeason: true,
		events.EntityEpisode: true, events.EntityUser: true, events.EntityAdmin: true,
		events.EntityComment: true, events.EntitySubscription: true, events.EntitySetting: true,
		events.EntitySuggestion: true, events.EntityOther: true,
	}
)

// ActivityService implements services.ActivityService
type ActivityService struct {
	repo *repository.ActivityRepository
	log  hclog.Logger
	now  func() time.Time
}

// NewActivityService creates an activity service
func NewActivityService(repo *repository.ActivityRepository, log hclog.Logger) *ActivityService {
	return &ActivityService{repo: repo, log: log, now: time.Now}
}

// Record stores an entry. Unknown actions and entity types are filed as OTHER.
func (s *ActivityService) Record(ctx context.Context, entry *database.ActivityLog) error {
	if entry.AdminID == "" {
		return types.NewValidationError("activity entry has no admin")
	}
	entry.Action = normalize(entry.Action, validActions)
	entry.EntityType = normalize(entry.EntityType, validEntities)
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	return s.repo.Create(ctx, entry)
}

// HandleEvent persists an admin.action event from the bus
func (s *ActivityService) HandleEvent(event events.Event) error {
	data, err := events.AdminActionFromEvent(event)
	if err != nil {
		return err
	}

	entry := &database.ActivityLog{
		AdminID:    data.AdminID,
		AdminName:  data.AdminName,
		Action:     data.Action,
		EntityType: data.EntityType,
		EntityID:   data.EntityID,
		EntityName: data.EntityName,
		IP:         data.IP,
		UserAgent:  data.UserAgent,
		Timestamp:  data.Timestamp,
	}
	if len(data.Details) > 0 {
		raw, err := json.Marshal(data.Details)
		if err != nil {
			s.log.Warn("dropping unencodable activity details", "entity_id", data.EntityID, "error", err)
		} else {
			entry.Details = string(raw)
		}
	}

	if err := s.Record(context.Background(), entry); err != nil {
		s.log.Error("failed to record admin action", "action", data.Action, "entity_type", data.EntityType, "error", err)
		return err
	}
	return nil
}

// List returns one page of entries matching filter, newest first
func (s *ActivityService) List(ctx context.Context, filter repository.Filter, page types.Pagination) ([]database.ActivityLog, types.Pagination, error) {
	if filter.Action != "" {
		filter.Action = strings.ToUpper(filter.Action)
	}
	if filter.EntityType != "" {
		filter.EntityType = strings.ToUpper(filter.EntityType)
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, page, types.NewValidationError("'to' must not be before 'from'")
	}

	entries, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, page, err
	}
	return entries, page.WithTotal(total), nil
}

// Recent returns the latest entries. limit is clamped to 1..50.
func (s *ActivityService) Recent(ctx context.Context, limit int) ([]database.ActivityLog, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	return s.repo.Recent(ctx, limit)
}

// Purge deletes entries older than retention
func (s *ActivityService) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.PurgeBefore(ctx, s.now().Add(-retention))
}

func normalize(value string, valid map[string]bool) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	if !valid[value] {
		return events.ActionOther
	}
	return value
}
