package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mantonx/streamflow/internal/types"
)

// Activity actions
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
	ActionLogin  = "LOGIN"
	ActionLogout = "LOGOUT"
	ActionOther  = "OTHER"
)

// Activity entity types
const (
	EntityMovie        = "MOVIE"
	EntitySeries       = "SERIES"
	EntitySeason       = "SEASON"
	EntityEpisode      = "EPISODE"
	EntityUser         = "USER"
	EntityAdmin        = "ADMIN"
	EntityComment      = "COMMENT"
	EntitySuggestion   = "SUGGESTION"
	EntitySubscription = "SUBSCRIPTION"
	EntitySetting      = "SETTING"
	EntityOther        = "OTHER"
)

// AdminActionData is the payload of an admin.action event
type AdminActionData struct {
	AdminID    string                 `json:"admin_id"`
	AdminName  string                 `json:"admin_name"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	EntityName string                 `json:"entity_name"`
	IP         string                 `json:"ip"`
	UserAgent  string                 `json:"user_agent"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// NewAdminActionEvent wraps an admin action for the activity log
func NewAdminActionEvent(data AdminActionData) Event {
	if data.Timestamp.IsZero() {
		data.Timestamp = time.Now()
	}
	event := NewEvent(EventAdminAction, "user:"+data.AdminID, "Admin action",
		fmt.Sprintf("%s %s %s", data.Action, data.EntityType, data.EntityName))
	event.Data["action"] = data
	event.Tags = []string{"admin", data.Action, data.EntityType}
	event.Timestamp = data.Timestamp
	return event
}

// RecordAdminAction publishes an admin.action event on the global bus
func RecordAdminAction(ctx context.Context, actor types.Actor, action, entityType, entityID, entityName string, details map[string]interface{}) {
	Publish(ctx, NewAdminActionEvent(AdminActionData{
		AdminID:    actor.UserID,
		AdminName:  actor.Name,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		EntityName: entityName,
		IP:         actor.IP,
		UserAgent:  actor.UserAgent,
		Details:    details,
	}))
}

// AdminActionFromEvent extracts the payload of an admin.action event
func AdminActionFromEvent(event Event) (AdminActionData, error) {
	if event.Type != EventAdminAction {
		return AdminActionData{}, fmt.Errorf("unexpected event type %q", event.Type)
	}

	switch v := event.Data["action"].(type) {
	case AdminActionData:
		return v, nil
	case *AdminActionData:
		return *v, nil
	case nil:
		return AdminActionData{}, fmt.Errorf("admin action event carries no payload")
	default:
		// Payloads that went through JSON arrive as generic maps
		raw, err := json.Marshal(v)
		if err != nil {
			return AdminActionData{}, fmt.Errorf("failed to decode admin action: %w", err)
		}
		var data AdminActionData
		if err := json.Unmarshal(raw, &data); err != nil {
			return AdminActionData{}, fmt.Errorf("failed to decode admin action: %w", err)
		}
		return data, nil
	}
}
