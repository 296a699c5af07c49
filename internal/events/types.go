// Package events provides the in-process event bus modules use to react to
// each other without direct imports.
package events

import (
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// User events
	EventUserCreated   EventType = "user.created"
	EventUserLoggedIn  EventType = "user.logged_in"
	EventUserLoggedOut EventType = "user.logged_out"
	EventUserDeleted   EventType = "user.deleted"

	EventPasswordResetRequested EventType = "user.password_reset_requested"
	EventPasswordReset          EventType = "user.password_reset"

	// Playback events
	EventPlaybackStarted  EventType = "playback.started"
	EventPlaybackProgress EventType = "playback.progress"
	EventEpisodeWatched   EventType = "playback.episode.watched"

	// Billing events
	EventSubscriptionActivated EventType = "subscription.activated"
	EventSubscriptionCanceled  EventType = "subscription.canceled"
	EventSubscriptionExpired   EventType = "subscription.expired"
	EventPaymentFailed         EventType = "subscription.payment_failed"

	// Catalog events
	EventContentChanged EventType = "content.changed"

	// Admin actions, persisted to the activity log
	EventAdminAction EventType = "admin.action"

	// System events
	EventSystemStarted EventType = "system.started"
	EventSystemStopped EventType = "system.stopped"
)

// EventPriority represents the priority level of an event
type EventPriority int

const (
	PriorityLow      EventPriority = 1
	PriorityNormal   EventPriority = 5
	PriorityHigh     EventPriority = 10
	PriorityCritical EventPriority = 20
)

// Event represents a system event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"` // system, module:id, user:id
	Target    string                 `json:"target"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data"`
	Priority  EventPriority          `json:"priority"`
	Tags      []string               `json:"tags"`
	Timestamp time.Time              `json:"timestamp"`
}

// EventHandler represents a function that handles events
type EventHandler func(event Event) error

// EventFilter selects the events a subscription receives. Empty fields match everything.
type EventFilter struct {
	Types   []EventType `json:"types,omitempty"`
	Sources []string    `json:"sources,omitempty"`
}

// Subscription represents an event subscription
type Subscription struct {
	ID            string       `json:"id"`
	Filter        EventFilter  `json:"filter"`
	Handler       EventHandler `json:"-"`
	Created       time.Time    `json:"created"`
	LastTriggered *time.Time   `json:"last_triggered,omitempty"`
	TriggerCount  int64        `json:"trigger_count"`
}

// EventStats represents statistics about events
type EventStats struct {
	TotalEvents         int64            `json:"total_events"`
	DroppedEvents       int64            `json:"dropped_events"`
	HandlerErrors       int64            `json:"handler_errors"`
	EventsByType        map[string]int64 `json:"events_by_type"`
	ActiveSubscriptions int              `json:"active_subscriptions"`
}

// EventBusConfig represents configuration for the event bus
type EventBusConfig struct {
	BufferSize int `json:"buffer_size"`
}

// DefaultEventBusConfig returns default configuration
func DefaultEventBusConfig() EventBusConfig {
	return EventBusConfig{
		BufferSize: 1000,
	}
}

// NewEvent creates a new event with default values
func NewEvent(eventType EventType, source string, title string, message string) Event {
	return Event{
		Type:      eventType,
		Source:    source,
		Title:     title,
		Message:   message,
		Data:      make(map[string]interface{}),
		Priority:  PriorityNormal,
		Tags:      []string{},
		Timestamp: time.Now(),
	}
}

// NewEventWithData creates a new event with structured data
func NewEventWithData(eventType EventType, source string, title string, message string, data map[string]interface{}) Event {
	event := NewEvent(eventType, source, title, message)
	event.Data = data
	return event
}

// NewUserEvent creates an event originating from a user
func NewUserEvent(eventType EventType, userID string, title string, message string) Event {
	return NewEvent(eventType, "user:"+userID, title, message)
}

// MatchesFilter checks if an event matches the given filter
func MatchesFilter(event Event, filter EventFilter) bool {
	if len(filter.Types) > 0 {
		found := false
		for _, t := range filter.Types {
			if event.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(filter.Sources) > 0 {
		found := false
		for _, s := range filter.Sources {
			if event.Source == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}
