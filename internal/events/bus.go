package events

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/logger"
	"github.com/mantonx/streamflow/internal/metrics"
)

// EventBus defines the interface for the event bus system
type EventBus interface {
	// Publish queues an event, failing when ctx is done or the buffer is full
	Publish(ctx context.Context, event Event) error

	// PublishAsync queues an event without waiting
	PublishAsync(event Event) error

	// Subscribe registers handler for events matching filter
	Subscribe(ctx context.Context, filter EventFilter, handler EventHandler) (*Subscription, error)

	// Unsubscribe removes a subscription
	Unsubscribe(subscriptionID string) error

	// GetStats returns event bus statistics
	GetStats() EventStats

	// Start starts the dispatcher
	Start(ctx context.Context) error

	// Stop delivers queued events and stops the dispatcher
	Stop(ctx context.Context) error

	// Health returns an error when the bus is stopped or backed up
	Health() error
}

// eventBus implements EventBus with a buffered channel and one dispatcher goroutine
type eventBus struct {
	config EventBusConfig
	log    hclog.Logger

	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	eventChannel  chan Event
	running       bool
	stopCh        chan struct{}
	wg            sync.WaitGroup

	eventStats EventStats
}

// NewEventBus creates a new event bus instance
func NewEventBus(config EventBusConfig) EventBus {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultEventBusConfig().BufferSize
	}
	return &eventBus{
		config:        config,
		log:           logger.Named("events"),
		subscriptions: make(map[string]*Subscription),
		eventChannel:  make(chan Event, config.BufferSize),
		stopCh:        make(chan struct{}),
		eventStats: EventStats{
			EventsByType: make(map[string]int64),
		},
	}
}

// Start starts the event bus
func (eb *eventBus) Start(ctx context.Context) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.running {
		return fmt.Errorf("event bus is already running")
	}

	eb.running = true
	eb.stopCh = make(chan struct{})

	eb.wg.Add(1)
	go eb.processEvents(ctx)

	eb.log.Info("event bus started", "buffer_size", eb.config.BufferSize)
	return nil
}

// Stop stops the event bus gracefully
func (eb *eventBus) Stop(ctx context.Context) error {
	eb.mu.Lock()
	if !eb.running {
		eb.mu.Unlock()
		return nil
	}
	eb.running = false
	close(eb.stopCh)
	eb.mu.Unlock()

	done := make(chan struct{})
	go func() {
		eb.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		eb.log.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		eb.log.Warn("event bus stop timed out")
		return ctx.Err()
	}
}

// Publish publishes an event to the event bus
func (eb *eventBus) Publish(ctx context.Context, event Event) error {
	event, err := eb.prepare(event)
	if err != nil {
		return err
	}

	select {
	case eb.eventChannel <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		eb.drop(event)
		return fmt.Errorf("event channel full")
	}
}

// PublishAsync publishes an event asynchronously (non-blocking)
func (eb *eventBus) PublishAsync(event Event) error {
	event, err := eb.prepare(event)
	if err != nil {
		return err
	}

	select {
	case eb.eventChannel <- event:
		return nil
	default:
		eb.drop(event)
		return fmt.Errorf("event channel full")
	}
}

func (eb *eventBus) prepare(event Event) (Event, error) {
	eb.mu.RLock()
	running := eb.running
	eb.mu.RUnlock()
	if !running {
		return event, fmt.Errorf("event bus is not running")
	}

	if event.ID == "" {
		event.ID = generateID("")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := validateEvent(event); err != nil {
		return event, fmt.Errorf("invalid event: %w", err)
	}
	return event, nil
}

func (eb *eventBus) drop(event Event) {
	eb.mu.Lock()
	eb.eventStats.DroppedEvents++
	eb.mu.Unlock()

	metrics.EventsPublished.WithLabelValues(string(event.Type), "dropped").Inc()
	eb.log.Warn("event channel full, dropping event", "event_type", event.Type, "event_id", event.ID)
}

// Subscribe subscribes to events matching the filter
func (eb *eventBus) Subscribe(ctx context.Context, filter EventFilter, handler EventHandler) (*Subscription, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()

	subscription := &Subscription{
		ID:      generateID("sub-"),
		Filter:  filter,
		Handler: handler,
		Created: time.Now(),
	}
	eb.subscriptions[subscription.ID] = subscription

	eb.log.Debug("new subscription created", "subscription_id", subscription.ID, "types", filter.Types)
	return subscription, nil
}

// Unsubscribe removes a subscription
func (eb *eventBus) Unsubscribe(subscriptionID string) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if _, exists := eb.subscriptions[subscriptionID]; !exists {
		return fmt.Errorf("subscription not found: %s", subscriptionID)
	}
	delete(eb.subscriptions, subscriptionID)

	eb.log.Debug("subscription removed", "subscription_id", subscriptionID)
	return nil
}

// GetStats returns event bus statistics
func (eb *eventBus) GetStats() EventStats {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	stats := eb.eventStats
	stats.EventsByType = make(map[string]int64, len(eb.eventStats.EventsByType))
	for k, v := range eb.eventStats.EventsByType {
		stats.EventsByType[k] = v
	}
	stats.ActiveSubscriptions = len(eb.subscriptions)
	return stats
}

// Health returns the health status of the event bus
func (eb *eventBus) Health() error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if !eb.running {
		return fmt.Errorf("event bus is not running")
	}

	channelUsage := float64(len(eb.eventChannel)) / float64(cap(eb.eventChannel))
	if channelUsage > 0.9 {
		return fmt.Errorf("event channel is %d%% full", int(channelUsage*100))
	}
	return nil
}

// processEvents dispatches events until stopped, then drains what is queued
func (eb *eventBus) processEvents(ctx context.Context) {
	defer eb.wg.Done()

	for {
		select {
		case <-eb.stopCh:
			eb.drain()
			return
		case <-ctx.Done():
			eb.log.Debug("event processor stopping due to context cancellation")
			return
		case event := <-eb.eventChannel:
			eb.handleEvent(event)
		}
	}
}

func (eb *eventBus) drain() {
	for {
		select {
		case event := <-eb.eventChannel:
			eb.handleEvent(event)
		default:
			return
		}
	}
}

// handleEvent processes a single event
func (eb *eventBus) handleEvent(event Event) {
	eb.mu.Lock()
	eb.eventStats.TotalEvents++
	eb.eventStats.EventsByType[string(event.Type)]++

	var matching []*Subscription
	for _, sub := range eb.subscriptions {
		if MatchesFilter(event, sub.Filter) {
			matching = append(matching, sub)
		}
	}
	eb.mu.Unlock()

	metrics.EventsPublished.WithLabelValues(string(event.Type), "delivered").Inc()

	for _, sub := range matching {
		eb.notifySubscriber(sub, event)
	}
}

// notifySubscriber runs one handler, isolating panics from the dispatcher
func (eb *eventBus) notifySubscriber(subscription *Subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			eb.recordHandlerError()
			eb.log.Error("panic in event handler", "subscription_id", subscription.ID, "error", r, "event_id", event.ID)
		}
	}()

	if err := subscription.Handler(event); err != nil {
		eb.recordHandlerError()
		eb.log.Error("event handler error", "subscription_id", subscription.ID, "error", err, "event_id", event.ID)
		return
	}

	eb.mu.Lock()
	subscription.TriggerCount++
	now := time.Now()
	subscription.LastTriggered = &now
	eb.mu.Unlock()
}

func (eb *eventBus) recordHandlerError() {
	eb.mu.Lock()
	eb.eventStats.HandlerErrors++
	eb.mu.Unlock()
}

func validateEvent(event Event) error {
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if event.Source == "" {
		return fmt.Errorf("event source is required")
	}
	return nil
}

func generateID(prefix string) string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return fmt.Sprintf("%s%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(bytes))
}
