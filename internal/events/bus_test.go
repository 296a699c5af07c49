package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEventType EventType = "test.info"

func startBus(t *testing.T, size int) EventBus {
	t.Helper()
	bus := NewEventBus(EventBusConfig{BufferSize: size})
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { bus.Stop(context.Background()) })
	return bus
}

func TestPublishDeliversToMatchingSubscribers(t *testing.T) {
	bus := startBus(t, 10)

	var mu sync.Mutex
	var received []EventType

	_, err := bus.Subscribe(context.Background(), EventFilter{Types: []EventType{EventUserCreated}}, func(e Event) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, e.Type)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), NewEvent(EventUserCreated, "system", "created", "")))
	require.NoError(t, bus.Publish(context.Background(), NewEvent(EventUserLoggedIn, "system", "login", "")))

	assert.Eventually(t, func() bool {
		return bus.GetStats().TotalEvents == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []EventType{EventUserCreated}, received)
}

func TestPublishValidation(t *testing.T) {
	bus := startBus(t, 10)

	err := bus.Publish(context.Background(), Event{Source: "system"})
	assert.ErrorContains(t, err, "event type is required")

	err = bus.Publish(context.Background(), Event{Type: EventUserCreated})
	assert.ErrorContains(t, err, "event source is required")
}

func TestPublishWhenStopped(t *testing.T) {
	bus := NewEventBus(DefaultEventBusConfig())
	err := bus.PublishAsync(NewEvent(EventUserCreated, "system", "", ""))
	assert.ErrorContains(t, err, "not running")
	assert.Error(t, bus.Health())
}

func TestFullBufferDropsEvents(t *testing.T) {
	bus := startBus(t, 1)

	block := make(chan struct{})
	_, err := bus.Subscribe(context.Background(), EventFilter{}, func(Event) error {
		<-block
		return nil
	})
	require.NoError(t, err)

	// The first event occupies the dispatcher, the second fills the buffer.
	require.NoError(t, bus.PublishAsync(NewEvent(testEventType, "system", "", "")))
	assert.Eventually(t, func() bool {
		return bus.PublishAsync(NewEvent(testEventType, "system", "", "")) != nil
	}, time.Second, 5*time.Millisecond)

	assert.GreaterOrEqual(t, bus.GetStats().DroppedEvents, int64(1))
	close(block)
}

func TestHandlerErrorsAndPanicsAreIsolated(t *testing.T) {
	bus := startBus(t, 10)

	_, err := bus.Subscribe(context.Background(), EventFilter{}, func(Event) error { return errors.New("boom") })
	require.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), EventFilter{}, func(Event) error { panic("kaboom") })
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), NewEvent(testEventType, "system", "", "")))

	assert.Eventually(t, func() bool {
		return bus.GetStats().HandlerErrors == 2
	}, time.Second, 10*time.Millisecond)
}

func TestStopDrainsQueuedEvents(t *testing.T) {
	bus := NewEventBus(EventBusConfig{BufferSize: 100})
	require.NoError(t, bus.Start(context.Background()))

	var mu sync.Mutex
	count := 0
	_, err := bus.Subscribe(context.Background(), EventFilter{}, func(Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.NoError(t, bus.PublishAsync(NewEvent(testEventType, "system", "", "")))
	}
	require.NoError(t, bus.Stop(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 20, count)
}

func TestUnsubscribe(t *testing.T) {
	bus := startBus(t, 10)

	sub, err := bus.Subscribe(context.Background(), EventFilter{}, func(Event) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, bus.GetStats().ActiveSubscriptions)

	require.NoError(t, bus.Unsubscribe(sub.ID))
	assert.Error(t, bus.Unsubscribe(sub.ID))
	assert.Equal(t, 0, bus.GetStats().ActiveSubscriptions)
}

func TestAdminActionRoundTrip(t *testing.T) {
	data := AdminActionData{
		AdminID:    "admin-1",
		AdminName:  "Root",
		Action:     ActionCreate,
		EntityType: EntityMovie,
		EntityID:   "film-1",
		EntityName: "Heat",
	}

	event := NewAdminActionEvent(data)
	assert.Equal(t, EventAdminAction, event.Type)
	assert.False(t, event.Timestamp.IsZero())

	decoded, err := AdminActionFromEvent(event)
	require.NoError(t, err)
	assert.Equal(t, "Heat", decoded.EntityName)

	// Maps produced by JSON decoding are accepted too
	event.Data["action"] = map[string]interface{}{"admin_id": "admin-2", "action": ActionDelete}
	decoded, err = AdminActionFromEvent(event)
	require.NoError(t, err)
	assert.Equal(t, "admin-2", decoded.AdminID)

	_, err = AdminActionFromEvent(NewEvent(EventUserCreated, "system", "", ""))
	assert.Error(t, err)
}
