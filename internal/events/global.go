package events

import (
	"context"
	"sync"

	"github.com/mantonx/streamflow/internal/logger"
)

var (
	globalBus     EventBus
	globalBusLock sync.RWMutex
)

// SetGlobalEventBus sets the global event bus instance
func SetGlobalEventBus(bus EventBus) {
	globalBusLock.Lock()
	defer globalBusLock.Unlock()
	globalBus = bus
}

// GetGlobalEventBus returns the global event bus instance
func GetGlobalEventBus() EventBus {
	globalBusLock.RLock()
	defer globalBusLock.RUnlock()
	return globalBus
}

// Publish sends event on the global bus if one is running. Failures are logged
// and otherwise ignored since events are advisory.
func Publish(ctx context.Context, event Event) {
	bus := GetGlobalEventBus()
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, event); err != nil {
		logger.Debug("event not published", "type", event.Type, "error", err)
	}
}
