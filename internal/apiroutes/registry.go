// Package apiroutes keeps the list of documented endpoints served at GET /api
package apiroutes

import (
	"sort"
	"sync"
)

// APIRoute defines the structure for an API route entry.
type APIRoute struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
	Module      string `json:"module,omitempty"`
}

var (
	routeRegistry = make([]APIRoute, 0)
	registryMu    sync.RWMutex
)

// Register adds a new route to the API registry.
func Register(path, method, description string) {
	RegisterFor("", path, method, description)
}

// RegisterFor adds a route owned by a module. Registering the same path and
// method again replaces the entry.
func RegisterFor(module, path, method, description string) {
	registryMu.Lock()
	defer registryMu.Unlock()

	route := APIRoute{
		Path:        path,
		Method:      method,
		Description: description,
		Module:      module,
	}
	for i, r := range routeRegistry {
		if r.Path == path && r.Method == method {
			routeRegistry[i] = route
			return
		}
	}
	routeRegistry = append(routeRegistry, route)
}

// Get retrieves a copy of the registry sorted by path then method.
func Get() []APIRoute {
	registryMu.RLock()
	defer registryMu.RUnlock()

	registryCopy := make([]APIRoute, len(routeRegistry))
	copy(registryCopy, routeRegistry)
	sort.SliceStable(registryCopy, func(i, j int) bool {
		if registryCopy[i].Path != registryCopy[j].Path {
			return registryCopy[i].Path < registryCopy[j].Path
		}
		return registryCopy[i].Method < registryCopy[j].Method
	})
	return registryCopy
}

// ClearForTesting removes all registered routes. For use in tests only.
func ClearForTesting() {
	registryMu.Lock()
	defer registryMu.Unlock()
	routeRegistry = make([]APIRoute, 0)
}
