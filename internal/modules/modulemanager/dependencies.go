package modulemanager

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mantonx/streamflow/internal/logger"
)

// DependencyProvider is implemented by modules that must start after others
type DependencyProvider interface {
	// Dependencies returns the IDs of modules to initialize first
	Dependencies() []string
}

// ServiceProvider is implemented by modules that register services
type ServiceProvider interface {
	ProvidedServices() []string
}

// ServiceConsumer is implemented by modules that look services up in Init
type ServiceConsumer interface {
	RequiredServices() []string
}

// initPlan holds the edges between enabled modules. A required service adds
// an edge to the module providing it.
type initPlan struct {
	modules   map[string]Module
	deps      map[string][]string
	providers map[string]string
	unmet     []string
}

// planInit collects module and service edges. It fails on a duplicate
// service provider or a dependency on a module that is not enabled.
func planInit(modules map[string]Module) (*initPlan, error) {
	p := &initPlan{
		modules:   modules,
		deps:      make(map[string][]string, len(modules)),
		providers: make(map[string]string),
	}

	ids := sortedKeys(modules)
	for _, id := range ids {
		sp, ok := modules[id].(ServiceProvider)
		if !ok {
			continue
		}
		for _, name := range sp.ProvidedServices() {
			if other, taken := p.providers[name]; taken {
				return nil, fmt.Errorf("service '%s' is provided by both %s and %s", name, other, id)
			}
			p.providers[name] = id
		}
	}

	for _, id := range ids {
		seen := map[string]bool{}
		add := func(dep string) {
			if dep != id && !seen[dep] {
				seen[dep] = true
				p.deps[id] = append(p.deps[id], dep)
			}
		}

		if dp, ok := modules[id].(DependencyProvider); ok {
			for _, dep := range dp.Dependencies() {
				if _, exists := modules[dep]; !exists {
					return nil, fmt.Errorf("module %s depends on %s, which is not registered or is disabled", id, dep)
				}
				add(dep)
			}
		}
		if sc, ok := modules[id].(ServiceConsumer); ok {
			for _, name := range sc.RequiredServices() {
				provider, found := p.providers[name]
				if !found {
					p.unmet = append(p.unmet, fmt.Sprintf("%s requires service '%s'", id, name))
					continue
				}
				logger.Debug("module depends on service provider", "module", id, "provider", provider, "service", name)
				add(provider)
			}
		}
		sort.Strings(p.deps[id])
	}
	return p, nil
}

// order sorts modules so each comes after everything it depends on. Ties
// break by module ID so startup order is stable.
func (p *initPlan) order() ([]Module, error) {
	pending := make(map[string]int, len(p.modules))
	dependents := make(map[string][]string)
	for id := range p.modules {
		pending[id] = len(p.deps[id])
		for _, dep := range p.deps[id] {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var ready []string
	for id, n := range pending {
		if n == 0 {
			ready = append(ready, id)
		}
	}

	out := make([]Module, 0, len(p.modules))
	for len(ready) > 0 {
		sort.Strings(ready)
		id := ready[0]
		ready = ready[1:]
		out = append(out, p.modules[id])
		delete(pending, id)

		for _, next := range dependents[id] {
			pending[next]--
			if pending[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(pending) > 0 {
		return nil, fmt.Errorf("circular dependency detected: %s", p.cycle(pending))
	}
	return out, nil
}

// cycle walks dependencies among the unresolved modules until one repeats
func (p *initPlan) cycle(pending map[string]int) string {
	start := sortedKeys(pending)[0]
	var path []string
	at := map[string]int{}
	for id := start; ; {
		if i, seen := at[id]; seen {
			return strings.Join(append(path[i:], id), " -> ")
		}
		at[id] = len(path)
		path = append(path, id)
		for _, dep := range p.deps[id] {
			if _, unresolved := pending[dep]; unresolved {
				id = dep
				break
			}
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
