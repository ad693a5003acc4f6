package llm

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bitmason/graphion/pkg/config"
)

// Registry resolves use cases to backend/model routes. The route table is
// admin-updatable at runtime; reads go through a TTL-cached snapshot so the
// hot path takes a read lock only. Explicit invalidation forces the next
// read to refresh.
type Registry struct {
	ttl time.Duration

	mu     sync.RWMutex
	routes map[config.UseCase]config.ModelRoute

	cacheMu  sync.RWMutex
	cached   map[config.UseCase]config.ModelRoute
	cachedAt time.Time
}

// NewRegistry builds a registry from the configured routes and TTL.
func NewRegistry(cfg *config.LLMConfig) *Registry {
	routes := make(map[config.UseCase]config.ModelRoute, len(cfg.Routes))
	for uc, route := range cfg.Routes {
		if route.Backend == "" {
			route.Backend = cfg.DefaultBackend
		}
		routes[uc] = route
	}
	ttl := cfg.RegistryTTL
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Registry{ttl: ttl, routes: routes}
}

// Resolve returns the route for a use case from the cached snapshot,
// refreshing it first when the TTL has lapsed.
func (r *Registry) Resolve(useCase config.UseCase) (config.ModelRoute, error) {
	r.cacheMu.RLock()
	fresh := r.cached != nil && time.Since(r.cachedAt) < r.ttl
	route, ok := r.cached[useCase]
	r.cacheMu.RUnlock()

	if !fresh {
		route, ok = r.refresh(useCase)
	}
	if !ok {
		return config.ModelRoute{}, fmt.Errorf("no model route for use case %q", useCase)
	}
	return route, nil
}

// Routes returns a copy of the current snapshot for the admin surface.
func (r *Registry) Routes() map[config.UseCase]config.ModelRoute {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[config.UseCase]config.ModelRoute, len(r.routes))
	for uc, route := range r.routes {
		out[uc] = route
	}
	return out
}

// SetRoute updates one route in the authoritative table. The cached
// snapshot keeps serving the old route until its TTL lapses or Invalidate
// is called.
func (r *Registry) SetRoute(useCase config.UseCase, route config.ModelRoute) error {
	if !useCase.IsValid() {
		return fmt.Errorf("invalid use case %q", useCase)
	}
	if route.Model == "" {
		return fmt.Errorf("route for %q has no model", useCase)
	}
	r.mu.Lock()
	r.routes[useCase] = route
	r.mu.Unlock()
	slog.Info("Model route updated", "use_case", useCase, "backend", route.Backend, "model", route.Model)
	return nil
}

// Invalidate drops the cached snapshot so the next Resolve re-reads the table.
func (r *Registry) Invalidate() {
	r.cacheMu.Lock()
	r.cached = nil
	r.cachedAt = time.Time{}
	r.cacheMu.Unlock()
	slog.Info("Model registry cache invalidated")
}

func (r *Registry) refresh(useCase config.UseCase) (config.ModelRoute, bool) {
	r.mu.RLock()
	snapshot := make(map[config.UseCase]config.ModelRoute, len(r.routes))
	for uc, route := range r.routes {
		snapshot[uc] = route
	}
	r.mu.RUnlock()

	r.cacheMu.Lock()
	r.cached = snapshot
	r.cachedAt = time.Now()
	r.cacheMu.Unlock()

	route, ok := snapshot[useCase]
	return route, ok
}
