package loader

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vcrobe/spashell/runtime"
)

// Behavior is the per-route code that runs once a route's markup is in
// place. It replaces the script fragment of the route.
type Behavior interface {
	Init(ctx context.Context, page *runtime.PageBase) error
}

// BehaviorFunc adapts a function to Behavior.
type BehaviorFunc func(ctx context.Context, page *runtime.PageBase) error

func (f BehaviorFunc) Init(ctx context.Context, page *runtime.PageBase) error {
	return f(ctx, page)
}

// Registry maps route identifiers to behaviors.
type Registry struct {
	mu        sync.RWMutex
	behaviors map[string]Behavior
}

func NewRegistry() *Registry {
	return &Registry{behaviors: make(map[string]Behavior)}
}

// Register binds b to route. It panics on a nil behavior or a route that is
// already registered, both of which are programming errors.
func (r *Registry) Register(route string, b Behavior) {
	if b == nil {
		panic(fmt.Sprintf("loader: nil behavior for route %q", route))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.behaviors[route]; dup {
		panic(fmt.Sprintf("loader: behavior for route %q registered twice", route))
	}
	r.behaviors[route] = b
}

// Lookup returns the behavior bound to route.
func (r *Registry) Lookup(route string) (Behavior, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.behaviors[route]
	return b, ok
}

// Routes lists registered routes in lexical order.
func (r *Registry) Routes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	routes := make([]string, 0, len(r.behaviors))
	for route := range r.behaviors {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	return routes
}
