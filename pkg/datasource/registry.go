package datasource

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Constructor builds an unconnected client for a descriptor of one kind.
type Constructor func(ctx context.Context, d Descriptor) (Client, error)

// Registry selects a Constructor by the descriptor's engine kind.
// It implements Factory and is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	constructors map[Kind]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[Kind]Constructor)}
}

// Register binds a constructor to a kind, replacing any previous binding.
func (r *Registry) Register(kind Kind, c Constructor) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[kind] = c
	return r
}

// Kinds returns the registered kinds in a stable order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.constructors))
	for k := range r.constructors {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// NewClient builds a client for d using the constructor registered for d.Kind.
func (r *Registry) NewClient(ctx context.Context, d Descriptor) (Client, error) {
	r.mu.RLock()
	c, ok := r.constructors[d.Kind]
	r.mu.RUnlock()

	if !ok || c == nil {
		return nil, ConfigurationError(
			fmt.Sprintf("no client registered for engine kind %q", d.Kind),
			ErrUnsupportedKind,
			Fields{"tenant_code": d.TenantCode, "kind": d.Kind},
		)
	}
	return c(ctx, d)
}
