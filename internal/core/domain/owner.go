package domain

import (
	"context"
	"sync"
)

// OwnerRef identifies the entity a token acts on behalf of. Ownership
// is polymorphic: any registered kind (user, service, machine, ...)
// may own tokens.
type OwnerRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Key returns the canonical index key for the owner.
func (o OwnerRef) Key() string {
	return o.Kind + "/" + o.ID
}

// IsZero reports whether the reference is empty.
func (o OwnerRef) IsZero() bool {
	return o.Kind == "" || o.ID == ""
}

// OwnerResolver answers existence checks for one owner kind. The
// calling system supplies resolvers for the entity kinds it manages;
// the token service itself holds no owner records.
type OwnerResolver interface {
	// Exists reports whether the owner with the given ID exists.
	Exists(ctx context.Context, id string) (bool, error)
}

// OwnerResolverFunc adapts a function to the OwnerResolver interface.
type OwnerResolverFunc func(ctx context.Context, id string) (bool, error)

// Exists implements OwnerResolver.
func (f OwnerResolverFunc) Exists(ctx context.Context, id string) (bool, error) {
	return f(ctx, id)
}

// OwnerRegistry maps owner kinds to their resolvers.
type OwnerRegistry struct {
	mu        sync.RWMutex
	resolvers map[string]OwnerResolver
}

// NewOwnerRegistry creates an empty registry.
func NewOwnerRegistry() *OwnerRegistry {
	return &OwnerRegistry{resolvers: make(map[string]OwnerResolver)}
}

// Register adds or replaces the resolver for a kind.
func (r *OwnerRegistry) Register(kind string, resolver OwnerResolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[kind] = resolver
}

// Kinds returns the registered owner kinds.
func (r *OwnerRegistry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.resolvers))
	for k := range r.resolvers {
		kinds = append(kinds, k)
	}
	return kinds
}

// Exists checks an owner reference against its kind's resolver.
// Unknown kinds and empty references resolve to ErrOwnerNotFound.
func (r *OwnerRegistry) Exists(ctx context.Context, owner OwnerRef) error {
	if owner.IsZero() {
		return ErrOwnerNotFound.WithDetails("empty owner reference")
	}

	r.mu.RLock()
	resolver, ok := r.resolvers[owner.Kind]
	r.mu.RUnlock()
	if !ok {
		return ErrOwnerNotFound.WithDetails("unknown owner kind: " + owner.Kind)
	}

	exists, err := resolver.Exists(ctx, owner.ID)
	if err != nil {
		return ErrStorage.WithCause(err)
	}
	if !exists {
		return ErrOwnerNotFound.WithDetails(owner.Key())
	}
	return nil
}

// AllowAllResolver accepts any non-empty owner ID. Useful when the
// calling system performs its own existence checks before minting.
type AllowAllResolver struct{}

// Exists implements OwnerResolver.
func (AllowAllResolver) Exists(_ context.Context, id string) (bool, error) {
	return id != "", nil
}
