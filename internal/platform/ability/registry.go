package ability

import (
	"fmt"
	"sort"
	"sync"
)

// RoleAdmin is the built-in role granting unrestricted access.
const RoleAdmin = "admin"

// RoleHandler populates grants for one role.
type RoleHandler func(u User, b *Builder)

// Registry maps role names to handlers. It is filled at startup and frozen
// before requests are served.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]RoleHandler
	frozen   bool
}

// NewRegistry returns a registry with the admin handler registered.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]RoleHandler)}
	r.handlers[RoleAdmin] = adminHandler
	return r
}

func adminHandler(_ User, b *Builder) {
	b.Can(AnyAction, AnySubject)
}

// Register adds the handler for a role name.
func (r *Registry) Register(name string, h RoleHandler) error {
	if name == "" {
		return fmt.Errorf("register role handler: empty role name")
	}
	if h == nil {
		return fmt.Errorf("register role handler %q: nil handler", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("register role handler %q: %w", name, ErrRegistryFrozen)
	}
	if _, ok := r.handlers[name]; ok {
		return fmt.Errorf("register role handler %q: %w", name, ErrDuplicateRole)
	}
	r.handlers[name] = h
	return nil
}

// Grants registers a handler that adds a fixed list of grants.
func (r *Registry) Grants(name string, grants ...Grant) error {
	fixed := make([]Grant, len(grants))
	copy(fixed, grants)
	return r.Register(name, func(_ User, b *Builder) {
		for _, g := range fixed {
			b.Can(g.Action, g.Subject)
		}
	})
}

// Freeze stops further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Has reports whether a handler is registered for name.
func (r *Registry) Has(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

// Names returns the registered role names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every declared role has a handler. It returns an
// *UnknownRoleHandlerError for the first one that does not.
func (r *Registry) Validate(roleNames []string) error {
	for _, n := range roleNames {
		if !r.Has(n) {
			return &UnknownRoleHandlerError{Role: n}
		}
	}
	return nil
}

func (r *Registry) lookup(name string) (RoleHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}
