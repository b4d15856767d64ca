package technique

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vectra-ai-research/halberd/internal/types"
)

// Registry is the process-wide technique catalog. It is populated once at
// bootstrap by explicit Register calls and read-only thereafter; there is
// no unregister operation. Reads are safe for unsynchronized concurrent
// use after initialization, but the registry locks anyway so registration
// order stays deterministic under test.
type Registry struct {
	mu         sync.RWMutex
	techniques map[string]Factory
	order      []string
}

// NewRegistry creates an empty technique registry.
func NewRegistry() *Registry {
	return &Registry{
		techniques: make(map[string]Factory),
		order:      make([]string, 0),
	}
}

// Register adds a technique factory under its declared descriptor ID.
// Returns a TECHNIQUE_DUPLICATE error if the ID is already present; IDs
// must be globally unique across all loaded techniques.
func (r *Registry) Register(factory Factory) error {
	if factory == nil {
		return fmt.Errorf("technique factory cannot be nil")
	}

	desc := factory().Descriptor()
	if err := desc.Validate(); err != nil {
		return fmt.Errorf("invalid technique descriptor: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.techniques[desc.ID]; exists {
		return types.NewError(
			types.TECHNIQUE_DUPLICATE,
			fmt.Sprintf("technique %s already registered", desc.ID),
		)
	}

	r.techniques[desc.ID] = factory
	r.order = append(r.order, desc.ID)
	return nil
}

// Get retrieves a registered technique factory by ID.
// Returns a TECHNIQUE_NOT_FOUND error if absent.
func (r *Registry) Get(id string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.techniques[id]
	if !exists {
		return nil, types.NewError(
			types.TECHNIQUE_NOT_FOUND,
			fmt.Sprintf("technique not found: %s", id),
		)
	}

	return factory, nil
}

// List returns the full catalog keyed by technique ID. The returned map is
// a copy; callers must not depend on iteration order.
func (r *Registry) List() map[string]Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	catalog := make(map[string]Factory, len(r.techniques))
	for id, factory := range r.techniques {
		catalog[id] = factory
	}
	return catalog
}

// Descriptors returns descriptors for all registered techniques in
// registration order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		descriptors = append(descriptors, r.techniques[id]().Descriptor())
	}
	return descriptors
}

// ListBySurface returns descriptors for techniques targeting the given
// attack surface, in registration order.
func (r *Registry) ListBySurface(surface AttackSurface) ([]Descriptor, error) {
	if !surface.IsValid() {
		return nil, fmt.Errorf("invalid attack surface: %s (must be one of %v)", surface, AllSurfaces())
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var descriptors []Descriptor
	for _, id := range r.order {
		desc := r.techniques[id]().Descriptor()
		if desc.Surface == surface {
			descriptors = append(descriptors, desc)
		}
	}
	return descriptors, nil
}

// Tactics returns the sorted, deduplicated set of MITRE tactics across all
// registered techniques, optionally restricted to one surface (empty
// surface means all).
func (r *Registry) Tactics(surface AttackSurface) ([]string, error) {
	var descriptors []Descriptor
	if surface == "" {
		descriptors = r.Descriptors()
	} else {
		var err error
		descriptors, err = r.ListBySurface(surface)
		if err != nil {
			return nil, err
		}
	}

	seen := make(map[string]struct{})
	var tactics []string
	for _, desc := range descriptors {
		for _, tactic := range desc.Tactics() {
			if _, ok := seen[tactic]; ok {
				continue
			}
			seen[tactic] = struct{}{}
			tactics = append(tactics, tactic)
		}
	}

	sort.Strings(tactics)
	return tactics, nil
}

// Len returns the number of registered techniques.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.techniques)
}
