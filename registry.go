package twinmodel

import "sync"

// A Registry stores interface definitions keyed by id.
//
// The zero value is ready to use.
//
// A Registry is safe for concurrent use, but note the contract from the
// Resolver's point of view: all relevant interfaces, including every
// ancestor, must be registered before resolution begins. Registering while a
// resolve call is in flight does not corrupt the Registry, but the resolve
// call may observe either version of the definition set.
type Registry struct {
	mu      sync.Mutex
	defs    map[string]Interface
	order   []string
	version uint64
}

// Register inserts the given definition, replacing any existing definition
// with the same id. Insertion order is preserved for iteration; replacing a
// definition keeps its original position.
func (r *Registry) Register(def Interface) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.defs == nil {
		r.defs = make(map[string]Interface)
	}
	if _, exists := r.defs[def.ID]; !exists {
		r.order = append(r.order, def.ID)
	}
	r.defs[def.ID] = def
	r.version++
}

// Get returns the definition registered under the given id, or a
// NotFoundError.
func (r *Registry) Get(id string) (Interface, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.defs[id]
	if !ok {
		return Interface{}, NotFoundError{ID: id}
	}
	return def, nil
}

// IDs returns the registered interface ids in insertion order. The returned
// slice is a copy.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Version returns a counter that increments on every Register call. Derived
// views (such as the Resolver's memoized resolutions) compare versions to
// decide whether their cached values are still current.
func (r *Registry) Version() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}
