package twinmodel

import "sync"

// An Instance is a concrete, addressable twin conforming to an interface and
// holding property values.
type Instance struct {
	// ID is an opaque identifier, unique within an InstanceStore.
	ID string `json:"id"`
	// ModelID references an interface definition. Existence in the Registry
	// is not required at creation time; it is checked when the instance is
	// rendered or diagnosed.
	ModelID string `json:"modelId"`
	// Properties maps property names to values. Conformance with the
	// resolved schema is best-effort (see CheckProperties), never a hard
	// gate.
	Properties map[string]any `json:"properties,omitempty"`
}

// An InstanceStore stores twin instances keyed by id, preserving declaration
// order. BuildForest orders roots by this declaration order.
//
// The zero value is ready to use.
//
// An InstanceStore is safe for concurrent use, with the same caveat as the
// Registry: populate it before building, or accept that an in-flight build
// observes either version of the instance set.
type InstanceStore struct {
	mu        sync.Mutex
	instances map[string]Instance
	order     []string
}

// Add inserts the given instance, replacing any existing instance with the
// same id. Replacing keeps the instance's original declaration position.
func (s *InstanceStore) Add(inst Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.instances == nil {
		s.instances = make(map[string]Instance)
	}
	if _, exists := s.instances[inst.ID]; !exists {
		s.order = append(s.order, inst.ID)
	}
	s.instances[inst.ID] = inst
}

// Get returns the instance stored under the given id, or a NotFoundError.
func (s *InstanceStore) Get(id string) (Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[id]
	if !ok {
		return Instance{}, NotFoundError{ID: id}
	}
	return inst, nil
}

// IDs returns the stored instance ids in declaration order. The returned
// slice is a copy.
func (s *InstanceStore) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// Len returns the number of stored instances.
func (s *InstanceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
