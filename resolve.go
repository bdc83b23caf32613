package twinmodel

import (
	"errors"
	"sync"
)

// A Resolver computes the effective (flattened) content set of registered
// interfaces.
//
// Resolution is a pure function of the Registry at a point in time. The
// Resolver memoizes resolved interfaces keyed by id and discards the whole
// memo whenever the Registry's version changes, so a cached value is never
// served across a registration.
//
// A Resolver is safe for concurrent use.
type Resolver struct {
	registry *Registry

	mu      sync.Mutex
	memo    map[string]ResolvedInterface
	version uint64
}

// NewResolver returns a Resolver reading from the given registry.
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve returns the flattened content list for the interface with the
// given id.
//
// The flattened list contains the ancestors' contents first, in declared
// extends order, followed by the interface's own contents. When a content
// name collides, the item declared closer to the resolved interface wins:
// the interface's own item always overrides any inherited item of the same
// name (keeping the inherited item's position), and among several ancestors
// the first-declared ancestor's item wins. The result is deterministic and
// does not depend on registry iteration order.
//
// Resolve fails with NotFoundError when id is not registered, with
// MissingAncestorError when an extends target was never registered, and with
// CyclicInheritanceError when walking extends revisits an id already on the
// current path.
func (r *Resolver) Resolve(id string) (ResolvedInterface, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v := r.registry.Version(); r.memo == nil || r.version != v {
		r.memo = make(map[string]ResolvedInterface)
		r.version = v
	}
	if resolved, ok := r.memo[id]; ok {
		return resolved, nil
	}

	if _, err := r.registry.Get(id); err != nil {
		return ResolvedInterface{}, err
	}
	return r.resolve(id, nil, make(map[string]bool))
}

// resolve walks the extends chain depth-first. The path and onPath arguments
// track the ids currently being resolved, for cycle detection; base case is
// an interface without ancestors.
func (r *Resolver) resolve(id string, path []string, onPath map[string]bool) (ResolvedInterface, error) {
	if onPath[id] {
		return ResolvedInterface{}, CyclicInheritanceError{Path: append(append([]string{}, path...), id)}
	}

	def, err := r.registry.Get(id)
	if err != nil {
		return ResolvedInterface{}, err
	}

	path = append(path, id)
	onPath[id] = true
	defer delete(onPath, id)

	var flat flattener
	for _, ancestor := range def.Extends {
		resolved, ok := r.memo[ancestor]
		if !ok {
			resolved, err = r.resolve(ancestor, path, onPath)
			var notFound NotFoundError
			if errors.As(err, &notFound) && notFound.ID == ancestor {
				// An absent start id is NotFound, but an absent ancestor is a
				// broken extends clause of the interface being resolved.
				return ResolvedInterface{}, MissingAncestorError{Interface: id, Ancestor: ancestor}
			}
			if err != nil {
				return ResolvedInterface{}, err
			}
		}
		// First-declared ancestor wins ties between ancestors.
		for _, item := range resolved.Contents {
			flat.inherit(item)
		}
	}
	// The interface's own contents always override inherited items of the
	// same name.
	for _, item := range def.Contents {
		flat.override(item)
	}

	resolved := ResolvedInterface{ID: id, Contents: flat.items}
	r.memo[id] = resolved
	return resolved, nil
}

// A flattener accumulates content items under the override rule, keeping a
// stable order: an item occupies the position where its name first appeared.
type flattener struct {
	items []ContentItem
	index map[string]int
}

// inherit adds an inherited item unless an item with the same name is
// already present.
func (f *flattener) inherit(item ContentItem) {
	if f.index == nil {
		f.index = make(map[string]int)
	}
	if _, exists := f.index[item.Name]; exists {
		return
	}
	f.index[item.Name] = len(f.items)
	f.items = append(f.items, item)
}

// override adds an own item, replacing any inherited item of the same name
// in place.
func (f *flattener) override(item ContentItem) {
	if f.index == nil {
		f.index = make(map[string]int)
	}
	if i, exists := f.index[item.Name]; exists {
		f.items[i] = item
		return
	}
	f.index[item.Name] = len(f.items)
	f.items = append(f.items, item)
}
