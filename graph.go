package twinmodel

import (
	"context"
	"sync"
)

// GraphStore defines the operations a hosting system may use to persist and
// recall twin instances and the connection edges between them. Specific
// engines (e.g. Neo4j) implement these primitive operations; the in-memory
// MemoryGraph is the reference implementation.
//
// A GraphStore holds raw inputs only. Validation and forest construction
// always happen on load, through BuildForest, so a store never has to
// guarantee more than faithful round-tripping of instances and edges in
// declaration order.
type GraphStore interface {
	// PutInstance guarantees that by the time it returns with a nil error,
	// the given instance is present in the store. Re-putting an existing id
	// replaces its record while keeping its declaration position.
	PutInstance(ctx context.Context, inst Instance) error

	// PutEdge guarantees that by the time it returns with a nil error, the
	// given edge is present in the store. Edges are kept in insertion order;
	// re-putting an identical edge has no effect. Endpoint existence is NOT
	// checked here: BuildForest reports UnknownEndpointError at load time,
	// so a store accepts edges ahead of their instances.
	PutEdge(ctx context.Context, edge Edge) error

	// Instances returns all stored instances in declaration order.
	Instances(ctx context.Context) ([]Instance, error)

	// Edges returns all stored edges in insertion order.
	Edges(ctx context.Context) ([]Edge, error)
}

// LoadForest reads the given store wholesale and builds the validated forest
// over its contents. It is a convenience composing the GraphStore contract
// with BuildForest; all of BuildForest's validation errors propagate.
func LoadForest(ctx context.Context, g GraphStore) (*Forest, error) {
	instances, err := g.Instances(ctx)
	if err != nil {
		return nil, err
	}
	edges, err := g.Edges(ctx)
	if err != nil {
		return nil, err
	}
	var store InstanceStore
	for _, inst := range instances {
		store.Add(inst)
	}
	return BuildForest(edges, &store)
}

// A MemoryGraph is an in-memory GraphStore. The zero value is ready to use.
//
// A MemoryGraph is safe for concurrent use.
type MemoryGraph struct {
	store InstanceStore

	mu    sync.Mutex
	edges []Edge
}

func (m *MemoryGraph) PutInstance(_ context.Context, inst Instance) error {
	m.store.Add(inst)
	return nil
}

func (m *MemoryGraph) PutEdge(_ context.Context, edge Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.edges {
		if e == edge {
			return nil
		}
	}
	m.edges = append(m.edges, edge)
	return nil
}

func (m *MemoryGraph) Instances(_ context.Context) ([]Instance, error) {
	instances := make([]Instance, 0, m.store.Len())
	for _, id := range m.store.IDs() {
		inst, err := m.store.Get(id)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

func (m *MemoryGraph) Edges(_ context.Context) ([]Edge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	edges := make([]Edge, len(m.edges))
	copy(edges, m.edges)
	return edges, nil
}
