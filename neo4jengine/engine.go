// Package neo4jengine persists twin graphs on a Neo4j database.
//
// Each twin instance maps to a single node labeled Twin, uniquely identified
// by the _twinId property. Connection edges map to CONNECTS relationships
// between such nodes. Properties starting with underscore ('_') are metadata
// for internal use by this package only; the rest carry the instance's
// business properties.
package neo4jengine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/danielorbach/go-component"
	twinmodel "github.com/go-twinmodel/go-twinmodel"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// twinLabel is the label of every node representing a twin instance.
const twinLabel = "Twin"

// Engine provides the basic operations required to maintain a twin graph on
// Neo4j. It implements [twinmodel.GraphStore].
//
// Writes assign each node and relationship a monotonic _seq property, so reads
// can return instances and edges in the order they were first stored. NewEngine
// recovers the sequence counter from the graph, so engines may come and go
// without disturbing that order.
type Engine struct {
	driver   neo4j.DriverWithContext // Connection to the neo4j server/cluster.
	database string                  // Target database name that identifies the specific underlying neo4j graph.
	seq      atomic.Int64            // Source of _seq values; starts past the largest stored _seq.

	// Ensures multiple concurrent write transactions can safely modify the Neo4j
	// graph, while read transactions get an exclusive lock to maintain data
	// integrity.
	txMutex graphWRMutex
}

// NewEngine returns a ready-to-use Engine using the given database as the
// underlying neo4j graph.
//
// The function initialises the Engine's sequence counter from the largest _seq
// property currently stored in the graph.
func NewEngine(ctx context.Context, driver neo4j.DriverWithContext, database string) (*Engine, error) {
	last, err := lastSequence(ctx, driver, database)
	if err != nil {
		return nil, fmt.Errorf("recover sequence counter: %w", err)
	}
	e := &Engine{
		driver:   driver,
		database: database,
	}
	e.seq.Store(last)
	return e, nil
}

// lastSequence returns the largest _seq property stored on any node or
// relationship of the graph, or zero for an empty graph.
func lastSequence(ctx context.Context, driver neo4j.DriverWithContext, database string) (int64, error) {
	s := driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer func() {
		if err := s.Close(ctx); err != nil {
			component.Logger(ctx).Error("Failed to close session", "error", err, "mode", "read")
		}
	}()

	record, err := neo4j.ExecuteRead(ctx, s, func(tx neo4j.ManagedTransaction) (*neo4j.Record, error) {
		result, err := tx.Run(ctx, `
			OPTIONAL MATCH (n:`+twinLabel+`)
			WITH coalesce(max(n._seq), 0) AS nodes
			OPTIONAL MATCH ()-[e:CONNECTS]->()
			RETURN coalesce(max(e._seq), nodes, 0) AS last, nodes
		`, nil)
		if err != nil {
			return nil, fmt.Errorf("run cypher: %w", err)
		}
		return result.Single(ctx)
	})
	if err != nil {
		return 0, err
	}

	last, err := getRecordProperty[int64](record, "last")
	if err != nil {
		return 0, fmt.Errorf("get last: %w", err)
	}
	nodes, err := getRecordProperty[int64](record, "nodes")
	if err != nil {
		return 0, fmt.Errorf("get nodes: %w", err)
	}
	return max(last, nodes), nil
}

// PutInstance stores the given instance as a Twin node keyed by _twinId.
// Re-putting an existing id replaces its business properties wholesale while
// keeping its metadata, so stale properties never survive a replace.
func (e *Engine) PutInstance(ctx context.Context, inst twinmodel.Instance) (err error) {
	ctx, span := tracer.Start(ctx, "PutInstance", trace.WithAttributes(
		attribute.String("neo4j.database", e.database),
		attribute.String("twin.id", inst.ID),
	))
	defer span.End()

	// We open a new session for every query cycle to ensure transactional isolation
	// and to prevent any state carryover between different query executions.
	s := e.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: e.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer func() {
		if err := s.Close(ctx); err != nil {
			component.Logger(ctx).Error("Failed to close session", "error", err, "mode", "write")
		}
	}()

	// We use a special mutex to exclusively either write or read. Multiple
	// concurrent writes are permissible; see graphWRMutex for details.
	e.txMutex.WLock()
	defer e.txMutex.WUnlock()

	props := inst.Properties
	if props == nil {
		props = map[string]any{}
	}

	// SET n = $props clears every property of the node, so the metadata captured
	// into `old` beforehand must be restored afterwards. This gives replace
	// semantics for business properties while keeping _seq and _created_at stable.
	_, err = s.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, `
			MERGE (n:`+twinLabel+` {_twinId: $id})
			ON CREATE SET n._created_at = datetime(), n._seq = $seq
			WITH n, properties(n) AS old
			SET n = $props
			SET n._twinId = $id,
			    n._modelId = $model,
			    n._seq = old['_seq'],
			    n._created_at = old['_created_at'],
			    n._last_modified = datetime()
			RETURN count(n) AS nodes
		`, map[string]any{
			"id":    inst.ID,
			"model": inst.ModelID,
			"props": props,
			"seq":   e.seq.Add(1),
		})
		if err != nil {
			return nil, fmt.Errorf("run cypher: %w", err)
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, fmt.Errorf("query single result: %w", err)
		}
		nodes, err := getRecordProperty[int64](record, "nodes")
		if err != nil {
			return nil, fmt.Errorf("get nodes: %w", err)
		}
		// A single instance is represented by a single node in the underlying graph.
		// If the query creates/updates more than a single node, it implies the
		// underlying graph has lost its integrity, so we cannot continue to operate
		// on it.
		if nodes != 1 {
			panicWithCorruptedGraph(ctx, fmt.Sprintf("put-instance modified %v nodes instead of 1", nodes))
		}
		return nil, nil
	})
	return e.classify(ctx, span, err)
}

// PutEdge stores a CONNECTS relationship between the two endpoint nodes.
// Endpoints that have no instance yet are created as placeholder nodes without
// a _modelId; Instances skips them, and a later PutInstance of the same id
// fills them in.
func (e *Engine) PutEdge(ctx context.Context, edge twinmodel.Edge) (err error) {
	ctx, span := tracer.Start(ctx, "PutEdge", trace.WithAttributes(
		attribute.String("neo4j.database", e.database),
		attribute.String("edge.source", edge.Source),
		attribute.String("edge.target", edge.Target),
	))
	defer span.End()

	s := e.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: e.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer func() {
		if err := s.Close(ctx); err != nil {
			component.Logger(ctx).Error("Failed to close session", "error", err, "mode", "write")
		}
	}()

	e.txMutex.WLock()
	defer e.txMutex.WUnlock()

	_, err = s.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, `
			MERGE (s:`+twinLabel+` {_twinId: $source})
			ON CREATE SET s._created_at = datetime(), s._seq = $sseq
			MERGE (d:`+twinLabel+` {_twinId: $target})
			ON CREATE SET d._created_at = datetime(), d._seq = $dseq
			MERGE (s)-[e:CONNECTS]->(d)
			ON CREATE SET e._created_at = datetime(), e._seq = $eseq
			SET e._last_modified = datetime()
			RETURN count(e) AS edges,
			       (CASE WHEN s._modelId IS NULL THEN 1 ELSE 0 END) +
			       (CASE WHEN d._modelId IS NULL THEN 1 ELSE 0 END) AS placeholders
		`, map[string]any{
			"source": edge.Source,
			"target": edge.Target,
			"sseq":   e.seq.Add(1),
			"dseq":   e.seq.Add(1),
			"eseq":   e.seq.Add(1),
		})
		if err != nil {
			return nil, fmt.Errorf("run cypher: %w", err)
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, fmt.Errorf("query single result: %w", err)
		}
		edges, err := getRecordProperty[int64](record, "edges")
		if err != nil {
			return nil, fmt.Errorf("get edges: %w", err)
		}
		// A single connection is represented by a single relationship in the
		// underlying graph. If the query creates more than a single relationship, it
		// implies the underlying graph has lost its integrity, so we cannot continue
		// to operate on it.
		if edges != 1 {
			panicWithCorruptedGraph(ctx, fmt.Sprintf("put-edge modified %v edges instead of 1", edges))
		}

		placeholders, err := getRecordProperty[int64](record, "placeholders")
		if err != nil {
			return nil, fmt.Errorf("get placeholders: %w", err)
		}
		if placeholders > 0 {
			// Edges stored ahead of their endpoint instances are legal, but a persistent
			// count here suggests a producer that never stores the instances at all.
			placeholderCounter.Add(ctx, placeholders, metric.WithAttributes(
				attribute.String("neo4j.database", e.database),
			))
		}
		return nil, nil
	})
	return e.classify(ctx, span, err)
}

// Instances returns all stored twin instances in the order they were first
// stored. Placeholder nodes created by PutEdge are not instances and are
// skipped.
func (e *Engine) Instances(ctx context.Context) (instances []twinmodel.Instance, err error) {
	ctx, span := tracer.Start(ctx, "Instances", trace.WithAttributes(
		attribute.String("neo4j.database", e.database),
	))
	defer span.End()
	logger := component.Logger(ctx).With("neo4j.database", e.database)

	s := e.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: e.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer func() {
		if err := s.Close(ctx); err != nil {
			logger.Error("Failed to close session", "error", err, "mode", "read")
		}
	}()

	// Acquire an exclusive lock before starting the graph read operation to ensure
	// that the graph state remains consistent and is not being modified by
	// concurrent write transactions. See graphWRMutex documentation for more
	// information.
	e.txMutex.Lock()
	defer e.txMutex.Unlock()

	_, err = s.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, `
			MATCH (n:`+twinLabel+`)
			WHERE n._modelId IS NOT NULL
			RETURN n
			ORDER BY n._seq
		`, nil)
		if err != nil {
			return nil, fmt.Errorf("run cypher: %w", err)
		}
		for result.Next(ctx) {
			node, err := getRecordProperty[neo4j.Node](result.Record(), "n")
			if err != nil {
				return nil, fmt.Errorf("get node: %w", err)
			}
			inst, err := parseInstance(node)
			if err != nil {
				return nil, fmt.Errorf("parse instance: %w", err)
			}
			instances = append(instances, inst)
		}
		// Neo4j's result cursor is exhausted by now. We check its Err method to get
		// the error that caused the iteration to stop, if any.
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("iterate instances: %w", err)
		}
		return nil, nil
	})
	if err := e.classify(ctx, span, err); err != nil {
		return nil, err
	}
	return instances, nil
}

// Edges returns all stored connection edges in the order they were first
// stored.
func (e *Engine) Edges(ctx context.Context) (edges []twinmodel.Edge, err error) {
	ctx, span := tracer.Start(ctx, "Edges", trace.WithAttributes(
		attribute.String("neo4j.database", e.database),
	))
	defer span.End()
	logger := component.Logger(ctx).With("neo4j.database", e.database)

	s := e.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: e.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer func() {
		if err := s.Close(ctx); err != nil {
			logger.Error("Failed to close session", "error", err, "mode", "read")
		}
	}()

	e.txMutex.Lock()
	defer e.txMutex.Unlock()

	_, err = s.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, `
			MATCH (s:`+twinLabel+`)-[e:CONNECTS]->(d:`+twinLabel+`)
			RETURN s._twinId AS source, d._twinId AS target
			ORDER BY e._seq
		`, nil)
		if err != nil {
			return nil, fmt.Errorf("run cypher: %w", err)
		}
		for result.Next(ctx) {
			source, err := getRecordProperty[string](result.Record(), "source")
			if err != nil {
				return nil, fmt.Errorf("get source: %w", err)
			}
			target, err := getRecordProperty[string](result.Record(), "target")
			if err != nil {
				return nil, fmt.Errorf("get target: %w", err)
			}
			edges = append(edges, twinmodel.Edge{Source: source, Target: target})
		}
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("iterate edges: %w", err)
		}
		return nil, nil
	})
	if err := e.classify(ctx, span, err); err != nil {
		return nil, err
	}
	return edges, nil
}

// classify turns errors coming out of a transaction into the error the caller
// sees. Context errors pass through untouched. The typed record errors imply a
// developer changed a Cypher query but missed some code that relied on that
// query, so they cause this function to issue the panic directive.
func (e *Engine) classify(ctx context.Context, span trace.Span, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, errPropertyNotFound) || errors.As(err, &unexpectedPropertyTypeError{}) {
		component.Logger(ctx).Error("A Cypher query was modified without care", "error", err)
		panic(fmt.Errorf("seek developer attention: neo4j cypher query: %w", err))
	}
	span.SetStatus(codes.Error, err.Error())
	return fmt.Errorf("neo4j execute: %w", err)
}

// parseInstance converts a Twin node into a twinmodel.Instance. Properties
// starting with underscore are metadata and are not part of the instance.
func parseInstance(node neo4j.Node) (twinmodel.Instance, error) {
	id, ok := node.Props["_twinId"].(string)
	if !ok {
		return twinmodel.Instance{}, fmt.Errorf("unexpected type: _twinId is %T", node.Props["_twinId"])
	}
	model, ok := node.Props["_modelId"].(string)
	if !ok {
		return twinmodel.Instance{}, fmt.Errorf("unexpected type: _modelId is %T", node.Props["_modelId"])
	}
	inst := twinmodel.Instance{ID: id, ModelID: model}
	for key, value := range node.Props {
		if key[0] == '_' {
			continue
		}
		if inst.Properties == nil {
			inst.Properties = make(map[string]any)
		}
		inst.Properties[key] = value
	}
	return inst, nil
}

// We modify the underlying neo4j graph database in a way that prompts us when
// the graph violates some of our basic constraints.
//
// When we suspect the graph has lost its integrity, we may no longer operate on
// it. In which case, we must immediately stop all operations. This is achieved
// with a panic preceded by telemetry signals (traces and logs) to bring the
// situation to our immediate attention.
func panicWithCorruptedGraph(ctx context.Context, reason string) {
	component.Logger(ctx).ErrorContext(ctx, "Encountered corrupted neo4j graph that violates twin-graph axioms", "error", reason)
	trace.SpanFromContext(ctx).SetStatus(codes.Error, reason)
	panic(fmt.Errorf("neo4j graph violates twin-graph axioms: %v", reason))
}

// A errPropertyNotFound occurs when a property of a record is missing.
//
// When encountering this error, it most likely occurs when changing a Cypher
// query without modifying the surrounding code properly. Expect a panic
// eventually.
var errPropertyNotFound = errors.New("property not found")

// An unexpectedPropertyTypeError occurs when a property of a record has a
// runtime type that is different from the expected type. The error message
// contains the effective type of the property at runtime.
//
// When encountering this error, it most likely occurs when changing a Cypher
// query without modifying dependent code properly. Expect a panic eventually.
type unexpectedPropertyTypeError struct {
	Type reflect.Type // Effective type encountered at runtime.
}

func (e unexpectedPropertyTypeError) Error() string {
	return "unexpected property type: " + e.Type.String()
}

// The recordProperty interface defines generic constraints for supported values
// by getRecordProperty.
//
// These type constraints protect against unsupported neo4j types like int,
// uint32, etc.
//
// This is a subset of all types supported by the neo4j package because listing
// all of them would be troublesome. When a new type is necessary, developers can
// simply add it to the list here.
type recordProperty interface {
	int64 | string | neo4j.Node | []interface{}
}

func getRecordProperty[T recordProperty](record *neo4j.Record, key string) (value T, err error) {
	prop, exists := record.Get(key)
	if !exists {
		return value, errPropertyNotFound
	}
	v, ok := prop.(T)
	if !ok {
		return value, unexpectedPropertyTypeError{Type: reflect.TypeOf(prop)}
	}
	return v, nil
}
