// Package twinmodel models industrial equipment as typed digital-twin
// definitions and turns flat connection lists between twin instances into
// validated, navigable trees.
//
// An Interface is a named, inheritable schema declaring the properties,
// telemetry, commands and relationships of a class of equipment. Interfaces
// may extend one another; a Resolver flattens an interface together with
// everything it extends (transitively) into a single effective content list
// with deterministic override semantics.
//
// An Instance is a concrete, addressable twin conforming to an interface and
// holding property values. Directed (source, target) edges between instances
// declare parent-child containment; BuildForest validates the edge list
// (unknown endpoints, multiple parents, cycles) and produces a rooted forest
// that a renderer can traverse safely without defensive guards.
package twinmodel
