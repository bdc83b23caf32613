package twinmodel

import (
	"fmt"
	"strings"
)

// Every structural failure in this package is reported with a concrete error
// type carrying the offending identifier(s), so that callers can present an
// actionable message. A failure aborts the entire resolve or build call; this
// package never silently drops an edge, skips an unknown ancestor, or
// truncates a cycle.

// A NotFoundError reports a referenced interface or instance id absent from
// its store.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("not found: %q", e.ID)
}

// A MissingAncestorError reports an extends target that was never registered.
type MissingAncestorError struct {
	Interface string // The interface whose extends clause is broken.
	Ancestor  string // The ancestor id that is not registered.
}

func (e MissingAncestorError) Error() string {
	return fmt.Sprintf("interface %q extends unregistered ancestor %q", e.Interface, e.Ancestor)
}

// A CyclicInheritanceError reports a cycle in the interface inheritance
// graph. Path lists the ids along the extends walk, ending with the id that
// was revisited.
type CyclicInheritanceError struct {
	Path []string
}

func (e CyclicInheritanceError) Error() string {
	return "cyclic inheritance: " + strings.Join(e.Path, " extends ")
}

// An UnknownEndpointError reports an edge referencing an instance id that is
// not present in the instance store.
type UnknownEndpointError struct {
	Source string
	Target string
	// Missing is whichever endpoint id is unknown (it equals Source or
	// Target).
	Missing string
}

func (e UnknownEndpointError) Error() string {
	return fmt.Sprintf("edge %q -> %q references unknown instance %q", e.Source, e.Target, e.Missing)
}

// A MultipleParentsError reports an instance id targeted by more than one
// edge. Parents lists the sources in input edge order.
type MultipleParentsError struct {
	Target  string
	Parents []string
}

func (e MultipleParentsError) Error() string {
	return fmt.Sprintf("instance %q has multiple parents: %s", e.Target, strings.Join(e.Parents, ", "))
}

// A CycleError reports a cycle in the connection graph. Path lists the
// instance ids along the parent-to-child walk, ending with the id that was
// revisited.
type CycleError struct {
	Path []string
}

func (e CycleError) Error() string {
	return "connection cycle: " + strings.Join(e.Path, " -> ")
}
