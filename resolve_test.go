package twinmodel

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func property(name, schema string) ContentItem {
	return ContentItem{Kind: Property, Name: name, Schema: json.RawMessage(`"` + schema + `"`)}
}

func telemetry(name, schema string) ContentItem {
	return ContentItem{Kind: Telemetry, Name: name, Schema: json.RawMessage(`"` + schema + `"`)}
}

func TestResolveFlattensAncestors(t *testing.T) {
	// Motor declares ratedPower and temperature; Pump extends Motor and adds
	// flowRate. The flattened Pump lists the inherited contents first.
	var registry Registry
	registry.Register(Interface{
		ID:       "dtmi:example:Motor;1",
		Contents: []ContentItem{property("ratedPower", "double"), telemetry("temperature", "double")},
	})
	registry.Register(Interface{
		ID:       "dtmi:example:Pump;1",
		Extends:  ExtendsList{"dtmi:example:Motor;1"},
		Contents: []ContentItem{telemetry("flowRate", "double")},
	})

	resolved, err := NewResolver(&registry).Resolve("dtmi:example:Pump;1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := ResolvedInterface{
		ID: "dtmi:example:Pump;1",
		Contents: []ContentItem{
			property("ratedPower", "double"),
			telemetry("temperature", "double"),
			telemetry("flowRate", "double"),
		},
	}
	if diff := cmp.Diff(want, resolved); diff != "" {
		t.Errorf("Resolved mismatch (-want +got):\n%v", diff)
	}
}

func TestResolveOverridesInPlace(t *testing.T) {
	// The child's ratedPower replaces the inherited one without changing its
	// position in the flattened list.
	var registry Registry
	registry.Register(Interface{
		ID:       "dtmi:example:Motor;1",
		Contents: []ContentItem{property("ratedPower", "double"), telemetry("temperature", "double")},
	})
	registry.Register(Interface{
		ID:       "dtmi:example:Pump;1",
		Extends:  ExtendsList{"dtmi:example:Motor;1"},
		Contents: []ContentItem{property("ratedPower", "integer")},
	})

	resolved, err := NewResolver(&registry).Resolve("dtmi:example:Pump;1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := []ContentItem{
		property("ratedPower", "integer"),
		telemetry("temperature", "double"),
	}
	if diff := cmp.Diff(want, resolved.Contents); diff != "" {
		t.Errorf("Contents mismatch (-want +got):\n%v", diff)
	}
}

func TestResolveFirstAncestorWins(t *testing.T) {
	// Two ancestors declare the same name; the first-declared ancestor's item
	// survives in the flattened list.
	var registry Registry
	registry.Register(Interface{
		ID:       "dtmi:example:A;1",
		Contents: []ContentItem{property("shared", "double")},
	})
	registry.Register(Interface{
		ID:       "dtmi:example:B;1",
		Contents: []ContentItem{property("shared", "string"), property("onlyB", "string")},
	})
	registry.Register(Interface{
		ID:      "dtmi:example:C;1",
		Extends: ExtendsList{"dtmi:example:A;1", "dtmi:example:B;1"},
	})

	resolved, err := NewResolver(&registry).Resolve("dtmi:example:C;1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := []ContentItem{
		property("shared", "double"),
		property("onlyB", "string"),
	}
	if diff := cmp.Diff(want, resolved.Contents); diff != "" {
		t.Errorf("Contents mismatch (-want +got):\n%v", diff)
	}
}

func TestResolveDiamond(t *testing.T) {
	// A diamond is not a cycle: both parents extend the same grandparent, and
	// the grandparent's contents appear exactly once.
	var registry Registry
	registry.Register(Interface{
		ID:       "dtmi:example:Base;1",
		Contents: []ContentItem{property("serial", "string")},
	})
	registry.Register(Interface{ID: "dtmi:example:Left;1", Extends: ExtendsList{"dtmi:example:Base;1"}})
	registry.Register(Interface{ID: "dtmi:example:Right;1", Extends: ExtendsList{"dtmi:example:Base;1"}})
	registry.Register(Interface{
		ID:      "dtmi:example:Child;1",
		Extends: ExtendsList{"dtmi:example:Left;1", "dtmi:example:Right;1"},
	})

	resolved, err := NewResolver(&registry).Resolve("dtmi:example:Child;1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(resolved.Contents) != 1 {
		t.Fatalf("len(Contents) = %d, want 1", len(resolved.Contents))
	}
	if resolved.Contents[0].Name != "serial" {
		t.Errorf("Contents[0].Name = %q, want %q", resolved.Contents[0].Name, "serial")
	}
}

func TestResolveErrors(t *testing.T) {
	var registry Registry
	registry.Register(Interface{ID: "dtmi:example:A;1", Extends: ExtendsList{"dtmi:example:B;1"}})
	registry.Register(Interface{ID: "dtmi:example:B;1", Extends: ExtendsList{"dtmi:example:A;1"}})
	registry.Register(Interface{ID: "dtmi:example:Orphan;1", Extends: ExtendsList{"dtmi:example:Gone;1"}})

	resolver := NewResolver(&registry)

	t.Run("NotFound", func(t *testing.T) {
		_, err := resolver.Resolve("dtmi:example:Unknown;1")
		var notFound NotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("Resolve error = %v, want NotFoundError", err)
		}
		if notFound.ID != "dtmi:example:Unknown;1" {
			t.Errorf("NotFoundError.ID = %q, want %q", notFound.ID, "dtmi:example:Unknown;1")
		}
	})

	t.Run("MissingAncestor", func(t *testing.T) {
		_, err := resolver.Resolve("dtmi:example:Orphan;1")
		var missing MissingAncestorError
		if !errors.As(err, &missing) {
			t.Fatalf("Resolve error = %v, want MissingAncestorError", err)
		}
		if missing.Interface != "dtmi:example:Orphan;1" || missing.Ancestor != "dtmi:example:Gone;1" {
			t.Errorf("MissingAncestorError = %+v", missing)
		}
	})

	t.Run("CyclicInheritance", func(t *testing.T) {
		_, err := resolver.Resolve("dtmi:example:A;1")
		var cyclic CyclicInheritanceError
		if !errors.As(err, &cyclic) {
			t.Fatalf("Resolve error = %v, want CyclicInheritanceError", err)
		}
		want := []string{"dtmi:example:A;1", "dtmi:example:B;1", "dtmi:example:A;1"}
		if diff := cmp.Diff(want, cyclic.Path); diff != "" {
			t.Errorf("CyclicInheritanceError.Path mismatch (-want +got):\n%v", diff)
		}
	})
}

func TestResolveInvalidatesOnRegister(t *testing.T) {
	var registry Registry
	registry.Register(Interface{
		ID:       "dtmi:example:Motor;1",
		Contents: []ContentItem{property("ratedPower", "double")},
	})

	resolver := NewResolver(&registry)
	before, err := resolver.Resolve("dtmi:example:Motor;1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := before.Contents[0].SchemaName(); got != "double" {
		t.Fatalf("SchemaName() = %q, want %q", got, "double")
	}

	// Re-registering the same id must evict the memoized resolution.
	registry.Register(Interface{
		ID:       "dtmi:example:Motor;1",
		Contents: []ContentItem{property("ratedPower", "integer")},
	})
	after, err := resolver.Resolve("dtmi:example:Motor;1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := after.Contents[0].SchemaName(); got != "integer" {
		t.Errorf("SchemaName() = %q, want %q", got, "integer")
	}
}
