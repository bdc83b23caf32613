package twinmodel

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegistry(t *testing.T) {
	var registry Registry

	if _, err := registry.Get("dtmi:example:Motor;1"); !errors.As(err, &NotFoundError{}) {
		t.Errorf("Get(empty registry) error = %v, want NotFoundError", err)
	}

	registry.Register(Interface{ID: "dtmi:example:Motor;1"})
	registry.Register(Interface{ID: "dtmi:example:Pump;1"})
	registry.Register(Interface{ID: "dtmi:example:Tank;1"})

	def, err := registry.Get("dtmi:example:Pump;1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if def.ID != "dtmi:example:Pump;1" {
		t.Errorf("Get returned %v", def.ID)
	}

	want := []string{"dtmi:example:Motor;1", "dtmi:example:Pump;1", "dtmi:example:Tank;1"}
	if diff := cmp.Diff(want, registry.IDs()); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%v", diff)
	}
}

// Re-registering an id replaces its definition but keeps its original
// position, so dependent orderings (resolution, listings) stay put.
func TestRegistryReplaceKeepsPosition(t *testing.T) {
	var registry Registry
	registry.Register(Interface{ID: "dtmi:example:Motor;1"})
	registry.Register(Interface{ID: "dtmi:example:Pump;1"})

	before := registry.Version()
	registry.Register(Interface{ID: "dtmi:example:Motor;1", DisplayName: "Motor"})
	if registry.Version() == before {
		t.Error("Version did not advance on re-registration")
	}

	want := []string{"dtmi:example:Motor;1", "dtmi:example:Pump;1"}
	if diff := cmp.Diff(want, registry.IDs()); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%v", diff)
	}

	def, err := registry.Get("dtmi:example:Motor;1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if def.DisplayName != "Motor" {
		t.Errorf("DisplayName = %q, want %q", def.DisplayName, "Motor")
	}
}

func TestInstanceStore(t *testing.T) {
	var store InstanceStore

	if _, err := store.Get("pump-001"); !errors.As(err, &NotFoundError{}) {
		t.Errorf("Get(empty store) error = %v, want NotFoundError", err)
	}

	store.Add(Instance{ID: "pump-001", ModelID: "dtmi:example:Pump;1"})
	store.Add(Instance{ID: "tank-001", ModelID: "dtmi:example:Tank;1", Properties: map[string]any{"capacity": 500}})

	if got := store.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}

	inst, err := store.Get("tank-001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if inst.Properties["capacity"] != 500 {
		t.Errorf("Properties[capacity] = %v, want 500", inst.Properties["capacity"])
	}

	// Replacing keeps declaration order.
	store.Add(Instance{ID: "pump-001", ModelID: "dtmi:example:Pump;2"})
	want := []string{"pump-001", "tank-001"}
	if diff := cmp.Diff(want, store.IDs()); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%v", diff)
	}
}
