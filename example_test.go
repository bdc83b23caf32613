package twinmodel_test

import (
	"fmt"

	twinmodel "github.com/go-twinmodel/go-twinmodel"
)

// This example walks through the whole lifecycle of a small plant model:
// registering interfaces, resolving the inherited contents of a leaf
// interface, and building the instance forest from connection edges.
func Example() {
	// First, we register the interfaces of our plant. Pump extends Motor, so
	// a pump carries the motor's contents in addition to its own.
	var registry twinmodel.Registry
	registry.Register(twinmodel.Interface{
		ID: "dtmi:plant:Motor;1",
		Contents: []twinmodel.ContentItem{
			{Kind: twinmodel.Property, Name: "ratedPower", Schema: []byte(`"double"`)},
			{Kind: twinmodel.Telemetry, Name: "temperature", Schema: []byte(`"double"`)},
		},
	})
	registry.Register(twinmodel.Interface{
		ID:      "dtmi:plant:Pump;1",
		Extends: twinmodel.ExtendsList{"dtmi:plant:Motor;1"},
		Contents: []twinmodel.ContentItem{
			{Kind: twinmodel.Telemetry, Name: "flowRate", Schema: []byte(`"double"`)},
		},
	})

	// Resolving the pump flattens the inheritance chain: inherited contents
	// come first, own contents last.
	resolver := twinmodel.NewResolver(&registry)
	resolved, err := resolver.Resolve("dtmi:plant:Pump;1")
	if err != nil {
		fmt.Println("resolve:", err)
		return
	}
	for _, item := range resolved.Contents {
		fmt.Printf("%s %s\n", item.Kind, item.Name)
	}

	// Next, we declare the physical instances and how they connect. The
	// forest construction validates the edges and roots the hierarchy.
	var store twinmodel.InstanceStore
	store.Add(twinmodel.Instance{ID: "pump-001", ModelID: "dtmi:plant:Pump;1"})
	store.Add(twinmodel.Instance{ID: "tank-001", ModelID: "dtmi:plant:Tank;1"})

	forest, err := twinmodel.BuildForest([]twinmodel.Edge{
		{Source: "pump-001", Target: "tank-001"},
	}, &store)
	if err != nil {
		fmt.Println("build forest:", err)
		return
	}
	for _, root := range forest.Roots {
		fmt.Printf("%s has %d child(ren)\n", root.InstanceID, len(root.Children))
	}

	// Output:
	// Property ratedPower
	// Telemetry temperature
	// Telemetry flowRate
	// pump-001 has 1 child(ren)
}
