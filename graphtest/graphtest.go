/*
Package graphtest provides a suite of tests designed to assess twin graph
stores (e.g. in-memory, neo4j).

The tests operate on the specific graph store via the [twinmodel.GraphStore]
interface to check functional correctness and compliance with the behaviours
defined by that interface.

Call graphtest.Run in its own test to invoke the test-suite:

	func TestEngine(t *testing.T) {
		driver := dbtest.SetupNeo4j(t) // Create the underlying graph database.
		engine, err := neo4jengine.NewEngine(context.Background(), driver, "twins")
		if err != nil {
			t.Fatal(err)
		}
		graphtest.Run(t, engine)
	}

The test cases in this suite focus on the basic store operations:

  - Storing instances and edges, including replaces and re-puts.
  - Reading them back in declaration order.
  - Building validated forests over the stored graph.

So, specific twin graph stores are encouraged to perform additional tests
which are specific to the underlying storage.
*/
package graphtest

import (
	"context"
	"fmt"
	"runtime"
	"testing"

	twinmodel "github.com/go-twinmodel/go-twinmodel"
)

type testCase struct {
	// Subtest name.
	name string
	// A path leading to the test-case's file and line in the source code.
	location string
	// A step executes a single modification on the tested graph store.
	step func(ctx context.Context, g twinmodel.GraphStore) error
	// A list of checks to run on the store after the step has been applied
	// successfully. Keep in mind failing to specify any of instances, edges, or
	// forest causes the test-case to not verify the respective view of the store.
	checks []check
}

var cases = []testCase{
	{
		name:     "empty-store",
		location: locateSource(),
		step: func(ctx context.Context, g twinmodel.GraphStore) error {
			return nil
		},
		checks: []check{
			instances(),
			edges(),
			forest(),
		},
	},
	{
		name:     "first-instance",
		location: locateSource(),
		step: func(ctx context.Context, g twinmodel.GraphStore) error {
			return g.PutInstance(ctx, twinmodel.Instance{ID: "pump-001", ModelID: "dtmi:example:Pump;1"})
		},
		checks: []check{
			instances("pump-001"),
			edges(),
			forest("pump-001"),
		},
	},
	{
		name:     "instance-with-properties",
		location: locateSource(),
		step: func(ctx context.Context, g twinmodel.GraphStore) error {
			return g.PutInstance(ctx, twinmodel.Instance{
				ID:         "tank-001",
				ModelID:    "dtmi:example:Tank;1",
				Properties: map[string]any{"capacity": int64(500)},
			})
		},
		checks: []check{
			instances("pump-001", "tank-001"),
			edges(),
			forest("pump-001", "tank-001"),
		},
	},
	{
		name:     "replace-instance",
		location: locateSource(),
		step: func(ctx context.Context, g twinmodel.GraphStore) error {
			// Re-putting an existing id must replace its record while keeping its
			// declaration position, so stale properties never survive.
			return g.PutInstance(ctx, twinmodel.Instance{
				ID:         "tank-001",
				ModelID:    "dtmi:example:Tank;1",
				Properties: map[string]any{"material": "steel"},
			})
		},
		checks: []check{
			instances("pump-001", "tank-001"),
			property("tank-001", "material", "steel"),
			missingProperty("tank-001", "capacity"),
		},
	},
	{
		name:     "first-edge",
		location: locateSource(),
		step: func(ctx context.Context, g twinmodel.GraphStore) error {
			return g.PutEdge(ctx, twinmodel.Edge{Source: "pump-001", Target: "tank-001"})
		},
		checks: []check{
			instances("pump-001", "tank-001"),
			edges(edge("pump-001", "tank-001")),
			forest("pump-001/tank-001"),
		},
	},
	{
		name:     "duplicate-edge",
		location: locateSource(),
		step: func(ctx context.Context, g twinmodel.GraphStore) error {
			// Re-putting an identical edge has no effect.
			return g.PutEdge(ctx, twinmodel.Edge{Source: "pump-001", Target: "tank-001"})
		},
		checks: []check{
			edges(edge("pump-001", "tank-001")),
			forest("pump-001/tank-001"),
		},
	},
	{
		name:     "edge-before-instance",
		location: locateSource(),
		step: func(ctx context.Context, g twinmodel.GraphStore) error {
			// Stores accept edges ahead of their instances; the forest reports the
			// unknown endpoint until the instance arrives.
			return g.PutEdge(ctx, twinmodel.Edge{Source: "pump-001", Target: "tank-002"})
		},
		checks: []check{
			instances("pump-001", "tank-001"),
			edges(edge("pump-001", "tank-001"), edge("pump-001", "tank-002")),
			forestError(twinmodel.UnknownEndpointError{
				Source:  "pump-001",
				Target:  "tank-002",
				Missing: "tank-002",
			}),
		},
	},
	{
		name:     "late-instance",
		location: locateSource(),
		step: func(ctx context.Context, g twinmodel.GraphStore) error {
			return g.PutInstance(ctx, twinmodel.Instance{ID: "tank-002", ModelID: "dtmi:example:Tank;1"})
		},
		checks: []check{
			instances("pump-001", "tank-001", "tank-002"),
			edges(edge("pump-001", "tank-001"), edge("pump-001", "tank-002")),
			forest("pump-001/tank-001", "pump-001/tank-002"),
		},
	},
	{
		name:     "deeper-tree",
		location: locateSource(),
		step: func(ctx context.Context, g twinmodel.GraphStore) error {
			if err := g.PutInstance(ctx, twinmodel.Instance{ID: "valve-001", ModelID: "dtmi:example:Valve;1"}); err != nil {
				return err
			}
			return g.PutEdge(ctx, twinmodel.Edge{Source: "tank-001", Target: "valve-001"})
		},
		checks: []check{
			instances("pump-001", "tank-001", "tank-002", "valve-001"),
			forest("pump-001/tank-001/valve-001", "pump-001/tank-002"),
		},
	},
}

// Run executes a sequence of test cases on a twin graph store.
//
// We deliberately avoid receiving a contextual argument for each test to ensure
// that the test suite runs under neutral conditions without any external
// influences or timeouts. This approach is consistent across test cases because
// the intention is to test the correctness of operations, not their performance
// or context-dependent behaviours.
//
// The testing process requires all cases to execute in a strict sequence because
// the state of the graph at the end of one test is the starting point for the
// next. This sequential execution is crucial in evaluating whether the state
// progresses correctly over a series of operations, akin to the real-world use
// of a store over time.
func Run(t *testing.T, g twinmodel.GraphStore) {
	t.Helper()

	// We deliberately use the background context because this test-suite does not
	// check performance. Also, store implementations should not depend on specific
	// context values. When this assumption changes, this test-suite will have
	// changes accordingly as well.
	ctx := context.Background()

	// All test-cases run in-order, on the same store, because each case's checks
	// depend on the previous steps. Otherwise, we would not be able to check the
	// continuity of the store across time.
	//
	// That is, a test case cannot run if the previous case had failed.
	for _, c := range cases {
		// We encourage developers to read the source code directly, especially when
		// failures are not clear enough. We'd put a lot of effort into making this suite
		// readable and understandable.
		t.Logf("Read the source for test-case %v at %v", c.name, c.location)
		if err := c.step(ctx, g); err != nil {
			t.Fatalf("Step(%v) failed: %v", c.name, err)
		}
		for _, check := range c.checks {
			if problem := check(ctx, g); problem != "" {
				t.Errorf("Check store after %v: %v", c.name, problem)
			}
		}
	}
}

func edge(source, target string) twinmodel.Edge {
	return twinmodel.Edge{Source: source, Target: target}
}

// Call this function to set the location of every test-case in the source file.
// The returned string is used to guide developers of twin graph stores to the
// appropriate test-case.
func locateSource() (path string) {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		panic("runtime.Caller failed")
	}
	return fmt.Sprintf("%v:%v", file, line)
}
