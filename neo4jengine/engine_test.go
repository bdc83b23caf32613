package neo4jengine

import (
	"context"
	"testing"

	twinmodel "github.com/go-twinmodel/go-twinmodel"
	"github.com/go-twinmodel/go-twinmodel/graphtest"
	"github.com/go-twinmodel/go-twinmodel/internal/dbtest"
)

func instance(id string) twinmodel.Instance {
	return twinmodel.Instance{ID: id, ModelID: "dtmi:example:Equipment;1"}
}

func TestEngine(t *testing.T) {
	driver := dbtest.SetupNeo4j(t)
	engine, err := NewEngine(context.Background(), driver, "neo4j")
	if err != nil {
		t.Fatal(err)
	}
	graphtest.Run(t, engine)
}

// A fresh engine over an existing graph must continue the sequence counter
// instead of restarting it, otherwise later writes would reorder earlier
// instances.
func TestEngineRecoversSequence(t *testing.T) {
	driver := dbtest.SetupNeo4j(t)
	ctx := context.Background()

	first, err := NewEngine(ctx, driver, "neo4j")
	if err != nil {
		t.Fatal(err)
	}
	if err := first.PutInstance(ctx, instance("pump-001")); err != nil {
		t.Fatal("PutInstance(pump-001):", err)
	}
	if err := first.PutInstance(ctx, instance("tank-001")); err != nil {
		t.Fatal("PutInstance(tank-001):", err)
	}

	second, err := NewEngine(ctx, driver, "neo4j")
	if err != nil {
		t.Fatal(err)
	}
	if err := second.PutInstance(ctx, instance("valve-001")); err != nil {
		t.Fatal("PutInstance(valve-001):", err)
	}

	instances, err := second.Instances(ctx)
	if err != nil {
		t.Fatal("Instances:", err)
	}
	want := []string{"pump-001", "tank-001", "valve-001"}
	if len(instances) != len(want) {
		t.Fatalf("len(instances) = %d, want %d", len(instances), len(want))
	}
	for i, id := range want {
		if instances[i].ID != id {
			t.Errorf("instances[%d].ID = %v, want %v", i, instances[i].ID, id)
		}
	}
}
