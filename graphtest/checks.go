package graphtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-cmp/cmp"

	twinmodel "github.com/go-twinmodel/go-twinmodel"
)

// A check is any function that returns unexpected problems with the given
// store's current state.
type check func(ctx context.Context, g twinmodel.GraphStore) (problem string)

// Checks that the stored instances are exactly as expected, in declaration
// order.
func instances(ids ...string) check {
	return func(ctx context.Context, g twinmodel.GraphStore) string {
		stored, err := g.Instances(ctx)
		if err != nil {
			return fmt.Sprintf("Instances: %v", err)
		}
		got := make([]string, 0, len(stored))
		for _, inst := range stored {
			got = append(got, inst.ID)
		}
		want := ids
		if len(want) == 0 {
			want = nil
		}
		if diff := cmp.Diff(want, got); diff != "" {
			return fmt.Sprintf("Instances mismatch (-want +got):\n%v", diff)
		}
		return ""
	}
}

// Checks that the stored edges are exactly as expected, in insertion order.
func edges(want ...twinmodel.Edge) check {
	return func(ctx context.Context, g twinmodel.GraphStore) string {
		got, err := g.Edges(ctx)
		if err != nil {
			return fmt.Sprintf("Edges: %v", err)
		}
		var w []twinmodel.Edge
		if len(want) > 0 {
			w = want
		}
		if diff := cmp.Diff(w, got); diff != "" {
			return fmt.Sprintf("Edges mismatch (-want +got):\n%v", diff)
		}
		return ""
	}
}

// Checks that the forest built over the store has exactly the expected shape.
//
// Each expectation is a root-to-leaf path, ids separated by '/'. Paths appear
// in depth-first order over the forest, so they pin the root order and the
// child order down to the leaf.
func forest(paths ...string) check {
	return func(ctx context.Context, g twinmodel.GraphStore) string {
		f, err := twinmodel.LoadForest(ctx, g)
		if err != nil {
			return fmt.Sprintf("LoadForest: %v", err)
		}
		got := leafPaths(f)
		want := paths
		if len(want) == 0 {
			want = nil
		}
		if diff := cmp.Diff(want, got); diff != "" {
			return fmt.Sprintf("Forest mismatch (-want +got):\n%v", diff)
		}
		return ""
	}
}

// Checks that building the forest over the store fails with the given
// validation error.
func forestError(want error) check {
	return func(ctx context.Context, g twinmodel.GraphStore) string {
		_, err := twinmodel.LoadForest(ctx, g)
		if err == nil {
			return fmt.Sprintf("LoadForest succeeded, want error %v", want)
		}
		var unknown twinmodel.UnknownEndpointError
		if errors.As(want, &unknown) {
			var got twinmodel.UnknownEndpointError
			if !errors.As(err, &got) {
				return fmt.Sprintf("LoadForest error = %v, want %v", err, want)
			}
			if diff := cmp.Diff(unknown, got); diff != "" {
				return fmt.Sprintf("LoadForest error mismatch (-want +got):\n%v", diff)
			}
			return ""
		}
		if err.Error() != want.Error() {
			return fmt.Sprintf("LoadForest error = %v, want %v", err, want)
		}
		return ""
	}
}

// Checks that the named instance carries the given property value.
func property(id, name string, want any) check {
	return func(ctx context.Context, g twinmodel.GraphStore) string {
		inst, problem := findInstance(ctx, g, id)
		if problem != "" {
			return problem
		}
		got, ok := inst.Properties[name]
		if !ok {
			return fmt.Sprintf("instance %v has no property %q", id, name)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			return fmt.Sprintf("Property %v.%v mismatch (-want +got):\n%v", id, name, diff)
		}
		return ""
	}
}

// Checks that the named instance does not carry the given property. Useful to
// verify that replacing an instance drops its stale properties.
func missingProperty(id, name string) check {
	return func(ctx context.Context, g twinmodel.GraphStore) string {
		inst, problem := findInstance(ctx, g, id)
		if problem != "" {
			return problem
		}
		if v, ok := inst.Properties[name]; ok {
			return fmt.Sprintf("instance %v still has property %q = %v", id, name, v)
		}
		return ""
	}
}

func findInstance(ctx context.Context, g twinmodel.GraphStore, id string) (twinmodel.Instance, string) {
	stored, err := g.Instances(ctx)
	if err != nil {
		return twinmodel.Instance{}, fmt.Sprintf("Instances: %v", err)
	}
	for _, inst := range stored {
		if inst.ID == id {
			return inst, ""
		}
	}
	return twinmodel.Instance{}, fmt.Sprintf("instance %v not found", id)
}

// leafPaths flattens the forest into root-to-leaf paths in depth-first order.
func leafPaths(f *twinmodel.Forest) []string {
	var paths []string
	var descend func(node *twinmodel.TreeNode, prefix string)
	descend = func(node *twinmodel.TreeNode, prefix string) {
		path := node.InstanceID
		if prefix != "" {
			path = prefix + "/" + node.InstanceID
		}
		if len(node.Children) == 0 {
			paths = append(paths, path)
			return
		}
		for _, child := range node.Children {
			descend(child, path)
		}
	}
	for _, root := range f.Roots {
		descend(root, "")
	}
	return paths
}
