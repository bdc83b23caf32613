package twinmodel

// An Edge declares that the source instance is the tree-parent of the target
// instance.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// A TreeNode is one node of a resolved forest: an instance id plus its
// ordered children.
type TreeNode struct {
	InstanceID string
	Children   []*TreeNode
}

// A Forest is the validated, rooted hierarchy derived from a set of
// connection edges. Every known instance id appears exactly once across the
// forest; no node has two parents and no node is its own descendant, so a
// renderer can traverse it by plain recursion without duplicate suppression
// or depth guards.
type Forest struct {
	Roots []*TreeNode
}

// Len returns the total number of nodes in the forest.
func (f *Forest) Len() int {
	n := 0
	Inspect(f, func(node *TreeNode) bool {
		if node != nil {
			n++
		}
		return true
	})
	return n
}

// BuildForest transforms a flat edge list into a rooted forest over the
// instances known to the given store.
//
// Children of each parent preserve input edge order. Roots are the known
// instances that never appear as a target, ordered by the store's
// declaration order; instances referenced by no edge become single-node
// roots. The result is stable and idempotent: identical inputs yield a
// structurally identical forest.
//
// Validation is fatal and aborts the whole build, reporting the offending
// identifier(s):
//
//   - UnknownEndpointError: an edge references an id absent from the store.
//   - MultipleParentsError: an id is targeted by more than one edge.
//   - CycleError: following parent-to-child edges revisits an instance.
func BuildForest(edges []Edge, store *InstanceStore) (*Forest, error) {
	ids := store.IDs()
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	children := make(map[string][]string)
	parents := make(map[string][]string)
	for _, e := range edges {
		if !known[e.Source] {
			return nil, UnknownEndpointError{Source: e.Source, Target: e.Target, Missing: e.Source}
		}
		if !known[e.Target] {
			return nil, UnknownEndpointError{Source: e.Source, Target: e.Target, Missing: e.Target}
		}
		children[e.Source] = append(children[e.Source], e.Target)
		parents[e.Target] = append(parents[e.Target], e.Source)
	}
	for _, e := range edges {
		if p := parents[e.Target]; len(p) > 1 {
			return nil, MultipleParentsError{Target: e.Target, Parents: p}
		}
	}

	if err := detectCycles(ids, children); err != nil {
		return nil, err
	}

	forest := &Forest{}
	for _, id := range ids {
		if len(parents[id]) == 0 {
			forest.Roots = append(forest.Roots, attach(id, children))
		}
	}
	return forest, nil
}

// attach recursively builds the subtree rooted at id, following the
// per-parent child order established from the edge list. Cycle detection has
// already guaranteed termination.
func attach(id string, children map[string][]string) *TreeNode {
	node := &TreeNode{InstanceID: id}
	for _, child := range children[id] {
		node.Children = append(node.Children, attach(child, children))
	}
	return node
}

// detectCycles runs a depth-first search with a recursion stack over the
// child lists. Starting the search from every instance (in declaration
// order) covers cycles that are unreachable from any root, and keeps the
// reported path deterministic.
func detectCycles(ids []string, children map[string][]string) error {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	var dfs func(id string, path []string) error
	dfs = func(id string, path []string) error {
		visited[id] = true
		onStack[id] = true
		path = append(path, id)

		for _, child := range children[id] {
			if !visited[child] {
				if err := dfs(child, path); err != nil {
					return err
				}
			} else if onStack[child] {
				return CycleError{Path: append(append([]string{}, path...), child)}
			}
		}

		onStack[id] = false
		return nil
	}

	for _, id := range ids {
		if !visited[id] {
			if err := dfs(id, nil); err != nil {
				return err
			}
		}
	}
	return nil
}
