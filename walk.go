package twinmodel

// A Visitor defines a Visit method invoked for each TreeNode encountered by
// Walk. If the result visitor w is not nil, Walk visits each child of the
// node with the visitor w, followed by a call of w.Visit(nil).
type Visitor interface {
	Visit(node *TreeNode) (w Visitor)
}

// Walk traverses a Forest in depth-first order: it calls WalkSubtree(root)
// for each root node of the given forest; the forest must not be nil.
func Walk(v Visitor, forest *Forest) {
	for _, root := range forest.Roots {
		WalkSubtree(v, root)
	}
}

// WalkSubtree traverses a subtree in depth-first order: it starts by calling
// v.Visit(node). If the visitor w returned by v.Visit(node) is not nil,
// WalkSubtree is invoked recursively with visitor w for each child of the
// node, followed by a call of w.Visit(nil).
func WalkSubtree(v Visitor, node *TreeNode) {
	// Start by calling v.Visit(node).
	if v = v.Visit(node); v == nil {
		return
	}
	// Then traverse the children of the given node, depth-first.
	for _, child := range node.Children {
		WalkSubtree(v, child)
	}
	// Finally, call v.Visit(nil).
	v.Visit(nil)
}

type inspector func(node *TreeNode) bool

func (f inspector) Visit(node *TreeNode) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses a Forest in depth-first order: it starts by calling
// f(root) for every root of the given forest; the forest must not be nil. If
// f returns true, Inspect invokes f recursively for each child of the node,
// followed by a call of f(nil).
func Inspect(forest *Forest, f func(node *TreeNode) bool) {
	Walk(inspector(f), forest)
}
