package tree

import (
	"fmt"

	"github.com/vk/liveui/internal/nodeid"
)

// Tree is a rooted widget tree with an identity index.
type Tree struct {
	Root  *Node
	index map[nodeid.ID]*Node
}

// New indexes root and checks the structural invariants: identities are
// unique and no node is reachable twice.
func New(root *Node) (*Tree, error) {
	t := &Tree{Root: root, index: make(map[nodeid.ID]*Node)}
	if root == nil {
		return t, nil
	}
	seen := make(map[*Node]struct{})
	var visit func(n *Node) error
	visit = func(n *Node) error {
		if _, ok := seen[n]; ok {
			return &HierarchyError{ID: n.ID, Reason: "node reachable from more than one parent"}
		}
		seen[n] = struct{}{}
		if _, dup := t.index[n.ID]; dup {
			return &DuplicateIdentityError{ID: n.ID}
		}
		t.index[n.ID] = n
		for _, ch := range n.Children {
			if ch == nil {
				return &HierarchyError{ID: n.ID, Reason: "nil child"}
			}
			if err := visit(ch); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(root); err != nil {
		return nil, err
	}
	return t, nil
}

// MustNew is New for trees known to be valid, such as test fixtures.
func MustNew(root *Node) *Tree {
	t, err := New(root)
	if err != nil {
		panic(err)
	}
	return t
}

// Find returns the node with the given identity.
func (t *Tree) Find(id nodeid.ID) (*Node, bool) {
	if t == nil {
		return nil, false
	}
	n, ok := t.index[id]
	return n, ok
}

// Len is the number of nodes in the tree.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.index)
}

// Walk visits every node depth-first, parents before children. Returning
// false from fn skips the node's subtree.
func (t *Tree) Walk(fn func(n *Node, parent *Node) bool) {
	if t == nil || t.Root == nil {
		return
	}
	var visit func(n, parent *Node)
	visit = func(n, parent *Node) {
		if !fn(n, parent) {
			return
		}
		for _, ch := range n.Children {
			visit(ch, n)
		}
	}
	visit(t.Root, nil)
}

// Clone deep-copies the tree.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	// A clone of a valid tree is valid.
	return MustNew(t.Root.Clone())
}

// HierarchyError reports a structural inconsistency in a tree.
type HierarchyError struct {
	ID     nodeid.ID
	Reason string
}

func (e *HierarchyError) Error() string {
	return fmt.Sprintf("hierarchy inconsistency at %q: %s", e.ID, e.Reason)
}

// DuplicateIdentityError reports two nodes sharing one identity.
type DuplicateIdentityError struct {
	ID nodeid.ID
}

func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("duplicate widget identity %q", e.ID)
}
