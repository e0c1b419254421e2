// Package differ computes the ordered edit list that turns one widget tree
// into another.
//
// Nodes are matched by identity and type tag. For a matched pair the edits
// are emitted in this order, which keeps every insertion index valid when
// the list is replayed front to back:
//
//  1. Updated for the node itself, carrying only changed attributes.
//  2. Removed for children that exist only in the old tree, in old order.
//  3. Edits for matched children, recursively, in new order.
//  4. One Reordered for the parent if the surviving children changed
//     relative order.
//  5. Added for children that exist only in the new tree, by ascending
//     index, each followed by Added edits for its own subtree.
//
// A node whose identity or type changed is never repaired in place: the old
// subtree is removed and the new one added.
package differ

import (
	"github.com/vk/liveui/internal/edit"
	"github.com/vk/liveui/internal/nodeid"
	"github.com/vk/liveui/internal/tree"
	"github.com/vk/liveui/internal/value"
)

// Diff returns the edits that transform old into new. Either tree may be
// nil, meaning empty.
func Diff(old, new *tree.Tree) []edit.Edit {
	var d differ
	var o, n *tree.Node
	if old != nil {
		o = old.Root
	}
	if new != nil {
		n = new.Root
	}
	switch {
	case o == nil && n == nil:
	case o == nil:
		d.addSubtree(n, "", 0)
	case n == nil:
		d.edits = append(d.edits, edit.Removed{ID: o.ID})
	case !o.SameWidget(n):
		d.edits = append(d.edits, edit.Removed{ID: o.ID})
		d.addSubtree(n, "", 0)
	default:
		d.node(o, n)
	}
	return d.edits
}

type differ struct {
	edits []edit.Edit
}

func (d *differ) node(o, n *tree.Node) {
	if before, after := value.Changes(o.Attributes(), n.Attributes()); len(after) > 0 {
		d.edits = append(d.edits, edit.Updated{ID: n.ID, Old: before, New: after})
	}
	d.children(o, n)
}

func (d *differ) children(o, n *tree.Node) {
	oldByID := make(map[nodeid.ID]*tree.Node, len(o.Children))
	for _, ch := range o.Children {
		oldByID[ch.ID] = ch
	}
	matched := make(map[nodeid.ID]*tree.Node, len(n.Children))
	for _, ch := range n.Children {
		if oc, ok := oldByID[ch.ID]; ok && oc.SameWidget(ch) {
			matched[ch.ID] = oc
		}
	}

	var oldOrder []nodeid.ID
	for _, ch := range o.Children {
		if _, ok := matched[ch.ID]; ok {
			oldOrder = append(oldOrder, ch.ID)
			continue
		}
		d.edits = append(d.edits, edit.Removed{ID: ch.ID, Parent: o.ID})
	}

	var newOrder []nodeid.ID
	for _, ch := range n.Children {
		if oc, ok := matched[ch.ID]; ok {
			newOrder = append(newOrder, ch.ID)
			d.node(oc, ch)
		}
	}

	if !sameOrder(oldOrder, newOrder) {
		d.edits = append(d.edits, edit.Reordered{Parent: n.ID, Old: oldOrder, New: newOrder})
	}

	for i, ch := range n.Children {
		if _, ok := matched[ch.ID]; !ok {
			d.addSubtree(ch, n.ID, i)
		}
	}
}

func (d *differ) addSubtree(n *tree.Node, parent nodeid.ID, index int) {
	d.edits = append(d.edits, edit.Added{
		ID:     n.ID,
		Type:   n.Type,
		Parent: parent,
		Index:  index,
		Props:  n.Attributes(),
	})
	for i, ch := range n.Children {
		d.addSubtree(ch, n.ID, i)
	}
}

func sameOrder(a, b []nodeid.ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
