package scene

import (
	"github.com/vk/liveui/internal/backend"
	"github.com/vk/liveui/internal/nodeid"
	"github.com/vk/liveui/internal/value"
)

// Rect is a cached layout rectangle in logical pixels.
type Rect struct {
	X, Y, W, H float64
}

// Node is the live counterpart of a widget node.
type Node struct {
	ID       nodeid.ID
	Type     string
	Props    value.Props
	Parent   nodeid.ID
	Children []nodeid.ID
	Handle   backend.Handle

	// Layout is valid only while LayoutValid is set. Property changes and
	// reorders invalidate it.
	Layout      Rect
	LayoutValid bool
}

func (n *Node) clone() *Node {
	c := *n
	c.Props = n.Props.Clone()
	c.Children = append([]nodeid.ID(nil), n.Children...)
	return &c
}

func (n *Node) indexOf(id nodeid.ID) int {
	for i, ch := range n.Children {
		if ch == id {
			return i
		}
	}
	return -1
}
