// Package edit defines the tree edits produced by the differ and consumed
// by the scene adapter. Edit is a closed set: Updated, Added, Removed and
// Reordered are its only implementations.
package edit

import (
	"fmt"
	"strings"

	"github.com/vk/liveui/internal/nodeid"
	"github.com/vk/liveui/internal/value"
)

// Kind names an edit variant.
type Kind string

const (
	KindUpdated   Kind = "updated"
	KindAdded     Kind = "added"
	KindRemoved   Kind = "removed"
	KindReordered Kind = "reordered"
)

// Edit is one step transforming an old widget tree into a new one.
type Edit interface {
	Kind() Kind
	// Target is the node the edit applies to: the widget itself, or the
	// parent for Reordered.
	Target() nodeid.ID
	fmt.Stringer
	sealed()
}

// Updated changes attributes of an existing node. Old and New hold only the
// changed keys; a Null value in New deletes the attribute.
type Updated struct {
	ID  nodeid.ID
	Old value.Props
	New value.Props
}

// Added creates a node under Parent at child position Index. Props is the
// node's full attribute set.
type Added struct {
	ID     nodeid.ID
	Type   string
	Parent nodeid.ID
	Index  int
	Props  value.Props
}

// Removed destroys a node and everything below it.
type Removed struct {
	ID     nodeid.ID
	Parent nodeid.ID
}

// Reordered permutes the children of Parent. Old and New contain the same
// identities.
type Reordered struct {
	Parent nodeid.ID
	Old    []nodeid.ID
	New    []nodeid.ID
}

func (Updated) Kind() Kind   { return KindUpdated }
func (Added) Kind() Kind     { return KindAdded }
func (Removed) Kind() Kind   { return KindRemoved }
func (Reordered) Kind() Kind { return KindReordered }

func (e Updated) Target() nodeid.ID   { return e.ID }
func (e Added) Target() nodeid.ID     { return e.ID }
func (e Removed) Target() nodeid.ID   { return e.ID }
func (e Reordered) Target() nodeid.ID { return e.Parent }

func (Updated) sealed()   {}
func (Added) sealed()     {}
func (Removed) sealed()   {}
func (Reordered) sealed() {}

func (e Updated) String() string {
	return fmt.Sprintf("Updated(%s, %s)", e.ID, props(e.New))
}

func (e Added) String() string {
	return fmt.Sprintf("Added(%s, %q, %s, %d)", e.ID, e.Type, e.Parent, e.Index)
}

func (e Removed) String() string {
	return fmt.Sprintf("Removed(%s, %s)", e.ID, e.Parent)
}

func (e Reordered) String() string {
	return fmt.Sprintf("Reordered(%s, %v -> %v)", e.Parent, e.Old, e.New)
}

func props(p value.Props) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, prop := range p {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(prop.Name + ":" + prop.Value.String())
	}
	b.WriteByte('}')
	return b.String()
}

// Count tallies a batch by kind.
func Count(edits []Edit) map[Kind]int {
	out := make(map[Kind]int, 4)
	for _, e := range edits {
		out[e.Kind()]++
	}
	return out
}
