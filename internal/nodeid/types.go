// internal/nodeid/types.go
package nodeid

import (
	"strconv"
	"strings"
)

// RootName is the identity of the synthetic root of every widget tree.
const RootName = "root"

// ID is the canonical string form of an Address. It is the join key used by
// the differ, the snapshot store and the scene adapter.
type ID string

// Root is the identity of the synthetic root node.
const Root ID = RootName

// Segment is one component of an identity: either a declared key, or a
// widget type together with its ordinal among same-typed siblings.
type Segment struct {
	Name  string
	Index int // -1 for a declared key.
}

// Positional reports whether the segment was assigned from declaration
// position rather than an explicit key.
func (s Segment) Positional() bool {
	return s.Index >= 0
}

func (s Segment) String() string {
	if !s.Positional() {
		return s.Name
	}
	return s.Name + "[" + strconv.Itoa(s.Index) + "]"
}

// Address is the parsed form of an ID.
type Address struct {
	Segments []Segment
}

// String joins the segments back into canonical form.
func (a *Address) String() string {
	if a == nil {
		return ""
	}
	parts := make([]string, len(a.Segments))
	for i, s := range a.Segments {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// ID returns the canonical identity for the address.
func (a *Address) ID() ID {
	return ID(a.String())
}

// Last is the segment naming the widget itself.
func (a *Address) Last() Segment {
	return a.Segments[len(a.Segments)-1]
}

// Keyed returns the identity of a child declared with an explicit key.
func (id ID) Keyed(key string) ID {
	return ID(string(id) + "." + key)
}

// Positional returns the identity of the n-th child of the given type.
func (id ID) Positional(typeTag string, n int) ID {
	return ID(string(id) + "." + typeTag + "[" + strconv.Itoa(n) + "]")
}

// Within reports whether id is nested somewhere below parent. Top-level
// widgets sit below root with the module segment in between, so this is a
// prefix check rather than a one-segment parent check.
func (id ID) Within(parent ID) bool {
	return len(id) > len(parent)+1 && strings.HasPrefix(string(id), string(parent)+".")
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}
