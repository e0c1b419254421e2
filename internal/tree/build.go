package tree

import (
	"sort"

	"github.com/vk/liveui/internal/artifact"
	"github.com/vk/liveui/internal/nodeid"
	"github.com/vk/liveui/internal/value"
)

// Build derives a widget tree from compiled artifacts. Artifacts are
// ordered by path so the result does not depend on compilation order.
//
// Identity rules: top-level widgets of a file live under root.<module>;
// a widget with a declared key gets parent.<key>, any other widget gets
// parent.<Type>[n] where n counts preceding siblings of the same type.
func Build(artifacts []*artifact.Artifact) (*Tree, error) {
	sorted := append([]*artifact.Artifact(nil), artifacts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	root := &Node{ID: nodeid.Root, Type: RootType}
	for _, art := range sorted {
		module := nodeid.Root.Keyed(art.Module)
		root.Children = append(root.Children, buildSiblings(module, art.Widgets, &art.Declarations)...)
	}
	return New(root)
}

func buildSiblings(parent nodeid.ID, decls []*artifact.WidgetDecl, scope *artifact.Declarations) []*Node {
	nodes := make([]*Node, 0, len(decls))
	ordinals := make(map[string]int)
	for _, d := range decls {
		var id nodeid.ID
		if d.Key != "" {
			id = parent.Keyed(d.Key)
		} else {
			id = parent.Positional(d.Type, ordinals[d.Type])
			ordinals[d.Type]++
		}
		nodes = append(nodes, buildWidget(id, d, scope))
	}
	return nodes
}

func buildWidget(id nodeid.ID, d *artifact.WidgetDecl, scope *artifact.Declarations) *Node {
	n := &Node{
		ID:    id,
		Type:  d.Type,
		Props: d.Props.Clone(),
	}
	for _, s := range d.State {
		n.State = append(n.State, StateVar{Name: s.Name, Value: s.Initial, Persistent: s.Persistent})
	}
	for _, name := range d.Machines {
		if m := scope.Machine(name); m != nil {
			n.Machines = append(n.Machines, MachineState{Decl: m, Current: m.Initial})
		}
	}
	for _, name := range d.Animations {
		a := AnimationState{Name: name}
		if decl := scope.Animation(name); decl != nil {
			a.DurationMS = decl.DurationMS
		}
		n.Animations = append(n.Animations, a)
	}
	for _, name := range d.Springs {
		if decl := scope.Spring(name); decl != nil {
			n.Springs = append(n.Springs, SpringState{Decl: decl, Value: decl.Initial, Target: decl.Initial})
		}
	}
	for _, dv := range d.Derived {
		n.Derived = append(n.Derived, DerivedVar{Decl: dv})
	}
	// Derived expressions were checked against the initial state when the
	// file compiled; a failure here leaves the value null.
	_ = n.Recompute()
	n.Children = buildSiblings(id, d.Children, scope)
	return n
}

// Leaf is a convenience constructor for fixtures and synthetic nodes.
func Leaf(id nodeid.ID, typeTag string, props ...value.Prop) *Node {
	return &Node{ID: id, Type: typeTag, Props: value.Props(props)}
}
