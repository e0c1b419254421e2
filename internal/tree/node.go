package tree

import (
	"errors"
	"fmt"
	"math"

	"github.com/vk/liveui/internal/artifact"
	"github.com/vk/liveui/internal/nodeid"
	"github.com/vk/liveui/internal/value"
)

// RootType is the type tag of the synthetic root node.
const RootType = "Root"

// Attribute name prefixes for runtime state.
const (
	StatePrefix     = "state."
	DerivedPrefix   = "derived."
	MachinePrefix   = "machine."
	AnimationPrefix = "anim."
	SpringPrefix    = "spring."
)

// springRest is the distance and speed below which a spring snaps to its
// target and stops.
const springRest = 1e-3

// Node is one widget in the declaration tree.
type Node struct {
	ID         nodeid.ID
	Type       string
	Props      value.Props
	State      []StateVar
	Derived    []DerivedVar
	Machines   []MachineState
	Animations []AnimationState
	Springs    []SpringState
	Children   []*Node
}

// StateVar is a state variable bound to a widget.
type StateVar struct {
	Name       string
	Value      value.Value
	Persistent bool
}

// DerivedVar is a value computed from the widget's state variables.
type DerivedVar struct {
	Decl  *artifact.DerivedDecl
	Value value.Value
}

// MachineState is a widget's instance of a declared state machine.
type MachineState struct {
	Decl    *artifact.MachineDecl
	Current string
}

// AnimationState tracks the progress of an animation, in [0,1].
type AnimationState struct {
	Name       string
	DurationMS int
	Progress   float64
}

// InFlight reports whether the animation has started and not finished.
func (a AnimationState) InFlight() bool {
	return a.Progress > 0 && a.Progress < 1
}

// SpringState is a widget's instance of a declared spring.
type SpringState struct {
	Decl     *artifact.SpringDecl
	Value    float64
	Target   float64
	Velocity float64
}

// InFlight reports whether the spring is still moving toward its target.
func (s SpringState) InFlight() bool {
	return s.Value != s.Target || s.Velocity != 0
}

// Step advances the spring by dt seconds with semi-implicit Euler
// integration, snapping to rest once it is close enough to the target.
func (s *SpringState) Step(dt float64) {
	if !s.InFlight() || dt <= 0 {
		return
	}
	force := -s.Decl.Stiffness*(s.Value-s.Target) - s.Decl.Damping*s.Velocity
	s.Velocity += force / s.Decl.Mass * dt
	s.Value += s.Velocity * dt
	if math.Abs(s.Value-s.Target) < springRest && math.Abs(s.Velocity) < springRest {
		s.Value, s.Velocity = s.Target, 0
	}
}

// Attributes is the node's full attribute map: declared properties followed
// by state variables, derived values, machine states, animation progress
// and spring positions.
func (n *Node) Attributes() value.Props {
	out := make(value.Props, 0, len(n.Props)+len(n.State)+len(n.Derived)+len(n.Machines)+len(n.Animations)+len(n.Springs))
	out = append(out, n.Props...)
	for _, s := range n.State {
		out = append(out, value.Prop{Name: StatePrefix + s.Name, Value: s.Value})
	}
	for _, d := range n.Derived {
		out = append(out, value.Prop{Name: DerivedPrefix + d.Decl.Name, Value: d.Value})
	}
	for _, m := range n.Machines {
		out = append(out, value.Prop{Name: MachinePrefix + m.Decl.Name, Value: value.Enum(m.Current)})
	}
	for _, a := range n.Animations {
		out = append(out, value.Prop{Name: AnimationPrefix + a.Name, Value: value.Number(a.Progress)})
	}
	for _, s := range n.Springs {
		out = append(out, value.Prop{Name: SpringPrefix + s.Decl.Name, Value: value.Number(s.Value)})
	}
	return out
}

// Recompute re-evaluates the derived values from the current state. A value
// that cannot be computed becomes null and its error is returned.
func (n *Node) Recompute() error {
	if len(n.Derived) == 0 {
		return nil
	}
	state := make(map[string]value.Value, len(n.State))
	for _, s := range n.State {
		state[s.Name] = s.Value
	}
	var errs []error
	for i := range n.Derived {
		d := &n.Derived[i]
		v, err := d.Decl.Expr.Evaluate(state)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: derived %s: %w", n.ID, d.Decl.Name, err))
			v = value.Null
		}
		d.Value = v
	}
	return errors.Join(errs...)
}

// StateVar returns the state variable called name.
func (n *Node) StateVar(name string) (*StateVar, bool) {
	for i := range n.State {
		if n.State[i].Name == name {
			return &n.State[i], true
		}
	}
	return nil, false
}

// DerivedVar returns the derived value called name.
func (n *Node) DerivedVar(name string) (*DerivedVar, bool) {
	for i := range n.Derived {
		if n.Derived[i].Decl.Name == name {
			return &n.Derived[i], true
		}
	}
	return nil, false
}

// Machine returns the machine instance called name.
func (n *Node) Machine(name string) (*MachineState, bool) {
	for i := range n.Machines {
		if n.Machines[i].Decl.Name == name {
			return &n.Machines[i], true
		}
	}
	return nil, false
}

// Animation returns the animation instance called name.
func (n *Node) Animation(name string) (*AnimationState, bool) {
	for i := range n.Animations {
		if n.Animations[i].Name == name {
			return &n.Animations[i], true
		}
	}
	return nil, false
}

// Spring returns the spring instance called name.
func (n *Node) Spring(name string) (*SpringState, bool) {
	for i := range n.Springs {
		if n.Springs[i].Decl.Name == name {
			return &n.Springs[i], true
		}
	}
	return nil, false
}

// SameWidget reports whether n and o denote the same logical widget.
func (n *Node) SameWidget(o *Node) bool {
	return n != nil && o != nil && n.ID == o.ID && n.Type == o.Type
}

// Clone deep-copies the node and its subtree. Declarations are shared since
// artifacts are immutable.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		ID:    n.ID,
		Type:  n.Type,
		Props: n.Props.Clone(),
	}
	if n.State != nil {
		c.State = append([]StateVar(nil), n.State...)
	}
	if n.Machines != nil {
		c.Machines = append([]MachineState(nil), n.Machines...)
	}
	if n.Derived != nil {
		c.Derived = append([]DerivedVar(nil), n.Derived...)
	}
	if n.Animations != nil {
		c.Animations = append([]AnimationState(nil), n.Animations...)
	}
	if n.Springs != nil {
		c.Springs = append([]SpringState(nil), n.Springs...)
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return c
}

// ChildIDs lists the identities of the direct children in order.
func (n *Node) ChildIDs() []nodeid.ID {
	ids := make([]nodeid.ID, len(n.Children))
	for i, ch := range n.Children {
		ids[i] = ch.ID
	}
	return ids
}
