// Package artifact defines the typed output of compiling one declarative UI
// source file. An Artifact is immutable once produced; a later compilation
// of the same file supersedes it with a new value rather than mutating it.
package artifact

import (
	"time"

	"github.com/vk/liveui/internal/value"
)

// Artifact is the compiled form of one source file.
type Artifact struct {
	// Path is the source file the artifact was compiled from.
	Path string
	// Module is the identity segment derived from the file name.
	Module string
	Declarations
	// Hash is the content hash of the source bytes.
	Hash Hash
	// CompiledAt records when the parser produced the artifact.
	CompiledAt time.Time
}

// Declarations is what the external parser returns for one file.
type Declarations struct {
	Widgets    []*WidgetDecl
	Machines   []*MachineDecl
	Animations []*AnimationDecl
	Springs    []*SpringDecl
}

// WidgetDecl is one widget declaration, possibly with nested children.
type WidgetDecl struct {
	// Type is the widget type tag, e.g. "Button".
	Type string
	// Key is the optional stable identity declared in source.
	Key        string
	Props      value.Props
	State      []*StateDecl
	Derived    []*DerivedDecl
	Machines   []string
	Animations []string
	Springs    []string
	Children   []*WidgetDecl
	Range      Range
}

// StateDecl declares a state variable. Only Persistent variables survive a
// reload; locals are reinitialized every time.
type StateDecl struct {
	Name       string
	Initial    value.Value
	Persistent bool
}

// Expression computes a derived value from a widget's state variables,
// keyed by variable name.
type Expression interface {
	Evaluate(state map[string]value.Value) (value.Value, error)
}

// DerivedDecl declares a value computed from the widget's state. Derived
// values are never snapshotted; they are recomputed whenever state changes.
type DerivedDecl struct {
	Name         string
	Expr         Expression
	Dependencies []string
}

// MachineDecl declares a finite state machine.
type MachineDecl struct {
	Name        string
	States      []string
	Initial     string
	Transitions []Transition
	Range       Range
}

// Transition moves a machine from one state to another on an event.
type Transition struct {
	Event string
	From  string
	To    string
}

// HasState reports whether s is one of the machine's states.
func (m *MachineDecl) HasState(s string) bool {
	for _, st := range m.States {
		if st == s {
			return true
		}
	}
	return false
}

// Next returns the target state for event fired in state from.
func (m *MachineDecl) Next(from, event string) (string, bool) {
	for _, tr := range m.Transitions {
		if tr.Event == event && tr.From == from {
			return tr.To, true
		}
	}
	return "", false
}

// AnimationDecl declares a named animation.
type AnimationDecl struct {
	Name       string
	DurationMS int
	Easing     string
	Range      Range
}

// SpringDecl declares a damped spring driving a physics-based animation.
type SpringDecl struct {
	Name      string
	Stiffness float64
	Damping   float64
	Mass      float64
	// Initial is both the starting value and the starting target.
	Initial float64
	Range   Range
}

// Machine looks up a machine declared in the artifact.
func (d *Declarations) Machine(name string) *MachineDecl {
	for _, m := range d.Machines {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Animation looks up an animation declared in the artifact.
func (d *Declarations) Animation(name string) *AnimationDecl {
	for _, a := range d.Animations {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Spring looks up a spring declared in the artifact.
func (d *Declarations) Spring(name string) *SpringDecl {
	for _, s := range d.Springs {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Range is a source position.
type Range struct {
	Line   int
	Column int
}
