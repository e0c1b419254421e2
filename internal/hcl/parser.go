package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/vk/liveui/internal/artifact"
)

// Parser is the HCL implementation of the compiler's parser contract.
type Parser struct{}

// NewParser creates a new HCL UI parser.
func NewParser() *Parser {
	return &Parser{}
}

// reference is a machine or animation name used by a widget, kept with its
// position so unresolved names can be reported after the whole file is read.
type reference struct {
	kind string
	name string
	rng  hcl.Range
}

// fileState accumulates declarations and diagnostics for one file.
type fileState struct {
	decls artifact.Declarations
	refs  []reference
	diags hcl.Diagnostics
}

// ParseAndValidate parses one source file into declarations. It never
// returns partially valid declarations: when any error diagnostic is
// produced the declarations are nil.
//
// hclparse.Parser caches files by name, which would pin the first version
// of every file, so the syntax parser is called directly.
func (p *Parser) ParseAndValidate(path string, src []byte) (*artifact.Declarations, artifact.Diagnostics) {
	file, diags := hclsyntax.ParseConfig(src, path, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, convertDiagnostics(diags)
	}

	content, diags := file.Body.Content(fileSchema)
	st := &fileState{diags: diags}

	for _, block := range content.Blocks {
		switch block.Type {
		case "machine":
			st.machine(block)
		case "animation":
			st.animation(block)
		case "spring":
			st.spring(block)
		}
	}
	// Widgets are read last so every reference can be checked against the
	// complete set of machines, animations and springs.
	var keys siblingKeys
	for _, block := range content.Blocks {
		if block.Type == "widget" {
			if w := st.widget(block, &keys); w != nil {
				st.decls.Widgets = append(st.decls.Widgets, w)
			}
		}
	}
	st.resolveReferences()

	if st.diags.HasErrors() {
		return nil, convertDiagnostics(st.diags)
	}
	return &st.decls, convertDiagnostics(st.diags)
}

func (st *fileState) machine(block *hcl.Block) {
	name := block.Labels[0]
	if st.decls.Machine(name) != nil {
		st.errorf(block.DefRange, "Duplicate machine", "A machine named %q was already declared in this file.", name)
		return
	}

	var mb machineBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &mb); diags.HasErrors() {
		st.diags = append(st.diags, diags...)
		return
	}
	if len(mb.States) == 0 {
		st.errorf(block.DefRange, "Invalid machine", "Machine %q must declare at least one state.", name)
		return
	}

	m := &artifact.MachineDecl{
		Name:    name,
		States:  mb.States,
		Initial: mb.Initial,
		Range:   toRange(block.DefRange),
	}
	if m.Initial == "" {
		m.Initial = mb.States[0]
	}
	if !m.HasState(m.Initial) {
		st.errorf(block.DefRange, "Invalid machine", "Initial state %q of machine %q is not one of its states.", m.Initial, name)
		return
	}
	for _, tb := range mb.Transitions {
		if !m.HasState(tb.From) || !m.HasState(tb.To) {
			st.errorf(block.DefRange, "Invalid transition", "Transition %q of machine %q references an unknown state.", tb.Event, name)
			continue
		}
		m.Transitions = append(m.Transitions, artifact.Transition{Event: tb.Event, From: tb.From, To: tb.To})
	}
	st.decls.Machines = append(st.decls.Machines, m)
}

func (st *fileState) animation(block *hcl.Block) {
	name := block.Labels[0]
	if st.decls.Animation(name) != nil {
		st.errorf(block.DefRange, "Duplicate animation", "An animation named %q was already declared in this file.", name)
		return
	}

	var ab animationBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &ab); diags.HasErrors() {
		st.diags = append(st.diags, diags...)
		return
	}

	a := &artifact.AnimationDecl{
		Name:       name,
		DurationMS: defaultDurationMS,
		Easing:     defaultEasing,
		Range:      toRange(block.DefRange),
	}
	if ab.DurationMS != nil {
		if *ab.DurationMS < 0 {
			st.errorf(block.DefRange, "Invalid animation", "Animation %q has a negative duration.", name)
			return
		}
		a.DurationMS = *ab.DurationMS
	}
	if ab.Easing != nil {
		a.Easing = *ab.Easing
	}
	st.decls.Animations = append(st.decls.Animations, a)
}

func (st *fileState) spring(block *hcl.Block) {
	name := block.Labels[0]
	if st.decls.Spring(name) != nil {
		st.errorf(block.DefRange, "Duplicate spring", "A spring named %q was already declared in this file.", name)
		return
	}

	var sb springBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &sb); diags.HasErrors() {
		st.diags = append(st.diags, diags...)
		return
	}

	s := &artifact.SpringDecl{
		Name:      name,
		Stiffness: defaultStiffness,
		Damping:   defaultDamping,
		Mass:      defaultMass,
		Range:     toRange(block.DefRange),
	}
	if sb.Stiffness != nil {
		s.Stiffness = *sb.Stiffness
	}
	if sb.Damping != nil {
		s.Damping = *sb.Damping
	}
	if sb.Mass != nil {
		s.Mass = *sb.Mass
	}
	if sb.Initial != nil {
		s.Initial = *sb.Initial
	}
	if s.Stiffness <= 0 || s.Mass <= 0 || s.Damping < 0 {
		st.errorf(block.DefRange, "Invalid spring", "Spring %q needs a positive stiffness and mass and a non-negative damping.", name)
		return
	}
	st.decls.Springs = append(st.decls.Springs, s)
}

func (st *fileState) resolveReferences() {
	for _, ref := range st.refs {
		var found bool
		switch ref.kind {
		case attrMachines:
			found = st.decls.Machine(ref.name) != nil
		case attrAnimations:
			found = st.decls.Animation(ref.name) != nil
		case attrSprings:
			found = st.decls.Spring(ref.name) != nil
		}
		if !found {
			st.errorf(ref.rng, "Unknown reference", "No %s named %q is declared in this file.", singular(ref.kind), ref.name)
		}
	}
}

func (st *fileState) errorf(rng hcl.Range, summary, format string, args ...any) {
	r := rng
	st.diags = append(st.diags, &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   fmt.Sprintf(format, args...),
		Subject:  &r,
	})
}

func singular(kind string) string {
	switch kind {
	case attrMachines:
		return "machine"
	case attrSprings:
		return "spring"
	default:
		return "animation"
	}
}
