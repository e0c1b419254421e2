package hcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/liveui/internal/artifact"
	"github.com/vk/liveui/internal/value"
)

// stateVar is the root variable derived expressions read state through.
const stateVar = "state"

// expression is a derived value's HCL expression, evaluated against the
// owning widget's state variables.
type expression struct {
	hcl.Expression
}

// Evaluate implements artifact.Expression.
func (e expression) Evaluate(state map[string]value.Value) (value.Value, error) {
	vars := make(map[string]cty.Value, len(state))
	for name, v := range state {
		vars[name] = value.ToCty(v)
	}
	ctx := &hcl.EvalContext{Variables: map[string]cty.Value{stateVar: cty.ObjectVal(vars)}}
	cv, diags := e.Value(ctx)
	if diags.HasErrors() {
		return value.Null, diags
	}
	return value.FromCty(cv)
}

func (st *fileState) derived(block *hcl.Block, w *artifact.WidgetDecl) *artifact.DerivedDecl {
	name := block.Labels[0]
	for _, existing := range w.Derived {
		if existing.Name == name {
			st.errorf(block.DefRange, "Duplicate derived value", "Widget %q already declares a derived value named %q.", w.Type, name)
			return nil
		}
	}

	var db derivedBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &db); diags.HasErrors() {
		st.diags = append(st.diags, diags...)
		return nil
	}
	deps, ok := st.dependencies(db.Value, w)
	if !ok {
		return nil
	}

	expr := expression{db.Value}
	initial := make(map[string]value.Value, len(w.State))
	for _, s := range w.State {
		initial[s.Name] = s.Initial
	}
	if _, err := expr.Evaluate(initial); err != nil {
		st.errorf(db.Value.Range(), "Invalid derived value", "Derived value %q cannot be computed from the initial state: %s.", name, err)
		return nil
	}
	return &artifact.DerivedDecl{Name: name, Expr: expr, Dependencies: deps}
}

// dependencies lists the state variables expr reads. Every variable must be
// state.<name> for a variable declared on w.
func (st *fileState) dependencies(expr hcl.Expression, w *artifact.WidgetDecl) ([]string, bool) {
	var deps []string
	seen := make(map[string]bool)
	ok := true
	for _, trav := range expr.Variables() {
		if name, found := stateRef(trav, w); found {
			if !seen[name] {
				seen[name] = true
				deps = append(deps, name)
			}
			continue
		}
		ok = false
		st.errorf(trav.SourceRange(), "Unknown variable", "Derived values may only read this widget's state as %s.<name>.", stateVar)
	}
	return deps, ok
}

func stateRef(trav hcl.Traversal, w *artifact.WidgetDecl) (string, bool) {
	if trav.RootName() != stateVar || len(trav) < 2 {
		return "", false
	}
	attr, ok := trav[1].(hcl.TraverseAttr)
	if !ok {
		return "", false
	}
	for _, s := range w.State {
		if s.Name == attr.Name {
			return attr.Name, true
		}
	}
	return "", false
}
