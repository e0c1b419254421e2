package hcl

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/vk/liveui/internal/artifact"
	"github.com/vk/liveui/internal/nodeid"
	"github.com/vk/liveui/internal/value"
)

// siblingKeys tracks declared keys within one child list.
type siblingKeys map[string]struct{}

func (st *fileState) widget(block *hcl.Block, keys *siblingKeys) *artifact.WidgetDecl {
	typeTag := block.Labels[0]
	if !nodeid.ValidKey(typeTag) {
		st.errorf(block.LabelRanges[0], "Invalid widget type", "Widget type %q may only contain letters, digits, '_' and '-'.", typeTag)
		return nil
	}

	content, remain, diags := block.Body.PartialContent(widgetSchema)
	st.diags = append(st.diags, diags...)

	w := &artifact.WidgetDecl{Type: typeTag, Range: toRange(block.DefRange)}

	if attr, ok := content.Attributes[attrKey]; ok {
		var key string
		if d := gohcl.DecodeExpression(attr.Expr, nil, &key); d.HasErrors() {
			st.diags = append(st.diags, d...)
		} else if !nodeid.ValidKey(key) {
			st.errorf(attr.Range, "Invalid key", "Key %q may only contain letters, digits, '_' and '-'.", key)
		} else {
			if *keys == nil {
				*keys = make(siblingKeys)
			}
			if _, dup := (*keys)[key]; dup {
				st.errorf(attr.Range, "Duplicate key", "Key %q is already used by a sibling widget.", key)
			}
			(*keys)[key] = struct{}{}
			w.Key = key
		}
	}
	w.Machines = st.references(content.Attributes[attrMachines], attrMachines)
	w.Animations = st.references(content.Attributes[attrAnimations], attrAnimations)
	w.Springs = st.references(content.Attributes[attrSprings], attrSprings)

	for _, attr := range st.properties(block.Body, remain) {
		v, ok := st.evaluate(attr.Expr)
		if ok {
			w.Props = append(w.Props, value.Prop{Name: attr.Name, Value: v})
		}
	}

	var childKeys siblingKeys
	for _, b := range content.Blocks {
		switch b.Type {
		case "widget":
			if child := st.widget(b, &childKeys); child != nil {
				w.Children = append(w.Children, child)
			}
		case "state", "local":
			if s := st.state(b, w); s != nil {
				w.State = append(w.State, s)
			}
		}
	}
	// Derived values read state, so they are checked once every state
	// block of the widget has been seen.
	for _, b := range content.Blocks {
		if b.Type == "derived" {
			if d := st.derived(b, w); d != nil {
				w.Derived = append(w.Derived, d)
			}
		}
	}
	return w
}

// properties returns the plain attributes of a widget body in source order.
// Nested widget, state, local and derived blocks belong to the widget
// schema; any other block type is reported.
func (st *fileState) properties(body, remain hcl.Body) []*hcl.Attribute {
	sb, ok := body.(*hclsyntax.Body)
	if !ok {
		attrs, diags := remain.JustAttributes()
		st.diags = append(st.diags, diags...)
		return sortedAttributes(attrs)
	}

	for _, b := range sb.Blocks {
		if !nestedBlock(b.Type) {
			st.errorf(b.DefRange(), "Unexpected block", "Blocks of type %q are not allowed inside a widget.", b.Type)
		}
	}
	attrs := make(hcl.Attributes, len(sb.Attributes))
	for name, a := range sb.Attributes {
		if !reserved(name) {
			attrs[name] = a.AsHCLAttribute()
		}
	}
	return sortedAttributes(attrs)
}

func (st *fileState) state(block *hcl.Block, w *artifact.WidgetDecl) *artifact.StateDecl {
	name := block.Labels[0]
	for _, existing := range w.State {
		if existing.Name == name {
			st.errorf(block.DefRange, "Duplicate state variable", "Widget %q already declares a variable named %q.", w.Type, name)
			return nil
		}
	}

	var sb stateBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &sb); diags.HasErrors() {
		st.diags = append(st.diags, diags...)
		return nil
	}
	v, ok := st.evaluate(sb.Initial)
	if !ok {
		return nil
	}
	return &artifact.StateDecl{Name: name, Initial: v, Persistent: block.Type == "state"}
}

func (st *fileState) references(attr *hcl.Attribute, kind string) []string {
	if attr == nil {
		return nil
	}
	var names []string
	if diags := gohcl.DecodeExpression(attr.Expr, nil, &names); diags.HasErrors() {
		st.diags = append(st.diags, diags...)
		return nil
	}
	for _, n := range names {
		st.refs = append(st.refs, reference{kind: kind, name: n, rng: attr.Range})
	}
	return names
}

// evaluate turns an attribute expression into a value. A bare identifier
// such as `align = center` is an enum member; anything else must evaluate
// without variables to a string, number or bool.
func (st *fileState) evaluate(expr hcl.Expression) (value.Value, bool) {
	if trav, diags := hcl.AbsTraversalForExpr(expr); !diags.HasErrors() && len(trav) == 1 {
		return value.Enum(trav.RootName()), true
	}

	cv, diags := expr.Value(nil)
	if diags.HasErrors() {
		st.diags = append(st.diags, diags...)
		return value.Null, false
	}
	v, err := value.FromCty(cv)
	if err != nil {
		rng := expr.Range()
		st.errorf(rng, "Unsupported value", "%s.", err)
		return value.Null, false
	}
	return v, true
}

func sortedAttributes(attrs hcl.Attributes) []*hcl.Attribute {
	out := make([]*hcl.Attribute, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Range.Start.Byte < out[j].Range.Start.Byte })
	return out
}
