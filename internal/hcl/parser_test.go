package hcl

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/liveui/internal/artifact"
	"github.com/vk/liveui/internal/value"
)

const counterSource = `
machine "toggle" {
  states = ["off", "on"]
  transition "click" {
    from = "off"
    to   = "on"
  }
  transition "click" {
    from = "on"
    to   = "off"
  }
}

animation "fade" {
  duration_ms = 150
}

widget "Container" {
  key        = "main"
  padding    = 8
  align      = center
  machines   = ["toggle"]
  animations = ["fade"]

  state "count" { initial = 0 }
  local "hover" { initial = false }

  widget "Text" { text = "Hello" }
  widget "Button" {
    key   = "inc"
    label = "+"
  }
}
`

func TestParseAndValidate_Counter(t *testing.T) {
	decls, diags := NewParser().ParseAndValidate("main.ui", []byte(counterSource))
	require.False(t, diags.HasErrors(), diags.String())
	require.NotNil(t, decls)

	require.Len(t, decls.Machines, 1)
	m := decls.Machines[0]
	assert.Equal(t, "off", m.Initial, "initial defaults to the first state")
	assert.Len(t, m.Transitions, 2)

	require.Len(t, decls.Animations, 1)
	assert.Equal(t, 150, decls.Animations[0].DurationMS)
	assert.Equal(t, "ease-out", decls.Animations[0].Easing)

	require.Len(t, decls.Widgets, 1)
	w := decls.Widgets[0]
	assert.Equal(t, "Container", w.Type)
	assert.Equal(t, "main", w.Key)
	assert.Equal(t, value.Props{
		{Name: "padding", Value: value.Number(8)},
		{Name: "align", Value: value.Enum("center")},
	}, w.Props)
	assert.Equal(t, []string{"toggle"}, w.Machines)
	assert.Equal(t, []string{"fade"}, w.Animations)

	want := []*artifact.StateDecl{
		{Name: "count", Initial: value.Number(0), Persistent: true},
		{Name: "hover", Initial: value.Bool(false), Persistent: false},
	}
	if diff := cmp.Diff(want, w.State, cmp.Comparer(func(a, b value.Value) bool { return a.Equal(b) })); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, w.Children, 2)
	assert.Equal(t, "Text", w.Children[0].Type)
	assert.Equal(t, "inc", w.Children[1].Key)
}

func TestParseAndValidate_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		line    int
		message string
	}{
		{
			name:    "syntax error",
			src:     "widget \"Text\" {\n  text = \n}\n",
			line:    2,
			message: "",
		},
		{
			name:    "unknown machine",
			src:     "widget \"Button\" {\n  machines = [\"nope\"]\n}\n",
			line:    2,
			message: "No machine named \"nope\"",
		},
		{
			name:    "duplicate sibling key",
			src:     "widget \"Row\" {\n  widget \"Text\" { key = \"a\" }\n  widget \"Text\" { key = \"a\" }\n}\n",
			line:    3,
			message: "Duplicate key",
		},
		{
			name:    "unsupported property type",
			src:     "widget \"Text\" {\n  items = [1, 2]\n}\n",
			line:    2,
			message: "Unsupported value",
		},
		{
			name:    "machine initial not a state",
			src:     "machine \"m\" {\n  states = [\"a\"]\n  initial = \"b\"\n}\n",
			line:    1,
			message: "Initial state \"b\"",
		},
		{
			name:    "invalid spring",
			src:     "spring \"s\" {\n  mass = 0\n}\n",
			line:    1,
			message: "positive stiffness and mass",
		},
		{
			name:    "unknown spring",
			src:     "widget \"Box\" {\n  springs = [\"nope\"]\n}\n",
			line:    2,
			message: "No spring named \"nope\"",
		},
		{
			name:    "derived reads undeclared state",
			src:     "widget \"Box\" {\n  state \"a\" { initial = 1 }\n  derived \"d\" { value = state.b + 1 }\n}\n",
			line:    3,
			message: "may only read this widget's state",
		},
		{
			name:    "derived fails on initial state",
			src:     "widget \"Box\" {\n  state \"a\" { initial = \"x\" }\n  derived \"d\" { value = state.a * 2 }\n}\n",
			line:    3,
			message: "cannot be computed from the initial state",
		},
		{
			name:    "unexpected block",
			src:     "widget \"Text\" {\n  style \"x\" {}\n}\n",
			line:    2,
			message: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decls, diags := NewParser().ParseAndValidate("broken.ui", []byte(tc.src))
			assert.Nil(t, decls)
			require.True(t, diags.HasErrors())

			first := diags.Errors()[0]
			assert.Equal(t, tc.line, first.Line)
			assert.Positive(t, first.Column)
			assert.Contains(t, first.Message, tc.message)
		})
	}
}

func TestParseAndValidate_PositionalSiblingsKeepOrder(t *testing.T) {
	src := `
widget "Column" {
  widget "Text" { text = "a" }
  widget "Button" {}
  widget "Text" { text = "b" }
}
`
	decls, diags := NewParser().ParseAndValidate("list.ui", []byte(src))
	require.False(t, diags.HasErrors(), diags.String())

	var types []string
	for _, c := range decls.Widgets[0].Children {
		types = append(types, c.Type)
	}
	assert.Equal(t, []string{"Text", "Button", "Text"}, types)
}

func TestParseAndValidate_NestedWidgetsKeepProperties(t *testing.T) {
	src := `
widget "Container" {
  padding = 4
  widget "Text" { text = "title" }
  gap = 2
  state "open" { initial = true }
  widget "Button" {
    label = "close"
    local "pressed" { initial = false }
  }
}
`
	decls, diags := NewParser().ParseAndValidate("nested.ui", []byte(src))
	require.False(t, diags.HasErrors(), diags.String())

	w := decls.Widgets[0]
	assert.Equal(t, []string{"padding", "gap"}, w.Props.Names(), "blocks between attributes do not disturb property order")
	require.Len(t, w.State, 1)
	require.Len(t, w.Children, 2)
	button := w.Children[1]
	assert.Equal(t, value.Props{{Name: "label", Value: value.String("close")}}, button.Props)
	require.Len(t, button.State, 1)
	assert.False(t, button.State[0].Persistent)
}

func TestParseAndValidate_SpringsAndDerived(t *testing.T) {
	src := `
spring "slide" {
  stiffness = 170
  initial   = 0.5
}

widget "Panel" {
  springs = ["slide"]
  state "count" { initial = 3 }
  state "name" { initial = "box" }
  derived "double" { value = state.count * 2 }
  derived "title" { value = "${state.name}:${state.count}" }
}
`
	decls, diags := NewParser().ParseAndValidate("motion.ui", []byte(src))
	require.False(t, diags.HasErrors(), diags.String())

	require.Len(t, decls.Springs, 1)
	sp := decls.Spring("slide")
	require.NotNil(t, sp)
	assert.Equal(t, 170.0, sp.Stiffness)
	assert.Equal(t, 10.0, sp.Damping, "damping defaults")
	assert.Equal(t, 1.0, sp.Mass, "mass defaults")
	assert.Equal(t, 0.5, sp.Initial)

	w := decls.Widgets[0]
	assert.Equal(t, []string{"slide"}, w.Springs)
	assert.Empty(t, w.Props, "reserved attributes are not properties")
	require.Len(t, w.Derived, 2)
	assert.Equal(t, []string{"count"}, w.Derived[0].Dependencies)
	assert.Equal(t, []string{"name", "count"}, w.Derived[1].Dependencies)

	v, err := w.Derived[0].Expr.Evaluate(map[string]value.Value{"count": value.Number(21)})
	require.NoError(t, err)
	assert.True(t, v.Equal(value.Number(42)))
	v, err = w.Derived[1].Expr.Evaluate(map[string]value.Value{"count": value.Number(1), "name": value.String("a")})
	require.NoError(t, err)
	assert.True(t, v.Equal(value.String("a:1")))
}
