package hcl

import "github.com/hashicorp/hcl/v2"

// Reserved widget attributes; everything else in a widget body is a property.
const (
	attrKey        = "key"
	attrMachines   = "machines"
	attrAnimations = "animations"
	attrSprings    = "springs"
)

// Defaults applied to animation blocks that omit them.
const (
	defaultDurationMS = 300
	defaultEasing     = "ease-out"

	defaultStiffness = 100
	defaultDamping   = 10
	defaultMass      = 1
)

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "widget", LabelNames: []string{"type"}},
		{Type: "machine", LabelNames: []string{"name"}},
		{Type: "animation", LabelNames: []string{"name"}},
		{Type: "spring", LabelNames: []string{"name"}},
	},
}

var widgetSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: attrKey},
		{Name: attrMachines},
		{Name: attrAnimations},
		{Name: attrSprings},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "widget", LabelNames: []string{"type"}},
		{Type: "state", LabelNames: []string{"name"}},
		{Type: "local", LabelNames: []string{"name"}},
		{Type: "derived", LabelNames: []string{"name"}},
	},
}

// machineBlock is the gohcl schema of a `machine` block body.
type machineBlock struct {
	States      []string           `hcl:"states"`
	Initial     string             `hcl:"initial,optional"`
	Transitions []*transitionBlock `hcl:"transition,block"`
}

type transitionBlock struct {
	Event string `hcl:"event,label"`
	From  string `hcl:"from"`
	To    string `hcl:"to"`
}

// animationBlock is the gohcl schema of an `animation` block body.
type animationBlock struct {
	DurationMS *int    `hcl:"duration_ms,optional"`
	Easing     *string `hcl:"easing,optional"`
}

// stateBlock is the gohcl schema of `state` and `local` block bodies.
type stateBlock struct {
	Initial hcl.Expression `hcl:"initial"`
}

// springBlock is the gohcl schema of a `spring` block body.
type springBlock struct {
	Stiffness *float64 `hcl:"stiffness,optional"`
	Damping   *float64 `hcl:"damping,optional"`
	Mass      *float64 `hcl:"mass,optional"`
	Initial   *float64 `hcl:"initial,optional"`
}

// derivedBlock is the gohcl schema of a `derived` block body.
type derivedBlock struct {
	Value hcl.Expression `hcl:"value"`
}

// reserved reports whether name is a widget attribute with its own meaning.
func reserved(name string) bool {
	for _, a := range widgetSchema.Attributes {
		if a.Name == name {
			return true
		}
	}
	return false
}

// nestedBlock reports whether typ is a block type allowed inside a widget.
func nestedBlock(typ string) bool {
	for _, b := range widgetSchema.Blocks {
		if b.Type == typ {
			return true
		}
	}
	return false
}
