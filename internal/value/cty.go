package value

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// FromCty converts a known, non-null primitive cty value. Enum members do
// not exist in cty; callers produce them from bare identifiers instead.
func FromCty(v cty.Value) (Value, error) {
	if v.IsNull() {
		return Null, fmt.Errorf("value must not be null")
	}
	if !v.IsKnown() {
		return Null, fmt.Errorf("value must be known at compile time")
	}
	switch ty := v.Type(); {
	case ty.Equals(cty.String):
		return String(v.AsString()), nil
	case ty.Equals(cty.Number):
		f, _ := v.AsBigFloat().Float64()
		return Number(f), nil
	case ty.Equals(cty.Bool):
		return Bool(v.True()), nil
	default:
		return Null, fmt.Errorf("unsupported value type %s; expected string, number, bool or enum", ty.FriendlyName())
	}
}

// ToCty converts v back into cty. Enums become strings.
func ToCty(v Value) cty.Value {
	switch v.kind {
	case KindString, KindEnum:
		return cty.StringVal(v.str)
	case KindNumber:
		return cty.NumberFloatVal(v.num)
	case KindBool:
		return cty.BoolVal(v.b)
	default:
		return cty.NullVal(cty.DynamicPseudoType)
	}
}
