// Package value is the declarative layer's property value model: a closed
// sum over string, number, bool and enum. The zero Value is Null, which is
// only used to mark an attribute that no longer exists.
package value

import (
	"fmt"
	"strconv"
)

// Kind enumerates the variants of Value.
type Kind uint8

const (
	// KindNull marks an absent attribute.
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Value is an immutable property value.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// Null is the absent value.
var Null = Value{}

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Enum returns an enumeration member, identified by name.
func Enum(name string) Value { return Value{kind: KindEnum, str: name} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the absent value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the payload of a String or Enum value.
func (v Value) AsString() (string, bool) {
	if v.kind == KindString || v.kind == KindEnum {
		return v.str, true
	}
	return "", false
}

// AsNumber returns the payload of a Number value.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsBool returns the payload of a Bool value.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Equal reports whether two values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString, KindEnum:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	default:
		return true
	}
}

// String renders v the way it would be written in a source file.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.str)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindEnum:
		return v.str
	default:
		return "null"
	}
}

// GoString implements fmt.GoStringer so test failures stay readable.
func (v Value) GoString() string {
	return fmt.Sprintf("value.%s(%s)", v.kind, v)
}
