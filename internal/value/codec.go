package value

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	_ msgpack.CustomEncoder = Value{}
	_ msgpack.CustomDecoder = (*Value)(nil)
)

// EncodeMsgpack writes v as a two element array: kind, payload.
func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(2); err != nil {
		return err
	}
	if err := enc.EncodeUint8(uint8(v.kind)); err != nil {
		return err
	}
	switch v.kind {
	case KindString, KindEnum:
		return enc.EncodeString(v.str)
	case KindNumber:
		return enc.EncodeFloat64(v.num)
	case KindBool:
		return enc.EncodeBool(v.b)
	default:
		return enc.EncodeNil()
	}
}

// DecodeMsgpack is the inverse of EncodeMsgpack.
func (v *Value) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != 2 {
		return fmt.Errorf("value: expected 2 elements, got %d", n)
	}
	k, err := dec.DecodeUint8()
	if err != nil {
		return err
	}
	switch Kind(k) {
	case KindString, KindEnum:
		s, err := dec.DecodeString()
		if err != nil {
			return err
		}
		*v = Value{kind: Kind(k), str: s}
	case KindNumber:
		f, err := dec.DecodeFloat64()
		if err != nil {
			return err
		}
		*v = Number(f)
	case KindBool:
		b, err := dec.DecodeBool()
		if err != nil {
			return err
		}
		*v = Bool(b)
	case KindNull:
		if err := dec.DecodeNil(); err != nil {
			return err
		}
		*v = Null
	default:
		return fmt.Errorf("value: unknown kind %d", k)
	}
	return nil
}
