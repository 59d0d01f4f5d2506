package codec

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// field is one framed value of a message, tag already consumed.
type field struct {
	msg string
	num protowire.Number
	typ protowire.Type
	raw []byte
}

// walk visits every field of a message body. Unknown fields are the
// visitor's to ignore; walk has already framed them so skipping is free.
func walk(msg string, b []byte, visit func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return decodeErr(msg, 0, protowire.ParseError(n))
		}
		b = b[n:]
		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return decodeErr(msg, num, protowire.ParseError(m))
		}
		if err := visit(field{msg: msg, num: num, typ: typ, raw: b[:m]}); err != nil {
			return err
		}
		b = b[m:]
	}
	return nil
}

func (f field) wrongType(want protowire.Type) error {
	return decodeErr(f.msg, f.num, fmt.Errorf("wire type %d, want %d", f.typ, want))
}

func (f field) uvarint() (uint64, error) {
	if f.typ != protowire.VarintType {
		return 0, f.wrongType(protowire.VarintType)
	}
	v, n := protowire.ConsumeVarint(f.raw)
	if n < 0 {
		return 0, decodeErr(f.msg, f.num, protowire.ParseError(n))
	}
	return v, nil
}

var errOutOfRange = errors.New("value out of range")

func (f field) outOfRange(v any) error {
	return decodeErr(f.msg, f.num, fmt.Errorf("%w: %v", errOutOfRange, v))
}

func (f field) uvarint8() (uint8, error) {
	v, err := f.uvarint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint8 {
		return 0, f.outOfRange(v)
	}
	return uint8(v), nil
}

func (f field) uvarint32() (uint32, error) {
	v, err := f.uvarint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, f.outOfRange(v)
	}
	return uint32(v), nil
}

func (f field) sint32() (int32, error) {
	v, err := f.sint()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, f.outOfRange(v)
	}
	return int32(v), nil
}

func (f field) sint() (int64, error) {
	v, err := f.uvarint()
	return protowire.DecodeZigZag(v), err
}

func (f field) boolean() (bool, error) {
	v, err := f.uvarint()
	return protowire.DecodeBool(v), err
}

func (f field) fixed64() (uint64, error) {
	if f.typ != protowire.Fixed64Type {
		return 0, f.wrongType(protowire.Fixed64Type)
	}
	v, n := protowire.ConsumeFixed64(f.raw)
	if n < 0 {
		return 0, decodeErr(f.msg, f.num, protowire.ParseError(n))
	}
	return v, nil
}

func (f field) bytes() ([]byte, error) {
	if f.typ != protowire.BytesType {
		return nil, f.wrongType(protowire.BytesType)
	}
	v, n := protowire.ConsumeBytes(f.raw)
	if n < 0 {
		return nil, decodeErr(f.msg, f.num, protowire.ParseError(n))
	}
	return v, nil
}

func (f field) str() (string, error) {
	b, err := f.bytes()
	return string(b), err
}

// sints reads a repeated zigzag field in packed or unpacked form.
func (f field) sints(dst []int64) ([]int64, error) {
	if f.typ == protowire.VarintType {
		v, err := f.sint()
		return append(dst, v), err
	}
	packed, err := f.bytes()
	if err != nil {
		return dst, err
	}
	for len(packed) > 0 {
		v, n := protowire.ConsumeVarint(packed)
		if n < 0 {
			return dst, decodeErr(f.msg, f.num, protowire.ParseError(n))
		}
		dst = append(dst, protowire.DecodeZigZag(v))
		packed = packed[n:]
	}
	return dst, nil
}

func appendUvarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendSint(b []byte, num protowire.Number, v int64) []byte {
	return appendUvarint(b, num, protowire.EncodeZigZag(v))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	return appendUvarint(b, num, protowire.EncodeBool(v))
}

func appendFixed64(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, body []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, body)
}
