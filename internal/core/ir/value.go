package ir

import (
	"fmt"
	"strconv"
)

type ValueKind uint8

const (
	KindNone ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

var valueKindNames = []string{"none", "bool", "int", "float", "string"}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is a tagged blackboard value. Only the field selected by Kind is
// meaningful.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Float float64
	Str   string
}

func BoolValue(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func IntValue(i int64) Value     { return Value{Kind: KindInt, Int: i} }
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// Any unwraps the value into the Go type stored on a blackboard.
func (v Value) Any() any {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.Str
	default:
		return nil
	}
}

// ValueOf wraps a Go value read from a blackboard. Unsupported types report false.
func ValueOf(x any) (Value, bool) {
	switch t := x.(type) {
	case bool:
		return BoolValue(t), true
	case int:
		return IntValue(int64(t)), true
	case int32:
		return IntValue(int64(t)), true
	case int64:
		return IntValue(t), true
	case float32:
		return FloatValue(float64(t)), true
	case float64:
		return FloatValue(t), true
	case string:
		return StringValue(t), true
	default:
		return Value{}, false
	}
}

// ParseValue interprets s according to kind. An empty kind infers the most
// specific one: bool, then int, then float, then string.
func ParseValue(kind, s string) (Value, error) {
	switch kind {
	case "bool":
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("parse bool %q: %w", s, err)
		}
		return BoolValue(b), nil
	case "int":
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse int %q: %w", s, err)
		}
		return IntValue(i), nil
	case "float":
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse float %q: %w", s, err)
		}
		return FloatValue(f), nil
	case "string":
		return StringValue(s), nil
	case "":
		if b, err := strconv.ParseBool(s); err == nil {
			return BoolValue(b), nil
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntValue(i), nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return FloatValue(f), nil
		}
		return StringValue(s), nil
	default:
		return Value{}, fmt.Errorf("unknown value kind %q", kind)
	}
}

// Compare orders v against other. Numbers compare across int/float; other
// kinds only compare with themselves. ok is false when the pair is not
// comparable.
func (v Value) Compare(other Value) (cmp int, ok bool) {
	if v.numeric() && other.numeric() {
		a, b := v.float(), other.float()
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		default:
			return 0, true
		}
	}
	if v.Kind != other.Kind {
		return 0, false
	}
	switch v.Kind {
	case KindBool:
		if v.Bool == other.Bool {
			return 0, true
		}
		if !v.Bool {
			return -1, true
		}
		return 1, true
	case KindString:
		switch {
		case v.Str < other.Str:
			return -1, true
		case v.Str > other.Str:
			return 1, true
		default:
			return 0, true
		}
	default:
		return 0, v.Kind == KindNone
	}
}

func (v Value) numeric() bool { return v.Kind == KindInt || v.Kind == KindFloat }

func (v Value) float() float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Float
}
