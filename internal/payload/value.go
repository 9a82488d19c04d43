package payload

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"object-mapper/internal/common"
)

// ErrNotNumber is returned when a numeric accessor is used on a non-number value
// or on a number literal that does not fit the requested representation.
var ErrNotNumber = errors.New("value is not a number")

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return common.UnknownStr
	}
}

// Value is one node of a parsed payload. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	s    string // string contents or number literal
	arr  []Value
	obj  *Object
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int wraps an integer.
func Int(n int64) Value { return Value{kind: KindNumber, s: strconv.FormatInt(n, 10)} }

// Float wraps a floating point number. NaN and infinities cannot be represented
// in any supported wire format and become null.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}

	return Value{kind: KindNumber, s: strconv.FormatFloat(f, 'g', -1, 64)}
}

// NumberLiteral wraps a number given as its textual literal. The literal must
// parse as a float64.
func NumberLiteral(lit string) (Value, error) {
	if _, err := strconv.ParseFloat(lit, 64); err != nil {
		return Value{}, fmt.Errorf("%w: %q", ErrNotNumber, lit)
	}

	return Value{kind: KindNumber, s: lit}, nil
}

// Array wraps a list of values.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}

	return Value{kind: KindArray, arr: items}
}

// ObjectValue wraps an object. A nil object yields an empty object.
func ObjectValue(o *Object) Value {
	if o == nil {
		o = NewObject()
	}

	return Value{kind: KindObject, obj: o}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsCollection reports whether v is an array.
func (v Value) IsCollection() bool { return v.kind == KindArray }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}

	return v.s, true
}

// Literal returns the textual literal of a number.
func (v Value) Literal() (string, bool) {
	if v.kind != KindNumber {
		return "", false
	}

	return v.s, true
}

// AsArray returns the elements held by v. The slice must not be modified.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}

	return v.arr, true
}

// AsObject returns the object held by v.
func (v Value) AsObject() (*Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}

	return v.obj, true
}

// Len returns the number of elements of an array or entries of an object, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return v.obj.Len()
	default:
		return 0
	}
}

// Int64 converts a number to int64. Literals with a fractional part, or
// outside the int64 range, return ErrNotNumber.
func (v Value) Int64() (int64, error) {
	if v.kind != KindNumber {
		return 0, ErrNotNumber
	}

	if n, err := strconv.ParseInt(v.s, 10, 64); err == nil {
		return n, nil
	}

	f, err := strconv.ParseFloat(v.s, 64)
	if err != nil || f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrNotNumber, v.s)
	}

	return int64(f), nil
}

// Float64 converts a number to float64.
func (v Value) Float64() (float64, error) {
	if v.kind != KindNumber {
		return 0, ErrNotNumber
	}

	f, err := strconv.ParseFloat(v.s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNotNumber, v.s)
	}

	return f, nil
}

// Interface converts v into plain Go values: nil, bool, int64 or float64,
// string, []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if n, err := strconv.ParseInt(v.s, 10, 64); err == nil {
			return n
		}

		f, _ := strconv.ParseFloat(v.s, 64)

		return f
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}

		return out
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		v.obj.Range(func(key string, item Value) bool {
			out[key] = item.Interface()
			return true
		})

		return out
	default:
		return nil
	}
}

// Equal reports deep equality. Object key order is ignored and numbers are
// compared by value, so 1 and 1.0 are equal.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindString:
		return v.s == other.s
	case KindNumber:
		if v.s == other.s {
			return true
		}

		a, errA := v.Float64()
		b, errB := other.Float64()

		return errA == nil && errB == nil && a == b
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}

		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}

		return true
	case KindObject:
		return v.obj.Equal(other.obj)
	default:
		return false
	}
}

// String renders v in a compact JSON-like notation for logs and diagnostics.
func (v Value) String() string {
	var sb strings.Builder

	v.write(&sb)

	return sb.String()
}

func (v Value) write(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		sb.WriteString(v.s)
	case KindString:
		sb.WriteString(strconv.Quote(v.s))
	case KindArray:
		sb.WriteByte('[')

		for i, item := range v.arr {
			if i > 0 {
				sb.WriteByte(',')
			}

			item.write(sb)
		}

		sb.WriteByte(']')
	case KindObject:
		sb.WriteByte('{')

		first := true

		v.obj.Range(func(key string, item Value) bool {
			if !first {
				sb.WriteByte(',')
			}

			first = false

			sb.WriteString(strconv.Quote(key))
			sb.WriteByte(':')
			item.write(sb)

			return true
		})

		sb.WriteByte('}')
	}
}
