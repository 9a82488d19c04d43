package payload

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// ErrUnsupportedType is returned by FromAny for Go values with no payload equivalent.
var ErrUnsupportedType = errors.New("unsupported payload type")

// numberLiteral is satisfied by json.Number from both encoding/json and goccy/go-json.
type numberLiteral interface {
	String() string
	Float64() (float64, error)
	Int64() (int64, error)
}

// FromAny converts a plain Go value into a Value.
//
// Supported inputs: nil, Value, *Object, bool, all integer and float kinds,
// string, time.Time (RFC 3339 with nanoseconds), json.Number-like literals,
// []Value, []any, []string, map[string]any and map[string]string. Plain Go
// maps have no order, so their keys are sorted.
func FromAny(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case *Object:
		return ObjectValue(v), nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint:
		return NumberLiteral(strconv.FormatUint(uint64(v), 10))
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint64:
		return NumberLiteral(strconv.FormatUint(v, 10))
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case time.Time:
		return String(v.Format(time.RFC3339Nano)), nil
	case numberLiteral:
		return NumberLiteral(v.String())
	case []Value:
		return Array(v...), nil
	case []string:
		items := make([]Value, len(v))
		for i, s := range v {
			items[i] = String(s)
		}

		return Array(items...), nil
	case []any:
		items := make([]Value, len(v))

		for i, item := range v {
			conv, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}

			items[i] = conv
		}

		return Array(items...), nil
	case map[string]string:
		o := NewObject()
		for _, key := range sortedKeys(v) {
			o.Set(key, String(v[key]))
		}

		return ObjectValue(o), nil
	case map[string]any:
		o := NewObject()

		for _, key := range sortedKeys(v) {
			conv, err := FromAny(v[key])
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", key, err)
			}

			o.Set(key, conv)
		}

		return ObjectValue(o), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedType, x)
	}
}

// MustFromAny is FromAny for literals in tests and fixtures; it panics on error.
func MustFromAny(x any) Value {
	v, err := FromAny(x)
	if err != nil {
		panic(err)
	}

	return v
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
