package coerce

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"object-mapper/internal/payload"
	"object-mapper/internal/shape"
)

// ErrCoercion is wrapped by every *Error.
var ErrCoercion = errors.New("cannot coerce value")

// Error describes a failed conversion of a payload value into a field kind.
type Error struct {
	Value  payload.Value
	Kind   shape.Kind
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("cannot coerce %s value %s to %s", e.Value.Kind(), e.Value, e.Kind)
	}

	return fmt.Sprintf("cannot coerce %s value %s to %s: %s", e.Value.Kind(), e.Value, e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return ErrCoercion }

// Options control which conversions are allowed and how dates are read.
type Options struct {
	// Allowed is the set of enabled conversion categories.
	Allowed Category
	// DateFormats are tried in order; empty means DefaultDateFormats.
	DateFormats []DateFormat
}

// DefaultOptions allow every category and use the default date formats.
func DefaultOptions() Options {
	return Options{Allowed: CategoryAll, DateFormats: DefaultDateFormats()}
}

// Coerce converts v into the Go representation of kind: string, int64,
// float64, bool or time.Time. KindAny yields v unchanged, null included.
// Otherwise null yields nil, which setters treat as the zero value.
func Coerce(v payload.Value, kind shape.Kind, opts Options) (any, error) {
	if kind == shape.KindAny {
		return v, nil
	}

	if v.IsNull() {
		return nil, nil
	}

	switch kind {
	case shape.KindString:
		return toString(v, opts)
	case shape.KindInt:
		return toInt(v, opts)
	case shape.KindFloat:
		return toFloat(v, opts)
	case shape.KindBool:
		return toBool(v, opts)
	case shape.KindTime:
		return toTime(v, opts)
	default:
		return nil, fail(v, kind, "relationship fields are mapped, not coerced")
	}
}

func fail(v payload.Value, kind shape.Kind, reason string) error {
	return &Error{Value: v, Kind: kind, Reason: reason}
}

func disabled(v payload.Value, kind shape.Kind, c Category) error {
	return fail(v, kind, "conversion category "+c.String()+" is disabled")
}

func toString(v payload.Value, opts Options) (any, error) {
	switch v.Kind() {
	case payload.KindString:
		s, _ := v.AsString()
		return s, nil
	case payload.KindNumber:
		if !opts.Allowed.Has(CategoryTextNumber) {
			return nil, disabled(v, shape.KindString, CategoryTextNumber)
		}

		lit, _ := v.Literal()

		return lit, nil
	case payload.KindBool:
		if !opts.Allowed.Has(CategoryTextualBool) {
			return nil, disabled(v, shape.KindString, CategoryTextualBool)
		}

		b, _ := v.AsBool()

		return strconv.FormatBool(b), nil
	default:
		return nil, fail(v, shape.KindString, "")
	}
}

func toInt(v payload.Value, opts Options) (any, error) {
	switch v.Kind() {
	case payload.KindNumber:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}

		f, err := v.Float64()
		if err != nil {
			return nil, fail(v, shape.KindInt, err.Error())
		}

		return truncate(v, f, opts)
	case payload.KindString:
		if !opts.Allowed.Has(CategoryTextNumber) {
			return nil, disabled(v, shape.KindInt, CategoryTextNumber)
		}

		s, _ := v.AsString()
		s = strings.TrimSpace(s)

		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}

		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fail(v, shape.KindInt, "not a number")
		}

		return truncate(v, f, opts)
	case payload.KindBool:
		if !opts.Allowed.Has(CategoryNumericBool) {
			return nil, disabled(v, shape.KindInt, CategoryNumericBool)
		}

		if b, _ := v.AsBool(); b {
			return int64(1), nil
		}

		return int64(0), nil
	default:
		return nil, fail(v, shape.KindInt, "")
	}
}

func truncate(v payload.Value, f float64, opts Options) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return nil, fail(v, shape.KindInt, "out of range")
	}

	if f != math.Trunc(f) && !opts.Allowed.Has(CategoryLossyNumber) {
		return nil, disabled(v, shape.KindInt, CategoryLossyNumber)
	}

	return int64(f), nil
}

func toFloat(v payload.Value, opts Options) (any, error) {
	switch v.Kind() {
	case payload.KindNumber:
		f, err := v.Float64()
		if err != nil {
			return nil, fail(v, shape.KindFloat, err.Error())
		}

		return f, nil
	case payload.KindString:
		if !opts.Allowed.Has(CategoryTextNumber) {
			return nil, disabled(v, shape.KindFloat, CategoryTextNumber)
		}

		s, _ := v.AsString()

		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fail(v, shape.KindFloat, "not a number")
		}

		return f, nil
	case payload.KindBool:
		if !opts.Allowed.Has(CategoryNumericBool) {
			return nil, disabled(v, shape.KindFloat, CategoryNumericBool)
		}

		if b, _ := v.AsBool(); b {
			return 1.0, nil
		}

		return 0.0, nil
	default:
		return nil, fail(v, shape.KindFloat, "")
	}
}

func toBool(v payload.Value, opts Options) (any, error) {
	switch v.Kind() {
	case payload.KindBool:
		b, _ := v.AsBool()
		return b, nil
	case payload.KindNumber:
		if !opts.Allowed.Has(CategoryNumericBool) {
			return nil, disabled(v, shape.KindBool, CategoryNumericBool)
		}

		f, err := v.Float64()
		if err != nil {
			return nil, fail(v, shape.KindBool, err.Error())
		}

		return f != 0, nil
	case payload.KindString:
		if !opts.Allowed.Has(CategoryTextualBool) {
			return nil, disabled(v, shape.KindBool, CategoryTextualBool)
		}

		s, _ := v.AsString()

		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes", "on", "t", "y", "1":
			return true, nil
		case "false", "no", "off", "f", "n", "0":
			return false, nil
		default:
			return nil, fail(v, shape.KindBool, "only true/false, yes/no, on/off are allowed")
		}
	default:
		return nil, fail(v, shape.KindBool, "")
	}
}

func toTime(v payload.Value, opts Options) (any, error) {
	switch v.Kind() {
	case payload.KindString:
		s, _ := v.AsString()

		t, _, err := ParseDate(s, opts.DateFormats)
		if err != nil {
			return nil, fail(v, shape.KindTime, err.Error())
		}

		return t, nil
	case payload.KindNumber:
		if !opts.Allowed.Has(CategoryTimestamp) {
			return nil, disabled(v, shape.KindTime, CategoryTimestamp)
		}

		f, err := v.Float64()
		if err != nil {
			return nil, fail(v, shape.KindTime, err.Error())
		}

		return unixTime(f), nil
	default:
		return nil, fail(v, shape.KindTime, "")
	}
}

// Encode converts a Go field value into a payload value for serialization.
// Times are rendered with format; a zero DateFormat renders RFC 3339.
func Encode(x any, format DateFormat) (payload.Value, error) {
	switch v := x.(type) {
	case nil:
		return payload.Null(), nil
	case time.Time:
		if format.unix {
			return payload.Int(v.Unix()), nil
		}

		if format.layout == "" {
			return payload.String(v.UTC().Format(time.RFC3339)), nil
		}

		return payload.String(format.Format(v)), nil
	default:
		return payload.FromAny(x)
	}
}
