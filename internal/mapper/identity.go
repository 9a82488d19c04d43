package mapper

import (
	"strconv"
	"time"

	"object-mapper/internal/payload"
	"object-mapper/internal/shape"
)

// IdentityStore finds and allocates objects by primary key. Implementations
// decide on which execution context the calls run.
type IdentityStore interface {
	// Find returns the object of shape s remembered under key.
	Find(s *shape.Shape, key string) (any, bool, error)
	// New allocates an object of shape s.
	New(s *shape.Shape) (any, error)
	// Remember records obj under key.
	Remember(s *shape.Shape, key string, obj any) error
}

// IdentityKey returns the canonical string of a coerced primary key value.
// Keys compare exactly and case-sensitively. Nil, null and empty string values
// have no key.
func IdentityKey(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, x != ""
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), true
	case payload.Value:
		if x.IsNull() {
			return "", false
		}

		if s, ok := x.AsString(); ok {
			return s, s != ""
		}

		return x.String(), true
	default:
		return "", false
	}
}
