package payload

import "slices"

// Object is a string-keyed map that remembers insertion order.
// It is not safe for concurrent mutation.
type Object struct {
	keys   []string
	fields map[string]Value
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{fields: make(map[string]Value)}
}

// ObjectFromPairs builds an object from alternating key/value arguments.
// Keys that are not strings are skipped, as are values that FromAny rejects.
func ObjectFromPairs(pairs ...any) *Object {
	o := NewObject()

	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}

		val, err := FromAny(pairs[i+1])
		if err != nil {
			continue
		}

		o.Set(key, val)
	}

	return o
}

// Set stores value under key. Re-setting an existing key keeps its position.
func (o *Object) Set(key string, value Value) {
	if _, exists := o.fields[key]; !exists {
		o.keys = append(o.keys, key)
	}

	o.fields[key] = value
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}

	v, ok := o.fields[key]

	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Delete removes key.
func (o *Object) Delete(key string) {
	if _, exists := o.fields[key]; !exists {
		return
	}

	delete(o.fields, key)

	if i := slices.Index(o.keys, key); i >= 0 {
		o.keys = slices.Delete(o.keys, i, i+1)
	}
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}

	return slices.Clone(o.keys)
}

// Len returns the number of entries.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}

	return len(o.keys)
}

// Range calls fn for every entry in insertion order until fn returns false.
func (o *Object) Range(fn func(key string, value Value) bool) {
	if o == nil {
		return
	}

	for _, key := range o.keys {
		if !fn(key, o.fields[key]) {
			return
		}
	}
}

// Clone returns a deep copy.
func (o *Object) Clone() *Object {
	out := NewObject()

	o.Range(func(key string, value Value) bool {
		out.Set(key, value.Clone())
		return true
	})

	return out
}

// Equal reports whether both objects hold equal values under the same keys.
func (o *Object) Equal(other *Object) bool {
	if o.Len() != other.Len() {
		return false
	}

	equal := true

	o.Range(func(key string, value Value) bool {
		theirs, ok := other.Get(key)
		if !ok || !value.Equal(theirs) {
			equal = false
		}

		return equal
	})

	return equal
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		items := make([]Value, len(v.arr))
		for i, item := range v.arr {
			items[i] = item.Clone()
		}

		return Array(items...)
	case KindObject:
		return ObjectValue(v.obj.Clone())
	default:
		return v
	}
}
