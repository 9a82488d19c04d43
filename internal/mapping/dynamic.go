package mapping

import (
	"fmt"

	"object-mapper/internal/keypath"
	"object-mapper/internal/payload"
)

// Matcher selects Mapping when the value at KeyPath equals Value.
type Matcher struct {
	KeyPath string
	Value   payload.Value
	Mapping *ObjectMapping

	path keypath.Path
}

// DynamicMapping picks an ObjectMapping per payload value, for payloads that
// mix several kinds of objects in one collection.
type DynamicMapping struct {
	name     string
	matchers []Matcher

	// Resolve is consulted when no matcher applies.
	Resolve func(value payload.Value) (*ObjectMapping, error)
}

// NewDynamic returns an empty dynamic mapping.
func NewDynamic(name string) *DynamicMapping {
	return &DynamicMapping{name: name}
}

// Name returns the mapping name.
func (d *DynamicMapping) Name() string { return d.name }

// AddMatcher appends a matcher; matchers are tried in order.
func (d *DynamicMapping) AddMatcher(keyPath string, equals any, m *ObjectMapping) error {
	if m == nil {
		return fmt.Errorf("%w: matcher for %q", ErrNilMapping, keyPath)
	}

	p, err := keypath.Parse(keyPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKeyPath, err)
	}

	v, err := payload.FromAny(equals)
	if err != nil {
		return fmt.Errorf("matcher for %q: %w", keyPath, err)
	}

	d.matchers = append(d.matchers, Matcher{KeyPath: keyPath, Value: v, Mapping: m, path: p})

	return nil
}

// When is the fluent form of AddMatcher; it panics on misuse.
func (d *DynamicMapping) When(keyPath string, equals any, m *ObjectMapping) *DynamicMapping {
	must(d.AddMatcher(keyPath, equals, m))
	return d
}

// Matchers returns the matchers in order.
func (d *DynamicMapping) Matchers() []Matcher {
	return append([]Matcher(nil), d.matchers...)
}

// ObjectMappingFor returns the mapping of the first matcher whose key path
// holds an equal value, then falls back to Resolve.
func (d *DynamicMapping) ObjectMappingFor(value payload.Value) (*ObjectMapping, error) {
	for _, m := range d.matchers {
		if got, ok := m.path.Resolve(value); ok && got.Equal(m.Value) {
			return m.Mapping, nil
		}
	}

	if d.Resolve != nil {
		om, err := d.Resolve(value)
		if err != nil {
			return nil, err
		}

		if om != nil {
			return om, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNoMatchingMapping, d.name)
}
