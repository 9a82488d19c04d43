package shape

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"object-mapper/internal/common"
)

var (
	// ErrWrongObject is returned when an accessor receives an object of another shape.
	ErrWrongObject = errors.New("object does not belong to shape")
	// ErrWrongValue is returned when a setter receives a value of the wrong Go type.
	ErrWrongValue = errors.New("value has wrong type for field")
)

// Kind is the semantic type of a field. Coercion targets it.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
	// KindOne is a to-one relationship holding a single nested object.
	KindOne
	// KindMany is a to-many relationship holding an ordered list of nested objects.
	KindMany
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindOne:
		return "one"
	case KindMany:
		return "many"
	default:
		return common.UnknownStr
	}
}

// IsRelationship reports whether the kind holds nested objects.
func (k Kind) IsRelationship() bool {
	return k == KindOne || k == KindMany
}

// Field is one entry of a shape's accessor table.
type Field struct {
	Name string
	Kind Kind
	// Get returns the current value: string, int64, float64, bool, time.Time,
	// a nested object, []any of nested objects, or anything for KindAny.
	Get func(obj any) any
	// Set assigns a value of the Go type Get returns; nil assigns the zero value.
	Set func(obj any, value any) error
	// Validate optionally rejects a proposed value before it is assigned.
	Validate func(obj any, value any) error
}

// Shape is a named destination type with its accessor table.
type Shape struct {
	name    string
	alloc   func() any
	accepts func(obj any) bool
	fields  map[string]*Field
	order   []string
	dynamic func(name string) *Field
}

// Name returns the shape name.
func (s *Shape) Name() string { return s.name }

// New allocates a fresh object of this shape.
func (s *Shape) New() any { return s.alloc() }

// Accepts reports whether obj is an object of this shape.
func (s *Shape) Accepts(obj any) bool { return obj != nil && s.accepts(obj) }

// IsDynamic reports whether the shape accepts arbitrary field names.
func (s *Shape) IsDynamic() bool { return s.dynamic != nil }

// Field looks up a field by name.
func (s *Shape) Field(name string) (*Field, bool) {
	if f, ok := s.fields[name]; ok {
		return f, true
	}

	if s.dynamic != nil && name != "" {
		return s.dynamic(name), true
	}

	return nil, false
}

// Fields returns the declared fields in declaration order.
func (s *Shape) Fields() []*Field {
	out := make([]*Field, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.fields[name])
	}

	return out
}

// FieldNames returns the declared field names in declaration order.
func (s *Shape) FieldNames() []string {
	return slices.Clone(s.order)
}

func (s *Shape) addField(f *Field) {
	if f.Name == "" {
		panic(fmt.Sprintf("shape %s: field name must not be empty", s.name))
	}

	if _, exists := s.fields[f.Name]; exists {
		panic(fmt.Sprintf("shape %s: duplicate field %q", s.name, f.Name))
	}

	s.fields[f.Name] = f
	s.order = append(s.order, f.Name)
}

// Registry resolves shapes by name. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	shapes map[string]*Shape
}

// NewRegistry returns a registry that already contains the Dictionary shape.
func NewRegistry() *Registry {
	r := &Registry{shapes: make(map[string]*Shape)}
	r.shapes[DictionaryName] = Dictionary()

	return r
}

// Register adds shapes, replacing any previous shape with the same name.
func (r *Registry) Register(shapes ...*Shape) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range shapes {
		r.shapes[s.name] = s
	}
}

// Lookup returns the shape registered under name.
func (r *Registry) Lookup(name string) (*Shape, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.shapes[name]

	return s, ok
}

// Names returns all registered shape names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.shapes))
	for name := range r.shapes {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
