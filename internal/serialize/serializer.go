package serialize

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"object-mapper/internal/coerce"
	"object-mapper/internal/mapper"
	"object-mapper/internal/mapping"
	"object-mapper/internal/parser"
	"object-mapper/internal/payload"
	"object-mapper/internal/shape"
)

var (
	// ErrNoSerializationMapping is returned when the provider has no mapping for a shape.
	ErrNoSerializationMapping = errors.New("no serialization mapping")
	// ErrWrongShape is returned when an object does not belong to the shape it is serialized as.
	ErrWrongShape = errors.New("object does not match shape")
	// ErrNoSourceShape is returned for a serialization mapping that was not
	// built by Inverse and is given no shape to read objects with.
	ErrNoSourceShape = errors.New("serialization mapping has no source shape")
)

// Options configure a Serializer.
type Options struct {
	// Provider supplies serialization mappings by shape name.
	Provider *mapping.Provider
	// Parsers encode payloads. Defaults to parser.NewRegistry().
	Parsers *parser.Registry
	Logger  *slog.Logger
}

// Serializer turns objects into payloads and wire bodies.
type Serializer struct {
	provider *mapping.Provider
	parsers  *parser.Registry
	log      *slog.Logger
}

// New returns a serializer.
func New(opts Options) *Serializer {
	if opts.Parsers == nil {
		opts.Parsers = parser.NewRegistry()
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Serializer{provider: opts.Provider, parsers: opts.Parsers, log: opts.Logger}
}

// MappingFor returns the provider's serialization mapping for sh.
func (s *Serializer) MappingFor(sh *shape.Shape) (*mapping.ObjectMapping, error) {
	if s.provider != nil {
		if m, ok := s.provider.SerializationMappingFor(sh.Name()); ok {
			return m, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNoSerializationMapping, sh.Name())
}

// Serialize renders obj, an object of shape sh, with the provider's
// serialization mapping for sh.
func (s *Serializer) Serialize(obj any, sh *shape.Shape) (payload.Value, error) {
	m, err := s.MappingFor(sh)
	if err != nil {
		return payload.Value{}, err
	}

	return s.ToPayload(obj, sh, m)
}

// ToPayload renders obj with the serialization mapping m. sh may be nil when
// m was built by Inverse; the shape of the inverted mapping is used then.
func (s *Serializer) ToPayload(obj any, sh *shape.Shape, m *mapping.ObjectMapping) (payload.Value, error) {
	if sh == nil {
		var err error
		if sh, err = sourceShape(m); err != nil {
			return payload.Value{}, err
		}
	}

	if !sh.Accepts(obj) {
		return payload.Value{}, fmt.Errorf("%w: %T is not a %s", ErrWrongShape, obj, sh.Name())
	}

	p := projector{visiting: make(map[any]bool)}

	projection, err := p.project(obj, sh, m)
	if err != nil {
		return payload.Value{}, err
	}

	res, err := mapper.New(mapper.Options{Logger: s.log}).Perform(projection, mapper.WithMapping(m))
	if err != nil {
		return payload.Value{}, err
	}

	if err := res.Err(); err != nil {
		return payload.Value{}, err
	}

	out, ok := res.First().(*payload.Object)
	if !ok {
		out = payload.NewObject()
	}

	return wrapRoot(payload.ObjectValue(out), m.RootKeyPath), nil
}

// ToPayloadCollection renders every object of objs and wraps the list in
// the root key path of m.
func (s *Serializer) ToPayloadCollection(objs []any, sh *shape.Shape, m *mapping.ObjectMapping) (payload.Value, error) {
	unwrapped := *m
	unwrapped.RootKeyPath = ""

	items := make([]payload.Value, 0, len(objs))

	for i, obj := range objs {
		v, err := s.ToPayload(obj, sh, &unwrapped)
		if err != nil {
			return payload.Value{}, fmt.Errorf("[%d]: %w", i, err)
		}

		items = append(items, v)
	}

	return wrapRoot(payload.Array(items...), m.RootKeyPath), nil
}

// Marshal renders obj with m and encodes it as mimeType.
func (s *Serializer) Marshal(obj any, sh *shape.Shape, m *mapping.ObjectMapping, mimeType string) ([]byte, error) {
	// fail before mapping when the body cannot be encoded anyway
	if _, err := s.parsers.Lookup(mimeType); err != nil {
		return nil, err
	}

	v, err := s.ToPayload(obj, sh, m)
	if err != nil {
		return nil, err
	}

	return s.parsers.Marshal(mimeType, v)
}

func sourceShape(m *mapping.ObjectMapping) (*shape.Shape, error) {
	if origin := m.Origin(); origin != nil {
		return origin.Shape(), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNoSourceShape, m.Name())
}

// wrapRoot nests v under a dotted root key path.
func wrapRoot(v payload.Value, root string) payload.Value {
	if root == "" {
		return v
	}

	parts := strings.Split(root, ".")
	for i := len(parts) - 1; i >= 0; i-- {
		o := payload.NewObject()
		o.Set(parts[i], v)
		v = payload.ObjectValue(o)
	}

	return v
}

type projector struct {
	visiting map[any]bool
}

// project reads every field of obj into a payload object keyed by field
// name. Relationships are followed only where m has a rule for them.
func (p projector) project(obj any, sh *shape.Shape, m *mapping.ObjectMapping) (payload.Value, error) {
	if o, ok := obj.(*payload.Object); ok {
		return payload.ObjectValue(o), nil
	}

	// cycles in the object graph end in null
	if p.visiting[obj] {
		return payload.Null(), nil
	}

	p.visiting[obj] = true
	defer delete(p.visiting, obj)

	out := payload.NewObject()

	for _, f := range sh.Fields() {
		if f.Kind.IsRelationship() {
			v, ok, err := p.relationship(obj, f, m)
			if err != nil {
				return payload.Value{}, err
			}

			if ok {
				out.Set(f.Name, v)
			}

			continue
		}

		x := f.Get(obj)
		if t, ok := x.(time.Time); ok && t.IsZero() {
			out.Set(f.Name, payload.Null())
			continue
		}

		v, err := coerce.Encode(x, m.PreferredDateFormat)
		if err != nil {
			return payload.Value{}, fmt.Errorf("%s.%s: %w", sh.Name(), f.Name, err)
		}

		out.Set(f.Name, v)
	}

	return payload.ObjectValue(out), nil
}

func (p projector) relationship(obj any, f *shape.Field, m *mapping.ObjectMapping) (payload.Value, bool, error) {
	rel := relationshipFrom(m, f.Name)
	if rel == nil {
		return payload.Value{}, false, nil
	}

	nested, ok := rel.Mapping.(*mapping.ObjectMapping)
	if !ok {
		return payload.Value{}, false, nil
	}

	nestedShape, err := sourceShape(nested)
	if err != nil {
		return payload.Value{}, false, err
	}

	switch x := f.Get(obj).(type) {
	case nil:
		return payload.Null(), true, nil
	case []any:
		items := make([]payload.Value, 0, len(x))

		for _, item := range x {
			v, err := p.project(item, nestedShape, nested)
			if err != nil {
				return payload.Value{}, false, err
			}

			items = append(items, v)
		}

		return payload.Array(items...), true, nil
	default:
		v, err := p.project(x, nestedShape, nested)
		return v, err == nil, err
	}
}

func relationshipFrom(m *mapping.ObjectMapping, source string) *mapping.RelationshipMapping {
	for _, rel := range m.Relationships() {
		if rel.Source == source {
			return rel
		}
	}

	return nil
}
