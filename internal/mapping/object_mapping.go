package mapping

import (
	"errors"
	"fmt"

	"object-mapper/internal/coerce"
	"object-mapper/internal/keypath"
	"object-mapper/internal/payload"
	"object-mapper/internal/shape"
)

var (
	// ErrDuplicateKeyPath is returned when a second rule reads the same source key path.
	ErrDuplicateKeyPath = errors.New("duplicate source key path")
	// ErrInvalidKeyPath is returned for malformed key paths and empty destinations.
	ErrInvalidKeyPath = errors.New("invalid key path")
	// ErrNilMapping is returned when a relationship or registration has no mapping.
	ErrNilMapping = errors.New("mapping is nil")
	// ErrNoMatchingMapping is returned when a dynamic mapping cannot pick a mapping.
	ErrNoMatchingMapping = errors.New("no object mapping matches value")
)

// Definition picks the ObjectMapping to apply to a payload value.
type Definition interface {
	Name() string
	ObjectMappingFor(value payload.Value) (*ObjectMapping, error)
}

// ObjectMapping is the set of rules that map payload values onto one shape.
type ObjectMapping struct {
	name  string
	shape *shape.Shape
	rules []Rule

	// origin is the mapping this one was inverted from.
	origin *ObjectMapping

	// SetDefaultForMissingAttributes clears fields whose source key path is absent.
	SetDefaultForMissingAttributes bool
	// SetNilForMissingRelationships clears relationships whose source key path is absent.
	SetNilForMissingRelationships bool
	// PerformValidation runs validators before values are assigned.
	PerformValidation bool
	// IgnoreUnknownKeyPaths skips rules whose destination the shape does not have.
	// When false such a rule fails the whole run.
	IgnoreUnknownKeyPaths bool
	// DateFormats are tried in order when a string is mapped onto a time field.
	DateFormats []coerce.DateFormat
	// PreferredDateFormat renders times when serializing.
	PreferredDateFormat coerce.DateFormat
	// PrimaryKey names the destination attribute identifying persisted objects.
	PrimaryKey string
	// RootKeyPath nests serialized output under a key.
	RootKeyPath string
	// ForceCollection makes a single mapped object a one-element collection.
	ForceCollection bool
	// NestedKeyAttribute receives each key of a dictionary whose values are
	// mapped as separate objects, e.g. {"ann": {...}, "bob": {...}}.
	NestedKeyAttribute string
	// Conversions limits the allowed coercion categories.
	Conversions coerce.Category
}

// New returns an empty mapping for s with the default flags: validation on,
// unknown destination keys ignored, default date formats and all conversions.
func New(s *shape.Shape) *ObjectMapping {
	return &ObjectMapping{
		name:                  s.Name(),
		shape:                 s,
		PerformValidation:     true,
		IgnoreUnknownKeyPaths: true,
		DateFormats:           coerce.DefaultDateFormats(),
		Conversions:           coerce.CategoryAll,
	}
}

// Named sets the mapping name, which defaults to the shape name.
func (m *ObjectMapping) Named(name string) *ObjectMapping {
	m.name = name
	return m
}

// Name returns the mapping name.
func (m *ObjectMapping) Name() string { return m.name }

// Shape returns the destination shape.
func (m *ObjectMapping) Shape() *shape.Shape { return m.shape }

// Origin returns the mapping m was inverted from, or nil.
func (m *ObjectMapping) Origin() *ObjectMapping { return m.origin }

// ObjectMappingFor returns m itself.
func (m *ObjectMapping) ObjectMappingFor(payload.Value) (*ObjectMapping, error) {
	return m, nil
}

// Options returns the coercion options for an attribute of m.
func (m *ObjectMapping) Options(a *AttributeMapping) coerce.Options {
	formats := m.DateFormats
	if a != nil && len(a.DateFormats) > 0 {
		formats = a.DateFormats
	}

	return coerce.Options{Allowed: m.Conversions, DateFormats: formats}
}

// AddAttribute appends an attribute rule.
func (m *ObjectMapping) AddAttribute(a *AttributeMapping) error {
	if a.Source == "" {
		return fmt.Errorf("%w: attribute %q has no source", ErrInvalidKeyPath, a.Destination)
	}

	return m.add(a)
}

// AddRelationship appends a relationship rule. An empty source maps the
// parent value itself.
func (m *ObjectMapping) AddRelationship(r *RelationshipMapping) error {
	if r.Mapping == nil {
		return fmt.Errorf("%w: relationship %q", ErrNilMapping, r.Destination)
	}

	return m.add(r)
}

func (m *ObjectMapping) add(r Rule) error {
	if r.DestinationKey() == "" {
		return fmt.Errorf("%w: rule for %q has no destination", ErrInvalidKeyPath, r.SourceKeyPath())
	}

	p, err := keypath.Parse(r.SourceKeyPath())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKeyPath, err)
	}

	if _, exists := m.RuleForSourceKeyPath(r.SourceKeyPath()); exists {
		return fmt.Errorf("%w: %q in mapping %s", ErrDuplicateKeyPath, r.SourceKeyPath(), m.name)
	}

	r.setPath(p)
	m.rules = append(m.rules, r)

	return nil
}

// MapAttributes maps each name onto the field of the same name. It panics on
// misuse, like the other fluent helpers.
func (m *ObjectMapping) MapAttributes(names ...string) *ObjectMapping {
	for _, name := range names {
		m.MapKeyPath(name, name)
	}

	return m
}

// MapKeyPath maps source onto destination.
func (m *ObjectMapping) MapKeyPath(source, destination string) *ObjectMapping {
	must(m.AddAttribute(Attribute(source, destination)))
	return m
}

// HasOne maps the object at source onto a to-one relationship.
func (m *ObjectMapping) HasOne(source, destination string, def Definition) *ObjectMapping {
	must(m.AddRelationship(Relationship(source, destination, def, ToOne)))
	return m
}

// HasMany maps the collection at source onto a to-many relationship.
func (m *ObjectMapping) HasMany(source, destination string, def Definition) *ObjectMapping {
	must(m.AddRelationship(Relationship(source, destination, def, ToMany)))
	return m
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Rules returns the rules in declaration order.
func (m *ObjectMapping) Rules() []Rule {
	return append([]Rule(nil), m.rules...)
}

// Attributes returns the attribute rules in declaration order.
func (m *ObjectMapping) Attributes() []*AttributeMapping {
	var out []*AttributeMapping

	for _, r := range m.rules {
		if a, ok := r.(*AttributeMapping); ok {
			out = append(out, a)
		}
	}

	return out
}

// Relationships returns the relationship rules in declaration order.
func (m *ObjectMapping) Relationships() []*RelationshipMapping {
	var out []*RelationshipMapping

	for _, r := range m.rules {
		if rel, ok := r.(*RelationshipMapping); ok {
			out = append(out, rel)
		}
	}

	return out
}

// MappedKeyPaths returns the source key paths in declaration order.
func (m *ObjectMapping) MappedKeyPaths() []string {
	out := make([]string, len(m.rules))
	for i, r := range m.rules {
		out[i] = r.SourceKeyPath()
	}

	return out
}

// RuleForSourceKeyPath finds the rule reading keyPath.
func (m *ObjectMapping) RuleForSourceKeyPath(keyPath string) (Rule, bool) {
	for _, r := range m.rules {
		if r.SourceKeyPath() == keyPath {
			return r, true
		}
	}

	return nil, false
}

// RuleForDestination finds the first rule writing destination.
func (m *ObjectMapping) RuleForDestination(destination string) (Rule, bool) {
	for _, r := range m.rules {
		if r.DestinationKey() == destination {
			return r, true
		}
	}

	return nil, false
}

// AttributeFor finds the attribute rule writing destination.
func (m *ObjectMapping) AttributeFor(destination string) (*AttributeMapping, bool) {
	for _, a := range m.Attributes() {
		if a.Destination == destination {
			return a, true
		}
	}

	return nil, false
}

// RelationshipFor finds the relationship rule writing destination.
func (m *ObjectMapping) RelationshipFor(destination string) (*RelationshipMapping, bool) {
	for _, r := range m.Relationships() {
		if r.Destination == destination {
			return r, true
		}
	}

	return nil, false
}

// RulesMatching returns the rules whose source key path matches pattern,
// where "*" stands for any single segment.
func (m *ObjectMapping) RulesMatching(pattern string) []Rule {
	var out []Rule

	for _, r := range m.rules {
		if keypath.Match(pattern, r.SourceKeyPath()) {
			out = append(out, r)
		}
	}

	return out
}

// Remove deletes rule r. It returns false if r is not part of m.
func (m *ObjectMapping) Remove(r Rule) bool {
	for i, existing := range m.rules {
		if existing == r {
			m.rules = append(m.rules[:i:i], m.rules[i+1:]...)
			return true
		}
	}

	return false
}

// RemoveKeyPath deletes the rule reading keyPath.
func (m *ObjectMapping) RemoveKeyPath(keyPath string) bool {
	r, ok := m.RuleForSourceKeyPath(keyPath)
	if !ok {
		return false
	}

	return m.Remove(r)
}

// RemoveAll deletes every rule.
func (m *ObjectMapping) RemoveAll() {
	m.rules = nil
}

// PrimaryKeyRule returns the attribute rule writing the primary key.
func (m *ObjectMapping) PrimaryKeyRule() (*AttributeMapping, bool) {
	if m.PrimaryKey == "" {
		return nil, false
	}

	return m.AttributeFor(m.PrimaryKey)
}
