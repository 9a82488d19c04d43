package mapping

import (
	"object-mapper/internal/coerce"
	"object-mapper/internal/common"
	"object-mapper/internal/keypath"
)

// Cardinality tells whether a relationship holds one object or many.
type Cardinality int

const (
	ToOne Cardinality = iota
	ToMany
)

// String returns a human-readable cardinality name.
func (c Cardinality) String() string {
	switch c {
	case ToOne:
		return "one"
	case ToMany:
		return "many"
	default:
		return common.UnknownStr
	}
}

// Rule is an AttributeMapping or a RelationshipMapping.
type Rule interface {
	// SourceKeyPath is the payload key path the rule reads.
	SourceKeyPath() string
	// DestinationKey is the shape field the rule writes.
	DestinationKey() string
	// IsSerializable reports whether the rule takes part in the inverse mapping.
	IsSerializable() bool

	path() keypath.Path
	setPath(p keypath.Path)
}

// AttributeMapping copies one scalar value.
type AttributeMapping struct {
	Source      string
	Destination string
	// DateFormats override the mapping's formats for this attribute.
	DateFormats []coerce.DateFormat
	// Transient rules are left out of the inverse mapping.
	Transient bool

	parsed keypath.Path
}

// Attribute returns a rule copying source into destination.
func Attribute(source, destination string) *AttributeMapping {
	return &AttributeMapping{Source: source, Destination: destination}
}

func (a *AttributeMapping) SourceKeyPath() string  { return a.Source }
func (a *AttributeMapping) DestinationKey() string { return a.Destination }
func (a *AttributeMapping) IsSerializable() bool   { return !a.Transient }
func (a *AttributeMapping) path() keypath.Path     { return a.parsed }
func (a *AttributeMapping) setPath(p keypath.Path) { a.parsed = p }

// Path returns the parsed source key path.
func (a *AttributeMapping) Path() keypath.Path { return a.parsed }

// RelationshipMapping maps a nested object or collection.
type RelationshipMapping struct {
	Source      string
	Destination string
	Mapping     Definition
	Cardinality Cardinality
	// Transient rules are left out of the inverse mapping.
	Transient bool

	parsed keypath.Path
}

// Relationship returns a rule mapping the value at source with def.
func Relationship(source, destination string, def Definition, cardinality Cardinality) *RelationshipMapping {
	return &RelationshipMapping{Source: source, Destination: destination, Mapping: def, Cardinality: cardinality}
}

func (r *RelationshipMapping) SourceKeyPath() string  { return r.Source }
func (r *RelationshipMapping) DestinationKey() string { return r.Destination }
func (r *RelationshipMapping) IsSerializable() bool   { return !r.Transient }
func (r *RelationshipMapping) path() keypath.Path     { return r.parsed }
func (r *RelationshipMapping) setPath(p keypath.Path) { r.parsed = p }

// Path returns the parsed source key path.
func (r *RelationshipMapping) Path() keypath.Path { return r.parsed }
