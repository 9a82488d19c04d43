package config

import (
	"gopkg.in/yaml.v3"
)

// CurrentVersion is written by Export and assumed when a file has no version.
const CurrentVersion = "1"

// File represents the root of a YAML mapping definition file.
type File struct {
	// Version of the definition schema.
	Version string `yaml:"version,omitempty"`

	// DateFormats apply to every mapping that declares none.
	DateFormats StringList `yaml:"date_formats,omitempty"`

	// PreferredDateFormat applies to every mapping that declares none.
	PreferredDateFormat string `yaml:"preferred_date_format,omitempty"`

	// Mappings are the named object and dynamic mappings.
	Mappings []MappingDef `yaml:"mappings"`

	// Provider registers mappings by context.
	Provider []ProviderEntry `yaml:"provider,omitempty"`
}

// MappingDef defines one object mapping, or a dynamic mapping when Dynamic
// is set.
type MappingDef struct {
	// Name is how relationships and provider entries refer to the mapping.
	Name string `yaml:"name"`

	// Shape names the destination shape in the registry handed to Build.
	Shape string `yaml:"shape,omitempty"`

	PrimaryKey  string `yaml:"primary_key,omitempty"`
	RootKeyPath string `yaml:"root_key_path,omitempty"`

	SetDefaultForMissingAttributes bool  `yaml:"set_default_for_missing_attributes,omitempty"`
	SetNilForMissingRelationships  bool  `yaml:"set_nil_for_missing_relationships,omitempty"`
	PerformValidation              *bool `yaml:"perform_validation,omitempty"`
	IgnoreUnknownKeyPaths          *bool `yaml:"ignore_unknown_key_paths,omitempty"`
	ForceCollection                bool  `yaml:"force_collection,omitempty"`

	// NestedKey receives the keys of a dictionary of objects.
	NestedKey string `yaml:"nested_key,omitempty"`

	// Conversions lists the allowed coercion categories. Empty means all.
	Conversions StringList `yaml:"conversions,omitempty"`

	DateFormats         StringList `yaml:"date_formats,omitempty"`
	PreferredDateFormat string     `yaml:"preferred_date_format,omitempty"`

	// Auto maps every shape field not otherwise mapped from its snake_case key.
	Auto bool `yaml:"auto,omitempty"`

	// Attributes is the shorthand for plain attribute rules.
	Attributes AttributeList `yaml:"attributes,omitempty"`

	// Fields are attribute rules with options.
	Fields []FieldDef `yaml:"fields,omitempty"`

	Relationships []RelationshipDef `yaml:"relationships,omitempty"`

	Dynamic *DynamicDef `yaml:"dynamic,omitempty"`
}

// IsDynamic reports whether the definition describes a dynamic mapping.
func (m *MappingDef) IsDynamic() bool {
	return m.Dynamic != nil
}

// AttributeRef is one attribute shorthand entry.
// YAML formats supported:
//   - Simple string: "name" (source and destination are equal)
//   - Single pair: {full_name: name} (source: destination)
type AttributeRef struct {
	Source      string
	Destination string
}

// AttributeList is a list of attribute shorthands. It also accepts a plain
// mapping of source to destination keys, kept in file order.
type AttributeList []AttributeRef

// FieldDef is an attribute rule with options.
type FieldDef struct {
	Source string `yaml:"source"`
	// Destination defaults to Source.
	Destination string     `yaml:"destination,omitempty"`
	DateFormats StringList `yaml:"date_formats,omitempty"`
	// Transient fields are left out of the inverse mapping.
	Transient bool `yaml:"transient,omitempty"`
}

// Target returns the destination key, defaulting to the source.
func (f FieldDef) Target() string {
	if f.Destination == "" {
		return f.Source
	}

	return f.Destination
}

// RelationshipDef maps a nested object or collection with another mapping.
type RelationshipDef struct {
	Source string `yaml:"source"`
	// Destination defaults to Source.
	Destination string `yaml:"destination,omitempty"`
	// Mapping names the object or dynamic mapping of the nested values.
	Mapping string `yaml:"mapping"`
	// Many makes the relationship to-many.
	Many      bool `yaml:"many,omitempty"`
	Transient bool `yaml:"transient,omitempty"`
}

// Target returns the destination key, defaulting to the source.
func (r RelationshipDef) Target() string {
	if r.Destination == "" {
		return r.Source
	}

	return r.Destination
}

// DynamicDef picks an object mapping per payload value.
type DynamicDef struct {
	Matchers []MatcherDef `yaml:"matchers"`
}

// MatcherDef selects Mapping when the value at KeyPath equals Equals.
type MatcherDef struct {
	KeyPath string     `yaml:"key_path"`
	Equals  *yaml.Node `yaml:"equals"`
	Mapping string     `yaml:"mapping"`
}

// ProviderEntry registers a mapping in a provider context, at a key path,
// for a resource path pattern, or as the single mapping of the context when
// neither is given.
//
// Serialization entries register the inverse of the named mapping when
// Inverse is set, and otherwise the mapping itself for the shape ForShape.
type ProviderEntry struct {
	// Context defaults to "objects".
	Context  string `yaml:"context,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
	Pattern  string `yaml:"pattern,omitempty"`
	Mapping  string `yaml:"mapping"`
	Inverse  bool   `yaml:"inverse,omitempty"`
	ForShape string `yaml:"for_shape,omitempty"`
}

// ContextName returns the context, defaulting to "objects".
func (e ProviderEntry) ContextName() string {
	if e.Context == "" {
		return "objects"
	}

	return e.Context
}

// MappingByName returns the definition named name.
func (f *File) MappingByName(name string) (*MappingDef, bool) {
	for i := range f.Mappings {
		if f.Mappings[i].Name == name {
			return &f.Mappings[i], true
		}
	}

	return nil, false
}

// MappingNames returns the mapping names in file order.
func (f *File) MappingNames() []string {
	names := make([]string, 0, len(f.Mappings))
	for i := range f.Mappings {
		names = append(names, f.Mappings[i].Name)
	}

	return names
}
