package config

import (
	"errors"
	"fmt"

	"object-mapper/internal/coerce"
	"object-mapper/internal/mapping"
	"object-mapper/internal/match"
	"object-mapper/internal/parser"
	"object-mapper/internal/shape"
)

// ErrInvalidDefinition is wrapped by Build when validation finds errors.
var ErrInvalidDefinition = errors.New("invalid mapping definition")

// Definitions are the mappings built from a file.
type Definitions struct {
	// Provider holds the provider registrations of the file.
	Provider *mapping.Provider

	names   []string
	objects map[string]*mapping.ObjectMapping
	dynamic map[string]*mapping.DynamicMapping
}

// Names returns the mapping names in file order.
func (d *Definitions) Names() []string {
	return append([]string(nil), d.names...)
}

// Mapping returns the object or dynamic mapping named name.
func (d *Definitions) Mapping(name string) (mapping.Definition, bool) {
	if m, ok := d.objects[name]; ok {
		return m, true
	}

	if m, ok := d.dynamic[name]; ok {
		return m, true
	}

	return nil, false
}

// ObjectMapping returns the object mapping named name.
func (d *Definitions) ObjectMapping(name string) (*mapping.ObjectMapping, bool) {
	m, ok := d.objects[name]
	return m, ok
}

// Build validates f and turns it into mappings and a provider. Validation
// errors are returned joined under ErrInvalidDefinition; warnings are not
// reported.
func Build(f *File, shapes *shape.Registry) (*Definitions, error) {
	if shapes == nil {
		shapes = shape.NewRegistry()
	}

	diags := Validate(f, shapes)
	if err := diags.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	d := &Definitions{
		Provider: mapping.NewProvider(),
		names:    f.MappingNames(),
		objects:  make(map[string]*mapping.ObjectMapping),
		dynamic:  make(map[string]*mapping.DynamicMapping),
	}

	// Shells first, so relationships may refer to mappings defined later or
	// to the mapping they belong to.
	for i := range f.Mappings {
		md := &f.Mappings[i]
		if md.IsDynamic() {
			d.dynamic[md.Name] = mapping.NewDynamic(md.Name)
			continue
		}

		s, _ := shapes.Lookup(md.Shape)

		om, err := newObjectMapping(f, md, s)
		if err != nil {
			return nil, fmt.Errorf("mapping %s: %w", md.Name, err)
		}

		d.objects[md.Name] = om
	}

	for i := range f.Mappings {
		md := &f.Mappings[i]

		var err error
		if md.IsDynamic() {
			err = d.fillDynamic(md)
		} else {
			err = d.fillRules(md)
		}

		if err != nil {
			return nil, fmt.Errorf("mapping %s: %w", md.Name, err)
		}
	}

	for i, e := range f.Provider {
		if err := d.register(e, shapes); err != nil {
			return nil, fmt.Errorf("provider[%d]: %w", i, err)
		}
	}

	return d, nil
}

func newObjectMapping(f *File, md *MappingDef, s *shape.Shape) (*mapping.ObjectMapping, error) {
	om := mapping.New(s).Named(md.Name)

	om.PrimaryKey = md.PrimaryKey
	om.RootKeyPath = md.RootKeyPath
	om.SetDefaultForMissingAttributes = md.SetDefaultForMissingAttributes
	om.SetNilForMissingRelationships = md.SetNilForMissingRelationships
	om.ForceCollection = md.ForceCollection
	om.NestedKeyAttribute = md.NestedKey

	if md.PerformValidation != nil {
		om.PerformValidation = *md.PerformValidation
	}

	if md.IgnoreUnknownKeyPaths != nil {
		om.IgnoreUnknownKeyPaths = *md.IgnoreUnknownKeyPaths
	}

	if len(md.Conversions) > 0 {
		c, err := coerce.ParseCategories(md.Conversions)
		if err != nil {
			return nil, err
		}

		om.Conversions = c
	}

	formats := md.DateFormats
	if len(formats) == 0 {
		formats = f.DateFormats
	}

	if len(formats) > 0 {
		parsed, err := parseDateFormats(formats)
		if err != nil {
			return nil, err
		}

		om.DateFormats = parsed
	}

	preferred := md.PreferredDateFormat
	if preferred == "" {
		preferred = f.PreferredDateFormat
	}

	if preferred != "" {
		pf, err := coerce.ParseDateFormat(preferred)
		if err != nil {
			return nil, err
		}

		om.PreferredDateFormat = pf
	}

	return om, nil
}

func parseDateFormats(raw []string) ([]coerce.DateFormat, error) {
	out := make([]coerce.DateFormat, 0, len(raw))

	for _, r := range raw {
		df, err := coerce.ParseDateFormat(r)
		if err != nil {
			return nil, err
		}

		out = append(out, df)
	}

	return out, nil
}

func (d *Definitions) fillRules(md *MappingDef) error {
	om := d.objects[md.Name]

	for _, a := range md.Attributes {
		if err := om.AddAttribute(mapping.Attribute(a.Source, a.Destination)); err != nil {
			return err
		}
	}

	for _, fd := range md.Fields {
		a := mapping.Attribute(fd.Source, fd.Target())
		a.Transient = fd.Transient

		if len(fd.DateFormats) > 0 {
			formats, err := parseDateFormats(fd.DateFormats)
			if err != nil {
				return err
			}

			a.DateFormats = formats
		}

		if err := om.AddAttribute(a); err != nil {
			return err
		}
	}

	for _, rd := range md.Relationships {
		nested, _ := d.Mapping(rd.Mapping)

		cardinality := mapping.ToOne
		if rd.Many {
			cardinality = mapping.ToMany
		}

		r := mapping.Relationship(rd.Source, rd.Target(), nested, cardinality)
		r.Transient = rd.Transient

		if err := om.AddRelationship(r); err != nil {
			return err
		}
	}

	if md.Auto {
		return autoMap(om)
	}

	return nil
}

// autoMap adds a snake_case attribute rule for every attribute field of the
// shape that no rule writes yet.
func autoMap(om *mapping.ObjectMapping) error {
	for _, f := range om.Shape().Fields() {
		if f.Kind.IsRelationship() {
			continue
		}

		if _, taken := om.RuleForDestination(f.Name); taken {
			continue
		}

		source := match.SnakeCase(f.Name)
		if _, taken := om.RuleForSourceKeyPath(source); taken {
			continue
		}

		if err := om.AddAttribute(mapping.Attribute(source, f.Name)); err != nil {
			return err
		}
	}

	return nil
}

func (d *Definitions) fillDynamic(md *MappingDef) error {
	dm := d.dynamic[md.Name]

	for _, m := range md.Dynamic.Matchers {
		equals, err := parser.FromNode(m.Equals)
		if err != nil {
			return fmt.Errorf("matcher %s: %w", m.KeyPath, err)
		}

		if err := dm.AddMatcher(m.KeyPath, equals, d.objects[m.Mapping]); err != nil {
			return err
		}
	}

	return nil
}

func (d *Definitions) register(e ProviderEntry, shapes *shape.Registry) error {
	ctx, err := mapping.ParseContext(e.ContextName())
	if err != nil {
		return err
	}

	def, _ := d.Mapping(e.Mapping)

	switch {
	case ctx == mapping.ContextSerialization:
		om := d.objects[e.Mapping]
		if e.Inverse {
			return d.Provider.SetSerializationMapping(om.Shape().Name(), om.Inverse())
		}

		s, _ := shapes.Lookup(e.ForShape)

		return d.Provider.SetSerializationMapping(s.Name(), om)
	case ctx == mapping.ContextPagination:
		return d.Provider.SetPaginationMapping(def)
	case e.Pattern != "":
		return d.Provider.AddMappingForPattern(ctx, e.Pattern, def)
	case e.KeyPath != "":
		return d.Provider.SetMappingForKeyPath(ctx, e.KeyPath, def)
	default:
		return d.Provider.SetMapping(ctx, def)
	}
}
