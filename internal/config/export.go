package config

import (
	"fmt"
	"slices"

	"object-mapper/internal/coerce"
	"object-mapper/internal/mapping"
	"object-mapper/internal/parser"
)

// Export describes mappings, and every mapping their relationships reach, as
// a definition file without provider entries. Building the result against
// the same shapes yields equivalent mappings.
func Export(roots ...mapping.Definition) *File {
	e := &exporter{names: map[mapping.Definition]string{}, taken: map[string]bool{}}

	for _, root := range roots {
		e.visit(root)
	}

	f := &File{Version: CurrentVersion}

	for _, def := range e.order {
		f.Mappings = append(f.Mappings, e.describe(def))
	}

	return f
}

type exporter struct {
	order []mapping.Definition
	names map[mapping.Definition]string
	taken map[string]bool
}

func (e *exporter) visit(def mapping.Definition) {
	if def == nil {
		return
	}

	if _, seen := e.names[def]; seen {
		return
	}

	name := def.Name()
	for i := 2; e.taken[name]; i++ {
		name = fmt.Sprintf("%s%d", def.Name(), i)
	}

	e.taken[name] = true
	e.names[def] = name
	e.order = append(e.order, def)

	switch m := def.(type) {
	case *mapping.ObjectMapping:
		for _, r := range m.Relationships() {
			e.visit(r.Mapping)
		}
	case *mapping.DynamicMapping:
		for _, matcher := range m.Matchers() {
			e.visit(matcher.Mapping)
		}
	}
}

func (e *exporter) describe(def mapping.Definition) MappingDef {
	md := MappingDef{Name: e.names[def]}

	switch m := def.(type) {
	case *mapping.ObjectMapping:
		e.describeObject(&md, m)
	case *mapping.DynamicMapping:
		md.Dynamic = &DynamicDef{}

		for _, matcher := range m.Matchers() {
			md.Dynamic.Matchers = append(md.Dynamic.Matchers, MatcherDef{
				KeyPath: matcher.KeyPath,
				Equals:  parser.ToNode(matcher.Value),
				Mapping: e.names[matcher.Mapping],
			})
		}
	}

	return md
}

func (e *exporter) describeObject(md *MappingDef, m *mapping.ObjectMapping) {
	md.Shape = m.Shape().Name()
	md.PrimaryKey = m.PrimaryKey
	md.RootKeyPath = m.RootKeyPath
	md.SetDefaultForMissingAttributes = m.SetDefaultForMissingAttributes
	md.SetNilForMissingRelationships = m.SetNilForMissingRelationships
	md.ForceCollection = m.ForceCollection
	md.NestedKey = m.NestedKeyAttribute

	if !m.PerformValidation {
		md.PerformValidation = new(bool)
	}

	if !m.IgnoreUnknownKeyPaths {
		md.IgnoreUnknownKeyPaths = new(bool)
	}

	if m.Conversions != coerce.CategoryAll {
		md.Conversions = m.Conversions.Names()
		if len(md.Conversions) == 0 {
			md.Conversions = StringList{"none"}
		}
	}

	if formats := formatNames(m.DateFormats); !slices.Equal(formats, formatNames(coerce.DefaultDateFormats())) {
		md.DateFormats = formats
	}

	md.PreferredDateFormat = m.PreferredDateFormat.String()

	for _, a := range m.Attributes() {
		if a.Transient || len(a.DateFormats) > 0 {
			md.Fields = append(md.Fields, FieldDef{
				Source:      a.Source,
				Destination: omitSame(a.Source, a.Destination),
				DateFormats: formatNames(a.DateFormats),
				Transient:   a.Transient,
			})

			continue
		}

		md.Attributes = append(md.Attributes, AttributeRef{Source: a.Source, Destination: a.Destination})
	}

	for _, r := range m.Relationships() {
		md.Relationships = append(md.Relationships, RelationshipDef{
			Source:      r.Source,
			Destination: omitSame(r.Source, r.Destination),
			Mapping:     e.names[r.Mapping],
			Many:        r.Cardinality == mapping.ToMany,
			Transient:   r.Transient,
		})
	}
}

func formatNames(formats []coerce.DateFormat) StringList {
	if len(formats) == 0 {
		return nil
	}

	out := make(StringList, len(formats))
	for i, f := range formats {
		out[i] = f.String()
	}

	return out
}

func omitSame(source, destination string) string {
	if source == destination {
		return ""
	}

	return destination
}
