package config

import (
	"fmt"
	"slices"

	"object-mapper/internal/coerce"
	"object-mapper/internal/diagnostic"
	"object-mapper/internal/keypath"
	"object-mapper/internal/mapping"
	"object-mapper/internal/match"
	"object-mapper/internal/pathpattern"
	"object-mapper/internal/shape"
)

const maxSuggestions = 3

// Validate checks a definition file against the shapes it refers to. It is
// a structural check; nothing is built.
func Validate(f *File, shapes *shape.Registry) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if f == nil {
		res.AddError("file_is_nil", "definition file is nil", "", "")
		return res
	}

	if shapes == nil {
		shapes = shape.NewRegistry()
	}

	v := &validator{file: f, shapes: shapes, res: res, used: map[string]bool{}}

	v.validateDateFormats("", f.DateFormats, f.PreferredDateFormat)
	v.validateNames()

	for i := range f.Mappings {
		m := &f.Mappings[i]
		if m.IsDynamic() {
			v.validateDynamic(m)
		} else {
			v.validateMapping(m)
		}
	}

	v.validateProvider()

	for _, name := range f.MappingNames() {
		if name != "" && !v.used[name] {
			res.AddWarning(diagnostic.CodeUnusedMapping,
				fmt.Sprintf("mapping %q is not registered or referenced", name), name, "")
		}
	}

	return res
}

type validator struct {
	file   *File
	shapes *shape.Registry
	res    *diagnostic.Diagnostics
	used   map[string]bool
}

func (v *validator) validateNames() {
	seen := map[string]bool{}

	for i := range v.file.Mappings {
		name := v.file.Mappings[i].Name
		if name == "" {
			v.res.AddError(diagnostic.CodeUnknownMapping, fmt.Sprintf("mapping #%d has no name", i+1), "", "")
			continue
		}

		if seen[name] {
			v.res.AddError(diagnostic.CodeDuplicateMapping, fmt.Sprintf("duplicate mapping %q", name), name, "")
			continue
		}

		seen[name] = true
	}
}

// lookupMapping resolves a mapping reference and marks it used.
func (v *validator) lookupMapping(owner, name, keyPath string) (*MappingDef, bool) {
	def, ok := v.file.MappingByName(name)
	if !ok {
		v.res.Add(diagnostic.Diagnostic{
			Severity:    diagnostic.DiagnosticError,
			Code:        diagnostic.CodeUnknownMapping,
			Message:     fmt.Sprintf("mapping %q not found", name),
			Mapping:     owner,
			KeyPath:     keyPath,
			Suggestions: match.Suggest(name, v.file.MappingNames(), maxSuggestions),
		})

		return nil, false
	}

	v.used[name] = true

	return def, true
}

func (v *validator) lookupShape(owner, name string) (*shape.Shape, bool) {
	if name == "" {
		v.res.AddError(diagnostic.CodeUnknownShape, "mapping has no shape", owner, "")
		return nil, false
	}

	s, ok := v.shapes.Lookup(name)
	if !ok {
		v.res.Add(diagnostic.Diagnostic{
			Severity:    diagnostic.DiagnosticError,
			Code:        diagnostic.CodeUnknownShape,
			Message:     fmt.Sprintf("shape %q not found", name),
			Mapping:     owner,
			Suggestions: match.Suggest(name, v.shapes.Names(), maxSuggestions),
		})

		return nil, false
	}

	return s, true
}

func (v *validator) validateMapping(m *MappingDef) {
	s, ok := v.lookupShape(m.Name, m.Shape)

	v.validateDateFormats(m.Name, m.DateFormats, m.PreferredDateFormat)

	if _, err := coerce.ParseCategories(m.Conversions); err != nil {
		v.res.AddCause(diagnostic.CodeInvalidConversion, err, m.Name, "")
	}

	sources := map[string]bool{}
	checkSource := func(source string) bool {
		if _, err := keypath.Parse(source); err != nil {
			v.res.AddCause(diagnostic.CodeInvalidKeyPath, err, m.Name, source)
			return false
		}

		if sources[source] {
			v.res.AddError(diagnostic.CodeDuplicateKeyPath,
				fmt.Sprintf("source key path %q is mapped twice", source), m.Name, source)

			return false
		}

		sources[source] = true

		return true
	}

	for _, a := range m.Attributes {
		if checkSource(a.Source) && ok {
			v.validateAttributeTarget(m, s, a.Source, a.Destination)
		}
	}

	for _, fd := range m.Fields {
		if checkSource(fd.Source) && ok {
			v.validateAttributeTarget(m, s, fd.Source, fd.Target())
		}

		v.validateDateFormats(m.Name, fd.DateFormats, "")
	}

	for _, rd := range m.Relationships {
		if !checkSource(rd.Source) {
			continue
		}

		if _, found := v.lookupMapping(m.Name, rd.Mapping, rd.Source); !found || !ok {
			continue
		}

		v.validateRelationshipTarget(m, s, rd)
	}

	if !ok || s.IsDynamic() {
		return
	}

	for _, key := range []string{m.PrimaryKey, m.NestedKey} {
		if key == "" {
			continue
		}

		if f, found := s.Field(key); !found || f.Kind.IsRelationship() {
			v.unknownField(m.Name, s, key, "")
		}
	}
}

func (v *validator) validateAttributeTarget(m *MappingDef, s *shape.Shape, source, destination string) {
	if destination == "" {
		v.res.AddError(diagnostic.CodeInvalidKeyPath, "empty destination", m.Name, source)
		return
	}

	f, found := s.Field(destination)
	if !found && s.IsDynamic() {
		return
	}

	if !found {
		v.unknownField(m.Name, s, destination, source)
		return
	}

	if f.Kind.IsRelationship() {
		v.res.AddError(diagnostic.CodeInvalidRelation,
			fmt.Sprintf("field %s.%s is a relationship, map it under relationships", s.Name(), destination),
			m.Name, source)
	}
}

func (v *validator) validateRelationshipTarget(m *MappingDef, s *shape.Shape, rd RelationshipDef) {
	if s.IsDynamic() {
		return
	}

	f, found := s.Field(rd.Target())
	if !found {
		v.unknownField(m.Name, s, rd.Target(), rd.Source)
		return
	}

	switch {
	case !f.Kind.IsRelationship():
		v.res.AddError(diagnostic.CodeInvalidRelation,
			fmt.Sprintf("field %s.%s is a %s attribute, not a relationship", s.Name(), f.Name, f.Kind),
			m.Name, rd.Source)
	case rd.Many != (f.Kind == shape.KindMany):
		v.res.AddError(diagnostic.CodeInvalidRelation,
			fmt.Sprintf("field %s.%s is to-%s but the relationship declares many: %t", s.Name(), f.Name, f.Kind, rd.Many),
			m.Name, rd.Source)
	}
}

func (v *validator) unknownField(owner string, s *shape.Shape, name, keyPath string) {
	v.res.Add(diagnostic.Diagnostic{
		Severity:    diagnostic.DiagnosticError,
		Code:        diagnostic.CodeUnknownField,
		Message:     fmt.Sprintf("shape %s has no field %q", s.Name(), name),
		Mapping:     owner,
		KeyPath:     keyPath,
		Suggestions: match.Suggest(name, s.FieldNames(), maxSuggestions),
	})
}

func (v *validator) validateDynamic(m *MappingDef) {
	if m.Shape != "" {
		v.res.AddWarning(diagnostic.CodeUnknownShape, "dynamic mappings ignore shape", m.Name, "")
	}

	if len(m.Dynamic.Matchers) == 0 {
		v.res.AddError(diagnostic.CodeUnknownMapping, "dynamic mapping has no matchers", m.Name, "")
	}

	for _, md := range m.Dynamic.Matchers {
		if _, err := keypath.Parse(md.KeyPath); err != nil {
			v.res.AddCause(diagnostic.CodeInvalidKeyPath, err, m.Name, md.KeyPath)
		}

		if md.Equals == nil {
			v.res.AddError(diagnostic.CodeInvalidKeyPath, "matcher has no equals value", m.Name, md.KeyPath)
		}

		target, ok := v.lookupMapping(m.Name, md.Mapping, md.KeyPath)
		if ok && target.IsDynamic() {
			v.res.AddError(diagnostic.CodeUnknownMapping,
				fmt.Sprintf("matcher mapping %q must be an object mapping", md.Mapping), m.Name, md.KeyPath)
		}
	}
}

func (v *validator) validateProvider() {
	keyPaths := map[mapping.Context][]string{}

	for i, e := range v.file.Provider {
		owner := fmt.Sprintf("provider[%d]", i)

		ctx, err := mapping.ParseContext(e.ContextName())
		if err != nil {
			v.res.AddCause(diagnostic.CodeInvalidContext, err, owner, "")
			continue
		}

		def, ok := v.lookupMapping(owner, e.Mapping, e.KeyPath)

		if e.KeyPath != "" && e.Pattern != "" {
			v.res.AddError(diagnostic.CodeInvalidKeyPath, "key_path and pattern are exclusive", owner, e.KeyPath)
			continue
		}

		switch ctx {
		case mapping.ContextSerialization:
			v.validateSerialization(owner, e, def, ok)
			continue
		case mapping.ContextPagination:
			if e.KeyPath != "" || e.Pattern != "" {
				v.res.AddError(diagnostic.CodeInvalidKeyPath,
					"the pagination mapping takes no key_path or pattern", owner, e.KeyPath)
			}

			continue
		}

		if e.Pattern != "" {
			if _, err := pathpattern.Compile(e.Pattern); err != nil {
				v.res.AddCause(diagnostic.CodeInvalidPattern, err, owner, e.Pattern)
			}

			continue
		}

		if e.KeyPath == "" {
			continue
		}

		if _, err := keypath.ParsePattern(e.KeyPath); err != nil {
			v.res.AddCause(diagnostic.CodeInvalidKeyPath, err, owner, e.KeyPath)
			continue
		}

		if slices.Contains(keyPaths[ctx], e.KeyPath) {
			v.res.AddError(diagnostic.CodeDuplicateKeyPath,
				fmt.Sprintf("key path %q is registered twice in context %s", e.KeyPath, ctx), owner, e.KeyPath)

			continue
		}

		keyPaths[ctx] = append(keyPaths[ctx], e.KeyPath)
	}
}

func (v *validator) validateSerialization(owner string, e ProviderEntry, def *MappingDef, ok bool) {
	if e.KeyPath != "" || e.Pattern != "" {
		v.res.AddError(diagnostic.CodeInvalidKeyPath,
			"serialization entries take no key_path or pattern", owner, e.KeyPath)
	}

	if ok && def.IsDynamic() {
		v.res.AddError(diagnostic.CodeUnknownMapping,
			fmt.Sprintf("mapping %q is dynamic and cannot serialize", e.Mapping), owner, "")

		return
	}

	if e.Inverse {
		return
	}

	if e.ForShape == "" {
		v.res.AddError(diagnostic.CodeUnknownShape,
			"serialization entries need inverse: true or for_shape", owner, "")

		return
	}

	v.lookupShape(owner, e.ForShape)
}

func (v *validator) validateDateFormats(owner string, formats []string, preferred string) {
	for _, raw := range formats {
		if _, err := coerce.ParseDateFormat(raw); err != nil {
			v.res.AddCause(diagnostic.CodeInvalidDateFormat, err, owner, "")
		}
	}

	if preferred != "" {
		if _, err := coerce.ParseDateFormat(preferred); err != nil {
			v.res.AddCause(diagnostic.CodeInvalidDateFormat, err, owner, "")
		}
	}
}
