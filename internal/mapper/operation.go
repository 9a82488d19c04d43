package mapper

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"object-mapper/internal/coerce"
	"object-mapper/internal/diagnostic"
	"object-mapper/internal/keypath"
	"object-mapper/internal/mapping"
	"object-mapper/internal/match"
	"object-mapper/internal/payload"
	"object-mapper/internal/shape"
)

// run is the state of one Perform call.
type run struct {
	mapper     *Mapper
	result     *Result
	log        *slog.Logger
	target     any
	targetUsed bool
	fatal      error
}

func (r *run) addError(d diagnostic.Diagnostic) {
	d.Severity = diagnostic.DiagnosticError
	r.result.diagnostics.Add(d)
	r.log.Debug("mapping error", "code", d.Code, "key_path", d.KeyPath, "error", d.Message)
	r.mapper.opts.Hooks.didAddError(d)
}

func (r *run) addCause(code string, cause error, om *mapping.ObjectMapping, keyPath string) {
	r.addError(diagnostic.Diagnostic{
		Code:    code,
		Message: cause.Error(),
		Mapping: om.Name(),
		KeyPath: keyPath,
		Cause:   cause,
	})
}

// mapValue maps an object or an array of objects with def. Objects whose
// mapping has a NestedKeyAttribute, and mappings with ForceCollection, yield
// collections too.
func (r *run) mapValue(keyPath string, value payload.Value, def mapping.Definition, topLevel bool) (any, bool) {
	if value.IsCollection() {
		return r.mapCollection(keyPath, value, def), true
	}

	if _, ok := value.AsObject(); !ok {
		r.addError(diagnostic.Diagnostic{
			Code:    diagnostic.CodeUnmappable,
			Message: fmt.Sprintf("cannot map %s value onto an object", value.Kind()),
			Mapping: def.Name(),
			KeyPath: keyPath,
		})

		return nil, false
	}

	om, ok := r.objectMappingFor(keyPath, value, def)
	if !ok {
		return nil, false
	}

	if om.NestedKeyAttribute != "" {
		return r.mapNestedKeys(keyPath, value, om), true
	}

	var dest any
	if topLevel {
		dest = r.takeTarget(keyPath, om)
	}

	obj, ok := r.mapObject(keyPath, value, om, dest)
	if !ok {
		return nil, false
	}

	if om.ForceCollection {
		return []any{obj}, true
	}

	return obj, true
}

func (r *run) objectMappingFor(keyPath string, value payload.Value, def mapping.Definition) (*mapping.ObjectMapping, bool) {
	om, err := def.ObjectMappingFor(value)
	if err != nil {
		r.addError(diagnostic.Diagnostic{
			Code:    diagnostic.CodeUnmappable,
			Message: err.Error(),
			Mapping: def.Name(),
			KeyPath: keyPath,
			Cause:   err,
		})

		return nil, false
	}

	r.mapper.opts.Hooks.didFindMapping(keyPath, om)

	return om, true
}

func (r *run) takeTarget(keyPath string, om *mapping.ObjectMapping) any {
	if r.target == nil || r.targetUsed {
		return nil
	}

	if !om.Shape().Accepts(r.target) {
		r.addError(diagnostic.Diagnostic{
			Code:    diagnostic.CodeTargetMismatch,
			Message: fmt.Sprintf("target object %T is not a %s", r.target, om.Shape().Name()),
			Mapping: om.Name(),
			KeyPath: keyPath,
		})

		return nil
	}

	r.targetUsed = true

	return r.target
}

// mapCollection maps every element in source order. Null elements are
// skipped; elements that fail to map are reported and left out.
func (r *run) mapCollection(keyPath string, value payload.Value, def mapping.Definition) []any {
	items, _ := value.AsArray()
	out := make([]any, 0, len(items))

	for i, item := range items {
		if r.fatal != nil {
			break
		}

		if item.IsNull() {
			continue
		}

		elemPath := keypath.Element(keyPath, i)

		mapped, ok := r.mapValue(elemPath, item, def, false)
		if !ok {
			continue
		}

		if nested, isList := mapped.([]any); isList {
			out = append(out, nested...)
		} else {
			out = append(out, mapped)
		}
	}

	return out
}

// mapNestedKeys maps {"ann": {...}, "bob": {...}} into one object per key,
// storing the key in om.NestedKeyAttribute.
func (r *run) mapNestedKeys(keyPath string, value payload.Value, om *mapping.ObjectMapping) []any {
	obj, _ := value.AsObject()
	out := make([]any, 0, obj.Len())

	obj.Range(func(key string, nested payload.Value) bool {
		childPath := keypath.Child(keyPath, key)

		if _, ok := nested.AsObject(); !ok {
			r.addError(diagnostic.Diagnostic{
				Code:    diagnostic.CodeUnmappable,
				Message: fmt.Sprintf("cannot map %s value onto an object", nested.Kind()),
				Mapping: om.Name(),
				KeyPath: childPath,
			})

			return true
		}

		dest, ok := r.mapObject(childPath, nested, om, nil)
		if !ok {
			return r.fatal == nil
		}

		r.assign(childPath, om, dest, om.NestedKeyAttribute, payload.String(key), nil)
		out = append(out, dest)

		return r.fatal == nil
	})

	return out
}

// mapObject applies om to one payload object. dest is reused when non-nil,
// otherwise looked up by primary key or allocated.
func (r *run) mapObject(keyPath string, value payload.Value, om *mapping.ObjectMapping, dest any) (any, bool) {
	if dest == nil {
		dest = r.findOrCreate(keyPath, value, om)
	}

	log := r.log.With("key_path", keyPath, "mapping", om.Name())
	log.Debug("applying object mapping")

	for _, a := range om.Attributes() {
		if r.fatal != nil {
			return dest, true
		}

		r.applyAttribute(keyPath, value, om, dest, a)
	}

	for _, rel := range om.Relationships() {
		if r.fatal != nil {
			return dest, true
		}

		r.applyRelationship(keyPath, value, om, dest, rel)
	}

	return dest, true
}

func (r *run) findOrCreate(keyPath string, value payload.Value, om *mapping.ObjectMapping) any {
	store := r.mapper.opts.Store
	s := om.Shape()

	if store == nil {
		return s.New()
	}

	key, hasKey := r.primaryKey(keyPath, value, om)
	if hasKey {
		obj, found, err := store.Find(s, key)
		if err != nil {
			r.addCause(diagnostic.CodeIdentityFailed, err, om, keyPath)
		} else if found {
			r.log.Debug("found existing object", "key_path", keyPath, "shape", s.Name(), "primary_key", key)
			return obj
		}
	}

	obj, err := store.New(s)
	if err != nil {
		r.addCause(diagnostic.CodeIdentityFailed, err, om, keyPath)
		obj = s.New()
	}

	if hasKey {
		if err := store.Remember(s, key, obj); err != nil {
			r.addCause(diagnostic.CodeIdentityFailed, err, om, keyPath)
		}
	}

	return obj
}

func (r *run) primaryKey(keyPath string, value payload.Value, om *mapping.ObjectMapping) (string, bool) {
	rule, ok := om.PrimaryKeyRule()
	if !ok {
		return "", false
	}

	raw, ok := rule.Path().Resolve(value)
	if !ok || raw.IsNull() {
		return "", false
	}

	kind := shape.KindAny
	if f, ok := om.Shape().Field(rule.Destination); ok {
		kind = f.Kind
	}

	coerced, err := coerce.Coerce(raw, kind, om.Options(rule))
	if err != nil {
		r.addCause(diagnostic.CodeIdentityFailed, err, om, keypath.Child(keyPath, rule.Source))
		return "", false
	}

	return IdentityKey(coerced)
}

func (r *run) unknownKey(keyPath string, om *mapping.ObjectMapping, destination string) {
	if om.IgnoreUnknownKeyPaths {
		r.log.Debug("skipping unknown destination key", "key_path", keyPath, "mapping", om.Name(), "destination", destination)
		return
	}

	d := diagnostic.Diagnostic{
		Code:        diagnostic.CodeUnknownKey,
		Message:     fmt.Sprintf("shape %s has no field %q", om.Shape().Name(), destination),
		Mapping:     om.Name(),
		KeyPath:     keyPath,
		Suggestions: match.Suggest(destination, om.Shape().FieldNames(), 3),
	}
	r.fatal = fmt.Errorf("%w: %s", ErrUnknownKeyPath, d.String())
	d.Cause = r.fatal
	r.addError(d)
}

func (r *run) applyAttribute(keyPath string, value payload.Value, om *mapping.ObjectMapping, dest any, a *mapping.AttributeMapping) {
	childPath := keypath.Child(keyPath, a.Source)

	raw, present := a.Path().Resolve(value)
	if !present {
		if !om.SetDefaultForMissingAttributes {
			return
		}

		raw = payload.Null()
	}

	r.assign(childPath, om, dest, a.Destination, raw, a)
}

// assign coerces raw into the field named destination, validates and sets it.
func (r *run) assign(childPath string, om *mapping.ObjectMapping, dest any, destination string, raw payload.Value, a *mapping.AttributeMapping) {
	field, ok := r.field(om, dest, destination)
	if !ok {
		r.unknownKey(childPath, om, destination)
		return
	}

	if field.Kind.IsRelationship() {
		r.addError(diagnostic.Diagnostic{
			Code:    diagnostic.CodeCoercionFailed,
			Message: fmt.Sprintf("field %q is a relationship, map it with a relationship rule", destination),
			Mapping: om.Name(),
			KeyPath: childPath,
		})

		return
	}

	coerced, err := coerce.Coerce(raw, field.Kind, om.Options(a))
	if err != nil {
		r.addCause(diagnostic.CodeCoercionFailed, err, om, childPath)
		return
	}

	var rule mapping.Rule
	if a != nil {
		rule = a
	}

	if om.PerformValidation && !r.validate(childPath, om, dest, field, rule, coerced) {
		return
	}

	if sameValue(field.Get(dest), coerced) {
		return
	}

	if err := field.Set(dest, coerced); err != nil {
		r.addCause(diagnostic.CodeCoercionFailed, err, om, childPath)
		return
	}

	r.mapper.opts.Hooks.didSetValue(dest, destination, coerced)
}

func (r *run) validate(childPath string, om *mapping.ObjectMapping, dest any, field *shape.Field, rule mapping.Rule, proposed any) bool {
	if field.Validate != nil {
		if err := field.Validate(dest, proposed); err != nil {
			r.addCause(diagnostic.CodeValidationRejected, err, om, childPath)
			return false
		}
	}

	if r.mapper.opts.Validator != nil && rule != nil {
		if err := r.mapper.opts.Validator(rule, dest, proposed); err != nil {
			r.addCause(diagnostic.CodeValidationRejected, err, om, childPath)
			return false
		}
	}

	return true
}

func (r *run) applyRelationship(keyPath string, value payload.Value, om *mapping.ObjectMapping, dest any, rel *mapping.RelationshipMapping) {
	childPath := keypath.Child(keyPath, rel.Source)

	field, ok := r.field(om, dest, rel.Destination)
	if !ok {
		r.unknownKey(childPath, om, rel.Destination)
		return
	}

	raw, present := rel.Path().Resolve(value)
	if !present || raw.IsNull() {
		if om.SetNilForMissingRelationships {
			if err := field.Set(dest, nil); err != nil {
				r.addCause(diagnostic.CodeRelationshipFailed, err, om, childPath)
			}
		}

		return
	}

	mapped, ok := r.mapValue(childPath, raw, rel.Mapping, false)
	if !ok {
		return
	}

	items, isList := mapped.([]any)

	switch {
	case field.Kind == shape.KindOne && isList:
		r.addError(diagnostic.Diagnostic{
			Code:    diagnostic.CodeRelationshipFailed,
			Message: fmt.Sprintf("collection of %d objects cannot be assigned to to-one field %q", len(items), rel.Destination),
			Mapping: om.Name(),
			KeyPath: childPath,
		})

		return
	case field.Kind == shape.KindMany && !isList:
		mapped = []any{mapped}
	case field.Kind == shape.KindAny && rel.Cardinality == mapping.ToMany && !isList:
		mapped = []any{mapped}
	}

	if om.PerformValidation && !r.validate(childPath, om, dest, field, nil, mapped) {
		return
	}

	if err := field.Set(dest, mapped); err != nil {
		r.addCause(diagnostic.CodeRelationshipFailed, err, om, childPath)
		return
	}

	r.mapper.opts.Hooks.didSetValue(dest, rel.Destination, mapped)
}

// field resolves a destination key. Dotted keys on dictionaries address
// nested dictionaries, which are created on demand.
func (r *run) field(om *mapping.ObjectMapping, dest any, destination string) (*shape.Field, bool) {
	s := om.Shape()

	if !s.IsDynamic() || !strings.Contains(destination, ".") {
		return s.Field(destination)
	}

	obj, ok := dest.(*payload.Object)
	if !ok {
		return s.Field(destination)
	}

	parts := strings.Split(destination, ".")
	leaf := parts[len(parts)-1]

	return &shape.Field{
		Name: destination,
		Kind: shape.KindAny,
		Get: func(any) any {
			v, ok := keypath.Resolve(payload.ObjectValue(obj), destination)
			if !ok {
				return nil
			}

			return v
		},
		Set: func(_ any, value any) error {
			parent := obj

			for _, part := range parts[:len(parts)-1] {
				next, ok := parent.Get(part)
				child, isObj := next.AsObject()

				if !ok || !isObj {
					child = payload.NewObject()
					parent.Set(part, payload.ObjectValue(child))
				}

				parent = child
			}

			leafField, _ := shape.Dictionary().Field(leaf)

			return leafField.Set(parent, value)
		},
	}, true
}

func sameValue(current, proposed any) bool {
	switch p := proposed.(type) {
	case nil:
		return current == nil
	case string, int64, float64, bool:
		return current == proposed
	case time.Time:
		c, ok := current.(time.Time)
		return ok && c.Equal(p)
	case payload.Value:
		c, ok := current.(payload.Value)
		return ok && c.Equal(p) && c.Kind() == p.Kind()
	default:
		return false
	}
}
