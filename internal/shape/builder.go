package shape

import (
	"fmt"
	"time"
)

// Builder declares the accessor table of a shape whose objects are *T.
type Builder[T any] struct {
	shape *Shape
}

// Define starts a shape for objects of type *T allocated by alloc.
func Define[T any](name string, alloc func() *T) *Builder[T] {
	return &Builder[T]{shape: &Shape{
		name:  name,
		alloc: func() any { return alloc() },
		accepts: func(obj any) bool {
			_, ok := obj.(*T)
			return ok
		},
		fields: make(map[string]*Field),
	}}
}

// Shape returns the shape being built. Fields added afterwards are still visible.
func (b *Builder[T]) Shape() *Shape { return b.shape }

// String declares a string field.
func (b *Builder[T]) String(name string, get func(*T) string, set func(*T, string)) *Builder[T] {
	return addTyped(b, name, KindString, get, set)
}

// Int declares an integer field.
func (b *Builder[T]) Int(name string, get func(*T) int64, set func(*T, int64)) *Builder[T] {
	return addTyped(b, name, KindInt, get, set)
}

// Float declares a floating point field.
func (b *Builder[T]) Float(name string, get func(*T) float64, set func(*T, float64)) *Builder[T] {
	return addTyped(b, name, KindFloat, get, set)
}

// Bool declares a boolean field.
func (b *Builder[T]) Bool(name string, get func(*T) bool, set func(*T, bool)) *Builder[T] {
	return addTyped(b, name, KindBool, get, set)
}

// Time declares a time field.
func (b *Builder[T]) Time(name string, get func(*T) time.Time, set func(*T, time.Time)) *Builder[T] {
	return addTyped(b, name, KindTime, get, set)
}

// Any declares a field that receives the raw payload.Value.
func (b *Builder[T]) Any(name string, get func(*T) any, set func(*T, any)) *Builder[T] {
	return addTyped(b, name, KindAny, get, set)
}

// Validate attaches a validator to a declared field. It panics if the field is unknown.
func (b *Builder[T]) Validate(name string, fn func(obj *T, value any) error) *Builder[T] {
	f, ok := b.shape.fields[name]
	if !ok {
		panic(fmt.Sprintf("shape %s: cannot validate unknown field %q", b.shape.name, name))
	}

	f.Validate = func(obj any, value any) error {
		t, ok := obj.(*T)
		if !ok {
			return wrongObject(b.shape.name, name, obj)
		}

		return fn(t, value)
	}

	return b
}

// HasOne declares a to-one relationship to objects of type *R.
func HasOne[T, R any](b *Builder[T], name string, get func(*T) *R, set func(*T, *R)) *Builder[T] {
	shapeName := b.shape.name

	b.shape.addField(&Field{
		Name: name,
		Kind: KindOne,
		Get: func(obj any) any {
			t, ok := obj.(*T)
			if !ok {
				return nil
			}

			if r := get(t); r != nil {
				return r
			}

			return nil
		},
		Set: func(obj any, value any) error {
			t, ok := obj.(*T)
			if !ok {
				return wrongObject(shapeName, name, obj)
			}

			if value == nil {
				set(t, nil)
				return nil
			}

			r, ok := value.(*R)
			if !ok {
				return wrongValue(shapeName, name, (*R)(nil), value)
			}

			set(t, r)

			return nil
		},
	})

	return b
}

// HasMany declares a to-many relationship to objects of type *R. The setter
// accepts []*R or []any holding *R values.
func HasMany[T, R any](b *Builder[T], name string, get func(*T) []*R, set func(*T, []*R)) *Builder[T] {
	shapeName := b.shape.name

	b.shape.addField(&Field{
		Name: name,
		Kind: KindMany,
		Get: func(obj any) any {
			t, ok := obj.(*T)
			if !ok {
				return nil
			}

			items := get(t)
			if items == nil {
				return nil
			}

			out := make([]any, len(items))
			for i, item := range items {
				out[i] = item
			}

			return out
		},
		Set: func(obj any, value any) error {
			t, ok := obj.(*T)
			if !ok {
				return wrongObject(shapeName, name, obj)
			}

			switch v := value.(type) {
			case nil:
				set(t, nil)
			case []*R:
				set(t, v)
			case []any:
				items := make([]*R, len(v))

				for i, item := range v {
					r, ok := item.(*R)
					if !ok {
						return wrongValue(shapeName, name+fmt.Sprintf("[%d]", i), (*R)(nil), item)
					}

					items[i] = r
				}

				set(t, items)
			default:
				return wrongValue(shapeName, name, []*R(nil), value)
			}

			return nil
		},
	})

	return b
}

func addTyped[T, V any](b *Builder[T], name string, kind Kind, get func(*T) V, set func(*T, V)) *Builder[T] {
	shapeName := b.shape.name

	b.shape.addField(&Field{
		Name: name,
		Kind: kind,
		Get: func(obj any) any {
			t, ok := obj.(*T)
			if !ok {
				return nil
			}

			return get(t)
		},
		Set: func(obj any, value any) error {
			t, ok := obj.(*T)
			if !ok {
				return wrongObject(shapeName, name, obj)
			}

			if value == nil {
				var zero V
				set(t, zero)

				return nil
			}

			v, ok := value.(V)
			if !ok {
				var zero V
				return wrongValue(shapeName, name, zero, value)
			}

			set(t, v)

			return nil
		},
	})

	return b
}

func wrongObject(shapeName, field string, obj any) error {
	return fmt.Errorf("%w: %s.%s received %T", ErrWrongObject, shapeName, field, obj)
}

func wrongValue(shapeName, field string, want, got any) error {
	return fmt.Errorf("%w: %s.%s expects %T, got %T", ErrWrongValue, shapeName, field, want, got)
}
