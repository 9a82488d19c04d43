package shape

import (
	"fmt"

	"object-mapper/internal/payload"
)

// DictionaryName is the registry name of the Dictionary shape.
const DictionaryName = "Dictionary"

var dictionary = &Shape{
	name:  DictionaryName,
	alloc: func() any { return payload.NewObject() },
	accepts: func(obj any) bool {
		_, ok := obj.(*payload.Object)
		return ok
	},
	fields:  map[string]*Field{},
	dynamic: dictionaryField,
}

// Dictionary returns the dynamic shape whose objects are *payload.Object.
// Every field is KindAny; Get returns the stored payload.Value (nil when the
// key is missing) and Set converts Go values with payload.FromAny. Setting nil
// removes the key.
func Dictionary() *Shape { return dictionary }

func dictionaryField(name string) *Field {
	return &Field{
		Name: name,
		Kind: KindAny,
		Get: func(obj any) any {
			o, ok := obj.(*payload.Object)
			if !ok {
				return nil
			}

			if v, ok := o.Get(name); ok {
				return v
			}

			return nil
		},
		Set: func(obj any, value any) error {
			o, ok := obj.(*payload.Object)
			if !ok {
				return wrongObject(DictionaryName, name, obj)
			}

			if value == nil {
				o.Delete(name)
				return nil
			}

			v, err := payload.FromAny(value)
			if err != nil {
				return fmt.Errorf("%w: %s.%s: %w", ErrWrongValue, DictionaryName, name, err)
			}

			o.Set(name, v)

			return nil
		},
	}
}

// DictionaryAs returns a dynamic shape that behaves like Dictionary under
// another name, for definitions naming shapes that have no Go type behind them.
func DictionaryAs(name string) *Shape {
	if name == DictionaryName {
		return dictionary
	}

	s := *dictionary
	s.name = name

	return &s
}
