package parser

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"object-mapper/internal/payload"
)

// ErrFormKey is returned for a malformed bracketed form key.
var ErrFormKey = errors.New("malformed form key")

// ErrFormValue is returned when a value cannot be rendered as a form body.
var ErrFormValue = errors.New("form bodies encode objects only")

// Form parses and renders application/x-www-form-urlencoded bodies.
//
// Bracketed keys nest: "user[name]=ann" is {"user": {"name": "ann"}} and
// "tags[]=a&tags[]=b" is {"tags": ["a", "b"]}. A plain key given twice
// collects its values into an array. Every leaf is a string.
type Form struct{}

// Parse decodes a form body in field order.
func (Form) Parse(data []byte) (payload.Value, error) {
	root := payload.NewObject()

	for _, pair := range strings.Split(string(data), "&") {
		if pair == "" {
			continue
		}

		rawKey, rawValue, _ := strings.Cut(pair, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return payload.Value{}, fmt.Errorf("%w: %q: %w", ErrFormKey, rawKey, err)
		}

		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return payload.Value{}, fmt.Errorf("form value of %q: %w", key, err)
		}

		segs, err := formSegments(key)
		if err != nil {
			return payload.Value{}, err
		}

		insertForm(root, segs, payload.String(value))
	}

	return payload.ObjectValue(root), nil
}

func formSegments(key string) ([]string, error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return []string{key}, nil
	}

	if open == 0 {
		return nil, fmt.Errorf("%w: %q", ErrFormKey, key)
	}

	segs := []string{key[:open]}
	rest := key[open:]

	for rest != "" {
		if rest[0] != '[' {
			return nil, fmt.Errorf("%w: %q", ErrFormKey, key)
		}

		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, fmt.Errorf("%w: %q", ErrFormKey, key)
		}

		segs = append(segs, rest[1:end])
		rest = rest[end+1:]
	}

	return segs, nil
}

func insertForm(obj *payload.Object, segs []string, value payload.Value) {
	key := segs[0]
	existing, exists := obj.Get(key)

	if len(segs) == 1 {
		switch {
		case !exists:
			obj.Set(key, value)
		case existing.IsCollection():
			items, _ := existing.AsArray()
			obj.Set(key, payload.Array(append(items, value)...))
		default:
			obj.Set(key, payload.Array(existing, value))
		}

		return
	}

	if segs[1] == "" {
		items, _ := existing.AsArray()
		rest := segs[2:]

		if len(rest) == 0 {
			obj.Set(key, payload.Array(append(items, value)...))
			return
		}

		// items[][name]=a&items[][name]=b starts a new element whenever the
		// last one already holds the key
		var last *payload.Object
		if n := len(items); n > 0 {
			if o, ok := items[n-1].AsObject(); ok && !o.Has(rest[0]) {
				last = o
			}
		}

		if last == nil {
			last = payload.NewObject()
			items = append(items, payload.ObjectValue(last))
		}

		insertForm(last, rest, value)
		obj.Set(key, payload.Array(items...))

		return
	}

	child, ok := existing.AsObject()
	if !exists || !ok {
		child = payload.NewObject()
		obj.Set(key, payload.ObjectValue(child))
	}

	insertForm(child, segs[1:], value)
}

// Marshal renders an object as a form body, nesting with brackets.
func (Form) Marshal(v payload.Value) ([]byte, error) {
	obj, ok := v.AsObject()
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrFormValue, v.Kind())
	}

	var pairs []string

	obj.Range(func(key string, item payload.Value) bool {
		flattenForm(url.QueryEscape(key), item, &pairs)
		return true
	})

	return []byte(strings.Join(pairs, "&")), nil
}

func flattenForm(name string, v payload.Value, pairs *[]string) {
	switch v.Kind() {
	case payload.KindObject:
		obj, _ := v.AsObject()
		obj.Range(func(key string, item payload.Value) bool {
			flattenForm(name+"["+url.QueryEscape(key)+"]", item, pairs)
			return true
		})
	case payload.KindArray:
		items, _ := v.AsArray()
		for _, item := range items {
			flattenForm(name+"[]", item, pairs)
		}
	case payload.KindNull:
		*pairs = append(*pairs, name+"=")
	case payload.KindString:
		s, _ := v.AsString()
		*pairs = append(*pairs, name+"="+url.QueryEscape(s))
	default:
		*pairs = append(*pairs, name+"="+url.QueryEscape(v.String()))
	}
}
