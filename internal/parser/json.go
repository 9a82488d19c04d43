package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"object-mapper/internal/payload"
)

// ErrTrailingData is returned when a body holds more than one JSON value.
var ErrTrailingData = errors.New("trailing data after JSON value")

// JSON parses and renders application/json. Numbers keep their literal text.
type JSON struct {
	// Indent, when set, pretty-prints Marshal output.
	Indent string
}

// Parse decodes a single JSON value.
func (JSON) Parse(data []byte) (payload.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSON(dec)
	if err != nil {
		return payload.Value{}, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return payload.Value{}, ErrTrailingData
	}

	return v, nil
}

func decodeJSON(dec *json.Decoder) (payload.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return payload.Value{}, io.ErrUnexpectedEOF
		}

		return payload.Value{}, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeJSONObject(dec)
		case '[':
			return decodeJSONArray(dec)
		default:
			return payload.Value{}, fmt.Errorf("unexpected delimiter %q", rune(v))
		}
	case string:
		return payload.String(v), nil
	case json.Number:
		return payload.NumberLiteral(string(v))
	case float64:
		return payload.Float(v), nil
	case bool:
		return payload.Bool(v), nil
	case nil:
		return payload.Null(), nil
	default:
		return payload.Value{}, fmt.Errorf("unexpected token %T", tok)
	}
}

func decodeJSONObject(dec *json.Decoder) (payload.Value, error) {
	obj := payload.NewObject()

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return payload.Value{}, err
		}

		key, ok := tok.(string)
		if !ok {
			return payload.Value{}, fmt.Errorf("object key must be a string, got %T", tok)
		}

		v, err := decodeJSON(dec)
		if err != nil {
			return payload.Value{}, fmt.Errorf("%s: %w", key, err)
		}

		obj.Set(key, v)
	}

	if _, err := dec.Token(); err != nil {
		return payload.Value{}, err
	}

	return payload.ObjectValue(obj), nil
}

func decodeJSONArray(dec *json.Decoder) (payload.Value, error) {
	items := []payload.Value{}

	for dec.More() {
		v, err := decodeJSON(dec)
		if err != nil {
			return payload.Value{}, fmt.Errorf("[%d]: %w", len(items), err)
		}

		items = append(items, v)
	}

	if _, err := dec.Token(); err != nil {
		return payload.Value{}, err
	}

	return payload.Array(items...), nil
}

// Marshal renders v with object keys in payload order.
func (p JSON) Marshal(v payload.Value) ([]byte, error) {
	var buf bytes.Buffer

	if err := encodeJSON(&buf, v); err != nil {
		return nil, err
	}

	if p.Indent == "" {
		return buf.Bytes(), nil
	}

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", p.Indent); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

func encodeJSON(buf *bytes.Buffer, v payload.Value) error {
	switch v.Kind() {
	case payload.KindNull:
		buf.WriteString("null")
	case payload.KindBool, payload.KindNumber:
		buf.WriteString(v.String())
	case payload.KindString:
		s, _ := v.AsString()

		b, err := json.Marshal(s)
		if err != nil {
			return err
		}

		buf.Write(b)
	case payload.KindArray:
		items, _ := v.AsArray()

		buf.WriteByte('[')

		for i, item := range items {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := encodeJSON(buf, item); err != nil {
				return err
			}
		}

		buf.WriteByte(']')
	case payload.KindObject:
		obj, _ := v.AsObject()

		var err error

		buf.WriteByte('{')

		first := true

		obj.Range(func(key string, item payload.Value) bool {
			if !first {
				buf.WriteByte(',')
			}

			first = false

			var k []byte

			if k, err = json.Marshal(key); err != nil {
				return false
			}

			buf.Write(k)
			buf.WriteByte(':')

			err = encodeJSON(buf, item)

			return err == nil
		})

		if err != nil {
			return err
		}

		buf.WriteByte('}')
	}

	return nil
}
