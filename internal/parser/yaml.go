package parser

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"object-mapper/internal/payload"
)

const (
	tagNull      = "!!null"
	tagBool      = "!!bool"
	tagInt       = "!!int"
	tagFloat     = "!!float"
	tagStr       = "!!str"
	tagTimestamp = "!!timestamp"
	tagMerge     = "!!merge"
)

// ErrYAMLKey is returned for mapping keys that are not scalars.
var ErrYAMLKey = errors.New("YAML mapping keys must be scalars")

// YAML parses and renders YAML documents. Timestamps become RFC 3339 strings.
type YAML struct{}

// Parse decodes the first document of data. An empty body is null.
func (YAML) Parse(data []byte) (payload.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return payload.Value{}, err
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return payload.Null(), nil
	}

	return FromNode(doc.Content[0])
}

// FromNode converts a decoded YAML node, following aliases and merge keys.
func FromNode(n *yaml.Node) (payload.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return payload.Null(), nil
		}

		return FromNode(n.Content[0])
	case yaml.AliasNode:
		return FromNode(n.Alias)
	case yaml.SequenceNode:
		items := make([]payload.Value, 0, len(n.Content))

		for i, c := range n.Content {
			v, err := FromNode(c)
			if err != nil {
				return payload.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}

			items = append(items, v)
		}

		return payload.Array(items...), nil
	case yaml.MappingNode:
		obj := payload.NewObject()
		if err := mergeMapping(obj, n); err != nil {
			return payload.Value{}, err
		}

		return payload.ObjectValue(obj), nil
	case yaml.ScalarNode:
		return fromScalar(n)
	default:
		return payload.Value{}, fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}

// mergeMapping copies the pairs of a mapping node into obj, expanding "<<"
// merge keys before the explicit pairs that override them.
func mergeMapping(obj *payload.Object, n *yaml.Node) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if key.ShortTag() != tagMerge {
			continue
		}

		if val.Kind == yaml.AliasNode {
			val = val.Alias
		}

		sources := []*yaml.Node{val}
		if val.Kind == yaml.SequenceNode {
			sources = val.Content
		}

		for _, src := range sources {
			if src.Kind == yaml.AliasNode {
				src = src.Alias
			}

			if src.Kind != yaml.MappingNode {
				return fmt.Errorf("line %d: merge value must be a mapping", src.Line)
			}

			if err := mergeMapping(obj, src); err != nil {
				return err
			}
		}
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if key.ShortTag() == tagMerge {
			continue
		}

		if key.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: %w", key.Line, ErrYAMLKey)
		}

		v, err := FromNode(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key.Value, err)
		}

		obj.Set(key.Value, v)
	}

	return nil
}

func fromScalar(n *yaml.Node) (payload.Value, error) {
	switch n.ShortTag() {
	case tagNull:
		return payload.Null(), nil
	case tagBool:
		var b bool
		if err := n.Decode(&b); err != nil {
			return payload.Value{}, err
		}

		return payload.Bool(b), nil
	case tagInt:
		var x any
		if err := n.Decode(&x); err != nil {
			return payload.Value{}, err
		}

		return payload.FromAny(x)
	case tagFloat:
		var f float64
		if err := n.Decode(&f); err != nil {
			return payload.Value{}, err
		}

		if lit, err := payload.NumberLiteral(n.Value); err == nil {
			return lit, nil
		}

		return payload.Float(f), nil
	case tagTimestamp:
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return payload.String(n.Value), nil
		}

		return payload.String(t.Format(time.RFC3339Nano)), nil
	default:
		return payload.String(n.Value), nil
	}
}

// Marshal renders v as a YAML document with keys in payload order.
func (YAML) Marshal(v payload.Value) ([]byte, error) {
	return yaml.Marshal(ToNode(v))
}

// ToNode converts v into a YAML node tree.
func ToNode(v payload.Value) *yaml.Node {
	switch v.Kind() {
	case payload.KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagNull, Value: "null"}
	case payload.KindBool:
		b, _ := v.AsBool()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagBool, Value: strconv.FormatBool(b)}
	case payload.KindNumber:
		lit, _ := v.Literal()

		tag := tagFloat
		if _, err := strconv.ParseInt(lit, 10, 64); err == nil {
			tag = tagInt
		}

		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: lit}
	case payload.KindString:
		s, _ := v.AsString()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagStr, Value: s}
	case payload.KindArray:
		items, _ := v.AsArray()

		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range items {
			n.Content = append(n.Content, ToNode(item))
		}

		return n
	default:
		obj, _ := v.AsObject()

		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		obj.Range(func(key string, item payload.Value) bool {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: tagStr, Value: key},
				ToNode(item))

			return true
		})

		return n
	}
}
