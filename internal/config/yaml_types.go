package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// StringList accepts either a single string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string
		if err := node.Decode(&str); err != nil {
			return err
		}

		if str != "" {
			*s = StringList{str}
		} else {
			*s = StringList{}
		}

		return nil

	case yaml.SequenceNode:
		var arr []string
		if err := node.Decode(&arr); err != nil {
			return err
		}

		*s = arr

		return nil

	default:
		return fmt.Errorf("line %d: expected string or list of strings", node.Line)
	}
}

// MarshalYAML writes a single entry as a plain string.
func (s StringList) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}

	return []string(s), nil
}

// UnmarshalYAML implements yaml.Unmarshaler for AttributeList.
// Accepts:
//   - A list of names and single pairs: [id, {full_name: name}]
//   - A mapping of source to destination: {id: id, full_name: name}
//   - A single name: "id"
func (a *AttributeList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		ref, err := attributeFromScalar(node)
		if err != nil {
			return err
		}

		*a = AttributeList{ref}

		return nil

	case yaml.MappingNode:
		refs, err := attributesFromMap(node)
		if err != nil {
			return err
		}

		*a = refs

		return nil

	case yaml.SequenceNode:
		refs := make(AttributeList, 0, len(node.Content))

		for _, item := range node.Content {
			switch item.Kind {
			case yaml.ScalarNode:
				ref, err := attributeFromScalar(item)
				if err != nil {
					return err
				}

				refs = append(refs, ref)

			case yaml.MappingNode:
				if len(item.Content) != 2 {
					return fmt.Errorf("line %d: expected a single pair like {full_name: name}", item.Line)
				}

				pair, err := attributesFromMap(item)
				if err != nil {
					return err
				}

				refs = append(refs, pair...)

			default:
				return fmt.Errorf("line %d: expected string or map in attribute list", item.Line)
			}
		}

		*a = refs

		return nil

	default:
		return fmt.Errorf("line %d: expected string, map or list for attributes", node.Line)
	}
}

func attributeFromScalar(node *yaml.Node) (AttributeRef, error) {
	var name string
	if err := node.Decode(&name); err != nil {
		return AttributeRef{}, err
	}

	if name == "" {
		return AttributeRef{}, fmt.Errorf("line %d: empty attribute name", node.Line)
	}

	return AttributeRef{Source: name, Destination: name}, nil
}

func attributesFromMap(node *yaml.Node) (AttributeList, error) {
	refs := make(AttributeList, 0, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		var source, destination string

		if err := node.Content[i].Decode(&source); err != nil {
			return nil, fmt.Errorf("invalid attribute source: %w", err)
		}

		if err := node.Content[i+1].Decode(&destination); err != nil {
			return nil, fmt.Errorf("invalid attribute destination: %w", err)
		}

		if source == "" || destination == "" {
			return nil, errors.New("attribute source and destination must not be empty")
		}

		refs = append(refs, AttributeRef{Source: source, Destination: destination})
	}

	return refs, nil
}

// MarshalYAML writes equal source and destination as a plain name and
// renamed attributes as single pairs.
func (a AttributeList) MarshalYAML() (any, error) {
	if len(a) == 0 {
		return nil, nil
	}

	out := make([]any, len(a))

	for i, ref := range a {
		if ref.Source == ref.Destination {
			out[i] = ref.Source
		} else {
			out[i] = map[string]string{ref.Source: ref.Destination}
		}
	}

	return out, nil
}
