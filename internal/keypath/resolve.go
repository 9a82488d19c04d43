package keypath

import (
	"strconv"

	"object-mapper/internal/payload"
)

// Resolve parses raw and resolves it against root. Malformed paths are absent.
func Resolve(root payload.Value, raw string) (payload.Value, bool) {
	p, err := Parse(raw)
	if err != nil {
		return payload.Value{}, false
	}

	return p.Resolve(root)
}

// Resolve returns the value addressed by p, and false if it is absent.
func (p Path) Resolve(root payload.Value) (payload.Value, bool) {
	current := root

	for _, seg := range p.Segments {
		next, ok := step(current, seg)
		if !ok {
			return payload.Value{}, false
		}

		current = next
	}

	return current, true
}

func step(current payload.Value, seg Segment) (payload.Value, bool) {
	switch seg.Kind {
	case SegmentKey:
		obj, ok := current.AsObject()
		if !ok {
			return payload.Value{}, false
		}

		return obj.Get(seg.Key)
	case SegmentIndex:
		if items, ok := current.AsArray(); ok {
			if seg.Index >= len(items) {
				return payload.Value{}, false
			}

			return items[seg.Index], true
		}

		// "codes.0" on an object addresses the member named "0".
		if obj, ok := current.AsObject(); ok && !seg.Bracketed {
			return obj.Get(seg.Key)
		}

		return payload.Value{}, false
	case SegmentCollect:
		items, ok := current.AsArray()
		if !ok {
			return payload.Value{}, false
		}

		collected := make([]payload.Value, 0, len(items))

		for _, item := range items {
			obj, ok := item.AsObject()
			if !ok {
				continue
			}

			if v, ok := obj.Get(seg.Key); ok {
				collected = append(collected, v)
			}
		}

		return payload.Array(collected...), true
	default:
		return payload.Value{}, false
	}
}

// Match reports whether keyPath matches pattern segment by segment, where a
// "*" pattern segment matches any single segment. Malformed inputs never match.
func Match(pattern, keyPath string) bool {
	pat, err := ParsePattern(pattern)
	if err != nil {
		return false
	}

	p, err := Parse(keyPath)
	if err != nil {
		return false
	}

	if len(pat.Segments) != len(p.Segments) {
		return false
	}

	for i, seg := range pat.Segments {
		if seg.Kind == SegmentWildcard {
			continue
		}

		other := p.Segments[i]
		if seg.Kind != other.Kind || seg.Key != other.Key || seg.Index != other.Index {
			return false
		}
	}

	return true
}

// Expand lists the concrete key paths in root that match pattern, in payload
// order. A pattern without wildcards expands to itself when it resolves.
// Wildcards range over object keys and array indices.
func Expand(root payload.Value, pattern string) []string {
	pat, err := ParsePattern(pattern)
	if err != nil {
		return nil
	}

	if !pat.HasWildcard() {
		if _, ok := pat.Resolve(root); ok {
			return []string{pattern}
		}

		return nil
	}

	var out []string

	expand(root, pat.Segments, nil, &out)

	return out
}

func expand(current payload.Value, rest, prefix []Segment, out *[]string) {
	if len(rest) == 0 {
		*out = append(*out, Join(prefix))
		return
	}

	seg := rest[0]
	if seg.Kind != SegmentWildcard {
		next, ok := step(current, seg)
		if ok {
			expand(next, rest[1:], append(prefix[:len(prefix):len(prefix)], seg), out)
		}

		return
	}

	if obj, ok := current.AsObject(); ok {
		obj.Range(func(key string, child payload.Value) bool {
			expand(child, rest[1:], append(prefix[:len(prefix):len(prefix)], plainSegment(key)), out)
			return true
		})

		return
	}

	if items, ok := current.AsArray(); ok {
		for i, child := range items {
			idx := Segment{Kind: SegmentIndex, Index: i, Key: strconv.Itoa(i)}
			expand(child, rest[1:], append(prefix[:len(prefix):len(prefix)], idx), out)
		}
	}
}
