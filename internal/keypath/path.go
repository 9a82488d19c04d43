package keypath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const compiledCacheSize = 2048

// ErrInvalidPath is wrapped by every parse error.
var ErrInvalidPath = errors.New("invalid key path")

var compiled = mustCache()

func mustCache() *lru.Cache[string, Path] {
	c, err := lru.New[string, Path](compiledCacheSize)
	if err != nil {
		panic(err)
	}

	return c
}

// SegmentKind identifies how a segment is applied.
type SegmentKind int

const (
	// SegmentKey selects an object member.
	SegmentKey SegmentKind = iota
	// SegmentIndex selects an array element (or a numeric object member).
	SegmentIndex
	// SegmentCollect gathers a member from every element of an array.
	SegmentCollect
	// SegmentWildcard matches any single segment. Only valid in patterns.
	SegmentWildcard
)

// Segment is one step of a parsed path.
type Segment struct {
	Kind  SegmentKind
	Key   string
	Index int
	// Bracketed is true when the index was written as "[n]" rather than ".n".
	Bracketed bool
}

// String renders the segment the way it is written inside a path.
func (s Segment) String() string {
	switch s.Kind {
	case SegmentIndex:
		if s.Bracketed {
			return "[" + strconv.Itoa(s.Index) + "]"
		}

		return strconv.Itoa(s.Index)
	case SegmentCollect:
		return "[" + s.Key + "]"
	case SegmentWildcard:
		return "*"
	default:
		return s.Key
	}
}

// Path is a parsed key path. The zero Path addresses the root value.
type Path struct {
	raw      string
	Segments []Segment
}

// Parse parses a key path. The empty string is the root path.
func Parse(raw string) (Path, error) {
	return parse(raw, false)
}

// ParsePattern parses a key path that may contain "*" wildcard segments.
func ParsePattern(raw string) (Path, error) {
	return parse(raw, true)
}

// MustParse is Parse for static paths; it panics on error.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}

	return p
}

func parse(raw string, allowWildcard bool) (Path, error) {
	cacheKey := raw
	if allowWildcard {
		cacheKey = "\x00" + raw
	}

	if p, ok := compiled.Get(cacheKey); ok {
		return p, nil
	}

	p := Path{raw: raw}
	if raw == "" {
		return p, nil
	}

	for part := range strings.SplitSeq(raw, ".") {
		segs, err := parsePart(raw, part, allowWildcard)
		if err != nil {
			return Path{}, err
		}

		p.Segments = append(p.Segments, segs...)
	}

	compiled.Add(cacheKey, p)

	return p, nil
}

// parsePart splits one dot-separated part such as "items[0]" or "items[sku]".
func parsePart(raw, part string, allowWildcard bool) ([]Segment, error) {
	if part == "" {
		return nil, fmt.Errorf("%w %q: empty segment", ErrInvalidPath, raw)
	}

	if part == "*" {
		if !allowWildcard {
			return nil, fmt.Errorf("%w %q: wildcard outside a pattern", ErrInvalidPath, raw)
		}

		return []Segment{{Kind: SegmentWildcard}}, nil
	}

	name, rest, hasBracket := strings.Cut(part, "[")

	var segs []Segment

	if name != "" {
		if strings.ContainsAny(name, "]*") {
			return nil, fmt.Errorf("%w %q: unexpected character in %q", ErrInvalidPath, raw, name)
		}

		segs = append(segs, plainSegment(name))
	}

	for hasBracket {
		inner, after, closed := strings.Cut(rest, "]")
		if !closed {
			return nil, fmt.Errorf("%w %q: unterminated bracket", ErrInvalidPath, raw)
		}

		if inner == "" {
			return nil, fmt.Errorf("%w %q: empty brackets", ErrInvalidPath, raw)
		}

		if n, err := strconv.Atoi(inner); err == nil && n >= 0 {
			segs = append(segs, Segment{Kind: SegmentIndex, Index: n, Bracketed: true})
		} else {
			segs = append(segs, Segment{Kind: SegmentCollect, Key: inner})
		}

		if after == "" {
			break
		}

		if after[0] != '[' {
			return nil, fmt.Errorf("%w %q: unexpected %q after bracket", ErrInvalidPath, raw, after)
		}

		rest = after[1:]
	}

	return segs, nil
}

// plainSegment reads a dotted segment. Only canonical decimals ("0", "12")
// become indexes; "007", "+1" and "-0" stay plain keys.
func plainSegment(name string) Segment {
	if n, err := strconv.Atoi(name); err == nil && n >= 0 && strconv.Itoa(n) == name {
		return Segment{Kind: SegmentIndex, Index: n, Key: name}
	}

	return Segment{Kind: SegmentKey, Key: name}
}

// String returns the path as written.
func (p Path) String() string {
	if p.raw != "" || len(p.Segments) == 0 {
		return p.raw
	}

	return Join(p.Segments)
}

// IsRoot returns true if the path addresses the root value.
func (p Path) IsRoot() bool {
	return len(p.Segments) == 0
}

// IsSimple returns true if this is a single plain key.
func (p Path) IsSimple() bool {
	return len(p.Segments) == 1 && p.Segments[0].Kind == SegmentKey
}

// HasWildcard reports whether the path contains a "*" segment.
func (p Path) HasWildcard() bool {
	for _, s := range p.Segments {
		if s.Kind == SegmentWildcard {
			return true
		}
	}

	return false
}

// Root returns the first segment's key, or "" for the root path.
func (p Path) Root() string {
	if len(p.Segments) == 0 {
		return ""
	}

	return p.Segments[0].String()
}

// Equals returns true if both paths have the same segments.
func (p Path) Equals(other Path) bool {
	if len(p.Segments) != len(other.Segments) {
		return false
	}

	for i, seg := range p.Segments {
		o := other.Segments[i]
		if seg.Kind != o.Kind || seg.Key != o.Key || seg.Index != o.Index {
			return false
		}
	}

	return true
}

// Join renders segments back into path notation.
func Join(segs []Segment) string {
	var sb strings.Builder

	for i, seg := range segs {
		bracket := seg.Kind == SegmentCollect || (seg.Kind == SegmentIndex && seg.Bracketed)
		if i > 0 && !bracket {
			sb.WriteByte('.')
		}

		sb.WriteString(seg.String())
	}

	return sb.String()
}

// Child appends a key to a dotted key path, treating "" as the root.
func Child(parent, key string) string {
	if parent == "" {
		return key
	}

	if key == "" {
		return parent
	}

	return parent + "." + key
}

// Element appends an index in bracket form, e.g. Element("pets", 2) is "pets[2]".
func Element(parent string, index int) string {
	return parent + "[" + strconv.Itoa(index) + "]"
}
