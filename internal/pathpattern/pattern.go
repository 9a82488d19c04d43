// Package pathpattern matches and builds resource paths such as
// "/users/:id/pets" or "/files/*".
//
// A placeholder is a colon followed by a letter or underscore and then any
// letters, digits or underscores. A
// trailing "*" captures the rest of the path under the name "*". Matching
// ignores the query string.
package pathpattern

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"object-mapper/internal/payload"
)

// Splat is the parameter name of a trailing "*".
const Splat = "*"

var (
	// ErrInvalidPattern is wrapped by every Compile error.
	ErrInvalidPattern = errors.New("invalid path pattern")
	// ErrMissingParam is returned when interpolation lacks a placeholder value.
	ErrMissingParam = errors.New("missing path parameter")
)

// Params holds the placeholder values captured by Match.
type Params map[string]string

type part struct {
	literal string
	param   string
}

// Pattern is a compiled resource path pattern. It is immutable.
type Pattern struct {
	raw   string
	re    *regexp.Regexp
	parts []part
	names []string
}

// Compile parses a pattern.
func Compile(raw string) (*Pattern, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPattern)
	}

	p := &Pattern{raw: raw}

	var (
		expr strings.Builder
		lit  strings.Builder
		seen = map[string]bool{}
	)

	flushLiteral := func() {
		if lit.Len() > 0 {
			p.parts = append(p.parts, part{literal: lit.String()})
			expr.WriteString(regexp.QuoteMeta(lit.String()))
			lit.Reset()
		}
	}

	expr.WriteString("^")

	for i := 0; i < len(raw); i++ {
		c := raw[i]

		switch {
		case c == ':' && i+1 < len(raw) && isNameStart(raw[i+1]):
			end := i + 1
			for end < len(raw) && isNameByte(raw[end]) {
				end++
			}

			name := raw[i+1 : end]
			if seen[name] {
				return nil, fmt.Errorf("%w %q: duplicate placeholder %q", ErrInvalidPattern, raw, name)
			}

			seen[name] = true

			flushLiteral()
			p.parts = append(p.parts, part{param: name})
			p.names = append(p.names, name)
			expr.WriteString("([^/?#]+)")

			i = end - 1
		case c == '*':
			if i != len(raw)-1 {
				return nil, fmt.Errorf("%w %q: \"*\" is only allowed at the end", ErrInvalidPattern, raw)
			}

			flushLiteral()
			p.parts = append(p.parts, part{param: Splat})
			p.names = append(p.names, Splat)
			expr.WriteString("(.*)")
		default:
			lit.WriteByte(c)
		}
	}

	flushLiteral()
	expr.WriteString("$")

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, raw, err)
	}

	p.re = re

	return p, nil
}

// MustCompile is Compile for static patterns; it panics on error.
func MustCompile(raw string) *Pattern {
	p, err := Compile(raw)
	if err != nil {
		panic(err)
	}

	return p
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

// String returns the pattern as written.
func (p *Pattern) String() string { return p.raw }

// Names returns the placeholder names in order of appearance.
func (p *Pattern) Names() []string {
	return append([]string(nil), p.names...)
}

// Match reports whether path matches and returns the unescaped placeholder values.
func (p *Pattern) Match(path string) (Params, bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}

	params := make(Params, len(p.names))

	for i, name := range p.names {
		v, err := url.PathUnescape(m[i+1])
		if err != nil {
			v = m[i+1]
		}

		params[name] = v
	}

	return params, true
}

// Interpolate fills every placeholder with lookup(name), path-escaping
// placeholder values but not the splat.
func (p *Pattern) Interpolate(lookup func(name string) (string, bool)) (string, error) {
	var sb strings.Builder

	for _, pt := range p.parts {
		if pt.param == "" {
			sb.WriteString(pt.literal)
			continue
		}

		v, ok := lookup(pt.param)
		if !ok {
			return "", fmt.Errorf("%w %q in %q", ErrMissingParam, pt.param, p.raw)
		}

		if pt.param == Splat {
			sb.WriteString(v)
		} else {
			sb.WriteString(url.PathEscape(v))
		}
	}

	return sb.String(), nil
}

// InterpolateParams fills placeholders from a map of strings, integers or
// other fmt-printable values.
func (p *Pattern) InterpolateParams(params map[string]any) (string, error) {
	return p.Interpolate(func(name string) (string, bool) {
		v, ok := params[name]
		if !ok || v == nil {
			return "", false
		}

		switch x := v.(type) {
		case string:
			return x, true
		case int:
			return strconv.Itoa(x), true
		default:
			return fmt.Sprint(x), true
		}
	})
}

// InterpolateObject fills placeholders from the scalar members of obj.
// Null, object and array members count as missing.
func (p *Pattern) InterpolateObject(obj *payload.Object) (string, error) {
	return p.Interpolate(func(name string) (string, bool) {
		v, ok := obj.Get(name)
		if !ok {
			return "", false
		}

		switch v.Kind() {
		case payload.KindString:
			s, _ := v.AsString()
			return s, true
		case payload.KindNumber:
			return v.Literal()
		case payload.KindBool:
			b, _ := v.AsBool()
			return strconv.FormatBool(b), true
		default:
			return "", false
		}
	})
}
