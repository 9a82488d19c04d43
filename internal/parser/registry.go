package parser

import (
	"errors"
	"fmt"
	"mime"
	"sort"
	"strings"
	"sync"

	"object-mapper/internal/payload"
)

// Well-known MIME types.
const (
	MIMEJSON     = "application/json"
	MIMEYAML     = "application/x-yaml"
	MIMEYAMLText = "text/yaml"
	MIMEForm     = "application/x-www-form-urlencoded"
)

// ErrUnsupportedMIMEType is returned for a MIME type without a parser.
var ErrUnsupportedMIMEType = errors.New("unsupported MIME type")

// Parser decodes and encodes one wire format.
type Parser interface {
	Parse(data []byte) (payload.Value, error)
	Marshal(v payload.Value) ([]byte, error)
}

// Registry resolves parsers by MIME type. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// NewRegistry returns a registry with the JSON, YAML and form parsers.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]Parser)}

	r.Register(MIMEJSON, JSON{})
	r.Register(MIMEYAML, YAML{})
	r.Register(MIMEYAMLText, YAML{})
	r.Register("application/yaml", YAML{})
	r.Register(MIMEForm, Form{})

	return r
}

// Register sets the parser for mimeType, replacing any previous one.
func (r *Registry) Register(mimeType string, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.parsers[Normalize(mimeType)] = p
}

// Lookup returns the parser for mimeType.
func (r *Registry) Lookup(mimeType string) (Parser, error) {
	key := Normalize(mimeType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.parsers[key]; ok {
		return p, nil
	}

	if i := strings.LastIndexByte(key, '+'); i >= 0 {
		switch key[i+1:] {
		case "json":
			if p, ok := r.parsers[MIMEJSON]; ok {
				return p, nil
			}
		case "yaml":
			if p, ok := r.parsers[MIMEYAML]; ok {
				return p, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedMIMEType, mimeType)
}

// Supports reports whether mimeType has a parser.
func (r *Registry) Supports(mimeType string) bool {
	_, err := r.Lookup(mimeType)
	return err == nil
}

// MIMETypes returns the registered MIME types, sorted.
func (r *Registry) MIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}

// Parse decodes data with the parser for mimeType.
func (r *Registry) Parse(mimeType string, data []byte) (payload.Value, error) {
	p, err := r.Lookup(mimeType)
	if err != nil {
		return payload.Value{}, err
	}

	v, err := p.Parse(data)
	if err != nil {
		return payload.Value{}, fmt.Errorf("parse %s: %w", Normalize(mimeType), err)
	}

	return v, nil
}

// Marshal encodes v with the parser for mimeType.
func (r *Registry) Marshal(mimeType string, v payload.Value) ([]byte, error) {
	p, err := r.Lookup(mimeType)
	if err != nil {
		return nil, err
	}

	data, err := p.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", Normalize(mimeType), err)
	}

	return data, nil
}

// Normalize lowercases mimeType and strips its parameters.
func Normalize(mimeType string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}

	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}

	return strings.ToLower(strings.TrimSpace(mimeType))
}
