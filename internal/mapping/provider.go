package mapping

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"object-mapper/internal/common"
	"object-mapper/internal/keypath"
	"object-mapper/internal/pathpattern"
)

// ErrUnknownContext is returned by ParseContext.
var ErrUnknownContext = errors.New("unknown mapping context")

// Context partitions provider registrations by purpose.
type Context int

const (
	// ContextObjects holds mappings for loaded objects.
	ContextObjects Context = iota
	// ContextSerialization holds mappings that turn objects into payloads.
	ContextSerialization
	// ContextErrors holds mappings for error responses.
	ContextErrors
	// ContextPagination holds the mapping of page metadata.
	ContextPagination
)

// Contexts lists every context.
var Contexts = []Context{ContextObjects, ContextSerialization, ContextErrors, ContextPagination}

// String returns a human-readable context name.
func (c Context) String() string {
	switch c {
	case ContextObjects:
		return "objects"
	case ContextSerialization:
		return "serialization"
	case ContextErrors:
		return "errors"
	case ContextPagination:
		return "pagination"
	default:
		return common.UnknownStr
	}
}

// ParseContext is the inverse of Context.String.
func ParseContext(s string) (Context, error) {
	for _, c := range Contexts {
		if strings.EqualFold(c.String(), s) {
			return c, nil
		}
	}

	return 0, fmt.Errorf("%w %q", ErrUnknownContext, s)
}

// KeyPathEntry registers a definition at a payload key path. KeyPath may
// contain "*" segments.
type KeyPathEntry struct {
	KeyPath    string
	Definition Definition
}

// PatternEntry registers a definition for resource paths matching Pattern.
type PatternEntry struct {
	Pattern    *pathpattern.Pattern
	Definition Definition
}

type registry struct {
	keyPaths []KeyPathEntry
	patterns []PatternEntry
	mappings []Definition
	byShape  map[string]*ObjectMapping
	single   Definition
}

// Provider resolves definitions per context. Configure it before mapping
// starts; lookups are safe for concurrent use.
type Provider struct {
	mu       sync.RWMutex
	contexts map[Context]*registry
}

// NewProvider returns an empty provider.
func NewProvider() *Provider {
	return &Provider{contexts: make(map[Context]*registry)}
}

func (p *Provider) registry(ctx Context) *registry {
	r, ok := p.contexts[ctx]
	if !ok {
		r = &registry{byShape: make(map[string]*ObjectMapping)}
		p.contexts[ctx] = r
	}

	return r
}

func (p *Provider) lookup(ctx Context) *registry {
	if r, ok := p.contexts[ctx]; ok {
		return r
	}

	return &registry{}
}

// SetMappingForKeyPath registers def at keyPath, replacing an earlier
// registration of the same key path in place. The empty key path maps the
// whole payload.
func (p *Provider) SetMappingForKeyPath(ctx Context, keyPath string, def Definition) error {
	if def == nil {
		return fmt.Errorf("%w: key path %q", ErrNilMapping, keyPath)
	}

	if _, err := keypath.ParsePattern(keyPath); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKeyPath, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	r := p.registry(ctx)

	for i, e := range r.keyPaths {
		if e.KeyPath == keyPath {
			r.keyPaths[i].Definition = def
			return nil
		}
	}

	r.keyPaths = append(r.keyPaths, KeyPathEntry{KeyPath: keyPath, Definition: def})

	return nil
}

// RemoveMappingForKeyPath drops the registration of keyPath.
func (p *Provider) RemoveMappingForKeyPath(ctx Context, keyPath string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	r := p.registry(ctx)

	for i, e := range r.keyPaths {
		if e.KeyPath == keyPath {
			r.keyPaths = slices.Delete(r.keyPaths, i, i+1)
			return true
		}
	}

	return false
}

// MappingForKeyPath returns the definition of the first registration, in
// registration order, whose key path or wildcard pattern matches keyPath.
func (p *Provider) MappingForKeyPath(ctx Context, keyPath string) (Definition, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, e := range p.lookup(ctx).keyPaths {
		if e.KeyPath == keyPath || keypath.Match(e.KeyPath, keyPath) {
			return e.Definition, true
		}
	}

	return nil, false
}

// KeyPathEntries returns the key path registrations in registration order.
func (p *Provider) KeyPathEntries(ctx Context) []KeyPathEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return slices.Clone(p.lookup(ctx).keyPaths)
}

// AddMappingForPattern registers def for resource paths matching pattern.
// Re-registering a pattern replaces its definition in place; new patterns
// go last.
func (p *Provider) AddMappingForPattern(ctx Context, pattern string, def Definition) error {
	return p.InsertMappingForPattern(ctx, pattern, def, -1)
}

// InsertMappingForPattern registers def for pattern at position index, giving
// it priority over later entries. A negative or too large index appends.
func (p *Provider) InsertMappingForPattern(ctx Context, pattern string, def Definition, index int) error {
	if def == nil {
		return fmt.Errorf("%w: pattern %q", ErrNilMapping, pattern)
	}

	compiled, err := pathpattern.Compile(pattern)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	r := p.registry(ctx)
	entry := PatternEntry{Pattern: compiled, Definition: def}

	for i, e := range r.patterns {
		if e.Pattern.String() == pattern {
			r.patterns = slices.Delete(r.patterns, i, i+1)
			break
		}
	}

	if index < 0 || index >= len(r.patterns) {
		r.patterns = append(r.patterns, entry)
	} else {
		r.patterns = slices.Insert(r.patterns, index, entry)
	}

	return nil
}

// MappingForPath returns the definition of the first registered pattern
// matching resourcePath, with the captured parameters.
func (p *Provider) MappingForPath(ctx Context, resourcePath string) (Definition, pathpattern.Params, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, e := range p.lookup(ctx).patterns {
		if params, ok := e.Pattern.Match(resourcePath); ok {
			return e.Definition, params, true
		}
	}

	return nil, nil, false
}

// PatternEntries returns the pattern registrations in priority order.
func (p *Provider) PatternEntries(ctx Context) []PatternEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return slices.Clone(p.lookup(ctx).patterns)
}

// AddMapping appends def to the list of mappings of ctx.
func (p *Provider) AddMapping(ctx Context, def Definition) error {
	if def == nil {
		return ErrNilMapping
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	r := p.registry(ctx)
	r.mappings = append(r.mappings, def)

	return nil
}

// Mappings returns the list of mappings of ctx.
func (p *Provider) Mappings(ctx Context) []Definition {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return slices.Clone(p.lookup(ctx).mappings)
}

// SetMapping sets the single mapping of ctx.
func (p *Provider) SetMapping(ctx Context, def Definition) error {
	if def == nil {
		return ErrNilMapping
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.registry(ctx).single = def

	return nil
}

// Mapping returns the single mapping of ctx.
func (p *Provider) Mapping(ctx Context) (Definition, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	def := p.lookup(ctx).single

	return def, def != nil
}

// SetObjectMapping registers def at keyPath in ContextObjects.
func (p *Provider) SetObjectMapping(keyPath string, def Definition) error {
	return p.SetMappingForKeyPath(ContextObjects, keyPath, def)
}

// SetSerializationMapping registers the mapping that serializes objects of
// the shape named shapeName.
func (p *Provider) SetSerializationMapping(shapeName string, m *ObjectMapping) error {
	if m == nil {
		return fmt.Errorf("%w: serialization of %s", ErrNilMapping, shapeName)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	r := p.registry(ContextSerialization)
	if _, exists := r.byShape[shapeName]; !exists {
		r.mappings = append(r.mappings, m)
	} else {
		for i, def := range r.mappings {
			if def == Definition(r.byShape[shapeName]) {
				r.mappings[i] = m
			}
		}
	}

	r.byShape[shapeName] = m

	return nil
}

// SerializationMappingFor returns the serialization mapping for shapeName.
func (p *Provider) SerializationMappingFor(shapeName string) (*ObjectMapping, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, ok := p.lookup(ContextSerialization).byShape[shapeName]

	return m, ok
}

// SetErrorMapping registers def at keyPath in ContextErrors.
func (p *Provider) SetErrorMapping(keyPath string, def Definition) error {
	return p.SetMappingForKeyPath(ContextErrors, keyPath, def)
}

// SetPaginationMapping sets the single mapping of ContextPagination.
func (p *Provider) SetPaginationMapping(def Definition) error {
	return p.SetMapping(ContextPagination, def)
}

// PaginationMapping returns the single mapping of ContextPagination.
func (p *Provider) PaginationMapping() (Definition, bool) {
	return p.Mapping(ContextPagination)
}
