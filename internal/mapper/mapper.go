package mapper

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"object-mapper/internal/keypath"
	"object-mapper/internal/mapping"
	"object-mapper/internal/payload"
)

var (
	// ErrBusy is returned when Perform is called while a run is in progress.
	ErrBusy = errors.New("mapper is already running")
	// ErrUnknownKeyPath is wrapped by the fatal error of a strict mapping.
	ErrUnknownKeyPath = errors.New("unknown destination key")
	// ErrNoProvider is returned by a dynamic run without a provider.
	ErrNoProvider = errors.New("mapper has no provider")
)

// Validator may reject a coerced value before it is assigned to obj.
type Validator func(rule mapping.Rule, obj any, proposed any) error

// Options configure a Mapper.
type Options struct {
	// Provider supplies the key path registrations for dynamic runs.
	Provider *mapping.Provider
	// Context selects the provider registrations. Defaults to ContextObjects.
	Context mapping.Context
	// Store looks up and allocates objects with a primary key. Optional.
	Store IdentityStore
	// Validator is called for every attribute of a mapping with PerformValidation.
	Validator Validator
	Hooks     Hooks
	Logger    *slog.Logger
}

// Mapper maps payloads. Independent mappers may run concurrently; one mapper
// runs one payload at a time.
type Mapper struct {
	opts    Options
	log     *slog.Logger
	running atomic.Bool
}

// New returns a mapper.
func New(opts Options) *Mapper {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Mapper{opts: opts, log: log}
}

type performConfig struct {
	target     any
	definition mapping.Definition
	keyPath    string
}

// PerformOption adjusts a single run.
type PerformOption func(*performConfig)

// WithTarget maps the top-level object onto target instead of a new object.
// It is used for the first single object whose shape accepts it.
func WithTarget(target any) PerformOption {
	return func(c *performConfig) { c.target = target }
}

// WithMapping skips key path discovery and maps with def.
func WithMapping(def mapping.Definition) PerformOption {
	return func(c *performConfig) { c.definition = def }
}

// WithKeyPath limits an explicit run to the value at keyPath.
func WithKeyPath(keyPath string) PerformOption {
	return func(c *performConfig) { c.keyPath = keyPath }
}

// Perform maps source. The returned error is non-nil only when the run could
// not start or a strict mapping met an unknown destination key; per-rule
// failures are reported by Result.Errors.
func (m *Mapper) Perform(source payload.Value, opts ...PerformOption) (*Result, error) {
	if !m.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer m.running.Store(false)

	var cfg performConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &run{
		mapper: m,
		result: newResult(uuid.NewString()),
		target: cfg.target,
	}
	r.log = m.log.With("run_id", r.result.RunID, "context", m.opts.Context.String())

	if cfg.definition == nil && m.opts.Provider == nil {
		return nil, ErrNoProvider
	}

	if cfg.definition != nil {
		r.explicit(source, cfg.keyPath, cfg.definition)
	} else {
		r.dynamic(source)
	}

	r.log.Info("mapping finished",
		"key_paths", len(r.result.keyPaths),
		"errors", len(r.result.diagnostics.Errors),
		"fatal", r.fatal != nil)

	return r.result, r.fatal
}

func (r *run) explicit(source payload.Value, keyPath string, def mapping.Definition) {
	value := source

	if keyPath != "" {
		v, ok := keypath.Resolve(source, keyPath)
		if !ok || v.IsNull() {
			r.mapper.opts.Hooks.didNotFind(keyPath)
			return
		}

		value = v
	}

	r.mapTopLevel(keyPath, value, def)
}

func (r *run) dynamic(source payload.Value) {
	provider := r.mapper.opts.Provider
	ctx := r.mapper.opts.Context
	entries := provider.KeyPathEntries(ctx)

	if len(entries) == 0 {
		if def, ok := provider.Mapping(ctx); ok {
			r.mapTopLevel("", source, def)
		}

		return
	}

	done := make(map[string]bool)

	for _, entry := range entries {
		concrete := keypath.Expand(source, entry.KeyPath)
		if len(concrete) == 0 {
			r.log.Debug("key path not found", "key_path", entry.KeyPath)
			r.mapper.opts.Hooks.didNotFind(entry.KeyPath)

			continue
		}

		for _, kp := range concrete {
			if r.fatal != nil {
				return
			}

			if done[kp] {
				continue
			}

			done[kp] = true

			// the first registration reaching kp maps it
			def := entry.Definition

			value, _ := keypath.Resolve(source, kp)
			if value.IsNull() {
				r.mapper.opts.Hooks.didNotFind(kp)
				continue
			}

			r.mapTopLevel(kp, value, def)
		}
	}
}

func (r *run) mapTopLevel(keyPath string, value payload.Value, def mapping.Definition) {
	r.mapper.opts.Hooks.willMap(keyPath, value)
	r.log.Debug("mapping key path", "key_path", keyPath, "kind", value.Kind().String())

	out, ok := r.mapValue(keyPath, value, def, true)
	if !ok {
		return
	}

	r.result.set(keyPath, out)
	r.mapper.opts.Hooks.didMap(keyPath, out)
}
