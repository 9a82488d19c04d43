package mapper

import (
	"maps"

	"object-mapper/internal/diagnostic"
)

// Result holds what one run mapped, keyed by the payload key path each object
// or collection came from. Key paths without mappable content are absent.
type Result struct {
	// RunID identifies the run in logs.
	RunID string

	keyPaths    []string
	values      map[string]any
	diagnostics diagnostic.Diagnostics
}

func newResult(runID string) *Result {
	return &Result{RunID: runID, values: make(map[string]any)}
}

func (r *Result) set(keyPath string, value any) {
	if _, exists := r.values[keyPath]; !exists {
		r.keyPaths = append(r.keyPaths, keyPath)
	}

	r.values[keyPath] = value
}

// Get returns the object or []any collection mapped at keyPath.
func (r *Result) Get(keyPath string) (any, bool) {
	v, ok := r.values[keyPath]
	return v, ok
}

// KeyPaths returns the mapped key paths in the order they were mapped.
func (r *Result) KeyPaths() []string {
	return append([]string(nil), r.keyPaths...)
}

// All returns every mapped object, with collections flattened, in key path order.
func (r *Result) All() []any {
	var out []any

	for _, kp := range r.keyPaths {
		switch v := r.values[kp].(type) {
		case []any:
			out = append(out, v...)
		default:
			out = append(out, v)
		}
	}

	return out
}

// First returns the first object of All, or nil.
func (r *Result) First() any {
	all := r.All()
	if len(all) == 0 {
		return nil
	}

	return all[0]
}

// Dictionary returns a copy of the key path to object map.
func (r *Result) Dictionary() map[string]any {
	return maps.Clone(r.values)
}

// IsEmpty reports whether nothing was mapped.
func (r *Result) IsEmpty() bool {
	return len(r.keyPaths) == 0
}

// Errors returns the error diagnostics recorded during the run.
func (r *Result) Errors() []diagnostic.Diagnostic {
	return append([]diagnostic.Diagnostic(nil), r.diagnostics.Errors...)
}

// Diagnostics returns every diagnostic recorded during the run.
func (r *Result) Diagnostics() *diagnostic.Diagnostics {
	return &r.diagnostics
}

// Err combines the error diagnostics, or returns nil.
func (r *Result) Err() error {
	return r.diagnostics.Err()
}
