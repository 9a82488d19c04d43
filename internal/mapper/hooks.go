package mapper

import (
	"object-mapper/internal/diagnostic"
	"object-mapper/internal/mapping"
	"object-mapper/internal/payload"
)

// Hooks observe a run. Every callback is optional and runs synchronously on
// the goroutine calling Perform.
type Hooks struct {
	// WillMap is called before the value at keyPath is mapped.
	WillMap func(keyPath string, value payload.Value)
	// DidMap is called with the object or collection produced for keyPath.
	DidMap func(keyPath string, result any)
	// DidNotFind is called for a registered key path absent from the payload.
	DidNotFind func(keyPath string)
	// DidFindMapping is called when an object mapping is picked for a value.
	DidFindMapping func(keyPath string, m *mapping.ObjectMapping)
	// DidSetValue is called after a field is assigned.
	DidSetValue func(obj any, field string, value any)
	// DidAddError is called for every recorded error diagnostic.
	DidAddError func(d diagnostic.Diagnostic)
}

func (h Hooks) willMap(keyPath string, value payload.Value) {
	if h.WillMap != nil {
		h.WillMap(keyPath, value)
	}
}

func (h Hooks) didMap(keyPath string, result any) {
	if h.DidMap != nil {
		h.DidMap(keyPath, result)
	}
}

func (h Hooks) didNotFind(keyPath string) {
	if h.DidNotFind != nil {
		h.DidNotFind(keyPath)
	}
}

func (h Hooks) didFindMapping(keyPath string, m *mapping.ObjectMapping) {
	if h.DidFindMapping != nil {
		h.DidFindMapping(keyPath, m)
	}
}

func (h Hooks) didSetValue(obj any, field string, value any) {
	if h.DidSetValue != nil {
		h.DidSetValue(obj, field, value)
	}
}

func (h Hooks) didAddError(d diagnostic.Diagnostic) {
	if h.DidAddError != nil {
		h.DidAddError(d)
	}
}
