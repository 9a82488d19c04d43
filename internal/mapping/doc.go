// Package mapping declares how payloads map onto shapes.
//
// An ObjectMapping targets one shape and holds an ordered list of rules:
// AttributeMapping copies a coerced scalar from a source key path into a
// field, RelationshipMapping maps a nested object or collection with another
// Definition. Mappings are configured once and are read-only while mapping
// runs use them, so one mapping may be shared by many concurrent runs.
//
// A Definition is anything that picks the ObjectMapping for a payload value:
// an *ObjectMapping picks itself, a *DynamicMapping inspects the value.
//
// Inverse derives a serialization mapping from a load mapping by swapping
// the source and destination of every serializable rule.
//
// The Provider registers definitions per Context by key path, by resource
// path pattern, or as the single mapping of a context.
package mapping
