// Package keypath parses dotted key paths and resolves them against payload trees.
//
// # Path Syntax
//
// Key paths support:
//   - Plain keys: "name"
//   - Nested keys: "address.city"
//   - Array indices: "items.0" or "items[0]"
//   - Collect operator: "items[sku]" yields the "sku" of every element of "items"
//
// Resolution fails softly: a missing intermediate key, an index out of range or a
// key applied to a scalar all report "absent" rather than an error. A present JSON
// null is reported as present, which lets callers tell "clear this field" apart from
// "leave this field alone".
//
// Patterns used for rule lookup and provider registration additionally accept "*",
// which matches exactly one segment.
package keypath
