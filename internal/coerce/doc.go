// Package coerce converts payload values into the semantic kinds of shape fields
// and back.
//
// Conversions beyond the identity ones are grouped into categories, mirroring
// the conversion categories of the mapping options: textual numbers, numeric
// and textual booleans, Unix timestamps and lossy number truncation. An
// ObjectMapping may restrict the allowed categories.
//
// Dates are parsed by an ordered list of DateFormat values; the first format
// that parses the input wins. A DateFormat can be written as a Go layout, an
// LDML pattern such as "MM/dd/yyyy", or one of the named formats ISO8601,
// RFC3339, RFC1123 and unix.
package coerce
