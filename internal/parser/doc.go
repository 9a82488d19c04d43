// Package parser turns wire bodies into payload trees and back.
//
// A Registry maps MIME types to Parsers. Lookups ignore case and media type
// parameters, so "application/json; charset=utf-8" finds the JSON parser, and
// structured syntax suffixes such as "application/vnd.api+json" fall back to
// the parser of their base syntax.
//
// Every parser preserves object key order in both directions.
package parser
