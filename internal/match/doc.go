// Package match compares payload keys with shape field names.
//
// Key functions:
//   - Tokens and Normalize: split and fold identifiers such as "createdAt" and "created_at"
//   - SnakeCase and CamelCase: derive payload keys from field names
//   - Levenshtein and Similarity: edit distance between normalized names
//   - Rank and Suggest: "did you mean" candidates for unknown keys
package match
