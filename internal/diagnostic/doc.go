// Package diagnostic provides structured errors, warnings and notes collected
// while mapping payloads and while validating mapping definitions.
//
// Key capabilities:
//   - Per key path mapping failures that never abort a run
//   - Unknown key reports with "did you mean" suggestions
//   - Definition problems found by the YAML loader
//   - A combined error whose parts still answer errors.Is
package diagnostic
