package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"object-mapper/internal/common"
)

// Mapping run codes.
const (
	CodeUnknownKey         = "unknown_key"
	CodeCoercionFailed     = "coercion_failed"
	CodeValidationRejected = "validation_rejected"
	CodeRelationshipFailed = "relationship_failed"
	CodeIdentityFailed     = "identity_failed"
	CodeTargetMismatch     = "target_mismatch"
	CodeUnmappable         = "unmappable"
)

// Definition codes.
const (
	CodeUnknownShape      = "unknown_shape"
	CodeUnknownField      = "unknown_field"
	CodeUnknownMapping    = "unknown_mapping"
	CodeDuplicateMapping  = "duplicate_mapping"
	CodeDuplicateKeyPath  = "duplicate_key_path"
	CodeInvalidKeyPath    = "invalid_key_path"
	CodeInvalidContext    = "invalid_context"
	CodeInvalidPattern    = "invalid_pattern"
	CodeInvalidRelation   = "invalid_relationship"
	CodeInvalidDateFormat = "invalid_date_format"
	CodeInvalidConversion = "invalid_conversion"
	CodeUnusedMapping     = "unused_mapping"
)

// Diagnostics holds all diagnostic information from a mapping run or a
// definition check.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity DiagnosticSeverity
	// Code is a unique identifier for this type of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Mapping names the object mapping or shape this relates to (if any).
	Mapping string
	// KeyPath identifies the payload key path this relates to (if any).
	KeyPath string
	// Suggestions are potential fixes or alternatives.
	Suggestions []string
	// Cause is the underlying failure (if any).
	Cause error
}

// DiagnosticSeverity represents the severity level of a diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticInfo DiagnosticSeverity = iota
	DiagnosticWarning
	DiagnosticError
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticInfo:
		return "info"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// Add appends a diagnostic to the list matching its severity.
func (d *Diagnostics) Add(diag Diagnostic) {
	switch diag.Severity {
	case DiagnosticError:
		d.Errors = append(d.Errors, diag)
	case DiagnosticWarning:
		d.Warnings = append(d.Warnings, diag)
	default:
		d.Infos = append(d.Infos, diag)
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, mapping, keyPath string) {
	d.Add(Diagnostic{
		Severity: DiagnosticError,
		Code:     code,
		Message:  message,
		Mapping:  mapping,
		KeyPath:  keyPath,
	})
}

// AddCause adds an error diagnostic wrapping cause.
func (d *Diagnostics) AddCause(code string, cause error, mapping, keyPath string) {
	d.Add(Diagnostic{
		Severity: DiagnosticError,
		Code:     code,
		Message:  cause.Error(),
		Mapping:  mapping,
		KeyPath:  keyPath,
		Cause:    cause,
	})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, mapping, keyPath string) {
	d.Add(Diagnostic{
		Severity: DiagnosticWarning,
		Code:     code,
		Message:  message,
		Mapping:  mapping,
		KeyPath:  keyPath,
	})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, mapping, keyPath string) {
	d.Add(Diagnostic{
		Severity: DiagnosticInfo,
		Code:     code,
		Message:  message,
		Mapping:  mapping,
		KeyPath:  keyPath,
	})
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// ByCode returns the error diagnostics carrying code.
func (d *Diagnostics) ByCode(code string) []Diagnostic {
	var out []Diagnostic

	for _, e := range d.Errors {
		if e.Code == code {
			out = append(out, e)
		}
	}

	return out
}

// Err returns a combined error from all error diagnostics, or nil if valid.
// Each part unwraps to its Cause.
func (d *Diagnostics) Err() error {
	if d.IsValid() {
		return nil
	}

	errs := make([]error, len(d.Errors))
	for i, e := range d.Errors {
		errs[i] = e
	}

	return errors.Join(errs...)
}

// Error implements error.
func (d Diagnostic) Error() string {
	return d.String()
}

// Unwrap returns the underlying cause.
func (d Diagnostic) Unwrap() error {
	return d.Cause
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Mapping != "" {
		prefix = append(prefix, "["+d.Mapping+"]")
	}

	if d.KeyPath != "" {
		prefix = append(prefix, d.KeyPath)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}
