// SPDX-License-Identifier: MPL-2.0

package discovery

import "fmt"

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal discovery error.
	SeverityError Severity = "error"

	// CodeReplacesUnknown flags a replaces entry naming no registered variant.
	CodeReplacesUnknown = "replaces_unknown"
	// CodeReplacesNotDependency flags a replaces entry whose target component
	// is not a dependency of the replacing component.
	CodeReplacesNotDependency = "replaces_not_dependency"
	// CodeReplacesInvalid flags a replaces entry that is not a variant ID.
	CodeReplacesInvalid = "replaces_invalid"
	// CodeSearchPathMissing flags a configured search path that does not exist.
	CodeSearchPathMissing = "search_path_missing"
	// CodeSearchPathUnreadable flags a search path that could not be listed.
	CodeSearchPathUnreadable = "search_path_unreadable"
)

type (
	// Severity is the level of a Diagnostic.
	Severity string

	// Diagnostic is a structured discovery finding returned to callers
	// instead of being printed.
	Diagnostic struct {
		Severity Severity
		// Code is a machine-readable identifier such as "replaces_unknown".
		Code    string
		Message string
		// Path is the file or directory the diagnostic concerns, if any.
		Path string
		// Component names the component concerned, if any.
		Component string
		Cause     error
	}
)

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s", d.Severity, d.Message)
	if d.Path != "" {
		s += " (" + d.Path + ")"
	}
	return s
}

func warnf(code, component, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity:  SeverityWarning,
		Code:      code,
		Component: component,
		Message:   fmt.Sprintf(format, args...),
	}
}
