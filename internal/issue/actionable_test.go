// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "load configuration"},
			expected: "failed to load configuration",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "load component manifest", Resource: "./component.cue"},
			expected: "failed to load component manifest: ./component.cue",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "initialize artifacts",
				Resource:  "/work/project",
				Cause:     errors.New("permission denied"),
			},
			expected: "failed to initialize artifacts: /work/project: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	err := WrapWithContext(fmt.Errorf("wrapped: %w", sentinel), "plan", "x")
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is must see through ActionableError")
	}
	if WrapWithContext(nil, "plan", "x") != nil {
		t.Error("wrapping nil must return nil")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("outer: %w", errors.Join(errors.New("first"), errors.New("second")))
	err := NewErrorContext().
		WithOperation("check artifacts").
		WithSuggestion("one").
		WithSuggestions("two", "three").
		Wrap(cause).
		Build()

	short := err.Format(false)
	for _, want := range []string{"failed to check artifacts", "\n  • one", "\n  • two", "\n  • three"} {
		if !strings.Contains(short, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, short)
		}
	}
	if strings.Contains(short, "Error chain") {
		t.Error("non-verbose output must not include the error chain")
	}

	verbose := err.Format(true)
	for _, want := range []string{"Error chain:", "1. outer:", "3. first"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, verbose)
		}
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build without operation must return nil")
	}
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError without operation must return nil")
	}

	ae := NewErrorContext().WithOperation("plan").WithIssue(AmbiguousArtifactsId).Build()
	if ae == nil || ae.Issue != AmbiguousArtifactsId {
		t.Fatalf("Build() = %+v", ae)
	}
}
