// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"context"
	"errors"
	"fmt"

	"github.com/tendkit/tend/pkg/structval"
)

// ErrNotFound is returned by Handle.Read when the artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

type (
	// Env is the read-only context a Definition computes its expected
	// content from.
	Env struct {
		// ProjectDir is the absolute project directory.
		ProjectDir string
		// Components lists the discovered component names in processing order.
		Components []string
	}

	// Definition is the contract every managed artifact implements.
	Definition interface {
		Descriptor() Descriptor
		// Expected returns the structure the artifact content must contain.
		// It is called at most once per Session.
		Expected(ctx context.Context, env Env) (structval.Value, error)
	}

	// Locator overrides the default location (Descriptor.Path).
	Locator interface {
		Locate(projectDir string) string
	}

	// OptOutDecider overrides the default opt-out rule. Implementations must
	// not call h.IsOptedOut.
	OptOutDecider interface {
		IsOptedOut(ctx context.Context, h *Handle) (bool, error)
	}

	// CorrectnessChecker overrides the default correctness rule.
	// Implementations must not call h.IsCorrect.
	CorrectnessChecker interface {
		IsCorrect(ctx context.Context, h *Handle) (bool, error)
	}

	// Repairer overrides the default repair, structval.MergeMissing. The
	// returned value must be freshly allocated.
	Repairer interface {
		Repair(expected, actual structval.Value) (structval.Value, error)
	}

	// State is a snapshot of an artifact's expected and current content.
	State struct {
		Expected structval.Value
		// Actual is nil when Present is false.
		Actual  structval.Value
		Present bool
	}

	// Static is a Definition whose expected content is fixed, such as an
	// artifact declared in a component manifest.
	Static struct {
		Desc    Descriptor
		Content structval.Value
	}

	// NotFoundError reports the location that was missing.
	// It wraps ErrNotFound for errors.Is() compatibility.
	NotFoundError struct {
		Path string
	}
)

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("artifact not found: %s", e.Path)
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Descriptor implements Definition.
func (s *Static) Descriptor() Descriptor { return s.Desc }

// Expected implements Definition.
func (s *Static) Expected(context.Context, Env) (structval.Value, error) {
	return s.Content, nil
}
