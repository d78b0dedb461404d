// SPDX-License-Identifier: MPL-2.0

package initializer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnconvergedRepair means an artifact was still incorrect after its
	// repair was written. Retrying cannot help: expected content and repair
	// are deterministic.
	ErrUnconvergedRepair = errors.New("repair did not converge")
	// ErrAmbiguous is the sentinel error wrapped by AmbiguityError.
	ErrAmbiguous = errors.New("ambiguous artifact location")
	// ErrArtifactsFailed is returned by RunAll when at least one artifact
	// ended in a failing outcome.
	ErrArtifactsFailed = errors.New("artifacts failed")
)

type (
	// Conflict is one location targeted by several leaf variants.
	Conflict struct {
		Location string
		IDs      []string
	}

	// AmbiguityError reports unrelated variants resolving to the same
	// location. It is raised while planning, before anything is written.
	AmbiguityError struct {
		Conflicts []Conflict
	}

	// ArtifactError is the failure of a single artifact.
	ArtifactError struct {
		ID       string
		Location string
		Reason   Reason
		Err      error
	}
)

// Error implements the error interface.
func (e *AmbiguityError) Error() string {
	parts := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		parts[i] = fmt.Sprintf("%s is targeted by %s", c.Location, strings.Join(c.IDs, ", "))
	}
	return "ambiguous artifacts: " + strings.Join(parts, "; ")
}

// Unwrap returns ErrAmbiguous for errors.Is() compatibility.
func (e *AmbiguityError) Unwrap() error { return ErrAmbiguous }

// Error implements the error interface.
func (e *ArtifactError) Error() string {
	return fmt.Sprintf("artifact %s (%s): %s: %v", e.ID, e.Location, e.Reason, e.Err)
}

// Unwrap returns the underlying error.
func (e *ArtifactError) Unwrap() error { return e.Err }
