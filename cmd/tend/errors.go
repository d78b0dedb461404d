// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/tendkit/tend/internal/dag"
	"github.com/tendkit/tend/internal/discovery"
	"github.com/tendkit/tend/internal/initializer"
	"github.com/tendkit/tend/internal/issue"
	"github.com/tendkit/tend/internal/registry"
)

// formatErrorForDisplay uses ActionableError formatting when available.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// classifyError maps err to an issue page, or 0 when none applies.
func classifyError(err error) issue.Id {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return ae.Issue
	}
	var cycle *dag.CycleError
	switch {
	case errors.Is(err, discovery.ErrInvalidManifest):
		return issue.ManifestParseFailedId
	case errors.Is(err, registry.ErrDuplicateComponent):
		return issue.DuplicateComponentId
	case errors.Is(err, discovery.ErrComponentNotFound):
		return issue.ComponentNotFoundId
	case errors.Is(err, registry.ErrUnknownDependency):
		return issue.UnknownDependencyId
	case errors.As(err, &cycle):
		return issue.DependencyCycleId
	case errors.Is(err, initializer.ErrAmbiguous):
		return issue.AmbiguousArtifactsId
	case errors.Is(err, initializer.ErrArtifactsFailed):
		return issue.ArtifactsFailedId
	default:
		return 0
	}
}

// wrapPlanError adds operation context to configuration failures.
func wrapPlanError(err error, operation, projectDir string) error {
	ctx := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(projectDir).
		WithIssue(classifyError(err)).
		Wrap(err)

	var amb *initializer.AmbiguityError
	switch {
	case errors.As(err, &amb):
		ctx.WithSuggestion("Declare 'replaces' on the variant that should own the file")
	case errors.Is(err, discovery.ErrComponentNotFound):
		ctx.WithSuggestion("Run 'tend components' to list registered components")
	case errors.Is(err, discovery.ErrInvalidManifest):
		ctx.WithSuggestion("Fix the manifest named in the message; see 'tend components --help'")
	case errors.Is(err, discovery.ErrReplacesCycle):
		ctx.WithSuggestion("Remove one 'replaces' entry so that a single variant is left")
	}
	return ctx.BuildError()
}
