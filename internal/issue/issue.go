// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	ManifestParseFailedId Id = iota + 1
	DuplicateComponentId
	ComponentNotFoundId
	UnknownDependencyId
	DependencyCycleId
	AmbiguousArtifactsId
	ArtifactsFailedId
	ConfigLoadFailedId
)

// Glamour style names accepted by Render.
const (
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"
)

type (
	// Id identifies an issue page.
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

var render = glamour.Render

func (i *Issue) Id() Id { return i.id }

func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

func (i *Issue) DocLinks() []HttpLink { return slices.Clone(i.docLinks) }

// Markdown returns the page source including the "See also" section.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			sb.WriteString("- <" + string(link) + ">\n")
		}
	}
	return sb.String()
}

// Render renders the page with the given glamour style.
func (i *Issue) Render(style string) (string, error) {
	return render(i.Markdown(), style)
}

var (
	manifestParseFailedIssue = &Issue{
		id: ManifestParseFailedId,
		mdMsg: `
# Component manifest is invalid

A ` + "`component.cue`" + ` file could not be parsed or does not match the manifest schema.

## Things you can try:
- Check the field reported in the error message
- Artifact names must be identifiers and unique within the component
- ` + "`file`" + ` must be a plain file name; put directories in ` + "`dir`" + `
- Run ` + "`cue vet component.cue`" + ` for detailed diagnostics

## Minimal manifest:
~~~cue
name: "acme.base"
requires: ["tend"]
artifacts: [{
    name: "editorconfig"
    file: ".editorconfig"
    format: "lines"
    content: ["root = true"]
}]
~~~`,
		docLinks: []HttpLink{"https://github.com/tendkit/tend#component-manifests"},
	}

	duplicateComponentIssue = &Issue{
		id: DuplicateComponentId,
		mdMsg: `
# Component defined twice

Two manifests declare the same component name. Component names must be unique across the
project directory and every configured search path.

## Things you can try:
- Rename one of the components
- Remove the duplicate directory from ` + "`search_paths`" + ` in your config`,
	}

	componentNotFoundIssue = &Issue{
		id: ComponentNotFoundId,
		mdMsg: `
# Root component not found

The root component passed with ` + "`--root`" + ` (or ` + "`root_component`" + ` in the config) is not registered.

## Things you can try:
~~~
$ tend components
~~~
to list known components, then pass one of them with ` + "`--root`" + `.`,
	}

	unknownDependencyIssue = &Issue{
		id: UnknownDependencyId,
		mdMsg: `
# Unknown dependency

A component requires another component that is not registered.

## Things you can try:
- Check the spelling in ` + "`requires`" + `
- Add the directory holding the dependency to ` + "`search_paths`",
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle between components

The ` + "`requires`" + ` declarations form a cycle, so no processing order exists.

## Things you can try:
- Follow the components listed in the error and remove one edge of the cycle
- Move shared artifacts into a new base component both can require`,
	}

	ambiguousArtifactsIssue = &Issue{
		id: AmbiguousArtifactsId,
		mdMsg: `
# Two artifacts own the same file

More than one leaf variant resolved to the same location. Nothing was written.

## Things you can try:
- Declare ` + "`replaces`" + ` on the variant that should win; the replaced variant must
  belong to the same component or one of its dependencies
- Change the ` + "`dir`" + ` or ` + "`file`" + ` of one of the artifacts`,
	}

	artifactsFailedIssue = &Issue{
		id: ArtifactsFailedId,
		mdMsg: `
# Some artifacts could not be initialized

Each failed artifact is listed with its location and reason.

## By reason:
- **malformed**: the existing file does not parse; fix or empty it (an empty file opts out)
- **unconverged**: repairing did not produce the expected structure; the artifact needs a manual fix
- **error**: a file system or encoding problem; check permissions and the message

Later priority groups were not started. Re-run ` + "`tend init`" + ` after fixing.`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration

## Things you can try:
- Check the CUE syntax of your config file
- Print the effective path and defaults:
~~~
$ tend config path
$ tend config show
~~~
- Regenerate a default file with ` + "`tend config init`",
	}

	issues = map[Id]*Issue{
		manifestParseFailedIssue.Id(): manifestParseFailedIssue,
		duplicateComponentIssue.Id():  duplicateComponentIssue,
		componentNotFoundIssue.Id():   componentNotFoundIssue,
		unknownDependencyIssue.Id():   unknownDependencyIssue,
		dependencyCycleIssue.Id():     dependencyCycleIssue,
		ambiguousArtifactsIssue.Id():  ambiguousArtifactsIssue,
		artifactsFailedIssue.Id():     artifactsFailedIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
	}
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int { return int(a.id) - int(b.id) })
}

// Get returns the issue with the given id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
