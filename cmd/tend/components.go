// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/tendkit/tend/internal/discovery"
	"github.com/tendkit/tend/internal/registry"
	"github.com/tendkit/tend/pkg/artifact"

	"github.com/spf13/cobra"
)

func newComponentsCommand(app *App, flags *globalFlags) *cobra.Command {
	var root, dir, module string
	cmd := &cobra.Command{
		Use:   "components",
		Short: "List components and the leaf variants of a module path",
		Long: `List the components reachable from the root, in processing order, and the
leaf variants collected for a module path after 'replaces' has been applied.

A component manifest lives in a directory as 'component.cue':

  name: "acme.python"
  requires: ["tend"]
  artifacts: [{
      name: "pyproject"
      file: "pyproject.toml"
      priority: 10
      content: project: name: "demo"
  }]`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.prepare(cmd, flags, dir)
			if err != nil {
				return app.fail(cmd, err, flags.verbose)
			}
			reg, diags, err := app.LoadRegistry(env.projectDir, env.cfg.SearchPaths)
			renderDiagnostics(cmd.ErrOrStderr(), diags)
			if err != nil {
				return app.fail(cmd, wrapPlanError(err, "load components", env.projectDir), env.verbose)
			}

			if root == "" {
				root = env.cfg.RootComponent
			}
			if module == "" {
				module = env.cfg.ModulePath
			}
			set, err := discovery.FindVariants[artifact.Definition](reg, root, module)
			if err != nil {
				return app.fail(cmd, wrapPlanError(err, "resolve components", env.projectDir), env.verbose)
			}
			renderComponents(cmd.OutOrStdout(), reg, set)
			renderDiagnostics(cmd.ErrOrStderr(), set.Diagnostics)
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "root component (default from config)")
	cmd.Flags().StringVarP(&dir, "dir", "C", ".", "project directory")
	cmd.Flags().StringVar(&module, "module", "", "module path to collect variants from (default from config, else \"artifacts\")")
	return cmd
}

func renderComponents(w io.Writer, reg *registry.Registry, set *discovery.VariantSet[artifact.Definition]) {
	fmt.Fprintln(w, TitleStyle.Render("Components")+" "+SubtitleStyle.Render("from "+set.Root))
	for _, name := range set.Components {
		c, _ := reg.Component(name)
		line := "  " + CmdStyle.Render(name)
		if len(c.Requires) > 0 {
			line += SubtitleStyle.Render(" <- " + strings.Join(c.Requires, ", "))
		}
		if c.Description != "" {
			line += "  " + c.Description
		}
		fmt.Fprintln(w, line)
		if c.Source != "" && c.Source != registry.SourceBuiltin {
			fmt.Fprintln(w, "    "+VerboseStyle.Render(c.Source))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("Variants")+" "+SubtitleStyle.Render("in "+set.Module))
	if len(set.Variants) == 0 {
		fmt.Fprintln(w, "  "+SubtitleStyle.Render("(none)"))
	}
	for _, f := range set.Variants {
		d := f.Value.Descriptor()
		fmt.Fprintf(w, "  %s  %s %s\n",
			CmdStyle.Render(f.ID()),
			d.RelPath(),
			SubtitleStyle.Render(fmt.Sprintf("(%s, priority %g)", d.ResolvedFormat(), d.Priority)))
	}

	if len(set.Replaced) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, TitleStyle.Render("Replaced"))
		dropped := make([]string, 0, len(set.Replaced))
		for id := range set.Replaced {
			dropped = append(dropped, id)
		}
		slices.Sort(dropped)
		for _, id := range dropped {
			fmt.Fprintf(w, "  %s %s %s\n", VerboseStyle.Render(id), SubtitleStyle.Render("by"), set.Replaced[id])
		}
	}
}
