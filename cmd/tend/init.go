// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/tendkit/tend/internal/initializer"

	"github.com/spf13/cobra"
)

// engineFlags are shared by init and check.
type engineFlags struct {
	root        string
	dir         string
	concurrency int
	bootstrap   bool
	dryRun      bool
}

func newInitCommand(app *App, flags *globalFlags) *cobra.Command {
	ef := &engineFlags{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create missing artifacts and repair incomplete ones",
		Long: `Create missing artifacts and repair incomplete ones.

Artifacts run in priority groups, highest first; a group only starts once the
previous one has finished without failures. An existing file is only ever
extended with missing structure. An empty file opts out and is left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runEngine(cmd, flags, ef, initializer.ModeApply)
		},
	}
	addEngineFlags(cmd, ef)
	cmd.Flags().BoolVar(&ef.bootstrap, "bootstrap", false, "only run artifacts with a priority above zero")
	cmd.Flags().BoolVar(&ef.dryRun, "dry-run", false, "show the plan without touching any file")
	return cmd
}

func newCheckCommand(app *App, flags *globalFlags) *cobra.Command {
	ef := &engineFlags{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify every artifact without writing",
		Long: `Verify every artifact without writing.

Exits with status 1 when an artifact is missing, malformed or lacks expected
structure. Every priority group is checked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runEngine(cmd, flags, ef, initializer.ModeCheck)
		},
	}
	addEngineFlags(cmd, ef)
	return cmd
}

func addEngineFlags(cmd *cobra.Command, ef *engineFlags) {
	cmd.Flags().StringVar(&ef.root, "root", "", "root component (default from config, else \"tend\")")
	cmd.Flags().StringVarP(&ef.dir, "dir", "C", ".", "project directory")
	cmd.Flags().IntVarP(&ef.concurrency, "jobs", "j", 0, "artifacts processed at once per group (default from config, 0 = all CPUs)")
}

func (app *App) runEngine(cmd *cobra.Command, flags *globalFlags, ef *engineFlags, mode initializer.Mode) error {
	env, err := app.prepare(cmd, flags, ef.dir)
	if err != nil {
		return app.fail(cmd, err, flags.verbose)
	}

	op := "initialize artifacts"
	if mode == initializer.ModeCheck {
		op = "check artifacts"
	}

	reg, diags, err := app.LoadRegistry(env.projectDir, env.cfg.SearchPaths)
	renderDiagnostics(cmd.ErrOrStderr(), diags)
	if err != nil {
		return app.fail(cmd, wrapPlanError(err, "load components", env.projectDir), env.verbose)
	}

	root := ef.root
	if root == "" {
		root = env.cfg.RootComponent
	}
	concurrency := env.cfg.Concurrency
	if cmd.Flags().Changed("jobs") {
		concurrency = ef.concurrency
	}

	eng := initializer.New(reg,
		initializer.WithLogger(env.logger),
		initializer.WithConcurrency(concurrency))
	report, err := eng.RunAll(cmd.Context(), initializer.Request{
		ProjectDir:   env.projectDir,
		Root:         root,
		ModulePath:   env.cfg.ModulePath,
		Mode:         mode,
		PriorityOnly: ef.bootstrap,
		DryRun:       ef.dryRun,
	})
	if report == nil {
		return app.fail(cmd, wrapPlanError(err, op, env.projectDir), env.verbose)
	}

	renderReport(cmd.OutOrStdout(), report, env.projectDir, env.verbose)
	renderDiagnostics(cmd.ErrOrStderr(), report.Diagnostics)
	if err != nil {
		return app.fail(cmd, wrapPlanError(err, op, env.projectDir), env.verbose)
	}
	return nil
}
