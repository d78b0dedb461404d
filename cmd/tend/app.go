// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tendkit/tend/internal/builtin"
	"github.com/tendkit/tend/internal/config"
	"github.com/tendkit/tend/internal/discovery"
	"github.com/tendkit/tend/internal/issue"
	"github.com/tendkit/tend/internal/registry"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// RegistryLoader builds the component registry for a project.
	RegistryLoader func(projectDir string, searchPaths []string) (*registry.Registry, []discovery.Diagnostic, error)

	// App wires CLI services. Command handlers receive it and delegate
	// through its fields.
	App struct {
		Config       ConfigProvider
		LoadRegistry RegistryLoader
		stdout       io.Writer
		stderr       io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields get production defaults.
	Dependencies struct {
		Config       ConfigProvider
		LoadRegistry RegistryLoader
		Stdout       io.Writer
		Stderr       io.Writer
	}

	// globalFlags are the persistent flags of the root command.
	globalFlags struct {
		verbose    bool
		configPath string
	}

	// runEnv is what a command needs after configuration is resolved.
	runEnv struct {
		cfg        *config.Config
		projectDir string
		verbose    bool
		logger     *log.Logger
	}
)

// NewApp creates an App, filling nil dependencies with defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:       deps.Config,
		LoadRegistry: deps.LoadRegistry,
		stdout:       deps.Stdout,
		stderr:       deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.LoadRegistry == nil {
		app.LoadRegistry = DefaultRegistry
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// DefaultRegistry registers the builtin root component and every component
// manifest found in projectDir and the search paths.
func DefaultRegistry(projectDir string, searchPaths []string) (*registry.Registry, []discovery.Diagnostic, error) {
	reg := registry.New()
	if err := builtin.Register(reg); err != nil {
		return nil, nil, err
	}
	manifests, diags, err := discovery.LoadManifests(projectDir, searchPaths)
	if err != nil {
		return nil, nil, err
	}
	if err := discovery.RegisterManifests(reg, manifests); err != nil {
		return nil, diags, err
	}
	return reg, diags, nil
}

// prepare loads configuration for projectDir and builds the logger.
func (app *App) prepare(cmd *cobra.Command, flags *globalFlags, projectDir string) (*runEnv, error) {
	if projectDir == "" {
		projectDir = "."
	}
	cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: flags.configPath,
		ProjectDir:     projectDir,
	})
	if err != nil {
		return nil, err
	}

	env := &runEnv{
		cfg:        cfg,
		projectDir: projectDir,
		verbose:    flags.verbose || cfg.UI.Verbose,
	}
	applyColorScheme(cfg.UI.ColorScheme)
	env.logger = newLogger(cmd.ErrOrStderr(), env.verbose)
	return env, nil
}

// newLogger returns the CLI logger. Engine state transitions are logged at
// debug level and only shown in verbose mode.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Prefix: config.AppName})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}

func applyColorScheme(cs config.ColorScheme) {
	switch cs {
	case config.ColorSchemeDark:
		lipgloss.SetHasDarkBackground(true)
	case config.ColorSchemeLight:
		lipgloss.SetHasDarkBackground(false)
	}
}

// glamourStyle picks the issue page style matching w. Writers that are not
// color terminals get the plain style.
func glamourStyle(w io.Writer) string {
	if lipgloss.NewRenderer(w).ColorProfile() == termenv.Ascii {
		return issue.StyleNoTTY
	}
	if lipgloss.HasDarkBackground() {
		return issue.StyleDark
	}
	return issue.StyleLight
}

// fail renders err to stderr and returns the ExitError RunE should return.
func (app *App) fail(cmd *cobra.Command, err error, verbose bool) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	w := cmd.ErrOrStderr()

	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
	if id := classifyError(err); id != 0 && verbose {
		if rendered, rerr := issue.Get(id).Render(glamourStyle(w)); rerr == nil {
			fmt.Fprint(w, rendered)
		}
	} else if id != 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("Run with --verbose for troubleshooting steps."))
	}
	return &ExitError{Code: 1}
}
