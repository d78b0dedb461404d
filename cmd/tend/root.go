// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the tend command tree over app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "tend",
		Short: "Keep project configuration files in their expected shape",
		Long: TitleStyle.Render("tend") + SubtitleStyle.Render(" - declarative project file initialization") + `

tend creates the configuration files your components declare, and repairs
existing ones by merging in missing structure. It never removes what you
added, and an emptied file is left alone.

Components are directories containing a 'component.cue' manifest, found in
the project directory and in the configured search paths.

` + SubtitleStyle.Render("Examples:") + `
  tend init              Create and repair every artifact
  tend init --bootstrap  Only run artifacts with a positive priority
  tend check             Fail if any artifact is missing or incomplete
  tend components        Show components and the variants in use`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/tend/config.cue)")

	rootCmd.AddCommand(newInitCommand(app, flags))
	rootCmd.AddCommand(newCheckCommand(app, flags))
	rootCmd.AddCommand(newComponentsCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))
	return rootCmd
}

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the resulting code. It is called by
// main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// errorHandler skips errors the command already rendered.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
