// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/tendkit/tend/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCommand(app *App, flags *globalFlags) *cobra.Command {
	var dir string
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tend configuration",
		Long: `Manage tend configuration.

The configuration file is read from the --config path, else
$XDG_CONFIG_HOME/tend/config.cue (the platform config directory when unset),
else .tend/config.cue in the project directory. TEND_* environment variables
override file values, e.g. TEND_UI_VERBOSE=true or TEND_SEARCH_PATHS=a,b.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cfgCmd.PersistentFlags().StringVarP(&dir, "dir", "C", ".", "project directory")

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.prepare(cmd, flags, dir)
			if err != nil {
				return app.fail(cmd, err, flags.verbose)
			}
			path, _ := config.ResolvePath(loadOptions(flags, dir))
			showConfig(cmd, env.cfg, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.prepare(cmd, flags, dir)
			if err != nil {
				return app.fail(cmd, err, flags.verbose)
			}
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(env.cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show which configuration file is used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			path, err := config.ResolvePath(loadOptions(flags, dir))
			if err != nil {
				return app.fail(cmd, err, flags.verbose)
			}
			def, err := config.DefaultConfigPath()
			if err != nil {
				return app.fail(cmd, err, flags.verbose)
			}
			fmt.Fprintf(w, "User config file: %s\n", def)
			if path == "" {
				fmt.Fprintf(w, "In use: %s\n", SubtitleStyle.Render("(none, using defaults)"))
			} else {
				fmt.Fprintf(w, "In use: %s\n", path)
			}
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flags.configPath
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return app.fail(cmd, err, flags.verbose)
				}
			}
			wrote, err := config.WriteDefault(path, force)
			if err != nil {
				return app.fail(cmd, err, flags.verbose)
			}
			if !wrote {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s already exists (use --force to overwrite)\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}

func loadOptions(flags *globalFlags, dir string) config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: flags.configPath, ProjectDir: dir}
}

func showConfig(cmd *cobra.Command, cfg *config.Config, path string) {
	w := cmd.OutOrStdout()
	keyStyle, valueStyle := CmdStyle, SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if path == "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("root_component"), valueStyle.Render(cfg.RootComponent))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("module_path"), valueStyle.Render(cfg.ModulePath))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("concurrency"), valueStyle.Render(fmt.Sprint(cfg.Concurrency)))
	if len(cfg.SearchPaths) == 0 {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("search_paths"), SubtitleStyle.Render("(none configured)"))
	} else {
		fmt.Fprintf(w, "%s:\n  - %s\n", keyStyle.Render("search_paths"), strings.Join(cfg.SearchPaths, "\n  - "))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprint(cfg.UI.Verbose)))
	fmt.Fprintf(w, "  color_scheme: %s\n", valueStyle.Render(cfg.UI.ColorScheme.String()))
}
