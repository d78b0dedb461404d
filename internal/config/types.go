// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ColorSchemeAuto detects the terminal background.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces the dark palette.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces the light palette.
	ColorSchemeLight ColorScheme = "light"

	// DefaultRootComponent is the builtin root of component discovery.
	DefaultRootComponent = "tend"
	// DefaultModulePath is the module path of initializable artifacts.
	DefaultModulePath = "artifacts"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidLoadOptions is the sentinel error wrapped by InvalidLoadOptionsError.
	ErrInvalidLoadOptions = errors.New("invalid load options")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidConfigError aggregates field validation failures.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// RootComponent is the component whose dependents are scanned.
		RootComponent string `json:"root_component" mapstructure:"root_component"`
		// SearchPaths lists extra directories holding component manifests.
		// Relative entries resolve against the project directory.
		SearchPaths []string `json:"search_paths" mapstructure:"search_paths"`
		// Concurrency bounds the artifacts initialized at once; 0 uses GOMAXPROCS.
		Concurrency int `json:"concurrency" mapstructure:"concurrency"`
		// ModulePath selects the variants that are initialized.
		ModulePath string `json:"module_path" mapstructure:"module_path"`
		// UI configures terminal output.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		RootComponent: DefaultRootComponent,
		SearchPaths:   []string{},
		ModulePath:    DefaultModulePath,
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// String returns the scheme name.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the scheme is one of the defined values.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Validate checks the constraints environment overrides can break after the
// schema has run.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.RootComponent) == "" {
		errs = append(errs, errors.New("root_component: must not be empty"))
	}
	if strings.TrimSpace(c.ModulePath) == "" {
		errs = append(errs, errors.New("module_path: must not be empty"))
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency: must be >= 0, got %d", c.Concurrency))
	}
	for i, p := range c.SearchPaths {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("search_paths[%d]: must not be empty", i))
		}
	}
	if ok, fieldErrs := c.UI.ColorScheme.IsValid(); !ok {
		for _, err := range fieldErrs {
			errs = append(errs, fmt.Errorf("ui.color_scheme: %w", err))
		}
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig and every field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
