// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/npmpub/npmpub/pkg/npmpublish"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultNpmCommand is used when npm_command is not configured.
	DefaultNpmCommand = "npm"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidConfigError collects field errors found by Config.Validate.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the user configuration.
	Config struct {
		// NpmCommand is the npm command line, split like shell words.
		NpmCommand string `json:"npm_command" mapstructure:"npm_command"`
		// Defaults are user-wide publishing defaults.
		Defaults DefaultsConfig `json:"defaults" mapstructure:"defaults"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`

		// Env holds per-invocation environment overrides. Not part of the file.
		Env EnvOverrides `json:"-" mapstructure:"-"`
	}

	// DefaultsConfig mirrors the publishing defaults a user may set once for
	// every project.
	DefaultsConfig struct {
		Registry  string `json:"registry" mapstructure:"registry"`
		Access    string `json:"access" mapstructure:"access"`
		AuthToken string `json:"auth_token" mapstructure:"auth_token"`
		OTP       string `json:"otp" mapstructure:"otp"`
		Dry       bool   `json:"dry" mapstructure:"dry"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables debug logging
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// EnvOverrides are the global options read from NPMPUB_* variables. Nil
	// or empty fields were not set.
	EnvOverrides struct {
		AuthToken string
		OTP       string
		Dry       *bool
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		NpmCommand: DefaultNpmCommand,
		Defaults: DefaultsConfig{
			Registry: npmpublish.DefaultRegistry,
			Access:   string(npmpublish.AccessPublic),
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// Validate returns an error when the color scheme is unknown.
func (c ColorScheme) Validate() error {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight, "":
		return nil
	default:
		return &InvalidColorSchemeError{Value: c}
	}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (expected auto, dark or light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Validate checks values that the schema cannot see, such as ones coming
// from viper defaults or environment variables.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.NpmCommand) == "" {
		errs = append(errs, errors.New("npm_command is blank"))
	}
	if c.Defaults.Access != "" {
		if err := npmpublish.Access(c.Defaults.Access).Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// ApplyDefaults copies the configured defaults onto d. Empty values leave d
// unchanged.
func (c *Config) ApplyDefaults(d *npmpublish.Defaults) {
	if c.Defaults.Registry != "" {
		d.Registry = c.Defaults.Registry
	}
	if c.Defaults.Access != "" {
		d.Access = npmpublish.Access(c.Defaults.Access)
	}
	if c.Defaults.AuthToken != "" {
		d.AuthToken = c.Defaults.AuthToken
	}
	if c.Defaults.OTP != "" {
		d.OTP = c.Defaults.OTP
	}
	if c.Defaults.Dry {
		d.Dry = true
	}
}

// Apply copies the environment overrides onto d.
func (e EnvOverrides) Apply(d *npmpublish.Defaults) {
	if e.AuthToken != "" {
		d.AuthToken = e.AuthToken
	}
	if e.OTP != "" {
		d.OTP = e.OTP
	}
	if e.Dry != nil {
		d.Dry = *e.Dry
	}
}
