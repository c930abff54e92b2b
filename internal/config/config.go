// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/npmpub/npmpub/internal/issue"
	"github.com/npmpub/npmpub/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "npmpub"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"

	// EnvAuthToken overrides the default auth token.
	EnvAuthToken = "NPMPUB_AUTH_TOKEN"
	// EnvOTP overrides the default one-time password.
	EnvOTP = "NPMPUB_OTP"
	// EnvDry forces or disables dry-run mode.
	EnvDry = "NPMPUB_DRY"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the npmpub configuration directory under the XDG config
// home.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	if xdg.ConfigHome == "" {
		return "", errors.New("no user config directory available")
	}
	return filepath.Join(xdg.ConfigHome, AppName), nil
}

// ConfigFilePath returns the config file path inside dir.
func ConfigFilePath(dir string) string {
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
}

// loadWithOptions performs option-driven config loading and returns the
// config with the path it was read from ("" when only defaults applied).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("npm_command", defaults.NpmCommand)
	v.SetDefault("defaults.registry", defaults.Defaults.Registry)
	v.SetDefault("defaults.access", defaults.Defaults.Access)
	v.SetDefault("defaults.dry", defaults.Defaults.Dry)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	for key, env := range map[string]string{
		"env.auth_token": EnvAuthToken,
		"env.otp":        EnvOTP,
		"env.dry":        EnvDry,
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, "", fmt.Errorf("bind %s: %w", env, err)
		}
	}

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'npmpub config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}
		if path := ConfigFilePath(cfgDir); fileExists(path) {
			resolvedPath = path
		}
		// No config file means defaults only.
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Env = EnvOverrides{
		AuthToken: v.GetString("env.auth_token"),
		OTP:       v.GetString("env.otp"),
	}
	if v.IsSet("env.dry") {
		dry := v.GetBool("env.dry")
		cfg.Env.Dry = &dry
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check npm_command and defaults.access").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadCUEIntoViper validates the file at path against #Config and merges it
// into v. Fields are optional, so the unified value is decoded to a map
// rather than a struct.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.ParseToMap(configSchema, data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config file into dir unless one
// exists, and returns its path.
func CreateDefaultConfig(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	cfgPath := ConfigFilePath(dir)
	if fileExists(cfgPath) {
		return cfgPath, nil
	}
	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, nil
}

// GenerateCUE renders cfg as a config file. Credentials are never written.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// npmpub configuration\n")
	sb.WriteString("// Credentials belong in " + EnvAuthToken + " or the project file, not here.\n\n")

	fmt.Fprintf(&sb, "npm_command: %q\n", cfg.NpmCommand)

	sb.WriteString("\ndefaults: {\n")
	if cfg.Defaults.Registry != "" {
		fmt.Fprintf(&sb, "\tregistry: %q\n", cfg.Defaults.Registry)
	}
	if cfg.Defaults.Access != "" {
		fmt.Fprintf(&sb, "\taccess: %q\n", cfg.Defaults.Access)
	}
	fmt.Fprintf(&sb, "\tdry: %v\n", cfg.Defaults.Dry)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
