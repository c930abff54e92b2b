// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/npmpub/npmpub/internal/config"
	"github.com/npmpub/npmpub/internal/issue"
)

// newConfigCommand creates the `npmpub config` command tree.
func newConfigCommand(app *App, opts *rootOptions) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage npmpub configuration",
		Long: `Manage npmpub configuration.

Configuration is stored in config.cue under the XDG config directory:
  - Linux: ~/.config/npmpub/config.cue
  - macOS: ~/Library/Application Support/npmpub/config.cue
  - Windows: %LOCALAPPDATA%\npmpub\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app, opts)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			path, err := config.CreateDefaultConfig(dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config directory: %s\n", dir)
			fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n", config.ConfigFilePath(dir))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App, opts *rootOptions) error {
	out := cmd.OutOrStdout()
	cfg, source, err := app.Config.LoadWithSource(cmd.Context(), config.LoadOptions{ConfigFilePath: opts.configFile})
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, opts.verbose))
		return newServiceError(err, issue.ConfigLoadFailedId)
	}

	fmt.Fprintln(out, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(out)
	if source != "" {
		printValue(out, "Config file", source)
	} else {
		printValue(out, "Config file", SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(out)

	printValue(out, "npm_command", cfg.NpmCommand)
	fmt.Fprintf(out, "%s:\n", TaskStyle.Render("defaults"))
	printValue(out, "  registry", cfg.Defaults.Registry)
	printValue(out, "  access", cfg.Defaults.Access)
	printValue(out, "  auth_token", maskSecret(cfg.Defaults.AuthToken))
	printValue(out, "  otp", maskSecret(cfg.Defaults.OTP))
	printValue(out, "  dry", strconv.FormatBool(cfg.Defaults.Dry))
	fmt.Fprintf(out, "%s:\n", TaskStyle.Render("ui"))
	printValue(out, "  color_scheme", string(cfg.UI.ColorScheme))
	printValue(out, "  verbose", strconv.FormatBool(cfg.UI.Verbose))

	if cfg.Env.AuthToken != "" || cfg.Env.OTP != "" || cfg.Env.Dry != nil {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%s:\n", TaskStyle.Render("environment"))
		if cfg.Env.AuthToken != "" {
			printValue(out, "  "+config.EnvAuthToken, maskSecret(cfg.Env.AuthToken))
		}
		if cfg.Env.OTP != "" {
			printValue(out, "  "+config.EnvOTP, maskSecret(cfg.Env.OTP))
		}
		if cfg.Env.Dry != nil {
			printValue(out, "  "+config.EnvDry, strconv.FormatBool(*cfg.Env.Dry))
		}
	}
	return nil
}

func printValue(w io.Writer, key, value string) {
	if value == "" {
		value = SubtitleStyle.Render("(unset)")
	} else {
		value = SuccessStyle.Render(value)
	}
	fmt.Fprintf(w, "%s: %s\n", TaskStyle.Render(key), value)
}

// maskSecret hides all but the last four characters of s.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
