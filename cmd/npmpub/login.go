// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/npmpub/npmpub/internal/npm"
)

// ErrUnknownRegistry is returned by login for a name that is neither a
// declared registry nor an absolute URL.
var ErrUnknownRegistry = errors.New("unknown registry")

func newLoginCommand(app *App, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <registry>",
		Short: "Run an interactive npm login against a registry",
		Long: `Run an interactive npm login against a registry.

The argument is either a registry declared in npmpub.cue or an absolute
registry URL. A declared registry does not need an auth token yet.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, command, err := resolveLogin(cmd.Context(), app, opts, args[0])
			if err != nil {
				return err
			}
			located, err := npm.Locate(command, "")
			if err != nil {
				return classify(err)
			}
			client := npm.NewClient(npm.WithCommand(located))
			if err := client.Login(cmd.Context(), npm.LoginRequest{
				Registry: registry,
				Stdin:    os.Stdin,
				Stdout:   cmd.OutOrStdout(),
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Logged in to %s\n", SuccessStyle.Render("✓"), registry)
			return nil
		},
	}
}

// resolveLogin maps arg to a registry URL and returns the configured npm
// command. URLs are used as given; names are looked up in the project
// file, including registries that fail validation.
func resolveLogin(ctx context.Context, app *App, opts *rootOptions, arg string) (*url.URL, []string, error) {
	cfg, err := app.loadConfig(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	command, err := npm.ParseCommand(cfg.NpmCommand)
	if err != nil {
		return nil, nil, err
	}

	if u, err := url.Parse(arg); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return u, command, nil
	}

	s, err := app.Load(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	reg, ok := s.Extension.Registries.Find(arg)
	if !ok || reg.URL() == "" {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownRegistry, arg)
	}
	u, err := url.Parse(reg.URL())
	if err != nil {
		return nil, nil, fmt.Errorf("registry %q: %w", arg, err)
	}
	return u, command, nil
}
