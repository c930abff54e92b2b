// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
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

// NewRootCommand builds the npmpub command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "npmpub",
		Short: "Assemble, pack and publish npm packages from compiled JavaScript output",
		Long: TitleStyle.Render("npmpub") + SubtitleStyle.Render(" - npm publication task runner") + `

npmpub turns compiled JavaScript output into npm packages. Publications and
registries are declared in an 'npmpub.cue' project file; every valid
publication gets assemble and pack tasks, plus one publish task per valid
registry.

` + SubtitleStyle.Render("Examples:") + `
  npmpub tasks                      List the task graph
  npmpub assemble                   Stage every publication
  npmpub publish --dry              Publish everywhere with --dry-run
  npmpub run packJsNpmPublication   Run a single task and its dependencies
  npmpub login npmjs                Log in to a declared registry`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.dryChanged = cmd.Flags().Changed("dry")
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&opts.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/npmpub/config.cue)")
	flags.StringVarP(&opts.projectDir, "project", "p", "", "directory holding npmpub.cue (default is the working directory)")
	flags.BoolVar(&opts.dry, "dry", false, "run npm pack and publish with --dry-run")
	flags.StringVar(&opts.authToken, "auth-token", "", "default registry auth token")
	flags.StringVar(&opts.otp, "otp", "", "default one-time password")

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.AddCommand(newTasksCommand(app, opts))
	rootCmd.AddCommand(newRunCommand(app, opts))
	for _, lc := range lifecycleCommands {
		rootCmd.AddCommand(newLifecycleCommand(app, opts, lc))
	}
	rootCmd.AddCommand(newLoginCommand(app, opts))
	rootCmd.AddCommand(newReleaseCommand(app, opts))
	rootCmd.AddCommand(newConfigCommand(app, opts))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)

	// fang prints the error itself; the catalog entry follows it.
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		renderIssue(os.Stderr, err)
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
