// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/npmpub/npmpub/internal/issue"
	"github.com/npmpub/npmpub/internal/npm"
	"github.com/npmpub/npmpub/internal/release"
)

// ErrNoReleaseConfig is returned when npmpub.cue has no release block.
var ErrNoReleaseConfig = errors.New("no release configured in the project file")

func newReleaseCommand(app *App, opts *rootOptions) *cobra.Command {
	var ref string
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Create a GitLab release linking the published packages",
		Long: `Create a GitLab release for the project version.

The release is named "Release v<version>", tagged "v<version>" at the
current git HEAD (or --ref), described by the changelog and links one asset
per valid publication. With --dry the request body is printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRelease(cmd.Context(), app, opts, cmd, ref)
		},
	}
	cmd.Flags().StringVar(&ref, "ref", "", "commit or branch to tag (default is git HEAD)")
	return cmd
}

func runRelease(ctx context.Context, app *App, opts *rootOptions, cmd *cobra.Command, ref string) error {
	s, err := app.Load(ctx, opts)
	if err != nil {
		return err
	}
	cfg := s.File.Release
	if cfg == nil {
		return newServiceError(ErrNoReleaseConfig, issue.ReleaseFailedId)
	}
	ctx = s.Context(ctx)

	if ref == "" {
		ref, err = headRef(ctx, app.Invoker, s.File.Dir())
		if err != nil {
			return newServiceError(err, issue.ReleaseFailedId)
		}
	}
	changelog, err := release.ReadChangelog(s.File.ChangelogPath())
	if err != nil {
		return newServiceError(err, issue.ReleaseFailedId)
	}
	rel, err := release.New(s.File.Version, ref, changelog, release.PackageLinks(s.Evaluation.Publications, cfg.AssetURL)...)
	if err != nil {
		return newServiceError(err, issue.ReleaseFailedId)
	}

	if s.Extension.Defaults.Dry {
		body, err := json.MarshalIndent(rel, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return nil
	}

	client := release.NewClient(
		release.WithHTTPClient(app.HTTPClient),
		release.WithBaseURL(cfg.GitLabURL),
		release.WithToken(cfg.Token),
		release.WithUserAgent("npmpub/"+Version),
	)
	s.Logger.Info("creating release", "project", cfg.ProjectID, "tag", rel.TagName, "ref", ref)
	created, err := client.Create(ctx, cfg.ProjectID, rel)
	if err != nil {
		return classify(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Created %s (%s)\n", SuccessStyle.Render("✓"), created.Name, created.TagName)
	if created.Links.Self != "" {
		fmt.Fprintln(cmd.OutOrStdout(), TaskStyle.Render(created.Links.Self))
	}
	return nil
}

// headRef returns the commit checked out in dir.
func headRef(ctx context.Context, inv npm.Invoker, dir string) (string, error) {
	out, err := inv.Invoke(ctx, npm.Invocation{
		Dir:     dir,
		Command: []string{"git"},
		Args:    []string{"rev-parse", "HEAD"},
	})
	if err != nil {
		return "", fmt.Errorf("resolve git HEAD: %w", err)
	}
	ref := strings.TrimSpace(out)
	if ref == "" {
		return "", errors.New("resolve git HEAD: empty output")
	}
	return ref, nil
}
