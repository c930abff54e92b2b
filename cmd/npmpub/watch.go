// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/npmpub/npmpub/internal/watch"
)

// watchTasks reruns targets whenever one of their inputs or the project file
// changes. The project is reloaded before every run so edits to npmpub.cue
// apply. The watched set is computed once from the first session.
func watchTasks(ctx context.Context, app *App, opts *rootOptions, s *Session, out io.Writer, rf *runFlags, targets []string) error {
	paths, err := watchedInputs(s, targets)
	if err != nil {
		return classify(err)
	}

	w, err := watch.New(watch.Config{
		Paths:  paths,
		Logger: s.Logger,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(out, "\n%s Detected %d change(s), running %s again\n",
				SubtitleStyle.Render(">"), len(changed), strings.Join(targets, " "))
			next, err := app.Load(ctx, opts)
			if err != nil {
				return err
			}
			if err := next.run(ctx, out, rf.rerun, targets...); err != nil {
				renderIssue(app.stderr, err)
				return err
			}
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	fmt.Fprintf(out, "%s watching %d inputs, press Ctrl+C to stop\n", SubtitleStyle.Render(">"), len(paths))
	return w.Run(ctx)
}

// watchedInputs returns the project file and the declared inputs of every
// task the targets depend on. Inputs produced by another planned task are
// left out so a run never triggers itself.
func watchedInputs(s *Session, targets []string) ([]string, error) {
	plan, err := s.Project.Tasks().Plan(targets...)
	if err != nil {
		return nil, err
	}
	var outputs []string
	for _, t := range plan {
		outputs = append(outputs, t.Outputs()...)
	}
	produced := func(path string) bool {
		return slices.ContainsFunc(outputs, func(out string) bool {
			rel, err := filepath.Rel(out, path)
			return err == nil && !strings.HasPrefix(rel, "..")
		})
	}

	paths := []string{s.File.FilePath}
	for _, t := range plan {
		for _, in := range t.Inputs() {
			if !produced(in) && !slices.Contains(paths, in) {
				paths = append(paths, in)
			}
		}
	}
	return paths, nil
}
