// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/npmpub/npmpub/internal/assembler"
	"github.com/npmpub/npmpub/internal/taskgraph"
)

type (
	// lifecycleCommand describes a shortcut for one lifecycle task.
	lifecycleCommand struct {
		task  string
		short string
	}

	// runFlags are the flags shared by every command that runs tasks.
	runFlags struct {
		rerun bool
		watch bool
	}
)

var lifecycleCommands = []lifecycleCommand{
	{task: assembler.AssembleLifecycleTask, short: "Stage every valid publication"},
	{task: assembler.PackLifecycleTask, short: "Pack every valid publication into a tarball"},
	{task: assembler.PublishLifecycleTask, short: "Publish every valid publication to every valid registry"},
}

func newTasksCommand(app *App, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks of the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.Load(cmd.Context(), opts)
			if err != nil {
				return err
			}
			listTasks(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func newRunCommand(app *App, opts *rootOptions) *cobra.Command {
	rf := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <task>...",
		Short: "Run tasks and their dependencies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTasks(cmd.Context(), app, opts, cmd.OutOrStdout(), rf, args...)
		},
	}
	rf.register(cmd)
	return cmd
}

func newLifecycleCommand(app *App, opts *rootOptions, lc lifecycleCommand) *cobra.Command {
	rf := &runFlags{}
	cmd := &cobra.Command{
		Use:   lc.task,
		Short: lc.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTasks(cmd.Context(), app, opts, cmd.OutOrStdout(), rf, lc.task)
		},
	}
	rf.register(cmd)
	return cmd
}

func (rf *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&rf.rerun, "rerun", false, "ignore up-to-date checks")
	cmd.Flags().BoolVarP(&rf.watch, "watch", "w", false, "run again whenever a task input changes")
}

func runTasks(ctx context.Context, app *App, opts *rootOptions, out io.Writer, rf *runFlags, targets ...string) error {
	s, err := app.Load(ctx, opts)
	if err != nil {
		return err
	}
	err = s.run(ctx, out, rf.rerun, targets...)
	if !rf.watch {
		return err
	}
	if err != nil {
		renderIssue(app.stderr, err)
		s.Logger.Error("run failed", "error", err)
	}
	return watchTasks(ctx, app, opts, s, out, rf, targets)
}

// run executes targets and prints the report.
func (s *Session) run(ctx context.Context, out io.Writer, rerun bool, targets ...string) error {
	report, err := s.Executor(rerun).Run(s.Context(ctx), targets...)
	if report != nil {
		printReport(out, report)
	}
	return classify(err)
}

// listTasks prints the registered tasks grouped and sorted by name.
func listTasks(w io.Writer, s *Session) {
	tasks := s.Project.Tasks().Tasks()
	slices.SortFunc(tasks, func(a, b *taskgraph.Task) int {
		return cmp.Or(
			cmp.Compare(a.Group(), b.Group()),
			cmp.Compare(a.Name(), b.Name()),
		)
	})

	group := "\x00"
	for _, t := range tasks {
		if t.Group() != group {
			group = t.Group()
			title := group
			if title == "" {
				title = "other"
			}
			fmt.Fprintln(w, groupHeaderStyle.Render(title+" tasks"))
		}
		line := TaskStyle.Render(t.Name())
		if t.Description() != "" {
			line += " - " + t.Description()
		}
		if !t.Enabled() {
			line += " " + WarningStyle.Render("(disabled)")
		}
		fmt.Fprintln(w, line)
	}

	if rejected := s.Evaluation.Rejected; len(rejected) > 0 {
		fmt.Fprintln(w, groupHeaderStyle.Render("skipped"))
		for _, rej := range rejected {
			fmt.Fprintf(w, "%s %s\n", WarningStyle.Render(rej.Kind+" "+rej.Name), SubtitleStyle.Render(rej.Error()))
		}
	}
}

// printReport prints one line per task that ran.
func printReport(w io.Writer, report *taskgraph.Report) {
	for _, res := range report.Results {
		var outcome string
		switch res.Outcome {
		case taskgraph.OutcomeExecuted:
			outcome = SuccessStyle.Render(string(res.Outcome))
		case taskgraph.OutcomeFailed:
			outcome = ErrorStyle.Render(string(res.Outcome))
		case taskgraph.OutcomeSkipped:
			outcome = WarningStyle.Render(string(res.Outcome))
		default:
			outcome = SubtitleStyle.Render(string(res.Outcome))
		}
		line := fmt.Sprintf("> %s %s", TaskStyle.Render(res.Task), outcome)
		if res.Duration > 0 {
			line += " " + SubtitleStyle.Render(res.Duration.Round(time.Millisecond).String())
		}
		fmt.Fprintln(w, line)
	}
}
