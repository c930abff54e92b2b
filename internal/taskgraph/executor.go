// SPDX-License-Identifier: MPL-2.0

package taskgraph

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// OutcomeExecuted means the task action ran and succeeded.
	OutcomeExecuted Outcome = "EXECUTED"
	// OutcomeUpToDate means the task had no action or its fingerprint was
	// unchanged.
	OutcomeUpToDate Outcome = "UP-TO-DATE"
	// OutcomeSkipped means the task was disabled.
	OutcomeSkipped Outcome = "SKIPPED"
	// OutcomeFailed means the task action returned an error.
	OutcomeFailed Outcome = "FAILED"
)

type (
	// Outcome is the result state of one task.
	Outcome string

	// Result records how one task ended.
	Result struct {
		Task     string
		Outcome  Outcome
		Duration time.Duration
		Err      error
	}

	// Report lists the results of one run in execution order. Tasks that
	// never started because an earlier task failed are absent.
	Report struct {
		Results []Result
	}

	// TaskError reports the failing task of a run.
	TaskError struct {
		Task string
		Err  error
	}

	// Executor runs tasks from a Registry.
	Executor struct {
		registry *Registry
		state    *StateStore
		logger   *log.Logger
		rerun    bool
	}

	// ExecutorOption configures an Executor.
	ExecutorOption func(*Executor)
)

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.Task, e.Err)
}

// Unwrap returns the action error.
func (e *TaskError) Unwrap() error { return e.Err }

// Outcome returns the outcome of the named task and whether it ran at all.
func (r *Report) Outcome(task string) (Outcome, bool) {
	for _, res := range r.Results {
		if res.Task == task {
			return res.Outcome, true
		}
	}
	return "", false
}

// Tasks returns the names of the tasks with the given outcome.
func (r *Report) Tasks(outcome Outcome) []string {
	var names []string
	for _, res := range r.Results {
		if res.Outcome == outcome {
			names = append(names, res.Task)
		}
	}
	return names
}

// WithStateStore enables up-to-date checks backed by s.
func WithStateStore(s *StateStore) ExecutorOption {
	return func(e *Executor) {
		e.state = s
	}
}

// WithLogger sets the logger handed to task actions.
func WithLogger(l *log.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = l
	}
}

// WithRerun ignores stored fingerprints and runs every enabled action.
func WithRerun(rerun bool) ExecutorOption {
	return func(e *Executor) {
		e.rerun = rerun
	}
}

// NewExecutor returns an executor for registry.
func NewExecutor(registry *Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{registry: registry}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "taskgraph"})
	}
	return e
}

// Run executes the targets and their dependency closure. It returns the
// report together with a *TaskError for the first failing task.
func (e *Executor) Run(ctx context.Context, targets ...string) (*Report, error) {
	plan, err := e.registry.Plan(targets...)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, t := range plan {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("run canceled before %s: %w", t.Name(), err)
		}

		res := e.runTask(ctx, t)
		report.Results = append(report.Results, res)
		if res.Outcome == OutcomeFailed {
			return report, &TaskError{Task: t.Name(), Err: res.Err}
		}
	}
	return report, nil
}

func (e *Executor) runTask(ctx context.Context, t *Task) Result {
	logger := e.logger.With("task", t.Name())
	res := Result{Task: t.Name()}

	switch {
	case !t.Enabled():
		res.Outcome = OutcomeSkipped
		logger.Debug("skipped")
		return res
	case !t.HasAction():
		res.Outcome = OutcomeUpToDate
		return res
	}

	if e.upToDate(t, logger) {
		res.Outcome = OutcomeUpToDate
		logger.Info("up-to-date")
		return res
	}

	logger.Info("running")
	start := time.Now()
	err := t.action(log.WithContext(ctx, logger), t)
	res.Duration = time.Since(start)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		if e.state != nil {
			if invErr := e.state.Invalidate(t.Name()); invErr != nil {
				logger.Warn("could not drop task state", "error", invErr)
			}
		}
		return res
	}
	res.Outcome = OutcomeExecuted
	e.record(t, logger)
	return res
}

func (e *Executor) upToDate(t *Task, logger *log.Logger) bool {
	if e.state == nil || e.rerun || !t.Incremental() {
		return false
	}
	stored, err := e.state.Load(t.Name())
	if err != nil {
		logger.Warn("could not read task state", "error", err)
		return false
	}
	if stored == "" {
		return false
	}
	current, err := Fingerprint(t)
	if err != nil {
		logger.Warn("could not fingerprint task", "error", err)
		return false
	}
	return current == stored
}

func (e *Executor) record(t *Task, logger *log.Logger) {
	if e.state == nil || !t.Incremental() {
		return
	}
	fp, err := Fingerprint(t)
	if err == nil {
		err = e.state.Save(t.Name(), fp)
	}
	if err != nil {
		logger.Warn("could not record task state", "error", err)
	}
}
