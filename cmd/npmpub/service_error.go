// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/npmpub/npmpub/internal/assembler"
	"github.com/npmpub/npmpub/internal/issue"
	"github.com/npmpub/npmpub/internal/npm"
	"github.com/npmpub/npmpub/internal/release"
	"github.com/npmpub/npmpub/internal/taskgraph"
	"github.com/npmpub/npmpub/pkg/npmpubfile"
	"github.com/npmpub/npmpub/pkg/npmpublish"
)

// ServiceError is an error that carries the issue catalog entry explaining
// it. Always create via newServiceError.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
func newServiceError(err error, issueID issue.Id) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{Err: err, IssueID: issueID}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// classify attaches the matching catalog entry to well-known failures.
// Errors that already carry an entry are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return err
	}

	var taskErr *taskgraph.TaskError
	switch {
	case errors.Is(err, npm.ErrNotFound):
		return newServiceError(err, issue.NpmNotFoundId)
	case errors.Is(err, npmpubfile.ErrNotFound):
		return newServiceError(err, issue.ProjectFileNotFoundId)
	case errors.Is(err, taskgraph.ErrUnknownTask), errors.Is(err, assembler.ErrMissingTask):
		return newServiceError(err, issue.TaskNotFoundId)
	case errors.Is(err, npmpublish.ErrInvalidConfiguration):
		return newServiceError(err, issue.InvalidPublishingConfigId)
	case errors.Is(err, taskgraph.ErrCycle):
		return newServiceError(err, issue.DependencyCycleId)
	case errors.Is(err, release.ErrRequestFailed), errors.Is(err, release.ErrMissingProject):
		return newServiceError(err, issue.ReleaseFailedId)
	case errors.As(err, &taskErr) && errors.Is(err, npm.ErrProcessFailed):
		if isPackTask(taskErr.Task) {
			return newServiceError(err, issue.PackFailedId)
		}
		return newServiceError(err, issue.PublishFailedId)
	}
	return err
}

func isPackTask(name string) bool {
	return strings.HasPrefix(name, assembler.PackLifecycleTask)
}

// renderIssue writes the catalog entry attached to err, if any.
func renderIssue(stderr io.Writer, err error) {
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) || svcErr.IssueID == 0 {
		return
	}
	if entry := issue.Get(svcErr.IssueID); entry != nil {
		rendered, renderErr := entry.Render("dark")
		if renderErr != nil {
			log.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", renderErr)
			return
		}
		fmt.Fprint(stderr, rendered)
	}
}

// formatErrorForDisplay formats an error for user display. An
// ActionableError uses its Format method; in verbose mode it shows the full
// error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
