// SPDX-License-Identifier: MPL-2.0

package taskgraph

import (
	"context"
	"maps"
	"slices"
)

const (
	// GroupBuild groups tasks that produce artifacts.
	GroupBuild = "build"
	// GroupPublishing groups tasks that push artifacts to registries.
	GroupPublishing = "publishing"
	// GroupVerification groups tasks that only check preconditions.
	GroupVerification = "verification"
)

type (
	// Action is the work a task performs. The task logger is available via
	// log.FromContext(ctx).
	Action func(ctx context.Context, t *Task) error

	// Task is one named unit of work in the graph.
	Task struct {
		name        string
		group       string
		description string
		dependsOn   []string
		inputs      []string
		properties  map[string]string
		outputs     []string
		action      Action
		disabled    bool
	}
)

// NewTask returns an enabled task with no action.
func NewTask(name string) *Task {
	return &Task{name: name}
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Group returns the task group.
func (t *Task) Group() string { return t.group }

// SetGroup sets the task group.
func (t *Task) SetGroup(group string) *Task {
	t.group = group
	return t
}

// Description returns the task description.
func (t *Task) Description() string { return t.description }

// SetDescription sets the task description.
func (t *Task) SetDescription(description string) *Task {
	t.description = description
	return t
}

// DependsOn adds dependencies on the named tasks. Repeated names are kept once.
func (t *Task) DependsOn(names ...string) *Task {
	for _, name := range names {
		if name != "" && name != t.name && !slices.Contains(t.dependsOn, name) {
			t.dependsOn = append(t.dependsOn, name)
		}
	}
	return t
}

// Dependencies returns the names of the tasks t depends on.
func (t *Task) Dependencies() []string { return slices.Clone(t.dependsOn) }

// InputFiles declares files or directories whose content feeds the task.
func (t *Task) InputFiles(paths ...string) *Task {
	for _, p := range paths {
		if p != "" && !slices.Contains(t.inputs, p) {
			t.inputs = append(t.inputs, p)
		}
	}
	return t
}

// Inputs returns the declared input paths.
func (t *Task) Inputs() []string { return slices.Clone(t.inputs) }

// InputProperty declares a scalar input. Changing it invalidates the task.
func (t *Task) InputProperty(key, value string) *Task {
	if t.properties == nil {
		t.properties = make(map[string]string)
	}
	t.properties[key] = value
	return t
}

// Properties returns a copy of the declared input properties.
func (t *Task) Properties() map[string]string { return maps.Clone(t.properties) }

// OutputFiles declares files or directories the task produces.
func (t *Task) OutputFiles(paths ...string) *Task {
	for _, p := range paths {
		if p != "" && !slices.Contains(t.outputs, p) {
			t.outputs = append(t.outputs, p)
		}
	}
	return t
}

// Outputs returns the declared output paths.
func (t *Task) Outputs() []string { return slices.Clone(t.outputs) }

// SetAction sets the task action.
func (t *Task) SetAction(action Action) *Task {
	t.action = action
	return t
}

// HasAction reports whether the task performs work itself. Tasks without an
// action only aggregate their dependencies.
func (t *Task) HasAction() bool { return t.action != nil }

// SetEnabled enables or disables the task. Disabled tasks are skipped, never
// failed, and their dependencies still run.
func (t *Task) SetEnabled(enabled bool) *Task {
	t.disabled = !enabled
	return t
}

// Enabled reports whether the task runs.
func (t *Task) Enabled() bool { return !t.disabled }

// Incremental reports whether the task takes part in up-to-date checks: it
// must declare at least one output.
func (t *Task) Incremental() bool { return len(t.outputs) > 0 }
