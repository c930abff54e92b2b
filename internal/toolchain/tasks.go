// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/npmpub/npmpub/internal/taskgraph"
	"github.com/npmpub/npmpub/pkg/npmpublish"
)

// ErrOutputMissing is returned by a compile task whose output file does not exist.
var ErrOutputMissing = errors.New("compiled output is missing")

// RegisterTasks registers the compile and resource tasks of every
// publishable target's main compilation. Tasks already present in reg are
// left untouched.
func (b *Binder) RegisterTasks(reg *taskgraph.Registry) {
	for _, t := range b.Targets() {
		c, ok := t.MainCompilation()
		if !ok {
			continue
		}
		RegisterOutputTasks(reg, outputOf(t, c))
	}
}

// RegisterOutputTasks registers the toolchain tasks o refers to. The build
// itself is owned by the toolchain; these tasks only confirm that it ran.
func RegisterOutputTasks(reg *taskgraph.Registry, o npmpublish.CompiledOutput) {
	if o.CompileTask != "" {
		reg.GetOrCreate(o.CompileTask, func(name string) *taskgraph.Task {
			return taskgraph.NewTask(name).
				SetGroup(taskgraph.GroupVerification).
				SetDescription(fmt.Sprintf("Checks the compiled output of target %s.", o.Target)).
				InputFiles(o.OutputFile).
				SetAction(checkOutput(o.OutputFile))
		})
	}
	if o.ResourcesTask != "" {
		reg.GetOrCreate(o.ResourcesTask, func(name string) *taskgraph.Task {
			return taskgraph.NewTask(name).
				SetGroup(taskgraph.GroupVerification).
				SetDescription(fmt.Sprintf("Checks the processed resources of target %s.", o.Target)).
				SetAction(checkResources(o.ResourcesDir))
		})
	}
}

func checkOutput(path string) taskgraph.Action {
	return func(ctx context.Context, _ *taskgraph.Task) error {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%w: %s (run the toolchain build first)", ErrOutputMissing, path)
			}
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", ErrOutputMissing, path)
		}
		log.FromContext(ctx).Debug("compiled output present", "file", path, "size", info.Size())
		return nil
	}
}

// checkResources tolerates a missing directory; not every target has resources.
func checkResources(dir string) taskgraph.Action {
	return func(ctx context.Context, _ *taskgraph.Task) error {
		if dir == "" {
			return nil
		}
		if _, err := os.Stat(dir); err != nil {
			log.FromContext(ctx).Debug("no processed resources", "dir", dir)
		}
		return nil
	}
}
