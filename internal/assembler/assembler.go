// SPDX-License-Identifier: MPL-2.0

package assembler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/npmpub/npmpub/internal/npm"
	"github.com/npmpub/npmpub/internal/taskgraph"
	"github.com/npmpub/npmpub/pkg/npmpublish"
)

// ErrMissingTask is returned when a publication refers to a toolchain task
// that is not registered.
var ErrMissingTask = errors.New("required task not found")

type (
	// MissingTaskError names the absent task and the task that needed it.
	// It wraps ErrMissingTask.
	MissingTaskError struct {
		Task       string
		RequiredBy string
	}

	// Locator resolves the npm command for a node directory.
	Locator func(command []string, nodeJSDir string) ([]string, error)

	// Assembler registers publication tasks into a task registry.
	Assembler struct {
		tasks   *taskgraph.Registry
		logger  *log.Logger
		invoker npm.Invoker
		command []string
		locate  Locator
		dry     bool
	}

	// Option configures an Assembler.
	Option func(*Assembler)

	// Result lists the task names created or reused by one Assemble call.
	Result struct {
		Assemble []string
		Pack     []string
		Publish  []string
	}
)

func (e *MissingTaskError) Error() string {
	return fmt.Sprintf("task %q required by %s does not exist", e.Task, e.RequiredBy)
}

// Unwrap returns ErrMissingTask for errors.Is() compatibility.
func (e *MissingTaskError) Unwrap() error { return ErrMissingTask }

// WithLogger sets the configuration-time logger.
func WithLogger(l *log.Logger) Option {
	return func(a *Assembler) {
		a.logger = l
	}
}

// WithInvoker replaces the process invoker used by task actions.
func WithInvoker(inv npm.Invoker) Option {
	return func(a *Assembler) {
		a.invoker = inv
	}
}

// WithCommand sets the npm command words.
func WithCommand(command []string) Option {
	return func(a *Assembler) {
		if len(command) > 0 {
			a.command = command
		}
	}
}

// WithLocator replaces npm executable resolution.
func WithLocator(l Locator) Option {
	return func(a *Assembler) {
		a.locate = l
	}
}

// WithDryRun makes pack and publish tasks pass --dry-run.
func WithDryRun(dry bool) Option {
	return func(a *Assembler) {
		a.dry = dry
	}
}

// New returns an assembler registering into tasks.
func New(tasks *taskgraph.Registry, opts ...Option) *Assembler {
	a := &Assembler{
		tasks:   tasks,
		invoker: &npm.ExecInvoker{},
		command: []string{npm.DefaultCommand},
		locate:  npm.Locate,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = log.New(io.Discard)
	}
	return a
}

// Assemble creates the tasks for every publication and registry pair. Tasks
// that already exist under a derived name are reused unchanged.
func (a *Assembler) Assemble(pubs []*npmpublish.ResolvedPublication, regs []*npmpublish.ResolvedRegistry) (*Result, error) {
	for _, pub := range pubs {
		if err := a.checkUpstream(pub); err != nil {
			return nil, err
		}
	}

	assembleAll := a.lifecycle(AssembleLifecycleTask, taskgraph.GroupBuild, "Assembles all NPM publications.")
	packAll := a.lifecycle(PackLifecycleTask, taskgraph.GroupBuild, "Packs all NPM publications.")
	publishAll, created := a.tasks.GetOrCreate(PublishLifecycleTask, func(name string) *taskgraph.Task {
		return taskgraph.NewTask(name).
			SetGroup(taskgraph.GroupPublishing).
			SetDescription("Publishes all NPM publications to all registries.").
			SetEnabled(false)
	})
	if created {
		a.logger.Debug("created lifecycle task", "task", PublishLifecycleTask)
	}

	res := &Result{}
	for _, pub := range pubs {
		assemble := a.assembleTask(pub)
		assembleAll.DependsOn(assemble.Name())
		res.Assemble = append(res.Assemble, assemble.Name())

		pack := a.packTask(pub, assemble.Name())
		packAll.DependsOn(pack.Name())
		res.Pack = append(res.Pack, pack.Name())

		for _, reg := range regs {
			publish := a.publishTask(pub, reg, assemble.Name())
			publishAll.DependsOn(publish.Name())
			res.Publish = append(res.Publish, publish.Name())
		}
	}
	if len(res.Publish) > 0 {
		publishAll.SetEnabled(true)
	}
	return res, nil
}

func (a *Assembler) checkUpstream(pub *npmpublish.ResolvedPublication) error {
	for _, name := range []string{pub.Output.ResourcesTask, pub.Output.CompileTask} {
		if name == "" {
			continue
		}
		if _, ok := a.tasks.Find(name); !ok {
			return &MissingTaskError{Task: name, RequiredBy: AssembleTaskName(pub.Name)}
		}
	}
	return nil
}

func (a *Assembler) lifecycle(name, group, description string) *taskgraph.Task {
	t, _ := a.tasks.GetOrCreate(name, func(name string) *taskgraph.Task {
		return taskgraph.NewTask(name).SetGroup(group).SetDescription(description)
	})
	return t
}

func (a *Assembler) setupTask() *taskgraph.Task {
	t, _ := a.tasks.GetOrCreate(SetupTaskName, func(name string) *taskgraph.Task {
		return taskgraph.NewTask(name).
			SetGroup(taskgraph.GroupBuild).
			SetDescription("Checks that npm is available.").
			SetAction(func(ctx context.Context, _ *taskgraph.Task) error {
				client, err := a.client("")
				if err != nil {
					return err
				}
				version, err := client.Version(ctx, "")
				if err != nil {
					return err
				}
				log.FromContext(ctx).Info("npm is available", "version", version, "command", client.Command()[0])
				return nil
			})
	})
	return t
}

func (a *Assembler) assembleTask(pub *npmpublish.ResolvedPublication) *taskgraph.Task {
	t, created := a.tasks.GetOrCreate(AssembleTaskName(pub.Name), func(name string) *taskgraph.Task {
		t := taskgraph.NewTask(name).
			SetGroup(taskgraph.GroupBuild).
			SetDescription(fmt.Sprintf("Assembles %s NPM publication.", pub.Name)).
			DependsOn(pub.Output.ResourcesTask, pub.Output.CompileTask).
			InputFiles(stagingInputs(pub)...).
			OutputFiles(pub.DestinationDir)
		if pub.NeedsSetup() {
			t.DependsOn(a.setupTask().Name())
		}
		encoded, err := pub.PackageJSON().Encode()
		if err != nil {
			// Without the descriptor fingerprint the task could be skipped as
			// up to date, so it fails instead.
			a.logger.Warn("cannot encode package.json", "publication", pub.Name, "error", err)
			return t.SetAction(func(context.Context, *taskgraph.Task) error {
				return fmt.Errorf("encode package.json of %s: %w", pub.Name, err)
			})
		}
		return t.InputProperty("packageJson", string(encoded)).
			SetAction(func(ctx context.Context, _ *taskgraph.Task) error {
				return Stage(ctx, pub)
			})
	})
	if created {
		a.logger.Debug("created task", "task", t.Name(), "destination", pub.DestinationDir)
	}
	return t
}

func (a *Assembler) packTask(pub *npmpublish.ResolvedPublication, assemble string) *taskgraph.Task {
	dry := a.dry
	t, _ := a.tasks.GetOrCreate(PackTaskName(pub.Name), func(name string) *taskgraph.Task {
		t := taskgraph.NewTask(name).
			SetGroup(taskgraph.GroupBuild).
			SetDescription(fmt.Sprintf("Packs %s NPM module.", pub.Name)).
			DependsOn(assemble).
			InputFiles(pub.DestinationDir).
			InputProperty("dry", strconv.FormatBool(dry)).
			SetAction(func(ctx context.Context, _ *taskgraph.Task) error {
				client, err := a.client(pub.NodeJSDir)
				if err != nil {
					return err
				}
				_, err = client.Pack(ctx, npm.PackRequest{PackageDir: pub.DestinationDir, Dry: dry})
				return err
			})
		if !dry {
			t.OutputFiles(TarballPath(pub))
		}
		return t
	})
	return t
}

func (a *Assembler) publishTask(pub *npmpublish.ResolvedPublication, reg *npmpublish.ResolvedRegistry, assemble string) *taskgraph.Task {
	dry := a.dry
	access := pub.Access
	if reg.AccessExplicit {
		access = reg.Access
	}
	otp := reg.OTP
	if otp == "" {
		otp = pub.OTP
	}
	t, _ := a.tasks.GetOrCreate(PublishTaskName(pub.Name, reg.Name), func(name string) *taskgraph.Task {
		return taskgraph.NewTask(name).
			SetGroup(taskgraph.GroupPublishing).
			SetDescription(fmt.Sprintf("Publishes %s NPM publication to %s registry.", pub.Name, reg.Name)).
			DependsOn(assemble).
			SetAction(func(ctx context.Context, _ *taskgraph.Task) error {
				client, err := a.client(pub.NodeJSDir)
				if err != nil {
					return err
				}
				log.FromContext(ctx).Info("publishing", "package", pub.PackageName, "version", pub.Version, "registry", reg.URL.String(), "dry", dry)
				_, err = client.Publish(ctx, npm.PublishRequest{
					PackageDir: pub.DestinationDir,
					Registry:   reg.URL,
					AuthToken:  reg.AuthToken,
					OTP:        otp,
					Access:     access,
					Dry:        dry,
				})
				return err
			})
	})
	return t
}

func (a *Assembler) client(nodeJSDir string) (*npm.Client, error) {
	command, err := a.locate(a.command, nodeJSDir)
	if err != nil {
		return nil, err
	}
	return npm.NewClient(npm.WithInvoker(a.invoker), npm.WithCommand(command)), nil
}

// TarballPath is where `npm pack` writes the publication's tarball.
func TarballPath(pub *npmpublish.ResolvedPublication) string {
	return filepath.Join(filepath.Dir(pub.DestinationDir), npm.TarballName(pub.PackageName, pub.Version))
}
