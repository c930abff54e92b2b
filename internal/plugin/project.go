// SPDX-License-Identifier: MPL-2.0

package plugin

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/npmpub/npmpub/internal/assembler"
	"github.com/npmpub/npmpub/internal/taskgraph"
	"github.com/npmpub/npmpub/internal/toolchain"
	"github.com/npmpub/npmpub/pkg/npmpublish"
)

var (
	// ErrExtensionType is returned when an extension name is taken by a
	// value of another type.
	ErrExtensionType = errors.New("extension registered with a different type")
	// ErrNotApplied is returned by Evaluate when the plugin was never applied.
	ErrNotApplied = errors.New("npm publishing plugin is not applied")
)

type (
	// ExtensionTypeError reports an extension name collision. It wraps
	// ErrExtensionType.
	ExtensionTypeError struct {
		Name string
		Got  any
	}

	// Project is the host a publishing extension is attached to. It owns the
	// task registry and the named extensions.
	Project struct {
		info          npmpublish.Project
		tasks         *taskgraph.Registry
		extensions    map[string]any
		manifest      *toolchain.Manifest
		logger        *log.Logger
		assemblerOpts []assembler.Option
		outputTasks   bool

		once       sync.Once
		evaluation *Evaluation
		err        error
	}

	// Option configures a Project.
	Option func(*Project)

	// Evaluation is the outcome of the configuration barrier.
	Evaluation struct {
		// Publications are the valid publications in declaration order.
		Publications []*npmpublish.ResolvedPublication
		// Registries are the valid registries in declaration order.
		Registries []*npmpublish.ResolvedRegistry
		// Rejected lists every publication and registry that was skipped.
		Rejected []*npmpublish.RejectionError
		// Tasks names the tasks created or reused.
		Tasks *assembler.Result
	}
)

func (e *ExtensionTypeError) Error() string {
	return fmt.Sprintf("extension %q is already registered as %T", e.Name, e.Got)
}

// Unwrap returns ErrExtensionType for errors.Is() compatibility.
func (e *ExtensionTypeError) Unwrap() error { return ErrExtensionType }

// WithManifest sets the toolchain manifest whose targets are bound.
func WithManifest(m *toolchain.Manifest) Option {
	return func(p *Project) {
		p.manifest = m
	}
}

// WithLogger sets the project logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Project) {
		p.logger = l
	}
}

// WithTasks uses an existing task registry.
func WithTasks(r *taskgraph.Registry) Option {
	return func(p *Project) {
		p.tasks = r
	}
}

// WithAssemblerOptions passes options to the task graph assembler.
func WithAssemblerOptions(opts ...assembler.Option) Option {
	return func(p *Project) {
		p.assemblerOpts = append(p.assemblerOpts, opts...)
	}
}

// WithOutputTasks registers existence checks for every compile and resource
// task referenced by a publication. Without it those tasks must already be
// registered by the host.
func WithOutputTasks(enabled bool) Option {
	return func(p *Project) {
		p.outputTasks = enabled
	}
}

// NewProject returns a project with an empty task registry.
func NewProject(info npmpublish.Project, opts ...Option) *Project {
	p := &Project{
		info:       info,
		extensions: make(map[string]any),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.tasks == nil {
		p.tasks = taskgraph.NewRegistry()
	}
	if p.logger == nil {
		p.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "npmpub"})
	}
	return p
}

// Info returns the project description.
func (p *Project) Info() npmpublish.Project { return p.info }

// Tasks returns the task registry.
func (p *Project) Tasks() *taskgraph.Registry { return p.tasks }

// Logger returns the project logger.
func (p *Project) Logger() *log.Logger { return p.logger }

// Extension returns the extension registered under name.
func (p *Project) Extension(name string) (any, bool) {
	ext, ok := p.extensions[name]
	return ext, ok
}

// AddExtension registers ext under name. A taken name is an error.
func (p *Project) AddExtension(name string, ext any) error {
	if existing, ok := p.extensions[name]; ok {
		return &ExtensionTypeError{Name: name, Got: existing}
	}
	p.extensions[name] = ext
	return nil
}

// Apply installs the publishing extension and returns it. Applying twice
// returns the same extension.
func Apply(p *Project) (*npmpublish.Extension, error) {
	if existing, ok := p.extensions[npmpublish.ExtensionName]; ok {
		ext, ok := existing.(*npmpublish.Extension)
		if !ok {
			return nil, &ExtensionTypeError{Name: npmpublish.ExtensionName, Got: existing}
		}
		return ext, nil
	}
	ext := npmpublish.NewExtension(p.info)
	p.extensions[npmpublish.ExtensionName] = ext
	return ext, nil
}

// Evaluate ends the configuration phase. Later calls return the first
// result. Incomplete publications and registries are logged and skipped;
// misconfigured ones and missing upstream tasks fail the evaluation.
func (p *Project) Evaluate() (*Evaluation, error) {
	p.once.Do(func() {
		p.evaluation, p.err = p.evaluate()
	})
	return p.evaluation, p.err
}

func (p *Project) evaluate() (*Evaluation, error) {
	raw, ok := p.extensions[npmpublish.ExtensionName]
	if !ok {
		return nil, ErrNotApplied
	}
	ext, ok := raw.(*npmpublish.Extension)
	if !ok {
		return nil, &ExtensionTypeError{Name: npmpublish.ExtensionName, Got: raw}
	}

	if p.manifest != nil {
		binder := toolchain.NewBinder(p.manifest, p.logger)
		if _, err := binder.Bind(ext); err != nil {
			return nil, fmt.Errorf("bind toolchain targets: %w", err)
		}
		binder.RegisterTasks(p.tasks)
	}
	if p.outputTasks {
		for _, pub := range ext.Publications.All() {
			if out := pub.Output(); out != nil {
				toolchain.RegisterOutputTasks(p.tasks, *out)
			}
		}
	}

	ev := &Evaluation{}
	for _, pub := range ext.Publications.All() {
		resolved, err := npmpublish.ValidatePublication(pub)
		if err != nil {
			if !p.reject(ev, err) {
				return nil, err
			}
			p.logger.Warnf("NPM Publication [%s] is invalid. Skipping...", pub.Name())
			continue
		}
		ev.Publications = append(ev.Publications, resolved)
	}
	for _, reg := range ext.Registries.All() {
		resolved, err := npmpublish.ValidateRegistry(reg)
		if err != nil {
			if !p.reject(ev, err) {
				return nil, err
			}
			p.logger.Warnf("NPM Repository [%s] is invalid. Skipping...", reg.Name())
			continue
		}
		ev.Registries = append(ev.Registries, resolved)
	}

	opts := append([]assembler.Option{
		assembler.WithLogger(p.logger),
		assembler.WithDryRun(ext.Defaults.Dry),
	}, p.assemblerOpts...)
	res, err := assembler.New(p.tasks, opts...).Assemble(ev.Publications, ev.Registries)
	if err != nil {
		return nil, err
	}
	ev.Tasks = res
	return ev, nil
}

// reject records err when it is a rejection and reports whether it was one.
func (p *Project) reject(ev *Evaluation, err error) bool {
	var rej *npmpublish.RejectionError
	if !errors.As(err, &rej) {
		return false
	}
	ev.Rejected = append(ev.Rejected, rej)
	p.logger.Debug("rejected", "kind", rej.Kind, "name", rej.Name, "reasons", rej.Reasons)
	return true
}
