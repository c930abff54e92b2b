// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/npmpub/npmpub/internal/assembler"
	"github.com/npmpub/npmpub/internal/config"
	"github.com/npmpub/npmpub/internal/issue"
	"github.com/npmpub/npmpub/internal/npm"
	"github.com/npmpub/npmpub/internal/plugin"
	"github.com/npmpub/npmpub/internal/taskgraph"
	"github.com/npmpub/npmpub/internal/toolchain"
	"github.com/npmpub/npmpub/pkg/npmpublish"
	"github.com/npmpub/npmpub/pkg/npmpubfile"
)

// stateDirName is the directory under the build dir holding task fingerprints.
const stateDirName = "npmpub-state"

type (
	// App wires CLI services and shared dependencies. All Cobra command
	// handlers receive an App reference.
	App struct {
		Config           config.Provider
		Invoker          npm.Invoker
		HTTPClient       *http.Client
		// AssemblerOptions are appended to the options the CLI derives from
		// configuration.
		AssemblerOptions []assembler.Option
		stdout           io.Writer
		stderr           io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config           config.Provider
		Invoker          npm.Invoker
		HTTPClient       *http.Client
		AssemblerOptions []assembler.Option
		Stdout           io.Writer
		Stderr           io.Writer
	}

	// rootOptions holds the persistent flag values.
	rootOptions struct {
		configFile string
		projectDir string
		verbose    bool
		dry        bool
		dryChanged bool
		authToken  string
		otp        string
	}

	// Session is one loaded project after the configuration barrier.
	Session struct {
		Config     *config.Config
		File       *npmpubfile.Project
		Project    *plugin.Project
		Extension  *npmpublish.Extension
		Evaluation *plugin.Evaluation
		Logger     *log.Logger
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Invoker == nil {
		deps.Invoker = &npm.ExecInvoker{}
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = http.DefaultClient
	}
	return &App{
		Config:           deps.Config,
		Invoker:          deps.Invoker,
		HTTPClient:       deps.HTTPClient,
		AssemblerOptions: deps.AssemblerOptions,
		stdout:           deps.Stdout,
		stderr:           deps.Stderr,
	}
}

// loadConfig reads the user configuration named by --config, or the default
// file when the flag is empty.
func (a *App) loadConfig(ctx context.Context, opts *rootOptions) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: opts.configFile})
	if err != nil {
		return nil, newServiceError(err, issue.ConfigLoadFailedId)
	}
	return cfg, nil
}

// newLogger returns the CLI logger. Debug output is enabled by --verbose or
// ui.verbose.
func (a *App) newLogger(verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: "npmpub",
		Level:  level,
	})
}

// Load reads the configuration and the project file, applies every settings
// source in precedence order and evaluates the task graph. Sources apply
// from lowest to highest priority: built-in defaults, user config, project
// file, environment, flags.
func (a *App) Load(ctx context.Context, opts *rootOptions) (*Session, error) {
	cfg, err := a.loadConfig(ctx, opts)
	if err != nil {
		return nil, err
	}
	logger := a.newLogger(opts.verbose || cfg.UI.Verbose)

	dir := opts.projectDir
	if dir == "" {
		dir = "."
	}
	path, err := npmpubfile.Locate(dir)
	if err != nil {
		return nil, newServiceError(err, issue.ProjectFileNotFoundId)
	}
	file, err := npmpubfile.ParseFile(path)
	if err != nil {
		return nil, newServiceError(err, issue.ProjectFileParseErrorId)
	}
	logger.Debug("project file loaded", "path", path)

	var manifest *toolchain.Manifest
	if mp := file.ManifestPath(); mp != "" {
		manifest, err = toolchain.LoadManifest(mp)
		if err != nil {
			return nil, newServiceError(err, issue.ManifestLoadFailedId)
		}
		logger.Debug("toolchain manifest loaded", "path", mp, "targets", len(manifest.Targets))
	}

	command, err := npm.ParseCommand(cfg.NpmCommand)
	if err != nil {
		return nil, newServiceError(err, issue.ConfigLoadFailedId)
	}

	asmOpts := append([]assembler.Option{
		assembler.WithCommand(command),
		assembler.WithInvoker(a.Invoker),
	}, a.AssemblerOptions...)
	proj := plugin.NewProject(file.Info(),
		plugin.WithLogger(logger),
		plugin.WithManifest(manifest),
		plugin.WithOutputTasks(true),
		plugin.WithAssemblerOptions(asmOpts...),
	)
	ext, err := plugin.Apply(proj)
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults(ext.Defaults)
	if err := file.Apply(ext); err != nil {
		return nil, newServiceError(err, issue.ProjectFileParseErrorId)
	}
	cfg.Env.Apply(ext.Defaults)
	opts.apply(ext.Defaults)

	ev, err := proj.Evaluate()
	if err != nil {
		return nil, classify(err)
	}
	if len(ev.Publications) == 0 {
		logger.Warn("no valid npm publications; nothing will be assembled")
	}

	return &Session{
		Config:     cfg,
		File:       file,
		Project:    proj,
		Extension:  ext,
		Evaluation: ev,
		Logger:     logger,
	}, nil
}

// apply copies the global options given as flags onto d.
func (o *rootOptions) apply(d *npmpublish.Defaults) {
	if o.authToken != "" {
		d.AuthToken = o.authToken
	}
	if o.otp != "" {
		d.OTP = o.otp
	}
	if o.dryChanged {
		d.Dry = o.dry
	}
}

// Executor returns a task executor that keeps fingerprints under the
// project build directory.
func (s *Session) Executor(rerun bool) *taskgraph.Executor {
	stateDir := filepath.Join(s.File.Info().AbsBuildDir(), stateDirName)
	return taskgraph.NewExecutor(s.Project.Tasks(),
		taskgraph.WithStateStore(taskgraph.NewStateStore(stateDir)),
		taskgraph.WithLogger(s.Logger),
		taskgraph.WithRerun(rerun),
	)
}

// Context returns ctx carrying the session logger, so npm output streams
// through it.
func (s *Session) Context(ctx context.Context) context.Context {
	return log.WithContext(ctx, s.Logger)
}
