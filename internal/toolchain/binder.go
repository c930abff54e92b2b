// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/npmpub/npmpub/pkg/npmpublish"
)

// ErrNoMainCompilation is returned when a JavaScript target has no main compilation.
var ErrNoMainCompilation = errors.New("target has no main compilation")

type (
	// MissingCompilationError names the target without a main compilation.
	// It wraps ErrNoMainCompilation.
	MissingCompilationError struct {
		Target string
	}

	// Binder creates or fetches one publication per JavaScript target and
	// wires the target's compiled output into it.
	Binder struct {
		manifest *Manifest
		logger   *log.Logger
	}
)

func (e *MissingCompilationError) Error() string {
	return fmt.Sprintf("target %q has no compilation named like \"main\"", e.Target)
}

// Unwrap returns ErrNoMainCompilation for errors.Is() compatibility.
func (e *MissingCompilationError) Unwrap() error { return ErrNoMainCompilation }

// NewBinder returns a binder for m. A nil logger discards output.
func NewBinder(m *Manifest, logger *log.Logger) *Binder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Binder{manifest: m, logger: logger}
}

// Targets returns the publishable targets found by the capability probes,
// multi-target first, without duplicates.
func (b *Binder) Targets() []Target {
	var targets []Target
	seen := make(map[string]bool)
	for _, probe := range []func(*Manifest) ([]Target, bool){DetectMultiTargetSupport, DetectSingleTargetSupport} {
		found, ok := probe(b.manifest)
		if !ok {
			continue
		}
		for _, t := range found {
			if seen[t.Name] {
				continue
			}
			seen[t.Name] = true
			targets = append(targets, t)
		}
	}
	return targets
}

// Bind binds every publishable target into ext and returns the publications
// it touched. Binding twice leaves the extension unchanged.
func (b *Binder) Bind(ext *npmpublish.Extension) ([]*npmpublish.Publication, error) {
	targets := b.Targets()
	pubs := make([]*npmpublish.Publication, 0, len(targets))
	for _, t := range targets {
		pub, err := b.bindTarget(ext, t)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

func (b *Binder) bindTarget(ext *npmpublish.Extension, t Target) (*npmpublish.Publication, error) {
	c, ok := t.MainCompilation()
	if !ok {
		return nil, &MissingCompilationError{Target: t.Name}
	}
	pub := ext.Publications.Declare(t.Name)
	bound := pub.BindTarget(outputOf(t, c), b.Dependencies(t.Name, c))
	if bound {
		b.logger.Debug("bound target", "target", t.Name, "publication", pub.Name(), "compilation", c.Name)
	}
	return pub, nil
}

// Dependencies collects the npm dependencies of compilation c of target.
// For every related configuration conf it reads conf itself and the
// matching main configuration <target>Main<suffix>, where suffix is conf
// after the first occurrence of target (all of conf when absent). Entries
// of other kinds are dropped.
func (b *Binder) Dependencies(target string, c Compilation) []npmpublish.Dependency {
	var set npmpublish.DependencySet
	for _, conf := range c.RelatedConfigurations {
		mainName := target + "Main" + substringAfter(conf, target)
		for _, name := range []string{conf, mainName} {
			for _, d := range b.manifest.Configurations[name] {
				if !strings.EqualFold(d.Kind, KindNPM) {
					continue
				}
				set.Add(npmpublish.Dependency{
					Name:    d.Name,
					Version: d.Version,
					Scope:   npmpublish.DependencyScope(d.Scope),
				})
			}
		}
	}
	return set.Items()
}

func outputOf(t Target, c Compilation) npmpublish.CompiledOutput {
	return npmpublish.CompiledOutput{
		Target:         t.Name,
		Compilation:    c.Name,
		CompileTask:    c.CompileTask,
		OutputFile:     c.OutputFile,
		ResourcesTask:  c.ProcessResourcesTask,
		ResourcesDir:   c.ResourcesDir,
		NodeModulesDir: c.NodeModulesDir,
	}
}

func substringAfter(s, sep string) string {
	if i := strings.Index(s, sep); i >= 0 {
		return s[i+len(sep):]
	}
	return s
}
