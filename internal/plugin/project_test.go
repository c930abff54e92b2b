// SPDX-License-Identifier: MPL-2.0

package plugin

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/npmpub/npmpub/internal/assembler"
	"github.com/npmpub/npmpub/internal/toolchain"
	"github.com/npmpub/npmpub/pkg/npmpublish"
)

const manifest = `
plugins = ["multiplatform"]

[[targets]]
name = "browser"
platform = "js"

[[targets.compilations]]
name = "main"
compile_task = "compileBrowserJs"
output_file = "build/js/browser.js"
process_resources_task = "browserProcessResources"
related_configurations = ["browserImplementation"]

[configurations]
browserMainImplementation = [{ kind = "npm", name = "left-pad", version = "1.3.0" }]
`

func newProject(t *testing.T, buf *bytes.Buffer, opts ...Option) *Project {
	t.Helper()
	m, err := toolchain.ParseManifest([]byte(manifest), toolchain.FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	m.ResolvePaths(t.TempDir())
	opts = append([]Option{WithManifest(m), WithLogger(log.New(buf))}, opts...)
	return NewProject(npmpublish.Project{Name: "demo", Version: "1.0.0", Dir: t.TempDir()}, opts...)
}

func TestApply_ReturnsSameExtension(t *testing.T) {
	t.Parallel()

	p := newProject(t, &bytes.Buffer{})
	first, err := Apply(p)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Apply(p)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("Apply() created a second extension")
	}
	if got, _ := p.Extension(npmpublish.ExtensionName); got != first {
		t.Error("extension not registered under its name")
	}
}

func TestApply_ExtensionTypeMismatch(t *testing.T) {
	t.Parallel()

	p := newProject(t, &bytes.Buffer{})
	if err := p.AddExtension(npmpublish.ExtensionName, "something else"); err != nil {
		t.Fatal(err)
	}
	_, err := Apply(p)
	if !errors.Is(err, ErrExtensionType) {
		t.Fatalf("Apply() error = %v, want ErrExtensionType", err)
	}
	if _, err := p.Evaluate(); !errors.Is(err, ErrExtensionType) {
		t.Errorf("Evaluate() error = %v, want ErrExtensionType", err)
	}
}

func TestEvaluate_NotApplied(t *testing.T) {
	t.Parallel()

	if _, err := newProject(t, &bytes.Buffer{}).Evaluate(); !errors.Is(err, ErrNotApplied) {
		t.Errorf("Evaluate() error = %v, want ErrNotApplied", err)
	}
}

func TestEvaluate_WiresBoundTargets(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := newProject(t, &buf)
	ext, _ := Apply(p)
	ext.Defaults.AuthToken = "token"
	ext.Registries.Configure("npmjs", func(r *npmpublish.Registry) {
		r.SetURL(npmpublish.DefaultRegistry)
	})
	ext.Registries.Configure("broken", nil)

	ev, err := p.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(ev.Publications) != 1 || ev.Publications[0].Name != "browser" {
		t.Fatalf("Publications = %+v", ev.Publications)
	}
	if len(ev.Registries) != 1 || len(ev.Rejected) != 1 {
		t.Errorf("Registries = %d, Rejected = %d", len(ev.Registries), len(ev.Rejected))
	}
	if !strings.Contains(buf.String(), "NPM Repository [broken] is invalid. Skipping...") {
		t.Errorf("log lacks the rejection warning:\n%s", buf.String())
	}
	for _, name := range []string{
		"compileBrowserJs",
		"browserProcessResources",
		assembler.SetupTaskName,
		"assembleBrowserNpmPublication",
		"packBrowserNpmPublication",
		"publishBrowserNpmPublicationToNpmjs",
	} {
		if _, ok := p.Tasks().Find(name); !ok {
			t.Errorf("task %s not registered", name)
		}
	}
}

func TestEvaluate_SkipsInvalidPublication(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := newProject(t, &buf)
	ext, _ := Apply(p)
	ext.Publications.Declare("orphan")

	ev, err := p.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(ev.Publications) != 1 {
		t.Errorf("Publications = %d, want only the bound one", len(ev.Publications))
	}
	if !strings.Contains(buf.String(), "NPM Publication [orphan] is invalid. Skipping...") {
		t.Errorf("log lacks the rejection warning:\n%s", buf.String())
	}
	if _, ok := p.Tasks().Find("assembleOrphanNpmPublication"); ok {
		t.Error("an invalid publication must not get tasks")
	}
	publish, _ := p.Tasks().Find(assembler.PublishLifecycleTask)
	if publish.Enabled() {
		t.Error("publish must stay disabled without registries")
	}
}

func TestEvaluate_MisconfigurationIsFatal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		configure func(ext *npmpublish.Extension)
	}{
		{
			name: "snapshot version",
			configure: func(ext *npmpublish.Extension) {
				ext.Publications.ConfigureAll(func(pub *npmpublish.Publication) { pub.SetVersion("1.0-SNAPSHOT") })
			},
		},
		{
			name: "relative registry url",
			configure: func(ext *npmpublish.Extension) {
				ext.Defaults.AuthToken = "token"
				ext.Registries.Configure("local", func(r *npmpublish.Registry) { r.SetURL("registry.example.com") })
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			p := newProject(t, &buf)
			ext, _ := Apply(p)
			tt.configure(ext)

			ev, err := p.Evaluate()
			if ev != nil || !errors.Is(err, npmpublish.ErrInvalidConfiguration) {
				t.Fatalf("Evaluate() = %v, %v; want ErrInvalidConfiguration", ev, err)
			}
			if strings.Contains(buf.String(), "Skipping") {
				t.Errorf("a misconfiguration must not be reported as skipped:\n%s", buf.String())
			}
		})
	}
}

func TestEvaluate_RunsOnce(t *testing.T) {
	t.Parallel()

	p := newProject(t, &bytes.Buffer{})
	ext, _ := Apply(p)

	first, err := p.Evaluate()
	if err != nil {
		t.Fatal(err)
	}
	before := p.Tasks().Len()

	ext.Publications.Declare("late")
	second, err := p.Evaluate()
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("Evaluate() ran twice")
	}
	if p.Tasks().Len() != before {
		t.Error("declarations after evaluation changed the task graph")
	}
}

func TestEvaluate_MissingUpstreamTaskIsFatal(t *testing.T) {
	t.Parallel()

	p := NewProject(npmpublish.Project{Name: "demo", Version: "1.0.0", Dir: t.TempDir()},
		WithLogger(log.New(&bytes.Buffer{})))
	ext, _ := Apply(p)
	ext.Publications.Configure("js", func(pub *npmpublish.Publication) {
		pub.BindTarget(npmpublish.CompiledOutput{
			Target:      "js",
			CompileTask: "compileMainJs",
			OutputFile:  filepath.Join(t.TempDir(), "demo.js"),
		}, nil)
	})

	if _, err := p.Evaluate(); !errors.Is(err, assembler.ErrMissingTask) {
		t.Fatalf("Evaluate() error = %v, want ErrMissingTask", err)
	}
}

func TestEvaluate_OutputTasksForDeclaredOutputs(t *testing.T) {
	t.Parallel()

	p := NewProject(npmpublish.Project{Name: "demo", Version: "1.0.0", Dir: t.TempDir()},
		WithLogger(log.New(&bytes.Buffer{})), WithOutputTasks(true))
	ext, _ := Apply(p)
	ext.Publications.Configure("js", func(pub *npmpublish.Publication) {
		pub.BindTarget(npmpublish.CompiledOutput{
			Target:      "js",
			CompileTask: "compileMainJs",
			OutputFile:  filepath.Join(t.TempDir(), "demo.js"),
		}, nil)
	})

	if _, err := p.Evaluate(); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if _, ok := p.Tasks().Find("compileMainJs"); !ok {
		t.Error("compile task not registered for a declared output")
	}
}
