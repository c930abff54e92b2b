// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/npmpub/npmpub/internal/testutil"
)

const tomlManifest = `
plugins = ["multiplatform"]

[[targets]]
name = "browser"
platform = "js"

[[targets.compilations]]
name = "test"
compile_task = "compileBrowserTestJs"
output_file = "build/js/browser-test.js"

[[targets.compilations]]
name = "main"
compile_task = "compileBrowserJs"
output_file = "build/js/browser.js"
process_resources_task = "browserProcessResources"
resources_dir = "build/processedResources/browser/main"
related_configurations = ["browserImplementation", "browserApi"]

[[targets]]
name = "jvm"
platform = "jvm"

[configurations]
browserMainImplementation = [
  { kind = "npm", name = "left-pad", version = "1.3.0" },
  { kind = "maven", name = "org.jetbrains:annotations", version = "13.0" },
]
browserImplementation = [
  { kind = "npm", name = "left-pad", version = "1.3.0" },
]
browserMainApi = [
  { kind = "npm", name = "react", version = "17.0.0", scope = "peer" },
]
`

func TestParseManifest_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{name: "toml", format: FormatTOML, data: tomlManifest},
		{
			name:   "yaml",
			format: FormatYAML,
			data: `plugins: [multiplatform]
targets:
  - name: browser
    platform: js
    compilations:
      - name: main
        compile_task: compileBrowserJs
        output_file: build/js/browser.js
configurations:
  browserMainImplementation:
    - {kind: npm, name: left-pad, version: 1.3.0}
`,
		},
		{
			name:   "json",
			format: FormatJSON,
			data: `{"plugins":["multiplatform"],"targets":[{"name":"browser","platform":"js",
"compilations":[{"name":"main","compile_task":"compileBrowserJs","output_file":"build/js/browser.js"}]}],
"configurations":{"browserMainImplementation":[{"kind":"npm","name":"left-pad","version":"1.3.0"}]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := ParseManifest([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("ParseManifest() error = %v", err)
			}
			if !m.HasPlugin(PluginMultiplatform) {
				t.Errorf("Plugins = %v", m.Plugins)
			}
			c, ok := m.Targets[0].MainCompilation()
			if !ok || c.CompileTask != "compileBrowserJs" {
				t.Errorf("MainCompilation() = %+v, %v", c, ok)
			}
			deps := m.Configurations["browserMainImplementation"]
			if len(deps) == 0 || deps[0].Name != "left-pad" || deps[0].Version != "1.3.0" {
				t.Errorf("configurations = %+v", m.Configurations)
			}
		})
	}
}

func TestParseManifest_Errors(t *testing.T) {
	t.Parallel()

	if _, err := ParseManifest([]byte("  \n"), FormatTOML); !errors.Is(err, ErrEmptyManifest) {
		t.Errorf("blank payload error = %v, want ErrEmptyManifest", err)
	}
	if _, err := ParseManifest([]byte("x"), Format("ini")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("unknown format error = %v, want ErrUnknownFormat", err)
	}
	if _, err := ParseManifest([]byte("plugins = ["), FormatTOML); err == nil {
		t.Error("malformed TOML must fail")
	}
	if _, err := FormatOf("manifest.ini"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("FormatOf() error = %v, want ErrUnknownFormat", err)
	}
}

func TestLoadManifest_ResolvesPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "toolchain.toml")
	testutil.MustWriteFile(t, path, tomlManifest)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	c, _ := m.Targets[0].MainCompilation()
	if want := filepath.Join(dir, "build", "js", "browser.js"); c.OutputFile != want {
		t.Errorf("OutputFile = %q, want %q", c.OutputFile, want)
	}
	if c.NodeModulesDir != "" {
		t.Errorf("empty paths must stay empty, got %q", c.NodeModulesDir)
	}
}

func TestTarget_MainCompilationIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	target := Target{Name: "js", Compilations: []Compilation{
		{Name: "test"},
		{Name: "jsMAIN"},
		{Name: "main"},
	}}
	c, ok := target.MainCompilation()
	if !ok || c.Name != "jsMAIN" {
		t.Errorf("MainCompilation() = %q, %v, want first match", c.Name, ok)
	}
	if _, ok := (Target{Name: "js"}).MainCompilation(); ok {
		t.Error("a target without compilations has no main compilation")
	}
}
