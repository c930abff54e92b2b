// SPDX-License-Identifier: MPL-2.0

package npmpubfile

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npmpub/npmpub/internal/testutil"
	"github.com/npmpub/npmpub/pkg/npmpublish"
)

const sampleProject = `
name:    "demo"
version: "1.2.0"
toolchain_manifest: "build/toolchain.toml"

defaults: {
	organization: "acme"
	auth_token:   "default-token"
	dry:          true
}

publications: {
	"browser-lib": {
		module_name: "lib"
		readme:      "README.md"
		dependencies: [
			{name: "left-pad", version: "1.3.0"},
			{name: "mocha", version: "8.0.0", scope: "dev"},
		]
		output: {
			compile_task: "compileBrowser"
			output_file:  "build/js/lib.js"
		}
		package_json: {
			license: "MIT"
			funding: "https://example.com/fund"
		}
	}
}

registries: {
	npmjs: {
		registry: "https://registry.npmjs.org"
	}
	github: {
		registry:   "https://npm.pkg.github.com"
		auth_token: "gh-token"
		access:     "restricted"
	}
}
`

func TestParse(t *testing.T) {
	t.Parallel()

	p, err := Parse([]byte(sampleProject), "/work/demo/npmpub.cue")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if p.Name != "demo" || p.Version != "1.2.0" {
		t.Errorf("identity = %s@%s", p.Name, p.Version)
	}
	if p.Dir() != "/work/demo" {
		t.Errorf("Dir() = %q", p.Dir())
	}
	if want := filepath.Join("/work/demo", "build", "toolchain.toml"); p.ManifestPath() != want {
		t.Errorf("ManifestPath() = %q, want %q", p.ManifestPath(), want)
	}
	pub := p.Publications["browser-lib"]
	if len(pub.Dependencies) != 2 || pub.Dependencies[0].Scope != "normal" {
		t.Errorf("dependencies = %+v, want schema default scope", pub.Dependencies)
	}
	if p.Registries["github"].Access != "restricted" {
		t.Errorf("github access = %q", p.Registries["github"].Access)
	}
}

func TestParse_SchemaErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantSub string
	}{
		{
			name:    "missing version",
			data:    `name: "demo"`,
			wantSub: "version",
		},
		{
			name: "unknown access",
			data: `
name: "demo"
version: "1.0.0"
registries: npmjs: access: "everyone"
`,
			wantSub: "access",
		},
		{
			name: "dependency without version",
			data: `
name: "demo"
version: "1.0.0"
publications: js: dependencies: [{name: "left-pad"}]
`,
			wantSub: "version",
		},
		{
			name: "unknown top-level field",
			data: `
name: "demo"
version: "1.0.0"
plugins: ["js"]
`,
			wantSub: "plugins",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.data), "npmpub.cue")
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) || !strings.Contains(err.Error(), "npmpub.cue") {
				t.Errorf("error %q should name the file and %q", err, tt.wantSub)
			}
		})
	}
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Cleanup(testutil.MustSetenv(t, "NPMPUB_TEST_TOKEN", "s3cret"))
	t.Cleanup(testutil.MustSetenv(t, "NPMPUB_TEST_HOST", "npm.example.com"))

	data := `
name: "demo"
version: "1.0.0"
registries: private: {
	registry:   "https://${NPMPUB_TEST_HOST}/repo"
	auth_token: "$NPMPUB_TEST_TOKEN"
}
`
	p, err := Parse([]byte(data), "npmpub.cue")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	reg := p.Registries["private"]
	if reg.Registry != "https://npm.example.com/repo" {
		t.Errorf("registry = %q", reg.Registry)
	}
	if reg.AuthToken != "s3cret" {
		t.Errorf("auth_token = %q", reg.AuthToken)
	}
}

func TestProject_Apply(t *testing.T) {
	t.Parallel()

	p, err := Parse([]byte(sampleProject), "/work/demo/npmpub.cue")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ext := npmpublish.NewExtension(p.Info())
	if err := p.Apply(ext); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if !ext.Defaults.Dry || ext.Defaults.Organization != "acme" {
		t.Errorf("defaults = %+v", ext.Defaults)
	}
	if ext.Defaults.Registry != npmpublish.DefaultRegistry {
		t.Errorf("unset default registry changed to %q", ext.Defaults.Registry)
	}

	pub, ok := ext.Publications.Find("browserLib")
	if !ok {
		t.Fatal("publication browserLib not declared")
	}
	if pub.ModuleName() != "lib" || pub.Version() != "1.2.0" {
		t.Errorf("module = %s@%s", pub.ModuleName(), pub.Version())
	}
	if pub.Main() != "lib.js" {
		t.Errorf("Main() = %q, want output file name", pub.Main())
	}
	if want := filepath.Join("/work/demo", "README.md"); pub.Readme() != want {
		t.Errorf("Readme() = %q, want %q", pub.Readme(), want)
	}
	out := pub.Output()
	if out == nil || out.CompileTask != "compileBrowser" || out.Target != "browserLib" {
		t.Fatalf("Output() = %+v", out)
	}
	if pub.Dependencies().Len() != 2 {
		t.Errorf("Dependencies().Len() = %d", pub.Dependencies().Len())
	}
	if pj := pub.PackageJSON(); pj.License != "MIT" || pj.Extra["funding"] != "https://example.com/fund" {
		t.Errorf("package_json overrides = %+v", pj)
	}

	npmjs, _ := ext.Registries.Find("npmjs")
	if npmjs.AuthToken() != "default-token" {
		t.Errorf("npmjs token = %q, want inherited default", npmjs.AuthToken())
	}
	github, _ := ext.Registries.Find("github")
	if github.AuthToken() != "gh-token" || github.Access() != npmpublish.AccessRestricted {
		t.Errorf("github = %s/%s", github.AuthToken(), github.Access())
	}
}

func TestLocate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := Locate(dir); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Locate() error = %v, want ErrNotFound", err)
	}

	testutil.MustWriteFile(t, filepath.Join(dir, FileName), "name: \"demo\"\nversion: \"0.1.0\"\n")
	path, err := Locate(dir)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	p, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if p.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", p.Dir(), dir)
	}
	if p.ChangelogPath() != filepath.Join(dir, DefaultChangelog) {
		t.Errorf("ChangelogPath() = %q", p.ChangelogPath())
	}
}
