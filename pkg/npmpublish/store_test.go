// SPDX-License-Identifier: MPL-2.0

package npmpublish

import (
	"path/filepath"
	"testing"
)

func newTestExtension() *Extension {
	return NewExtension(Project{Name: "demo", Version: "1.0.0", Dir: "/work/demo"})
}

func TestContainer_DeclareReturnsSameInstance(t *testing.T) {
	t.Parallel()

	ext := newTestExtension()
	first := ext.Publications.Declare("js")
	second := ext.Publications.Declare("js")

	if first != second {
		t.Fatal("Declare() returned a different instance for the same name")
	}
	if ext.Publications.Len() != 1 {
		t.Errorf("Len() = %d, want 1", ext.Publications.Len())
	}
}

func TestContainer_NormalizesPublicationNames(t *testing.T) {
	t.Parallel()

	ext := newTestExtension()
	a := ext.Publications.Declare("browser-lib")
	b := ext.Publications.Declare("browserLib")

	if a != b {
		t.Fatal("names differing only in separators must map to one publication")
	}
	if a.Name() != "browserLib" {
		t.Errorf("Name() = %q, want %q", a.Name(), "browserLib")
	}
}

func TestContainer_ConfigureAllAppliesToExistingAndFuture(t *testing.T) {
	t.Parallel()

	ext := newTestExtension()
	early := ext.Publications.Declare("early")
	ext.Publications.ConfigureAll(func(p *Publication) {
		p.SetBundleDependencies(true)
	})
	late := ext.Publications.Declare("late")

	if !early.BundleDependencies() {
		t.Error("ConfigureAll() did not reach an existing publication")
	}
	if !late.BundleDependencies() {
		t.Error("ConfigureAll() did not reach a publication declared later")
	}
}

func TestContainer_ConfigureBlocksAccumulate(t *testing.T) {
	t.Parallel()

	ext := newTestExtension()
	ext.Publications.Configure("lib", func(p *Publication) {
		p.SetMain("a.js")
		p.Dependencies().Add(Dependency{Name: "left-pad", Version: "1.3.0"})
	})
	ext.Publications.Configure("lib", func(p *Publication) {
		p.SetMain("b.js")
		p.Dependencies().Add(Dependency{Name: "kotlin", Version: "1.4.10"})
	})

	lib, ok := ext.Publications.Find("lib")
	if !ok {
		t.Fatal("Find() did not return the configured publication")
	}
	if lib.Main() != "b.js" {
		t.Errorf("Main() = %q, want last write %q", lib.Main(), "b.js")
	}
	if lib.Dependencies().Len() != 2 {
		t.Errorf("Dependencies().Len() = %d, want 2", lib.Dependencies().Len())
	}
}

func TestContainer_NamesInDeclarationOrder(t *testing.T) {
	t.Parallel()

	ext := newTestExtension()
	for _, name := range []string{"npmjs", "github", "gitlab"} {
		ext.Registries.Declare(name)
	}
	got := ext.Registries.Names()
	want := []string{"npmjs", "github", "gitlab"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", got, want)
		}
	}
	if _, ok := ext.Registries.Find("missing"); ok {
		t.Error("Find() must not declare missing names")
	}
}

func TestPublication_DefaultsPropagateUntilSet(t *testing.T) {
	t.Parallel()

	ext := newTestExtension()
	pub := ext.Publications.Declare("lib")

	ext.Defaults.Organization = "acme"
	if pub.Organization() != "acme" {
		t.Errorf("Organization() = %q, want default %q", pub.Organization(), "acme")
	}

	ext.Defaults.Organization = "globex"
	if pub.Organization() != "globex" {
		t.Errorf("Organization() = %q, want updated default %q", pub.Organization(), "globex")
	}

	pub.SetOrganization("initech")
	ext.Defaults.Organization = "umbrella"
	if pub.Organization() != "initech" {
		t.Errorf("Organization() = %q, want own value %q", pub.Organization(), "initech")
	}
}

func TestPublication_ProjectDefaults(t *testing.T) {
	t.Parallel()

	ext := newTestExtension()
	pub := ext.Publications.Declare("js")

	if pub.ModuleName() != "demo" {
		t.Errorf("ModuleName() = %q, want project name", pub.ModuleName())
	}
	if pub.Version() != "1.0.0" {
		t.Errorf("Version() = %q, want project version", pub.Version())
	}
	want := filepath.Join("/work/demo", "build", "publications", "npm", "js")
	if pub.DestinationDir() != want {
		t.Errorf("DestinationDir() = %q, want %q", pub.DestinationDir(), want)
	}
	if pub.Registry() != DefaultRegistry {
		t.Errorf("Registry() = %q, want %q", pub.Registry(), DefaultRegistry)
	}
	if pub.Access() != AccessPublic {
		t.Errorf("Access() = %q, want %q", pub.Access(), AccessPublic)
	}
}

func TestPublication_BindOutputOnce(t *testing.T) {
	t.Parallel()

	ext := newTestExtension()
	pub := ext.Publications.Declare("js")

	if !pub.BindOutput(CompiledOutput{Target: "js", OutputFile: "/out/a.js"}) {
		t.Fatal("first BindOutput() must bind")
	}
	if pub.BindOutput(CompiledOutput{Target: "js", OutputFile: "/out/b.js"}) {
		t.Fatal("second BindOutput() must be a no-op")
	}
	if pub.Output().OutputFile != "/out/a.js" {
		t.Errorf("OutputFile = %q", pub.Output().OutputFile)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	if got := Resolve(Some("own"), func() string { return "default" }); got != "own" {
		t.Errorf("Resolve(set) = %q", got)
	}
	if got := Resolve(Optional[string]{}, func() string { return "default" }); got != "default" {
		t.Errorf("Resolve(unset) = %q", got)
	}
	if got := Resolve(Optional[string]{}, nil); got != "" {
		t.Errorf("Resolve(unset, nil) = %q", got)
	}

	o := Some(3)
	o.Clear()
	if o.IsSet() {
		t.Error("Clear() left the value set")
	}
}

func TestDependencySet(t *testing.T) {
	t.Parallel()

	var set DependencySet
	dep := Dependency{Name: "left-pad", Version: "1.3.0"}

	if !set.Add(dep) {
		t.Fatal("first Add() must report a new entry")
	}
	if set.Add(Dependency{Name: "left-pad", Version: "1.3.0", Scope: ScopeNormal}) {
		t.Fatal("Add() of an identical dependency must be a no-op")
	}
	if n := set.AddAll(dep, Dependency{Name: "left-pad", Version: "1.3.0", Scope: ScopeDev}); n != 1 {
		t.Errorf("AddAll() = %d, want 1", n)
	}
	if set.Len() != 2 {
		t.Errorf("Len() = %d, want 2", set.Len())
	}
	if !set.Contains(dep) {
		t.Error("Contains() = false for an added dependency")
	}
}

func TestToCamelCase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, upper, lower string
	}{
		{"js", "Js", "js"},
		{"jsMain", "JsMain", "jsMain"},
		{"browser-lib", "BrowserLib", "browserLib"},
		{"my_registry.v2", "MyRegistryV2", "myRegistryV2"},
		{"GitHub", "GitHub", "gitHub"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := ToCamelCase(tt.in); got != tt.upper {
			t.Errorf("ToCamelCase(%q) = %q, want %q", tt.in, got, tt.upper)
		}
		if got := ToLowerCamelCase(tt.in); got != tt.lower {
			t.Errorf("ToLowerCamelCase(%q) = %q, want %q", tt.in, got, tt.lower)
		}
	}
}

func TestPublication_BindTargetKeepsUserValues(t *testing.T) {
	t.Parallel()

	ext := newTestExtension()
	pub := ext.Publications.Declare("js")
	pub.SetMain("custom.js")
	pub.SetBundleDependencies(false)

	output := CompiledOutput{Target: "js", OutputFile: "/out/demo.js"}
	deps := []Dependency{{Name: "left-pad", Version: "1.3.0"}}

	if !pub.BindTarget(output, deps) {
		t.Fatal("first BindTarget() must bind the output")
	}
	if pub.BindTarget(output, deps) {
		t.Fatal("second BindTarget() must not rebind")
	}
	if pub.Main() != "custom.js" {
		t.Errorf("Main() = %q, want user value", pub.Main())
	}
	if pub.BundleDependencies() {
		t.Error("BindTarget() overrode an explicit bundling choice")
	}
	if pub.Dependencies().Len() != 1 {
		t.Errorf("Dependencies().Len() = %d, want 1", pub.Dependencies().Len())
	}

	fresh := ext.Publications.Declare("browser")
	fresh.BindTarget(CompiledOutput{Target: "browser", OutputFile: "/out/browser.js"}, nil)
	if fresh.Main() != "browser.js" || !fresh.BundleDependencies() {
		t.Errorf("defaults not applied: main=%q bundle=%v", fresh.Main(), fresh.BundleDependencies())
	}
}
