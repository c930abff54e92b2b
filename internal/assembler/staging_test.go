// SPDX-License-Identifier: MPL-2.0

package assembler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/npmpub/npmpub/internal/testutil"
	"github.com/npmpub/npmpub/pkg/npmpublish"
	"github.com/npmpub/npmpub/pkg/packagejson"
)

func TestStage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outDir := filepath.Join(dir, "build", "js")
	testutil.MustWriteFile(t, filepath.Join(outDir, "demo.js"), "module.exports = 1;\n")
	testutil.MustWriteFile(t, filepath.Join(outDir, "maps", "demo.js.map"), "{}")
	testutil.MustWriteFile(t, filepath.Join(dir, "resources", "data.txt"), "data")
	testutil.MustWriteFile(t, filepath.Join(dir, "node_modules", "left-pad", "index.js"), "pad")
	testutil.MustWriteFile(t, filepath.Join(dir, "node_modules", "@acme", "util", "index.js"), "util")
	testutil.MustWriteFile(t, filepath.Join(dir, "docs", "README-npm.md"), "# demo\n")

	dest := filepath.Join(dir, "build", "publications", "npm", "js")
	testutil.MustWriteFile(t, filepath.Join(dest, "stale.txt"), "left over")

	pub := &npmpublish.ResolvedPublication{
		Name:           "js",
		PackageName:    "demo",
		Version:        "1.0.0",
		Main:           "demo.js",
		DestinationDir: dest,
		Readme:         filepath.Join(dir, "docs", "README-npm.md"),
		Output: npmpublish.CompiledOutput{
			OutputFile:     filepath.Join(outDir, "demo.js"),
			ResourcesDir:   filepath.Join(dir, "resources"),
			NodeModulesDir: filepath.Join(dir, "node_modules"),
		},
		BundleDependencies: true,
		Dependencies: []npmpublish.Dependency{
			{Name: "left-pad", Version: "1.3.0", Scope: npmpublish.ScopeNormal},
			{Name: "@acme/util", Version: "2.0.0", Scope: npmpublish.ScopeNormal},
			{Name: "missing-dep", Version: "0.1.0", Scope: npmpublish.ScopeNormal},
		},
	}

	if err := Stage(context.Background(), pub); err != nil {
		t.Fatalf("Stage() error = %v", err)
	}

	for _, rel := range []string{
		"demo.js",
		filepath.Join("maps", "demo.js.map"),
		"data.txt",
		ReadmeFileName,
		filepath.Join("node_modules", "left-pad", "index.js"),
		filepath.Join("node_modules", "@acme", "util", "index.js"),
	} {
		if _, err := os.Stat(filepath.Join(dest, rel)); err != nil {
			t.Errorf("staged package lacks %s: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dest, "stale.txt")); !os.IsNotExist(err) {
		t.Error("Stage() must clear the destination first")
	}

	pj, err := packagejson.ReadFile(filepath.Join(dest, packagejson.FileName))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if pj.Name != "demo" || pj.Main != "demo.js" || len(pj.BundledDependencies) != 3 {
		t.Errorf("package.json = %+v", pj)
	}
}

func TestStage_DestinationInsideOutputDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "build", "demo.js"), "x")
	dest := filepath.Join(dir, "build", "publications", "npm", "js")

	pub := &npmpublish.ResolvedPublication{
		Name:           "js",
		PackageName:    "demo",
		Version:        "1.0.0",
		DestinationDir: dest,
		Output:         npmpublish.CompiledOutput{OutputFile: filepath.Join(dir, "build", "demo.js")},
	}
	for range 2 {
		if err := Stage(context.Background(), pub); err != nil {
			t.Fatalf("Stage() error = %v", err)
		}
	}
	if _, err := os.Stat(filepath.Join(dest, "publications")); !os.IsNotExist(err) {
		t.Error("Stage() copied the destination into itself")
	}
	testutil.MustReadFile(t, filepath.Join(dest, "demo.js"))
}

func TestStage_ResourcesOverrideOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outDir := filepath.Join(dir, "build", "js")
	resDir := filepath.Join(dir, "resources")
	outside := filepath.Join(dir, "outside.txt")
	testutil.MustWriteFile(t, outside, "untouched")

	// lib.js is a file in the output and a link in the resources.
	testutil.MustWriteFile(t, filepath.Join(outDir, "lib.js"), "compiled")
	testutil.MustWriteFile(t, filepath.Join(resDir, "real.js"), "real")
	if err := os.Symlink("real.js", filepath.Join(resDir, "lib.js")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	// shared.txt is a link in the output and a file in the resources.
	if err := os.Symlink(outside, filepath.Join(outDir, "shared.txt")); err != nil {
		t.Fatal(err)
	}
	testutil.MustWriteFile(t, filepath.Join(resDir, "shared.txt"), "resource")

	dest := filepath.Join(dir, "build", "publications", "npm", "js")
	pub := &npmpublish.ResolvedPublication{
		Name:           "js",
		PackageName:    "demo",
		Version:        "1.0.0",
		DestinationDir: dest,
		Output: npmpublish.CompiledOutput{
			OutputFile:   filepath.Join(outDir, "lib.js"),
			ResourcesDir: resDir,
		},
	}
	if err := Stage(context.Background(), pub); err != nil {
		t.Fatalf("Stage() error = %v", err)
	}

	if link, err := os.Readlink(filepath.Join(dest, "lib.js")); err != nil || link != "real.js" {
		t.Errorf("staged lib.js link = %q, %v, want real.js", link, err)
	}
	info, err := os.Lstat(filepath.Join(dest, "shared.txt"))
	if err != nil || info.Mode()&os.ModeSymlink != 0 {
		t.Errorf("staged shared.txt must be a regular file: %v", err)
	}
	if got := testutil.MustReadFile(t, filepath.Join(dest, "shared.txt")); got != "resource" {
		t.Errorf("staged shared.txt = %q, want the resource", got)
	}
	if got := testutil.MustReadFile(t, outside); got != "untouched" {
		t.Errorf("link target was written through: %q", got)
	}
}

func TestWithin(t *testing.T) {
	t.Parallel()

	base := filepath.Join("a", "b")
	tests := []struct {
		path string
		want bool
	}{
		{base, true},
		{filepath.Join(base, "c"), true},
		{filepath.Join("a", "bc"), false},
		{"a", false},
		{filepath.Join("a", "..b"), false},
	}
	for _, tt := range tests {
		if got := within(tt.path, base); got != tt.want {
			t.Errorf("within(%q, %q) = %v, want %v", tt.path, base, got, tt.want)
		}
	}
}
