// SPDX-License-Identifier: MPL-2.0

package npmpubfile

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/shell"

	"github.com/npmpub/npmpub/pkg/cueutil"
	"github.com/npmpub/npmpub/pkg/npmpublish"
	"github.com/npmpub/npmpub/pkg/packagejson"
)

const (
	// FileName is the project file name looked up in the project directory.
	FileName = "npmpub.cue"
	// DefaultChangelog is the changelog file used for release notes.
	DefaultChangelog = "CHANGELOG.md"
)

//go:embed npmpubfile_schema.cue
var schema []byte

// ErrNotFound is returned by Locate when no project file exists.
var ErrNotFound = errors.New("project file not found")

type (
	// Project is the decoded content of a project file.
	Project struct {
		Name              string                 `json:"name"`
		Version           string                 `json:"version"`
		BuildDir          string                 `json:"build_dir,omitempty"`
		ToolchainManifest string                 `json:"toolchain_manifest,omitempty"`
		Defaults          *Defaults              `json:"defaults,omitempty"`
		Publications      map[string]Publication `json:"publications,omitempty"`
		Registries        map[string]Registry    `json:"registries,omitempty"`
		Release           *Release               `json:"release,omitempty"`

		// FilePath is the file the project was parsed from.
		FilePath string `json:"-"`
	}

	// Defaults mirrors npmpublish.Defaults. Unset fields keep the current
	// value of the extension defaults.
	Defaults struct {
		Readme       string `json:"readme,omitempty"`
		Organization string `json:"organization,omitempty"`
		Registry     string `json:"registry,omitempty"`
		AuthToken    string `json:"auth_token,omitempty"`
		OTP          string `json:"otp,omitempty"`
		Access       string `json:"access,omitempty"`
		Dry          *bool  `json:"dry,omitempty"`
	}

	// Dependency is one declared npm dependency.
	Dependency struct {
		Name    string `json:"name"`
		Version string `json:"version"`
		Scope   string `json:"scope"`
	}

	// Output declares compiled output for a publication that is not bound
	// from the toolchain manifest.
	Output struct {
		Target         string `json:"target,omitempty"`
		CompileTask    string `json:"compile_task"`
		OutputFile     string `json:"output_file"`
		ResourcesTask  string `json:"resources_task,omitempty"`
		ResourcesDir   string `json:"resources_dir,omitempty"`
		NodeModulesDir string `json:"node_modules_dir,omitempty"`
	}

	// Publication is one publications entry.
	Publication struct {
		ModuleName         string         `json:"module_name,omitempty"`
		Version            string         `json:"version,omitempty"`
		DestinationDir     string         `json:"destination_dir,omitempty"`
		Main               string         `json:"main,omitempty"`
		Readme             string         `json:"readme,omitempty"`
		Organization       string         `json:"organization,omitempty"`
		Registry           string         `json:"registry,omitempty"`
		AuthToken          string         `json:"auth_token,omitempty"`
		OTP                string         `json:"otp,omitempty"`
		Access             string         `json:"access,omitempty"`
		NodeJSDir          string         `json:"node_js_dir,omitempty"`
		BundleDependencies *bool          `json:"bundle_dependencies,omitempty"`
		Dependencies       []Dependency   `json:"dependencies,omitempty"`
		Output             *Output        `json:"output,omitempty"`
		PackageJSON        map[string]any `json:"package_json,omitempty"`
	}

	// Registry is one registries entry.
	Registry struct {
		Registry  string `json:"registry,omitempty"`
		AuthToken string `json:"auth_token,omitempty"`
		OTP       string `json:"otp,omitempty"`
		Access    string `json:"access,omitempty"`
	}

	// Release configures the GitLab release notification.
	Release struct {
		GitLabURL string `json:"gitlab_url"`
		ProjectID string `json:"project_id"`
		Token     string `json:"token,omitempty"`
		Changelog string `json:"changelog,omitempty"`
		AssetURL  string `json:"asset_url,omitempty"`
	}
)

// Locate returns the project file path in dir, or ErrNotFound.
func Locate(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w in %s", ErrNotFound, dir)
		}
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	return path, nil
}

// Parse validates data against the project schema and decodes it. filename
// is used in error messages and as FilePath.
func Parse(data []byte, filename string) (*Project, error) {
	result, err := cueutil.ParseAndDecode[Project](schema, data, "#Project", cueutil.WithFilename(filename))
	if err != nil {
		return nil, err
	}
	p := result.Value
	p.FilePath = filename
	if err := p.expandEnv(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return p, nil
}

// ParseFile reads and parses the project file at path.
func ParseFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	return Parse(data, path)
}

// Dir returns the project directory: the directory holding the project file.
func (p *Project) Dir() string {
	if p.FilePath == "" {
		return "."
	}
	return filepath.Dir(p.FilePath)
}

// Info returns the project identity used by publications.
func (p *Project) Info() npmpublish.Project {
	return npmpublish.Project{
		Name:     p.Name,
		Version:  p.Version,
		Dir:      p.Dir(),
		BuildDir: p.BuildDir,
	}
}

// ManifestPath returns the toolchain manifest path resolved against the
// project directory, or "" when none is declared.
func (p *Project) ManifestPath() string {
	return p.resolve(p.ToolchainManifest)
}

// ChangelogPath returns the release changelog path resolved against the
// project directory.
func (p *Project) ChangelogPath() string {
	if p.Release == nil || p.Release.Changelog == "" {
		return p.resolve(DefaultChangelog)
	}
	return p.resolve(p.Release.Changelog)
}

func (p *Project) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Dir(), path)
}

// Apply replays the project declarations onto ext. Publications are applied
// in name order so the resulting declaration order is stable.
func (p *Project) Apply(ext *npmpublish.Extension) error {
	if d := p.Defaults; d != nil {
		setIf(&ext.Defaults.Readme, p.resolve(d.Readme))
		setIf(&ext.Defaults.Organization, d.Organization)
		setIf(&ext.Defaults.Registry, d.Registry)
		setIf(&ext.Defaults.AuthToken, d.AuthToken)
		setIf(&ext.Defaults.OTP, d.OTP)
		if d.Access != "" {
			ext.Defaults.Access = npmpublish.Access(d.Access)
		}
		if d.Dry != nil {
			ext.Defaults.Dry = *d.Dry
		}
	}

	for _, name := range sortedKeys(p.Publications) {
		decl := p.Publications[name]
		overrides, err := decl.packageJSON()
		if err != nil {
			return fmt.Errorf("publication %q: %w", name, err)
		}
		ext.Publications.Configure(name, func(pub *npmpublish.Publication) {
			p.applyPublication(pub, decl, overrides)
		})
	}

	for _, name := range sortedKeys(p.Registries) {
		decl := p.Registries[name]
		ext.Registries.Configure(name, func(r *npmpublish.Registry) {
			callIf(r.SetURL, decl.Registry)
			callIf(r.SetAuthToken, decl.AuthToken)
			callIf(r.SetOTP, decl.OTP)
			if decl.Access != "" {
				r.SetAccess(npmpublish.Access(decl.Access))
			}
		})
	}
	return nil
}

func (p *Project) applyPublication(pub *npmpublish.Publication, decl Publication, overrides *packagejson.PackageJSON) {
	callIf(pub.SetModuleName, decl.ModuleName)
	callIf(pub.SetVersion, decl.Version)
	callIf(pub.SetDestinationDir, p.resolve(decl.DestinationDir))
	callIf(pub.SetMain, decl.Main)
	callIf(pub.SetReadme, p.resolve(decl.Readme))
	callIf(pub.SetOrganization, decl.Organization)
	callIf(pub.SetRegistry, decl.Registry)
	callIf(pub.SetAuthToken, decl.AuthToken)
	callIf(pub.SetOTP, decl.OTP)
	callIf(pub.SetNodeJSDir, p.resolve(decl.NodeJSDir))
	if decl.Access != "" {
		pub.SetAccess(npmpublish.Access(decl.Access))
	}
	if decl.BundleDependencies != nil {
		pub.SetBundleDependencies(*decl.BundleDependencies)
	}
	for _, d := range decl.Dependencies {
		pub.Dependencies().Add(npmpublish.Dependency{
			Name:    d.Name,
			Version: d.Version,
			Scope:   npmpublish.DependencyScope(d.Scope),
		})
	}
	if o := decl.Output; o != nil {
		target := o.Target
		if target == "" {
			target = pub.Name()
		}
		pub.SetOutput(npmpublish.CompiledOutput{
			Target:         target,
			CompileTask:    o.CompileTask,
			OutputFile:     p.resolve(o.OutputFile),
			ResourcesTask:  o.ResourcesTask,
			ResourcesDir:   p.resolve(o.ResourcesDir),
			NodeModulesDir: p.resolve(o.NodeModulesDir),
		})
		if decl.Main == "" {
			pub.SetMain(filepath.Base(o.OutputFile))
		}
	}
	if overrides != nil {
		pub.PackageJSON().Merge(overrides)
	}
}

// packageJSON converts the free-form package_json block into descriptor
// overrides. Unknown keys are carried as extras.
func (decl Publication) packageJSON() (*packagejson.PackageJSON, error) {
	if len(decl.PackageJSON) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(decl.PackageJSON)
	if err != nil {
		return nil, fmt.Errorf("package_json: %w", err)
	}
	var pj packagejson.PackageJSON
	if err := json.Unmarshal(raw, &pj); err != nil {
		return nil, fmt.Errorf("package_json: %w", err)
	}
	return &pj, nil
}

// expandEnv expands environment references in credential, URL and path
// values.
func (p *Project) expandEnv() error {
	var errs []error
	expand := func(s *string) {
		if !strings.Contains(*s, "$") {
			return
		}
		v, err := shell.Expand(*s, nil)
		if err != nil {
			errs = append(errs, fmt.Errorf("expand %q: %w", *s, err))
			return
		}
		*s = v
	}

	expand(&p.Version)
	expand(&p.BuildDir)
	if d := p.Defaults; d != nil {
		for _, s := range []*string{&d.Readme, &d.Organization, &d.Registry, &d.AuthToken, &d.OTP} {
			expand(s)
		}
	}
	for name, pub := range p.Publications {
		for _, s := range []*string{
			&pub.ModuleName, &pub.Version, &pub.DestinationDir, &pub.Readme, &pub.Organization,
			&pub.Registry, &pub.AuthToken, &pub.OTP, &pub.NodeJSDir,
		} {
			expand(s)
		}
		p.Publications[name] = pub
	}
	for name, reg := range p.Registries {
		for _, s := range []*string{&reg.Registry, &reg.AuthToken, &reg.OTP} {
			expand(s)
		}
		p.Registries[name] = reg
	}
	if r := p.Release; r != nil {
		for _, s := range []*string{&r.GitLabURL, &r.ProjectID, &r.Token, &r.AssetURL} {
			expand(s)
		}
	}
	return errors.Join(errs...)
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func callIf(set func(string), v string) {
	if v != "" {
		set(v)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
