// SPDX-License-Identifier: MPL-2.0

package npmpublish

import (
	"path/filepath"

	"github.com/npmpub/npmpub/pkg/packagejson"
)

type (
	// Project describes the host project publications are declared in.
	Project struct {
		// Name is the project name, used as the default module name.
		Name string
		// Version is the project version, used as the default package version.
		Version string
		// Dir is the project root directory.
		Dir string
		// BuildDir is the build output directory. Relative paths are resolved
		// against Dir.
		BuildDir string
	}

	// CompiledOutput references the build outputs of one compiled target.
	CompiledOutput struct {
		// Target is the toolchain target name.
		Target string
		// Compilation is the compilation the output belongs to.
		Compilation string
		// CompileTask is the task producing OutputFile.
		CompileTask string
		// OutputFile is the compiled entry file.
		OutputFile string
		// ResourcesTask is the task producing ResourcesDir. Optional.
		ResourcesTask string
		// ResourcesDir holds processed resources. Optional.
		ResourcesDir string
		// NodeModulesDir holds installed npm dependencies used when bundling. Optional.
		NodeModulesDir string
	}

	// Publication is one publishable npm package, typically one compiled
	// target. Fields left unset read through to the project or Defaults.
	Publication struct {
		name     string
		project  Project
		defaults *Defaults

		moduleName     Optional[string]
		version        Optional[string]
		destinationDir Optional[string]
		main           Optional[string]
		readme         Optional[string]
		organization   Optional[string]
		registry       Optional[string]
		authToken      Optional[string]
		otp            Optional[string]
		access         Optional[Access]
		nodeJSDir      Optional[string]

		output             *CompiledOutput
		bundleDependencies Optional[bool]
		dependencies       DependencySet
		packageJSON        *packagejson.PackageJSON
	}
)

// OutputDir is the directory containing OutputFile.
func (o CompiledOutput) OutputDir() string {
	return filepath.Dir(o.OutputFile)
}

// AbsBuildDir returns BuildDir resolved against Dir.
func (p Project) AbsBuildDir() string {
	buildDir := p.BuildDir
	if buildDir == "" {
		buildDir = "build"
	}
	if filepath.IsAbs(buildDir) {
		return buildDir
	}
	return filepath.Join(p.Dir, buildDir)
}

func newPublication(name string, project Project, defaults *Defaults) *Publication {
	return &Publication{name: name, project: project, defaults: defaults}
}

// Name returns the normalized publication name.
func (p *Publication) Name() string { return p.name }

// ModuleName returns the npm module name, defaulting to the project name.
func (p *Publication) ModuleName() string {
	return Resolve(p.moduleName, func() string { return p.project.Name })
}

// SetModuleName overrides the module name.
func (p *Publication) SetModuleName(v string) { p.moduleName.Set(v) }

// Version returns the package version, defaulting to the project version.
func (p *Publication) Version() string {
	return Resolve(p.version, func() string { return p.project.Version })
}

// SetVersion overrides the package version.
func (p *Publication) SetVersion(v string) { p.version.Set(v) }

// DestinationDir returns the staging directory, defaulting to
// <buildDir>/publications/npm/<name>.
func (p *Publication) DestinationDir() string {
	return Resolve(p.destinationDir, func() string {
		return filepath.Join(p.project.AbsBuildDir(), "publications", "npm", p.name)
	})
}

// SetDestinationDir overrides the staging directory.
func (p *Publication) SetDestinationDir(v string) { p.destinationDir.Set(v) }

// Main returns the main entry file name.
func (p *Publication) Main() string {
	return Resolve(p.main, nil)
}

// SetMain overrides the main entry file name.
func (p *Publication) SetMain(v string) { p.main.Set(v) }

// Readme returns the readme path, defaulting to Defaults.Readme.
func (p *Publication) Readme() string {
	return Resolve(p.readme, func() string { return p.defaults.Readme })
}

// SetReadme overrides the readme path.
func (p *Publication) SetReadme(v string) { p.readme.Set(v) }

// Organization returns the package scope, defaulting to Defaults.Organization.
func (p *Publication) Organization() string {
	return Resolve(p.organization, func() string { return p.defaults.Organization })
}

// SetOrganization overrides the package scope.
func (p *Publication) SetOrganization(v string) { p.organization.Set(v) }

// Registry returns the registry URL, defaulting to Defaults.Registry.
func (p *Publication) Registry() string {
	return Resolve(p.registry, func() string { return p.defaults.Registry })
}

// SetRegistry overrides the registry URL.
func (p *Publication) SetRegistry(v string) { p.registry.Set(v) }

// AuthToken returns the publish token, defaulting to Defaults.AuthToken.
func (p *Publication) AuthToken() string {
	return Resolve(p.authToken, func() string { return p.defaults.AuthToken })
}

// SetAuthToken overrides the publish token.
func (p *Publication) SetAuthToken(v string) { p.authToken.Set(v) }

// OTP returns the one-time password, defaulting to Defaults.OTP.
func (p *Publication) OTP() string {
	return Resolve(p.otp, func() string { return p.defaults.OTP })
}

// SetOTP overrides the one-time password.
func (p *Publication) SetOTP(v string) { p.otp.Set(v) }

// Access returns the access level, defaulting to Defaults.Access.
func (p *Publication) Access() Access {
	return Resolve(p.access, func() Access { return p.defaults.Access })
}

// SetAccess overrides the access level.
func (p *Publication) SetAccess(v Access) { p.access.Set(v) }

// NodeJSDir returns the pre-provisioned Node.js installation directory, if any.
func (p *Publication) NodeJSDir() (string, bool) {
	return p.nodeJSDir.Get()
}

// SetNodeJSDir points the publication at a pre-provisioned Node.js
// installation, removing its dependency on the shared setup step.
func (p *Publication) SetNodeJSDir(v string) { p.nodeJSDir.Set(v) }

// Output returns the compiled output reference, or nil when unbound.
func (p *Publication) Output() *CompiledOutput {
	return p.output
}

// SetOutput sets the compiled output reference explicitly.
func (p *Publication) SetOutput(o CompiledOutput) {
	p.output = &o
}

// BindOutput sets the compiled output reference unless one is already set,
// and reports whether it did.
func (p *Publication) BindOutput(o CompiledOutput) bool {
	if p.output != nil {
		return false
	}
	p.SetOutput(o)
	return true
}

// BundleDependencies reports whether dependencies are bundled into the package.
func (p *Publication) BundleDependencies() bool { return Resolve(p.bundleDependencies, nil) }

// SetBundleDependencies toggles dependency bundling.
func (p *Publication) SetBundleDependencies(v bool) { p.bundleDependencies.Set(v) }

// BindTarget wires compiled target metadata into the publication. The output
// reference is bound once; main and bundling are only filled in when the
// user left them unset; deps accumulate with set semantics. It reports
// whether the output was newly bound.
func (p *Publication) BindTarget(o CompiledOutput, deps []Dependency) bool {
	bound := p.BindOutput(o)
	if !p.main.IsSet() && o.OutputFile != "" {
		p.main.Set(filepath.Base(o.OutputFile))
	}
	if !p.bundleDependencies.IsSet() {
		p.bundleDependencies.Set(true)
	}
	p.dependencies.AddAll(deps...)
	return bound
}

// Dependencies returns the dependency set. Additions accumulate across
// configuration blocks.
func (p *Publication) Dependencies() *DependencySet { return &p.dependencies }

// PackageJSON returns the descriptor overrides, creating them on first use.
// Fields set here win over generated descriptor fields.
func (p *Publication) PackageJSON() *packagejson.PackageJSON {
	if p.packageJSON == nil {
		p.packageJSON = &packagejson.PackageJSON{}
	}
	return p.packageJSON
}
