// SPDX-License-Identifier: MPL-2.0

package npmpublish

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/npmpub/npmpub/pkg/packagejson"
)

var (
	// ErrInvalidPublication is the sentinel error wrapped by rejected publications.
	ErrInvalidPublication = errors.New("invalid publication")
	// ErrInvalidRegistry is the sentinel error wrapped by rejected registries.
	ErrInvalidRegistry = errors.New("invalid registry")
	// ErrInvalidConfiguration is wrapped by ConfigurationError. Unlike a
	// rejection it fails the evaluation.
	ErrInvalidConfiguration = errors.New("invalid npm publishing configuration")
)

type (
	// RejectionError explains why a publication or registry was excluded from
	// the task graph. It wraps ErrInvalidPublication or ErrInvalidRegistry.
	RejectionError struct {
		// Kind is "publication" or "registry".
		Kind string
		// Name is the rejected entity name.
		Name string
		// Reasons lists every failed check.
		Reasons []string

		sentinel error
	}

	// ConfigurationError reports a value on an otherwise complete publication
	// or registry that npm would refuse. It wraps ErrInvalidConfiguration.
	ConfigurationError struct {
		// Kind is "publication" or "registry".
		Kind string
		// Name is the entity name.
		Name string
		// Problems lists every bad value.
		Problems []string
	}

	// ResolvedPublication is an immutable snapshot of a valid Publication.
	// Inherited values are captured at validation time.
	ResolvedPublication struct {
		Name           string
		ModuleName     string
		Version        string
		PackageName    string
		DestinationDir string
		Main           string
		Readme         string
		Organization   string
		Registry       string
		AuthToken      string
		OTP            string
		Access         Access
		// NodeJSDir is the pre-provisioned Node.js directory; empty when the
		// publication relies on the shared setup step.
		NodeJSDir          string
		Output             CompiledOutput
		BundleDependencies bool
		Dependencies       []Dependency
		Overrides          *packagejson.PackageJSON
	}

	// ResolvedRegistry is an immutable snapshot of a valid Registry.
	ResolvedRegistry struct {
		Name      string
		URL       *url.URL
		AuthToken string
		OTP       string
		Access    Access
		// AccessExplicit reports whether Access was set on the registry itself
		// rather than inherited from Defaults.
		AccessExplicit bool
	}
)

// Error implements the error interface.
func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s %q is invalid: %s", e.Kind, e.Name, strings.Join(e.Reasons, "; "))
}

// Unwrap returns the kind-specific sentinel error.
func (e *RejectionError) Unwrap() error { return e.sentinel }

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s %q is misconfigured: %s", e.Kind, e.Name, strings.Join(e.Problems, "; "))
}

// Unwrap returns ErrInvalidConfiguration.
func (e *ConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

// NeedsSetup reports whether the publication depends on the shared Node.js
// setup step.
func (r *ResolvedPublication) NeedsSetup() bool {
	return r.NodeJSDir == ""
}

// PackageJSON generates the package descriptor. Descriptor overrides declared
// on the publication win over generated fields.
func (r *ResolvedPublication) PackageJSON() *packagejson.PackageJSON {
	pj := &packagejson.PackageJSON{
		Name:    r.PackageName,
		Version: r.Version,
		Main:    r.Main,
	}
	for _, d := range r.Dependencies {
		var section *map[string]string
		switch d.Scope {
		case ScopeDev:
			section = &pj.DevDependencies
		case ScopeOptional:
			section = &pj.OptionalDependencies
		case ScopePeer:
			section = &pj.PeerDependencies
		default:
			section = &pj.Dependencies
		}
		if *section == nil {
			*section = make(map[string]string)
		}
		(*section)[d.Name] = d.Version
	}
	if r.BundleDependencies {
		pj.BundledDependencies = r.BundledNames()
	}
	pj.Merge(r.Overrides.Clone())
	return pj
}

// BundledNames returns the sorted names of runtime dependencies bundled into
// the package, or nil when bundling is disabled.
func (r *ResolvedPublication) BundledNames() []string {
	if !r.BundleDependencies {
		return nil
	}
	var names []string
	for _, d := range r.Dependencies {
		if d.Scope == ScopeNormal && !slices.Contains(names, d.Name) {
			names = append(names, d.Name)
		}
	}
	slices.Sort(names)
	return names
}

// ValidatePublication checks p and returns its resolved snapshot. A
// publication without compiled output or with a blank module name is
// rejected with a *RejectionError. A complete publication whose access
// level is unknown or whose version is not semantic yields a
// *ConfigurationError instead.
func ValidatePublication(p *Publication) (*ResolvedPublication, error) {
	var reasons []string
	if p.Output() == nil {
		reasons = append(reasons, "no compiled output is bound")
	}
	moduleName := strings.TrimSpace(p.ModuleName())
	if moduleName == "" {
		reasons = append(reasons, "module name is blank")
	}
	if len(reasons) > 0 {
		return nil, &RejectionError{Kind: "publication", Name: p.Name(), Reasons: reasons, sentinel: ErrInvalidPublication}
	}

	var problems []string
	access := p.Access()
	if err := access.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	version := p.Version()
	if !isSemver(version) {
		problems = append(problems, fmt.Sprintf("version %q is not a semantic version", version))
	}
	if len(problems) > 0 {
		return nil, &ConfigurationError{Kind: "publication", Name: p.Name(), Problems: problems}
	}

	nodeJSDir, _ := p.NodeJSDir()
	resolved := &ResolvedPublication{
		Name:               p.Name(),
		ModuleName:         moduleName,
		Version:            version,
		PackageName:        packagejson.ScopedName(p.Organization(), moduleName),
		DestinationDir:     p.DestinationDir(),
		Main:               p.Main(),
		Readme:             p.Readme(),
		Organization:       p.Organization(),
		Registry:           p.Registry(),
		AuthToken:          p.AuthToken(),
		OTP:                p.OTP(),
		Access:             access,
		NodeJSDir:          nodeJSDir,
		Output:             *p.Output(),
		BundleDependencies: p.BundleDependencies(),
		Dependencies:       p.Dependencies().Items(),
	}
	resolved.Overrides = p.packageJSON.Clone()
	return resolved, nil
}

// ValidateRegistry checks r and returns its resolved snapshot. A registry
// whose URL or auth token is missing is rejected with a *RejectionError. A
// complete registry whose URL is not an absolute http(s) URL or whose access
// level is unknown yields a *ConfigurationError instead.
func ValidateRegistry(r *Registry) (*ResolvedRegistry, error) {
	var reasons []string
	raw := strings.TrimSpace(r.URL())
	if raw == "" {
		reasons = append(reasons, "registry URL is missing")
	}
	token := strings.TrimSpace(r.AuthToken())
	if token == "" {
		reasons = append(reasons, "auth token is missing")
	}
	if len(reasons) > 0 {
		return nil, &RejectionError{Kind: "registry", Name: r.Name(), Reasons: reasons, sentinel: ErrInvalidRegistry}
	}

	var problems []string
	parsed, err := url.Parse(raw)
	switch {
	case err != nil:
		problems = append(problems, fmt.Sprintf("registry URL %q does not parse: %v", raw, err))
	case (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "":
		problems = append(problems, fmt.Sprintf("registry URL %q must be an absolute http(s) URL", raw))
	}
	access := r.Access()
	if err := access.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return nil, &ConfigurationError{Kind: "registry", Name: r.Name(), Problems: problems}
	}
	return &ResolvedRegistry{
		Name:           r.Name(),
		URL:            parsed,
		AuthToken:      token,
		OTP:            r.OTP(),
		Access:         access,
		AccessExplicit: r.access.IsSet(),
	}, nil
}

// isSemver accepts versions with or without a leading "v".
func isSemver(version string) bool {
	if version == "" {
		return false
	}
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return semver.IsValid(version)
}
